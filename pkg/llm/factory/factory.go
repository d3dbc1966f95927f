package factory

import (
	"fmt"

	"pdf-rag-be/pkg/llm"
	"pdf-rag-be/pkg/llm/gemini"
	"pdf-rag-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "gemini", "google":
		return gemini.NewGeminiProvider(apiKey, modelName), nil
	case "openai":
		return openai.NewOpenAIProvider(apiKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
