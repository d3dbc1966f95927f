package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleModel     = "model"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// RagSystemPromptPrefix is joined with the retrieved context to form the
	// system message for every answer.
	RagSystemPromptPrefix = `You are a helpful AI assistant. Answer the user's question based ONLY on the following context from their uploaded documents. If the context doesn't contain relevant information, say so. Do not make up information.

Context:
`
)
