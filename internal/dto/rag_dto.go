package dto

type UploadedFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type UploadResponse struct {
	Message   string         `json:"message"`
	SessionId string         `json:"sessionId"`
	Files     []UploadedFile `json:"files"`
}

type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type QueryRequest struct {
	Question    string     `json:"question" validate:"required"`
	ChatHistory []ChatTurn `json:"chatHistory"`
}

type QueryResponse struct {
	Answer string `json:"answer"`
}
