package models

import "time"

// UploadedFile is one research document as received from the client.
type UploadedFile struct {
	Name     string
	MIMEType string
	Content  []byte
}

// ResearchSession holds the extracted research for one chart so later
// analysis and chat requests can refer back to it.
type ResearchSession struct {
	ID        string    `json:"id"`
	Research  string    `json:"research"`
	FileNames []string  `json:"fileNames"`
	CreatedAt time.Time `json:"createdAt"`
}

// CompletionRequest is a schema-constrained prompt for the LLM.
type CompletionRequest struct {
	Operation    string         // metrics/log label: chart, analysis, chat
	SystemPrompt string
	UserPrompt   string
	Schema       map[string]any // Gemini responseSchema (OpenAPI subset)
}

// ChartResult is returned from chart generation.
type ChartResult struct {
	SessionID string     `json:"sessionId"`
	Chart     *ChartData `json:"chart"`
}
