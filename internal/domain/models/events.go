package models

import "time"

// Event kinds.
const (
	EventChart    = "chart"
	EventAnalysis = "analysis"
	EventChat     = "chat"
)

// GenerationEvent records the outcome of one LLM-backed operation.
type GenerationEvent struct {
	SessionID  string    `json:"sessionId"`
	Kind       string    `json:"kind"`
	Files      int       `json:"files,omitempty"`
	DurationMs int64     `json:"durationMs"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
