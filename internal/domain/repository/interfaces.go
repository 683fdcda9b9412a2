package repository

import (
	"context"
	"encoding/json"

	"GanttGen/internal/domain/models"
)

// SessionStore keeps research context between chart generation and the
// follow-up analysis and chat calls.
type SessionStore interface {
	Save(ctx context.Context, s *models.ResearchSession) error
	Get(ctx context.Context, id string) (*models.ResearchSession, error) // models.ErrSessionNotFound on miss
	Delete(ctx context.Context, id string) error
}

// Completer sends a schema-constrained prompt to the LLM and returns the raw
// JSON payload of the first candidate. It does not interpret the payload.
type Completer interface {
	Complete(ctx context.Context, req *models.CompletionRequest) (json.RawMessage, error)
}

// TextExtractor turns uploaded research files into a single corpus.
type TextExtractor interface {
	Extract(ctx context.Context, files []models.UploadedFile) (string, error)
}

// EventPublisher ships generation outcomes to an external sink.
type EventPublisher interface {
	PublishEvent(ctx context.Context, e *models.GenerationEvent) error
	Close() error
}

type Metrics interface {
	RecordCompletion(op, outcome string)
	RecordAttempt(op string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordUploadBytes(n int)
}
