package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"GanttGen/internal/domain/models"
	domrepo "GanttGen/internal/domain/repository"
	applogger "GanttGen/pkg/logger"

	"github.com/go-playground/validator/v10"
)

const eventTimeout = 5 * time.Second

// decode unmarshals a completion payload into T and checks its shape.
func decode[T any](v *validator.Validate, kind string, raw json.RawMessage) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &models.SchemaMismatchError{Kind: kind, Err: err}
	}
	if err := v.Struct(&out); err != nil {
		return nil, &models.SchemaMismatchError{Kind: kind, Err: err}
	}
	return &out, nil
}

// errorKind labels err for metrics.
func errorKind(err error) string {
	var (
		upErr    *models.UploadError
		upstream *models.UpstreamError
		mismatch *models.SchemaMismatchError
	)
	switch {
	case errors.As(err, &upErr):
		return "upload"
	case errors.As(err, &upstream):
		return "upstream"
	case errors.As(err, &mismatch):
		return "schema_mismatch"
	case errors.Is(err, models.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// recorder finishes an operation: metrics, log and event.
type recorder struct {
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

func (r *recorder) finish(ctx context.Context, ev *models.GenerationEvent, start time.Time, err error) {
	dur := r.now().Sub(start)
	r.metrics.RecordLatency(ev.Kind, dur.Seconds())

	ev.DurationMs = dur.Milliseconds()
	ev.Success = err == nil
	ev.Timestamp = r.now().UTC()
	if err != nil {
		ev.Error = err.Error()
		r.metrics.RecordError(errorKind(err))
	}

	// detached from request cancellation
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
	defer cancel()
	if perr := r.events.PublishEvent(pctx, ev); perr != nil {
		r.l.With(
			applogger.String("kind", ev.Kind),
			applogger.String("session_id", ev.SessionID),
		).Warn("publish generation event failed", applogger.Error(perr))
	}
}
