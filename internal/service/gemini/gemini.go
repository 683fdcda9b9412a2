// Package gemini implements repository.Completer against Google's Gemini
// generateContent API, over plain REST or the official genai SDK.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"GanttGen/internal/domain/models"
	"GanttGen/internal/domain/repository"
	xhttp "GanttGen/pkg/http"
	"GanttGen/pkg/logger"
	"GanttGen/pkg/retry"
)

const (
	TransportREST = "rest"
	TransportSDK  = "sdk"

	finishSafety = "SAFETY"
)

// Config holds the model and sampling settings shared by both transports.
type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	Transport       string
	Timeout         time.Duration
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
	Retry           retry.Policy
}

// New returns the Completer for cfg.Transport.
func New(cfg Config, l *logger.Logger, m repository.Metrics) (repository.Completer, error) {
	switch cfg.Transport {
	case "", TransportREST:
		return NewRESTClient(cfg, l, m), nil
	case TransportSDK:
		return NewSDKClient(context.Background(), cfg, l, m)
	default:
		return nil, fmt.Errorf("unknown llm transport %q", cfg.Transport)
	}
}

// attemptFunc performs one call and returns the model's JSON payload.
type attemptFunc func(ctx context.Context, req *models.CompletionRequest) (json.RawMessage, error)

// caller applies the retry policy, metrics and logging around an attemptFunc.
type caller struct {
	log     *logger.Logger
	metrics repository.Metrics
	policy  retry.Policy
}

func (c *caller) complete(ctx context.Context, req *models.CompletionRequest, transport string, call attemptFunc) (json.RawMessage, error) {
	start := time.Now()
	op := req.Operation

	policy := c.policy
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		c.log.Warn("completion attempt failed",
			logger.String("operation", op),
			logger.String("transport", transport),
			logger.Int("attempt", attempt),
			logger.Duration("retry_in", wait),
			logger.Error(err))
	}

	var lastStatus int
	out, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (json.RawMessage, error) {
		c.metrics.RecordAttempt(op)
		v, err := call(ctx, req)
		if err != nil {
			lastStatus = statusOf(err)
		}
		return v, err
	})
	c.metrics.RecordLatency("llm_"+op, time.Since(start).Seconds())

	if err != nil {
		attempts := c.policy.MaxAttempts
		var rerr *retry.Error
		if errors.As(err, &rerr) {
			attempts = rerr.Attempts
			err = rerr.Err
		}
		c.metrics.RecordCompletion(op, "error")
		c.log.Error("completion failed",
			logger.String("operation", op),
			logger.String("transport", transport),
			logger.Int("attempts", attempts),
			logger.Error(err))
		return nil, &models.UpstreamError{Status: lastStatus, Attempts: attempts, Err: err}
	}

	c.metrics.RecordCompletion(op, "success")
	return out, nil
}

// payload validates the candidate text as JSON. Markdown code fences are
// stripped first.
func payload(text string) (json.RawMessage, error) {
	t := strings.TrimSpace(text)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```json")
		t = strings.TrimPrefix(t, "```")
		t = strings.TrimSuffix(strings.TrimSpace(t), "```")
		t = strings.TrimSpace(t)
	}
	if t == "" {
		return nil, fmt.Errorf("%w: empty text", models.ErrMalformedEnvelope)
	}
	if !json.Valid([]byte(t)) {
		return nil, fmt.Errorf("%w: candidate text is not JSON", models.ErrMalformedEnvelope)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(t)); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedEnvelope, err)
	}
	return buf.Bytes(), nil
}

func statusOf(err error) int {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
