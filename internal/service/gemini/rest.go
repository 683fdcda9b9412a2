package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"GanttGen/internal/domain/models"
	"GanttGen/internal/domain/repository"
	xhttp "GanttGen/pkg/http"
	"GanttGen/pkg/logger"
)

// RESTClient calls generateContent with the service HTTP client.
type RESTClient struct {
	caller
	http    *xhttp.Client
	apiKey  string
	model   string
	baseURL string
	gen     generationConfig
}

// NewRESTClient builds a REST completer. Extra client options (transport
// overrides in tests) are appended after the configured timeout.
func NewRESTClient(cfg Config, l *logger.Logger, m repository.Metrics, opts ...xhttp.ClientOption) *RESTClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://generativelanguage.googleapis.com/v1beta"
	}

	gen := generationConfig{
		MaxOutputTokens:  cfg.MaxOutputTokens,
		ResponseMimeType: "application/json",
	}
	temp, topP, topK := cfg.Temperature, cfg.TopP, cfg.TopK
	gen.Temperature = &temp
	if topP > 0 {
		gen.TopP = &topP
	}
	if topK > 0 {
		gen.TopK = &topK
	}

	return &RESTClient{
		caller:  caller{log: l, metrics: m, policy: cfg.Retry},
		http:    xhttp.NewClient(append([]xhttp.ClientOption{xhttp.WithTimeout(cfg.Timeout)}, opts...)...),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: base,
		gen:     gen,
	}
}

// Complete implements repository.Completer.
func (c *RESTClient) Complete(ctx context.Context, req *models.CompletionRequest) (json.RawMessage, error) {
	return c.complete(ctx, req, TransportREST, c.attempt)
}

func (c *RESTClient) attempt(ctx context.Context, req *models.CompletionRequest) (json.RawMessage, error) {
	body := generateRequest{
		Contents:         []content{{Role: "user", Parts: []part{{Text: req.UserPrompt}}}},
		GenerationConfig: c.gen,
	}
	body.GenerationConfig.ResponseSchema = req.Schema
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	var resp generateResponse
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	err := c.http.PostJSON(ctx, endpoint, map[string]string{"x-goog-api-key": c.apiKey}, body, &resp)
	if err != nil {
		return nil, err
	}

	return decodeEnvelope(&resp)
}

func decodeEnvelope(resp *generateResponse) (json.RawMessage, error) {
	if resp.Error != nil {
		return nil, fmt.Errorf("api error %d %s: %s", resp.Error.Code, resp.Error.Status, resp.Error.Message)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt %s", models.ErrSafetyBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", models.ErrMalformedEnvelope)
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == finishSafety {
		return nil, fmt.Errorf("%w: candidate finish reason %s", models.ErrSafetyBlocked, cand.FinishReason)
	}
	if len(cand.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no content parts (finish reason %q)", models.ErrMalformedEnvelope, cand.FinishReason)
	}

	return payload(cand.Content.Parts[0].Text)
}
