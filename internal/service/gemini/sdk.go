package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"GanttGen/internal/domain/models"
	"GanttGen/internal/domain/repository"
	"GanttGen/pkg/logger"

	"google.golang.org/genai"
)

// SDKClient calls generateContent through google.golang.org/genai.
type SDKClient struct {
	caller
	client *genai.Client
	model  string
	cfg    Config
}

// NewSDKClient creates the genai client for the Gemini API backend.
func NewSDKClient(ctx context.Context, cfg Config, l *logger.Logger, m repository.Metrics) (*SDKClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		root, version := splitVersion(cfg.BaseURL)
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: root, APIVersion: version}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &SDKClient{
		caller: caller{log: l, metrics: m, policy: cfg.Retry},
		client: client,
		model:  cfg.Model,
		cfg:    cfg,
	}, nil
}

// Complete implements repository.Completer.
func (c *SDKClient) Complete(ctx context.Context, req *models.CompletionRequest) (json.RawMessage, error) {
	gc, err := c.generateConfig(req)
	if err != nil {
		return nil, fmt.Errorf("build generation config: %w", err)
	}

	return c.complete(ctx, req, TransportSDK, func(ctx context.Context, req *models.CompletionRequest) (json.RawMessage, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.model,
			[]*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)}, gc)
		if err != nil {
			return nil, err
		}
		return decodeSDK(resp)
	})
}

func (c *SDKClient) generateConfig(req *models.CompletionRequest) (*genai.GenerateContentConfig, error) {
	temp := float32(c.cfg.Temperature)
	gc := &genai.GenerateContentConfig{
		Temperature:      &temp,
		MaxOutputTokens:  int32(c.cfg.MaxOutputTokens),
		ResponseMIMEType: "application/json",
	}
	if c.cfg.TopP > 0 {
		topP := float32(c.cfg.TopP)
		gc.TopP = &topP
	}
	if c.cfg.TopK > 0 {
		topK := float32(c.cfg.TopK)
		gc.TopK = &topK
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	if req.Schema != nil {
		schema, err := toSchema(req.Schema)
		if err != nil {
			return nil, err
		}
		gc.ResponseSchema = schema
	}
	return gc, nil
}

func decodeSDK(resp *genai.GenerateContentResponse) (json.RawMessage, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", models.ErrMalformedEnvelope)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt %s", models.ErrSafetyBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil, fmt.Errorf("%w: no candidates", models.ErrMalformedEnvelope)
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: candidate finish reason %s", models.ErrSafetyBlocked, cand.FinishReason)
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 || cand.Content.Parts[0] == nil {
		return nil, fmt.Errorf("%w: no content parts (finish reason %q)", models.ErrMalformedEnvelope, cand.FinishReason)
	}

	return payload(cand.Content.Parts[0].Text)
}

// toSchema converts the map form used by the prompt package.
func toSchema(m map[string]any) (*genai.Schema, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var s genai.Schema
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("convert schema: %w", err)
	}
	return &s, nil
}

// splitVersion turns ".../v1beta" into (".../", "v1beta").
func splitVersion(base string) (root, version string) {
	base = strings.TrimRight(base, "/")
	i := strings.LastIndexByte(base, '/')
	if i < 0 {
		return base, ""
	}
	last := base[i+1:]
	if strings.HasPrefix(last, "v1") {
		return base[:i+1], last
	}
	return base + "/", ""
}
