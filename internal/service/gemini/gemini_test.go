package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"GanttGen/internal/domain/models"
	"GanttGen/internal/prompt"
	"GanttGen/pkg/logger"
	"GanttGen/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMetrics struct {
	mu       sync.Mutex
	attempts int
	outcomes []string
}

func (f *fakeMetrics) RecordCompletion(_, outcome string) {
	f.mu.Lock()
	f.outcomes = append(f.outcomes, outcome)
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordAttempt(string) {
	f.mu.Lock()
	f.attempts++
	f.mu.Unlock()
}

func (f *fakeMetrics) RecordError(string) {}
func (f *fakeMetrics) RecordLatency(string, float64) {}
func (f *fakeMetrics) RecordUploadBytes(int) {}

func envelope(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
	return string(b)
}

func testConfig(baseURL string) Config {
	return Config{
		APIKey:          "test-key",
		Model:           "gemini-test",
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		MaxOutputTokens: 1024,
		Retry:           retry.Policy{MaxAttempts: 3, Backoff: retry.Constant(0)},
	}
}

func chatRequest() *models.CompletionRequest {
	return &models.CompletionRequest{
		Operation:    models.EventChat,
		SystemPrompt: "answer from research",
		UserPrompt:   "when?",
		Schema:       prompt.ChatSchema(),
	}
}

func TestREST_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
			assert.Equal(t, "OBJECT", req.GenerationConfig.ResponseSchema["type"])
			if assert.NotNil(t, req.SystemInstruction) {
				assert.Equal(t, "answer from research", req.SystemInstruction.Parts[0].Text)
			}
			assert.Equal(t, "when?", req.Contents[0].Parts[0].Text)
		}

		_, _ = io.WriteString(w, envelope(`{"answer": "Q3 2026"}`))
	}))
	defer srv.Close()

	m := &fakeMetrics{}
	c := NewRESTClient(testConfig(srv.URL+"/v1beta"), logger.Nop(), m)

	out, err := c.Complete(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"Q3 2026"}`, string(out))
	assert.Equal(t, 1, m.attempts)
	assert.Equal(t, []string{"success"}, m.outcomes)
}

func TestREST_RetriesEveryFailureKind(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&calls, 1) {
		case 1:
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		case 2:
			_, _ = io.WriteString(w, `{"candidates": []}`)
		default:
			_, _ = io.WriteString(w, envelope(`{"answer":"ok"}`))
		}
	}))
	defer srv.Close()

	m := &fakeMetrics{}
	c := NewRESTClient(testConfig(srv.URL), logger.Nop(), m)

	out, err := c.Complete(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"ok"}`, string(out))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, m.attempts)
}

func TestREST_Exhausted(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantErr    error
	}{
		{
			name: "status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "prompt blocked",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"promptFeedback": {"blockReason": "SAFETY"}}`)
			},
			wantErr: models.ErrSafetyBlocked,
		},
		{
			name: "not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, envelope("I cannot help with that"))
			},
			wantErr: models.ErrMalformedEnvelope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			m := &fakeMetrics{}
			c := NewRESTClient(testConfig(srv.URL), logger.Nop(), m)

			out, err := c.Complete(context.Background(), chatRequest())
			assert.Nil(t, out)

			var up *models.UpstreamError
			require.ErrorAs(t, err, &up)
			assert.Equal(t, 3, up.Attempts)
			assert.Equal(t, tt.wantStatus, up.Status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
			assert.Equal(t, []string{"error"}, m.outcomes)
		})
	}
}

func TestREST_StatusIsFromLastAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"promptFeedback": {"blockReason": "SAFETY"}}`)
	}))
	defer srv.Close()

	c := NewRESTClient(testConfig(srv.URL), logger.Nop(), &fakeMetrics{})
	_, err := c.Complete(context.Background(), chatRequest())

	var up *models.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, 3, up.Attempts)
	assert.Equal(t, 0, up.Status)
	assert.ErrorIs(t, err, models.ErrSafetyBlocked)
}

func TestREST_CancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Retry = retry.Policy{MaxAttempts: 3, Backoff: retry.Constant(time.Hour)}
	c := NewRESTClient(cfg, logger.Nop(), &fakeMetrics{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Complete(ctx, chatRequest())
	var up *models.UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, 1, up.Attempts)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		err  error
	}{
		{name: "ok", body: envelope(`{"a":1}`), want: `{"a":1}`},
		{name: "fenced", body: envelope("```json\n{\"a\": 1}\n```"), want: `{"a":1}`},
		{name: "api error", body: `{"error": {"code": 400, "message": "bad", "status": "INVALID_ARGUMENT"}}`},
		{name: "blocked prompt", body: `{"promptFeedback": {"blockReason": "OTHER"}}`, err: models.ErrSafetyBlocked},
		{name: "no candidates", body: `{}`, err: models.ErrMalformedEnvelope},
		{name: "safety finish", body: `{"candidates": [{"finishReason": "SAFETY"}]}`, err: models.ErrSafetyBlocked},
		{name: "no parts", body: `{"candidates": [{"content": {"parts": []}, "finishReason": "MAX_TOKENS"}]}`, err: models.ErrMalformedEnvelope},
		{name: "empty text", body: envelope("  "), err: models.ErrMalformedEnvelope},
		{name: "truncated json", body: envelope(`{"a":`), err: models.ErrMalformedEnvelope},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp generateResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))

			out, err := decodeEnvelope(&resp)
			if tt.want != "" {
				require.NoError(t, err)
				assert.JSONEq(t, tt.want, string(out))
				return
			}
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestSDK_Complete(t *testing.T) {
	var blocked atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if blocked.Load() {
			_, _ = io.WriteString(w, `{"candidates": [{"finishReason": "SAFETY"}]}`)
			return
		}
		_, _ = io.WriteString(w, envelope(`{"answer":"from sdk"}`))
	}))
	defer srv.Close()

	m := &fakeMetrics{}
	c, err := NewSDKClient(context.Background(), testConfig(srv.URL+"/v1beta"), logger.Nop(), m)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), chatRequest())
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer":"from sdk"}`, string(out))

	blocked.Store(true)
	_, err = c.Complete(context.Background(), chatRequest())
	assert.ErrorIs(t, err, models.ErrSafetyBlocked)
}

func TestNew_Transport(t *testing.T) {
	c, err := New(testConfig("http://localhost"), logger.Nop(), &fakeMetrics{})
	require.NoError(t, err)
	assert.IsType(t, &RESTClient{}, c)

	cfg := testConfig("")
	cfg.Transport = "carrier-pigeon"
	_, err = New(cfg, logger.Nop(), &fakeMetrics{})
	assert.Error(t, err)
}

func TestToSchema(t *testing.T) {
	s, err := toSchema(prompt.AnalysisSchema())
	require.NoError(t, err)
	assert.EqualValues(t, "OBJECT", s.Type)
	assert.Contains(t, s.Required, "status")
	require.NotNil(t, s.Properties["facts"])
	assert.EqualValues(t, "ARRAY", s.Properties["facts"].Type)
}

func TestSplitVersion(t *testing.T) {
	root, v := splitVersion("https://generativelanguage.googleapis.com/v1beta/")
	assert.Equal(t, "https://generativelanguage.googleapis.com/", root)
	assert.Equal(t, "v1beta", v)

	root, v = splitVersion("http://127.0.0.1:9999")
	assert.Equal(t, "http://127.0.0.1:9999/", root)
	assert.Empty(t, v)
}
