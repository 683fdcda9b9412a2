package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("x-api-key"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := NewClient().PostJSON(context.Background(), srv.URL, map[string]string{"x-api-key": "k"}, map[string]string{"q": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{"bad request", http.StatusBadRequest},
		{"rate limited", http.StatusTooManyRequests},
		{"unavailable", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.code)
			}))
			defer srv.Close()

			err := NewClient().PostJSON(context.Background(), srv.URL, nil, struct{}{}, nil)
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, "nope", se.Body)
		})
	}
}

func TestClient_MarshalError(t *testing.T) {
	err := NewClient().PostJSON(context.Background(), "http://127.0.0.1:0", nil, func() {}, nil)
	assert.ErrorContains(t, err, "marshal json")
}
