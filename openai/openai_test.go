package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibreez3/learnsphere-ai/assistant"
	"github.com/ibreez3/learnsphere-ai/openai"
)

func newClient(t *testing.T, h http.HandlerFunc) (*assistant.Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := assistant.DefaultConfig()
	cfg.Credential = "sk-sdk"
	cfg.BaseURL = srv.URL
	cfg.RequestTimeout = 2 * time.Second
	c := assistant.NewClient(cfg, openai.NewTransport(srv.URL)).
		WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })
	return c, &calls
}

func TestTransport_Success(t *testing.T) {
	var got map[string]any
	var auth, path string
	c, calls := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth, path = r.Header.Get("Authorization"), r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  hello  "}}]}`)
	})

	text, err := c.Complete(context.Background(), "hi", []assistant.Message{
		assistant.NewMessage(assistant.RoleUser, "earlier"),
		assistant.NewMessage(assistant.RoleAssistant, "reply"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.EqualValues(t, 1, calls.Load())

	assert.Equal(t, "/chat/completions", path)
	assert.Equal(t, "Bearer sk-sdk", auth)
	assert.Equal(t, assistant.DefaultModel, got["model"])
	assert.EqualValues(t, 4096, got["max_tokens"])
	assert.Equal(t, false, got["stream"])

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 4)
	roles := make([]string, 0, len(msgs))
	for _, m := range msgs {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
}

func TestTransport_ErrorStatusesReachTheClient(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		want      string
		wantCalls int32
	}{
		{"rate limited json", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, assistant.RateLimitNotice, 3},
		{"unavailable without body", http.StatusServiceUnavailable, ``, assistant.WarmingUpNotice, 3},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, assistant.InvalidKeyNotice, 1},
		{"quota", http.StatusBadRequest, `{"message":"free inference limit reached"}`, assistant.QuotaNotice, 1},
		{"plain text server error", http.StatusInternalServerError, `upstream exploded`, assistant.FallbackNotice, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			text, err := c.Complete(context.Background(), "hi", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestTransport_NativeContentShape(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"content":"native reply"}`)
	})

	text, err := c.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "native reply", text)
}
