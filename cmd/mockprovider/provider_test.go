package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibreez3/learnsphere-ai/assistant"
	"github.com/ibreez3/learnsphere-ai/openai"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startProvider(t *testing.T, script string) (*provider, *httptest.Server) {
	t.Helper()
	p := newProvider(parseScript(script), "sk-mock", zerolog.Nop())
	p.hang = 5 * time.Second
	srv := httptest.NewServer(p.router())
	t.Cleanup(srv.Close)
	return p, srv
}

func clientFor(url string, t assistant.Transport) *assistant.Client {
	cfg := assistant.DefaultConfig()
	cfg.Credential = "sk-mock"
	cfg.BaseURL = url
	cfg.RequestTimeout = 100 * time.Millisecond
	return assistant.NewClient(cfg, t).
		WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })
}

func TestParseScript(t *testing.T) {
	assert.Equal(t, []string{"429", "ok", "quota"}, parseScript(" 429, OK,,quota "))
	assert.Empty(t, parseScript(""))
}

func TestProvider_ScriptedModes(t *testing.T) {
	tests := []struct {
		script    string
		want      string
		wantServe int
	}{
		{"ok", "Mock reply to: hi (history: 0)", 1},
		{"content", "Mock reply to: hi (history: 0)", 1},
		{"429,503,ok", "Mock reply to: hi (history: 0)", 3},
		{"429", assistant.RateLimitNotice, 3},
		{"503", assistant.WarmingUpNotice, 3},
		{"401", assistant.InvalidKeyNotice, 1},
		{"403", assistant.InvalidKeyNotice, 1},
		{"quota", assistant.QuotaNotice, 1},
		{"500", assistant.FallbackNotice, 1},
		{"502", assistant.FallbackNotice, 1},
		{"empty", assistant.FallbackNotice, 3},
		{"empty,content", "Mock reply to: hi (history: 0)", 2},
		{"timeout", assistant.FallbackNotice, 3},
	}

	for _, tt := range tests {
		for _, transport := range []string{"http", "sdk"} {
			t.Run(tt.script+"/"+transport, func(t *testing.T) {
				p, srv := startProvider(t, tt.script)
				var tr assistant.Transport
				if transport == "sdk" {
					tr = openai.NewTransport(srv.URL)
				}

				got, err := clientFor(srv.URL, tr).Complete(context.Background(), "hi", nil)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.wantServe, p.count())
			})
		}
	}
}

func TestProvider_RejectsWrongKey(t *testing.T) {
	_, srv := startProvider(t, "ok")
	c := clientFor(srv.URL, nil)
	cfg := c.Config()
	cfg.Credential = "sk-other"

	got, err := assistant.NewClient(cfg, nil).Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, assistant.InvalidKeyNotice, got)
}

func TestProvider_FailQueryOverridesScript(t *testing.T) {
	p, _ := startProvider(t, "ok")
	r := p.router()

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions?fail=quota",
		strings.NewReader(`{"model":"m","messages":[{"role":"user","content":"hi"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer sk-mock")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	outcome, _ := assistant.Classify(w.Code, w.Body.Bytes())
	assert.Equal(t, assistant.OutcomeQuotaExhausted, outcome)
}

func TestProvider_Health(t *testing.T) {
	p, _ := startProvider(t, "ok")
	w := httptest.NewRecorder()
	p.router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}
