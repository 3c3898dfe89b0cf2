package main

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ibreez3/learnsphere-ai/assistant"
)

// provider is a scriptable OpenAI-compatible completion endpoint. Each request
// consumes the next mode of the script; the last mode repeats.
type provider struct {
	mu     sync.Mutex
	script []string
	served int

	key  string
	hang time.Duration
	log  zerolog.Logger
}

func newProvider(script []string, key string, log zerolog.Logger) *provider {
	if len(script) == 0 {
		script = []string{"ok"}
	}
	return &provider{script: script, key: key, hang: 2 * time.Minute, log: log}
}

func parseScript(s string) []string {
	var out []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, strings.ToLower(m))
		}
	}
	return out
}

func (p *provider) next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.served
	if i >= len(p.script) {
		i = len(p.script) - 1
	}
	p.served++
	return p.script[i]
}

func (p *provider) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/chat/completions", p.chatCompletion)
	r.POST("/v1/chat/completions", p.chatCompletion)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "served": p.count()})
	})
	return r
}

func (p *provider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.served
}

func (p *provider) chatCompletion(c *gin.Context) {
	mode := p.next()
	if fail := c.Query("fail"); fail != "" {
		mode = strings.ToLower(fail)
	}

	var req assistant.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError("invalid request body: "+err.Error(), "invalid_request_error"))
		return
	}
	if p.key != "" && c.GetHeader("Authorization") != "Bearer "+p.key {
		mode = "401"
	}

	p.log.Info().
		Str("mode", mode).
		Str("model", req.Model).
		Int("messages", len(req.Messages)).
		Msg("completion request")

	if ms, err := strconv.Atoi(c.Query("delay")); err == nil && ms > 0 {
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
		case <-c.Request.Context().Done():
			return
		}
	}

	switch mode {
	case "ok":
		c.JSON(http.StatusOK, completion(req, replyText(req)))
	case "content":
		c.JSON(http.StatusOK, gin.H{"content": replyText(req)})
	case "empty":
		c.JSON(http.StatusOK, completion(req, ""))
	case "429":
		c.JSON(http.StatusTooManyRequests, apiError("Rate limit exceeded. Please retry after some time.", "rate_limit_error"))
	case "503":
		c.JSON(http.StatusServiceUnavailable, apiError("Model is loading", "server_error"))
	case "401":
		c.JSON(http.StatusUnauthorized, apiError("Invalid API key", "authentication_error"))
	case "403":
		c.JSON(http.StatusForbidden, apiError("Access denied", "permission_error"))
	case "quota":
		c.JSON(http.StatusBadRequest, gin.H{"message": "You have exhausted your free inference limit. Please upgrade your plan."})
	case "500":
		c.JSON(http.StatusInternalServerError, apiError("Internal server error", "server_error"))
	case "timeout":
		select {
		case <-time.After(p.hang):
			c.JSON(http.StatusGatewayTimeout, apiError("Gateway timeout", "timeout_error"))
		case <-c.Request.Context().Done():
		}
	default:
		code, err := strconv.Atoi(mode)
		if err != nil || code < 400 || code > 599 {
			c.JSON(http.StatusInternalServerError, apiError("Unknown failure mode "+mode, "server_error"))
			return
		}
		c.JSON(code, apiError(fmt.Sprintf("Simulated error %d", code), "simulated_error"))
	}
}

func replyText(req assistant.ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == assistant.RoleUser {
			return fmt.Sprintf("Mock reply to: %s (history: %d)", req.Messages[i].Content, len(req.Messages)-2)
		}
	}
	return "Mock reply"
}

func completion(req assistant.ChatRequest, text string) gin.H {
	return gin.H{
		"id":      "chatcmpl-" + uuid.NewString(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []gin.H{{
			"index":         0,
			"finish_reason": "stop",
			"message":       gin.H{"role": "assistant", "content": text},
		}},
	}
}

func apiError(msg, typ string) gin.H {
	return gin.H{"error": gin.H{"message": msg, "type": typ}}
}
