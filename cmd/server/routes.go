package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ibreez3/learnsphere-ai/assistant"
	"github.com/ibreez3/learnsphere-ai/config"
	"github.com/ibreez3/learnsphere-ai/service"
)

type ChatReq struct {
	Prompt  string                    `json:"prompt" binding:"required,min=1,max=1000"`
	History []assistant.Message       `json:"history"`
	Learner *assistant.LearnerContext `json:"learner"`
}

type MessageReq struct {
	Content string                    `json:"content"`
	Learner *assistant.LearnerContext `json:"learner"`
}

type api struct {
	cfg     config.Config
	mgr     *service.Manager
	metrics http.Handler
	log     zerolog.Logger
}

func newRouter(a *api) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(a.log), cors(a.cfg.Server.CORSOrigins))

	r.GET("/health", a.health)
	if a.metrics != nil {
		r.GET("/metrics", gin.WrapH(a.metrics))
	}

	g := r.Group("/api")
	g.POST("/ai/chat", a.chat)
	g.GET("/quick-actions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actions": service.GetQuickActions()})
	})
	g.POST("/conversations", a.startConversation)
	g.GET("/conversations/:id", a.getConversation)
	g.POST("/conversations/:id/messages", a.sendMessage)
	g.DELETE("/conversations/:id/messages", a.clearConversation)
	g.DELETE("/conversations/:id", a.deleteConversation)
	return r
}

func (a *api) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"message":              "LearnSphere AI assistant is running",
		"assistant_configured": a.cfg.Client().HasCredential(),
	})
}

func (a *api) chat(c *gin.Context) {
	var req ChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := a.mgr.Ask(c.Request.Context(), req.Prompt, req.History, learnerOpts(req.Learner)...)
	if err != nil {
		a.fail(c, err)
		return
	}
	out := gin.H{"response": res.Text, "outcome": res.Outcome, "attempts": res.Attempts}
	if wantHTML(c) {
		out["html"] = service.RenderHTML(res.Text)
	}
	c.JSON(http.StatusOK, out)
}

func (a *api) startConversation(c *gin.Context) {
	c.JSON(http.StatusCreated, a.mgr.Start())
}

func (a *api) getConversation(c *gin.Context) {
	conv := a.mgr.Get(c.Param("id"))
	if conv == nil {
		a.fail(c, service.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (a *api) sendMessage(c *gin.Context) {
	var req MessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	turn, err := a.mgr.Send(c.Request.Context(), c.Param("id"), req.Content, learnerOpts(req.Learner)...)
	if err != nil {
		a.fail(c, err)
		return
	}
	out := gin.H{"user": turn.User, "assistant": turn.Assistant, "outcome": turn.Outcome, "attempts": turn.Attempts}
	if wantHTML(c) {
		out["html"] = service.RenderHTML(turn.Assistant.Content)
	}
	c.JSON(http.StatusOK, out)
}

func (a *api) clearConversation(c *gin.Context) {
	if err := a.mgr.Clear(c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) deleteConversation(c *gin.Context) {
	if err := a.mgr.Delete(c.Param("id")); err != nil {
		a.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, assistant.ErrMissingCredential):
		status = http.StatusServiceUnavailable
		msg = fmt.Sprintf("AI assistant is not configured: set %s in the environment or in .env and restart the server", a.cfg.Assistant.APIKeyEnv)
	}
	if status >= http.StatusInternalServerError {
		a.log.Error().Err(err).Str("request_id", getRequestID(c)).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": msg, "request_id": getRequestID(c)})
}

func learnerOpts(lc *assistant.LearnerContext) []assistant.CallOption {
	if lc == nil {
		return nil
	}
	return []assistant.CallOption{assistant.WithLearner(*lc)}
}

func wantHTML(c *gin.Context) bool {
	return c.Query("format") == "html"
}
