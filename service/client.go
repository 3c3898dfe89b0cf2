package service

import (
	"github.com/rs/zerolog"

	"github.com/ibreez3/learnsphere-ai/assistant"
	"github.com/ibreez3/learnsphere-ai/config"
	"github.com/ibreez3/learnsphere-ai/openai"
)

// NewClient builds the assistant client with the transport named in cfg.
func NewClient(cfg config.Config, log zerolog.Logger) *assistant.Client {
	cc := cfg.Client()
	var t assistant.Transport
	switch cfg.Assistant.Transport {
	case config.TransportSDK:
		t = openai.NewTransport(cc.BaseURL)
	default:
		t = assistant.NewHTTPTransport(cc.BaseURL)
	}
	return assistant.NewClient(cc, t).
		WithLogger(log.With().Str("component", "assistant").Str("transport", cfg.Assistant.Transport).Logger())
}
