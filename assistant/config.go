package assistant

import (
	"strings"
	"time"
)

const (
	DefaultBaseURL        = "https://platform.qubrid.com/api/v1/qubridai"
	DefaultModel          = "meta-llama/Llama-3.3-70B-Instruct"
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = 2 * time.Second
	DefaultRequestTimeout = 60 * time.Second

	// PlaceholderCredential is the value shipped in example env files.
	PlaceholderCredential = "your_qubrid_api_key_here"

	HistoryWindow = 10

	maxTokens   = 4096
	temperature = 0.7
	topP        = 0.9
)

// Config configures a Client.
//
// MaxRetries is the number of retries after the first attempt; negative values are
// treated as zero. RetryDelay is the base of the linear backoff used for rate limiting
// and unavailability. RequestTimeout bounds every single attempt.
type Config struct {
	Credential     string
	BaseURL        string
	Model          string
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Model:          DefaultModel,
		MaxRetries:     DefaultMaxRetries,
		RetryDelay:     DefaultRetryDelay,
		RequestTimeout: DefaultRequestTimeout,
	}
}

func (c Config) normalized() Config {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if strings.TrimSpace(c.Model) == "" {
		c.Model = DefaultModel
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

// HasCredential reports whether the credential is usable.
func (c Config) HasCredential() bool {
	k := strings.TrimSpace(c.Credential)
	return k != "" && k != PlaceholderCredential
}
