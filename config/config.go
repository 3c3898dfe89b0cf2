package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ibreez3/learnsphere-ai/assistant"
)

const (
	TransportHTTP = "http"
	TransportSDK  = "sdk"

	DefaultAPIKeyEnv = "QUBRID_API_KEY"
)

type Server struct {
	Port               int      `yaml:"port" env:"LEARNSPHERE_PORT"`
	LogLevel           string   `yaml:"log_level" env:"LEARNSPHERE_LOG_LEVEL"`
	TranscriptDir      string   `yaml:"transcript_dir" env:"LEARNSPHERE_TRANSCRIPT_DIR"`
	ShutdownTimeoutSec int      `yaml:"shutdown_timeout_sec" env:"LEARNSPHERE_SHUTDOWN_TIMEOUT_SEC"`
	CORSOrigins        []string `yaml:"cors_origins" env:"LEARNSPHERE_CORS_ORIGINS" envSeparator:","`
}

type Assistant struct {
	BaseURL          string `yaml:"base_url" env:"QUBRID_BASE_URL"`
	Model            string `yaml:"model" env:"QUBRID_MODEL"`
	APIKeyEnv        string `yaml:"api_key_env" env:"LEARNSPHERE_API_KEY_ENV"`
	APIKey           string `yaml:"-"`
	Transport        string `yaml:"transport" env:"LEARNSPHERE_TRANSPORT"`
	MaxRetries       int    `yaml:"max_retries" env:"LEARNSPHERE_MAX_RETRIES"`
	RetryDelayMs     int    `yaml:"retry_delay_ms" env:"LEARNSPHERE_RETRY_DELAY_MS"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms" env:"LEARNSPHERE_REQUEST_TIMEOUT_MS"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Assistant Assistant `yaml:"assistant"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:               8000,
			LogLevel:           "info",
			ShutdownTimeoutSec: 10,
			CORSOrigins:        []string{"http://localhost:8080", "http://127.0.0.1:8080"},
		},
		Assistant: Assistant{
			BaseURL:          assistant.DefaultBaseURL,
			Model:            assistant.DefaultModel,
			APIKeyEnv:        DefaultAPIKeyEnv,
			Transport:        TransportHTTP,
			MaxRetries:       assistant.DefaultMaxRetries,
			RetryDelayMs:     int(assistant.DefaultRetryDelay / time.Millisecond),
			RequestTimeoutMs: int(assistant.DefaultRequestTimeout / time.Millisecond),
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies environment
// overrides. A missing file is not an error. The API key is read from the
// variable named by assistant.api_key_env and may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env config: %w", err)
	}
	if strings.TrimSpace(cfg.Assistant.APIKeyEnv) == "" {
		cfg.Assistant.APIKeyEnv = DefaultAPIKeyEnv
	}
	cfg.Assistant.APIKey = strings.TrimSpace(os.Getenv(cfg.Assistant.APIKeyEnv))
	cfg.Assistant.Transport = strings.ToLower(strings.TrimSpace(cfg.Assistant.Transport))

	return cfg, cfg.Validate()
}

// LoadEnvFiles loads the first-found of each path into the process environment.
// Variables already set are left alone. It returns the files that were loaded.
func LoadEnvFiles(paths ...string) ([]string, error) {
	var loaded []string
	var result error
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			result = multierror.Append(result, fmt.Errorf("load %s: %w", p, err))
			continue
		}
		loaded = append(loaded, p)
	}
	return loaded, result
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Server.LogLevel)); err != nil {
		result = multierror.Append(result, fmt.Errorf("server.log_level: %w", err))
	}
	if c.Server.ShutdownTimeoutSec < 0 {
		result = multierror.Append(result, errors.New("server.shutdown_timeout_sec must not be negative"))
	}
	if u, err := url.Parse(c.Assistant.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("assistant.base_url %q is not an http(s) URL", c.Assistant.BaseURL))
	}
	if strings.TrimSpace(c.Assistant.Model) == "" {
		result = multierror.Append(result, errors.New("assistant.model is required"))
	}
	switch c.Assistant.Transport {
	case TransportHTTP, TransportSDK:
	default:
		result = multierror.Append(result, fmt.Errorf("assistant.transport %q must be %q or %q", c.Assistant.Transport, TransportHTTP, TransportSDK))
	}
	if c.Assistant.MaxRetries < 0 {
		result = multierror.Append(result, errors.New("assistant.max_retries must not be negative"))
	}
	if c.Assistant.RetryDelayMs < 0 {
		result = multierror.Append(result, errors.New("assistant.retry_delay_ms must not be negative"))
	}
	if c.Assistant.RequestTimeoutMs <= 0 {
		result = multierror.Append(result, errors.New("assistant.request_timeout_ms must be positive"))
	}
	return result
}

// Client converts the assistant section into a client configuration.
func (c Config) Client() assistant.Config {
	return assistant.Config{
		Credential:     c.Assistant.APIKey,
		BaseURL:        c.Assistant.BaseURL,
		Model:          c.Assistant.Model,
		MaxRetries:     c.Assistant.MaxRetries,
		RetryDelay:     time.Duration(c.Assistant.RetryDelayMs) * time.Millisecond,
		RequestTimeout: time.Duration(c.Assistant.RequestTimeoutMs) * time.Millisecond,
	}
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSec) * time.Second
}
