// Package completion talks to the generative-text model used by every
// pipeline stage. A Completer turns one prompt into one completion; it never
// streams and never reports an empty completion as success.
package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrCompletionFailed is wrapped by every error a Completer returns.
var ErrCompletionFailed = errors.New("text completion failed")

// ErrEmptyResponse marks a call that succeeded at the transport level but
// produced no text. It wraps ErrCompletionFailed.
var ErrEmptyResponse = fmt.Errorf("%w: empty response", ErrCompletionFailed)

type Completer interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider        string        `mapstructure:"provider"` // ollama, openai, openrouter, gemini, vertex
	Model           string        `mapstructure:"model"`
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	ProjectID       string        `mapstructure:"project_id"`
	Location        string        `mapstructure:"location"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
}

const (
	defaultTimeout         = 120 * time.Second
	defaultOllamaURL       = "http://localhost:11434"
	defaultOllamaModel     = "llama3.2"
	defaultOpenAIModel     = "gpt-4o-mini"
	defaultOpenRouterURL   = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "google/gemini-2.0-flash-exp:free"
	defaultGeminiURL       = "https://generativelanguage.googleapis.com/v1beta/openai"
	defaultGeminiModel     = "gemini-1.5-flash"
	defaultVertexModel     = "gemini-1.5-flash"
	defaultVertexLocation  = "us-central1"
)

// New builds the provider named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Completer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		return NewOllama(cfg, logger)
	case "openai":
		return NewOpenAI(cfg, logger)
	case "openrouter":
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultOpenRouterURL
		}
		if cfg.Model == "" {
			cfg.Model = defaultOpenRouterModel
		}
		c, err := NewOpenAI(cfg, logger)
		if err != nil {
			return nil, err
		}
		c.name = "openrouter"
		return c, nil
	case "gemini":
		// Gemini API key access through Google's OpenAI-compatible endpoint.
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultGeminiURL
		}
		if cfg.Model == "" {
			cfg.Model = defaultGeminiModel
		}
		c, err := NewOpenAI(cfg, logger)
		if err != nil {
			return nil, err
		}
		c.name = "gemini"
		return c, nil
	case "vertex":
		return NewVertex(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown completion provider: %q", cfg.Provider)
	}
}

// emptyf reports a blank completion.
func emptyf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEmptyResponse, fmt.Sprintf(format, args...))
}

// failf wraps ErrCompletionFailed with a provider-specific message.
func failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCompletionFailed, fmt.Sprintf(format, args...))
}
