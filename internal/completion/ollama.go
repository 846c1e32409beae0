package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// Ollama uses a local Ollama server through its /api/generate endpoint.
type Ollama struct {
	client  *api.Client
	model   string
	baseURL string
	timeout time.Duration
	options map[string]any
	logger  *zap.Logger
}

// NewOllama creates a completer backed by an Ollama server.
func NewOllama(cfg Config, logger *zap.Logger) (*Ollama, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	// api.NewClient expects the server root, without the OpenAI-compatible /v1 suffix.
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL %q: %w", baseURL, err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	options := map[string]any{}
	if cfg.Temperature > 0 {
		options["temperature"] = cfg.Temperature
	}
	if cfg.MaxTokens > 0 {
		options["num_predict"] = cfg.MaxTokens
	}

	return &Ollama{
		client:  api.NewClient(parsed, &http.Client{Timeout: timeout}),
		model:   model,
		baseURL: baseURL,
		timeout: timeout,
		options: options,
		logger:  logger,
	}, nil
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

// Complete sends prompt with streaming disabled and returns the full response.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: o.options,
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var sb strings.Builder
	var doneReason string
	start := time.Now()
	err := o.client.Generate(ctx, req, func(r api.GenerateResponse) error {
		sb.WriteString(r.Response)
		if r.Done {
			doneReason = r.DoneReason
		}
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			o.logger.Warn("ollama request timed out",
				zap.String("model", o.model), zap.Duration("timeout", o.timeout), zap.Duration("duration", duration))
			return "", failf("ollama request timed out after %v", o.timeout)
		}
		o.logger.Warn("ollama request failed",
			zap.String("model", o.model), zap.Duration("duration", duration), zap.Error(err))
		return "", failf("ollama request failed: %v", err)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		o.logger.Warn("ollama returned an empty response", zap.String("model", o.model))
		return "", emptyf("ollama model %s", o.model)
	}
	// Older servers leave done_reason unset.
	if doneReason != "" && doneReason != "stop" {
		o.logger.Warn("ollama response stopped early",
			zap.String("model", o.model), zap.String("done_reason", doneReason))
		return "", failf("ollama response stopped early: done reason %q", doneReason)
	}

	o.logger.Debug("ollama response received",
		zap.String("model", o.model), zap.Duration("duration", duration), zap.Int("chars", len(text)))
	return text, nil
}
