package completion

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
// OpenRouter is served by the same type with a different base URL.
type OpenAI struct {
	client      *openai.Client
	name        string
	model       string
	timeout     time.Duration
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewOpenAI creates a completer for the OpenAI API or a compatible gateway.
func NewOpenAI(cfg Config, logger *zap.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required for OpenAI-compatible providers")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAI{
		client:      openai.NewClientWithConfig(config),
		name:        "openai",
		model:       model,
		timeout:     timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

func (o *OpenAI) Name() string  { return o.name }
func (o *OpenAI) Model() string { return o.model }

// Complete sends prompt as a single user message.
func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			o.logger.Warn("completion API error",
				zap.String("provider", o.name), zap.String("model", o.model),
				zap.Int("status", apiErr.HTTPStatusCode), zap.String("message", apiErr.Message))
			return "", failf("%s API error (status %d): %s", o.name, apiErr.HTTPStatusCode, apiErr.Message)
		}
		o.logger.Warn("completion request failed",
			zap.String("provider", o.name), zap.String("model", o.model),
			zap.Duration("duration", duration), zap.Error(err))
		return "", failf("%s request failed: %v", o.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", emptyf("%s returned no choices", o.name)
	}
	choice := resp.Choices[0]
	text := choice.Message.Content
	if strings.TrimSpace(text) == "" {
		return "", emptyf("%s finish reason %q", o.name, choice.FinishReason)
	}
	// Gateways that omit finish_reason are taken at their word.
	if choice.FinishReason != openai.FinishReasonStop && choice.FinishReason != "" {
		o.logger.Warn("completion stopped early",
			zap.String("provider", o.name), zap.String("model", o.model),
			zap.String("finish_reason", string(choice.FinishReason)))
		return "", failf("%s completion stopped early: finish reason %q", o.name, choice.FinishReason)
	}

	o.logger.Debug("completion received",
		zap.String("provider", o.name), zap.String("model", o.model),
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))
	return text, nil
}
