package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Vertex calls a Gemini model on Vertex AI.
type Vertex struct {
	client  *genai.Client
	gm      *genai.GenerativeModel
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewVertex creates a Gemini completer. Credentials come from
// cfg.CredentialsFile when set, otherwise from Application Default Credentials.
func NewVertex(ctx context.Context, cfg Config, logger *zap.Logger) (*Vertex, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("project ID is required for the vertex provider")
	}
	location := cfg.Location
	if location == "" {
		location = defaultVertexLocation
	}
	model := cfg.Model
	if model == "" {
		model = defaultVertexModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, location, opts...)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	gm := client.GenerativeModel(model)
	if cfg.Temperature > 0 {
		gm.SetTemperature(cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		gm.SetMaxOutputTokens(int32(cfg.MaxTokens))
	}

	return &Vertex{
		client:  client,
		gm:      gm,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (v *Vertex) Name() string  { return "vertex" }
func (v *Vertex) Model() string { return v.model }

func (v *Vertex) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	resp, err := v.gm.GenerateContent(ctx, genai.Text(prompt))
	duration := time.Since(start)
	if err != nil {
		v.logger.Warn("gemini request failed",
			zap.String("model", v.model), zap.Duration("duration", duration), zap.Error(err))
		return "", failf("gemini request failed: %v", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		reason := "no candidates"
		if resp != nil && len(resp.Candidates) > 0 {
			reason = resp.Candidates[0].FinishReason.String()
		}
		v.logger.Warn("gemini returned no text", zap.String("model", v.model), zap.String("reason", reason))
		return "", emptyf("gemini %s", reason)
	}
	if err := checkFinish(resp); err != nil {
		v.logger.Warn("gemini response stopped early", zap.String("model", v.model), zap.Error(err))
		return "", err
	}

	v.logger.Debug("gemini response received",
		zap.String("model", v.model), zap.Duration("duration", duration), zap.Int("chars", len(text)))
	return text, nil
}

// Close releases the underlying gRPC connection.
func (v *Vertex) Close() error {
	return v.client.Close()
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// checkFinish rejects a candidate that ended for any reason other than a
// natural stop, such as the token limit or a safety block.
func checkFinish(resp *genai.GenerateContentResponse) error {
	switch reason := resp.Candidates[0].FinishReason; reason {
	case genai.FinishReasonStop, genai.FinishReasonUnspecified:
		return nil
	default:
		return failf("gemini response stopped early: %s", reason)
	}
}
