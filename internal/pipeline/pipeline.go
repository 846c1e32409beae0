// Package pipeline runs the three-stage chapter rewrite: a writer pass, an
// editor pass over the writer's text and a reviewer pass over the editor's.
//
// Stages are strictly sequential because each prompt embeds the previous
// stage's output. A Pipeline keeps no state between calls and may be shared by
// concurrent callers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/bookflow/internal/completion"
	"github.com/valpere/bookflow/internal/metrics"
	"github.com/valpere/bookflow/internal/postprocess"
	"github.com/valpere/bookflow/internal/validator"
)

// ErrStageFailed is wrapped by every *StageError.
var ErrStageFailed = errors.New("rewrite stage failed")

type Stage string

const (
	StageWriter   Stage = "writer"
	StageEditor   Stage = "editor"
	StageReviewer Stage = "reviewer"
)

// Result holds the output of every stage. Reviewed is the final text.
type Result struct {
	Written  string `json:"written"`
	Edited   string `json:"edited"`
	Reviewed string `json:"reviewed"`
}

// StageError reports which stage stopped the run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{ErrStageFailed, e.Err}
}

// Checker decides whether a stage output is usable.
type Checker interface {
	Check(input, output string) error
}

type Pipeline struct {
	completer completion.Completer
	checker   Checker
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New creates a Pipeline. A nil checker falls back to the empty/refusal
// validator without language detection; logger and m may be nil.
func New(c completion.Completer, checker Checker, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if checker == nil {
		checker = validator.NewWithoutDetection()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{completer: c, checker: checker, logger: logger, metrics: m}
}

// Rewrite runs writer, editor and reviewer over sourceText. The source is passed
// through as-is, even when empty. On failure no later stage is started and the
// returned error is a *StageError.
func (p *Pipeline) Rewrite(ctx context.Context, sourceText string) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(
		zap.String("run_id", runID),
		zap.String("provider", p.completer.Name()),
		zap.String("model", p.completer.Model()),
	)
	log.Info("rewrite started", zap.Int("source_chars", len(sourceText)))

	start := time.Now()
	var res Result
	input := sourceText
	for _, st := range stages {
		out, err := p.runStage(ctx, log, st, sourceText, input)
		if err != nil {
			p.metrics.ObservePipeline(metrics.StatusError, string(st.name))
			log.Warn("rewrite failed", zap.String("stage", string(st.name)), zap.Error(err))
			return nil, &StageError{Stage: st.name, Err: err}
		}
		switch st.name {
		case StageWriter:
			res.Written = out
		case StageEditor:
			res.Edited = out
		case StageReviewer:
			res.Reviewed = out
		}
		input = out
	}

	p.metrics.ObservePipeline(metrics.StatusSuccess, "")
	log.Info("rewrite finished",
		zap.Duration("duration", time.Since(start)),
		zap.Int("reviewed_chars", len(res.Reviewed)))
	return &res, nil
}

func (p *Pipeline) runStage(ctx context.Context, log *zap.Logger, st stage, source, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := time.Now()
	raw, err := p.completer.Complete(ctx, st.prompt(input))
	p.metrics.ObserveStage(string(st.name), time.Since(start))
	if err != nil {
		return "", err
	}

	out := postprocess.Clean(raw)
	if err := p.checker.Check(source, out); err != nil {
		return "", err
	}

	log.Debug("stage finished",
		zap.String("stage", string(st.name)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("chars", len(out)))
	return out, nil
}
