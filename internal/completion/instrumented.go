package completion

import (
	"context"
	"errors"
	"time"

	"github.com/valpere/bookflow/internal/metrics"
)

// Instrumented records request counts and latency for the wrapped Completer.
type Instrumented struct {
	next    Completer
	metrics *metrics.Metrics
}

// Instrument wraps c. A nil m returns c unchanged.
func Instrument(c Completer, m *metrics.Metrics) Completer {
	if m == nil {
		return c
	}
	return &Instrumented{next: c, metrics: m}
}

func (i *Instrumented) Name() string  { return i.next.Name() }
func (i *Instrumented) Model() string { return i.next.Model() }

func (i *Instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.next.Complete(ctx, prompt)

	status := metrics.StatusSuccess
	switch {
	case errors.Is(err, ErrEmptyResponse):
		status = metrics.StatusEmpty
	case err != nil:
		status = metrics.StatusError
	}
	i.metrics.ObserveCompletion(i.next.Name(), i.next.Model(), status, time.Since(start))
	return text, err
}

// Unwrap returns the decorated Completer.
func (i *Instrumented) Unwrap() Completer { return i.next }
