package completion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/valpere/bookflow/internal/metrics"
)

type stubCompleter struct {
	text string
	err  error
}

func (s stubCompleter) Name() string  { return "stub" }
func (s stubCompleter) Model() string { return "stub-1" }
func (s stubCompleter) Complete(context.Context, string) (string, error) {
	return s.text, s.err
}

func TestInstrument_NilMetrics(t *testing.T) {
	c := stubCompleter{text: "x"}
	if got := Instrument(c, nil); got != Completer(c) {
		t.Error("expected the completer to be returned unchanged")
	}
}

func TestInstrument_RecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ok := Instrument(stubCompleter{text: "story"}, m)
	empty := Instrument(stubCompleter{err: emptyf("stub")}, m)
	broken := Instrument(stubCompleter{err: failf("boom")}, m)

	if got, err := ok.Complete(context.Background(), "p"); err != nil || got != "story" {
		t.Fatalf("unexpected result %q, %v", got, err)
	}
	if _, err := empty.Complete(context.Background(), "p"); !errors.Is(err, ErrCompletionFailed) {
		t.Fatalf("expected ErrCompletionFailed, got %v", err)
	}
	if _, err := broken.Complete(context.Background(), "p"); errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("plain failure must not look empty: %v", err)
	}

	expected := `
# HELP bookflow_completion_requests_total Total number of text-completion requests.
# TYPE bookflow_completion_requests_total counter
bookflow_completion_requests_total{model="stub-1",provider="stub",status="error"} 1
bookflow_completion_requests_total{model="stub-1",provider="stub",status="error_empty_response"} 1
bookflow_completion_requests_total{model="stub-1",provider="stub",status="success"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "bookflow_completion_requests_total"); err != nil {
		t.Error(err)
	}
}
