package store

import (
	"context"
	"errors"

	"github.com/valpere/bookflow/internal"
	"github.com/valpere/bookflow/internal/metrics"
)

// instrumented counts operations per backend. Missing versions are not
// counted as errors.
type instrumented struct {
	next    Store
	backend string
	m       *metrics.Metrics
}

// Instrument wraps s so every call is recorded in m. A nil m returns s.
func Instrument(s Store, backend string, m *metrics.Metrics) Store {
	if m == nil {
		return s
	}
	return &instrumented{next: s, backend: backend, m: m}
}

func (i *instrumented) observe(op string, err error) {
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	i.m.ObserveStore(i.backend, op, err)
}

func (i *instrumented) Save(ctx context.Context, owner, book, chapter, content string) error {
	err := i.next.Save(ctx, owner, book, chapter, content)
	i.observe("save", err)
	return err
}

func (i *instrumented) Get(ctx context.Context, owner, book, chapter string) (internal.Version, error) {
	v, err := i.next.Get(ctx, owner, book, chapter)
	i.observe("get", err)
	return v, err
}

func (i *instrumented) List(ctx context.Context, owner string) ([]internal.Version, error) {
	vs, err := i.next.List(ctx, owner)
	i.observe("list", err)
	return vs, err
}

func (i *instrumented) Delete(ctx context.Context, owner, book, chapter string) error {
	err := i.next.Delete(ctx, owner, book, chapter)
	i.observe("delete", err)
	return err
}

func (i *instrumented) Rate(ctx context.Context, owner, book string, score int) error {
	err := i.next.Rate(ctx, owner, book, score)
	i.observe("rate", err)
	return err
}

func (i *instrumented) Ratings(ctx context.Context, owner string) (map[string][]int, error) {
	r, err := i.next.Ratings(ctx, owner)
	i.observe("ratings", err)
	return r, err
}

func (i *instrumented) Close() error {
	return i.next.Close()
}
