package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// runStoreSuite exercises the Store contract against one backend. newStore
// must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("SaveThenList", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Save(ctx, "alice", "Book A", "Ch 1", "hello"); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := s.List(ctx, "alice")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 version, got %d", len(got))
		}
		v := got[0]
		if v.Book != "Book A" || v.Chapter != "Ch 1" || v.Content != "hello" {
			t.Errorf("unexpected version %+v", v)
		}
		if v.Owner != "alice" {
			t.Errorf("expected owner 'alice', got %q", v.Owner)
		}
		if v.UpdatedAt.IsZero() {
			t.Error("expected updated_at to be set")
		}
	})

	t.Run("OverwriteWins", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		s.Save(ctx, "o", "b", "c", "X")
		if err := s.Save(ctx, "o", "b", "c", "Y"); err != nil {
			t.Fatalf("second Save failed: %v", err)
		}

		got, err := s.List(ctx, "o")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 || got[0].Content != "Y" {
			t.Errorf("expected a single version with content 'Y', got %+v", got)
		}
	})

	t.Run("PartitionIsolation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		s.Save(ctx, "alice", "Book A", "Ch 1", "hello")
		s.Save(ctx, "bob", "Book A", "Ch 1", "other")

		got, err := s.List(ctx, "bob")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(got) != 1 || got[0].Content != "other" {
			t.Errorf("bob must only see his own version, got %+v", got)
		}
	})

	t.Run("UnknownOwnerIsEmpty", func(t *testing.T) {
		s := newStore(t)

		got, err := s.List(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("List for unknown owner must not fail: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", got)
		}
	})

	t.Run("ListOrdering", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		s.Save(ctx, "o", "Zeta", "Ch 1", "z1")
		s.Save(ctx, "o", "Alpha", "Ch 2", "a2")
		s.Save(ctx, "o", "Alpha", "Ch 1", "a1")

		got, _ := s.List(ctx, "o")
		var order []string
		for _, v := range got {
			order = append(order, v.Content)
		}
		if strings.Join(order, ",") != "a1,a2,z1" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("GetAndDelete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if _, err := s.Get(ctx, "o", "b", "c"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound before save, got %v", err)
		}

		s.Save(ctx, "o", "b", "c", "text")
		v, err := s.Get(ctx, "o", "b", "c")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v.Content != "text" {
			t.Errorf("expected 'text', got %q", v.Content)
		}

		if err := s.Delete(ctx, "o", "b", "c"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := s.Delete(ctx, "o", "b", "c"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
		if got, _ := s.List(ctx, "o"); len(got) != 0 {
			t.Errorf("expected no versions after delete, got %+v", got)
		}
	})

	t.Run("KeyComponentsDoNotCollide", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		s.Save(ctx, "o", "a:b", "c", "first")
		s.Save(ctx, "o", "a", "b:c", "second")

		got, _ := s.List(ctx, "o")
		if len(got) != 2 {
			t.Fatalf("expected 2 distinct versions, got %+v", got)
		}
	})

	t.Run("UnicodeNormalisation", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		s.Save(ctx, "o", "Cafe\u0301", "Ch 1", "decomposed")
		s.Save(ctx, "o", "Caf\u00e9", "Ch 1", "composed")

		got, _ := s.List(ctx, "o")
		if len(got) != 1 || got[0].Content != "composed" {
			t.Errorf("expected one NFC-normalised version, got %+v", got)
		}
	})

	t.Run("EmptyIdentifiers", func(t *testing.T) {
		s := newStore(t)

		if err := s.Save(context.Background(), "o", " ", "c", "x"); !errors.Is(err, ErrEmptyField) {
			t.Errorf("expected ErrEmptyField, got %v", err)
		}
	})

	t.Run("EmptyContentIsStored", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		if err := s.Save(ctx, "o", "b", "c", ""); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		v, err := s.Get(ctx, "o", "b", "c")
		if err != nil || v.Content != "" {
			t.Errorf("expected empty content, got %q, %v", v.Content, err)
		}
	})

	t.Run("Ratings", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, score := range []int{7, 9} {
			if err := s.Rate(ctx, "alice", "Book A", score); err != nil {
				t.Fatalf("Rate failed: %v", err)
			}
		}
		s.Rate(ctx, "alice", "Book B", 3)
		s.Rate(ctx, "bob", "Book A", 1)

		for _, bad := range []int{0, 11, -3} {
			if err := s.Rate(ctx, "alice", "Book A", bad); !errors.Is(err, ErrInvalidRating) {
				t.Errorf("score %d: expected ErrInvalidRating, got %v", bad, err)
			}
		}

		got, err := s.Ratings(ctx, "alice")
		if err != nil {
			t.Fatalf("Ratings failed: %v", err)
		}
		if fmt.Sprint(got["Book A"]) != "[7 9]" || fmt.Sprint(got["Book B"]) != "[3]" || len(got) != 2 {
			t.Errorf("unexpected ratings %v", got)
		}

		none, err := s.Ratings(ctx, "nobody")
		if err != nil || len(none) != 0 {
			t.Errorf("expected no ratings, got %v, %v", none, err)
		}
	})

	t.Run("ConcurrentSaves", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if err := s.Save(ctx, "o", "b", fmt.Sprintf("Ch %02d", i), "text"); err != nil {
					t.Errorf("Save %d failed: %v", i, err)
				}
			}(i)
		}
		wg.Wait()

		got, _ := s.List(ctx, "o")
		if len(got) != 10 {
			t.Errorf("expected 10 versions, got %d", len(got))
		}
	})
}

func TestKey(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"alice", "Book A", "Ch 1"}, "alice:Book+A:Ch+1"},
		{[]string{"a:b", "c"}, "a%3Ab:c"},
		{[]string{"a", "b:c"}, "a:b%3Ac"},
		{[]string{"x/y"}, "x%2Fy"},
		{[]string{"  padded  "}, "padded"},
		{[]string{"Cafe\u0301"}, "Caf%C3%A9"},
	}

	for _, tt := range tests {
		if got := Key(tt.parts...); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), Config{Backend: "chroma"}, nil, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}
