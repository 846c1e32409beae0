package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/valpere/bookflow/internal/metrics"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	runStoreSuite(t, newTestSQLite)
}

func TestSQLite_New_InvalidPath(t *testing.T) {
	_, err := NewSQLite("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	s.Save(ctx, "alice", "Book A", "Ch 1", "hello")
	s.Rate(ctx, "alice", "Book A", 8)
	s.Close()

	s, err = NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()

	v, err := s.Get(ctx, "alice", "Book A", "Ch 1")
	if err != nil || v.Content != "hello" {
		t.Errorf("expected persisted version, got %+v, %v", v, err)
	}
	r, _ := s.Ratings(ctx, "alice")
	if len(r["Book A"]) != 1 || r["Book A"][0] != 8 {
		t.Errorf("expected persisted rating, got %v", r)
	}
}

func TestOpen_SQLiteInstrumented(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ctx := context.Background()

	s, err := Open(ctx, Config{SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "open.db")}}, nil, m)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	s.Save(ctx, "o", "b", "c", "x")
	s.Get(ctx, "o", "b", "missing")
	s.Rate(ctx, "o", "b", 42)

	if n := testutil.CollectAndCount(reg, "bookflow_store_operations_total"); n != 3 {
		t.Errorf("expected 3 series, got %d", n)
	}
}
