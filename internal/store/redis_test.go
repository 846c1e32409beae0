package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
}

func TestRedis(t *testing.T) {
	runStoreSuite(t, newTestRedis)
}

func TestRedis_Layout(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	defer s.Close()
	ctx := context.Background()

	if err := s.Save(ctx, "alice", "Book A", "Ch 1", "hello"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	key := "test:version:alice:Book+A:Ch+1"
	if got := mr.HGet(key, "content"); got != "hello" {
		t.Errorf("expected content 'hello' in %s, got %q", key, got)
	}
	if got := mr.HGet(key, "schema_version"); got != "1" {
		t.Errorf("expected schema_version 1, got %q", got)
	}
	members, err := mr.Members("test:owner:alice")
	if err != nil || len(members) != 1 || members[0] != key {
		t.Errorf("unexpected owner index %v, %v", members, err)
	}
}

func TestRedis_ListSkipsStaleIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	defer s.Close()
	ctx := context.Background()

	s.Save(ctx, "o", "b", "c", "x")
	mr.SetAdd("bookflow:owner:o", "bookflow:version:o:b:gone")

	got, err := s.List(ctx, "o")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 version, got %+v", got)
	}
}

func TestOpenRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := OpenRedis(context.Background(), RedisConfig{Addr: addr}); err == nil {
		t.Error("expected ping error for closed server")
	}
}
