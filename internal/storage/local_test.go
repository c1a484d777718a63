package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestLocal(t *testing.T) *LocalStore {
	t.Helper()
	s, err := OpenLocal(context.Background(), filepath.Join(t.TempDir(), "local.db"))
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLocalReadAllEmpty(t *testing.T) {
	s := openTestLocal(t)

	got, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(got))
	}
}

func TestLocalWriteReadRoundTrip(t *testing.T) {
	s := openTestLocal(t)

	in := []Conversation{
		{
			ID:        "c1",
			Title:     "first",
			CreatedAt: 1000,
			Messages: []Message{
				{ID: "m1", Role: RoleUser, Content: "hello", Timestamp: 1000},
				{ID: "m2", Role: RoleModel, Content: "hi", Timestamp: 1001},
			},
		},
		{ID: "c2", Title: "second", CreatedAt: 2000},
	}
	if err := s.WriteAll(context.Background(), in); err != nil {
		t.Fatalf("write all: %v", err)
	}

	got, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(got))
	}
	if got[0].ID != "c1" || got[1].ID != "c2" {
		t.Fatalf("unexpected order: %q, %q", got[0].ID, got[1].ID)
	}
	if len(got[0].Messages) != 2 || got[0].Messages[1].Content != "hi" {
		t.Fatalf("messages not preserved: %+v", got[0].Messages)
	}
}

func TestLocalWriteAllReplaces(t *testing.T) {
	s := openTestLocal(t)

	if err := s.WriteAll(context.Background(), []Conversation{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := s.WriteAll(context.Background(), []Conversation{{ID: "b"}}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	got, err := s.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only %q after rewrite, got %+v", "b", got)
	}
}
