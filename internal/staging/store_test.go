package staging

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "ds-1", "builds.csv", []byte("id,repo\n")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "ds-1", "builds.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "id,repo\n" {
		t.Fatalf("content = %q", got)
	}
}

func TestMemoryStoreCopiesContent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	data := []byte("original")
	if err := s.Put(ctx, "ds-1", "f.csv", data); err != nil {
		t.Fatalf("put: %v", err)
	}
	data[0] = 'X'
	got, err := s.Get(ctx, "ds-1", "f.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("caller mutation leaked into store: %q", got)
	}
}

func TestMemoryStoreRemoveByDataset(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_ = s.Put(ctx, "ds-1", "a.csv", []byte("a"))
	_ = s.Put(ctx, "ds-1", "b.csv", []byte("b"))
	_ = s.Put(ctx, "ds-2", "a.csv", []byte("c"))

	if err := s.Remove(ctx, "ds-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, "ds-1", "a.csv"); err == nil {
		t.Fatalf("expected ds-1 objects gone")
	}
	if _, err := s.Get(ctx, "ds-2", "a.csv"); err != nil {
		t.Fatalf("ds-2 should survive: %v", err)
	}
}

func TestObjectKeyValidation(t *testing.T) {
	if _, err := objectKey("", "f.csv"); err == nil {
		t.Fatalf("empty dataset id should fail")
	}
	if _, err := objectKey("ds-1", ""); err == nil {
		t.Fatalf("empty file name should fail")
	}
	key, err := objectKey("ds-1", "dir/evil.csv")
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	if key != "ds-1/dir_evil.csv" {
		t.Fatalf("key = %q", key)
	}
}
