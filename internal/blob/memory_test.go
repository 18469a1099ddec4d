package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestMemory_CreateOnly(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	info, err := s.Put(ctx, "k1", strings.NewReader("hello"), PutOptions{ContentType: "text/plain", Metadata: map[string]string{"name": "a.txt"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 5 || info.ContentType != "text/plain" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "k1", strings.NewReader("again"), PutOptions{}); !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, rc, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" || got.Metadata["name"] != "a.txt" {
		t.Fatalf("content mismatch %q %+v", data, got)
	}
}

func TestMemory_DeleteAndMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	_, _ = s.Put(ctx, "k", strings.NewReader("x"), PutOptions{})
	if ok, _ := s.Delete(ctx, "k"); !ok {
		t.Fatalf("delete should report existing key")
	}
	if ok, _ := s.Delete(ctx, "k"); ok {
		t.Fatalf("second delete should report missing")
	}
	if _, err := s.Head(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
