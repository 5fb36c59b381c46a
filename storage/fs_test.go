package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts []FSOption
	}{
		{name: "plain"},
		{name: "compressed", opts: []FSOption{WithCompression()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := NewFSStore(t.TempDir(), tc.opts...)
			if !s.Available() {
				t.Fatal("store should be available")
			}
			ctx := context.Background()
			content := []byte("some attachment content")

			if err := s.Put(ctx, "1700000000000-aabbccdd", bytes.NewReader(content)); err != nil {
				t.Fatal(err)
			}

			rc, err := s.Get(ctx, "1700000000000-aabbccdd")
			if err != nil {
				t.Fatal(err)
			}
			got, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, content) {
				t.Errorf("content mismatch: got %q", got)
			}
		})
	}
}

func TestFSStoreOverwrite(t *testing.T) {
	s := NewFSStore(t.TempDir())
	ctx := context.Background()

	if err := s.Put(ctx, "id1", strings.NewReader("old")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "id1", strings.NewReader("new")); err != nil {
		t.Fatal(err)
	}

	rc, err := s.Get(ctx, "id1")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "new" {
		t.Errorf("expected overwrite, got %q", got)
	}
}

func TestFSStoreGetMissing(t *testing.T) {
	s := NewFSStore(t.TempDir())

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFSStoreDeleteIdempotent(t *testing.T) {
	s := NewFSStore(t.TempDir())
	ctx := context.Background()

	if err := s.Put(ctx, "id1", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "id1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "id1"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if _, err := s.Get(ctx, "id1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestFSStoreUnavailable(t *testing.T) {
	// use a regular file as root so the layout cannot be created
	dir := t.TempDir()
	blocked := filepath.Join(dir, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFSStore(blocked)
	if s.Available() {
		t.Fatal("store should be unavailable")
	}

	ctx := context.Background()
	if err := s.Put(ctx, "id1", strings.NewReader("x")); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Put, got %v", err)
	}
	if _, err := s.Get(ctx, "id1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Get, got %v", err)
	}
	if err := s.Delete(ctx, "id1"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Delete, got %v", err)
	}
}

func TestFSStoreReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := NewFSStore(dir)
	if err := first.Put(ctx, "id1", strings.NewReader("durable")); err != nil {
		t.Fatal(err)
	}

	// re-establishing the layout must not destroy existing blobs
	second := NewFSStore(dir)
	rc, err := second.Get(ctx, "id1")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "durable" {
		t.Errorf("expected blob to survive reopen, got %q", got)
	}
}

func TestValidateID(t *testing.T) {
	for _, tc := range []struct {
		id string
		ok bool
	}{
		{"1700000000000-aabbccdd", true},
		{"", false},
		{"../escape", false},
		{"a/b", false},
		{`a\b`, false},
		{"a\x00b", false},
	} {
		err := validateID(tc.id)
		if tc.ok && err != nil {
			t.Errorf("validateID(%q) = %v, want nil", tc.id, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidID) {
			t.Errorf("validateID(%q) = %v, want ErrInvalidID", tc.id, err)
		}
	}
}
