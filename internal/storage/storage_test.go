package storage

import (
	"context"
	"testing"
)

func TestNewDefaultsToLocalBackend(t *testing.T) {
	backend, err := New(context.Background(), "", t.TempDir(), "", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := backend.(*LocalBackend); !ok {
		t.Errorf("backend = %T, want *LocalBackend when backend kind is unset", backend)
	}
}

func TestNewLocalExplicit(t *testing.T) {
	backend, err := New(context.Background(), "local", t.TempDir(), "", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := backend.(*LocalBackend); !ok {
		t.Errorf("backend = %T, want *LocalBackend", backend)
	}
}
