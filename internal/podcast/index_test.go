package podcast

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNewIndexEmptyWhenFileMissing(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if len(idx.List()) != 0 {
		t.Errorf("expected an empty index, got %d records", len(idx.List()))
	}
}

func TestIndexPutAndGet(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	r := &Record{CacheKey: "abc", RepoURL: "https://github.com/owner/repo", CreatedAt: time.Now()}
	if err := idx.Put(r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := idx.Get("abc")
	if !ok {
		t.Fatal("expected to find the record just put")
	}
	if got.RepoURL != r.RepoURL {
		t.Errorf("RepoURL = %q, want %q", got.RepoURL, r.RepoURL)
	}
}

func TestIndexGetMissingKey(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if _, ok := idx.Get("nope"); ok {
		t.Error("expected no record for an unknown key")
	}
}

func TestIndexTouchBumpsAccessCount(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	r := &Record{CacheKey: "abc", CreatedAt: time.Now()}
	if err := idx.Put(r); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := idx.Touch("abc"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	got, _ := idx.Get("abc")
	if got.AccessCount != 1 {
		t.Errorf("AccessCount = %d, want 1", got.AccessCount)
	}
}

func TestIndexTouchMissingKeyIsNoop(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := idx.Touch("nope"); err != nil {
		t.Errorf("Touch on a missing key should be a no-op, got error: %v", err)
	}
}

func TestIndexListOrdersMostRecentFirst(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "index.json"))
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	older := &Record{CacheKey: "older", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &Record{CacheKey: "newer", CreatedAt: time.Now()}
	if err := idx.Put(older); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := idx.Put(newer); err != nil {
		t.Fatalf("Put: %v", err)
	}

	list := idx.List()
	if len(list) != 2 || list[0].CacheKey != "newer" || list[1].CacheKey != "older" {
		t.Errorf("List() = %+v, want newest first", list)
	}
}

func TestIndexPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	idx, err := NewIndex(path)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := idx.Put(&Record{CacheKey: "abc", RepoURL: "https://github.com/owner/repo", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reloaded, err := NewIndex(path)
	if err != nil {
		t.Fatalf("NewIndex (reload): %v", err)
	}
	got, ok := reloaded.Get("abc")
	if !ok {
		t.Fatal("expected the record to survive a reload from disk")
	}
	if got.RepoURL != "https://github.com/owner/repo" {
		t.Errorf("RepoURL = %q after reload", got.RepoURL)
	}
}
