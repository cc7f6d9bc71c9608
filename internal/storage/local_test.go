package storage

import (
	"context"
	"testing"
	"time"
)

func TestLocalBackendPutAndGetRoundTrip(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	ctx := context.Background()

	handle, err := b.Put(ctx, "podcasts/abc/audio.mp3", []byte("fake-audio-bytes"), "audio/mpeg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if handle != "podcasts/abc/audio.mp3" {
		t.Errorf("handle = %q, want the key echoed back", handle)
	}

	data, err := b.Get(ctx, "podcasts/abc/audio.mp3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "fake-audio-bytes" {
		t.Errorf("data = %q, want original bytes", string(data))
	}
}

func TestLocalBackendPutCreatesParentDirectories(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	if _, err := b.Put(context.Background(), "a/b/c/d.png", []byte("x"), "image/png"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := b.Get(context.Background(), "a/b/c/d.png"); err != nil {
		t.Fatalf("Get after nested Put: %v", err)
	}
}

func TestLocalBackendGetMissingKey(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	if _, err := b.Get(context.Background(), "does/not/exist.mp3"); err == nil {
		t.Fatal("expected an error reading a missing key")
	}
}

func TestLocalBackendPresignReturnsArtifactPath(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	url, err := b.Presign(context.Background(), "podcasts/abc/audio.mp3", time.Hour)
	if err != nil {
		t.Fatalf("Presign: %v", err)
	}
	if url != "/artifacts/podcasts/abc/audio.mp3" {
		t.Errorf("url = %q, want /artifacts/... path", url)
	}
}

func TestLocalBackendPresignStripsLeadingSlash(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	url, err := b.Presign(context.Background(), "/leading/slash.mp3", time.Hour)
	if err != nil {
		t.Fatalf("Presign: %v", err)
	}
	if url != "/artifacts/leading/slash.mp3" {
		t.Errorf("url = %q, want the leading slash collapsed", url)
	}
}

func TestLocalBackendListReturnsSortedKeysUnderPrefix(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	ctx := context.Background()
	for _, key := range []string{"p/b.mp3", "p/a.mp3", "other/c.mp3"} {
		if _, err := b.Put(ctx, key, []byte("x"), "audio/mpeg"); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	keys, err := b.List(ctx, "p")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 || keys[0] != "p/a.mp3" || keys[1] != "p/b.mp3" {
		t.Errorf("keys = %v, want sorted [p/a.mp3 p/b.mp3]", keys)
	}
}

func TestLocalBackendListMissingPrefixReturnsEmpty(t *testing.T) {
	b := NewLocalBackend(t.TempDir())
	keys, err := b.List(context.Background(), "never-created")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want empty for a nonexistent prefix", keys)
	}
}
