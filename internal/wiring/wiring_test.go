package wiring

import (
	"context"
	"path/filepath"
	"testing"

	"repocast/internal/config"
)

func TestBuildAssemblesEveryComponent(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{
		LLMProvider:  "claude",
		TTSProvider:  "elevenlabs",
		STTProvider:  "gemini",
		StoreBackend: "local",
		StoreRoot:    dir,
	}

	app, err := Build(context.Background(), cfg, filepath.Join(dir, "work"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if app.Ingester == nil || app.LLMProvider == nil || app.TTS == nil || app.DiagramPipeline == nil ||
		app.PodcastBuilder == nil || app.VoiceManager == nil {
		t.Errorf("app = %+v, want every component populated", app)
	}
}

func TestBuildRejectsUnknownLLMProvider(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{LLMProvider: "not-a-real-provider", TTSProvider: "elevenlabs", StoreBackend: "local", StoreRoot: dir}

	if _, err := Build(context.Background(), cfg, filepath.Join(dir, "work")); err == nil {
		t.Fatal("expected an error for an unknown LLM provider")
	}
}

func TestBuildRejectsUnknownSTTProvider(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{LLMProvider: "claude", TTSProvider: "elevenlabs", STTProvider: "not-a-real-provider", StoreBackend: "local", StoreRoot: dir}

	if _, err := Build(context.Background(), cfg, filepath.Join(dir, "work")); err == nil {
		t.Fatal("expected an error for an unknown STT provider")
	}
}
