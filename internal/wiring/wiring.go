// Package wiring assembles the service's components from a loaded
// config.Config — the one place that constructs the Ingester, LLM
// provider, TTS provider set, diagram pipeline, podcast builder, and
// voice manager, so cmd/repocast and cmd/mcp-server build the same
// graph instead of duplicating provider-selection logic.
package wiring

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"repocast/internal/assembly"
	"repocast/internal/config"
	"repocast/internal/diagram"
	"repocast/internal/ingest"
	"repocast/internal/llm"
	"repocast/internal/podcast"
	"repocast/internal/storage"
	"repocast/internal/tts"
	"repocast/internal/voice"
)

// App holds every long-lived component the HTTP and MCP transports share.
type App struct {
	Ingester        *ingest.Ingester
	LLMProvider     llm.Provider
	TTS             *tts.ProviderSet
	DiagramPipeline *diagram.Pipeline
	PodcastBuilder  *podcast.Builder
	VoiceManager    *voice.Manager
}

// Build constructs an App from cfg. workDir is where the podcast builder
// stages temporary audio segments and persists its cache index.
func Build(ctx context.Context, cfg config.Config, workDir string) (*App, error) {
	ingester := ingest.NewIngester(cfg.GitHubToken)

	llmProvider, err := llm.New(cfg.LLMProvider, cfg.AnthropicAPIKey, cfg.GeminiAPIKey, cfg.AWSRegion)
	if err != nil {
		return nil, fmt.Errorf("construct llm provider: %w", err)
	}

	ttsProviders := tts.NewProviderSet()
	if cfg.TTSModel != "" {
		ttsProviders.SetConfig(cfg.TTSProvider, tts.ProviderConfig{Model: cfg.TTSModel})
	}

	assembler := assembly.NewFFmpegAssembler()

	backend, err := storage.New(ctx, cfg.StoreBackend, cfg.StoreRoot, cfg.S3Bucket, cfg.AWSRegion, cfg.CDNBaseURL)
	if err != nil {
		return nil, fmt.Errorf("construct storage backend: %w", err)
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	index, err := podcast.NewIndex(filepath.Join(workDir, "index.json"))
	if err != nil {
		return nil, fmt.Errorf("load podcast cache index: %w", err)
	}

	builder := podcast.NewBuilder(
		ingester,
		llmProvider,
		cfg.ModelID,
		cfg.ModelContextWindow,
		ttsProviders,
		cfg.TTSProvider,
		assembler,
		backend,
		index,
		workDir,
	)

	diagramPipeline := diagram.New(llmProvider, cfg.ModelID)

	sttProvider, err := newSTTProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("construct stt provider: %w", err)
	}
	voiceManager := voice.NewManager(ingester, llmProvider, cfg.ModelID, cfg.ModelContextWindow, sttProvider, ttsProviders, cfg.TTSProvider)

	return &App{
		Ingester:        ingester,
		LLMProvider:     llmProvider,
		TTS:             ttsProviders,
		DiagramPipeline: diagramPipeline,
		PodcastBuilder:  builder,
		VoiceManager:    voiceManager,
	}, nil
}

func newSTTProvider(cfg config.Config) (voice.STTProvider, error) {
	switch cfg.STTProvider {
	case "", "gemini":
		return voice.NewGeminiSTT(cfg.GeminiAPIKey, "gemini-2.0-flash"), nil
	case "whisper":
		return voice.NewWhisperSTT(cfg.OpenAIAPIKey, "whisper-1"), nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q: must be gemini or whisper", cfg.STTProvider)
	}
}
