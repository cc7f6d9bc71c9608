package cli

import (
	"strings"
	"testing"

	"repocast/internal/config"
)

func TestCheckAPIKeysClaudeMissingKey(t *testing.T) {
	cfg := config.Config{LLMProvider: "claude", TTSProvider: "elevenlabs", ElevenLabsAPIKey: "x"}
	err := checkAPIKeys(cfg)
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("err = %v, want a complaint about ANTHROPIC_API_KEY", err)
	}
}

func TestCheckAPIKeysGeminiSharedAcrossLLMAndTTS(t *testing.T) {
	cfg := config.Config{LLMProvider: "gemini", TTSProvider: "gemini", GeminiAPIKey: "x"}
	if err := checkAPIKeys(cfg); err != nil {
		t.Errorf("unexpected error with a Gemini key present for both roles: %v", err)
	}
}

func TestCheckAPIKeysBedrockAndPollyNeedNoExplicitKey(t *testing.T) {
	cfg := config.Config{LLMProvider: "bedrock-nova", TTSProvider: "polly"}
	if err := checkAPIKeys(cfg); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckAPIKeysReportsAllMissingKeys(t *testing.T) {
	cfg := config.Config{LLMProvider: "claude", TTSProvider: "elevenlabs"}
	err := checkAPIKeys(cfg)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") || !strings.Contains(err.Error(), "ELEVENLABS_API_KEY") {
		t.Errorf("err = %v, want both missing keys named", err)
	}
}

func TestLoadCLIConfigFlagOverridesApply(t *testing.T) {
	flagGitHubToken = "gh-token"
	flagAnthropicKey = "anthropic-key"
	flagGeminiKey = "gemini-key"
	flagTTS = "gemini"
	flagTTSModel = "custom-model"
	defer func() {
		flagGitHubToken, flagAnthropicKey, flagGeminiKey, flagTTS, flagTTSModel = "", "", "", "", ""
	}()

	cfg := loadCLIConfig()
	if cfg.GitHubToken != "gh-token" || cfg.AnthropicAPIKey != "anthropic-key" || cfg.GeminiAPIKey != "gemini-key" {
		t.Errorf("cfg = %+v, want flag overrides applied", cfg)
	}
	if cfg.TTSProvider != "gemini" || cfg.TTSModel != "custom-model" {
		t.Errorf("cfg = %+v, want TTS overrides applied", cfg)
	}
}
