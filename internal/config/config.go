// Package config loads process configuration once at startup into a typed
// value, instead of scattering os.Getenv calls through request handlers.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Config is the full set of environment-derived settings for the service.
type Config struct {
	Port int

	// LLM providers
	LLMProvider       string // claude | bedrock-nova | gemini
	AnthropicAPIKey   string
	GeminiAPIKey      string
	AWSRegion         string
	ModelID           string
	ModelContextWindow int

	// Repository hosting
	GitHubToken string

	// TTS
	TTSProvider        string // elevenlabs | google | gemini | polly
	ElevenLabsAPIKey   string
	TTSModel           string

	// STT (voice conversation)
	STTProvider string // gemini | whisper
	OpenAIAPIKey string

	// Storage backend
	StoreBackend string // "local" or "s3", selected by presence of credentials when empty
	StoreRoot    string // local-filesystem root
	S3Bucket     string
	CDNBaseURL   string

	// Secrets
	SecretsARN string

	LogLevel string

	// Timeouts
	RepoFetchTimeout  time.Duration
	LLMCallTimeout    time.Duration
	TTSCallTimeout    time.Duration
	STTCallTimeout    time.Duration
	PodcastGenTimeout time.Duration
}

// Load reads Config from the environment, applying built-in defaults for
// anything unset.
func Load() Config {
	cfg := Config{
		Port:               envInt("PORT", 8080),
		LLMProvider:         envOr("LLM_PROVIDER", "claude"),
		AnthropicAPIKey:     os.Getenv("ANTHROPIC_API_KEY"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		AWSRegion:           envOr("AWS_REGION", "us-east-1"),
		ModelID:             envOr("MODEL_ID", "claude-haiku-4-5"),
		ModelContextWindow:  envInt("MODEL_CONTEXT_WINDOW", 32000),
		GitHubToken:         os.Getenv("GITHUB_TOKEN"),
		TTSProvider:         envOr("TTS_PROVIDER", "gemini"),
		ElevenLabsAPIKey:    os.Getenv("ELEVENLABS_API_KEY"),
		TTSModel:            os.Getenv("TTS_MODEL"),
		STTProvider:         envOr("STT_PROVIDER", "gemini"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		StoreBackend:        os.Getenv("STORE_BACKEND"),
		StoreRoot:           envOr("STORE_ROOT", "./data"),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		CDNBaseURL:          os.Getenv("CDN_BASE_URL"),
		SecretsARN:          os.Getenv("SECRETS_ARN"),
		LogLevel:            envOr("LOG_LEVEL", "info"),
		RepoFetchTimeout:    envDuration("REPO_FETCH_TIMEOUT", 30*time.Second),
		LLMCallTimeout:      envDuration("LLM_CALL_TIMEOUT", 60*time.Second),
		TTSCallTimeout:      envDuration("TTS_CALL_TIMEOUT", 30*time.Second),
		STTCallTimeout:      envDuration("STT_CALL_TIMEOUT", 30*time.Second),
		PodcastGenTimeout:   envDuration("PODCAST_GEN_TIMEOUT", 10*time.Minute),
	}

	if cfg.StoreBackend == "" {
		if cfg.S3Bucket != "" {
			cfg.StoreBackend = "s3"
		} else {
			cfg.StoreBackend = "local"
		}
	}

	return cfg
}

// LoadSecrets fetches any still-unset API keys from AWS Secrets Manager,
// run synchronously before the server starts accepting traffic (this
// service has no cold-start deadline forcing it into the background).
func (c *Config) LoadSecrets(ctx context.Context, logger *slog.Logger) error {
	if c.SecretsARN == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.AWSRegion))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := secretsmanager.NewFromConfig(awsCfg)

	fetch := func(name string, dst *string) {
		if *dst != "" {
			return
		}
		secretID := c.SecretsARN + "/" + name
		out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: &secretID})
		if err != nil {
			logger.Warn("secret not found", "secret_id", secretID, "error", err)
			return
		}
		if out.SecretString != nil {
			*dst = *out.SecretString
			logger.Info("loaded secret", "secret_id", secretID)
		}
	}

	fetch("ANTHROPIC_API_KEY", &c.AnthropicAPIKey)
	fetch("GEMINI_API_KEY", &c.GeminiAPIKey)
	fetch("ELEVENLABS_API_KEY", &c.ElevenLabsAPIKey)
	fetch("GITHUB_TOKEN", &c.GitHubToken)
	fetch("OPENAI_API_KEY", &c.OpenAIAPIKey)

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
