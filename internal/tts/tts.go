// Package tts implements the TTS Batcher: one Provider interface shared by
// four synthesis backends (ElevenLabs, Google Cloud TTS, AWS Polly,
// Gemini), a canonical VoiceSettings record matching the wire schema, and
// the shared retry/backoff policy every provider composes with. The
// Provider/VoiceMap shape carries over a 3-host layout, narrowed here to a
// fixed host/expert pair.
package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"repocast/internal/script"
)

// AudioFormat identifies the encoding returned by a provider.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatPCM AudioFormat = "pcm"
	FormatWAV AudioFormat = "wav"
)

// Voice holds a provider-specific voice identifier.
type Voice struct {
	ID       string
	Name     string
	Provider string
}

// VoiceMap maps the two fixed speaker roles to voices.
type VoiceMap struct {
	Host   Voice
	Expert Voice
}

// VoiceSettings mirrors the wire-level voice_settings object exactly,
// including ElevenLabs' own field names — a direct match, not a
// coincidence: ElevenLabs is the default provider.
type VoiceSettings struct {
	HostVoiceID     string  `json:"host_voice_id"`
	ExpertVoiceID   string  `json:"expert_voice_id"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// AudioResult is the output of a synthesis call.
type AudioResult struct {
	Data   []byte
	Format AudioFormat
}

// Provider synthesizes speech from text, one turn at a time.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice Voice, settings VoiceSettings) (AudioResult, error)
	DefaultVoices() VoiceMap
	Close() error
}

// BatchProvider can synthesize an entire multi-speaker script in one call.
// The podcast pipeline does not call it: it synthesizes turn by turn for
// every provider, since the Streaming Sender needs exact per-turn
// boundaries.
type BatchProvider interface {
	Provider
	SynthesizeBatch(ctx context.Context, turns []script.Turn, voices VoiceMap, settings VoiceSettings) (AudioResult, error)
}

// VoiceInfo describes an available voice for display/listing purposes.
type VoiceInfo struct {
	ID          string
	Name        string
	Gender      string
	Description string
	DefaultFor  string // "host", "expert", or ""
}

func AvailableVoices(providerName string) ([]VoiceInfo, error) {
	switch providerName {
	case "elevenlabs":
		return elevenLabsAvailableVoices(), nil
	case "google":
		return googleAvailableVoices(), nil
	case "gemini":
		return geminiAvailableVoices(), nil
	case "polly":
		return pollyAvailableVoices(), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", providerName)
	}
}

const (
	defaultMaxAttempts    = 3 // up to 2 retries beyond the first attempt
	defaultInitialBackoff = 2 * time.Second
	defaultBackoffMulti   = 2
	defaultMaxBackoff     = 30 * time.Second
)

// RetryableError signals that the synthesis call can be retried.
type RetryableError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("TTS provider error (status %d): %s", e.StatusCode, e.Body)
}

func isRetryable(ctx context.Context, err error) bool {
	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}
	if ctx.Err() == nil && (os.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded)) {
		return true
	}
	return false
}

// WithRetry runs fn with exponential backoff, honoring a Retry-After hint
// when the provider supplies one.
func WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else if !isRetryable(ctx, err) {
			return err
		} else {
			lastErr = err
		}

		if attempt < defaultMaxAttempts {
			wait := backoff
			var re *RetryableError
			if errors.As(lastErr, &re) && re.RetryAfter > wait {
				wait = re.RetryAfter
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			backoff *= time.Duration(defaultBackoffMulti)
			if backoff > defaultMaxBackoff {
				backoff = defaultMaxBackoff
			}
		}
	}
	return lastErr
}

// ProviderConfig holds model and voice settings passed to provider constructors.
type ProviderConfig struct {
	Model  string
	Speed  float64
	Pitch  float64
	APIKey string
}

// NewProvider creates a TTS provider by name.
func NewProvider(name, hostVoice, expertVoice string, cfg ProviderConfig) (Provider, error) {
	switch name {
	case "elevenlabs":
		return NewElevenLabsProvider(hostVoice, expertVoice, cfg), nil
	case "google":
		return NewGoogleProvider(hostVoice, expertVoice, cfg)
	case "gemini":
		return NewGeminiProvider(hostVoice, expertVoice, cfg), nil
	case "polly":
		return NewPollyProvider(hostVoice, expertVoice, cfg)
	default:
		return nil, fmt.Errorf("unknown TTS provider %q: choose elevenlabs, google, gemini, or polly", name)
	}
}

// ParseVoiceSpec parses "provider:voiceID" or plain "voiceID".
func ParseVoiceSpec(spec string) (provider, voiceID string) {
	if i := strings.Index(spec, ":"); i > 0 {
		prefix := spec[:i]
		switch prefix {
		case "elevenlabs", "gemini", "google", "polly":
			return prefix, spec[i+1:]
		}
	}
	return "", spec
}

// ProviderSet is a lazy pool of TTS providers, created on first use.
type ProviderSet struct {
	mu        sync.Mutex
	providers map[string]Provider
	configs   map[string]ProviderConfig
}

func NewProviderSet() *ProviderSet {
	return &ProviderSet{
		providers: make(map[string]Provider),
		configs:   make(map[string]ProviderConfig),
	}
}

func (ps *ProviderSet) SetConfig(name string, cfg ProviderConfig) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.configs[name] = cfg
}

func (ps *ProviderSet) Get(name string) (Provider, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if p, ok := ps.providers[name]; ok {
		return p, nil
	}
	cfg := ps.configs[name]
	p, err := NewProvider(name, "", "", cfg)
	if err != nil {
		return nil, err
	}
	ps.providers[name] = p
	return p, nil
}

func (ps *ProviderSet) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var firstErr error
	for _, p := range ps.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ps.providers = make(map[string]Provider)
	return firstErr
}
