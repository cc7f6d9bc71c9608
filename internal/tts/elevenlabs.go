package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	elevenDefaultVoiceHost   = "JBFqnCBsd6RMkjVDRZzb" // George
	elevenDefaultVoiceExpert = "EXAVITQu4vr4xnSDxMaL" // Sarah

	elevenAPIBaseURL   = "https://api.elevenlabs.io/v1/text-to-speech"
	elevenModelID      = "eleven_multilingual_v2"
	elevenOutputFormat = "mp3_44100_128"
)

type elevenRequest struct {
	Text          string                `json:"text"`
	ModelID       string                `json:"model_id"`
	VoiceSettings *elevenVoiceSettings  `json:"voice_settings,omitempty"`
}

type elevenVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// ElevenLabsProvider implements Provider directly off ElevenLabs' own
// voice_settings schema (stability, similarity_boost, style,
// use_speaker_boost) rather than introducing an abstraction over it.
type ElevenLabsProvider struct {
	voices     VoiceMap
	apiKey     string
	httpClient *http.Client
}

func NewElevenLabsProvider(hostVoice, expertVoice string, cfg ProviderConfig) *ElevenLabsProvider {
	if hostVoice == "" {
		hostVoice = elevenDefaultVoiceHost
	}
	if expertVoice == "" {
		expertVoice = elevenDefaultVoiceExpert
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ELEVENLABS_API_KEY")
	}
	return &ElevenLabsProvider{
		voices: VoiceMap{
			Host:   Voice{ID: hostVoice, Name: "host", Provider: "elevenlabs"},
			Expert: Voice{ID: expertVoice, Name: "expert", Provider: "elevenlabs"},
		},
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *ElevenLabsProvider) Name() string { return "elevenlabs" }

func (p *ElevenLabsProvider) DefaultVoices() VoiceMap { return p.voices }

func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, voice Voice, settings VoiceSettings) (AudioResult, error) {
	var result AudioResult
	err := WithRetry(ctx, func() error {
		audio, err := p.synthesizeOnce(ctx, text, voice.ID, settings)
		if err != nil {
			return err
		}
		result = AudioResult{Data: audio, Format: FormatMP3}
		return nil
	})
	return result, err
}

func (p *ElevenLabsProvider) synthesizeOnce(ctx context.Context, text, voiceID string, settings VoiceSettings) ([]byte, error) {
	reqBody := elevenRequest{
		Text:    text,
		ModelID: elevenModelID,
		VoiceSettings: &elevenVoiceSettings{
			Stability:       settings.Stability,
			SimilarityBoost: settings.SimilarityBoost,
			Style:           settings.Style,
			UseSpeakerBoost: settings.UseSpeakerBoost,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?output_format=%s", elevenAPIBaseURL, voiceID, elevenOutputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError {
		errBody, _ := io.ReadAll(res.Body)
		return nil, &RetryableError{StatusCode: res.StatusCode, Body: string(errBody)}
	}
	if res.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elevenlabs API error (status %d): %s", res.StatusCode, string(errBody))
	}

	return io.ReadAll(res.Body)
}

func (p *ElevenLabsProvider) Close() error { return nil }

func elevenLabsAvailableVoices() []VoiceInfo {
	return []VoiceInfo{
		{ID: elevenDefaultVoiceHost, Name: "George", Gender: "male", Description: "Warm, measured narrator", DefaultFor: "host"},
		{ID: elevenDefaultVoiceExpert, Name: "Sarah", Gender: "female", Description: "Clear, analytical voice", DefaultFor: "expert"},
		{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Gender: "male", Description: "Deep, confident voice"},
		{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Gender: "female", Description: "Calm, professional voice"},
	}
}
