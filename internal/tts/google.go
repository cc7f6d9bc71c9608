package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

const (
	googleDefaultVoiceHost   = "en-US-Chirp3-HD-Charon"
	googleDefaultVoiceExpert = "en-US-Chirp3-HD-Leda"
)

// GoogleProvider implements Provider using Google Cloud TTS (Chirp 3 HD).
type GoogleProvider struct {
	voices VoiceMap
	client *texttospeech.Client
	speed  float64
	pitch  float64
}

func NewGoogleProvider(hostVoice, expertVoice string, cfg ProviderConfig) (*GoogleProvider, error) {
	if hostVoice == "" {
		hostVoice = googleDefaultVoiceHost
	}
	if expertVoice == "" {
		expertVoice = googleDefaultVoiceExpert
	}

	client, err := texttospeech.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("create Google TTS client: %w", err)
	}

	return &GoogleProvider{
		voices: VoiceMap{
			Host:   Voice{ID: hostVoice, Name: "Charon", Provider: "google"},
			Expert: Voice{ID: expertVoice, Name: "Leda", Provider: "google"},
		},
		client: client,
		speed:  cfg.Speed,
		pitch:  cfg.Pitch,
	}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) DefaultVoices() VoiceMap { return p.voices }

func (p *GoogleProvider) Synthesize(ctx context.Context, text string, voice Voice, settings VoiceSettings) (AudioResult, error) {
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "en-US",
			Name:         voice.ID,
		},
		AudioConfig: p.audioConfig(),
	}

	resp, err := p.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return AudioResult{}, fmt.Errorf("google TTS synthesize: %w", err)
	}
	return AudioResult{Data: resp.AudioContent, Format: FormatMP3}, nil
}

func (p *GoogleProvider) audioConfig() *texttospeechpb.AudioConfig {
	cfg := &texttospeechpb.AudioConfig{AudioEncoding: texttospeechpb.AudioEncoding_MP3}
	if p.speed != 0 {
		cfg.SpeakingRate = p.speed
	}
	if p.pitch != 0 {
		cfg.Pitch = p.pitch
	}
	return cfg
}

func (p *GoogleProvider) Close() error { return p.client.Close() }

func googleAvailableVoices() []VoiceInfo {
	return []VoiceInfo{
		{ID: "en-US-Chirp3-HD-Charon", Name: "Charon", Gender: "male", Description: "Informative, clear male narrator", DefaultFor: "host"},
		{ID: "en-US-Chirp3-HD-Leda", Name: "Leda", Gender: "female", Description: "Youthful, bright female voice", DefaultFor: "expert"},
		{ID: "en-US-Chirp3-HD-Kore", Name: "Kore", Gender: "female", Description: "Firm, confident female voice"},
		{ID: "en-US-Chirp3-HD-Orus", Name: "Orus", Gender: "male", Description: "Warm, steady male narrator"},
	}
}
