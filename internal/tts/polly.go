package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
)

const (
	pollyDefaultVoiceHost   = "Matthew"
	pollyDefaultVoiceExpert = "Ruth"
)

var pollyVoiceLang = map[string]types.LanguageCode{
	"Matthew":  types.LanguageCodeEnUs,
	"Ruth":     types.LanguageCodeEnUs,
	"Stephen":  types.LanguageCodeEnUs,
	"Danielle": types.LanguageCodeEnUs,
	"Amy":      types.LanguageCodeEnGb,
	"Olivia":   types.LanguageCodeEnAu,
	"Kajal":    types.LanguageCodeEnIn,
}

// PollyProvider implements Provider using AWS Polly (Generative engine).
type PollyProvider struct {
	voices VoiceMap
	client *polly.Client
}

func NewPollyProvider(hostVoice, expertVoice string, cfg ProviderConfig) (*PollyProvider, error) {
	if hostVoice == "" {
		hostVoice = pollyDefaultVoiceHost
	}
	if expertVoice == "" {
		expertVoice = pollyDefaultVoiceExpert
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load AWS config for Polly: %w", err)
	}

	return &PollyProvider{
		voices: VoiceMap{
			Host:   Voice{ID: hostVoice, Name: hostVoice, Provider: "polly"},
			Expert: Voice{ID: expertVoice, Name: expertVoice, Provider: "polly"},
		},
		client: polly.NewFromConfig(awsCfg),
	}, nil
}

func (p *PollyProvider) Name() string { return "polly" }

func (p *PollyProvider) DefaultVoices() VoiceMap { return p.voices }

func (p *PollyProvider) Synthesize(ctx context.Context, text string, voice Voice, settings VoiceSettings) (AudioResult, error) {
	lang, ok := pollyVoiceLang[voice.ID]
	if !ok {
		lang = types.LanguageCodeEnUs
	}

	input := &polly.SynthesizeSpeechInput{
		Engine:       types.EngineGenerative,
		OutputFormat: types.OutputFormatMp3,
		SampleRate:   strPtr("24000"),
		Text:         &text,
		TextType:     types.TextTypeText,
		VoiceId:      types.VoiceId(voice.ID),
		LanguageCode: lang,
	}

	resp, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return AudioResult{}, fmt.Errorf("polly synthesize: %w", err)
	}
	defer resp.AudioStream.Close()

	data, err := io.ReadAll(resp.AudioStream)
	if err != nil {
		return AudioResult{}, fmt.Errorf("polly read audio: %w", err)
	}
	return AudioResult{Data: data, Format: FormatMP3}, nil
}

func (p *PollyProvider) Close() error { return nil }

func strPtr(s string) *string { return &s }

func pollyAvailableVoices() []VoiceInfo {
	return []VoiceInfo{
		{ID: "Matthew", Name: "Matthew", Gender: "male", Description: "en-US, Generative", DefaultFor: "host"},
		{ID: "Ruth", Name: "Ruth", Gender: "female", Description: "en-US, Generative", DefaultFor: "expert"},
		{ID: "Stephen", Name: "Stephen", Gender: "male", Description: "en-US, Generative"},
		{ID: "Danielle", Name: "Danielle", Gender: "female", Description: "en-US, Generative"},
		{ID: "Olivia", Name: "Olivia", Gender: "female", Description: "en-AU, Generative"},
		{ID: "Kajal", Name: "Kajal", Gender: "female", Description: "en-IN, Generative"},
	}
}
