package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"repocast/internal/script"
)

const (
	geminiDefaultVoiceHost   = "Charon"
	geminiDefaultVoiceExpert = "Leda"

	geminiDefaultTTSModel = "gemini-2.5-pro-preview-tts"
	geminiEndpointBase    = "https://generativelanguage.googleapis.com/v1beta/models/"
)

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig             *geminiVoiceConfig        `json:"voiceConfig,omitempty"`
	MultiSpeakerVoiceConfig *geminiMultiSpeakerConfig `json:"multiSpeakerVoiceConfig,omitempty"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiMultiSpeakerConfig struct {
	SpeakerVoiceConfigs []geminiSpeakerVoiceConfig `json:"speakerVoiceConfigs"`
}

type geminiSpeakerVoiceConfig struct {
	Speaker     string            `json:"speaker"`
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiRespContent `json:"content"`
}

type geminiRespContent struct {
	Parts []geminiRespPart `json:"parts"`
}

type geminiRespPart struct {
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// GeminiProvider implements both Provider and BatchProvider for the
// two-speaker podcast format.
type GeminiProvider struct {
	voices     VoiceMap
	apiKey     string
	httpClient *http.Client
	model      string
}

func NewGeminiProvider(hostVoice, expertVoice string, cfg ProviderConfig) *GeminiProvider {
	if hostVoice == "" {
		hostVoice = geminiDefaultVoiceHost
	}
	if expertVoice == "" {
		expertVoice = geminiDefaultVoiceExpert
	}

	model := geminiDefaultTTSModel
	if cfg.Model != "" {
		model = cfg.Model
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}

	return &GeminiProvider{
		voices: VoiceMap{
			Host:   Voice{ID: hostVoice, Name: hostVoice, Provider: "gemini"},
			Expert: Voice{ID: expertVoice, Name: expertVoice, Provider: "gemini"},
		},
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 300 * time.Second},
		model:      model,
	}
}

func (p *GeminiProvider) endpoint() string {
	return geminiEndpointBase + p.model + ":generateContent"
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) DefaultVoices() VoiceMap { return p.voices }

// Synthesize does single-speaker synthesis for one turn.
func (p *GeminiProvider) Synthesize(ctx context.Context, text string, voice Voice, settings VoiceSettings) (AudioResult, error) {
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: geminiGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: geminiSpeechConfig{
				VoiceConfig: &geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voice.ID},
				},
			},
		},
	}

	data, err := p.doRequest(ctx, req)
	if err != nil {
		return AudioResult{}, err
	}
	return AudioResult{Data: data, Format: FormatPCM}, nil
}

// SynthesizeBatch sends the entire script as a multi-speaker dialogue.
func (p *GeminiProvider) SynthesizeBatch(ctx context.Context, turns []script.Turn, voices VoiceMap, settings VoiceSettings) (AudioResult, error) {
	var dialogue string
	for _, t := range turns {
		dialogue += fmt.Sprintf("%s: %s\n", t.Speaker, t.Text)
	}

	speakerConfigs := []geminiSpeakerVoiceConfig{
		{Speaker: string(script.SpeakerHost), VoiceConfig: geminiVoiceConfig{PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voices.Host.ID}}},
		{Speaker: string(script.SpeakerExpert), VoiceConfig: geminiVoiceConfig{PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: voices.Expert.ID}}},
	}

	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: dialogue}}}},
		GenerationConfig: geminiGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: geminiSpeechConfig{
				MultiSpeakerVoiceConfig: &geminiMultiSpeakerConfig{SpeakerVoiceConfigs: speakerConfigs},
			},
		},
	}

	data, err := p.doRequest(ctx, req)
	if err != nil {
		return AudioResult{}, err
	}
	return AudioResult{Data: data, Format: FormatPCM}, nil
}

func (p *GeminiProvider) doRequest(ctx context.Context, reqBody geminiRequest) ([]byte, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := p.endpoint() + "?key=" + p.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send gemini request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError {
		errBody, _ := io.ReadAll(res.Body)
		return nil, &RetryableError{StatusCode: res.StatusCode, Body: string(errBody)}
	}
	if res.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("gemini API error (status %d): %s", res.StatusCode, string(errBody))
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 ||
		resp.Candidates[0].Content.Parts[0].InlineData == nil {
		return nil, fmt.Errorf("gemini response contained no audio data")
	}

	audioB64 := resp.Candidates[0].Content.Parts[0].InlineData.Data
	audioBytes, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return nil, fmt.Errorf("decode gemini audio base64: %w", err)
	}
	return audioBytes, nil
}

func (p *GeminiProvider) Close() error { return nil }

func geminiAvailableVoices() []VoiceInfo {
	return []VoiceInfo{
		{ID: "Charon", Name: "Charon", Gender: "male", Description: "Informative", DefaultFor: "host"},
		{ID: "Leda", Name: "Leda", Gender: "female", Description: "Youthful", DefaultFor: "expert"},
		{ID: "Fenrir", Name: "Fenrir", Gender: "male", Description: "Excitable"},
		{ID: "Kore", Name: "Kore", Gender: "female", Description: "Firm"},
		{ID: "Orus", Name: "Orus", Gender: "male", Description: "Firm"},
		{ID: "Puck", Name: "Puck", Gender: "male", Description: "Upbeat"},
		{ID: "Zephyr", Name: "Zephyr", Gender: "female", Description: "Bright"},
	}
}
