package voice

import (
	"bytes"
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// STTProvider transcribes a clip of audio to text. Grounded on
// ghovax-LecturesAssistant's transcription.Provider interface shape
// (Transcribe(ctx, file) (text, error)), narrowed to operate on an
// in-memory byte clip instead of a file path since voice-session audio
// never touches disk.
type STTProvider interface {
	Name() string
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// GeminiSTT transcribes via Gemini's multimodal generateContent endpoint,
// following the same client.Models.GenerateContent call shape as
// internal/llm's GeminiProvider.
type GeminiSTT struct {
	apiKey string
	model  string
}

func NewGeminiSTT(apiKey, model string) *GeminiSTT {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiSTT{apiKey: apiKey, model: model}
}

func (g *GeminiSTT) Name() string { return "gemini" }

func (g *GeminiSTT) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: g.apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	instruction := genai.NewPartFromText("Transcribe the spoken words in this audio clip verbatim. Reply with only the transcript, no commentary. If there is no speech, reply with an empty string.")
	audioPart := genai.NewPartFromBytes(audio, mimeType)
	content := genai.NewContentFromParts([]*genai.Part{instruction, audioPart}, genai.RoleUser)

	resp, err := client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}
	return resp.Text(), nil
}

// WhisperSTT transcribes via the OpenAI audio transcription endpoint.
type WhisperSTT struct {
	client openai.Client
	model  string
}

func NewWhisperSTT(apiKey, model string) *WhisperSTT {
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperSTT{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (w *WhisperSTT) Name() string { return "whisper" }

func (w *WhisperSTT) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: w.model,
		File:  openai.File(bytes.NewReader(audio), "clip."+extensionForMIME(mimeType), mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}
	return resp.Text, nil
}

func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "audio/wav", "audio/x-wav":
		return "wav"
	case "audio/mp3", "audio/mpeg":
		return "mp3"
	default:
		return "wav"
	}
}
