package voice

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"repocast/internal/apierr"
	"repocast/internal/contextbuilder"
	"repocast/internal/ingest"
	"repocast/internal/llm"
	"repocast/internal/llmutil"
	"repocast/internal/tts"
)

const introductionMaxWords = 80

// analysisResponse is the structured output of the one-shot analyze-repo
// LLM call: a paragraph summary plus a short spoken introduction.
type analysisResponse struct {
	Description      string `json:"description"`
	Summary          string `json:"summary"`
	IntroductionText string `json:"introduction_text"`
}

// AnalyzeResult is returned by Manager.AnalyzeRepo.
type AnalyzeResult struct {
	SessionID              string
	RepoName                string
	RepoDescription         string
	AnalysisSummary         string
	IntroductionText        string
	IntroductionAudioSize   int
}

// Manager holds all live voice sessions — state is strictly
// per-connection with no cross-session sharing; the Manager only
// provides the lookup table — plus the shared provider dependencies
// every session's operations call into.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	Ingester        *ingest.Ingester
	LLMProvider     llm.Provider
	ModelID         string
	ModelContextWindow int
	STT             STTProvider
	TTS             *tts.ProviderSet
	TTSProviderName string
}

func NewManager(ingester *ingest.Ingester, llmProvider llm.Provider, modelID string, modelContextWindow int, stt STTProvider, ttsProviders *tts.ProviderSet, ttsProviderName string) *Manager {
	return &Manager{
		sessions:           make(map[string]*Session),
		Ingester:           ingester,
		LLMProvider:        llmProvider,
		ModelID:            modelID,
		ModelContextWindow: modelContextWindow,
		STT:                stt,
		TTS:                ttsProviders,
		TTSProviderName:    ttsProviderName,
	}
}

func newSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func (m *Manager) get(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, apierr.New(apierr.KindInvalidInput, "voice", "unknown session_id", nil)
	}
	return s, nil
}

// AnalyzeRepo implements operation 1: builds a Prompt Context (purpose=qa),
// summarizes the repository, generates a short spoken introduction,
// creates the session, seeds conversation_history[0], and pre-synthesizes
// the introduction audio for the next call.
func (m *Manager) AnalyzeRepo(ctx context.Context, repoURL string) (*AnalyzeResult, error) {
	snap, err := m.Ingester.Parse(ctx, repoURL)
	if err != nil {
		return nil, err
	}

	pc := contextbuilder.Build(snap, contextbuilder.PurposeQA, m.ModelContextWindow)

	prompt := fmt.Sprintf(
		"Summarize this repository in one paragraph for a developer who has never seen it, "+
			"write a one-sentence description, "+
			"then write a spoken introduction of at most %d words a voice assistant could read aloud "+
			"to open a conversation about it. Respond as JSON: "+
			"{\"description\": string, \"summary\": string, \"introduction_text\": string}.\n\n"+
			"Repository: %s\n\nFile tree:\n%s\n\nREADME:\n%s",
		introductionMaxWords, snap.DisplayName, pc.TreeText, pc.READMEText,
	)

	raw, err := m.LLMProvider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Params{
		ModelID:         m.ModelID,
		Temperature:     0.4,
		MaxOutputTokens: 800,
	})
	if err != nil {
		return nil, err
	}

	var parsed analysisResponse
	if err := llmutil.UnmarshalJSONObject(raw, &parsed); err != nil {
		return nil, apierr.New(apierr.KindValidationFailed, "voice", "analyze-repo response was not valid JSON", err)
	}

	sessionID := newSessionID()
	session := newSession(sessionID, repoURL)
	session.RepoContextSummary = parsed.Summary
	session.IntroductionText = parsed.IntroductionText
	session.seedSystemEntry(fmt.Sprintf("Repository: %s\n\nSummary: %s", snap.DisplayName, parsed.Summary))

	audio, err := m.synthesize(ctx, parsed.IntroductionText)
	if err != nil {
		// Introduction audio is a pre-warm optimization, not a hard
		// requirement of analyze-repo's success; the client can still
		// call /voice/tts directly if pre-synthesis fails.
		audio = nil
	}
	session.IntroductionAudio = audio

	m.mu.Lock()
	m.sessions[sessionID] = session
	m.mu.Unlock()

	return &AnalyzeResult{
		SessionID:             sessionID,
		RepoName:              snap.Name,
		RepoDescription:       parsed.Description,
		AnalysisSummary:       parsed.Summary,
		IntroductionText:      parsed.IntroductionText,
		IntroductionAudioSize: len(audio),
	}, nil
}

// IntroductionAudio implements operation 2: returns the pre-synthesized
// introduction audio cached at analyze-repo time.
func (m *Manager) IntroductionAudio(sessionID string) ([]byte, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IntroductionAudio == nil {
		return nil, apierr.New(apierr.KindInternal, "voice", "introduction audio was not pre-synthesized", nil)
	}
	return s.IntroductionAudio, nil
}

// STT implements operation 3: trim silence, transcribe, and return an
// empty transcript without calling the LLM if no speech was detected.
func (m *Manager) STT(ctx context.Context, sessionID string, audio []byte, mimeType string) (string, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return "", err
	}
	s.setState(StateListening)

	samples, sampleRate, decodeErr := DecodeWAVPCM16(audio)
	clip := audio
	if decodeErr == nil {
		trimmed, hasSpeech := TrimSilence(samples, sampleRate)
		if !hasSpeech {
			s.setState(StateIdle)
			return "", nil
		}
		clip = EncodeWAVPCM16(trimmed, sampleRate)
		mimeType = "audio/wav"
	}

	s.setState(StateThinking)
	transcript, err := m.STT.Transcribe(ctx, clip, mimeType)
	if err != nil {
		s.setState(StateIdle)
		return "", apierr.New(apierr.KindProviderOther, "stt", "transcribe audio", err)
	}

	s.setState(StateIdle)
	return strings.TrimSpace(transcript), nil
}

// Ask implements operation 4: append the user turn, call the LLM with the
// bounded history, append the reply, return it.
func (m *Manager) Ask(ctx context.Context, sessionID, transcript string) (string, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return "", err
	}
	s.setState(StateThinking)

	s.appendHistory(HistoryEntry{Role: "user", Content: transcript})

	snapshot := s.historySnapshot()
	messages := make([]llm.Message, 0, len(snapshot))
	for _, h := range snapshot {
		messages = append(messages, llm.Message{Role: h.Role, Content: h.Content})
	}

	reply, err := m.LLMProvider.Chat(ctx, messages, llm.Params{ModelID: m.ModelID, Temperature: 0.5, MaxOutputTokens: 500})
	if err != nil {
		s.setState(StateIdle)
		return "", err
	}

	s.appendHistory(HistoryEntry{Role: "assistant", Content: reply})
	s.setState(StateIdle)
	return reply, nil
}

// TTS implements operation 5, with interruption support: a cancel func
// for the synthesis is wired into the session so a subsequent Interrupt call
// aborts synthesis (or discards its result) if still in flight.
func (m *Manager) TTS(ctx context.Context, sessionID, text, voiceID string) ([]byte, error) {
	s, err := m.get(sessionID)
	if err != nil {
		return nil, err
	}

	synthCtx, cancel := context.WithCancel(ctx)
	s.beginSpeaking(cancel)
	defer s.endSpeaking()
	defer cancel()

	audio, err := m.synthesizeCtx(synthCtx, text, voiceID)
	if err != nil {
		if synthCtx.Err() != nil {
			return nil, nil
		}
		return nil, apierr.New(apierr.KindProviderOther, "tts", "synthesize reply", err)
	}
	return audio, nil
}

// Interrupt implements the speaking->listening transition: aborts any
// in-flight synthesis for this session.
func (m *Manager) Interrupt(sessionID string) error {
	s, err := m.get(sessionID)
	if err != nil {
		return err
	}
	s.Interrupt()
	return nil
}

func (m *Manager) synthesize(ctx context.Context, text string) ([]byte, error) {
	return m.synthesizeCtx(ctx, text, "")
}

func (m *Manager) synthesizeCtx(ctx context.Context, text, voiceID string) ([]byte, error) {
	provider, err := m.TTS.Get(m.TTSProviderName)
	if err != nil {
		return nil, err
	}
	voice := provider.DefaultVoices().Host
	if voiceID != "" {
		voice.ID = voiceID
	}

	var result tts.AudioResult
	err = tts.WithRetry(ctx, func() error {
		var synthErr error
		result, synthErr = provider.Synthesize(ctx, text, voice, tts.VoiceSettings{})
		return synthErr
	})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}
