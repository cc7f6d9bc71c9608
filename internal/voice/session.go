// Package voice implements the voice conversation session: a per-client
// state machine over speech-to-text, the Q&A LLM chain, and
// text-to-speech, with explicit interruption support. The Q&A-chain shape
// carries over the podcast pipeline's LLM orchestration; interruption
// uses a per-connection cancellation-token pattern (each session holds
// the cancel func of its in-flight synthesis), and the STT provider sits
// behind a narrow
// transcription interface so backends are swappable.
package voice

import (
	"sync"
	"time"
)

// TurnState is the voice session's current_turn_state.
type TurnState string

const (
	StateIdle      TurnState = "idle"
	StateListening TurnState = "listening"
	StateThinking  TurnState = "thinking"
	StateSpeaking  TurnState = "speaking"
)

// HistoryEntry is one {role, content} pair in conversation_history.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// maxHistoryPairs bounds conversation_history at 16 pairs (32 entries);
// the system entry at index 0 is never dropped.
const maxHistoryPairs = 16

// Session is per-client conversational state. Sessions are never shared
// across connections; each one owns its own mutex and its own
// cancellation handle for the audio currently playing, so an interrupt
// on one session can never affect another.
type Session struct {
	mu sync.Mutex

	ID                 string
	RepoURL            string
	RepoContextSummary string
	IntroductionText   string
	IntroductionAudio  []byte

	history []HistoryEntry
	state   TurnState

	// activeCancel aborts the TTS synthesis task backing the audio
	// currently (or about to be) playing. nil when nothing is in flight.
	activeCancel func()

	CreatedAt    time.Time
	LastActivity time.Time
}

func newSession(id, repoURL string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		RepoURL:      repoURL,
		state:        StateIdle,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// State returns the session's current turn state.
func (s *Session) State() TurnState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st TurnState) {
	s.mu.Lock()
	s.state = st
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

// SeedSystemEntry sets conversation_history[0] to the repo summary,
// replacing any existing system entry (analyze-repo may be called once
// per session, so there is never more than one to replace).
func (s *Session) seedSystemEntry(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := HistoryEntry{Role: "system", Content: content}
	if len(s.history) == 0 {
		s.history = []HistoryEntry{entry}
		return
	}
	s.history[0] = entry
}

// appendHistory adds a pair and drops the oldest non-system pair once the
// bound is exceeded: length <= N pairs (default 16), oldest dropped
// first; the system role entry stays fixed at index 0.
func (s *Session) appendHistory(entries ...HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, entries...)

	// Count pairs after the fixed system entry.
	nonSystem := len(s.history) - 1
	maxEntries := 1 + maxHistoryPairs*2
	if nonSystem <= maxHistoryPairs*2 {
		return
	}
	overflow := len(s.history) - maxEntries
	if overflow <= 0 {
		return
	}
	s.history = append(s.history[:1:1], s.history[1+overflow:]...)
}

// historySnapshot returns a copy of the current history for use in an LLM
// call, safe to read without holding the lock afterward.
func (s *Session) historySnapshot() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// beginSpeaking records the cancel func for an in-flight TTS/playback task
// so a later Interrupt call can abort it.
func (s *Session) beginSpeaking(cancel func()) {
	s.mu.Lock()
	s.state = StateSpeaking
	s.activeCancel = cancel
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) endSpeaking() {
	s.mu.Lock()
	if s.state == StateSpeaking {
		s.state = StateIdle
	}
	s.activeCancel = nil
	s.mu.Unlock()
}

// Interrupt implements the speaking->listening transition: it cancels
// the in-flight TTS/playback task (if any) and moves the session back to
// listening. The conversation history is untouched, since history is
// only updated after an LLM reply returns.
func (s *Session) Interrupt() {
	s.mu.Lock()
	cancel := s.activeCancel
	s.activeCancel = nil
	s.state = StateListening
	s.LastActivity = time.Now()
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
