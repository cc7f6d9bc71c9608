package voice

import "testing"

func TestNewSessionStartsIdle(t *testing.T) {
	s := newSession("sess-1", "https://github.com/owner/repo")
	if s.State() != StateIdle {
		t.Errorf("State() = %q, want idle", s.State())
	}
	if s.ID != "sess-1" || s.RepoURL != "https://github.com/owner/repo" {
		t.Errorf("unexpected session fields: %+v", s)
	}
}

func TestSeedSystemEntrySetsFirstEntry(t *testing.T) {
	s := newSession("sess-1", "repo")
	s.seedSystemEntry("this repo does X")

	hist := s.historySnapshot()
	if len(hist) != 1 || hist[0].Role != "system" || hist[0].Content != "this repo does X" {
		t.Errorf("history = %+v", hist)
	}
}

func TestSeedSystemEntryReplacesExisting(t *testing.T) {
	s := newSession("sess-1", "repo")
	s.seedSystemEntry("first summary")
	s.appendHistory(HistoryEntry{Role: "user", Content: "hi"}, HistoryEntry{Role: "assistant", Content: "hello"})
	s.seedSystemEntry("updated summary")

	hist := s.historySnapshot()
	if hist[0].Content != "updated summary" {
		t.Errorf("hist[0].Content = %q, want updated summary", hist[0].Content)
	}
	if len(hist) != 3 {
		t.Errorf("len(hist) = %d, want 3 (system entry replaced in place)", len(hist))
	}
}

func TestAppendHistoryDropsOldestPairsBeyondBound(t *testing.T) {
	s := newSession("sess-1", "repo")
	s.seedSystemEntry("summary")

	for i := 0; i < maxHistoryPairs+5; i++ {
		s.appendHistory(HistoryEntry{Role: "user", Content: "q"}, HistoryEntry{Role: "assistant", Content: "a"})
	}

	hist := s.historySnapshot()
	wantLen := 1 + maxHistoryPairs*2
	if len(hist) != wantLen {
		t.Fatalf("len(hist) = %d, want %d", len(hist), wantLen)
	}
	if hist[0].Role != "system" || hist[0].Content != "summary" {
		t.Errorf("system entry at index 0 should survive truncation, got %+v", hist[0])
	}
}

func TestAppendHistoryWithinBoundIsUntouched(t *testing.T) {
	s := newSession("sess-1", "repo")
	s.seedSystemEntry("summary")
	s.appendHistory(HistoryEntry{Role: "user", Content: "q1"}, HistoryEntry{Role: "assistant", Content: "a1"})

	hist := s.historySnapshot()
	if len(hist) != 3 {
		t.Errorf("len(hist) = %d, want 3", len(hist))
	}
}

func TestInterruptCancelsActiveTaskAndMovesToListening(t *testing.T) {
	s := newSession("sess-1", "repo")
	cancelled := false
	s.beginSpeaking(func() { cancelled = true })

	s.Interrupt()

	if !cancelled {
		t.Error("expected Interrupt to invoke the active cancel func")
	}
	if s.State() != StateListening {
		t.Errorf("State() = %q, want listening", s.State())
	}
}

func TestInterruptWithNoActiveTaskIsSafe(t *testing.T) {
	s := newSession("sess-1", "repo")
	s.Interrupt() // must not panic with no activeCancel set
	if s.State() != StateListening {
		t.Errorf("State() = %q, want listening", s.State())
	}
}

func TestEndSpeakingReturnsToIdle(t *testing.T) {
	s := newSession("sess-1", "repo")
	s.beginSpeaking(func() {})
	s.endSpeaking()
	if s.State() != StateIdle {
		t.Errorf("State() = %q, want idle", s.State())
	}
}
