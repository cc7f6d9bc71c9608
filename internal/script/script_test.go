package script

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"repocast/internal/contextbuilder"
	"repocast/internal/llm"
)

type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
	if p.calls >= len(p.responses) {
		return "", fmt.Errorf("no more scripted responses")
	}
	r := p.responses[p.calls]
	p.calls++
	return r, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, messages []llm.Message, params llm.Params) (<-chan llm.Delta, error) {
	return nil, nil
}

func turnsJSON(n int) string {
	turns := validTurns(n)
	b, _ := json.Marshal(turns)
	return string(b)
}

func TestSynthesizerGenerateAcceptsFirstAttempt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{turnsJSON(minTurns)}}
	s := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n", READMEText: "a repo"}

	script, err := s.Generate(context.Background(), pc, 5, "casual")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Turns) != minTurns {
		t.Errorf("len(Turns) = %d, want %d", len(script.Turns), minTurns)
	}
}

func TestSynthesizerGenerateRepairsOnSecondAttempt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		turnsJSON(2),         // too few turns, triggers repair
		turnsJSON(minTurns), // repaired
	}}
	s := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n", READMEText: "a repo"}

	script, err := s.Generate(context.Background(), pc, 5, "casual")
	if err != nil {
		t.Fatalf("unexpected error after repair: %v", err)
	}
	if len(script.Turns) != minTurns {
		t.Errorf("len(Turns) = %d, want %d after repair", len(script.Turns), minTurns)
	}
}

func TestSynthesizerGenerateFailsWhenRepairStillInvalid(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		turnsJSON(2),
		turnsJSON(2),
	}}
	s := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n", READMEText: "a repo"}

	if _, err := s.Generate(context.Background(), pc, 5, "casual"); err == nil {
		t.Fatal("expected an error when the repaired script is still invalid")
	}
}

func TestSynthesizerGenerateRejectsUnparsableResponse(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"not json at all"}}
	s := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n"}

	if _, err := s.Generate(context.Background(), pc, 5, "casual"); err == nil {
		t.Fatal("expected an error for an unparsable script response")
	}
}

func TestSaveAndLoadScriptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "script.json")

	original := &Script{Turns: []Turn{
		{Speaker: SpeakerHost, Text: "welcome", Index: 0},
		{Speaker: SpeakerExpert, Text: "thanks for having me", Index: 1},
	}}

	if err := SaveScript(original, path); err != nil {
		t.Fatalf("SaveScript: %v", err)
	}
	loaded, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if len(loaded.Turns) != 2 || loaded.Turns[1].Text != "thanks for having me" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestLoadScriptRejectsEmptyScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	if err := SaveScript(&Script{}, path); err != nil {
		t.Fatalf("SaveScript: %v", err)
	}
	if _, err := LoadScript(path); err == nil {
		t.Fatal("expected an error loading a script with no turns")
	}
}

func TestBuildUserPromptIncludesRepairIssues(t *testing.T) {
	pc := &contextbuilder.Context{TreeText: "main.go\n", READMEText: "a repo"}
	prompt := buildUserPrompt(pc, 5, "technical", []string{"turn count too low"})
	if !strings.Contains(prompt, "turn count too low") {
		t.Errorf("prompt missing repair issue text: %q", prompt)
	}
}
