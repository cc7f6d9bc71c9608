// Package script implements script synthesis: prompting the LLM for a
// two-speaker podcast script from a podcast-purpose prompt context, then
// enforcing the turn schema with one repair pass. The alternation/
// word-count checks live in postProcess and the one-repair-round shape in
// Synthesizer.Generate, over a fixed host/expert role pair.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"repocast/internal/apierr"
	"repocast/internal/contextbuilder"
	"repocast/internal/llm"
	"repocast/internal/llmutil"
)

// Speaker is one of the two fixed conversation roles.
type Speaker string

const (
	SpeakerHost   Speaker = "host"
	SpeakerExpert Speaker = "expert"
)

// Turn is one utterance of a Podcast Script.
type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
	Index   int     `json:"index"`
	StartMs int     `json:"start_ms,omitempty"`
	EndMs   int     `json:"end_ms,omitempty"`
}

// Script is the ordered sequence of turns.
type Script struct {
	Turns []Turn `json:"turns"`
}

const (
	minTurns        = 12
	maxTurns        = 60
	minWordsPerTurn = 8
	maxWordsPerTurn = 80
	wordsPerMinute  = 150
)

// Synthesizer generates and validates Podcast Scripts.
type Synthesizer struct {
	Provider llm.Provider
	ModelID  string
}

func New(provider llm.Provider, modelID string) *Synthesizer {
	return &Synthesizer{Provider: provider, ModelID: modelID}
}

// Generate runs the full chain: prompt, parse, validate, and — on a
// constraint failure — one repair re-prompt before raising ValidationFailed.
func (s *Synthesizer) Generate(ctx context.Context, pc *contextbuilder.Context, targetDurationMinutes int, tone string) (*Script, error) {
	raw, err := s.request(ctx, pc, targetDurationMinutes, tone, nil)
	if err != nil {
		return nil, err
	}

	script, issues := postProcess(raw, targetDurationMinutes)
	if len(issues) == 0 {
		return script, nil
	}

	raw, err = s.request(ctx, pc, targetDurationMinutes, tone, issues)
	if err != nil {
		return nil, err
	}
	script, issues = postProcess(raw, targetDurationMinutes)
	if len(issues) != 0 {
		return nil, apierr.New(apierr.KindValidationFailed, "script", fmt.Sprintf("script invalid after repair: %v", issues), nil)
	}
	return script, nil
}

func (s *Synthesizer) request(ctx context.Context, pc *contextbuilder.Context, durationMinutes int, tone string, repairIssues []string) ([]rawTurn, error) {
	prompt := buildUserPrompt(pc, durationMinutes, tone, repairIssues)

	text, err := s.Provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Params{
		ModelID:         s.ModelID,
		Temperature:     0.7,
		MaxOutputTokens: 4000,
		System:          systemPrompt,
	})
	if err != nil {
		return nil, err
	}

	var turns []rawTurn
	if err := llmutil.UnmarshalJSONArray(text, &turns); err != nil {
		return nil, apierr.New(apierr.KindValidationFailed, "script", "script did not parse as JSON array", err)
	}
	return turns, nil
}

type rawTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func SaveScript(s *Script, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write script to %s: %w", path, err)
	}
	return nil
}

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script from %s: %w", path, err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script from %s: %w", path, err)
	}
	if len(s.Turns) == 0 {
		return nil, fmt.Errorf("script %s has no turns", path)
	}
	return &s, nil
}
