package script

import (
	"fmt"
	"strings"
)

// postProcess strips markup, enforces alternation (merging consecutive
// same-speaker turns), and enforces turn-count and word-count bounds.
// Returns the issues found so the caller can decide whether to
// repair-reprompt or accept.
func postProcess(raw []rawTurn, durationMinutes int) (*Script, []string) {
	turns := mergeConsecutiveSameSpeaker(raw)

	var issues []string

	if len(turns) == 0 {
		return nil, []string{"no turns produced"}
	}
	if turns[0].Speaker != SpeakerHost {
		issues = append(issues, "first turn must be speaker host")
	}
	for i := 1; i < len(turns); i++ {
		if turns[i].Speaker == turns[i-1].Speaker {
			issues = append(issues, fmt.Sprintf("turns %d and %d have the same speaker after merge", i-1, i))
		}
	}

	if len(turns) < minTurns || len(turns) > maxTurns {
		issues = append(issues, fmt.Sprintf("turn count %d outside [%d, %d]", len(turns), minTurns, maxTurns))
	}

	for i, t := range turns {
		words := wordCount(t.Text)
		if words < minWordsPerTurn || words > maxWordsPerTurn {
			issues = append(issues, fmt.Sprintf("turn %d has %d words, outside [%d, %d]", i, words, minWordsPerTurn, maxWordsPerTurn))
		}
	}

	script := &Script{Turns: turns}
	return script, issues
}

func mergeConsecutiveSameSpeaker(raw []rawTurn) []Turn {
	var turns []Turn
	for _, rt := range raw {
		speaker := normalizeSpeaker(rt.Speaker)
		text := strings.TrimSpace(stripMarkup(rt.Text))
		if text == "" {
			continue
		}
		if len(turns) > 0 && turns[len(turns)-1].Speaker == speaker {
			turns[len(turns)-1].Text = turns[len(turns)-1].Text + " " + text
			continue
		}
		turns = append(turns, Turn{Speaker: speaker, Text: text, Index: len(turns)})
	}
	for i := range turns {
		turns[i].Index = i
	}
	return turns
}

func normalizeSpeaker(s string) Speaker {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "expert", "sam", "analyst":
		return SpeakerExpert
	default:
		return SpeakerHost
	}
}

func stripMarkup(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")
	text = strings.ReplaceAll(text, "`", "")
	return text
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
