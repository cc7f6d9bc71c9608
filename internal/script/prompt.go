package script

import (
	"fmt"
	"strings"

	"repocast/internal/contextbuilder"
)

const systemPrompt = `You are a podcast script writer. You create engaging two-speaker conversations explaining a software repository.

SPEAKERS:
- host: Drives the conversation. Introduces the repository, provides context, makes connections between ideas. Warm, inviting, enthusiastic.
- expert: Answers and adds depth. Explains implementation detail, flags tradeoffs, brings up edge cases. More measured and precise.

RULES:
1. Base everything on the provided file tree, README, and source excerpts — do not invent facts not supported by them.
2. Turns must strictly alternate speaker, starting with host.
3. Each turn is 8-80 words of natural spoken language — no markdown, no bullet points.
4. Include an introduction, a walk through the architecture, and a close.

OUTPUT FORMAT:
Return ONLY a JSON array of turns, no markdown fences, no commentary:
[{"speaker": "host", "text": "..."}, {"speaker": "expert", "text": "..."}]`

func buildUserPrompt(pc *contextbuilder.Context, durationMinutes int, tone string, repairIssues []string) string {
	targetWords := durationMinutes * wordsPerMinute
	targetTurns := targetWords / 35 // ~35 words/turn average

	var b strings.Builder
	fmt.Fprintf(&b, "<scratchpad>\nPlan a %d-minute conversation (~%d words, ~%d turns) covering this repository's architecture.\n</scratchpad>\n\n", durationMinutes, targetWords, targetTurns)
	fmt.Fprintf(&b, "TONE: %s\n\n", toneDescription(tone))
	fmt.Fprintf(&b, "TARGET: approximately %d turns, alternating host/expert starting with host.\n\n", targetTurns)

	if len(repairIssues) > 0 {
		fmt.Fprintf(&b, "The previous attempt had these problems — fix them: %s\n\n", strings.Join(repairIssues, "; "))
	}

	fmt.Fprintf(&b, "FILE TREE:\n%s\n\nREADME:\n%s\n", pc.TreeText, pc.READMEText)
	for path, content := range pc.SelectedFiles {
		fmt.Fprintf(&b, "\nFILE %s:\n%s\n", path, content)
	}
	return b.String()
}

func toneDescription(tone string) string {
	switch tone {
	case "technical":
		return "Technical and precise. Use domain-specific terminology and assume a developer audience."
	case "educational":
		return "Educational and accessible. Explain concepts clearly, build understanding progressively."
	default:
		return "Casual and conversational. Keep it light and engaging."
	}
}
