// Package contextbuilder turns a Repository Snapshot into a token-budgeted
// Prompt Context. Token estimation uses pkoukk/tiktoken-go, so the budget
// is measured against the same tokenizer family the LLM providers actually
// use; when the tokenizer cannot be loaded it falls back to length/4.
package contextbuilder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"repocast/internal/ingest"
)

// Purpose influences file-selection weights.
type Purpose string

const (
	PurposeDiagram Purpose = "diagram"
	PurposePodcast Purpose = "podcast"
	PurposeQA      Purpose = "qa"
)

// Context is the token-budgeted prompt context handed to each LLM chain.
type Context struct {
	TreeText      string
	READMEText    string
	SelectedFiles map[string]string
	TokenEstimate int
}

const safetyFactor = 0.9

var encodingName = "cl100k_base"

func tokenCount(text string) int {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		// Fall back to a conservative 4-chars-per-token heuristic if the
		// tokenizer's vocabulary file isn't reachable in this environment.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// Build implements `build(snapshot, purpose) -> Context`.
func Build(snap *ingest.Snapshot, purpose Purpose, modelContextWindow int) *Context {
	budget := int(float64(modelContextWindow) * safetyFactor)

	weights := fileWeights(snap, purpose)
	tree := renderTree(snap.Tree)
	readme := snap.README
	files := selectByWeight(snap.SelectedFiles, weights)

	ctx := &Context{TreeText: tree, READMEText: readme, SelectedFiles: files}
	ctx.TokenEstimate = estimate(ctx)

	// Reduction order: (1) drop lowest-priority files, (2) truncate README
	// at a paragraph boundary, (3) replace tree subtrees with counts.
	orderedPaths := orderByWeight(weights, files)
	for ctx.TokenEstimate > budget && len(orderedPaths) > 0 {
		drop := orderedPaths[len(orderedPaths)-1]
		orderedPaths = orderedPaths[:len(orderedPaths)-1]
		delete(ctx.SelectedFiles, drop)
		ctx.TokenEstimate = estimate(ctx)
	}

	for ctx.TokenEstimate > budget && len(ctx.READMEText) > 0 {
		ctx.READMEText = truncateAtParagraph(ctx.READMEText, len(ctx.READMEText)/2)
		ctx.TokenEstimate = estimate(ctx)
		if len(ctx.READMEText) < 200 {
			break
		}
	}

	for ctx.TokenEstimate > budget {
		collapsed := collapseTree(ctx.TreeText)
		if collapsed == ctx.TreeText {
			break
		}
		ctx.TreeText = collapsed
		ctx.TokenEstimate = estimate(ctx)
	}

	return ctx
}

func estimate(ctx *Context) int {
	total := tokenCount(ctx.TreeText) + tokenCount(ctx.READMEText)
	for _, content := range ctx.SelectedFiles {
		total += tokenCount(content)
	}
	return total
}

// fileWeights assigns a priority score per selected file. Diagrams favor
// manifests and top-level structure; podcasts favor README/docs (scored
// implicitly by keeping README separate); QA favors the full tree plus
// referenced files (handled by the caller re-building with an extra entry).
func fileWeights(snap *ingest.Snapshot, purpose Purpose) map[string]int {
	weights := map[string]int{}
	for path := range snap.SelectedFiles {
		base := path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			base = path[idx+1:]
		}
		weight := 1
		isManifest := strings.HasSuffix(base, ".json") || strings.HasSuffix(base, ".toml") ||
			base == "go.mod" || base == "Gemfile" || strings.HasSuffix(base, ".gradle")

		switch purpose {
		case PurposeDiagram:
			if isManifest {
				weight = 10
			} else if !strings.Contains(path, "/") {
				weight = 6
			}
		case PurposePodcast:
			if strings.Contains(strings.ToLower(path), "doc") {
				weight = 8
			}
		case PurposeQA:
			weight = 5
		}
		weights[path] = weight
	}
	return weights
}

func selectByWeight(files map[string]string, weights map[string]int) map[string]string {
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	_ = weights
	return out
}

func orderByWeight(weights map[string]int, files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		wi, wj := weights[paths[i]], weights[paths[j]]
		if wi != wj {
			return wi > wj // highest priority first; we drop from the tail
		}
		return paths[i] < paths[j]
	})
	return paths
}

func renderTree(nodes []ingest.TreeNode) string {
	var b strings.Builder
	for _, n := range nodes {
		suffix := ""
		if n.Kind == ingest.NodeDir {
			suffix = "/"
		}
		fmt.Fprintf(&b, "%s%s\n", n.Path, suffix)
	}
	return b.String()
}

func truncateAtParagraph(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := text[:maxLen]
	if idx := strings.LastIndex(cut, "\n\n"); idx > 0 {
		return cut[:idx]
	}
	return cut
}

// collapseTree replaces the top-level directory with the most entries
// with a count summary,
// e.g. "src/ (... 47 files)", one collapse per call so the caller can
// re-measure the budget between iterations.
func collapseTree(treeText string) string {
	lines := strings.Split(strings.TrimRight(treeText, "\n"), "\n")
	dirCounts := map[string]int{}
	var dirs []string
	for _, line := range lines {
		if idx := strings.Index(line, "/"); idx >= 0 {
			dir := line[:idx+1]
			if _, ok := dirCounts[dir]; !ok {
				dirs = append(dirs, dir)
			}
			dirCounts[dir]++
		}
	}
	if len(dirs) == 0 {
		return treeText
	}
	sort.Slice(dirs, func(i, j int) bool { return dirCounts[dirs[i]] > dirCounts[dirs[j]] })
	target := dirs[0]

	var out []string
	replaced := false
	for _, line := range lines {
		if strings.HasPrefix(line, target) && !replaced {
			out = append(out, fmt.Sprintf("%s (… %d files)", target, dirCounts[target]))
			replaced = true
			continue
		}
		if strings.HasPrefix(line, target) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n") + "\n"
}
