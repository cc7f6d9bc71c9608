package diagram

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nodeDeclRe = regexp.MustCompile(`^\s*([A-Za-z0-9_]+)(\[.*\]|\(.*\)|\{.*\})?\s*$`)
	edgeRe     = regexp.MustCompile(`([A-Za-z0-9_]+)\s*(?:--[^->]*-->|-->)\s*([A-Za-z0-9_]+)`)
	pathInTree = regexp.MustCompile(`^[^\s]+$`)
)

var stylePalette = []string{
	"classDef internalComponent fill:#e8f0fe,stroke:#4285f4",
	"classDef externalService fill:#fef7e0,stroke:#f9ab00",
	"classDef storage fill:#e6f4ea,stroke:#34a853",
	"classDef entryPoint fill:#fce8e6,stroke:#ea4335",
}

// parseAndValidate is the Stage-3 post-processor: extract declared node
// ids in order and verify every edge endpoint is declared. It does not
// rewrite the graph text, so duplicate edges are left in place; the style
// palette is added afterwards by Generate via withStylePalette.
func parseAndValidate(graphText string) ([]string, error) {
	declared := map[string]bool{}
	var order []string

	lines := strings.Split(graphText, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "graph ") ||
			strings.HasPrefix(trimmed, "subgraph") || trimmed == "end" ||
			strings.HasPrefix(trimmed, "class ") || strings.HasPrefix(trimmed, "classDef") {
			continue
		}
		if m := edgeRe.FindStringSubmatch(trimmed); m != nil {
			continue
		}
		if m := nodeDeclRe.FindStringSubmatch(trimmed); m != nil {
			id := m[1]
			if !declared[id] {
				declared[id] = true
				order = append(order, id)
			}
		}
	}

	if len(declared) == 0 {
		return nil, fmt.Errorf("no node declarations found in graph text")
	}

	seenEdges := map[string]bool{}
	var undeclaredRefs []string
	for _, line := range lines {
		matches := edgeRe.FindAllStringSubmatch(line, -1)
		for _, m := range matches {
			from, to := m[1], m[2]
			if !declared[from] {
				undeclaredRefs = append(undeclaredRefs, from)
			}
			if !declared[to] {
				undeclaredRefs = append(undeclaredRefs, to)
			}
			key := from + "->" + to
			seenEdges[key] = true
		}
	}

	if len(undeclaredRefs) > 0 {
		return nil, fmt.Errorf("edges reference undeclared nodes: %v", undeclaredRefs)
	}

	return order, nil
}

func treePaths(treeText string) map[string]bool {
	paths := map[string]bool{}
	for _, line := range strings.Split(treeText, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "/"))
		if line != "" && pathInTree.MatchString(line) {
			paths[line] = true
		}
	}
	return paths
}

// withStylePalette appends the standard class definitions if the graph
// doesn't already declare them, so every diagram gets a consistent palette
// for "internal component", "external service", "storage", "entry point".
func withStylePalette(graphText string) string {
	for _, def := range stylePalette {
		if !strings.Contains(graphText, strings.Fields(def)[1]) {
			graphText += "\n" + def
		}
	}
	return graphText
}
