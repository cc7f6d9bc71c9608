// Package diagram implements the three-stage chain that turns a Prompt
// Context into a declarative flowchart Diagram Artifact: a System Design
// Explanation pass, a File Mapping pass, and a Graph Synthesis pass. The
// repair-then-fail shape of each stage mirrors internal/script's Generate,
// the one-repair-round LLM post-processing loop used elsewhere in this
// codebase.
package diagram

import (
	"context"
	"fmt"

	"repocast/internal/apierr"
	"repocast/internal/contextbuilder"
	"repocast/internal/llm"
	"repocast/internal/llmutil"
)

// Artifact is the generated diagram and its supporting metadata.
type Artifact struct {
	GraphText  string
	Nodes      []string
	Components []Component
}

// Component is one entry of the Stage 2 file-mapping output.
type Component struct {
	Component string   `json:"component"`
	Paths     []string `json:"paths"`
	Role      string   `json:"role"`
}

const (
	explanationTokenCap = 1200
	stage1Temperature    = 0.3
	deterministicTemp    = 0.0
)

// Pipeline runs the three stages against a shared LLM provider.
type Pipeline struct {
	Provider llm.Provider
	ModelID  string
}

func New(provider llm.Provider, modelID string) *Pipeline {
	return &Pipeline{Provider: provider, ModelID: modelID}
}

// Generate implements the full diagram chain for a `purpose=diagram`
// Prompt Context.
func (p *Pipeline) Generate(ctx context.Context, promptCtx *contextbuilder.Context) (*Artifact, error) {
	explanation, err := p.stage1Explanation(ctx, promptCtx)
	if err != nil {
		return nil, err
	}

	components, err := p.stage2FileMapping(ctx, promptCtx, explanation)
	if err != nil {
		return nil, err
	}

	graphText, err := p.stage3GraphSynthesis(ctx, components)
	if err != nil {
		return nil, err
	}

	nodes, err := parseAndValidate(graphText)
	if err != nil {
		repaired, rerr := p.repairGraph(ctx, graphText, err)
		if rerr != nil {
			return nil, apierr.New(apierr.KindValidationFailed, "diagram", "graph synthesis failed after repair", rerr)
		}
		nodes2, verr := parseAndValidate(repaired)
		if verr != nil {
			return nil, apierr.New(apierr.KindValidationFailed, "diagram", "graph still invalid after repair", verr)
		}
		return &Artifact{GraphText: withStylePalette(repaired), Nodes: nodes2, Components: components}, nil
	}

	return &Artifact{GraphText: withStylePalette(graphText), Nodes: nodes, Components: components}, nil
}

func (p *Pipeline) stage1Explanation(ctx context.Context, pc *contextbuilder.Context) (string, error) {
	prompt := fmt.Sprintf(
		"You are a software architect. Given this repository's file tree and README, "+
			"write prose describing its architecture: components, data flow, and external "+
			"dependencies. Be concrete, cite real paths. Keep it under %d tokens.\n\n"+
			"FILE TREE:\n%s\n\nREADME:\n%s\n",
		explanationTokenCap, pc.TreeText, pc.READMEText)

	text, err := p.Provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Params{
		ModelID:         p.ModelID,
		Temperature:     stage1Temperature,
		MaxOutputTokens: explanationTokenCap + 200,
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (p *Pipeline) stage2FileMapping(ctx context.Context, pc *contextbuilder.Context, explanation string) ([]Component, error) {
	components, rejected, err := p.requestFileMapping(ctx, pc, explanation, nil)
	if err != nil {
		return nil, err
	}
	if len(rejected) == 0 {
		return components, nil
	}
	// Re-prompt once with the set of rejected paths.
	components, rejected, err = p.requestFileMapping(ctx, pc, explanation, rejected)
	if err != nil {
		return nil, err
	}
	return components, nil
}

func (p *Pipeline) requestFileMapping(ctx context.Context, pc *contextbuilder.Context, explanation string, rejectedPrev []string) ([]Component, []string, error) {
	extra := ""
	if len(rejectedPrev) > 0 {
		extra = fmt.Sprintf("\n\nThe following paths you previously used do not exist in the tree; do not use them again: %v\n", rejectedPrev)
	}
	prompt := fmt.Sprintf(
		"Given this architecture description and file tree, bind each abstract component "+
			"to concrete paths. Respond with a JSON array of objects: "+
			"{\"component\": string, \"paths\": [string], \"role\": string}. "+
			"Only use paths that literally appear in the tree below.%s\n\n"+
			"DESCRIPTION:\n%s\n\nFILE TREE:\n%s\n",
		extra, explanation, pc.TreeText)

	text, err := p.Provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Params{
		ModelID:         p.ModelID,
		Temperature:     deterministicTemp,
		MaxOutputTokens: 2000,
	})
	if err != nil {
		return nil, nil, err
	}

	var components []Component
	if err := llmutil.UnmarshalJSONArray(text, &components); err != nil {
		return nil, nil, apierr.New(apierr.KindValidationFailed, "diagram", "file mapping did not parse", err)
	}

	validPaths := treePaths(pc.TreeText)
	var rejected []string
	filtered := make([]Component, 0, len(components))
	for _, c := range components {
		var keptPaths []string
		for _, path := range c.Paths {
			if validPaths[path] {
				keptPaths = append(keptPaths, path)
			} else {
				rejected = append(rejected, path)
			}
		}
		c.Paths = keptPaths
		filtered = append(filtered, c)
	}
	return filtered, rejected, nil
}

func (p *Pipeline) stage3GraphSynthesis(ctx context.Context, components []Component) (string, error) {
	prompt := fmt.Sprintf(
		"Emit a declarative flowchart describing this architecture. Use this grammar: "+
			"`graph TD`, lines of the form `nodeId[\"Label\"]`, edges `nodeA --> nodeB` "+
			"or `nodeA -- label --> nodeB`, subgraphs `subgraph name ... end`, and style "+
			"classes for \"internal component\", \"external service\", \"storage\", and "+
			"\"entry point\" applied via `class nodeId className`. Every edge endpoint must "+
			"be a declared node id.\n\nCOMPONENTS:\n%+v\n",
		components)

	text, err := p.Provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Params{
		ModelID:         p.ModelID,
		Temperature:     deterministicTemp,
		MaxOutputTokens: 3000,
	})
	if err != nil {
		return "", err
	}
	return llmutil.StripMarkdownFences(text), nil
}

func (p *Pipeline) repairGraph(ctx context.Context, badGraph string, parseErr error) (string, error) {
	prompt := fmt.Sprintf(
		"This flowchart failed to parse with error: %s\n\nFix it and emit only the "+
			"corrected flowchart text, same grammar as before:\n\n%s\n",
		parseErr, badGraph)

	text, err := p.Provider.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, llm.Params{
		ModelID:         p.ModelID,
		Temperature:     deterministicTemp,
		MaxOutputTokens: 3000,
	})
	if err != nil {
		return "", err
	}
	return llmutil.StripMarkdownFences(text), nil
}
