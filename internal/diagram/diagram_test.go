package diagram

import (
	"context"
	"testing"

	"repocast/internal/contextbuilder"
	"repocast/internal/llm"
)

// scriptedProvider returns one canned response per call, in order.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
	if p.calls >= len(p.responses) {
		return "", nil
	}
	r := p.responses[p.calls]
	p.calls++
	return r, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, messages []llm.Message, params llm.Params) (<-chan llm.Delta, error) {
	return nil, nil
}

func TestPipelineGenerateHappyPath(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"the system has an api and a database",
		`[{"component": "api", "paths": ["main.go"], "role": "entry point"}]`,
		"```\ngraph TD\n  api\n  api --> api\n```",
	}}
	p := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n", READMEText: "a repo"}

	artifact, err := p.Generate(context.Background(), pc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(artifact.Nodes) != 1 || artifact.Nodes[0] != "api" {
		t.Errorf("Nodes = %v, want [api]", artifact.Nodes)
	}
	if len(artifact.Components) != 1 || artifact.Components[0].Component != "api" {
		t.Errorf("Components = %v", artifact.Components)
	}
}

func TestPipelineGenerateRepairsInvalidGraph(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"the system has an api",
		`[{"component": "api", "paths": ["main.go"], "role": "entry point"}]`,
		"graph TD\n  api --> ghost\n", // invalid: ghost undeclared
		"graph TD\n  api\n  api --> api\n", // repaired
	}}
	p := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n", READMEText: "a repo"}

	artifact, err := p.Generate(context.Background(), pc)
	if err != nil {
		t.Fatalf("unexpected error after repair: %v", err)
	}
	if len(artifact.Nodes) != 1 || artifact.Nodes[0] != "api" {
		t.Errorf("Nodes = %v, want [api] after repair", artifact.Nodes)
	}
}

func TestPipelineGenerateFailsWhenRepairAlsoInvalid(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"the system has an api",
		`[{"component": "api", "paths": ["main.go"], "role": "entry point"}]`,
		"graph TD\n  api --> ghost\n",
		"graph TD\n  api --> ghost\n", // still invalid
	}}
	p := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n", READMEText: "a repo"}

	if _, err := p.Generate(context.Background(), pc); err == nil {
		t.Fatal("expected an error when the repaired graph is still invalid")
	}
}

func TestStage2FileMappingRejectsPathsNotInTree(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`[{"component": "api", "paths": ["main.go", "missing.go"], "role": "entry point"}]`,
		`[{"component": "api", "paths": ["main.go"], "role": "entry point"}]`,
	}}
	p := New(provider, "test-model")
	pc := &contextbuilder.Context{TreeText: "main.go\n"}

	components, err := p.stage2FileMapping(context.Background(), pc, "an explanation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(components) != 1 || len(components[0].Paths) != 1 || components[0].Paths[0] != "main.go" {
		t.Errorf("components = %+v, want only main.go surviving re-prompt", components)
	}
}
