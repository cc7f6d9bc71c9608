package llmutil

import "testing"

func TestStripScratchpad(t *testing.T) {
	in := "before <scratchpad>reasoning here\nmore reasoning</scratchpad> after"
	got := StripScratchpad(in)
	if got != "before  after" {
		t.Errorf("StripScratchpad() = %q", got)
	}
}

func TestStripMarkdownFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripMarkdownFences(in); got != want {
			t.Errorf("StripMarkdownFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	in := "Sure, here you go:\n{\"name\": \"svc\"}\nHope that helps!"
	want := `{"name": "svc"}`
	if got := ExtractJSONObject(in); got != want {
		t.Errorf("ExtractJSONObject() = %q, want %q", got, want)
	}
}

func TestExtractJSONArray(t *testing.T) {
	in := "Result: [1, 2, 3] (done)"
	want := "[1, 2, 3]"
	if got := ExtractJSONArray(in); got != want {
		t.Errorf("ExtractJSONArray() = %q, want %q", got, want)
	}
}

func TestCleanJSONFullPipeline(t *testing.T) {
	in := "<scratchpad>thinking...</scratchpad>\n```json\n{\"ok\": true}\n```"
	want := `{"ok": true}`
	if got := CleanJSON(in); got != want {
		t.Errorf("CleanJSON() = %q, want %q", got, want)
	}
}

func TestUnmarshalJSONObject(t *testing.T) {
	var out struct {
		Name string `json:"name"`
	}
	text := "```json\n{\"name\": \"repocast\"}\n```"
	if err := UnmarshalJSONObject(text, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Name != "repocast" {
		t.Errorf("Name = %q, want repocast", out.Name)
	}
}

func TestUnmarshalJSONObjectError(t *testing.T) {
	var out struct{}
	if err := UnmarshalJSONObject("not json at all", &out); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}

func TestUnmarshalJSONArray(t *testing.T) {
	var out []int
	if err := UnmarshalJSONArray("noise [1,2,3] noise", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 || out[2] != 3 {
		t.Errorf("out = %v", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate should not alter strings under the limit, got %q", got)
	}
	if got := Truncate("this is a long string", 7); got != "this is..." {
		t.Errorf("Truncate(long, 7) = %q", got)
	}
}
