package podcast

import (
	"encoding/json"
	"testing"

	"repocast/internal/script"
)

func TestWordDurationMsScalesWithWordCount(t *testing.T) {
	got := wordDurationMs("one two three four five")
	want := 5 * 60000 / approxWordsPerMinute
	if got != want {
		t.Errorf("wordDurationMs() = %d, want %d", got, want)
	}
}

func TestWordDurationMsEmptyText(t *testing.T) {
	if got := wordDurationMs("   "); got != 0 {
		t.Errorf("wordDurationMs(empty) = %d, want 0", got)
	}
}

func TestEstimateCostScalesWithCharacterCount(t *testing.T) {
	sc := &script.Script{Turns: []script.Turn{
		{Text: "hello"},  // 5 chars
		{Text: "world!"}, // 6 chars
	}}
	want := float64(11) * estimatedCostPerChar
	if got := estimateCost(sc); got != want {
		t.Errorf("estimateCost() = %v, want %v", got, want)
	}
}

func TestEstimateCostEmptyScript(t *testing.T) {
	if got := estimateCost(&script.Script{}); got != 0 {
		t.Errorf("estimateCost(empty) = %v, want 0", got)
	}
}

func TestSegmentReadyEventWireShapeIsFlat(t *testing.T) {
	idx, total := 2, 20
	ev := Event{
		Type:          EventSegmentReady,
		Stage:         "tts",
		Progress:      0.5,
		SegmentIndex:  &idx,
		TotalSegments: &total,
		SegmentURL:    "/podcast-audio/abc#segment=2",
		DurationMs:    1200,
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, field := range []string{"segment_index", "total_segments", "segment_url", "duration_ms", "progress"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("segment_ready event JSON missing %q: %s", field, data)
		}
	}
	if _, ok := decoded["data"]; ok {
		t.Error("segment_ready event JSON should not nest fields under a data object")
	}
}

func TestCompleteEventWireShapeIsFlat(t *testing.T) {
	ev := Event{
		Type:      EventComplete,
		Progress:  1.0,
		CacheKey:  "abc123",
		AudioURL:  "/podcast-audio/abc123",
		ScriptURL: "/podcast-script/abc123",
	}
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, field := range []string{"cache_key", "audio_url", "script_url", "progress"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("complete event JSON missing %q: %s", field, data)
		}
	}
	if decoded["progress"] != 1.0 {
		t.Errorf("progress = %v, want 1.0", decoded["progress"])
	}
}

func TestSegmentProgressIsMonotonicAndBoundedByTTSRange(t *testing.T) {
	total := 4
	var prev float64 = progressTTSStart
	for i := 0; i < total; i++ {
		p := progressTTSStart + (progressTTSEnd-progressTTSStart)*float64(i+1)/float64(total)
		if p <= prev {
			t.Errorf("segment %d progress %v did not increase from %v", i, p, prev)
		}
		if p < progressTTSStart || p > progressTTSEnd {
			t.Errorf("segment %d progress %v out of [%v, %v]", i, p, progressTTSStart, progressTTSEnd)
		}
		prev = p
	}
	if prev != progressTTSEnd {
		t.Errorf("final segment progress = %v, want exactly progressTTSEnd %v", prev, progressTTSEnd)
	}
}
