package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRenderBarFillsProportionally(t *testing.T) {
	if got := renderBar(0.5, 10); got != "[#####.....]" {
		t.Errorf("renderBar(0.5, 10) = %q", got)
	}
}

func TestRenderBarClampsOutOfRangePercent(t *testing.T) {
	if got := renderBar(-1, 4); got != "[....]" {
		t.Errorf("renderBar(-1, 4) = %q, want all empty", got)
	}
	if got := renderBar(2, 4); got != "[####]" {
		t.Errorf("renderBar(2, 4) = %q, want all filled", got)
	}
}

func TestFormatElapsedMinutesAndSeconds(t *testing.T) {
	if got := formatElapsed(125 * time.Second); got != "2:05" {
		t.Errorf("formatElapsed(125s) = %q, want 2:05", got)
	}
	if got := formatElapsed(9 * time.Second); got != "0:09" {
		t.Errorf("formatElapsed(9s) = %q, want 0:09", got)
	}
}

func TestBarRendererPlainModeWritesTimestampedLine(t *testing.T) {
	var buf bytes.Buffer
	r := &BarRenderer{out: &buf, start: time.Now(), isTTY: false}

	r.Handle(Event{Stage: StageScript, Message: "writing episode script"})

	if !strings.Contains(buf.String(), "writing episode script") {
		t.Errorf("output = %q, want the event message present", buf.String())
	}
}

func TestBarRendererFinishReportsOutputFile(t *testing.T) {
	var buf bytes.Buffer
	r := &BarRenderer{out: &buf, start: time.Now(), isTTY: false}
	r.Handle(Event{Stage: StageComplete, Message: "done", OutputFile: "episode.mp3", SizeMB: 3.2})

	r.Finish()

	out := buf.String()
	if !strings.Contains(out, "episode.mp3") || !strings.Contains(out, "3.2 MB") {
		t.Errorf("output = %q, want the output file and size reported", out)
	}
}

func TestBarRendererFinishReportsError(t *testing.T) {
	var buf bytes.Buffer
	r := &BarRenderer{out: &buf, start: time.Now(), isTTY: false}
	r.Handle(Event{Stage: StageTTS, Error: errTest("synthesis failed")})

	r.Finish()

	if !strings.Contains(buf.String(), "synthesis failed") {
		t.Errorf("output = %q, want the error message reported", buf.String())
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
