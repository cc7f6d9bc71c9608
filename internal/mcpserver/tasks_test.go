package mcpserver

import (
	"testing"

	"repocast/internal/podcast"
)

func TestMapStageKnownStages(t *testing.T) {
	cases := map[string]JobStatus{
		"ingest":  JobStatusIngesting,
		"script":  JobStatusScripting,
		"tts":     JobStatusSynthesizing,
		"assembly": JobStatusAssembling,
		"storage": JobStatusAssembling,
		"cache":   JobStatusComplete,
		"done":    JobStatusComplete,
	}
	for stage, want := range cases {
		if got := mapStage(stage); got != want {
			t.Errorf("mapStage(%q) = %q, want %q", stage, got, want)
		}
	}
}

func TestMapStageUnknownStageDefaultsToSubmitted(t *testing.T) {
	if got := mapStage("bogus"); got != JobStatusSubmitted {
		t.Errorf("mapStage(bogus) = %q, want submitted", got)
	}
}

func TestTaskSenderUpdatesStoreOnEachEvent(t *testing.T) {
	store := NewStore()
	store.CreateTask("task-1", "repo")
	sender := newTaskSender(store, "task-1")

	sender.Send(podcast.Event{Stage: "script", Message: "writing script"})

	got, _ := store.GetTask("task-1")
	if got.Status != JobStatusScripting || got.StageMessage != "writing script" {
		t.Errorf("got = %+v", got)
	}
}
