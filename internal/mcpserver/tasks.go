package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"repocast/internal/podcast"
)

// GenerateRequest holds parameters for a podcast generation task.
type GenerateRequest struct {
	RepoURL         string
	DurationMinutes int
	Tone            string
	VoiceSettings   podcast.VoiceSettings
}

// TaskManager runs podcast.Builder.GetOrBuild in a goroutine per task and
// mirrors its event stream into the Store, so generate_podcast can return
// immediately and get_podcast can poll for progress — the same
// submit-then-poll shape a DynamoDB-backed task manager would use, here
// backed by the podcast package's own single-flight Coordinator instead
// of a hand-rolled cancel-map.
type TaskManager struct {
	builder *podcast.Builder
	store   *Store
	log     *slog.Logger

	mu       sync.Mutex
	maxTasks int
	running  int
}

// NewTaskManager creates a task manager.
func NewTaskManager(builder *podcast.Builder, store *Store, maxTasks int, logger *slog.Logger) *TaskManager {
	if maxTasks <= 0 {
		maxTasks = 5
	}
	return &TaskManager{builder: builder, store: store, log: logger, maxTasks: maxTasks}
}

// StartTask starts a podcast build in a goroutine and returns its task ID
// immediately.
func (tm *TaskManager) StartTask(ctx context.Context, req GenerateRequest) (string, error) {
	id, err := NewTaskID()
	if err != nil {
		return "", err
	}

	tm.mu.Lock()
	if tm.running >= tm.maxTasks {
		tm.mu.Unlock()
		return "", fmt.Errorf("max concurrent tasks reached (%d)", tm.maxTasks)
	}
	tm.running++
	tm.mu.Unlock()

	tm.store.CreateTask(id, req.RepoURL)

	// Detach from the request context — this goroutine must outlive the MCP
	// tool call that started it.
	go tm.runBuild(context.Background(), id, req)

	return id, nil
}

func (tm *TaskManager) runBuild(ctx context.Context, taskID string, req GenerateRequest) {
	defer func() {
		tm.mu.Lock()
		tm.running--
		tm.mu.Unlock()
	}()

	log := tm.log.With("task_id", taskID)
	sender := newTaskSender(tm.store, taskID)

	rec, err := tm.builder.GetOrBuild(ctx, req.RepoURL, req.DurationMinutes, req.Tone, req.VoiceSettings, sender)
	if err != nil {
		log.Error("podcast build failed", "error", err)
		tm.store.FailTask(taskID, err.Error())
		return
	}

	log.Info("podcast build complete", "cache_key", rec.CacheKey)
	tm.store.CompleteTask(taskID, rec.CacheKey, "/podcast-audio/"+rec.CacheKey, "/podcast-script/"+rec.CacheKey, rec.Warnings)
}

// taskSender adapts podcast.Event notifications onto the Store's
// JobStatus vocabulary, so get_podcast sees the same submitted -> ingesting
// -> scripting -> synthesizing -> assembling -> complete progression the
// teacher's DynamoDB job records exposed.
type taskSender struct {
	store  *Store
	taskID string
}

func newTaskSender(store *Store, taskID string) *taskSender {
	return &taskSender{store: store, taskID: taskID}
}

func (s *taskSender) Send(ev podcast.Event) {
	status := mapStage(ev.Stage)
	s.store.UpdateProgress(s.taskID, status, ev.Message)
}

func mapStage(stage string) JobStatus {
	switch stage {
	case "ingest":
		return JobStatusIngesting
	case "script":
		return JobStatusScripting
	case "tts":
		return JobStatusSynthesizing
	case "assembly", "storage":
		return JobStatusAssembling
	case "cache", "done":
		return JobStatusComplete
	default:
		return JobStatusSubmitted
	}
}
