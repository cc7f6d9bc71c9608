package mcpserver

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the state of a podcast generation task started
// through the generate_podcast tool.
type JobStatus string

const (
	JobStatusSubmitted    JobStatus = "submitted"
	JobStatusIngesting    JobStatus = "ingesting"
	JobStatusScripting    JobStatus = "scripting"
	JobStatusSynthesizing JobStatus = "synthesizing"
	JobStatusAssembling   JobStatus = "assembling"
	JobStatusComplete     JobStatus = "complete"
	JobStatusFailed       JobStatus = "failed"
)

// TaskItem tracks one generate_podcast invocation from submission through
// completion. Unlike a DynamoDB-backed PodcastItem, this never needs to
// survive a process restart: the durable artifact is the podcast record
// in the podcast package's on-disk cache index, keyed by cache_key, not
// by this task's ID. TaskItem only exists to give a poll-friendly handle
// (podcast_id) to an MCP client while a build is still running.
type TaskItem struct {
	TaskID       string
	RepoURL      string
	Status       JobStatus
	StageMessage string
	CreatedAt    string

	CacheKey   string
	AudioURL   string
	ScriptURL  string
	Warnings   []string
	ErrorMessage string
}

// Store tracks in-flight and finished generate_podcast tasks in memory.
type Store struct {
	mu    sync.Mutex
	tasks map[string]*TaskItem
}

// NewStore creates an empty in-memory task store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*TaskItem)}
}

// NewTaskID generates a ULID for a new task. ulid.Make uses monotonic
// entropy, so IDs made within the same millisecond still sort in creation
// order.
func NewTaskID() (string, error) {
	return ulid.Make().String(), nil
}

func (s *Store) CreateTask(taskID, repoURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[taskID] = &TaskItem{
		TaskID:    taskID,
		RepoURL:   repoURL,
		Status:    JobStatusSubmitted,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func (s *Store) UpdateProgress(taskID string, status JobStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return
	}
	t.Status = status
	t.StageMessage = message
}

func (s *Store) CompleteTask(taskID, cacheKey, audioURL, scriptURL string, warnings []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return
	}
	t.Status = JobStatusComplete
	t.StageMessage = "Complete"
	t.CacheKey = cacheKey
	t.AudioURL = audioURL
	t.ScriptURL = scriptURL
	t.Warnings = warnings
}

func (s *Store) FailTask(taskID, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return
	}
	t.Status = JobStatusFailed
	t.StageMessage = "Failed: " + errMsg
	t.ErrorMessage = errMsg
}

// GetTask returns a snapshot copy of a task's current state.
func (s *Store) GetTask(taskID string) (TaskItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return TaskItem{}, false
	}
	return *t, true
}

// ListTasks returns all tracked tasks, newest first.
func (s *Store) ListTasks(limit int) []TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]TaskItem, 0, len(s.tasks))
	for _, t := range s.tasks {
		items = append(items, *t)
	}
	// newest-first by CreatedAt (ULIDs are lexicographically time-ordered,
	// so sorting by TaskID descending gives the same order)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[j].TaskID > items[i].TaskID {
				items[i], items[j] = items[j], items[i]
			}
		}
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
