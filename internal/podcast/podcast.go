// Package podcast orchestrates the podcast pipeline end to end: it wires
// script synthesis, the TTS batcher, audio assembly, the artifact
// store/cache index, and streaming event emission. The
// single-builder-per-cache-key rule and the cache index's mutex-guarded
// process-wide state exist because this service serves concurrent clients
// over HTTP, unlike a single CLI invocation with no cache: a map from
// cache_key to a shared future/promise plus a waiter list.
package podcast

import (
	"time"

	"repocast/internal/script"
	"repocast/internal/tts"
)

// VoiceSettings is an alias kept local to this package's public API so
// callers don't need to import internal/tts just to build a request.
type VoiceSettings = tts.VoiceSettings

// Record is a cached podcast episode and its artifact metadata.
type Record struct {
	CacheKey        string    `json:"cache_key"`
	RepoURL         string    `json:"repo_url"`
	DurationMinutes int       `json:"duration_minutes"`
	VoiceSettings   VoiceSettings `json:"voice_settings"`
	ContentHash     string    `json:"content_hash"`
	AudioFile       string    `json:"audio_file"`
	ScriptFile      string    `json:"script_file"`
	MetadataFile    string    `json:"metadata_file"`
	CreatedAt       time.Time `json:"created_at"`
	LastAccessed    time.Time `json:"last_accessed"`
	AccessCount     int       `json:"access_count"`
	EstimatedCost   float64   `json:"estimated_cost"`
}

// Metadata is the on-disk metadata_file payload: per-turn TTS warnings plus
// the timing each segment landed at in the combined audio.
type Metadata struct {
	Warnings     []string       `json:"warnings,omitempty"`
	SegmentTimes []SegmentTimes `json:"segment_times"`
}

// SegmentTimes records one Audio Segment's placement in the combined file.
type SegmentTimes struct {
	TurnIndex int `json:"turn_index"`
	StartMs   int `json:"start_ms"`
	EndMs     int `json:"end_ms"`
}

// ScriptFilePayload is what script_file holds on disk — the script plus
// enough context to regenerate estimated_cost without rereading metadata.
type ScriptFilePayload struct {
	Turns []script.Turn `json:"turns"`
}
