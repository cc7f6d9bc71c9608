package podcast

// EventType names one step of the streaming progress protocol used by
// the generate-podcast-stream endpoint.
type EventType string

const (
	EventProcessing   EventType = "processing"
	EventSegmentReady EventType = "segment_ready"
	EventComplete     EventType = "complete"
	EventError        EventType = "error"
)

// Event is one Streaming Sender message. Stage is a short machine-readable
// label ("cache", "ingest", "script", "tts", "assembly", "storage",
// "done"); Message is the
// human-readable progress text; Progress is the overall build fraction in
// [0, 1] and increases monotonically across one build. The remaining
// fields are populated only by the event type that defines them:
// SegmentIndex/TotalSegments/SegmentURL/DurationMs on segment_ready,
// CacheKey/AudioURL/ScriptURL on complete.
type Event struct {
	Type     EventType `json:"type"`
	Stage    string    `json:"stage,omitempty"`
	Message  string    `json:"message,omitempty"`
	Progress float64   `json:"progress"`

	SegmentIndex  *int   `json:"segment_index,omitempty"`
	TotalSegments *int   `json:"total_segments,omitempty"`
	SegmentURL    string `json:"segment_url,omitempty"`
	DurationMs    int    `json:"duration_ms,omitempty"`

	CacheKey  string `json:"cache_key,omitempty"`
	AudioURL  string `json:"audio_url,omitempty"`
	ScriptURL string `json:"script_url,omitempty"`
}

// Sender delivers Events to whatever transport is driving a build —
// typically an SSE response writer, but a no-op Sender is used for
// synchronous (non-streaming) requests.
type Sender interface {
	Send(Event)
}

// NullSender discards every event. Used when a caller doesn't need
// progress updates (e.g. the synchronous /generate-podcast endpoint).
type NullSender struct{}

func (NullSender) Send(Event) {}

// ChannelSender delivers events to a buffered channel, closed when the
// build finishes. The HTTP layer ranges over Events to write SSE frames.
type ChannelSender struct {
	Events chan Event
}

func NewChannelSender(buffer int) *ChannelSender {
	return &ChannelSender{Events: make(chan Event, buffer)}
}

func (c *ChannelSender) Send(e Event) {
	c.Events <- e
}

func (c *ChannelSender) Close() {
	close(c.Events)
}
