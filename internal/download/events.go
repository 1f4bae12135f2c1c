package download

import "github.com/handiism/comic-downloader/internal/model"

// Event is a notification emitted by the Manager.
//
// The concrete types are TaskCreateEvent, TaskUpdateEvent, SpeedEvent,
// RiskControlEvent and SleepingEvent. Each can be passed straight to a
// Bubble Tea program as a message.
type Event interface {
	// EventType returns a stable name for the event, used on the wire.
	EventType() string
}

// EventSink receives events. It is called from task goroutines and must not block.
type EventSink func(Event)

// TaskCreateEvent is emitted once when a task is registered.
type TaskCreateEvent struct {
	Comic      *model.Comic      `json:"comic"`
	Chapter    model.ChapterInfo `json:"chapter"`
	State      State             `json:"state"`
	Downloaded int64             `json:"downloaded"`
	Total      int64             `json:"total"`
}

// TaskUpdateEvent is emitted on every state change and every finished page.
type TaskUpdateEvent struct {
	ChapterUUID string `json:"chapter_uuid"`
	State       State  `json:"state"`
	Downloaded  int64  `json:"downloaded"`
	Total       int64  `json:"total"`
	Err         string `json:"error,omitempty"`
}

// SpeedEvent is emitted once per meter interval with the bytes received
// during that interval.
type SpeedEvent struct {
	Speed       string `json:"speed"`
	BytesPerSec int64  `json:"bytes_per_sec"`
}

// RiskControlEvent counts down the cooldown after a risk-control response.
type RiskControlEvent struct {
	ChapterUUID string `json:"chapter_uuid"`
	RetryAfter  int    `json:"retry_after"`
}

// SleepingEvent counts down the delay after a chapter is committed.
type SleepingEvent struct {
	ChapterUUID string `json:"chapter_uuid"`
	Remaining   int    `json:"remaining_sec"`
}

func (TaskCreateEvent) EventType() string  { return "task_create" }
func (TaskUpdateEvent) EventType() string  { return "task_update" }
func (SpeedEvent) EventType() string       { return "speed" }
func (RiskControlEvent) EventType() string { return "risk_control" }
func (SleepingEvent) EventType() string    { return "sleeping" }
