package upload

import (
	"time"

	"github.com/google/uuid"

	"github.com/filedepot/filedepot/internal/logger"
)

// EventType classifies upload lifecycle events.
type EventType string

const (
	// EventStarted fires when a session is created.
	EventStarted EventType = "started"

	// EventProgress fires after each accepted chunk.
	EventProgress EventType = "progress"

	// EventCompleted fires when a session commits successfully.
	EventCompleted EventType = "completed"

	// EventFailed fires when a commit fails.
	EventFailed EventType = "failed"

	// EventCancelled fires on user or idle cancellation.
	EventCancelled EventType = "cancelled"
)

// Event is a progress or lifecycle notification published by the manager.
type Event struct {
	Type      EventType
	SessionID uuid.UUID
	FileName  string

	// FileID is set only on EventCompleted.
	FileID uuid.UUID

	UploadedBytes int64
	TotalSize     int64
	Percent       float64
	Time          time.Time
}

// publish delivers an event to the bounded queue without blocking. When
// the consumer lags behind the queue capacity the event is dropped;
// subscribers get progress hints, not a reliable log.
func (m *Manager) publish(ev Event) {
	select {
	case m.events <- ev:
	default:
		logger.Debug("upload event queue full, dropping %s event for %s", ev.Type, ev.SessionID)
	}
}

// Events returns the manager's event stream. The queue is bounded; slow
// consumers lose events rather than stalling uploads.
func (m *Manager) Events() <-chan Event {
	return m.events
}
