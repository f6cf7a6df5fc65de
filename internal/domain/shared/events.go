// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Transcript events
	EventSemesterAdded   EventType = "transcript.semester_added"
	EventSemesterRenamed EventType = "transcript.semester_renamed"
	EventSemesterDeleted EventType = "transcript.semester_deleted"
	EventCourseAdded     EventType = "transcript.course_added"
	EventCourseUpdated   EventType = "transcript.course_updated"
	EventCourseDeleted   EventType = "transcript.course_deleted"
	EventTranscriptReset EventType = "transcript.reset"
	EventTranscriptRestored EventType = "transcript.restored"

	// Planner events
	EventPlannerChanged EventType = "planner.changed"
	EventPlannerReset   EventType = "planner.reset"

	// System events
	EventSnapshotSaved  EventType = "system.snapshot_saved"
	EventArchiveWritten EventType = "system.archive_written"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// Payload implements Event interface. Events without extra data use it as is.
func (e BaseEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Transcript Events
// ═══════════════════════════════════════════════════════════════════════════

// TranscriptChangedEvent is emitted after every successful mutation of the
// transcript store. The autosave handler subscribes to it.
type TranscriptChangedEvent struct {
	BaseEvent
	Operation    string  `json:"operation"`
	SemesterID   string  `json:"semester_id,omitempty"`
	CourseID     string  `json:"course_id,omitempty"`
	CGPA         float64 `json:"cgpa"`
	TotalCredits float64 `json:"total_credits"`
}

// Payload implements Event interface.
func (e TranscriptChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"operation":     e.Operation,
		"semester_id":   e.SemesterID,
		"course_id":     e.CourseID,
		"cgpa":          e.CGPA,
		"total_credits": e.TotalCredits,
	}
}

// NewTranscriptChangedEvent creates a transcript mutation event.
func NewTranscriptChangedEvent(eventType EventType, operation, semesterID, courseID string, cgpa, totalCredits float64) TranscriptChangedEvent {
	return TranscriptChangedEvent{
		BaseEvent:    NewBaseEvent(eventType, "transcript"),
		Operation:    operation,
		SemesterID:   semesterID,
		CourseID:     courseID,
		CGPA:         cgpa,
		TotalCredits: totalCredits,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// SnapshotSavedEvent is emitted after the transcript snapshot is persisted.
type SnapshotSavedEvent struct {
	BaseEvent
	SemesterCount int `json:"semester_count"`
	CourseCount   int `json:"course_count"`
}

// Payload implements Event interface.
func (e SnapshotSavedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"semester_count": e.SemesterCount,
		"course_count":   e.CourseCount,
	}
}

// ArchiveWrittenEvent is emitted after an archive record lands in storage.
type ArchiveWrittenEvent struct {
	BaseEvent
	CGPA         float64 `json:"cgpa"`
	TotalCredits float64 `json:"total_credits"`
}

// Payload implements Event interface.
func (e ArchiveWrittenEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"cgpa":          e.CGPA,
		"total_credits": e.TotalCredits,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
