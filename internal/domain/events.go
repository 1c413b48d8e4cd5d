// Package domain defines events for the event-driven architecture.
// Events decouple the playback pipeline from whoever displays its state.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventPlaybackStarted EventType = "playback.started"
	EventPlaybackStopped EventType = "playback.stopped"
	EventEngineStarved   EventType = "engine.starved"

	// Visualization events
	EventVisualizationUpdated EventType = "visualization.updated"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// PlaybackStartedEvent is published when the output starts pulling audio.
type PlaybackStartedEvent struct {
	baseEvent
	Format StreamFormat
}

// Type returns the event type.
func (e PlaybackStartedEvent) Type() EventType {
	return EventPlaybackStarted
}

// NewPlaybackStartedEvent creates a new PlaybackStartedEvent.
func NewPlaybackStartedEvent(format StreamFormat) PlaybackStartedEvent {
	return PlaybackStartedEvent{
		baseEvent: newBaseEvent(),
		Format:    format,
	}
}

// PlaybackStoppedEvent is published when the output stops pulling audio.
type PlaybackStoppedEvent struct {
	baseEvent
	Stats PipelineStats
}

// Type returns the event type.
func (e PlaybackStoppedEvent) Type() EventType {
	return EventPlaybackStopped
}

// NewPlaybackStoppedEvent creates a new PlaybackStoppedEvent.
func NewPlaybackStoppedEvent(stats PipelineStats) PlaybackStoppedEvent {
	return PlaybackStoppedEvent{
		baseEvent: newBaseEvent(),
		Stats:     stats,
	}
}

// EngineStarvedEvent is published when callbacks had to be padded with silence
// since the previous check.
type EngineStarvedEvent struct {
	baseEvent
	Starved uint64 // New starved callbacks since the last event
	Total   uint64 // Starved callbacks since playback started
}

// Type returns the event type.
func (e EngineStarvedEvent) Type() EventType {
	return EventEngineStarved
}

// NewEngineStarvedEvent creates a new EngineStarvedEvent.
func NewEngineStarvedEvent(starved, total uint64) EngineStarvedEvent {
	return EngineStarvedEvent{
		baseEvent: newBaseEvent(),
		Starved:   starved,
		Total:     total,
	}
}

// VisualizationUpdatedEvent is published every time the visualization reader takes a snapshot.
type VisualizationUpdatedEvent struct {
	baseEvent
	Frame VisualizationFrame
}

// Type returns the event type.
func (e VisualizationUpdatedEvent) Type() EventType {
	return EventVisualizationUpdated
}

// NewVisualizationUpdatedEvent creates a new VisualizationUpdatedEvent.
func NewVisualizationUpdatedEvent(frame VisualizationFrame) VisualizationUpdatedEvent {
	return VisualizationUpdatedEvent{
		baseEvent: newBaseEvent(),
		Frame:     frame,
	}
}
