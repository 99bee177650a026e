package service

import "github.com/google/uuid"

type EventType string

const (
	EventLevelUp      EventType = "level_up"
	EventBadgeAwarded EventType = "badge_awarded"
)

// Event is a celebration pushed to connected family clients. ParentID routes
// the event to the right household.
type Event struct {
	Type     EventType      `json:"type"`
	ParentID uuid.UUID      `json:"-"`
	ChildID  uuid.UUID      `json:"child_id"`
	Payload  map[string]any `json:"payload,omitempty"`
}

type Notifier interface {
	Notify(e Event)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Event) {}

// NopNotifier is used when no event feed is attached.
func NopNotifier() Notifier { return noopNotifier{} }
