package kafka

import (
	"time"

	"github.com/tair/checkin-ledger/internal/checkin/domain"
)

// CheckInRequestedEvent asks the service to check a guest in, typically from
// a self-service kiosk.
type CheckInRequestedEvent struct {
	MessageID      string                 `json:"message_id"`
	EventType      string                 `json:"event_type"`
	EventID        uint                   `json:"event_id"`
	GuestID        uint                   `json:"guest_id"`
	Actor          string                 `json:"actor"`
	GiftSelections []domain.GiftSelection `json:"gift_selections,omitempty"`
	Notes          string                 `json:"notes,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
}

// ActivityRecordedEvent mirrors one committed activity log entry
type ActivityRecordedEvent struct {
	MessageID    string                 `json:"message_id"`
	EventType    string                 `json:"event_type"`
	ActivityID   uint                   `json:"activity_id"`
	ActivityType domain.ActivityType    `json:"activity_type"`
	PerformedBy  string                 `json:"performed_by"`
	EventID      *uint                  `json:"event_id,omitempty"`
	GuestID      *uint                  `json:"guest_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

// Event types
const (
	EventTypeCheckInRequested = "checkin.requested"
	EventTypeActivityRecorded = "activity.recorded"
)

// Kafka topics
const (
	TopicCheckInRequested = "checkin-requested"
	TopicActivity         = "checkin-activity"
)

// NewActivityRecordedEvent converts a committed entry
func NewActivityRecordedEvent(entry domain.ActivityLogEntry) ActivityRecordedEvent {
	return ActivityRecordedEvent{
		EventType:    EventTypeActivityRecorded,
		ActivityID:   entry.ID,
		ActivityType: entry.Type,
		PerformedBy:  entry.PerformedBy,
		EventID:      entry.EventID,
		GuestID:      entry.GuestID,
		Details:      entry.Details,
		Timestamp:    entry.Timestamp,
	}
}
