// Package events defines the domain events exchanged between modules and
// re-exports the platform bus types so module code needs a single import.
package events

import (
	"time"

	platformevents "opsboard_backend/platform/events"

	"github.com/google/uuid"
)

// Re-exported platform types.
type (
	Event       = platformevents.Event
	BaseEvent   = platformevents.BaseEvent
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	Bus         = platformevents.Bus
)

// NewBaseEvent creates a base event stamped with the current time.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// Event names.
const (
	DelayNotificationCreatedName = "delay_notification.created"
	ChurnInitiatedName           = "churn.initiated"
	ClientArchivedName           = "client.archived"
)

// DelayNotificationCreated is published when the scanner persists a new
// delay notification. Published once per notification; dedup happens before
// this event fires.
type DelayNotificationCreated struct {
	BaseEvent
	NotificationID uuid.UUID `json:"notificationId"`
	TaskID         string    `json:"taskId"`
	SourceTable    string    `json:"sourceTable"`
	OwnerID        uuid.UUID `json:"ownerId"`
	OwnerName      string    `json:"ownerName"`
	OwnerRole      string    `json:"ownerRole"`
	Title          string    `json:"title"`
	DueDate        time.Time `json:"dueDate"`
}

// EventName returns the event type identifier.
func (e DelayNotificationCreated) EventName() string {
	return DelayNotificationCreatedName
}

// ChurnInitiated is published when a churn workflow is opened for a
// client/product pair.
type ChurnInitiated struct {
	BaseEvent
	RecordID    uuid.UUID `json:"recordId"`
	ClientID    uuid.UUID `json:"clientId"`
	ProductSlug *string   `json:"productSlug,omitempty"`
	HasContract bool      `json:"hasContract"`
}

// EventName returns the event type identifier.
func (e ChurnInitiated) EventName() string {
	return ChurnInitiatedName
}

// ClientArchived is published when a churn finalization removes a client's
// last contracted product and archives the client record.
type ClientArchived struct {
	BaseEvent
	ClientID uuid.UUID `json:"clientId"`
}

// EventName returns the event type identifier.
func (e ClientArchived) EventName() string {
	return ClientArchivedName
}
