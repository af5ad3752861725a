// Package events defines the notification hand-offs published on the
// platform bus.
package events

import (
	"hooknotify_backend/platform/events"
)

type (
	Event     = events.Event
	Bus       = events.Bus
	Handler   = events.Handler
	BaseEvent = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Notification Domain Events
// =============================================================================

// MaintenanceRequested is published when the host signals its daily cron run.
// The notification module queues the maintenance task in response, and a
// failure to queue it is returned to the hook caller.
type MaintenanceRequested struct {
	BaseEvent
	Source string `json:"source"`
}

func (e MaintenanceRequested) EventName() string { return "notification.maintenance.requested" }
