// Package events defines the typed events published on the internal bus.
package events

import (
	"time"

	"github.com/medisetu/dispatch/core/model"
)

// RequestEvent is published when an emergency request enters the pipeline.
type RequestEvent struct {
	RequestID string
	PatientID string
	Offline   bool
	Time      time.Time
}

// AssignEvent is published when a vehicle is reserved for a request.
type AssignEvent struct {
	RequestID string
	VehicleID string
	Tier      model.Tier
	ETA       int
	Time      time.Time
}

// NotifyEvent is published after the notification fan-out completes.
type NotifyEvent struct {
	RequestID      string
	Notified       int
	Failed         int
	DriverNotified bool
	Time           time.Time
}

// ConnectivityEvent is published when the engine's online state changes. The
// offline syncer subscribes to trigger a drain on reconnect.
type ConnectivityEvent struct {
	Online bool
	Time   time.Time
}

// DrainEvent is published after an offline queue drain pass.
type DrainEvent struct {
	Replayed  int
	Remaining int
	Time      time.Time
}
