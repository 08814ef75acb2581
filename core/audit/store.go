// Package audit persists dispatch outcomes for after-the-fact review.
package audit

import (
	"context"
	"time"

	"github.com/medisetu/dispatch/core/model"
)

// Record captures one dispatch decision and outcome.
type Record struct {
	Timestamp        time.Time           `json:"timestamp"`
	RequestID        string              `json:"request_id"`
	PatientID        string              `json:"patient_id"`
	Status           model.RequestStatus `json:"status"`
	Tier             model.Tier          `json:"tier"`
	VehicleID        string              `json:"vehicle_id,omitempty"`
	ETAMinutes       int                 `json:"eta_minutes,omitempty"`
	ContactsNotified []string            `json:"contacts_notified"`
	ContactsFailed   []string            `json:"contacts_failed,omitempty"`
	DriverNotified   bool                `json:"driver_notified"`
	OfflineMode      bool                `json:"offline_mode"`
	Message          string              `json:"message"`
}

// Query defines filters for retrieving records.
type Query struct {
	Start     time.Time
	End       time.Time
	RequestID string
	PatientID string
	Tier      model.Tier
}

// Matches reports whether the record passes every set filter.
func (q Query) Matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.RequestID != "" && r.RequestID != q.RequestID {
		return false
	}
	if q.PatientID != "" && r.PatientID != q.PatientID {
		return false
	}
	if q.Tier != model.TierNone && r.Tier != q.Tier {
		return false
	}
	return true
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards all records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error           { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
