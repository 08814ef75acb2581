package model

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of an emergency request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusAssigned  RequestStatus = "ASSIGNED"
	StatusEnRoute   RequestStatus = "EN_ROUTE"
	StatusArrived   RequestStatus = "ARRIVED"
	StatusCompleted RequestStatus = "COMPLETED"
	StatusCancelled RequestStatus = "CANCELLED"
)

// transitions holds the legal state machine edges.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusAssigned, StatusCancelled},
	StatusAssigned: {StatusEnRoute},
	StatusEnRoute:  {StatusArrived},
	StatusArrived:  {StatusCompleted},
}

// IsTerminal reports whether no further transitions are allowed.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the edge s -> next is legal.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status value.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusEnRoute, StatusArrived, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// InvalidTransitionError is returned when a state machine edge is rejected.
// It indicates a caller bug, never user input.
type InvalidTransitionError struct {
	RequestID string
	From      RequestStatus
	To        RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("request %s: invalid transition %s -> %s", e.RequestID, e.From, e.To)
}

// RequestPriority classifies an emergency request. Only CRITICAL is issued
// today; the field exists so future triage does not change the wire shape.
type RequestPriority string

// PriorityCritical is the only priority currently assigned.
const PriorityCritical RequestPriority = "CRITICAL"

// EmergencyRequest is the aggregate root of one distress signal. Status is
// mutated only through the request store's transition function.
type EmergencyRequest struct {
	ID              string             `json:"id"`
	PatientID       string             `json:"patient_id"`
	PatientName     string             `json:"patient_name"`
	HealthID        string             `json:"health_id"`
	Location        Location           `json:"location"`
	PinCodeFallback string             `json:"pin_code_fallback,omitempty"`
	Status          RequestStatus      `json:"status"`
	Priority        RequestPriority    `json:"priority"`
	AssignedVehicle *Vehicle           `json:"assigned_vehicle,omitempty"`
	Contacts        []EmergencyContact `json:"contacts"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r EmergencyRequest) Clone() EmergencyRequest {
	cp := r
	if r.AssignedVehicle != nil {
		v := *r.AssignedVehicle
		cp.AssignedVehicle = &v
	}
	cp.Contacts = append([]EmergencyContact(nil), r.Contacts...)
	return cp
}
