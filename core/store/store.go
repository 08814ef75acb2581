// Package store holds the authoritative in-memory record of emergency
// requests and enforces the request state machine.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/medisetu/dispatch/core/model"
)

// RequestStore owns all live and historical emergency requests. Requests are
// mutated only through Assign and Transition; terminal requests move to the
// history list and are kept for audit, never destroyed.
type RequestStore struct {
	mu      sync.Mutex
	active  map[string]*model.EmergencyRequest
	history []*model.EmergencyRequest
	now     func() time.Time
}

// New creates an empty RequestStore.
func New() *RequestStore {
	return &RequestStore{
		active: make(map[string]*model.EmergencyRequest),
		now:    time.Now,
	}
}

// Create registers a new request. The request must be PENDING and its id
// unused.
func (s *RequestStore) Create(req model.EmergencyRequest) error {
	if req.Status != model.StatusPending {
		return fmt.Errorf("request %s: must be created PENDING, got %s", req.ID, req.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.active[req.ID]; dup {
		return fmt.Errorf("request id %s already exists", req.ID)
	}
	cp := req.Clone()
	s.active[req.ID] = &cp
	return nil
}

// Get returns a copy of the request, searching live requests first and the
// history afterwards.
func (s *RequestStore) Get(id string) (model.EmergencyRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.active[id]; ok {
		return r.Clone(), true
	}
	for _, r := range s.history {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return model.EmergencyRequest{}, false
}

// Assign performs the PENDING -> ASSIGNED transition and binds the vehicle in
// the same critical section, so the reservation and the request reference can
// never disagree.
func (s *RequestStore) Assign(id string, vehicle model.Vehicle) (model.EmergencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[id]
	if !ok {
		return model.EmergencyRequest{}, fmt.Errorf("request %s not found", id)
	}
	if !r.Status.CanTransitionTo(model.StatusAssigned) {
		return model.EmergencyRequest{}, &model.InvalidTransitionError{RequestID: id, From: r.Status, To: model.StatusAssigned}
	}
	if r.AssignedVehicle != nil {
		return model.EmergencyRequest{}, fmt.Errorf("request %s already has vehicle %s", id, r.AssignedVehicle.ID)
	}
	v := vehicle
	r.AssignedVehicle = &v
	r.Status = model.StatusAssigned
	r.UpdatedAt = s.now()
	return r.Clone(), nil
}

// Transition moves the request along a legal state machine edge and stamps
// UpdatedAt. Terminal requests are moved to the history list.
func (s *RequestStore) Transition(id string, next model.RequestStatus) (model.EmergencyRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[id]
	if !ok {
		if s.inHistory(id) {
			// Terminal requests reject every further transition.
			return model.EmergencyRequest{}, &model.InvalidTransitionError{RequestID: id, From: s.historyStatus(id), To: next}
		}
		return model.EmergencyRequest{}, fmt.Errorf("request %s not found", id)
	}
	if !r.Status.CanTransitionTo(next) {
		return model.EmergencyRequest{}, &model.InvalidTransitionError{RequestID: id, From: r.Status, To: next}
	}
	r.Status = next
	r.UpdatedAt = s.now()
	if next.IsTerminal() {
		delete(s.active, id)
		s.history = append(s.history, r)
	}
	return r.Clone(), nil
}

// Pending returns copies of all live requests still in PENDING.
func (s *RequestStore) Pending() []model.EmergencyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EmergencyRequest
	for _, r := range s.active {
		if r.Status == model.StatusPending {
			out = append(out, r.Clone())
		}
	}
	return out
}

// History returns copies of all terminal requests in completion order.
func (s *RequestStore) History() []model.EmergencyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EmergencyRequest, 0, len(s.history))
	for _, r := range s.history {
		out = append(out, r.Clone())
	}
	return out
}

func (s *RequestStore) inHistory(id string) bool {
	for _, r := range s.history {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (s *RequestStore) historyStatus(id string) model.RequestStatus {
	for _, r := range s.history {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}
