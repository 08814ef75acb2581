// Package registry tracks the response vehicle fleet and owns vehicle
// availability. Reservation is the only synchronization point in the engine:
// all other state is per-request.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/medisetu/dispatch/core/model"
)

// Registry holds the ambulance and local-transport pools. The availability
// flag of a vehicle is mutated exclusively through TryReserve and Release.
type Registry struct {
	mu       sync.Mutex
	vehicles map[string]*model.Vehicle
}

// New creates a Registry from the given fleet. Vehicles failing validation
// are rejected.
func New(fleet []model.Vehicle) (*Registry, error) {
	r := &Registry{vehicles: make(map[string]*model.Vehicle, len(fleet))}
	for _, v := range fleet {
		if err := v.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.vehicles[v.ID]; dup {
			return nil, fmt.Errorf("duplicate vehicle id %s", v.ID)
		}
		cp := v
		r.vehicles[v.ID] = &cp
	}
	return r, nil
}

// Add registers an additional vehicle at runtime.
func (r *Registry) Add(v model.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.vehicles[v.ID]; dup {
		return fmt.Errorf("duplicate vehicle id %s", v.ID)
	}
	cp := v
	r.vehicles[v.ID] = &cp
	return nil
}

// ListAvailable returns a snapshot of available vehicles in the given tier,
// ordered by id for determinism. The snapshot does not reserve anything and
// may be stale by the time a reservation is attempted.
func (r *Registry) ListAvailable(tier model.Tier) []model.Vehicle {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Vehicle
	for _, v := range r.vehicles {
		if v.Tier == tier && v.Available {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TryReserve atomically flips the vehicle from available to reserved. Returns
// false when the vehicle is unknown or already reserved, which happens when
// two requests race for the same vehicle.
func (r *Registry) TryReserve(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok || !v.Available {
		return false
	}
	v.Available = false
	return true
}

// Release makes a reserved vehicle available again. Called when a request is
// cancelled before dispatch or once it completes.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.vehicles[id]; ok {
		v.Available = true
	}
}

// Get returns a copy of the vehicle with the given id.
func (r *Registry) Get(id string) (model.Vehicle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vehicles[id]
	if !ok {
		return model.Vehicle{}, false
	}
	return *v, true
}

// Size returns the total fleet size across both pools.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.vehicles)
}
