// Package location defines the location provider collaborator and the
// pin-code fallback used when no GPS fix is available.
package location

import (
	"context"
	"errors"
	"time"

	"github.com/medisetu/dispatch/core/model"
)

// ErrPermissionDenied is returned when the device refuses the location read.
var ErrPermissionDenied = errors.New("location permission denied")

// ErrTimeout is returned when the location read does not complete in time.
var ErrTimeout = errors.New("location read timed out")

// Provider yields the patient's current location or fails. The engine never
// retries a failed provider; it falls back to the pin code instead.
type Provider interface {
	GetCurrentLocation(ctx context.Context) (model.Location, error)
}

// StaticProvider always returns a fixed location. Used by the CLI and tests.
type StaticProvider struct {
	Loc model.Location
	Err error
}

func (p StaticProvider) GetCurrentLocation(context.Context) (model.Location, error) {
	if p.Err != nil {
		return model.Location{}, p.Err
	}
	return p.Loc, nil
}

// PinCodeResolver maps postal pin codes to area centroid coordinates. The
// table is loaded from configuration.
type PinCodeResolver struct {
	table map[string]model.Location
	now   func() time.Time
}

// NewPinCodeResolver builds a resolver over the given table.
func NewPinCodeResolver(table map[string]model.Location) *PinCodeResolver {
	return &PinCodeResolver{table: table, now: time.Now}
}

// Resolve returns the centroid for the pin code, stamped with the current
// time so downstream consumers see a fresh fix.
func (r *PinCodeResolver) Resolve(pinCode string) (model.Location, bool) {
	loc, ok := r.table[pinCode]
	if !ok {
		return model.Location{}, false
	}
	loc.Timestamp = r.now()
	return loc, true
}
