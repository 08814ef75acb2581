// Package notify fans alert messages out to emergency contacts and vehicle
// operators. Delivery is best effort: each recipient is an isolated failure
// domain and partial success is a first-class result.
package notify

import (
	"context"

	"github.com/medisetu/dispatch/core/model"
)

// Notifier delivers one alert to one phone number. Implementations include
// the SMS gateway for contacts and the MQTT order channel for drivers.
type Notifier interface {
	SendAlert(ctx context.Context, phone, message string) error
}

// Directory resolves the emergency contact list for a patient. Requests
// snapshot the result at creation time.
type Directory interface {
	ContactsFor(ctx context.Context, patientID string) ([]model.EmergencyContact, error)
}

// StaticDirectory is a Directory backed by a fixed map, used for deployments
// where the portal pushes contact lists at startup and in tests.
type StaticDirectory map[string][]model.EmergencyContact

// ContactsFor returns a copy of the configured contacts for the patient.
func (d StaticDirectory) ContactsFor(_ context.Context, patientID string) ([]model.EmergencyContact, error) {
	return append([]model.EmergencyContact(nil), d[patientID]...), nil
}
