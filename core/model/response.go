package model

// EmergencyResponse is returned to the caller once a distress signal has been
// processed or durably queued. Success is false only when nothing could be
// done at all: no vehicle, no notification and no queued record.
type EmergencyResponse struct {
	Success          bool     `json:"success"`
	RequestID        string   `json:"request_id"`
	AssignedVehicle  *Vehicle `json:"assigned_vehicle,omitempty"`
	Tier             Tier     `json:"tier"`
	ETAMinutes       int      `json:"eta_minutes,omitempty"`
	Message          string   `json:"message"`
	ContactsNotified []string `json:"contacts_notified"`
	OfflineMode      bool     `json:"offline_mode"`
}
