package model

// EmergencyContact is a person alerted when the patient raises a distress
// signal. Contacts are reference data owned by the patient profile; requests
// hold a snapshot taken at creation time.
type EmergencyContact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
	IsPrimary    bool   `json:"is_primary"`
}
