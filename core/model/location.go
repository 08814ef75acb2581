package model

import "time"

// Location is a geographic fix captured from the patient device or resolved
// from a pin code. It is immutable once captured.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	AccuracyM float64   `json:"accuracy_m,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsZero reports whether the location carries no coordinates at all.
// (0,0) is in the Gulf of Guinea and never a valid patient fix here.
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0
}
