package model

import "fmt"

// Tier is the priority class of a responder resource.
type Tier int

const (
	// TierNone means no vehicle could be reserved.
	TierNone Tier = iota
	// TierPrimary is a fully equipped ambulance.
	TierPrimary
	// TierFallback is informal local transport pressed into service.
	TierFallback
)

// String returns a human-readable representation of the tier.
func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "PRIMARY"
	case TierFallback:
		return "FALLBACK"
	default:
		return "NONE"
	}
}

// MarshalJSON encodes the tier as its string form.
func (t Tier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes the string form of a tier.
func (t *Tier) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	v, ok := TierFromString(s)
	if !ok {
		return fmt.Errorf("unknown tier %q", s)
	}
	*t = v
	return nil
}

// TierFromString parses the wire representation of a tier.
func TierFromString(s string) (Tier, bool) {
	switch s {
	case "PRIMARY":
		return TierPrimary, true
	case "FALLBACK":
		return TierFallback, true
	case "NONE":
		return TierNone, true
	default:
		return TierNone, false
	}
}

// Vehicle represents a response vehicle. The Tier field discriminates the two
// variants: ambulances carry LicensePlate and Equipment, local transport
// carries Capacity. Availability is mutated only through the registry.
type Vehicle struct {
	ID         string   `json:"id"`
	Tier       Tier     `json:"tier"`
	DriverName string   `json:"driver_name"`
	Phone      string   `json:"phone"`
	Location   Location `json:"location"`
	Available  bool     `json:"available"`
	ETAMinutes int      `json:"eta_minutes"`

	// Ambulance-only fields.
	LicensePlate string   `json:"license_plate,omitempty"`
	Equipment    []string `json:"equipment,omitempty"`

	// Local-transport-only fields.
	Capacity int `json:"capacity,omitempty"`
}

// NewAmbulance builds a primary-tier vehicle.
func NewAmbulance(id, driver, phone, plate string, equipment []string, loc Location) Vehicle {
	return Vehicle{
		ID:           id,
		Tier:         TierPrimary,
		DriverName:   driver,
		Phone:        phone,
		LicensePlate: plate,
		Equipment:    equipment,
		Location:     loc,
		Available:    true,
	}
}

// NewLocalTransport builds a fallback-tier vehicle.
func NewLocalTransport(id, driver, phone string, capacity int, loc Location) Vehicle {
	return Vehicle{
		ID:         id,
		Tier:       TierFallback,
		DriverName: driver,
		Phone:      phone,
		Capacity:   capacity,
		Location:   loc,
		Available:  true,
	}
}

// Validate checks that the vehicle configuration is sound.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id must not be empty")
	}
	switch v.Tier {
	case TierPrimary, TierFallback:
	default:
		return fmt.Errorf("vehicle %s: tier must be PRIMARY or FALLBACK", v.ID)
	}
	if v.Tier == TierFallback && v.Capacity <= 0 {
		return fmt.Errorf("vehicle %s: local transport capacity must be positive", v.ID)
	}
	return nil
}

// Describe returns the operator-facing description used in alert messages.
func (v Vehicle) Describe() string {
	if v.Tier == TierPrimary {
		return fmt.Sprintf("ambulance %s driven by %s", v.LicensePlate, v.DriverName)
	}
	return fmt.Sprintf("local transport driven by %s", v.DriverName)
}
