package match

import "fmt"

// Config defines matching policy settings.
type Config struct {
	// SearchRadiusKm bounds the ambulance search. Local transport has no
	// radius cutoff.
	SearchRadiusKm float64 `json:"search_radius_km"`
	// AvgSpeedKmh is the assumed ambulance travel speed for ETA estimates.
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
	// FallbackSpeedKmh is the assumed local-transport travel speed.
	FallbackSpeedKmh float64 `json:"fallback_speed_kmh"`
}

// SetDefaults fills unset fields with the documented defaults.
func (c *Config) SetDefaults() {
	if c.SearchRadiusKm == 0 {
		c.SearchRadiusKm = 10
	}
	if c.AvgSpeedKmh == 0 {
		c.AvgSpeedKmh = 40
	}
	if c.FallbackSpeedKmh == 0 {
		c.FallbackSpeedKmh = 25
	}
}

// Validate checks the configuration for nonsensical values.
func (c Config) Validate() error {
	if c.SearchRadiusKm < 0 {
		return fmt.Errorf("search_radius_km must not be negative")
	}
	if c.AvgSpeedKmh <= 0 || c.FallbackSpeedKmh <= 0 {
		return fmt.Errorf("travel speeds must be positive")
	}
	return nil
}
