// Package metrics defines interfaces for recording dispatch observability
// events. Sinks like PromSink and InfluxSink live in infra/metrics and can be
// combined with a MultiSink.
package metrics

import (
	"time"

	"github.com/medisetu/dispatch/core/model"
)

// DispatchOutcome represents one processed emergency request.
type DispatchOutcome struct {
	RequestID        string
	PatientID        string
	Tier             model.Tier
	VehicleID        string
	ETAMinutes       int
	ContactsNotified int
	ContactsFailed   int
	DriverNotified   bool
	OfflineMode      bool
	MatchLatency     time.Duration
	Time             time.Time
}

// Sink records dispatch outcomes for observability purposes.
type Sink interface {
	RecordDispatchOutcome(out DispatchOutcome) error
}

// QueueDepthRecorder records the offline queue depth after a change.
type QueueDepthRecorder interface {
	RecordQueueDepth(depth int) error
}

// FleetSizeRecorder records the registered fleet size.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordDispatchOutcome(DispatchOutcome) error { return nil }
func (NopSink) RecordQueueDepth(int) error                  { return nil }
func (NopSink) RecordFleetSize(int) error                   { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults fills unset fields with the documented defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = "2112"
	}
}
