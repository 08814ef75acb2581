package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/medisetu/dispatch/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	outcomes   *prometheus.CounterVec
	notifyFail prometheus.Counter
	latency    *prometheus.HistogramVec
	queueDepth prometheus.Gauge
	fleet      prometheus.Gauge
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using the configured port.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emergency_requests_total",
		Help: "Total number of processed emergency requests",
	}, []string{"tier", "offline"})
	notifyFail := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Total number of failed per-recipient notifications",
	})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vehicle_match_latency_seconds",
		Help:    "Time spent matching and reserving a vehicle",
		Buckets: prometheus.DefBuckets,
	}, []string{"tier"})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "offline_queue_depth",
		Help: "Number of requests waiting in the offline queue",
	})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_vehicles_total",
		Help: "Number of registered response vehicles",
	})

	s := &PromSink{outcomes: outcomes, notifyFail: notifyFail, latency: latency, queueDepth: queueDepth, fleet: fleet}
	for _, c := range []prometheus.Collector{outcomes, notifyFail, latency, queueDepth, fleet} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordDispatchOutcome increments the counters for one processed request.
func (s *PromSink) RecordDispatchOutcome(out coremetrics.DispatchOutcome) error {
	s.outcomes.WithLabelValues(out.Tier.String(), strconv.FormatBool(out.OfflineMode)).Inc()
	if out.ContactsFailed > 0 {
		s.notifyFail.Add(float64(out.ContactsFailed))
	}
	if !out.OfflineMode {
		s.latency.WithLabelValues(out.Tier.String()).Observe(out.MatchLatency.Seconds())
	}
	return nil
}

// RecordQueueDepth sets the offline queue gauge.
func (s *PromSink) RecordQueueDepth(depth int) error {
	s.queueDepth.Set(float64(depth))
	return nil
}

// RecordFleetSize sets the fleet gauge.
func (s *PromSink) RecordFleetSize(size int) error {
	s.fleet.Set(float64(size))
	return nil
}
