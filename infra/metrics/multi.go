package metrics

import coremetrics "github.com/medisetu/dispatch/core/metrics"

// MultiSink fans events out to several sinks. The first error wins but every
// sink still gets the event.
type MultiSink struct {
	sinks []coremetrics.Sink
}

// NewMultiSink combines the given sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordDispatchOutcome(out coremetrics.DispatchOutcome) error {
	var first error
	for _, s := range m.sinks {
		if err := s.RecordDispatchOutcome(out); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RecordQueueDepth forwards to every sink implementing QueueDepthRecorder.
func (m *MultiSink) RecordQueueDepth(depth int) error {
	var first error
	for _, s := range m.sinks {
		if r, ok := s.(coremetrics.QueueDepthRecorder); ok {
			if err := r.RecordQueueDepth(depth); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// RecordFleetSize forwards to every sink implementing FleetSizeRecorder.
func (m *MultiSink) RecordFleetSize(size int) error {
	var first error
	for _, s := range m.sinks {
		if r, ok := s.(coremetrics.FleetSizeRecorder); ok {
			if err := r.RecordFleetSize(size); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}
