package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/medisetu/dispatch/core/metrics"
	"github.com/medisetu/dispatch/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	err = sink.RecordDispatchOutcome(coremetrics.DispatchOutcome{
		RequestID:        "r1",
		Tier:             model.TierPrimary,
		ContactsNotified: 2,
		ContactsFailed:   1,
		MatchLatency:     3 * time.Millisecond,
		Time:             time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, sink.RecordQueueDepth(4))
	require.NoError(t, sink.RecordFleetSize(7))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["emergency_requests_total"])
	assert.True(t, names["notification_failures_total"])
	assert.True(t, names["vehicle_match_latency_seconds"])
	assert.True(t, names["offline_queue_depth"])
	assert.True(t, names["fleet_vehicles_total"])
}

func TestMultiSinkForwards(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	multi := NewMultiSink(coremetrics.NopSink{}, prom)

	require.NoError(t, multi.RecordDispatchOutcome(coremetrics.DispatchOutcome{Tier: model.TierFallback}))
	require.NoError(t, multi.RecordQueueDepth(1))
	require.NoError(t, multi.RecordFleetSize(2))
}
