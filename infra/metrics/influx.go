package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/medisetu/dispatch/core/logger"
	coremetrics "github.com/medisetu/dispatch/core/metrics"
	infralogger "github.com/medisetu/dispatch/infra/logger"
)

// InfluxSink writes dispatch events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      infralogger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and returns a
// NopSink if the health check fails, so a down telemetry backend never blocks
// dispatch.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordDispatchOutcome writes the outcome as a line protocol point.
func (s *InfluxSink) RecordDispatchOutcome(out coremetrics.DispatchOutcome) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("dispatch_outcome").
		AddTag("request_id", out.RequestID).
		AddTag("tier", out.Tier.String()).
		AddTag("offline", strconv.FormatBool(out.OfflineMode)).
		AddTag("component", "dispatch_engine").
		AddField("vehicle_id", out.VehicleID).
		AddField("eta_minutes", out.ETAMinutes).
		AddField("contacts_notified", out.ContactsNotified).
		AddField("contacts_failed", out.ContactsFailed).
		AddField("match_latency_ms", out.MatchLatency.Milliseconds()).
		SetTime(out.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordQueueDepth writes the offline queue depth.
func (s *InfluxSink) RecordQueueDepth(depth int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("offline_queue").
		AddField("depth", depth).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
