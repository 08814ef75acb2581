package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apiaudit "github.com/medisetu/dispatch/api/audit"
	"github.com/medisetu/dispatch/api/requests"
	"github.com/medisetu/dispatch/config"
	"github.com/medisetu/dispatch/core/audit"
	"github.com/medisetu/dispatch/core/engine"
	"github.com/medisetu/dispatch/core/location"
	"github.com/medisetu/dispatch/core/match"
	coremetrics "github.com/medisetu/dispatch/core/metrics"
	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/core/notify"
	"github.com/medisetu/dispatch/core/offline"
	"github.com/medisetu/dispatch/core/registry"
	"github.com/medisetu/dispatch/core/store"
	"github.com/medisetu/dispatch/infra/logger"
	"github.com/medisetu/dispatch/infra/metrics"
	infranotify "github.com/medisetu/dispatch/infra/notify"
	"github.com/medisetu/dispatch/infra/storage"
	"github.com/medisetu/dispatch/internal/eventbus"
)

// Service wires the dispatch engine to its transports and storage.
type Service struct {
	Engine *engine.Engine

	syncer       *offline.Syncer
	syncInterval time.Duration
	kv           offline.KVStore
	auditStore   audit.Store
	drivers      notify.Notifier
	bus          eventbus.EventBus
	log          logger.Logger
	httpPort     int
	auditToken   string
	promEnabled  bool
	promPort     string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	fleet := make([]model.Vehicle, 0, len(cfg.Fleet))
	for _, f := range cfg.Fleet {
		v, err := f.ToVehicle()
		if err != nil {
			return nil, err
		}
		fleet = append(fleet, v)
	}
	reg, err := registry.New(fleet)
	if err != nil {
		return nil, fmt.Errorf("fleet registry: %w", err)
	}

	contactNotifier := infranotify.NewSMSNotifier(cfg.SMS, logger.New("sms"))
	var driverNotifier notify.Notifier = contactNotifier
	var mqttNotifier *infranotify.MQTTNotifier
	if cfg.MQTT.Broker != "" {
		mqttNotifier, err = infranotify.NewMQTTNotifier(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
		driverNotifier = mqttNotifier
	}

	kv, err := storage.NewSQLiteKV(cfg.Storage.QueuePath)
	if err != nil {
		return nil, fmt.Errorf("offline queue: %w", err)
	}
	queue := offline.NewQueue(kv, logger.New("queue"))

	bus := eventbus.New()
	eng, err := engine.New(
		reg,
		match.New(reg, cfg.Match, logger.New("match")),
		store.New(),
		notify.NewFanout(contactNotifier, driverNotifier, logger.New("notify")),
		notify.StaticDirectory(cfg.Contacts),
		queue,
		nil,
		location.NewPinCodeResolver(cfg.PinCodes),
		sink,
		bus,
		logg,
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	auditStore, err := newAuditStore(cfg.Audit)
	if err != nil {
		return nil, fmt.Errorf("audit store: %w", err)
	}
	eng.SetAuditStore(auditStore)

	syncer := offline.NewSyncer(queue, eng, bus, logger.New("sync"))
	eng.SetSyncer(syncer)

	if sink != nil {
		if rec, ok := sink.(coremetrics.FleetSizeRecorder); ok {
			if err := rec.RecordFleetSize(reg.Size()); err != nil {
				logg.Warnf("record fleet size: %v", err)
			}
		}
	}

	return &Service{
		Engine:       eng,
		syncer:       syncer,
		syncInterval: time.Duration(cfg.Engine.SyncIntervalSeconds) * time.Second,
		kv:           kv,
		auditStore:   auditStore,
		drivers:      driverNotifier,
		bus:          bus,
		log:          logg,
		httpPort:     cfg.HTTP.Port,
		auditToken:   cfg.HTTP.AuditToken,
		promEnabled:  cfg.Metrics.PrometheusEnabled,
		promPort:     cfg.Metrics.PrometheusPort,
	}, nil
}

func newAuditStore(cfg config.AuditConfig) (audit.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Path)
	case "jsonl":
		return audit.NewJSONLStore(cfg.Path)
	default:
		return audit.NopStore{}, nil
	}
}

// Run starts the background syncer and the HTTP servers, blocking until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.syncer.Run(ctx, s.syncInterval)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	emergencyAPI := requests.NewHandler(s.Engine)
	mux.Handle("/api/emergency", emergencyAPI)
	mux.Handle("/api/emergency/", emergencyAPI)
	mux.Handle("/api/connectivity", emergencyAPI)
	mux.Handle("/api/audit/dispatches", apiaudit.NewHandler(s.auditStore, s.auditToken))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.httpPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infof("dispatch API listening on :%d", s.httpPort)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	if c, ok := s.drivers.(interface{ Close() }); ok {
		c.Close()
	}
	if err := s.auditStore.Close(); err != nil {
		return err
	}
	return s.kv.Close()
}
