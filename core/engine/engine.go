// Package engine orchestrates emergency dispatch: location resolution,
// vehicle matching, request state, notification fan-out and offline capture,
// behind one entry point.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/medisetu/dispatch/core/audit"
	"github.com/medisetu/dispatch/core/events"
	"github.com/medisetu/dispatch/core/location"
	"github.com/medisetu/dispatch/core/logger"
	"github.com/medisetu/dispatch/core/match"
	"github.com/medisetu/dispatch/core/metrics"
	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/core/notify"
	"github.com/medisetu/dispatch/core/offline"
	"github.com/medisetu/dispatch/core/registry"
	"github.com/medisetu/dispatch/core/store"
	"github.com/medisetu/dispatch/internal/eventbus"
)

// ErrLocationUnavailable is returned when neither a GPS fix nor a resolvable
// pin code is available. The caller must prompt the patient for a pin code.
var ErrLocationUnavailable = errors.New("no location fix and no pin code fallback")

// errOffline keeps replayed items queued when connectivity drops mid-drain.
var errOffline = errors.New("engine is offline")

// Request carries the caller-supplied fields of a distress signal.
type Request struct {
	PatientID   string
	PatientName string
	HealthID    string
	// Location is the device GPS fix, when the caller already has one.
	Location *model.Location
	// PinCode is the fallback used when no fix can be obtained.
	PinCode string
}

// Engine processes emergency requests. All methods are safe for concurrent
// use; the vehicle registry is the only shared mutable resource and is
// internally synchronized.
type Engine struct {
	registry *registry.Registry
	matcher  *match.Matcher
	requests *store.RequestStore
	fanout   *notify.Fanout
	contacts notify.Directory
	queue    *offline.Queue
	provider location.Provider
	resolver *location.PinCodeResolver
	sink     metrics.Sink
	bus      eventbus.EventBus
	log      logger.Logger
	auditLog audit.Store
	syncer   *offline.Syncer

	online atomic.Bool
	newID  func() string
	now    func() time.Time
}

// New creates an Engine. The provider, resolver, sink and bus may be nil; the
// remaining collaborators are required. The engine starts online.
func New(reg *registry.Registry, matcher *match.Matcher, requests *store.RequestStore,
	fanout *notify.Fanout, contacts notify.Directory, queue *offline.Queue,
	provider location.Provider, resolver *location.PinCodeResolver,
	sink metrics.Sink, bus eventbus.EventBus, log logger.Logger) (*Engine, error) {
	if reg == nil || matcher == nil || requests == nil || fanout == nil || contacts == nil || queue == nil {
		return nil, fmt.Errorf("engine: nil parameter provided to New")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	e := &Engine{
		registry: reg,
		matcher:  matcher,
		requests: requests,
		fanout:   fanout,
		contacts: contacts,
		queue:    queue,
		provider: provider,
		resolver: resolver,
		sink:     sink,
		bus:      bus,
		log:      log,
		auditLog: audit.NopStore{},
		newID:    uuid.NewString,
		now:      time.Now,
	}
	e.online.Store(true)
	return e, nil
}

// SetAuditStore configures the store used to persist dispatch outcomes.
func (e *Engine) SetAuditStore(s audit.Store) {
	if s != nil {
		e.auditLog = s
	}
}

// SetSyncer wires the offline syncer once it has been built around this
// engine as its replayer.
func (e *Engine) SetSyncer(s *offline.Syncer) { e.syncer = s }

// ProcessEmergencyRequest is the single entry point for a distress signal.
// It resolves a location, constructs the request, matches and reserves a
// vehicle, and fans out notifications. When the engine is offline the request
// is durably queued instead and the response reports offline mode with
// success still true: the request was captured.
func (e *Engine) ProcessEmergencyRequest(ctx context.Context, in Request) (model.EmergencyResponse, error) {
	loc, err := e.resolveLocation(ctx, in)
	if err != nil {
		return model.EmergencyResponse{}, err
	}

	contacts, err := e.contacts.ContactsFor(ctx, in.PatientID)
	if err != nil {
		// Contacts-only notification degrades, dispatch still proceeds.
		e.log.Errorf("contact lookup for %s failed: %v", in.PatientID, err)
		contacts = nil
	}

	now := e.now()
	req := model.EmergencyRequest{
		ID:              e.newID(),
		PatientID:       in.PatientID,
		PatientName:     in.PatientName,
		HealthID:        in.HealthID,
		Location:        loc,
		PinCodeFallback: in.PinCode,
		Status:          model.StatusPending,
		Priority:        model.PriorityCritical,
		Contacts:        contacts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if !e.online.Load() {
		return e.capture(ctx, req)
	}
	return e.submit(ctx, req)
}

// Replay re-runs the pipeline for a queued request. Part of the offline sync
// protocol; safe to call more than once for the same request id.
func (e *Engine) Replay(ctx context.Context, req model.EmergencyRequest) (model.EmergencyResponse, error) {
	if !e.online.Load() {
		return model.EmergencyResponse{}, errOffline
	}
	return e.submit(ctx, req)
}

// capture enqueues the request durably and reports offline mode.
func (e *Engine) capture(ctx context.Context, req model.EmergencyRequest) (model.EmergencyResponse, error) {
	if err := e.requests.Create(req); err != nil {
		e.log.Errorf("store create for %s: %v", req.ID, err)
	}
	if err := e.queue.Enqueue(ctx, req); err != nil {
		// Nothing was captured anywhere: the only total failure.
		return model.EmergencyResponse{
			RequestID: req.ID,
			Message:   "request could not be saved, retry when network returns",
		}, err
	}
	e.publish(events.RequestEvent{RequestID: req.ID, PatientID: req.PatientID, Offline: true, Time: e.now()})
	e.recordQueueDepth(ctx)
	e.record(metrics.DispatchOutcome{
		RequestID: req.ID, PatientID: req.PatientID, Tier: model.TierNone,
		OfflineMode: true, Time: e.now(),
	})
	return model.EmergencyResponse{
		Success:     true,
		RequestID:   req.ID,
		Tier:        model.TierNone,
		Message:     "Network unavailable; request saved and will be dispatched on reconnect",
		OfflineMode: true,
	}, nil
}

// submit runs the online pipeline: match, assign, notify, record.
func (e *Engine) submit(ctx context.Context, req model.EmergencyRequest) (model.EmergencyResponse, error) {
	// Replayed requests already exist in the store; fresh ones do not.
	if _, ok := e.requests.Get(req.ID); !ok {
		if err := e.requests.Create(req); err != nil {
			return model.EmergencyResponse{}, err
		}
	}
	e.publish(events.RequestEvent{RequestID: req.ID, PatientID: req.PatientID, Time: e.now()})

	matchStart := e.now()
	vehicle, tier := e.matcher.Match(req.Location)
	matchLatency := e.now().Sub(matchStart)

	if vehicle != nil {
		updated, err := e.requests.Assign(req.ID, *vehicle)
		if err != nil {
			// Lost to a concurrent transition (e.g. cancel racing a replay).
			// Hand the reservation back and continue without a vehicle.
			e.log.Warnf("assign %s to %s rejected: %v", vehicle.ID, req.ID, err)
			e.registry.Release(vehicle.ID)
			vehicle, tier = nil, model.TierNone
		} else {
			req = updated
			e.publish(events.AssignEvent{
				RequestID: req.ID, VehicleID: vehicle.ID, Tier: tier,
				ETA: vehicle.ETAMinutes, Time: e.now(),
			})
		}
	}

	res := e.fanout.Notify(ctx, req, vehicle)
	e.publish(events.NotifyEvent{
		RequestID: req.ID, Notified: len(res.NotifiedNames),
		Failed: len(res.FailedNames), DriverNotified: res.DriverNotified, Time: e.now(),
	})

	resp := model.EmergencyResponse{
		Success:          true,
		RequestID:        req.ID,
		AssignedVehicle:  vehicle,
		Tier:             tier,
		Message:          outcomeMessage(vehicle, tier, len(res.NotifiedNames)),
		ContactsNotified: res.NotifiedNames,
	}
	if vehicle != nil {
		resp.ETAMinutes = vehicle.ETAMinutes
	}

	out := metrics.DispatchOutcome{
		RequestID: req.ID, PatientID: req.PatientID, Tier: tier,
		ContactsNotified: len(res.NotifiedNames), ContactsFailed: len(res.FailedNames),
		DriverNotified: res.DriverNotified, MatchLatency: matchLatency, Time: e.now(),
	}
	if vehicle != nil {
		out.VehicleID = vehicle.ID
		out.ETAMinutes = vehicle.ETAMinutes
	}
	e.record(out)
	e.appendAudit(ctx, req, resp, res)
	return resp, nil
}

// GetRequestStatus returns the request with the given id, live or terminal.
func (e *Engine) GetRequestStatus(id string) (model.EmergencyRequest, bool) {
	return e.requests.Get(id)
}

// UpdateRequestStatus moves a request along the state machine. Cancelling or
// completing a request with an assigned vehicle releases the vehicle back to
// the pool.
func (e *Engine) UpdateRequestStatus(ctx context.Context, id string, status model.RequestStatus) (model.EmergencyRequest, error) {
	updated, err := e.requests.Transition(id, status)
	if err != nil {
		return model.EmergencyRequest{}, err
	}
	if status.IsTerminal() {
		if updated.AssignedVehicle != nil {
			e.registry.Release(updated.AssignedVehicle.ID)
		}
		if status == model.StatusCancelled {
			// A cancelled request must not be replayed from the queue.
			if err := e.queue.Remove(ctx, id); err != nil {
				e.log.Errorf("remove cancelled request %s from queue: %v", id, err)
			}
			e.recordQueueDepth(ctx)
		}
	}
	return updated, nil
}

// SetOnlineStatus flips connectivity. Going online publishes a connectivity
// event which triggers the offline syncer.
func (e *Engine) SetOnlineStatus(online bool) {
	prev := e.online.Swap(online)
	if prev == online {
		return
	}
	e.log.Infof("connectivity changed: online=%v", online)
	e.publish(events.ConnectivityEvent{Online: online, Time: e.now()})
}

// Online reports the current connectivity flag.
func (e *Engine) Online() bool { return e.online.Load() }

// SyncOfflineRequests drains the offline queue once through the replay
// pipeline. A drain already in flight makes this a no-op.
func (e *Engine) SyncOfflineRequests(ctx context.Context) (int, error) {
	if e.syncer == nil {
		return 0, fmt.Errorf("engine: no syncer configured")
	}
	n, err := e.syncer.DrainAndSync(ctx)
	e.recordQueueDepth(ctx)
	return n, err
}

func (e *Engine) resolveLocation(ctx context.Context, in Request) (model.Location, error) {
	if in.Location != nil && !in.Location.IsZero() {
		return *in.Location, nil
	}
	if e.provider != nil {
		loc, err := e.provider.GetCurrentLocation(ctx)
		if err == nil {
			return loc, nil
		}
		// PermissionDenied and Timeout both fall through to the pin code;
		// retrying the provider indefinitely would delay dispatch.
		e.log.Warnf("location provider failed: %v", err)
	}
	if in.PinCode != "" && e.resolver != nil {
		if loc, ok := e.resolver.Resolve(in.PinCode); ok {
			return loc, nil
		}
		e.log.Warnf("unknown pin code %q", in.PinCode)
	}
	return model.Location{}, ErrLocationUnavailable
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) record(out metrics.DispatchOutcome) {
	if err := e.sink.RecordDispatchOutcome(out); err != nil {
		e.log.Errorf("metrics sink error: %v", err)
	}
}

func (e *Engine) recordQueueDepth(ctx context.Context) {
	qr, ok := e.sink.(metrics.QueueDepthRecorder)
	if !ok {
		return
	}
	depth, err := e.queue.Depth(ctx)
	if err != nil {
		e.log.Errorf("queue depth read: %v", err)
		return
	}
	if err := qr.RecordQueueDepth(depth); err != nil {
		e.log.Errorf("queue depth metrics error: %v", err)
	}
}

func (e *Engine) appendAudit(ctx context.Context, req model.EmergencyRequest, resp model.EmergencyResponse, res notify.Result) {
	rec := audit.Record{
		Timestamp:        e.now(),
		RequestID:        req.ID,
		PatientID:        req.PatientID,
		Status:           req.Status,
		Tier:             resp.Tier,
		ETAMinutes:       resp.ETAMinutes,
		ContactsNotified: res.NotifiedNames,
		ContactsFailed:   res.FailedNames,
		DriverNotified:   res.DriverNotified,
		OfflineMode:      resp.OfflineMode,
		Message:          resp.Message,
	}
	if resp.AssignedVehicle != nil {
		rec.VehicleID = resp.AssignedVehicle.ID
	}
	if err := e.auditLog.Append(ctx, rec); err != nil {
		e.log.Errorf("audit append for %s: %v", req.ID, err)
	}
}

func outcomeMessage(vehicle *model.Vehicle, tier model.Tier, notified int) string {
	switch tier {
	case model.TierPrimary:
		return fmt.Sprintf("Ambulance %s driven by %s dispatched, ETA %d minutes",
			vehicle.LicensePlate, vehicle.DriverName, vehicle.ETAMinutes)
	case model.TierFallback:
		return fmt.Sprintf("No ambulance in range; local transport driven by %s dispatched, ETA %d minutes",
			vehicle.DriverName, vehicle.ETAMinutes)
	default:
		return fmt.Sprintf("No response vehicle available; %d emergency contacts notified", notified)
	}
}
