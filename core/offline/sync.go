package offline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/medisetu/dispatch/core/events"
	"github.com/medisetu/dispatch/core/logger"
	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/internal/eventbus"
)

// Replayer re-runs the full dispatch pipeline for a queued request. "No
// vehicle available" is still a successful replay; only a pipeline error
// keeps the item queued.
type Replayer interface {
	Replay(ctx context.Context, req model.EmergencyRequest) (model.EmergencyResponse, error)
}

// Syncer drains the offline queue through the replayer. A drain runs on
// reconnect events and on a periodic timer, never concurrently with itself.
type Syncer struct {
	queue    *Queue
	replayer Replayer
	bus      eventbus.EventBus
	log      logger.Logger
	draining atomic.Bool
}

// NewSyncer creates a Syncer. The bus may be nil when no consumers exist.
func NewSyncer(queue *Queue, replayer Replayer, bus eventbus.EventBus, log logger.Logger) *Syncer {
	return &Syncer{queue: queue, replayer: replayer, bus: bus, log: log}
}

// DrainAndSync replays every queued request and removes the ones whose
// pipeline call returned a response. Items whose replay errors stay queued
// for the next cycle; replay is idempotent because request ids are stable and
// reservation keys off current availability, not request identity. Returns
// the number of requests replayed out of the queue. Re-entrant calls are
// no-ops.
func (s *Syncer) DrainAndSync(ctx context.Context) (int, error) {
	if !s.draining.CompareAndSwap(false, true) {
		s.log.Debugf("drain already in flight, skipping")
		return 0, nil
	}
	defer s.draining.Store(false)

	pending, err := s.queue.Pending(ctx)
	if err != nil {
		return 0, err
	}
	replayed := 0
	for _, req := range pending {
		if req.Status != model.StatusPending {
			// Enqueue forces PENDING; anything else is a stale record.
			if err := s.queue.Remove(ctx, req.ID); err != nil {
				s.log.Errorf("drop stale queue entry %s: %v", req.ID, err)
			}
			continue
		}
		resp, err := s.replayer.Replay(ctx, req)
		if err != nil {
			s.log.Warnf("replay of %s failed, keeping queued: %v", req.ID, err)
			continue
		}
		if err := s.queue.Remove(ctx, req.ID); err != nil {
			s.log.Errorf("remove drained entry %s: %v", req.ID, err)
			continue
		}
		replayed++
		s.log.Infof("request %s replayed: %s", req.ID, resp.Message)
	}
	remaining := len(pending) - replayed
	if s.bus != nil {
		s.bus.Publish(events.DrainEvent{Replayed: replayed, Remaining: remaining, Time: time.Now()})
	}
	return replayed, nil
}

// Run drains the queue on every reconnect event and on the given interval
// until the context is canceled.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	var busCh <-chan eventbus.Event
	if s.bus != nil {
		busCh = s.bus.Subscribe()
		defer s.bus.Unsubscribe(busCh)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-busCh:
			if !ok {
				busCh = nil
				continue
			}
			if ce, isConn := ev.(events.ConnectivityEvent); isConn && ce.Online {
				s.drainLogged(ctx)
			}
		case <-ticker.C:
			s.drainLogged(ctx)
		}
	}
}

func (s *Syncer) drainLogged(ctx context.Context) {
	if _, err := s.DrainAndSync(ctx); err != nil {
		s.log.Errorf("offline drain failed: %v", err)
	}
}
