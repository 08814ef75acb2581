// Package offline implements the durable local queue that captures emergency
// requests raised while the network is down, and the replay protocol that
// drains them when connectivity returns.
package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medisetu/dispatch/core/logger"
	"github.com/medisetu/dispatch/core/model"
)

// keyPrefix namespaces queue entries inside the shared key-value store.
const keyPrefix = "queue/"

// KVStore is the durable local storage collaborator backing the queue.
type KVStore interface {
	Put(ctx context.Context, key string, value []byte) error
	// GetAll returns all records whose key starts with prefix, keyed by the
	// full key.
	GetAll(ctx context.Context, prefix string) (map[string][]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Queue is a durable list of requests keyed by request id.
type Queue struct {
	kv  KVStore
	log logger.Logger
}

// NewQueue creates a Queue over the given store.
func NewQueue(kv KVStore, log logger.Logger) *Queue {
	return &Queue{kv: kv, log: log}
}

// Enqueue serializes the request into the store. The status is forced back to
// PENDING so replay runs the full pipeline, and any assigned vehicle is
// dropped since the reservation never happened.
func (q *Queue) Enqueue(ctx context.Context, req model.EmergencyRequest) error {
	req = req.Clone()
	req.Status = model.StatusPending
	req.AssignedVehicle = nil
	b, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request %s: %w", req.ID, err)
	}
	if err := q.kv.Put(ctx, keyPrefix+req.ID, b); err != nil {
		return fmt.Errorf("persist request %s: %w", req.ID, err)
	}
	q.log.Infof("request %s queued for offline replay", req.ID)
	return nil
}

// Pending returns all queued requests. Entries that fail to decode are logged
// and skipped rather than wedging the whole drain.
func (q *Queue) Pending(ctx context.Context) ([]model.EmergencyRequest, error) {
	records, err := q.kv.GetAll(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.EmergencyRequest, 0, len(records))
	for key, raw := range records {
		var req model.EmergencyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			q.log.Errorf("corrupt queue entry %s: %v", key, err)
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

// Remove deletes the queue entry for the given request id.
func (q *Queue) Remove(ctx context.Context, requestID string) error {
	return q.kv.Delete(ctx, keyPrefix+requestID)
}

// Depth returns the number of queued entries.
func (q *Queue) Depth(ctx context.Context) (int, error) {
	records, err := q.kv.GetAll(ctx, keyPrefix)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
