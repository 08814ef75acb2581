package offline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/infra/logger"
	"github.com/medisetu/dispatch/infra/storage"
)

func TestEnqueueForcesPending(t *testing.T) {
	q := NewQueue(storage.NewMemoryKV(), logger.NopLogger{})
	ctx := context.Background()

	v := model.NewAmbulance("amb-1", "Ravi", "+91", "PB-01", nil, model.Location{})
	req := model.EmergencyRequest{ID: "r1", Status: model.StatusAssigned, AssignedVehicle: &v}
	require.NoError(t, q.Enqueue(ctx, req))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.StatusPending, pending[0].Status)
	assert.Nil(t, pending[0].AssignedVehicle, "reservation is dropped on enqueue")
}

func TestEnqueueIsKeyedByRequestID(t *testing.T) {
	q := NewQueue(storage.NewMemoryKV(), logger.NopLogger{})
	ctx := context.Background()

	req := model.EmergencyRequest{ID: "r1", Status: model.StatusPending}
	require.NoError(t, q.Enqueue(ctx, req))
	require.NoError(t, q.Enqueue(ctx, req), "re-enqueue with the same id overwrites")

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestRemove(t *testing.T) {
	q := NewQueue(storage.NewMemoryKV(), logger.NopLogger{})
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, model.EmergencyRequest{ID: "r1", Status: model.StatusPending}))
	require.NoError(t, q.Remove(ctx, "r1"))
	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestPendingSkipsCorruptEntries(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, "queue/bad", []byte("{not json")))
	q := NewQueue(kv, logger.NopLogger{})
	require.NoError(t, q.Enqueue(ctx, model.EmergencyRequest{ID: "r1", Status: model.StatusPending}))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "r1", pending[0].ID)
}
