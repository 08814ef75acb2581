package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisetu/dispatch/core/model"
)

func testFleet() []model.Vehicle {
	return []model.Vehicle{
		model.NewAmbulance("amb-1", "Ravi", "+911001", "PB-01-1001", []string{"oxygen"}, model.Location{Latitude: 30, Longitude: 76}),
		model.NewAmbulance("amb-2", "Sunil", "+911002", "PB-01-1002", nil, model.Location{Latitude: 30.1, Longitude: 76.1}),
		model.NewLocalTransport("lt-1", "Iqbal", "+911003", 4, model.Location{Latitude: 30.5, Longitude: 76.5}),
	}
}

func TestNewRejectsInvalidFleet(t *testing.T) {
	_, err := New([]model.Vehicle{{ID: "x"}})
	assert.Error(t, err)

	fleet := testFleet()
	fleet = append(fleet, fleet[0])
	_, err = New(fleet)
	assert.Error(t, err)
}

func TestListAvailableFiltersByTier(t *testing.T) {
	r, err := New(testFleet())
	require.NoError(t, err)

	ambs := r.ListAvailable(model.TierPrimary)
	require.Len(t, ambs, 2)
	assert.Equal(t, "amb-1", ambs[0].ID)
	assert.Equal(t, "amb-2", ambs[1].ID)

	lts := r.ListAvailable(model.TierFallback)
	require.Len(t, lts, 1)
	assert.Equal(t, "lt-1", lts[0].ID)
}

func TestTryReserveAndRelease(t *testing.T) {
	r, err := New(testFleet())
	require.NoError(t, err)

	assert.True(t, r.TryReserve("amb-1"))
	assert.False(t, r.TryReserve("amb-1"), "double reservation must fail")
	assert.False(t, r.TryReserve("ghost"))

	ambs := r.ListAvailable(model.TierPrimary)
	require.Len(t, ambs, 1)
	assert.Equal(t, "amb-2", ambs[0].ID)

	r.Release("amb-1")
	assert.Len(t, r.ListAvailable(model.TierPrimary), 2)
}

func TestSnapshotDoesNotAliasRegistryState(t *testing.T) {
	r, err := New(testFleet())
	require.NoError(t, err)
	snap := r.ListAvailable(model.TierPrimary)
	snap[0].Available = false
	v, ok := r.Get(snap[0].ID)
	require.True(t, ok)
	assert.True(t, v.Available)
}

func TestConcurrentReservationSingleWinner(t *testing.T) {
	r, err := New(testFleet())
	require.NoError(t, err)

	const workers = 32
	var wg sync.WaitGroup
	wins := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryReserve("lt-1") {
				wins <- "lt-1"
			}
		}()
	}
	wg.Wait()
	close(wins)
	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one goroutine may win the reservation")
}
