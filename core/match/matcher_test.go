package match

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/core/registry"
	"github.com/medisetu/dispatch/infra/logger"
)

var patient = model.Location{Latitude: 30.000, Longitude: 76.000}

// at returns a location offset north of the patient by roughly km kilometers.
func at(km float64) model.Location {
	return model.Location{Latitude: patient.Latitude + km/111.19, Longitude: patient.Longitude}
}

func newMatcher(t *testing.T, fleet []model.Vehicle) (*Matcher, *registry.Registry) {
	t.Helper()
	reg, err := registry.New(fleet)
	require.NoError(t, err)
	return New(reg, Config{}, logger.NopLogger{}), reg
}

func TestMatchPicksNearestAmbulance(t *testing.T) {
	m, reg := newMatcher(t, []model.Vehicle{
		model.NewAmbulance("amb-far", "A", "+91", "P1", nil, at(7)),
		model.NewAmbulance("amb-near", "B", "+91", "P2", nil, at(3)),
	})

	v, tier := m.Match(patient)
	require.NotNil(t, v)
	assert.Equal(t, model.TierPrimary, tier)
	assert.Equal(t, "amb-near", v.ID)
	assert.False(t, v.Available)

	// The nearest one is now reserved; a second match sees only the other.
	v2, tier2 := m.Match(patient)
	require.NotNil(t, v2)
	assert.Equal(t, model.TierPrimary, tier2)
	assert.Equal(t, "amb-far", v2.ID)

	_ = reg
}

func TestMatchFallsBackOutsideRadius(t *testing.T) {
	m, _ := newMatcher(t, []model.Vehicle{
		model.NewAmbulance("amb-1", "A", "+91", "P1", nil, at(12)),
		model.NewLocalTransport("lt-1", "B", "+91", 3, at(70)),
	})

	v, tier := m.Match(patient)
	require.NotNil(t, v)
	assert.Equal(t, model.TierFallback, tier)
	assert.Equal(t, "lt-1", v.ID, "12 km ambulance is outside the 10 km radius")
}

func TestMatchNoVehicles(t *testing.T) {
	m, _ := newMatcher(t, nil)
	v, tier := m.Match(patient)
	assert.Nil(t, v)
	assert.Equal(t, model.TierNone, tier)
}

func TestMatchTieBreakByID(t *testing.T) {
	m, _ := newMatcher(t, []model.Vehicle{
		model.NewAmbulance("amb-b", "A", "+91", "P1", nil, at(2)),
		model.NewAmbulance("amb-a", "B", "+91", "P2", nil, at(2)),
	})
	v, _ := m.Match(patient)
	require.NotNil(t, v)
	assert.Equal(t, "amb-a", v.ID)
}

func TestMatchSkipsLostReservation(t *testing.T) {
	m, reg := newMatcher(t, []model.Vehicle{
		model.NewAmbulance("amb-1", "A", "+91", "P1", nil, at(1)),
		model.NewAmbulance("amb-2", "B", "+91", "P2", nil, at(2)),
	})
	// Simulate a concurrent request winning amb-1 after the snapshot.
	require.True(t, reg.TryReserve("amb-1"))

	v, tier := m.Match(patient)
	require.NotNil(t, v)
	assert.Equal(t, model.TierPrimary, tier)
	assert.Equal(t, "amb-2", v.ID)
}

func TestMatchConcurrentLastVehicle(t *testing.T) {
	m, _ := newMatcher(t, []model.Vehicle{
		model.NewAmbulance("amb-1", "A", "+91", "P1", nil, at(1)),
	})

	const callers = 16
	var wg sync.WaitGroup
	got := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, _ := m.Match(patient); v != nil {
				got <- v.ID
			}
		}()
	}
	wg.Wait()
	close(got)
	winners := 0
	for range got {
		winners++
	}
	assert.Equal(t, 1, winners, "only one caller may be assigned the last vehicle")
}

func TestETAFloorAndScaling(t *testing.T) {
	m, _ := newMatcher(t, nil)
	assert.Equal(t, 5, m.etaMinutes(0.16, model.TierPrimary), "short hops floor at 5 minutes")
	assert.Equal(t, 15, m.etaMinutes(10, model.TierPrimary), "10 km at 40 km/h")
	assert.Equal(t, 24, m.etaMinutes(10, model.TierFallback), "10 km at 25 km/h")
}
