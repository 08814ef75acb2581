package notify

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medisetu/dispatch/core/model"
	"github.com/medisetu/dispatch/infra/logger"
)

func testRequest() model.EmergencyRequest {
	return model.EmergencyRequest{
		ID:          "req-1",
		PatientName: "Meera",
		HealthID:    "HID-42",
		Location:    model.Location{Latitude: 30, Longitude: 76},
		Contacts: []model.EmergencyContact{
			{ID: "c1", Name: "Asha", Phone: "+911", IsPrimary: true},
			{ID: "c2", Name: "Vikram", Phone: "+912"},
			{ID: "c3", Name: "Nadia", Phone: "+913"},
		},
	}
}

func TestNotifyAllContacts(t *testing.T) {
	n := NewMockNotifier()
	f := NewFanout(n, n, logger.NopLogger{})

	res := f.Notify(context.Background(), testRequest(), nil)
	sort.Strings(res.NotifiedNames)
	assert.Equal(t, []string{"Asha", "Nadia", "Vikram"}, res.NotifiedNames)
	assert.Empty(t, res.FailedNames)
	assert.False(t, res.DriverNotified)
}

func TestNotifyIsolatesContactFailures(t *testing.T) {
	contacts := NewMockNotifier()
	contacts.FailPhones["+911"] = true
	contacts.FailPhones["+913"] = true
	drivers := NewMockNotifier()
	f := NewFanout(contacts, drivers, logger.NopLogger{})

	v := model.NewAmbulance("amb-1", "Ravi", "+919", "PB-01", nil, model.Location{})
	res := f.Notify(context.Background(), testRequest(), &v)

	assert.Equal(t, []string{"Vikram"}, res.NotifiedNames)
	sort.Strings(res.FailedNames)
	assert.Equal(t, []string{"Asha", "Nadia"}, res.FailedNames)
	assert.True(t, res.DriverNotified, "contact failures must not affect the driver alert")
	assert.Equal(t, 1, drivers.Sent("+919"))
}

func TestNotifyDriverFailureIsolated(t *testing.T) {
	contacts := NewMockNotifier()
	drivers := NewMockNotifier()
	drivers.FailPhones["+919"] = true
	f := NewFanout(contacts, drivers, logger.NopLogger{})

	v := model.NewAmbulance("amb-1", "Ravi", "+919", "PB-01", nil, model.Location{})
	res := f.Notify(context.Background(), testRequest(), &v)

	assert.Len(t, res.NotifiedNames, 3, "driver failure must not affect contacts")
	assert.False(t, res.DriverNotified)
}

func TestContactMessageMentionsVehicle(t *testing.T) {
	req := testRequest()
	v := model.NewAmbulance("amb-1", "Ravi", "+919", "PB-01-1001", nil, model.Location{})
	v.ETAMinutes = 7

	msg := contactMessage(req, &v)
	assert.Contains(t, msg, "Ravi")
	assert.Contains(t, msg, "PB-01-1001")
	assert.Contains(t, msg, "ETA 7 min")

	msg = contactMessage(req, nil)
	assert.Contains(t, msg, "No response vehicle is available")
}

func TestStaticDirectorySnapshot(t *testing.T) {
	dir := StaticDirectory{"p1": {{ID: "c1", Name: "Asha"}}}
	got, err := dir.ContactsFor(context.Background(), "p1")
	require.NoError(t, err)
	got[0].Name = "changed"
	again, err := dir.ContactsFor(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", again[0].Name)
}
