package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/medisetu/dispatch/core/logger"
	"github.com/medisetu/dispatch/core/model"
)

// Fanout dispatches one alert per recipient concurrently and joins the
// results. One contact's failure never aborts the others, and driver
// notification is independent of contact notification.
type Fanout struct {
	contacts Notifier
	drivers  Notifier
	log      logger.Logger
}

// NewFanout creates a Fanout. The driver notifier may equal the contact
// notifier when a single transport serves both.
func NewFanout(contacts, drivers Notifier, log logger.Logger) *Fanout {
	return &Fanout{contacts: contacts, drivers: drivers, log: log}
}

// Result reports the outcome of one fan-out pass.
type Result struct {
	// NotifiedNames lists contacts whose alert was handed to the transport.
	NotifiedNames []string
	// FailedNames lists contacts whose alert errored.
	FailedNames []string
	// DriverNotified is true when an assigned driver acknowledged the alert
	// send (not delivery; delivery is best effort).
	DriverNotified bool
}

// Notify alerts every contact in the request snapshot and, when a vehicle is
// assigned, its driver. Errors are logged and folded into the result.
func (f *Fanout) Notify(ctx context.Context, req model.EmergencyRequest, vehicle *model.Vehicle) Result {
	var (
		res Result
		mu  sync.Mutex
		wg  sync.WaitGroup
	)

	msg := contactMessage(req, vehicle)
	for _, c := range req.Contacts {
		wg.Add(1)
		go func(c model.EmergencyContact) {
			defer wg.Done()
			err := f.contacts.SendAlert(ctx, c.Phone, msg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.log.Errorf("contact alert to %s (%s) failed: %v", c.Name, c.Phone, err)
				res.FailedNames = append(res.FailedNames, c.Name)
				return
			}
			res.NotifiedNames = append(res.NotifiedNames, c.Name)
		}(c)
	}

	if vehicle != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.drivers.SendAlert(ctx, vehicle.Phone, driverMessage(req))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.log.Errorf("driver alert to %s (%s) failed: %v", vehicle.DriverName, vehicle.Phone, err)
				return
			}
			res.DriverNotified = true
		}()
	}

	wg.Wait()
	return res
}

func contactMessage(req model.EmergencyRequest, vehicle *model.Vehicle) string {
	base := fmt.Sprintf("EMERGENCY: %s needs help at (%.4f, %.4f).",
		req.PatientName, req.Location.Latitude, req.Location.Longitude)
	if vehicle == nil {
		return base + " No response vehicle is available yet."
	}
	return fmt.Sprintf("%s %s is on the way, ETA %d min.", base, vehicle.Describe(), vehicle.ETAMinutes)
}

func driverMessage(req model.EmergencyRequest) string {
	return fmt.Sprintf("DISPATCH %s: pick up %s at (%.4f, %.4f), health id %s",
		req.ID, req.PatientName, req.Location.Latitude, req.Location.Longitude, req.HealthID)
}
