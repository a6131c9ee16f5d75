package service

import (
	"context"
	"testing"
	"time"

	"smart_greenhouse/internal/models"
)

// Hand-rolled fakes for the repository interfaces, shared by the service
// tests in this package.

type fakeGreenhouses struct {
	byID      map[string]*models.Greenhouse
	getErr    error
	snapshots []models.CurrentValues
}

func (f *fakeGreenhouses) Get(ctx context.Context, id string) (*models.Greenhouse, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.byID[id], nil
}

func (f *fakeGreenhouses) UpdateSnapshot(ctx context.Context, id string, v models.CurrentValues, seenAt time.Time) error {
	f.snapshots = append(f.snapshots, v)
	return nil
}

type fakeReadings struct {
	created    []models.SensorReading
	latest     *models.SensorReading
	latestErr  error
	createErr  error
	healthSets map[string]float64
}

func (f *fakeReadings) Create(ctx context.Context, r models.SensorReading) error {
	f.created = append(f.created, r)
	return f.createErr
}

func (f *fakeReadings) LatestBefore(ctx context.Context, greenhouseID string, ts time.Time) (*models.SensorReading, error) {
	return f.latest, f.latestErr
}

func (f *fakeReadings) List(ctx context.Context, greenhouseID string, limit int) ([]models.SensorReading, error) {
	return f.created, nil
}

func (f *fakeReadings) SetHealthScore(ctx context.Context, id string, score float64) error {
	if f.healthSets == nil {
		f.healthSets = make(map[string]float64)
	}
	f.healthSets[id] = score
	return nil
}

type fakePumpOps struct {
	createErr   error
	created     []models.PumpOperation
	active      *models.PumpOperation
	finalized   []finalizeCall
	finalizeErr error
	since       []models.PumpOperation
	responses   map[string]string
}

type finalizeCall struct {
	id      string
	status  string
	message string
	endedAt time.Time
}

func (f *fakePumpOps) CreateActive(ctx context.Context, op models.PumpOperation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, op)
	return nil
}

func (f *fakePumpOps) Finalize(ctx context.Context, id, status, errorMessage string, endedAt time.Time) error {
	if f.finalizeErr != nil {
		return f.finalizeErr
	}
	f.finalized = append(f.finalized, finalizeCall{id: id, status: status, message: errorMessage, endedAt: endedAt})
	return nil
}

func (f *fakePumpOps) SetDeviceResponse(ctx context.Context, id, raw string) error {
	if f.responses == nil {
		f.responses = make(map[string]string)
	}
	f.responses[id] = raw
	return nil
}

func (f *fakePumpOps) GetActive(ctx context.Context, greenhouseID string) (*models.PumpOperation, error) {
	return f.active, nil
}

func (f *fakePumpOps) Get(ctx context.Context, id string) (*models.PumpOperation, error) {
	for i := range f.created {
		if f.created[i].ID == id {
			return &f.created[i], nil
		}
	}
	return nil, nil
}

func (f *fakePumpOps) List(ctx context.Context, greenhouseID string, limit int) ([]models.PumpOperation, error) {
	return f.created, nil
}

func (f *fakePumpOps) ListSince(ctx context.Context, greenhouseID string, since time.Time) ([]models.PumpOperation, error) {
	return f.since, nil
}

func (f *fakePumpOps) ListElapsedActive(ctx context.Context, now time.Time) ([]models.PumpOperation, error) {
	var out []models.PumpOperation
	for _, op := range f.created {
		if op.Status == models.OpStatusActive && !now.Before(op.ExpectedEnd()) {
			out = append(out, op)
		}
	}
	return out, nil
}

type fakeIrrigations struct {
	created      []models.IrrigationEvent
	createErr    error
	byID         map[string]*models.IrrigationEvent
	lastDetected *models.IrrigationEvent
	confirmed    []string
}

func (f *fakeIrrigations) Create(ctx context.Context, e models.IrrigationEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, e)
	return nil
}

func (f *fakeIrrigations) Get(ctx context.Context, id string) (*models.IrrigationEvent, error) {
	return f.byID[id], nil
}

func (f *fakeIrrigations) Confirm(ctx context.Context, id, newType, userID string, waterAmount *float64, notes string) error {
	f.confirmed = append(f.confirmed, id)
	return nil
}

func (f *fakeIrrigations) LatestDetectedSince(ctx context.Context, greenhouseID string, since time.Time) (*models.IrrigationEvent, error) {
	return f.lastDetected, nil
}

func (f *fakeIrrigations) ListPending(ctx context.Context, limit int) ([]models.IrrigationEvent, error) {
	return f.created, nil
}

func (f *fakeIrrigations) List(ctx context.Context, greenhouseID string, limit int) ([]models.IrrigationEvent, error) {
	return f.created, nil
}

type fakeNotifications struct {
	created   []models.Notification
	createErr error
	exists    bool
}

func (f *fakeNotifications) Create(ctx context.Context, n models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotifications) ExistsSince(ctx context.Context, userID, typ string, since time.Time) (bool, error) {
	return f.exists, nil
}

func (f *fakeNotifications) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	return f.created, nil
}

func (f *fakeNotifications) MarkRead(ctx context.Context, id, userID string) error { return nil }
func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID string) error  { return nil }
func (f *fakeNotifications) Delete(ctx context.Context, id, userID string) error   { return nil }

// fakeDispatcher records dispatched events.
type fakeDispatcher struct {
	events      []Event
	dispatchErr error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, evt Event) (DispatchResult, error) {
	if f.dispatchErr != nil {
		return "", f.dispatchErr
	}
	f.events = append(f.events, evt)
	return DispatchCreated, nil
}

// fakeBroadcaster records hub publishes.
type fakeBroadcaster struct {
	frames []publishedFrame
}

type publishedFrame struct {
	room  string
	event string
	data  any
}

func (f *fakeBroadcaster) Publish(room, event string, data any) {
	f.frames = append(f.frames, publishedFrame{room: room, event: event, data: data})
}

func singleGreenhouse(id, userID string) *fakeGreenhouses {
	return &fakeGreenhouses{byID: map[string]*models.Greenhouse{
		id: {ID: id, UserID: userID, Name: "test greenhouse"},
	}}
}

func requireDispatched(t *testing.T, d *fakeDispatcher, typ string) Event {
	t.Helper()
	for _, e := range d.events {
		if e.Type == typ {
			return e
		}
	}
	t.Fatalf("expected a dispatched %q event, got %v", typ, d.events)
	return Event{}
}

func floatPtr(v float64) *float64 { return &v }
