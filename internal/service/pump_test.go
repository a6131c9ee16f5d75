package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"smart_greenhouse/internal/device"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/repository"
)

type fakeDeviceClient struct {
	activateResp string
	activateErr  error
	stopErr      error
	activations  []device.ActivateCommand
	stops        []device.StopCommand
}

func (f *fakeDeviceClient) Activate(ctx context.Context, addr string, cmd device.ActivateCommand) (string, error) {
	f.activations = append(f.activations, cmd)
	return f.activateResp, f.activateErr
}

func (f *fakeDeviceClient) Stop(ctx context.Context, addr string, cmd device.StopCommand) error {
	f.stops = append(f.stops, cmd)
	return f.stopErr
}

type fakeDevices struct {
	online *models.Device
	getErr error
}

func (f *fakeDevices) GetOnline(ctx context.Context, greenhouseID string) (*models.Device, error) {
	return f.online, f.getErr
}

func (f *fakeDevices) List(ctx context.Context) ([]models.Device, error) { return nil, nil }

func (f *fakeDevices) SetOnline(ctx context.Context, id string, online bool, seenAt time.Time) error {
	return nil
}

func newPumpService(ops *fakePumpOps, devs *fakeDevices, ghs *fakeGreenhouses, client *fakeDeviceClient, d *fakeDispatcher) *PumpService {
	return NewPumpService(ops, devs, ghs, client, d, nil, nil)
}

func onlineDevice(gh string) *models.Device {
	return &models.Device{ID: "dev-1", GreenhouseID: gh, Address: "10.0.0.5:80", Online: true}
}

func TestPumpService_Activate_Success(t *testing.T) {
	ops := &fakePumpOps{}
	client := &fakeDeviceClient{activateResp: `{"status":"pump_on"}`}
	d := &fakeDispatcher{}
	s := newPumpService(ops, &fakeDevices{online: onlineDevice("gh-1")}, singleGreenhouse("gh-1", "7"), client, d)

	op, err := s.Activate(context.Background(), "gh-1", ActivationParams{DurationSec: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Status != models.OpStatusActive {
		t.Fatalf("expected active status, got %s", op.Status)
	}
	if op.Reason != "manual" {
		t.Fatalf("expected default reason manual, got %s", op.Reason)
	}
	if len(client.activations) != 1 {
		t.Fatalf("expected 1 device call, got %d", len(client.activations))
	}
	if client.activations[0].OperationID != op.ID {
		t.Fatalf("device command carries wrong operation id")
	}
	if ops.responses[op.ID] != `{"status":"pump_on"}` {
		t.Fatalf("device response not stored")
	}
	evt := requireDispatched(t, d, models.NotifPumpActivated)
	if evt.UserID != "7" || evt.GreenhouseID != "gh-1" {
		t.Fatalf("notification routed to wrong owner: %+v", evt)
	}
}

func TestPumpService_Activate_Conflict(t *testing.T) {
	ops := &fakePumpOps{createErr: repository.ErrDuplicateActive}
	client := &fakeDeviceClient{}
	s := newPumpService(ops, &fakeDevices{online: onlineDevice("gh-1")}, singleGreenhouse("gh-1", "7"), client, &fakeDispatcher{})

	_, err := s.Activate(context.Background(), "gh-1", ActivationParams{DurationSec: 30})
	if !errors.Is(err, ErrPumpActive) {
		t.Fatalf("expected ErrPumpActive, got %v", err)
	}
	if len(client.activations) != 0 {
		t.Fatalf("device must not be contacted on conflict")
	}
}

func TestPumpService_Activate_DeviceFailureFinalizesOperation(t *testing.T) {
	ops := &fakePumpOps{}
	client := &fakeDeviceClient{activateErr: errors.New("dial tcp: connection refused")}
	d := &fakeDispatcher{}
	s := newPumpService(ops, &fakeDevices{online: onlineDevice("gh-1")}, singleGreenhouse("gh-1", "7"), client, d)

	_, err := s.Activate(context.Background(), "gh-1", ActivationParams{DurationSec: 30})
	var commErr *DeviceCommError
	if !errors.As(err, &commErr) {
		t.Fatalf("expected DeviceCommError, got %v", err)
	}
	if commErr.Category != "connection_refused" {
		t.Fatalf("expected connection_refused category, got %s", commErr.Category)
	}
	if len(ops.finalized) != 1 || ops.finalized[0].status != models.OpStatusError {
		t.Fatalf("operation must be finalized as error, got %+v", ops.finalized)
	}
	evt := requireDispatched(t, d, models.NotifPumpFailed)
	if evt.Payload["category"] != "connection_refused" {
		t.Fatalf("failure notification missing category: %+v", evt.Payload)
	}
}

func TestPumpService_Activate_NoOnlineDevice(t *testing.T) {
	ops := &fakePumpOps{}
	s := newPumpService(ops, &fakeDevices{}, singleGreenhouse("gh-1", "7"), &fakeDeviceClient{}, &fakeDispatcher{})

	_, err := s.Activate(context.Background(), "gh-1", ActivationParams{DurationSec: 30})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
	if len(ops.finalized) != 1 || ops.finalized[0].status != models.OpStatusError {
		t.Fatalf("orphaned record must be finalized, got %+v", ops.finalized)
	}
}

func TestPumpService_Activate_Validation(t *testing.T) {
	s := newPumpService(&fakePumpOps{}, &fakeDevices{}, singleGreenhouse("gh-1", "7"), &fakeDeviceClient{}, &fakeDispatcher{})

	for _, dur := range []int{0, -5, 3601} {
		_, err := s.Activate(context.Background(), "gh-1", ActivationParams{DurationSec: dur})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("duration %d: expected validation error, got %v", dur, err)
		}
	}

	_, err := s.Activate(context.Background(), "gh-1", ActivationParams{DurationSec: 30, WaterAmountL: floatPtr(-1)})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for negative water amount, got %v", err)
	}
}

func TestPumpService_Activate_UnknownGreenhouse(t *testing.T) {
	s := newPumpService(&fakePumpOps{}, &fakeDevices{}, singleGreenhouse("gh-1", "7"), &fakeDeviceClient{}, &fakeDispatcher{})

	_, err := s.Activate(context.Background(), "missing", ActivationParams{DurationSec: 30})
	if !errors.Is(err, ErrGreenhouseNotFound) {
		t.Fatalf("expected ErrGreenhouseNotFound, got %v", err)
	}
}

func TestPumpService_Stop_NoActiveOperation(t *testing.T) {
	s := newPumpService(&fakePumpOps{}, &fakeDevices{}, singleGreenhouse("gh-1", "7"), &fakeDeviceClient{}, &fakeDispatcher{})

	_, err := s.Stop(context.Background(), "gh-1")
	if !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestPumpService_Stop_CancelsEvenWhenDeviceUnreachable(t *testing.T) {
	active := &models.PumpOperation{
		ID:           "op-1",
		GreenhouseID: "gh-1",
		DurationSec:  60,
		Status:       models.OpStatusActive,
		StartedAt:    time.Now().UTC().Add(-10 * time.Second),
	}
	ops := &fakePumpOps{active: active}
	client := &fakeDeviceClient{stopErr: errors.New("timeout")}
	s := newPumpService(ops, &fakeDevices{online: onlineDevice("gh-1")}, singleGreenhouse("gh-1", "7"), client, &fakeDispatcher{})

	op, err := s.Stop(context.Background(), "gh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Status != models.OpStatusCancelled {
		t.Fatalf("expected cancelled, got %s", op.Status)
	}
	if len(ops.finalized) != 1 || ops.finalized[0].status != models.OpStatusCancelled {
		t.Fatalf("expected one cancel finalize, got %+v", ops.finalized)
	}
	if len(client.stops) != 1 {
		t.Fatalf("expected best-effort stop call")
	}
}

func TestPumpService_Status(t *testing.T) {
	s := newPumpService(&fakePumpOps{}, &fakeDevices{}, singleGreenhouse("gh-1", "7"), &fakeDeviceClient{}, &fakeDispatcher{})

	st, err := s.Status(context.Background(), "gh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Active {
		t.Fatalf("expected inactive status")
	}

	active := &models.PumpOperation{
		ID:           "op-1",
		GreenhouseID: "gh-1",
		DurationSec:  60,
		Status:       models.OpStatusActive,
		StartedAt:    time.Now().UTC().Add(-20 * time.Second),
	}
	s = newPumpService(&fakePumpOps{active: active}, &fakeDevices{}, singleGreenhouse("gh-1", "7"), &fakeDeviceClient{}, &fakeDispatcher{})
	st, err = s.Status(context.Background(), "gh-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.Active {
		t.Fatalf("expected active status")
	}
	if st.RemainingSec < 35 || st.RemainingSec > 41 {
		t.Fatalf("remaining seconds out of expected range: %d", st.RemainingSec)
	}
}
