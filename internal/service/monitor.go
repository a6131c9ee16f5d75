package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/repository"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMonitorInterval is how often every registered device is probed.
	DefaultMonitorInterval = 60 * time.Second

	probeTimeout     = 3 * time.Second
	probeMaxElapsed  = 12 * time.Second
	probeMaxInterval = 5 * time.Second
)

// DeviceMonitor probes registered control devices and keeps their online
// flags current so the orchestrator never routes a command to a dead board.
type DeviceMonitor struct {
	devices repository.Devices
	client  *http.Client
	log     *logger.Logger
}

func NewDeviceMonitor(devices repository.Devices, log *logger.Logger) *DeviceMonitor {
	return &DeviceMonitor{
		devices: devices,
		client:  &http.Client{Timeout: probeTimeout},
		log:     log,
	}
}

// Run probes all devices every interval until ctx is cancelled.
func (m *DeviceMonitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeAll(ctx)
		}
	}
}

func (m *DeviceMonitor) probeAll(ctx context.Context) {
	devs, err := m.devices.List(ctx)
	if err != nil {
		if m.log != nil {
			m.log.Errorw("device_monitor_list_failed", "err", err)
		}
		return
	}

	for _, dev := range devs {
		online := m.probe(ctx, dev.Address)
		if online == dev.Online {
			continue
		}
		if err := m.devices.SetOnline(ctx, dev.ID, online, time.Now().UTC()); err != nil {
			if m.log != nil {
				m.log.Errorw("device_monitor_update_failed", "device", dev.ID, "err", err)
			}
			continue
		}
		if m.log != nil {
			m.log.Infow("device_status_changed", "device", dev.ID, "greenhouse", dev.GreenhouseID, "online", online)
		}
	}
}

// probe hits the device's status endpoint with a short retry budget; a flaky
// link shouldn't flap the online flag on a single dropped packet.
func (m *DeviceMonitor) probe(ctx context.Context, addr string) bool {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = probeMaxInterval
	b.MaxElapsedTime = probeMaxElapsed

	err := backoff.Retry(func() error {
		return m.statusCheck(ctx, addr)
	}, backoff.WithContext(b, ctx))
	return err == nil
}

func (m *DeviceMonitor) statusCheck(ctx context.Context, addr string) error {
	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, "http://"+addr+"/pump/status", nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device status returned %d", resp.StatusCode)
	}
	return nil
}
