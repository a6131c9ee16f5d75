package timeseries

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/models"
)

// Mirror copies accepted sensor readings into InfluxDB for long-horizon
// analytics. Writes go through the non-blocking WriteAPI and are strictly
// best-effort: the primary store is SQLite, and a mirror failure is only
// logged.
type Mirror struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      *logger.Logger
}

// NewMirror connects to Influx and starts draining the async error channel.
// Returns nil when url is empty, and callers treat a nil mirror as disabled.
func NewMirror(url, token, org, bucket string, log *logger.Logger) *Mirror {
	if url == "" {
		return nil
	}
	client := influxdb2.NewClient(url, token)
	writeAPI := client.WriteAPI(org, bucket)

	m := &Mirror{client: client, writeAPI: writeAPI, log: log}
	go func() {
		for err := range writeAPI.Errors() {
			if err != nil && log != nil {
				log.Warnw("influx_write_failed", "err", err)
			}
		}
	}()
	return m
}

// Write enqueues a reading point. Never blocks, never returns an error.
func (m *Mirror) Write(r models.SensorReading) {
	if m == nil {
		return
	}
	p := influxdb2.NewPoint(
		"sensor_reading",
		map[string]string{"greenhouse": r.GreenhouseID},
		map[string]any{
			"air_temperature":  r.AirTemp,
			"air_humidity":     r.AirHumidity,
			"soil_moisture":    r.SoilMoisture,
			"soil_temperature": r.SoilTemp,
		},
		r.RecordedAt,
	)
	m.writeAPI.WritePoint(p)
}

// Close flushes pending points and releases the client.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.writeAPI.Flush()
	m.client.Close()
}
