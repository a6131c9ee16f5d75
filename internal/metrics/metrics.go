package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the Prometheus instruments for the ingestion/irrigation
// pipeline. Registered once at startup.
type Metrics struct {
	ReadingsIngested    prometheus.Counter
	ReadingsRejected    prometheus.Counter
	IrrigationsDetected prometheus.Counter
	PumpActivations     *prometheus.CounterVec
	Notifications       *prometheus.CounterVec
	RealtimeClients     prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensor_readings_ingested_total",
			Help: "Total sensor readings accepted and persisted.",
		}),
		ReadingsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensor_readings_rejected_total",
			Help: "Total sensor readings rejected by validation.",
		}),
		IrrigationsDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "irrigation_events_detected_total",
			Help: "Total provisional irrigation events raised by the detection engine.",
		}),
		PumpActivations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pump_activations_total",
			Help: "Total pump activation attempts by result.",
		}, []string{"result"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total notifications dispatched by type, including deduplicated skips.",
		}, []string{"type", "outcome"}),
		RealtimeClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connected_clients",
			Help: "Currently connected websocket clients.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsIngested,
		m.ReadingsRejected,
		m.IrrigationsDetected,
		m.PumpActivations,
		m.Notifications,
		m.RealtimeClients,
	)

	return m
}
