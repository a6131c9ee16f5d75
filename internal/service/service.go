package service

import (
	"smart_greenhouse/internal/device"
	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/metrics"
	"smart_greenhouse/internal/repository"
	"smart_greenhouse/internal/timeseries"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Root Service aggregates all sub-services.
type Service struct {
	Authorization
	Ingestion
	Pump
	Irrigation
	Automation
	NotificationQueries
	Dispatcher
}

// Deps carries everything the service layer needs from the outside.
type Deps struct {
	Repos        *repository.Repository
	DeviceClient device.Client
	Hub          Broadcaster
	Metrics      *metrics.Metrics
	Mirror       *timeseries.Mirror
	Predictor    HealthPredictor // nil disables health scoring
	SigningKey   string
	Log          *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(d Deps) *Service {
	dispatcher := NewNotifierService(d.Repos.Notifications, d.Hub, d.Metrics, d.Log)
	detector := NewDetectionService(
		d.Repos.Readings, d.Repos.Irrigations, d.Repos.PumpOps, d.Repos.Greenhouses,
		dispatcher, d.Metrics, d.Log,
	)

	return &Service{
		Authorization: NewAuthService(d.Repos.Auth, d.SigningKey),
		Ingestion: NewIngestionService(
			d.Repos.Greenhouses, d.Repos.Readings, detector, d.Predictor,
			d.Mirror, d.Metrics, d.Log,
		),
		Pump: NewPumpService(
			d.Repos.PumpOps, d.Repos.Devices, d.Repos.Greenhouses,
			d.DeviceClient, dispatcher, d.Metrics, d.Log,
		),
		Irrigation:          NewIrrigationService(d.Repos.Irrigations, d.Repos.Greenhouses, dispatcher, d.Log),
		Automation:          NewAutomationService(d.Repos.Greenhouses, d.Repos.Irrigations, dispatcher, d.Log),
		NotificationQueries: NewNotificationQueryService(d.Repos.Notifications),
		Dispatcher:          dispatcher,
	}
}
