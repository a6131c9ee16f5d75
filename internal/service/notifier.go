package service

import (
	"context"
	"fmt"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/metrics"
	"smart_greenhouse/internal/models"
	"smart_greenhouse/internal/realtime"
	"smart_greenhouse/internal/repository"
)

// dedupWindow suppresses repeat notifications from rate-sensitive sources
// (currently AI predictions re-evaluating frequently).
const dedupWindow = 2 * time.Hour

// DispatchResult reports what the dispatcher did with an event.
type DispatchResult string

const (
	DispatchCreated DispatchResult = "created"
	DispatchSkipped DispatchResult = "skipped"
)

// Event is a domain occurrence to notify the owning user about.
type Event struct {
	Type         string // models.Notif* or models.Prediction* constant
	UserID       string
	GreenhouseID string         // empty for events without a greenhouse scope
	Payload      map[string]any // raw event payload, echoed to the greenhouse channel
}

// Broadcaster is the push side of the realtime transport.
type Broadcaster interface {
	Publish(room, event string, data any)
}

// Dispatcher creates persisted notifications from domain events and pushes
// them through the realtime transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, evt Event) (DispatchResult, error)
}

type NotifierService struct {
	notifications repository.Notifications
	hub           Broadcaster
	metrics       *metrics.Metrics
	log           *logger.Logger
}

func NewNotifierService(notifications repository.Notifications, hub Broadcaster, m *metrics.Metrics, log *logger.Logger) *NotifierService {
	return &NotifierService{notifications: notifications, hub: hub, metrics: m, log: log}
}

var _ Dispatcher = (*NotifierService)(nil)

// Dispatch persists the notification and pushes it to the user's channel,
// plus the greenhouse channel for greenhouse-scoped events. Persistence and
// push are independent side effects: a failure in one never prevents the
// other from being attempted.
func (s *NotifierService) Dispatch(ctx context.Context, evt Event) (DispatchResult, error) {
	if isRateSensitive(evt.Type) {
		exists, err := s.notifications.ExistsSince(ctx, evt.UserID, evt.Type, time.Now().UTC().Add(-dedupWindow))
		if err != nil {
			return "", fmt.Errorf("notification dedup check: %w", err)
		}
		if exists {
			s.count(evt.Type, "skipped")
			return DispatchSkipped, nil
		}
	}

	title, message := buildContent(evt)
	n := models.Notification{
		UserID:    evt.UserID,
		Type:      evt.Type,
		Title:     title,
		Message:   message,
		Payload:   evt.Payload,
		CreatedAt: time.Now().UTC(),
	}

	persistErr := s.notifications.Create(ctx, n)
	if persistErr != nil && s.log != nil {
		s.log.Errorw("notification_persist_failed", "err", persistErr, "type", evt.Type, "user", evt.UserID)
	}

	if s.hub != nil {
		s.hub.Publish(realtime.UserRoom(evt.UserID), "notification", n)
		if evt.GreenhouseID != "" {
			s.hub.Publish(realtime.GreenhouseRoom(evt.GreenhouseID), echoEvent(evt.Type), evt.Payload)
		}
	}

	if persistErr != nil {
		return "", fmt.Errorf("persist notification: %w", persistErr)
	}
	s.count(evt.Type, "created")
	return DispatchCreated, nil
}

func (s *NotifierService) count(typ, outcome string) {
	if s.metrics != nil {
		s.metrics.Notifications.WithLabelValues(typ, outcome).Inc()
	}
}

func isRateSensitive(typ string) bool {
	switch typ {
	case models.PredictionMoistureDrop, models.PredictionTemperatureRise,
		models.PredictionHumidityDrop, models.PredictionOptimal:
		return true
	}
	return false
}

// echoEvent names the event-specific frame pushed to the greenhouse channel
// for device/UI listeners that don't need the notification envelope.
func echoEvent(typ string) string {
	switch typ {
	case models.NotifPumpActivated:
		return "pump-activated"
	case models.NotifPumpFailed:
		return "pump-failed"
	case models.NotifIrrigationDetected:
		return "irrigation-detected"
	case models.NotifIrrigationConfirmed:
		return "irrigation-confirmed"
	default:
		return "ai-prediction"
	}
}

// buildContent renders the per-type title/message templates.
func buildContent(evt Event) (string, string) {
	p := evt.Payload
	switch evt.Type {
	case models.NotifPumpActivated:
		if origin, _ := p["origin"].(string); origin == "automation" {
			return "Automatic irrigation completed",
				fmt.Sprintf("The automation agent irrigated your greenhouse: about %.1f L delivered over %d seconds.",
					num(p, "water_amount_l"), int(num(p, "duration_seconds")))
		}
		return "Pump activated",
			fmt.Sprintf("The water pump is running for %d seconds.", int(num(p, "duration_seconds")))
	case models.NotifPumpFailed:
		// Always the translated category, never the raw transport error.
		msg, _ := p["category_message"].(string)
		if msg == "" {
			msg = "communication with the greenhouse device failed"
		}
		return "Pump activation failed", "Could not run the water pump: " + msg + "."
	case models.NotifIrrigationDetected:
		return "Irrigation detected",
			fmt.Sprintf("Soil moisture rose by %.1f points. Please confirm whether this was manual watering or rain.",
				num(p, "delta"))
	case models.NotifIrrigationConfirmed:
		typ, _ := p["type"].(string)
		return "Irrigation confirmed", fmt.Sprintf("The detected irrigation was confirmed as %s.", typ)
	case models.PredictionMoistureDrop:
		return "Soil moisture dropping",
			fmt.Sprintf("Soil moisture is predicted to fall to %.0f%% within %d hours. Consider irrigating.",
				num(p, "predicted_moisture"), int(num(p, "hours_ahead")))
	case models.PredictionTemperatureRise:
		return "Temperature rising",
			fmt.Sprintf("High temperature is expected to dry the soil within %d hours.", int(num(p, "hours_ahead")))
	case models.PredictionHumidityDrop:
		return "Air humidity dropping",
			fmt.Sprintf("Low air humidity is expected to dry the soil within %d hours.", int(num(p, "hours_ahead")))
	case models.PredictionOptimal:
		return "Optimal conditions", "Your greenhouse conditions look optimal. No irrigation needed."
	default:
		return "Greenhouse update", "Something happened in your greenhouse."
	}
}

func num(p map[string]any, key string) float64 {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
