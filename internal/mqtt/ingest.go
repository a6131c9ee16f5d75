package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/service"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// readingTopic matches greenhouse/<id>/reading. The wildcard segment is the
// greenhouse ID.
const readingTopic = "greenhouse/+/reading"

// Config holds broker connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
}

// readingPayload mirrors the firmware's JSON sample frame.
type readingPayload struct {
	AirTemp      float64    `json:"air_temperature"`
	AirHumidity  float64    `json:"air_humidity"`
	SoilMoisture float64    `json:"soil_moisture"`
	SoilTemp     float64    `json:"soil_temperature"`
	RecordedAt   *time.Time `json:"recorded_at,omitempty"`
}

// Ingestor bridges the MQTT sensor stream into the ingestion service, for
// deployments where devices publish to a broker instead of calling HTTP.
type Ingestor struct {
	client    paho.Client
	ingestion service.Ingestion
	log       *logger.Logger
}

// Connect dials the broker with exponential-backoff retries and returns a
// ready Ingestor. The client disconnects when ctx is cancelled.
func Connect(ctx context.Context, cfg Config, ingestion service.Ingestion, log *logger.Logger) (*Ingestor, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	var client paho.Client
	err := backoff.Retry(func() error {
		client = paho.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to MQTT broker: %w", err)
	}

	go func() {
		<-ctx.Done()
		client.Disconnect(250)
	}()

	return &Ingestor{client: client, ingestion: ingestion, log: log}, nil
}

// Run subscribes to the reading topic and blocks until ctx is cancelled.
func (i *Ingestor) Run(ctx context.Context) error {
	token := i.client.Subscribe(readingTopic, 1, func(_ paho.Client, msg paho.Message) {
		if err := i.handle(ctx, msg); err != nil && i.log != nil {
			i.log.Errorw("mqtt_reading_rejected", "topic", msg.Topic(), "err", err)
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", readingTopic, token.Error())
	}
	if i.log != nil {
		i.log.Infow("mqtt_subscribed", "topic", readingTopic)
	}

	<-ctx.Done()
	i.client.Unsubscribe(readingTopic).Wait()
	return nil
}

func (i *Ingestor) handle(ctx context.Context, msg paho.Message) error {
	greenhouseID := greenhouseFromTopic(msg.Topic())
	if greenhouseID == "" {
		return fmt.Errorf("topic %q has no greenhouse segment", msg.Topic())
	}

	var p readingPayload
	if err := json.Unmarshal(msg.Payload(), &p); err != nil {
		return fmt.Errorf("decode reading payload: %w", err)
	}

	params := service.ReadingParams{
		AirTemp:      p.AirTemp,
		AirHumidity:  p.AirHumidity,
		SoilMoisture: p.SoilMoisture,
		SoilTemp:     p.SoilTemp,
	}
	if p.RecordedAt != nil {
		params.RecordedAt = *p.RecordedAt
	}

	_, err := i.ingestion.Ingest(ctx, greenhouseID, params)
	return err
}

func greenhouseFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "greenhouse" || parts[2] != "reading" {
		return ""
	}
	return parts[1]
}
