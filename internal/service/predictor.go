package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/models"

	"github.com/sony/gobreaker"
)

// HTTPPredictor calls the external plant-health model service. A circuit
// breaker keeps a down model service from adding latency to every ingest.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	log     *logger.Logger
}

func NewHTTPPredictor(baseURL string, log *logger.Logger) *HTTPPredictor {
	return &HTTPPredictor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		cb:      newPredictorBreaker("health-predictor", log),
		log:     log,
	}
}

var _ HealthPredictor = (*HTTPPredictor)(nil)

type predictRequest struct {
	AirTemp      float64 `json:"air_temperature"`
	AirHumidity  float64 `json:"air_humidity"`
	SoilMoisture float64 `json:"soil_moisture"`
	SoilTemp     float64 `json:"soil_temperature"`
}

type predictResponse struct {
	HealthScore float64 `json:"health_score"`
}

// Score posts the reading's measurements to the model and returns the
// predicted health score in [0, 1].
func (p *HTTPPredictor) Score(ctx context.Context, r models.SensorReading) (float64, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.call(ctx, r)
	})
	if err != nil {
		return 0, err
	}
	return out.(float64), nil
}

func (p *HTTPPredictor) call(ctx context.Context, r models.SensorReading) (float64, error) {
	body, err := json.Marshal(predictRequest{
		AirTemp:      r.AirTemp,
		AirHumidity:  r.AirHumidity,
		SoilMoisture: r.SoilMoisture,
		SoilTemp:     r.SoilTemp,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("predictor returned status %d", resp.StatusCode)
	}

	var pr predictResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&pr); err != nil {
		return 0, fmt.Errorf("decode predictor response: %w", err)
	}
	if pr.HealthScore < 0 || pr.HealthScore > 1 {
		return 0, fmt.Errorf("predictor returned score out of range: %f", pr.HealthScore)
	}
	return pr.HealthScore, nil
}

func newPredictorBreaker(name string, log *logger.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warnw("circuit_breaker_state_change", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})
}
