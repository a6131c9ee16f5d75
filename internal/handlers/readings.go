package handlers

import (
	"net/http"
	"strconv"
	"time"

	"smart_greenhouse/internal/service"

	"github.com/gin-gonic/gin"
)

// Request DTO for an inbound sensor sample. Pointers distinguish an absent
// field from a legitimate zero measurement.
type readingRequest struct {
	AirTemp      *float64   `json:"air_temperature" binding:"required"`
	AirHumidity  *float64   `json:"air_humidity" binding:"required"`
	SoilMoisture *float64   `json:"soil_moisture" binding:"required"`
	SoilTemp     *float64   `json:"soil_temperature" binding:"required"`
	RecordedAt   *time.Time `json:"recorded_at,omitempty"`
}

// @Summary      Submit a sensor reading
// @Tags         readings
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Greenhouse ID"
// @Param        body  body      readingRequest  true  "Sensor sample"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/greenhouses/{id}/readings [post]
// @Security     BearerAuth
func (h *Handler) postReading(c *gin.Context) {
	var req readingRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	params := service.ReadingParams{
		AirTemp:      *req.AirTemp,
		AirHumidity:  *req.AirHumidity,
		SoilMoisture: *req.SoilMoisture,
		SoilTemp:     *req.SoilTemp,
	}
	if req.RecordedAt != nil {
		params.RecordedAt = *req.RecordedAt
	}

	reading, err := h.services.Ingestion.Ingest(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		h.respondError(c, err, "reading_ingest_failed")
		return
	}
	c.JSON(http.StatusCreated, reading)
}

// @Summary      List recent readings
// @Tags         readings
// @Produce      json
// @Param        id     path      string  true   "Greenhouse ID"
// @Param        limit  query     int     false  "Max results (default 20, cap 100)"
// @Success      200    {array}   models.SensorReading
// @Failure      404    {object}  map[string]string
// @Router       /api/v1/greenhouses/{id}/readings [get]
// @Security     BearerAuth
func (h *Handler) listReadings(c *gin.Context) {
	readings, err := h.services.Ingestion.Readings(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		h.respondError(c, err, "readings_list_failed")
		return
	}
	c.JSON(http.StatusOK, readings)
}

// queryLimit parses ?limit=; the service clamps it.
func queryLimit(c *gin.Context) int {
	v, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return v
}
