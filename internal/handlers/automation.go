package handlers

import (
	"net/http"

	"smart_greenhouse/internal/service"

	"github.com/gin-gonic/gin"
)

// Request DTO for an automation agent's pump cycle report.
type reportRequest struct {
	Status         string   `json:"status" binding:"required"` // completed | failed
	DurationMS     int      `json:"duration_ms"`
	PulseCount     *int     `json:"pulse_count,omitempty"`
	MoistureBefore *float64 `json:"moisture_before,omitempty"`
	MoistureAfter  *float64 `json:"moisture_after,omitempty"`
	TargetMoisture *float64 `json:"target_moisture,omitempty"`
	ErrorMessage   string   `json:"error_message,omitempty"`
}

// Request DTO for an AI prediction.
type predictionRequest struct {
	Type              string  `json:"type" binding:"required"`
	CurrentMoisture   float64 `json:"current_moisture"`
	PredictedMoisture float64 `json:"predicted_moisture"`
	Confidence        float64 `json:"confidence"`
	HoursAhead        int     `json:"hours_ahead"`
	Recommendation    string  `json:"recommendation,omitempty"`
}

// @Summary      Report a self-managed pump cycle
// @Description  The on-site automation agent reports a pump run it executed locally.
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Greenhouse ID"
// @Param        body  body      reportRequest  true  "Cycle report"
// @Success      201   {object}  models.IrrigationEvent
// @Success      202   {object}  map[string]string  "failed cycle acknowledged"
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/greenhouses/{id}/automation/report [post]
// @Security     BearerAuth
func (h *Handler) automationReport(c *gin.Context) {
	var req reportRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	evt, err := h.services.Automation.Report(c.Request.Context(), c.Param("id"), service.ReportParams{
		Status:         req.Status,
		DurationMS:     req.DurationMS,
		PulseCount:     req.PulseCount,
		MoistureBefore: req.MoistureBefore,
		MoistureAfter:  req.MoistureAfter,
		TargetMoisture: req.TargetMoisture,
		ErrorMessage:   req.ErrorMessage,
	})
	if err != nil {
		h.respondError(c, err, "automation_report_failed")
		return
	}
	if evt == nil {
		// failed cycle: acknowledged, no irrigation event created
		c.JSON(http.StatusAccepted, gin.H{"status": "acknowledged"})
		return
	}
	c.JSON(http.StatusCreated, evt)
}

// @Summary      Submit an AI prediction
// @Tags         automation
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Greenhouse ID"
// @Param        body  body      predictionRequest  true  "Prediction payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/greenhouses/{id}/automation/predict [post]
// @Security     BearerAuth
func (h *Handler) automationPredict(c *gin.Context) {
	var req predictionRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	result, err := h.services.Automation.Predict(c.Request.Context(), c.Param("id"), service.PredictionParams{
		Type:              req.Type,
		CurrentMoisture:   req.CurrentMoisture,
		PredictedMoisture: req.PredictedMoisture,
		Confidence:        req.Confidence,
		HoursAhead:        req.HoursAhead,
		Recommendation:    req.Recommendation,
	})
	if err != nil {
		h.respondError(c, err, "automation_predict_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(result)})
}
