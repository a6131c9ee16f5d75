package handlers

import (
	"net/http"

	"smart_greenhouse/internal/service"

	"github.com/gin-gonic/gin"
)

// Request DTO for pump activation.
type activateRequest struct {
	DurationSec  int      `json:"duration_seconds" binding:"required"`
	WaterAmountL *float64 `json:"water_amount_l,omitempty"`
	Reason       string   `json:"reason,omitempty"` // manual | automation | schedule
}

// @Summary      Activate the water pump
// @Description  Starts a timed pump run. Fails with 409 when a run is already active.
// @Tags         pump
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "Greenhouse ID"
// @Param        body  body      activateRequest  true  "Activation payload"
// @Success      201   {object}  models.PumpOperation
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/greenhouses/{id}/pump/activate [post]
// @Security     BearerAuth
func (h *Handler) activatePump(c *gin.Context) {
	var req activateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	op, err := h.services.Pump.Activate(c.Request.Context(), c.Param("id"), service.ActivationParams{
		DurationSec:  req.DurationSec,
		WaterAmountL: req.WaterAmountL,
		Reason:       req.Reason,
	})
	if err != nil {
		h.respondError(c, err, "pump_activate_failed")
		return
	}
	c.JSON(http.StatusCreated, op)
}

// @Summary      Stop the active pump run
// @Tags         pump
// @Produce      json
// @Param        id  path      string  true  "Greenhouse ID"
// @Success      200  {object}  models.PumpOperation
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/greenhouses/{id}/pump/stop [post]
// @Security     BearerAuth
func (h *Handler) stopPump(c *gin.Context) {
	op, err := h.services.Pump.Stop(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "pump_stop_failed")
		return
	}
	c.JSON(http.StatusOK, op)
}

// @Summary      Current pump status
// @Tags         pump
// @Produce      json
// @Param        id  path      string  true  "Greenhouse ID"
// @Success      200  {object}  service.PumpStatus
// @Router       /api/v1/greenhouses/{id}/pump/status [get]
// @Security     BearerAuth
func (h *Handler) pumpStatus(c *gin.Context) {
	st, err := h.services.Pump.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "pump_status_failed")
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Pump operation history
// @Tags         pump
// @Produce      json
// @Param        id     path      string  true   "Greenhouse ID"
// @Param        limit  query     int     false  "Max results (default 20, cap 100)"
// @Success      200    {array}   models.PumpOperation
// @Router       /api/v1/greenhouses/{id}/pump/history [get]
// @Security     BearerAuth
func (h *Handler) pumpHistory(c *gin.Context) {
	ops, err := h.services.Pump.History(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		h.respondError(c, err, "pump_history_failed")
		return
	}
	c.JSON(http.StatusOK, ops)
}
