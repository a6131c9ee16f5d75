package handlers

import (
	"net/http"

	"smart_greenhouse/internal/service"

	"github.com/gin-gonic/gin"
)

// Request DTO for resolving a detected irrigation event.
type confirmRequest struct {
	Type         string   `json:"type" binding:"required"` // manual | rain
	WaterAmountL *float64 `json:"water_amount_l,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// @Summary      Confirm a detected irrigation
// @Description  Resolves a pending detection as manual watering or rain.
// @Tags         irrigations
// @Accept       json
// @Produce      json
// @Param        id    path      string          true  "Event ID"
// @Param        body  body      confirmRequest  true  "Confirmation payload"
// @Success      200   {object}  models.IrrigationEvent
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/irrigations/{id}/confirm [post]
// @Security     BearerAuth
func (h *Handler) confirmIrrigation(c *gin.Context) {
	var req confirmRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	evt, err := h.services.Irrigation.Confirm(c.Request.Context(), c.Param("id"), userID(c), service.ConfirmParams{
		Type:         req.Type,
		WaterAmountL: req.WaterAmountL,
		Notes:        req.Notes,
	})
	if err != nil {
		h.respondError(c, err, "irrigation_confirm_failed")
		return
	}
	c.JSON(http.StatusOK, evt)
}

// @Summary      List pending detected irrigations
// @Tags         irrigations
// @Produce      json
// @Param        limit  query    int  false  "Max results (default 20, cap 100)"
// @Success      200    {array}  models.IrrigationEvent
// @Router       /api/v1/irrigations/pending [get]
// @Security     BearerAuth
func (h *Handler) pendingIrrigations(c *gin.Context) {
	events, err := h.services.Irrigation.Pending(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.respondError(c, err, "irrigations_pending_failed")
		return
	}
	c.JSON(http.StatusOK, events)
}

// @Summary      Recent irrigation events for a greenhouse
// @Tags         irrigations
// @Produce      json
// @Param        id     path     string  true   "Greenhouse ID"
// @Param        limit  query    int     false  "Max results (default 20, cap 100)"
// @Success      200    {array}  models.IrrigationEvent
// @Router       /api/v1/greenhouses/{id}/irrigations [get]
// @Security     BearerAuth
func (h *Handler) listIrrigations(c *gin.Context) {
	events, err := h.services.Irrigation.Recent(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		h.respondError(c, err, "irrigations_list_failed")
		return
	}
	c.JSON(http.StatusOK, events)
}
