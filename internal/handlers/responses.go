package handlers

import (
	"errors"
	"net/http"

	"smart_greenhouse/internal/repository"
	"smart_greenhouse/internal/service"

	"github.com/gin-gonic/gin"
)

const statusOK = "ok"

// respondError maps service errors onto HTTP codes. Validation problems and
// domain conflicts carry their message through; everything unrecognized is a
// logged 500 with a generic body.
func (h *Handler) respondError(c *gin.Context, err error, logKey string) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
		return
	}

	var commErr *service.DeviceCommError
	if errors.As(err, &commErr) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    commErr.Error(),
			"category": commErr.Category,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrGreenhouseNotFound),
		errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrOperationNotFound),
		errors.Is(err, repository.ErrNotOwned):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPumpActive),
		errors.Is(err, service.ErrAlreadyConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDeviceNotFound):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		if h.log != nil {
			h.log.Errorw(logKey, "err", err, "path", c.FullPath())
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}
