package handlers

import (
	"smart_greenhouse/internal/logger"
	"smart_greenhouse/internal/metrics"
	"smart_greenhouse/internal/realtime"
	"smart_greenhouse/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services, the realtime hub, and logging.
type Handler struct {
	services *service.Service
	hub      *realtime.Hub
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, hub *realtime.Hub, m *metrics.Metrics, log *logger.Logger) *Handler {
	return &Handler{services: services, hub: hub, metrics: m, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health and metrics endpoints
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket upgrade (token auth in query), served on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerGreenhouseRoutes(api)
		h.registerIrrigationRoutes(api)
		h.registerNotificationRoutes(api)
	}
}

func (h *Handler) registerGreenhouseRoutes(api *gin.RouterGroup) {
	gh := api.Group("/greenhouses/:id")
	{
		gh.POST("/readings", h.postReading)
		gh.GET("/readings", h.listReadings)
		gh.GET("/irrigations", h.listIrrigations)

		pump := gh.Group("/pump")
		{
			pump.POST("/activate", h.activatePump)
			pump.POST("/stop", h.stopPump)
			pump.GET("/status", h.pumpStatus)
			pump.GET("/history", h.pumpHistory)
		}

		automation := gh.Group("/automation")
		{
			automation.POST("/report", h.automationReport)
			automation.POST("/predict", h.automationPredict)
		}
	}
}

func (h *Handler) registerIrrigationRoutes(api *gin.RouterGroup) {
	irr := api.Group("/irrigations")
	{
		irr.GET("/pending", h.pendingIrrigations)
		irr.POST("/:id/confirm", h.confirmIrrigation)
	}
}

func (h *Handler) registerNotificationRoutes(api *gin.RouterGroup) {
	n := api.Group("/notifications")
	{
		n.GET("", h.listNotifications)
		n.PATCH("/:id/read", h.markNotificationRead)
		n.POST("/read-all", h.markAllNotificationsRead)
		n.DELETE("/:id", h.deleteNotification)
	}
}
