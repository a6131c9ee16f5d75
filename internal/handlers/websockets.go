package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"smart_greenhouse/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Upgrader for HTTP -> WebSocket. Consider tightening CheckOrigin in production.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConnect authenticates the handshake via ?token= (browsers cannot set an
// Authorization header on a WebSocket upgrade; non-browser clients may still
// send one), then hands the connection to the realtime hub.
func (h *Handler) wsConnect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		}
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	uid, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}

	client := realtime.NewClient(h.hub, conn, strconv.Itoa(uid))
	if h.metrics != nil {
		h.metrics.RealtimeClients.Inc()
		defer h.metrics.RealtimeClients.Dec()
	}
	client.Run()
}
