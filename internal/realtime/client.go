package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB

	sendBuffer = 32
)

// subscribeRequest is the only client-to-server message: join or leave a
// greenhouse channel.
type subscribeRequest struct {
	Action       string `json:"action"` // subscribe | unsubscribe
	GreenhouseID string `json:"greenhouseId"`
}

// Client is one authenticated websocket connection bound to a user identity.
type Client struct {
	UserID string

	hub     *Hub
	conn    *websocket.Conn
	send    chan Envelope
	rooms   map[string]struct{}
	removed bool
}

// NewClient binds a connection to a user and auto-joins the user's private
// channel.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	c := &Client{
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan Envelope, sendBuffer),
		rooms:  make(map[string]struct{}),
	}
	hub.Join(c, UserRoom(userID))
	return c
}

// Run services the connection until it closes: a reader goroutine handles
// control frames and subscribe requests, the current goroutine writes frames
// and pings. Returns when either side fails.
func (c *Client) Run() {
	defer func() {
		c.hub.Remove(c)
		_ = c.conn.Close()
	}()

	done := make(chan struct{})
	go c.readLoop(done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case env, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop drains incoming messages, handling greenhouse channel
// subscriptions and detecting disconnects.
func (c *Client) readLoop(done chan<- struct{}) {
	defer close(done)

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req subscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil || req.GreenhouseID == "" {
			continue
		}
		switch req.Action {
		case "subscribe":
			c.hub.Join(c, GreenhouseRoom(req.GreenhouseID))
		case "unsubscribe":
			c.hub.Leave(c, GreenhouseRoom(req.GreenhouseID))
		}
	}
}
