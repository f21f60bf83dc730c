package chat

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a frame to the view.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong from the view.
	pingPeriod     = (pongWait * 9) / 10 // Must be less than pongWait.
	maxMessageSize = 4096                // Largest intent frame accepted from a view.
)

// Client is a middleman between one view's websocket and the hub.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	// Buffered channel of outbound frames, closed by the hub.
	Send chan []byte
	// Apply executes an intent received from the view.
	Apply func(intent string, payload json.RawMessage) error

	// seen is the newest snapshot version queued on Send. Set before
	// registration, then owned by Hub.Run.
	seen uint64
}

type inboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ReadPump turns view frames into store intents.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("view_read_failed", zap.Error(err))
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.Hub.sendTo(c, WSMessage{Type: WSTypeError, Payload: "malformed frame"})
			continue
		}
		if err := c.Apply(frame.Type, frame.Payload); err != nil {
			c.Hub.log.Debug("intent_rejected", zap.String("intent", frame.Type), zap.Error(err))
			c.Hub.sendTo(c, WSMessage{Type: WSTypeError, Payload: err.Error()})
		}
	}
}

// WritePump sends queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
