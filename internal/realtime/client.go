package realtime

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

// Client is one websocket connection registered with a Hub.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	id      string
	send    chan []byte
	editing map[string]struct{}
}

// ID returns the connection's editor identity.
func (c *Client) ID() string {
	return c.id
}

// readPump decodes inbound frames in arrival order until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	opts := c.hub.opts
	c.conn.SetReadLimit(opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})

	for {
		mt, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.hub.logger != nil {
				c.hub.logger.Debug("websocket read failed", "client_id", c.id, "error", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		env, err := Decode(frame)
		if err != nil {
			if c.hub.logger != nil {
				c.hub.logger.Debug("ignoring frame", "client_id", c.id, "error", err)
			}
			continue
		}
		c.hub.handlePresence(c, env)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
	opts := c.hub.opts
	ticker := time.NewTicker(opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logWriteError(err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logWriteError(err)
				return
			}
		}
	}
}

func (c *Client) logWriteError(err error) {
	if c.hub.logger == nil || errors.Is(err, websocket.ErrCloseSent) {
		return
	}
	c.hub.logger.Debug("websocket write failed", "client_id", c.id, "error", err)
}
