package chat

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait   = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod = (pongWait * 9) / 10 // Send pings with this period. Must be less than pongWait.

	// Floor for the inbound frame limit and headroom over the configured
	// body cap for the JSON envelope around it.
	minFrameSize  = 8192
	frameHeadroom = 1024
)

// frameLimit sizes the read limit so a maximal body still fits in its
// envelope; oversized bodies must reach validation, not kill the socket.
func frameLimit(maxBody int) int64 {
	if limit := int64(maxBody) + frameHeadroom; limit > minFrameSize {
		return limit
	}
	return minFrameSize
}

// client pumps a websocket connection in and out of the coordinator.
type client struct {
	session *Session
	coord   *Coordinator
	conn    *websocket.Conn
	log     *slog.Logger
}

// readPump decodes inbound events and dispatches them to the coordinator.
// It owns disconnect cleanup: whatever kills the read loop (normal close,
// network drop, oversized frame) funnels through the deferred Disconnect.
func (c *client) readPump() {
	defer func() {
		c.coord.Disconnect(c.session)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(frameLimit(c.coord.pipeline.maxBody))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read failed", "conn", c.session.ConnID, "err", err)
			}
			return
		}

		var ev inboundEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.session.trySend(encodeError("malformed event"))
			continue
		}

		switch ev.Type {
		case eventJoin:
			c.coord.Join(c.session, ev.RoomID)
		case eventSend:
			c.coord.Send(c.session, ev.Body)
		case eventTyping:
			c.coord.SetTyping(c.session, ev.IsTyping)
		default:
			c.session.trySend(encodeError("unknown event type"))
		}
	}
}

// writePump drains the session's send queue onto the wire and keeps the
// connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.session.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(payload)
			if err := w.Close(); err != nil {
				return
			}

		case <-c.session.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
