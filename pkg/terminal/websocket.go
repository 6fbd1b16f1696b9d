package terminal

import (
	"time"

	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/logger"
	"github.com/antibyte/retrocalc/pkg/shared"

	"github.com/gorilla/websocket"
)

// Hilfsfunktionen für WebSocket-Konfigurationswerte
// Siehe [Network] Sektion in settings.cfg
func getWriteWait() time.Duration {
	return configuration.GetDuration("Network", "write_wait_timeout", 10*time.Second)
}

func getPongWait() time.Duration {
	return configuration.GetDuration("Network", "pong_timeout", 90*time.Second)
}

func getPingPeriod() time.Duration {
	pongWait := getPongWait()
	return (pongWait * 9) / 10
}

func getMaxMessageSize() int64 {
	return int64(configuration.GetInt("Network", "max_message_size_kb", 4) * 1024)
}

func getMaxChannelBuffer() int {
	return configuration.GetInt("Network", "max_channel_buffer", 256)
}

var newline = []byte{'\n'}

// Send stellt message in die Sendewarteschlange. Bei voller Warteschlange
// wird der Client asynchron abgebaut und false geliefert.
func (c *Client) Send(message []byte) bool {
	select {
	case <-c.shutdown:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	case <-c.shutdown:
		return false
	case <-time.After(100 * time.Millisecond):
		logger.Warn(logger.AreaTerminal, "Send timeout for client %s, scheduling async cleanup", c.ipAddress)
		go c.handler.cleanupClient(c)
		return false
	}
}

// readPump liest Anfragen vom Client und beantwortet sie
func (c *Client) readPump() {
	defer func() {
		if r := recover(); r != nil {
			logger.WebSocketError("Panic in readPump for client %s: %v", c.ipAddress, r)
		}
		c.handler.cleanupClient(c)
	}()

	c.conn.SetReadLimit(getMaxMessageSize())
	c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(getPongWait()))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				logger.WebSocketWarn("Unexpected close error for client %s: %v", c.ipAddress, err)
			} else {
				logger.WebSocketDebug("Normal close for client %s: %v", c.ipAddress, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if err := c.handler.clientManager.CheckRateLimit(c.ipAddress); err != nil {
			c.SendMessages([]shared.Message{shared.NewErrorMessage("rate limit exceeded")})
			continue
		}

		req, err := c.handler.jsonValidator.DecodeRequest(message)
		if err != nil {
			logger.SecurityWarn("Invalid request from client %s: %v", c.ipAddress, err)
			c.SendMessages([]shared.Message{shared.NewErrorMessage("invalid request")})
			continue
		}

		c.SendMessages(c.handler.handleRequest(c.ctx, c.session, req))
	}
}

// writePump schreibt Nachrichten an den Client. Mehrere wartende
// Nachrichten werden zeilenweise in einem Frame gebündelt.
func (c *Client) writePump() {
	ticker := time.NewTicker(getPingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.WebSocketDebug("Failed to send ping to client %s: %v", c.ipAddress, err)
				return
			}
		case <-c.shutdown:
			c.conn.SetWriteDeadline(time.Now().Add(getWriteWait()))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
