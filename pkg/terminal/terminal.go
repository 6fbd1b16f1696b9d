// Package terminal verbindet Browser-Clients per WebSocket mit ihren
// Rechner-Sessions.
package terminal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/antibyte/retrocalc/pkg/auth"
	"github.com/antibyte/retrocalc/pkg/composer"
	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/keymap"
	"github.com/antibyte/retrocalc/pkg/logger"
	"github.com/antibyte/retrocalc/pkg/session"
	"github.com/antibyte/retrocalc/pkg/shared"

	"github.com/gorilla/websocket"
)

// TerminalHandler verwaltet WebSocket-Verbindungen und Rechner-Sitzungen
type TerminalHandler struct {
	sessions      *session.Manager
	keymap        *keymap.Keymap
	clientManager *ClientManager
	jsonValidator *JSONValidator
	upgrader      websocket.Upgrader
	maxClients    int
}

// Client repräsentiert einen verbundenen WebSocket-Client
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	handler   *TerminalHandler
	ipAddress string
	sessionID string
	session   *session.Session

	ctx       context.Context
	cancel    context.CancelFunc
	shutdown  chan struct{} // Channel for graceful shutdown
	closeOnce sync.Once
}

// NewTerminalHandler erstellt einen neuen TerminalHandler
func NewTerminalHandler(sessions *session.Manager, km *keymap.Keymap) *TerminalHandler {
	if km == nil {
		km = keymap.Default()
	}
	return &TerminalHandler{
		sessions:      sessions,
		keymap:        km,
		clientManager: NewClientManager(),
		jsonValidator: NewJSONValidator(),
		maxClients:    configuration.GetInt("Server", "max_clients", 100),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  configuration.GetInt("WebSocket", "read_buffer_size", 4096),
			WriteBufferSize: configuration.GetInt("WebSocket", "write_buffer_size", 4096),
			CheckOrigin:     checkOrigin,
		},
	}
}

// checkOrigin lässt nur konfigurierte Origins zu
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logger.SecurityWarn("WebSocket request without Origin header rejected")
		return false
	}

	allowedOriginsStr := configuration.GetString("WebSocket", "allowed_origins", "http://localhost:8080,http://127.0.0.1:8080")
	for _, allowed := range strings.Split(allowedOriginsStr, ",") {
		if origin == strings.TrimSpace(allowed) {
			return true
		}
	}

	logger.SecurityWarn("WebSocket request from disallowed origin rejected: %s", origin)
	return false
}

// ClientManager gibt den ClientManager des Handlers zurück
func (h *TerminalHandler) ClientManager() *ClientManager {
	return h.clientManager
}

// HandleWebSocket verarbeitet eingehende WebSocket-Verbindungen
func (h *TerminalHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ipAddress := auth.GetClientIP(r)
	logger.WebSocketDebug("New WebSocket connection attempt from %s", ipAddress)

	// Prüfe Client-Limits bevor Upgrade
	if h.clientManager.GetClientCount() >= h.maxClients {
		logger.SecurityWarn("Maximale Anzahl Clients erreicht, Verbindung abgelehnt: %s", ipAddress)
		http.Error(w, "Server overloaded", http.StatusServiceUnavailable)
		return
	}

	claims, err := auth.ClaimsFromRequest(r)
	if err != nil {
		logger.AuthWarn("WebSocket request from %s without valid token: %v", ipAddress, err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sess, err := h.sessions.GetOrCreate(claims.SessionID, claims.SessionID)
	if err != nil {
		logger.WebSocketWarn("Session %s rejected: %v", claims.SessionID, err)
		http.Error(w, "Server overloaded", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WebSocketError("WebSocket upgrade failed for %s: %v", ipAddress, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		conn:      conn,
		send:      make(chan []byte, getMaxChannelBuffer()),
		handler:   h,
		ipAddress: ipAddress,
		sessionID: sess.ID,
		session:   sess,
		ctx:       ctx,
		cancel:    cancel,
		shutdown:  make(chan struct{}),
	}

	h.clientManager.AddClient(client)
	logger.WebSocketInfo("Session established for %s - SessionID: %s", ipAddress, sess.ID)

	go client.readPump()
	go client.writePump()

	// Initialzustand: Session, Anzeige, Verlauf
	initial := []shared.Message{
		{Type: shared.MessageTypeSession, SessionID: sess.ID},
		displayMessage(sess.View()),
	}
	initial = append(initial, h.historyMessages(ctx, sess)...)
	client.SendMessages(initial)
}

// handleRequest führt eine Anfrage auf sess aus und liefert die Antworten
func (h *TerminalHandler) handleRequest(ctx context.Context, sess *session.Session, req shared.Request) []shared.Message {
	switch req.Type {
	case shared.RequestKeepalive:
		return nil

	case shared.RequestKey:
		action, ok := h.keymap.Lookup(req.Key)
		if !ok {
			logger.Debug(logger.AreaTerminal, "unbound key %q from session %s", req.Key, sess.ID)
			return nil
		}
		view, err := sess.Do(ctx, action)
		messages := []shared.Message{displayMessage(view)}
		if err != nil {
			messages = append(messages, shared.NewErrorMessage("history unavailable"))
		}
		if action.Kind == composer.ActionEvaluate {
			messages = append(messages, h.historyMessages(ctx, sess)...)
		}
		return messages

	case shared.RequestAction:
		return h.handleAction(ctx, sess, req)
	}

	return []shared.Message{shared.NewErrorMessage("unknown request type")}
}

func (h *TerminalHandler) handleAction(ctx context.Context, sess *session.Session, req shared.Request) []shared.Message {
	switch req.Action {
	case shared.ActionReuseExpression, shared.ActionReuseResult:
		var view session.View
		var err error
		if req.Action == shared.ActionReuseExpression {
			view, err = sess.ReuseExpression(ctx, req.ID)
		} else {
			view, err = sess.ReuseResult(ctx, req.ID)
		}
		if err != nil {
			return []shared.Message{shared.NewErrorMessage(err.Error())}
		}
		return []shared.Message{displayMessage(view)}

	case shared.ActionClearHistory:
		if err := sess.ClearHistory(ctx); err != nil {
			logger.HistoryError("clear history for session %s: %v", sess.ID, err)
			return []shared.Message{shared.NewErrorMessage("history unavailable")}
		}
		return []shared.Message{shared.NewHistoryMessage(nil)}

	case shared.ActionHistory:
		return h.historyMessages(ctx, sess)
	}

	return []shared.Message{shared.NewErrorMessage("unknown action")}
}

func (h *TerminalHandler) historyMessages(ctx context.Context, sess *session.Session) []shared.Message {
	records, err := sess.History(ctx)
	if err != nil {
		logger.HistoryError("list history for session %s: %v", sess.ID, err)
		return []shared.Message{shared.NewErrorMessage("history unavailable")}
	}
	return []shared.Message{shared.NewHistoryMessage(records)}
}

func displayMessage(v session.View) shared.Message {
	return shared.Message{
		Type:     shared.MessageTypeDisplay,
		Display:  v.Display,
		Previous: v.Previous,
		Marker:   v.Marker.String(),
	}
}

// SendMessages kodiert messages und stellt sie dem Client zu
func (c *Client) SendMessages(messages []shared.Message) {
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			logger.WebSocketError("Error marshalling message: %v", err)
			continue
		}
		if !c.Send(data) {
			return
		}
	}
}

// close beendet die Pumps genau einmal
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.shutdown)
	})
}

// cleanupClient schließt den Client und meldet ihn ab. Die Session bleibt
// bis zum Inaktivitäts-Cleanup erhalten.
func (h *TerminalHandler) cleanupClient(c *Client) {
	c.close()
	h.clientManager.RemoveClient(c)
	logger.WebSocketDebug("client %s for session %s cleaned up", c.ipAddress, c.sessionID)
}
