package terminal

import (
	"encoding/json"
	"net/http"

	"github.com/antibyte/retrocalc/pkg/auth"
	"github.com/antibyte/retrocalc/pkg/history"
	"github.com/antibyte/retrocalc/pkg/logger"
	"github.com/antibyte/retrocalc/pkg/shared"
)

// HistoryResponse ist die Antwort der Verlaufs-API
type HistoryResponse struct {
	Success bool             `json:"success"`
	Records []history.Record `json:"records"`
	Message string           `json:"message,omitempty"`
}

// HandleHistory liefert (GET) oder löscht (DELETE) den Verlauf der Session
// des Tokens. Muss hinter auth.RequireGuestToken laufen.
func (h *TerminalHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	sessionID := auth.SessionIDFromContext(r.Context())
	if sessionID == "" {
		writeHistoryError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sess, err := h.sessions.GetOrCreate(sessionID, sessionID)
	if err != nil {
		writeHistoryError(w, "Server overloaded", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		records, err := sess.History(r.Context())
		if err != nil {
			logger.HistoryError("list history for session %s: %v", sessionID, err)
			writeHistoryError(w, "History unavailable", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []history.Record{}
		}
		json.NewEncoder(w).Encode(HistoryResponse{Success: true, Records: records})

	case http.MethodDelete:
		if err := sess.ClearHistory(r.Context()); err != nil {
			logger.HistoryError("clear history for session %s: %v", sessionID, err)
			writeHistoryError(w, "History unavailable", http.StatusInternalServerError)
			return
		}
		// Verbundenen Client benachrichtigen
		if h.clientManager.HasClient(sessionID) {
			if err := h.clientManager.SendToClient(sessionID, shared.NewHistoryMessage(nil)); err != nil {
				logger.WebSocketDebug("history push to %s failed: %v", sessionID, err)
			}
		}
		json.NewEncoder(w).Encode(HistoryResponse{Success: true, Records: []history.Record{}, Message: "History cleared"})

	default:
		writeHistoryError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeHistoryError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(HistoryResponse{Success: false, Records: []history.Record{}, Message: message})
}
