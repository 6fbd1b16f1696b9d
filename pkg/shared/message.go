package shared

import "github.com/antibyte/retrocalc/pkg/history"

// MessageType definiert den Typ einer Nachricht vom Server zum Frontend.
type MessageType int

// Konstanten für MessageType, passend zur RESPONSE_TYPE_MAP im Frontend
const (
	MessageTypeDisplay     MessageType = 0 // Anzeige: Display, Previous, Marker
	MessageTypeHistory     MessageType = 1 // Verlauf (Records, neueste zuerst)
	MessageTypeSession     MessageType = 2 // Session-ID Übermittlung
	MessageTypeError       MessageType = 3 // Protokollfehler; Rechenfehler laufen über Display
	MessageTypeAuthRefresh MessageType = 4 // Token abgelaufen, neu anmelden
)

// RequestType definiert den Typ einer Nachricht vom Frontend.
type RequestType string

const (
	RequestKey       RequestType = "key"
	RequestAction    RequestType = "action"
	RequestKeepalive RequestType = "keepalive"
)

// Session-Aktionen, die nicht über die Tastatur laufen
const (
	ActionReuseExpression = "reuse_expression"
	ActionReuseResult     = "reuse_result"
	ActionClearHistory    = "clear_history"
	ActionHistory         = "history"
)

// Message repräsentiert eine Nachricht, die über WebSocket gesendet wird.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content,omitempty"`

	// Für SESSION
	SessionID string `json:"sessionId,omitempty"`

	// Für DISPLAY
	Display  string `json:"display,omitempty"`
	Previous string `json:"previous,omitempty"`
	Marker   string `json:"marker,omitempty"`

	// Für HISTORY
	Records []history.Record `json:"records,omitempty"`
}

// Request ist eine Nachricht vom Frontend.
type Request struct {
	Type   RequestType `json:"type"`
	Key    string      `json:"key,omitempty"`
	Action string      `json:"action,omitempty"`
	ID     string      `json:"id,omitempty"`
}

// NewErrorMessage creates an error message.
func NewErrorMessage(text string) Message {
	return Message{Type: MessageTypeError, Content: text}
}

// NewHistoryMessage creates a history message. An empty history has no
// records field.
func NewHistoryMessage(records []history.Record) Message {
	return Message{Type: MessageTypeHistory, Records: records}
}
