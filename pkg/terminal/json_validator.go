package terminal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/shared"
)

// JSONValidator validiert JSON-Eingaben vom Frontend
type JSONValidator struct {
	MaxDepth     int
	MaxKeys      int
	MaxStringLen int
	MaxPayload   int
}

// Sicherheitskonstanten für JSON-Validierung
const (
	MaxJSONDepth     = 4  // Anfragen sind flache Objekte
	MaxJSONKeys      = 8  // type, key, action, id
	MaxJSONStringLen = 64 // Tastennamen und UUIDs
)

var (
	ErrJSONTooLarge      = errors.New("JSON payload too large")
	ErrJSONTooDeep       = errors.New("JSON nesting too deep")
	ErrJSONTooManyKeys   = errors.New("too many keys in JSON object")
	ErrJSONStringTooLong = errors.New("JSON string too long")
	ErrJSONMalicious     = errors.New("potentially malicious JSON detected")
	ErrUnknownRequest    = errors.New("unknown request type")
)

// NewJSONValidator erstellt einen neuen JSON-Validator
func NewJSONValidator() *JSONValidator {
	return &JSONValidator{
		MaxDepth:     MaxJSONDepth,
		MaxKeys:      MaxJSONKeys,
		MaxStringLen: MaxJSONStringLen,
		MaxPayload:   configuration.GetInt("Security", "max_message_length", 1024),
	}
}

// ValidateJSON validiert JSON-Daten auf Sicherheitsrisiken
func (v *JSONValidator) ValidateJSON(data []byte) error {
	if len(data) > v.MaxPayload {
		return ErrJSONTooLarge
	}

	var obj interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return v.validateStructure(obj, 0)
}

// DecodeRequest validiert data und dekodiert es als shared.Request
func (v *JSONValidator) DecodeRequest(data []byte) (shared.Request, error) {
	var req shared.Request
	if err := v.ValidateJSON(data); err != nil {
		return req, err
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}

	switch req.Type {
	case shared.RequestKey, shared.RequestAction, shared.RequestKeepalive:
		return req, nil
	}
	return req, fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type)
}

// validateStructure validiert die JSON-Struktur rekursiv
func (v *JSONValidator) validateStructure(obj interface{}, depth int) error {
	if depth > v.MaxDepth {
		return ErrJSONTooDeep
	}

	switch val := obj.(type) {
	case map[string]interface{}:
		if len(val) > v.MaxKeys {
			return ErrJSONTooManyKeys
		}
		for key, value := range val {
			if err := v.validateString(key); err != nil {
				return err
			}
			if err := v.validateStructure(value, depth+1); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, item := range val {
			if err := v.validateStructure(item, depth+1); err != nil {
				return err
			}
		}
	case string:
		return v.validateString(val)
	}
	return nil
}

// validateString validiert JSON-Strings
func (v *JSONValidator) validateString(str string) error {
	if len(str) > v.MaxStringLen {
		return ErrJSONStringTooLong
	}
	if v.isMaliciousString(str) {
		return ErrJSONMalicious
	}
	return nil
}

// isMaliciousString prüft auf Steuerzeichen und verdächtige Muster
func (v *JSONValidator) isMaliciousString(str string) bool {
	for _, r := range str {
		if unicode.IsControl(r) {
			return true
		}
	}

	maliciousPatterns := []string{
		"__proto__",
		"<script",
		"javascript:",
		"${",
		"../",
	}
	strLower := strings.ToLower(str)
	for _, pattern := range maliciousPatterns {
		if strings.Contains(strLower, pattern) {
			return true
		}
	}
	return false
}
