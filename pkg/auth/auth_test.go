package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func signClaims(t *testing.T, claims GuestClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

// TestGenerateSessionID tests session ID generation
func TestGenerateSessionID(t *testing.T) {
	sessionID1 := generateSessionID()
	sessionID2 := generateSessionID()

	if sessionID1 == sessionID2 {
		t.Error("Session IDs should be unique")
	}
	if _, err := uuid.Parse(sessionID1); err != nil {
		t.Errorf("Session ID should be a UUID, got %q: %v", sessionID1, err)
	}
}

// TestJWTTokenGeneration tests JWT token creation and validation
func TestJWTTokenGeneration(t *testing.T) {
	sessionID := "test-session-123"

	token, err := GenerateGuestToken(sessionID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := ValidateGuestToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.SessionID != sessionID {
		t.Errorf("Expected session ID %s, got %s", sessionID, claims.SessionID)
	}
	if claims.Issuer != tokenIssuer {
		t.Errorf("Expected issuer %s, got %s", tokenIssuer, claims.Issuer)
	}

	if _, err := GenerateGuestToken(""); err == nil {
		t.Error("Empty session ID should be rejected")
	}
}

// TestRejectedTokens tests crafted tokens that must not validate
func TestRejectedTokens(t *testing.T) {
	now := time.Now()
	valid := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   guestSubject,
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Hour))
	expired.IssuedAt = jwt.NewNumericDate(now.Add(-2 * time.Hour))
	expired.NotBefore = expired.IssuedAt

	foreignIssuer := valid
	foreignIssuer.Issuer = "someone-else"

	userSubject := valid
	userSubject.Subject = "alice"

	noExpiry := valid
	noExpiry.ExpiresAt = nil

	testCases := []struct {
		name  string
		token string
	}{
		{"expired", signClaims(t, GuestClaims{SessionID: "s", RegisteredClaims: expired}, getJWTSecret())},
		{"foreign issuer", signClaims(t, GuestClaims{SessionID: "s", RegisteredClaims: foreignIssuer}, getJWTSecret())},
		{"user subject", signClaims(t, GuestClaims{SessionID: "s", RegisteredClaims: userSubject}, getJWTSecret())},
		{"no expiry", signClaims(t, GuestClaims{SessionID: "s", RegisteredClaims: noExpiry}, getJWTSecret())},
		{"missing session", signClaims(t, GuestClaims{RegisteredClaims: valid}, getJWTSecret())},
		{"wrong secret", signClaims(t, GuestClaims{SessionID: "s", RegisteredClaims: valid}, "another-secret")},
		{"empty", ""},
		{"garbage", "invalid.token.here"},
		{"incomplete", "eyJ0eXAiOiJKV1QiLCJhbGciOiJIUzI1NiJ9"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateGuestToken(tc.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

// TestSessionCreationHandler tests the session creation endpoint
func TestSessionCreationHandler(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/auth/session", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	HandleCreateSession(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !response.Success || response.SessionID == "" {
		t.Errorf("Unexpected response: %+v", response)
	}

	get := httptest.NewRecorder()
	HandleCreateSession(get, httptest.NewRequest("GET", "/api/auth/session", nil))
	if get.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for GET, got %d", get.Code)
	}
}

// TestLoginHandler tests the login endpoint
func TestLoginHandler(t *testing.T) {
	sessionID := "test-session-login"
	body, _ := json.Marshal(LoginRequest{SessionID: sessionID})

	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	HandleLogin(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response LoginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.SessionID != sessionID {
		t.Errorf("Expected session ID %s, got %s", sessionID, response.SessionID)
	}

	claims, err := ValidateGuestToken(response.Token)
	if err != nil {
		t.Fatalf("Generated token should be valid: %v", err)
	}
	if claims.SessionID != sessionID {
		t.Errorf("Token should contain session ID %s, got %s", sessionID, claims.SessionID)
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == TokenCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value != response.Token || !cookie.HttpOnly {
		t.Errorf("Expected HttpOnly %s cookie with the token, got %+v", TokenCookieName, cookie)
	}
}

// TestLoginHandlerInvalidRequest tests login with invalid requests
func TestLoginHandlerInvalidRequest(t *testing.T) {
	testCases := []struct {
		name         string
		method       string
		requestBody  string
		expectedCode int
	}{
		{"Empty request body", "POST", "", http.StatusBadRequest},
		{"Invalid JSON", "POST", "invalid json", http.StatusBadRequest},
		{"Missing sessionId", "POST", "{}", http.StatusBadRequest},
		{"Oversized body", "POST", `{"sessionId":"` + strings.Repeat("a", 5000) + `"}`, http.StatusBadRequest},
		{"Wrong method", "GET", "", http.StatusMethodNotAllowed},
		{"Preflight", "OPTIONS", "", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/auth/login", bytes.NewBufferString(tc.requestBody))
			w := httptest.NewRecorder()
			HandleLogin(w, req)

			if w.Code != tc.expectedCode {
				t.Errorf("Expected status %d, got %d", tc.expectedCode, w.Code)
			}
		})
	}
}

// TestTokenValidationHandler tests the validation endpoint with header and cookie
func TestTokenValidationHandler(t *testing.T) {
	sessionID := "test-session-validate"
	token, err := GenerateGuestToken(sessionID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	header := httptest.NewRequest("GET", "/api/auth/validate", nil)
	header.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	cookie := httptest.NewRequest("GET", "/api/auth/validate", nil)
	cookie.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})

	for name, req := range map[string]*http.Request{"header": header, "cookie": cookie} {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleTokenValidation(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			var response LoginResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if !response.Success || response.SessionID != sessionID {
				t.Errorf("Unexpected response: %+v", response)
			}
		})
	}
}

// TestTokenValidationHandlerInvalid tests validation with invalid tokens
func TestTokenValidationHandlerInvalid(t *testing.T) {
	testCases := []struct {
		name   string
		header string
	}{
		{"No token", ""},
		{"Invalid token", "Bearer invalid.token.here"},
		{"Malformed header", "Token abc"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/auth/validate", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			HandleTokenValidation(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", w.Code)
			}
		})
	}
}

// TestLogoutHandler tests the logout endpoint
func TestLogoutHandler(t *testing.T) {
	w := httptest.NewRecorder()
	HandleLogout(w, httptest.NewRequest("POST", "/api/auth/logout", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == TokenCookieName && c.MaxAge < 0 {
			found = true
		}
	}
	if !found {
		t.Error("Logout should clear guest_token cookie")
	}
}

// TestExtractTokenFromRequest tests token extraction from different sources
func TestExtractTokenFromRequest(t *testing.T) {
	token := "abc.def.ghi"

	header := httptest.NewRequest("GET", "/test", nil)
	header.Header.Set("Authorization", "Bearer "+token)

	cookie := httptest.NewRequest("GET", "/test", nil)
	cookie.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})

	query := httptest.NewRequest("GET", "/ws?token="+token, nil)

	for name, req := range map[string]*http.Request{"header": header, "cookie": cookie, "query": query} {
		got, err := ExtractTokenFromRequest(req)
		if err != nil || got != token {
			t.Errorf("%s: expected %q, got %q (%v)", name, token, got, err)
		}
	}

	_, err := ExtractTokenFromRequest(httptest.NewRequest("GET", "/test", nil))
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("Expected ErrNoToken, got %v", err)
	}
}

// TestRequireGuestToken tests the middleware and the context helpers
func TestRequireGuestToken(t *testing.T) {
	var seen string
	handler := RequireGuestToken(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	token, err := GenerateGuestToken("ctx-session")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if seen != "ctx-session" {
		t.Errorf("Expected session ID from context, got %q", seen)
	}

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest("GET", "/api/history", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without token, got %d", w.Code)
	}
}

// TestGetClientIP tests proxy header handling
func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := GetClientIP(req); got != "192.0.2.1" {
		t.Errorf("Expected 192.0.2.1, got %s", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := GetClientIP(req); got != "203.0.113.7" {
		t.Errorf("Expected 203.0.113.7, got %s", got)
	}
}

// BenchmarkTokenValidation benchmarks token validation performance
func BenchmarkTokenValidation(b *testing.B) {
	token, err := GenerateGuestToken("benchmark-session")
	if err != nil {
		b.Fatalf("Failed to generate token: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ValidateGuestToken(token); err != nil {
			b.Fatalf("Failed to validate token: %v", err)
		}
	}
}
