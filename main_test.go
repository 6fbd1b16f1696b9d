package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/antibyte/retrocalc/pkg/calc"
	"github.com/antibyte/retrocalc/pkg/history"
	"github.com/antibyte/retrocalc/pkg/keymap"
	"github.com/antibyte/retrocalc/pkg/session"
	"github.com/antibyte/retrocalc/pkg/terminal"
)

func newTestMux() *http.ServeMux {
	sessions := session.NewManager(calc.NewEvaluatorWithCache(nil), func(string) history.Store {
		return history.NewMemoryStore(history.DefaultMaxRecords)
	})
	return newMux(terminal.NewTerminalHandler(sessions, keymap.Default()))
}

// TestLoginAndHistoryRoutes runs the guest flow over the registered routes.
func TestLoginAndHistoryRoutes(t *testing.T) {
	server := httptest.NewServer(newTestMux())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/auth/session", "application/json", nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	var sessionResp struct {
		Success   bool   `json:"success"`
		SessionID string `json:"sessionId"`
	}
	json.NewDecoder(resp.Body).Decode(&sessionResp)
	resp.Body.Close()
	if !sessionResp.Success || sessionResp.SessionID == "" {
		t.Fatalf("unexpected session response: %+v", sessionResp)
	}

	body := strings.NewReader(fmt.Sprintf(`{"sessionId":%q}`, sessionResp.SessionID))
	resp, err = http.Post(server.URL+"/api/auth/login", "application/json", body)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	var loginResp struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	resp.Body.Close()
	if !loginResp.Success || loginResp.Token == "" {
		t.Fatalf("login failed: %+v", loginResp)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/history", nil)
	req.Header.Set("Authorization", "Bearer "+loginResp.Token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("history status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/history")
	if err != nil {
		t.Fatalf("history without token: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("history without token status = %d, want 401", resp.StatusCode)
	}

	// Kein eingebautes Web-Frontend: nur API und WebSocket sind registriert
	for _, path := range []string{"/does-not-exist", "/", "/index.html", "/js/app.js", "/css/style.css"} {
		resp, err = http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

// TestNoHardcodedSecrets verifies that no hardcoded secrets are present in the codebase
func TestNoHardcodedSecrets(t *testing.T) {
	dangerousPatterns := []struct {
		pattern     string
		description string
		isRegex     bool
	}{
		{"sehr_geheimes_jwt_token", "Hardcoded German JWT token", false},
		{"fallback_secret_change_in_production", "Production fallback secret", false},
		{"password.*=.*[\"'][^\"']{8,}[\"']", "Hardcoded password", true},
		{"secret.*=.*[\"'][^\"']{8,}[\"']", "Hardcoded secret", true},
	}
	excludeFiles := []string{
		"main_test.go", // This test file itself
		"jwt.go",       // Contains monitored fallback secrets with warnings
	}
	excludeDirs := []string{".git", "_examples", "node_modules", "tmp"}

	var violations []string
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			for _, excludeDir := range excludeDirs {
				if info.Name() == excludeDir {
					return filepath.SkipDir
				}
			}
			return nil
		}
		for _, excludeFile := range excludeFiles {
			if info.Name() == excludeFile {
				return nil
			}
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".go" && ext != ".cfg" && ext != ".yaml" {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read file %s: %v", path, err)
		}
		for lineNum, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "//") {
				continue
			}
			for _, pattern := range dangerousPatterns {
				var matched bool
				if pattern.isRegex {
					matched, _ = regexp.MatchString(pattern.pattern, line)
				} else {
					matched = strings.Contains(line, pattern.pattern)
				}
				if matched {
					violations = append(violations, fmt.Sprintf("%s:%d - %s\nLine: %s", path, lineNum+1, pattern.description, line))
				}
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Error scanning files: %v", err)
	}
	if len(violations) > 0 {
		t.Errorf("Found %d security violations:\n\n%s", len(violations), strings.Join(violations, "\n\n"))
	}
}
