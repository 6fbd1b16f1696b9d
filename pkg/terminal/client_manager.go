package terminal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/logger"
	"github.com/antibyte/retrocalc/pkg/shared"
)

// RateLimitInfo speichert Rate-Limiting-Informationen pro IP
type RateLimitInfo struct {
	requests  int
	lastReset time.Time
}

// ClientManager verwaltet Client-Verbindungen mit Session-IDs
type ClientManager struct {
	clients    map[string]*Client        // sessionID -> Client
	rateLimits map[string]*RateLimitInfo // ipAddress -> RateLimitInfo
	mu         sync.RWMutex

	maxRequests int // pro Minute und IP
}

// NewClientManager erstellt einen neuen ClientManager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients:     make(map[string]*Client),
		rateLimits:  make(map[string]*RateLimitInfo),
		maxRequests: configuration.GetInt("Security", "rate_limit_messages", 200),
	}
}

// AddClient registriert client für seine Session. Eine ältere Verbindung
// derselben Session wird geschlossen.
func (cm *ClientManager) AddClient(client *Client) {
	cm.mu.Lock()
	previous := cm.clients[client.sessionID]
	cm.clients[client.sessionID] = client
	cm.mu.Unlock()

	if previous != nil && previous != client {
		logger.WebSocketInfo("session %s reconnected, closing previous connection", client.sessionID)
		previous.close()
	}
	logger.WebSocketDebug("client added for session %s", client.sessionID)
}

// RemoveClient entfernt client, sofern er noch für seine Session registriert ist
func (cm *ClientManager) RemoveClient(client *Client) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if current, exists := cm.clients[client.sessionID]; exists && current == client {
		delete(cm.clients, client.sessionID)
		logger.WebSocketDebug("client removed for session %s", client.sessionID)
	}
}

// SendToClient sendet eine Nachricht an den Client einer Session
func (cm *ClientManager) SendToClient(sessionID string, message shared.Message) error {
	cm.mu.RLock()
	client, exists := cm.clients[sessionID]
	cm.mu.RUnlock()
	if !exists {
		return fmt.Errorf("client not found for session %s", sessionID)
	}

	jsonData, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if !client.Send(jsonData) {
		return fmt.Errorf("send to session %s failed", sessionID)
	}
	return nil
}

// GetClientCount gibt die Anzahl der verbundenen Clients zurück
func (cm *ClientManager) GetClientCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// HasClient prüft, ob ein Client für die Session existiert
func (cm *ClientManager) HasClient(sessionID string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, exists := cm.clients[sessionID]
	return exists
}

// CheckRateLimit prüft das Rate-Limiting für eine IP-Adresse
func (cm *ClientManager) CheckRateLimit(ipAddress string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	now := time.Now()
	rateLimit, exists := cm.rateLimits[ipAddress]
	if !exists {
		rateLimit = &RateLimitInfo{lastReset: now}
		cm.rateLimits[ipAddress] = rateLimit
	}

	// Reset Zähler wenn mehr als eine Minute vergangen ist
	if now.Sub(rateLimit.lastReset) > time.Minute {
		rateLimit.requests = 0
		rateLimit.lastReset = now
	}
	rateLimit.requests++

	if rateLimit.requests > cm.maxRequests {
		if rateLimit.requests == cm.maxRequests+1 {
			logger.SecurityWarn("Rate limit exceeded for IP %s: %d requests in last minute", ipAddress, rateLimit.requests)
		}
		return fmt.Errorf("rate limit exceeded: too many requests from %s", ipAddress)
	}
	return nil
}

// CleanupRateLimits entfernt abgelaufene Rate-Limit-Einträge
func (cm *ClientManager) CleanupRateLimits() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for ip, info := range cm.rateLimits {
		if time.Since(info.lastReset) > 2*time.Minute {
			delete(cm.rateLimits, ip)
		}
	}
}

// StartPeriodicCleanup räumt die Rate-Limits im Hintergrund auf, bis ctx
// beendet ist.
func (cm *ClientManager) StartPeriodicCleanup(ctx context.Context) {
	cm.startCleanup(ctx, configuration.GetDuration("Security", "rate_limit_cleanup_interval", time.Minute))
}

func (cm *ClientManager) startCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cm.CleanupRateLimits()
			}
		}
	}()
}
