package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antibyte/retrocalc/pkg/auth"
	"github.com/antibyte/retrocalc/pkg/calc"
	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/history"
	"github.com/antibyte/retrocalc/pkg/keymap"
	"github.com/antibyte/retrocalc/pkg/logger"
	"github.com/antibyte/retrocalc/pkg/session"
	"github.com/antibyte/retrocalc/pkg/storage"
	"github.com/antibyte/retrocalc/pkg/terminal"
	tlsmanager "github.com/antibyte/retrocalc/pkg/tls"
)

func main() {
	configPath := flag.String("config", "settings.cfg", "path to settings file")
	flag.Parse()

	// Konfiguration vor allen anderen Initialisierungen
	if err := configuration.Initialize(*configPath); err != nil {
		fmt.Printf("Error initializing configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(); err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	logger.ConfigInfo("System started - Configuration loaded from: %s", *configPath)

	// Database initialization
	dbPath := configuration.GetString("History", "db_path", "retrocalc.db")
	db, err := storage.Open(dbPath)
	if err != nil {
		logger.Fatal(logger.AreaDatabase, "Database initialization failed: %v", err)
	}
	defer db.Close()

	evaluator := calc.NewEvaluator()
	maxRecords := history.MaxRecords()
	sessions := session.NewManager(evaluator, func(owner string) history.Store {
		return history.NewSQLiteStore(db, owner, maxRecords)
	})

	km, err := keymap.LoadOrDefault(configuration.GetString("Calculator", "keymap_file", ""))
	if err != nil {
		logger.Fatal(logger.AreaConfig, "Keymap could not be loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sessions.StartPeriodicCleanup(ctx)

	handler := terminal.NewTerminalHandler(sessions, km)
	handler.ClientManager().StartPeriodicCleanup(ctx)
	mux := newMux(handler)

	tlsManager, err := tlsmanager.NewManager()
	if err != nil {
		logger.Fatal(logger.AreaSecurity, "TLS manager initialization failed: %v", err)
	}

	if err := serve(ctx, mux, tlsManager); err != nil {
		logger.Error(logger.AreaGeneral, "Server stopped: %v", err)
		os.Exit(1)
	}
	logger.Info(logger.AreaGeneral, "Server shut down")
}

// newMux registriert alle Routen
func newMux(handler *terminal.TerminalHandler) *http.ServeMux {
	mux := http.NewServeMux()

	// Authentication API routes
	mux.HandleFunc("/api/auth/session", auth.HandleCreateSession)
	mux.HandleFunc("/api/auth/login", auth.HandleLogin)
	mux.HandleFunc("/api/auth/validate", auth.HandleTokenValidation)
	mux.HandleFunc("/api/auth/logout", auth.HandleLogout)

	mux.HandleFunc("/api/history", auth.RequireGuestToken(handler.HandleHistory))
	mux.HandleFunc("/ws", handler.HandleWebSocket)
	return mux
}

// serve startet HTTP bzw. HTTP+HTTPS und fährt bei ctx.Done herunter
func serve(ctx context.Context, mux http.Handler, tlsManager *tlsmanager.Manager) error {
	cfg := tlsManager.Config()
	errorChan := make(chan error, 2)
	var servers []*http.Server

	if !tlsManager.Enabled() {
		srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		servers = append(servers, srv)
		logger.Info(logger.AreaGeneral, "Starting HTTP server on port %s", cfg.HTTPPort)
		go func() { errorChan <- srv.ListenAndServe() }()
	} else {
		if tlsManager.NeedsHTTPServer() {
			srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: tlsManager.HTTPHandler(mux), ReadHeaderTimeout: 10 * time.Second}
			servers = append(servers, srv)
			logger.Info(logger.AreaSecurity, "Starting HTTP server for ACME challenges/redirects on port %s", cfg.HTTPPort)
			go func() { errorChan <- fmt.Errorf("HTTP server: %w", srv.ListenAndServe()) }()
		}

		srv := &http.Server{
			Addr:              ":" + cfg.HTTPSPort,
			Handler:           mux,
			TLSConfig:         tlsManager.TLSConfig(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		servers = append(servers, srv)
		logger.Info(logger.AreaSecurity, "Starting HTTPS server on port %s", cfg.HTTPSPort)
		// Zertifikate kommen aus TLSConfig
		go func() { errorChan <- fmt.Errorf("HTTPS server: %w", srv.ListenAndServeTLS("", "")) }()
	}

	select {
	case err := <-errorChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn(logger.AreaGeneral, "Shutdown of %s: %v", srv.Addr, err)
		}
	}
	return nil
}
