// Package tls stellt TLS für den Rechner-Server bereit: Let's Encrypt über
// autocert, manuelle Zertifikate oder ein selbstsigniertes Entwicklungs-
// zertifikat.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antibyte/retrocalc/pkg/configuration"
	"github.com/antibyte/retrocalc/pkg/logger"

	"golang.org/x/crypto/acme/autocert"
)

// Mode beschreibt die Herkunft der Zertifikate
type Mode int

const (
	ModeDisabled Mode = iota
	ModeLetsEncrypt
	ModeManual
	ModeSelfSigned
)

func (m Mode) String() string {
	switch m {
	case ModeLetsEncrypt:
		return "letsencrypt"
	case ModeManual:
		return "manual"
	case ModeSelfSigned:
		return "self-signed"
	}
	return "disabled"
}

// Config enthält die TLS-Einstellungen aus der [TLS] Sektion
type Config struct {
	EnableTLS          bool
	EnableLetsEncrypt  bool
	SelfSigned         bool
	Domain             string
	LetsEncryptEmail   string
	CertCacheDir       string
	ForceHTTPSRedirect bool
	CertFile           string
	KeyFile            string
	HTTPPort           string
	HTTPSPort          string
}

// LoadConfig liest die TLS-Konfiguration
func LoadConfig() Config {
	return Config{
		EnableTLS:          configuration.GetBool("TLS", "enable_tls", false),
		EnableLetsEncrypt:  configuration.GetBool("TLS", "enable_letsencrypt", false),
		SelfSigned:         configuration.GetBool("TLS", "self_signed", false),
		Domain:             configuration.GetString("TLS", "domain", ""),
		LetsEncryptEmail:   configuration.GetString("TLS", "letsencrypt_email", ""),
		CertCacheDir:       configuration.GetString("TLS", "cert_cache_dir", "./certs"),
		ForceHTTPSRedirect: configuration.GetBool("TLS", "force_https_redirect", false),
		CertFile:           configuration.GetString("TLS", "cert_file", "./certs/server.crt"),
		KeyFile:            configuration.GetString("TLS", "key_file", "./certs/server.key"),
		HTTPPort:           configuration.GetString("TLS", "http_port", "8080"),
		HTTPSPort:          configuration.GetString("TLS", "https_port", "8443"),
	}
}

// Mode leitet den Zertifikatsmodus aus der Konfiguration ab
func (c Config) Mode() Mode {
	switch {
	case !c.EnableTLS:
		return ModeDisabled
	case c.EnableLetsEncrypt:
		return ModeLetsEncrypt
	case c.SelfSigned:
		return ModeSelfSigned
	}
	return ModeManual
}

// Validate prüft die Konfiguration für den gewählten Modus
func (c Config) Validate() error {
	switch c.Mode() {
	case ModeLetsEncrypt:
		if strings.TrimSpace(c.Domain) == "" {
			return errors.New("domain is required when Let's Encrypt is enabled")
		}
		if strings.TrimSpace(c.LetsEncryptEmail) == "" {
			return errors.New("letsencrypt_email is required when Let's Encrypt is enabled")
		}
	case ModeManual, ModeSelfSigned:
		if c.CertFile == "" || c.KeyFile == "" {
			return errors.New("cert_file and key_file are required")
		}
	}
	return nil
}

// Manager verwaltet TLS-Konfiguration und Zertifikate
type Manager struct {
	config      Config
	autocertMgr *autocert.Manager
	tlsConfig   *tls.Config
}

// NewManager erstellt einen Manager aus der globalen Konfiguration
func NewManager() (*Manager, error) {
	return NewManagerWithConfig(LoadConfig())
}

// NewManagerWithConfig erstellt einen Manager aus cfg
func NewManagerWithConfig(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("TLS configuration validation failed: %w", err)
	}

	m := &Manager{config: cfg}
	var err error
	switch cfg.Mode() {
	case ModeLetsEncrypt:
		err = m.initLetsEncrypt()
	case ModeSelfSigned:
		if _, statErr := os.Stat(cfg.CertFile); os.IsNotExist(statErr) {
			if err = GenerateSelfSignedCert(cfg.CertFile, cfg.KeyFile, hostsFor(cfg.Domain)); err != nil {
				break
			}
		}
		err = m.initManual()
	case ModeManual:
		err = m.initManual()
	}
	if err != nil {
		return nil, fmt.Errorf("TLS initialization failed: %w", err)
	}

	logger.SecurityInfo("TLS mode: %s", cfg.Mode())
	return m, nil
}

func hostsFor(domain string) []string {
	if domain == "" {
		return []string{"localhost", "127.0.0.1"}
	}
	return []string{domain}
}

// initLetsEncrypt richtet autocert ein
func (m *Manager) initLetsEncrypt() error {
	if err := os.MkdirAll(m.config.CertCacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create certificate cache directory: %w", err)
	}

	domain := m.config.Domain
	m.autocertMgr = &autocert.Manager{
		Cache:      autocert.DirCache(m.config.CertCacheDir),
		Prompt:     autocert.AcceptTOS,
		Email:      m.config.LetsEncryptEmail,
		HostPolicy: autocert.HostWhitelist(domain, "www."+domain),
	}

	m.tlsConfig = &tls.Config{
		GetCertificate: func(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
			if hello.ServerName == "" {
				// Ohne SNI die konfigurierte Domain verwenden
				hello.ServerName = domain
			}
			cert, err := m.autocertMgr.GetCertificate(hello)
			if err != nil {
				logger.SecurityWarn("Failed to get certificate for %s: %v", hello.ServerName, err)
				return nil, err
			}
			return cert, nil
		},
		NextProtos: []string{"h2", "http/1.1", "acme-tls/1"},
		MinVersion: tls.VersionTLS12,
	}
	logger.SecurityInfo("Let's Encrypt initialized for domain: %s", domain)
	return nil
}

// initManual lädt Zertifikat und Schlüssel von der Platte
func (m *Manager) initManual() error {
	cert, err := tls.LoadX509KeyPair(m.config.CertFile, m.config.KeyFile)
	if err != nil {
		return fmt.Errorf("load key pair %s: %w", m.config.CertFile, err)
	}
	m.tlsConfig = &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	return nil
}

// TLSConfig liefert die Server-Konfiguration, nil ohne TLS
func (m *Manager) TLSConfig() *tls.Config {
	return m.tlsConfig
}

// Enabled meldet, ob TLS aktiv ist
func (m *Manager) Enabled() bool {
	return m.config.Mode() != ModeDisabled
}

// Config gibt die verwendete Konfiguration zurück
func (m *Manager) Config() Config {
	return m.config
}

// NeedsHTTPServer meldet, ob neben HTTPS ein HTTP-Listener gebraucht wird
// (ACME-Challenges oder Weiterleitung).
func (m *Manager) NeedsHTTPServer() bool {
	return m.Enabled() && (m.autocertMgr != nil || m.config.ForceHTTPSRedirect)
}

// HTTPHandler liefert den Handler für den HTTP-Listener neben HTTPS.
// ACME-Challenges werden beantwortet, alles andere umgeleitet oder an
// fallback übergeben.
func (m *Manager) HTTPHandler(fallback http.Handler) http.Handler {
	next := fallback
	if m.config.ForceHTTPSRedirect {
		next = m.redirectHandler()
	}
	if m.autocertMgr != nil {
		return m.autocertMgr.HTTPHandler(next)
	}
	return next
}

func (m *Manager) redirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		target := "https://" + host
		if m.config.HTTPSPort != "443" {
			target += ":" + m.config.HTTPSPort
		}
		target += r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}

// GenerateSelfSignedCert schreibt ein ECDSA-Zertifikat für hosts nach
// certFile und keyFile. Nur für die Entwicklung gedacht.
func GenerateSelfSignedCert(certFile, keyFile string, hosts []string) error {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("generate serial: %w", err)
	}

	template := x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{Organization: []string{"retrocalc development"}},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}

	if err := writePEM(certFile, "CERTIFICATE", der, 0644); err != nil {
		return err
	}
	if err := writePEM(keyFile, "EC PRIVATE KEY", keyDER, 0600); err != nil {
		return err
	}
	logger.SecurityWarn("Self-signed certificate written to %s - not for production", certFile)
	return nil
}

func writePEM(path, blockType string, der []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
