package httpd

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/clock"
	"github.com/oledclock/oledclock/internal/config"
	"github.com/oledclock/oledclock/internal/logging"
	"github.com/oledclock/oledclock/internal/netmode"
)

// broadcastInterval is the WebSocket push rate: one clock frame per second.
const broadcastInterval = time.Second

// MQTTStatus is the telemetry section of the status document.
type MQTTStatus struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// Status is the /api/status document and the WebSocket frame payload.
type Status struct {
	Time          string               `json:"time"`
	Date          string               `json:"date"`
	Zone          string               `json:"zone"`
	Synced        bool                 `json:"synced"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	Mode          string               `json:"mode"`
	SSID          string               `json:"ssid,omitempty"`
	IP            string               `json:"ip,omitempty"`
	Connected     bool                 `json:"connected"`
	RSSI          *int                 `json:"rssi"` // not measured on this platform
	MQTT          MQTTStatus           `json:"mqtt"`
	NTP           *clock.MonitorStatus `json:"ntp,omitempty"`
	Hostname      string               `json:"hostname"`
	Version       string               `json:"version"`
}

// StatusFunc assembles the current status document. The daemon provides it;
// the server never reaches into the other subsystems itself.
type StatusFunc func() Status

// Config wires the server to the rest of the daemon.
type Config struct {
	Listen string
	Store  *config.Store
	Status StatusFunc

	// Setup reports whether the device is in setup mode, which turns on
	// the captive-portal behavior.
	Setup func() bool

	// PortalHost is where captive redirects point, normally the hotspot IP.
	PortalHost string
}

// Server is the dashboard/settings/status HTTP server.
type Server struct {
	cfg     Config
	hub     *Hub
	httpSrv *http.Server

	listener net.Listener
	cancel   context.CancelFunc
}

// New creates a Server. Start brings it up.
func New(cfg Config) *Server {
	if cfg.PortalHost == "" {
		cfg.PortalHost = netmode.HotspotIP
	}
	if cfg.Setup == nil {
		cfg.Setup = func() bool { return false }
	}
	return &Server{
		cfg: cfg,
		hub: NewHub(),
	}
}

// Start binds the listener and serves until Shutdown. It blocks.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	s.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.hub.Run(ctx)
	go s.broadcastLoop(ctx)

	s.httpSrv = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logging.Info("HTTP server listening", zap.String("addr", listener.Addr().String()))
	if err := s.httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start has bound the listener.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Listen
	}
	return s.listener.Addr().String()
}

// Shutdown stops the broadcast loop and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// broadcastLoop pushes one status frame per second to every dashboard.
func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := json.Marshal(s.cfg.Status())
			if err != nil {
				logging.Error("Failed to marshal status frame", zap.Error(err))
				continue
			}
			s.hub.Broadcast(data)
		}
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(s.captiveRedirect)

	r.Get("/", s.handleDashboard)
	r.Get("/settings", s.handleSettingsForm)
	r.Post("/settings", s.handleSettingsSave)
	r.Get("/api/status", s.handleStatus)
	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, ww.Status())
	})
}

// probePaths are the connectivity checks phones fire after joining a
// network. Answering them with a redirect pops the "sign in to network"
// sheet that opens the settings page.
var probePaths = map[string]bool{
	"/generate_204":        true, // Android
	"/gen_204":             true, // Android
	"/hotspot-detect.html": true, // iOS/macOS
	"/connecttest.txt":     true, // Windows
	"/ncsi.txt":            true, // Windows
	"/success.txt":         true, // Firefox
}

// captiveRedirect is active only in setup mode: probe paths and requests
// for any host other than the portal itself bounce to the settings page.
func (s *Server) captiveRedirect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.cfg.Setup() {
			next.ServeHTTP(w, r)
			return
		}

		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if probePaths[r.URL.Path] || !strings.EqualFold(host, s.cfg.PortalHost) {
			http.Redirect(w, r, s.portalURL(), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// portalURL is the captive redirect target. On a non-default port the
// redirect must carry it, or phones land on a closed port 80. The bound
// listener wins over the configured address so :0 resolves to the real
// ephemeral port.
func (s *Server) portalURL() string {
	host := s.cfg.PortalHost
	port := ""
	if _, p, err := net.SplitHostPort(s.cfg.Listen); err == nil {
		port = p
	}
	if s.listener != nil {
		if _, p, err := net.SplitHostPort(s.listener.Addr().String()); err == nil {
			port = p
		}
	}
	if port != "" && port != "80" && port != "0" {
		host = net.JoinHostPort(host, port)
	}
	return "http://" + host + "/settings"
}
