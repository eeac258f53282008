package announce

import (
	"fmt"
	"net"
	"strings"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/logging"
	"github.com/oledclock/oledclock/internal/version"
)

const (
	// ServiceType matches what the firmware's MDNS.begin advertised.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
)

// Announcer keeps one registered mDNS service alive.
type Announcer struct {
	server *zeroconf.Server
}

// Register announces hostname's HTTP dashboard on port with the given mode
// in the TXT record. Call Shutdown to withdraw the announcement.
func Register(hostname string, port int, mode string) (*Announcer, error) {
	txt := []string{
		"version=" + version.Version,
		"mode=" + mode,
	}

	server, err := zeroconf.Register(hostname, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("mDNS service registered",
		zap.String("instance", hostname),
		zap.String("type", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", txt),
	)
	return &Announcer{server: server}, nil
}

// Shutdown withdraws the announcement.
func (a *Announcer) Shutdown() {
	if a.server != nil {
		a.server.Shutdown()
		logging.Debug("mDNS service withdrawn")
	}
}

// PortFromListen extracts the TCP port from an HTTP listen address like
// ":80" or "0.0.0.0:8080" for the mDNS record.
func PortFromListen(listen string) (int, error) {
	_, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		// A bare ":80" splits fine; anything else is malformed.
		return 0, fmt.Errorf("cannot parse listen address %q: %w", listen, err)
	}
	var port int
	if _, err := fmt.Sscanf(strings.TrimSpace(portStr), "%d", &port); err != nil {
		return 0, fmt.Errorf("cannot parse port in %q: %w", listen, err)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}
