package netmode

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/config"
	"github.com/oledclock/oledclock/internal/logging"
)

// Mode is the device's network role.
type Mode string

const (
	// ModeSetup is the open hotspot with the captive portal.
	ModeSetup Mode = "setup"
	// ModeStation is normal operation on the configured WiFi network.
	ModeStation Mode = "station"
)

// hotspotConnName is the NetworkManager connection profile used for the
// setup hotspot, so it can be torn down by name.
const hotspotConnName = "oledclock-setup"

// HotspotIP is the address NetworkManager assigns the hotspot interface in
// shared mode. The captive DNS and the portal URL both point here.
const HotspotIP = "10.42.0.1"

// Status is a point-in-time view of the network for the display and the
// status API.
type Status struct {
	Mode      Mode   `json:"mode"`
	SSID      string `json:"ssid,omitempty"`
	IP        string `json:"ip,omitempty"`
	Connected bool   `json:"connected"`
}

// Controller brings up station or hotspot mode through nmcli.
type Controller struct {
	runner Runner
	iface  string

	mu     sync.RWMutex
	status Status
}

// NewController creates a Controller for the given wireless interface.
// A nil runner defaults to ExecRunner.
func NewController(runner Runner, iface string) *Controller {
	if runner == nil {
		runner = ExecRunner{}
	}
	if iface == "" {
		iface = "wlan0"
	}
	return &Controller{runner: runner, iface: iface}
}

// Decide returns the mode the device should boot into: station when
// credentials are stored, setup otherwise.
func Decide(s *config.Settings) Mode {
	if s.Provisioned() {
		return ModeStation
	}
	return ModeSetup
}

// JoinStation connects the interface to the stored network. nmcli blocks
// until the join completes or fails, which is the firmware's maxJoinWait.
func (c *Controller) JoinStation(ctx context.Context, wifi config.WiFiSettings) error {
	if wifi.SSID == "" {
		return fmt.Errorf("no ssid stored")
	}

	logging.Info("Joining WiFi network",
		zap.String("ssid", wifi.SSID),
		zap.String("interface", c.iface),
	)

	args := []string{"device", "wifi", "connect", wifi.SSID, "ifname", c.iface}
	if wifi.Passphrase != "" {
		args = append(args, "password", wifi.Passphrase)
	}
	if _, err := c.runner.Run(ctx, "nmcli", args...); err != nil {
		c.setStatus(Status{Mode: ModeStation, SSID: wifi.SSID})
		return fmt.Errorf("failed to join %q: %w", wifi.SSID, err)
	}

	ip, err := c.interfaceIP(ctx)
	if err != nil {
		logging.Warn("Joined but could not read interface address", zap.Error(err))
	}
	c.setStatus(Status{Mode: ModeStation, SSID: wifi.SSID, IP: ip, Connected: true})
	logging.Info("WiFi connected", zap.String("ssid", wifi.SSID), zap.String("ip", ip))
	return nil
}

// StartHotspot brings up the open setup hotspot named apName.
func (c *Controller) StartHotspot(ctx context.Context, apName string) error {
	logging.Info("Starting setup hotspot",
		zap.String("ap", apName),
		zap.String("interface", c.iface),
	)

	_, err := c.runner.Run(ctx, "nmcli",
		"device", "wifi", "hotspot",
		"ifname", c.iface,
		"con-name", hotspotConnName,
		"ssid", apName,
	)
	if err != nil {
		return fmt.Errorf("failed to start hotspot: %w", err)
	}

	c.setStatus(Status{Mode: ModeSetup, SSID: apName, IP: HotspotIP, Connected: true})
	return nil
}

// StopHotspot tears the setup hotspot down by its profile name. A missing
// profile is not an error; the hotspot may never have been started.
func (c *Controller) StopHotspot(ctx context.Context) error {
	_, err := c.runner.Run(ctx, "nmcli", "connection", "delete", hotspotConnName)
	if err != nil && !strings.Contains(err.Error(), "unknown connection") {
		return fmt.Errorf("failed to stop hotspot: %w", err)
	}
	return nil
}

// EnsureStation is the fixed-interval reconnect check. When the link is
// down it asks nmcli for one reconnect attempt, nothing more.
func (c *Controller) EnsureStation(ctx context.Context, wifi config.WiFiSettings) {
	if c.linkUp(ctx) {
		ip, err := c.interfaceIP(ctx)
		if err == nil {
			c.setStatus(Status{Mode: ModeStation, SSID: wifi.SSID, IP: ip, Connected: true})
		}
		return
	}

	logging.Warn("WiFi link down, reconnecting", zap.String("ssid", wifi.SSID))
	c.setStatus(Status{Mode: ModeStation, SSID: wifi.SSID})
	if err := c.JoinStation(ctx, wifi); err != nil {
		logging.Warn("Reconnect attempt failed", zap.Error(err))
	}
}

// Status returns the latest known network state.
func (c *Controller) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Controller) setStatus(st Status) {
	c.mu.Lock()
	c.status = st
	c.mu.Unlock()
}

// linkUp reports whether the interface is in nmcli's "connected" state.
func (c *Controller) linkUp(ctx context.Context) bool {
	out, err := c.runner.Run(ctx, "nmcli", "-g", "GENERAL.STATE", "device", "show", c.iface)
	if err != nil {
		return false
	}
	// nmcli prints e.g. "100 (connected)".
	return strings.Contains(out, "(connected)")
}

// interfaceIP reads the interface's first IPv4 address.
func (c *Controller) interfaceIP(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "nmcli", "-g", "IP4.ADDRESS", "device", "show", c.iface)
	if err != nil {
		return "", err
	}
	// First line, prefix length stripped: "192.168.1.40/24" -> "192.168.1.40".
	line := out
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if i := strings.IndexByte(line, '/'); i >= 0 {
		line = line[:i]
	}
	if line == "" {
		return "", fmt.Errorf("interface %s has no IPv4 address", c.iface)
	}
	return line, nil
}
