package config

import (
	"fmt"
	"time"
)

// SettingsVersion is the current on-disk schema version. A settings file
// carrying a different version is discarded and replaced with defaults,
// the same way firmware treats a stale EEPROM magic byte.
const SettingsVersion = 1

// WiFi credential limits from IEEE 802.11: SSIDs are at most 32 octets,
// WPA2 passphrases are 8-63 printable characters.
const (
	MaxSSIDLen       = 32
	MinPassphraseLen = 8
	MaxPassphraseLen = 63
)

// Known display geometries for the SSD1306 family.
var knownGeometries = map[string]bool{
	"128x64": true,
	"128x32": true,
}

// DefaultI2CAddr is the SSD1306's fixed bus address. The driver does not
// support the 0x3d SA0 strap.
const DefaultI2CAddr = 0x3c

// Settings is the entire persisted device configuration.
type Settings struct {
	Version  int             `yaml:"version"`
	Hostname string          `yaml:"hostname"`
	Timezone string          `yaml:"timezone"`
	WiFi     WiFiSettings    `yaml:"wifi"`
	Display  DisplaySettings `yaml:"display"`
	HTTP     HTTPSettings    `yaml:"http"`
	NTP      NTPSettings     `yaml:"ntp"`
	MQTT     MQTTSettings    `yaml:"mqtt"`
}

// WiFiSettings holds station-mode credentials. An empty SSID means the
// device has never been provisioned and must boot into setup mode.
type WiFiSettings struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase,omitempty"`
	Interface  string `yaml:"interface,omitempty"` // wireless interface, e.g. "wlan0"
}

// DisplaySettings selects the attached panel and its bus address.
type DisplaySettings struct {
	Geometry string `yaml:"geometry"` // "128x64" or "128x32"
	I2CAddr  uint16 `yaml:"i2c_addr"`
	I2CBus   string `yaml:"i2c_bus,omitempty"` // empty = first available bus
	Backend  string `yaml:"backend"`           // "oled" or "term"
}

// HTTPSettings configures the dashboard/settings/status server.
type HTTPSettings struct {
	Listen string `yaml:"listen"` // host:port
}

// NTPSettings configures the sync monitor.
type NTPSettings struct {
	Server       string        `yaml:"server"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// MQTTSettings configures the optional telemetry publisher.
type MQTTSettings struct {
	Enabled         bool          `yaml:"enabled"`
	Broker          string        `yaml:"broker,omitempty"` // e.g. "tcp://192.168.1.2:1883"
	Username        string        `yaml:"username,omitempty"`
	Password        string        `yaml:"password,omitempty"`
	TopicPrefix     string        `yaml:"topic_prefix,omitempty"`
	PublishInterval time.Duration `yaml:"publish_interval,omitempty"`
}

// DefaultSettings returns the configuration a factory-fresh device boots with.
func DefaultSettings() *Settings {
	return &Settings{
		Version:  SettingsVersion,
		Hostname: "oledclock",
		Timezone: "UTC",
		WiFi: WiFiSettings{
			Interface: "wlan0",
		},
		Display: DisplaySettings{
			Geometry: "128x64",
			I2CAddr:  DefaultI2CAddr,
			Backend:  "oled",
		},
		HTTP: HTTPSettings{
			Listen: ":80",
		},
		NTP: NTPSettings{
			Server:       "pool.ntp.org",
			PollInterval: 15 * time.Minute,
		},
		MQTT: MQTTSettings{
			Enabled:         false,
			TopicPrefix:     "oledclock",
			PublishInterval: time.Minute,
		},
	}
}

// Provisioned reports whether station-mode credentials have been stored.
func (s *Settings) Provisioned() bool {
	return s.WiFi.SSID != ""
}

// Validate checks all fields for values the daemon can actually run with.
// It returns the first problem found.
func (s *Settings) Validate() error {
	if s.Version != SettingsVersion {
		return fmt.Errorf("unsupported settings version %d (want %d)", s.Version, SettingsVersion)
	}
	if s.Hostname == "" {
		return fmt.Errorf("hostname must not be empty")
	}
	if err := s.WiFi.validate(); err != nil {
		return fmt.Errorf("wifi: %w", err)
	}
	if err := s.Display.validate(); err != nil {
		return fmt.Errorf("display: %w", err)
	}
	if s.HTTP.Listen == "" {
		return fmt.Errorf("http: listen address must not be empty")
	}
	if err := s.NTP.validate(); err != nil {
		return fmt.Errorf("ntp: %w", err)
	}
	if err := s.MQTT.validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("timezone: unknown location %q", s.Timezone)
	}
	return nil
}

func (w *WiFiSettings) validate() error {
	if len(w.SSID) > MaxSSIDLen {
		return fmt.Errorf("ssid longer than %d bytes", MaxSSIDLen)
	}
	// Empty passphrase is allowed (open network); a set passphrase must be
	// within WPA2 bounds.
	if w.Passphrase != "" {
		if len(w.Passphrase) < MinPassphraseLen {
			return fmt.Errorf("passphrase shorter than %d characters", MinPassphraseLen)
		}
		if len(w.Passphrase) > MaxPassphraseLen {
			return fmt.Errorf("passphrase longer than %d characters", MaxPassphraseLen)
		}
	}
	return nil
}

func (d *DisplaySettings) validate() error {
	if !knownGeometries[d.Geometry] {
		return fmt.Errorf("unknown geometry %q", d.Geometry)
	}
	switch d.Backend {
	case "oled", "term":
	default:
		return fmt.Errorf("unknown backend %q", d.Backend)
	}
	// The ssd1306 driver only speaks to 0x3c; panels strapped to 0x3d
	// cannot be driven until the driver grows an address option.
	if d.Backend == "oled" && d.I2CAddr != DefaultI2CAddr {
		return fmt.Errorf("i2c address must be %#x", DefaultI2CAddr)
	}
	return nil
}

func (n *NTPSettings) validate() error {
	if n.Server == "" {
		return fmt.Errorf("server must not be empty")
	}
	if n.PollInterval < time.Minute {
		return fmt.Errorf("poll interval %v too short (minimum 1m)", n.PollInterval)
	}
	return nil
}

func (m *MQTTSettings) validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Broker == "" {
		return fmt.Errorf("broker must not be empty when mqtt is enabled")
	}
	if m.TopicPrefix == "" {
		return fmt.Errorf("topic prefix must not be empty when mqtt is enabled")
	}
	if m.PublishInterval < time.Second {
		return fmt.Errorf("publish interval %v too short (minimum 1s)", m.PublishInterval)
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC if the
// stored name no longer parses (e.g. after a tzdata change).
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DisplaySize returns the pixel dimensions for the configured geometry.
func (d *DisplaySettings) DisplaySize() (w, h int) {
	switch d.Geometry {
	case "128x32":
		return 128, 32
	default:
		return 128, 64
	}
}
