package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Version != SettingsVersion {
		t.Errorf("DefaultSettings().Version = %v, want %v", s.Version, SettingsVersion)
	}
	if s.Hostname != "oledclock" {
		t.Errorf("DefaultSettings().Hostname = %v, want oledclock", s.Hostname)
	}
	if s.Provisioned() {
		t.Error("factory defaults should not be provisioned")
	}
	if s.MQTT.Enabled {
		t.Error("MQTT should be disabled by default")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("DefaultSettings() should validate, got: %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string // substring of the expected error, "" = valid
	}{
		{
			name:   "defaults are valid",
			mutate: func(s *Settings) {},
		},
		{
			name: "provisioned with wpa2 passphrase",
			mutate: func(s *Settings) {
				s.WiFi.SSID = "HomeNet"
				s.WiFi.Passphrase = "correcthorse"
			},
		},
		{
			name: "open network without passphrase",
			mutate: func(s *Settings) {
				s.WiFi.SSID = "CoffeeShop"
			},
		},
		{
			name:    "ssid too long",
			mutate:  func(s *Settings) { s.WiFi.SSID = strings.Repeat("x", 33) },
			wantErr: "ssid",
		},
		{
			name: "passphrase too short",
			mutate: func(s *Settings) {
				s.WiFi.SSID = "HomeNet"
				s.WiFi.Passphrase = "short"
			},
			wantErr: "passphrase",
		},
		{
			name: "passphrase too long",
			mutate: func(s *Settings) {
				s.WiFi.SSID = "HomeNet"
				s.WiFi.Passphrase = strings.Repeat("p", 64)
			},
			wantErr: "passphrase",
		},
		{
			name:    "empty hostname",
			mutate:  func(s *Settings) { s.Hostname = "" },
			wantErr: "hostname",
		},
		{
			name:    "bogus timezone",
			mutate:  func(s *Settings) { s.Timezone = "Mars/Olympus_Mons" },
			wantErr: "timezone",
		},
		{
			name:    "unknown display geometry",
			mutate:  func(s *Settings) { s.Display.Geometry = "96x16" },
			wantErr: "geometry",
		},
		{
			name:    "unknown display backend",
			mutate:  func(s *Settings) { s.Display.Backend = "vga" },
			wantErr: "backend",
		},
		{
			name:    "oled backend needs i2c address",
			mutate:  func(s *Settings) { s.Display.I2CAddr = 0 },
			wantErr: "i2c",
		},
		{
			// The driver cannot address the SA0-strapped variant.
			name:    "oled backend rejects 0x3d",
			mutate:  func(s *Settings) { s.Display.I2CAddr = 0x3d },
			wantErr: "i2c",
		},
		{
			name:    "empty ntp server",
			mutate:  func(s *Settings) { s.NTP.Server = "" },
			wantErr: "server",
		},
		{
			name:    "ntp poll interval too short",
			mutate:  func(s *Settings) { s.NTP.PollInterval = time.Second },
			wantErr: "poll interval",
		},
		{
			name: "mqtt enabled without broker",
			mutate: func(s *Settings) {
				s.MQTT.Enabled = true
				s.MQTT.Broker = ""
			},
			wantErr: "broker",
		},
		{
			name: "mqtt enabled fully configured",
			mutate: func(s *Settings) {
				s.MQTT.Enabled = true
				s.MQTT.Broker = "tcp://192.168.1.2:1883"
			},
		},
		{
			name: "mqtt disabled ignores broker",
			mutate: func(s *Settings) {
				s.MQTT.Enabled = false
				s.MQTT.Broker = ""
			},
		},
		{
			name:    "wrong schema version",
			mutate:  func(s *Settings) { s.Version = 99 },
			wantErr: "version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)

			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	s := DefaultSettings()
	s.Timezone = "Not/AZone"

	if loc := s.Location(); loc != time.UTC {
		t.Errorf("Location() = %v, want UTC for unparsable zone", loc)
	}
}

func TestDisplaySize(t *testing.T) {
	d := DisplaySettings{Geometry: "128x32"}
	if w, h := d.DisplaySize(); w != 128 || h != 32 {
		t.Errorf("DisplaySize() = %dx%d, want 128x32", w, h)
	}

	d.Geometry = "128x64"
	if w, h := d.DisplaySize(); w != 128 || h != 64 {
		t.Errorf("DisplaySize() = %dx%d, want 128x64", w, h)
	}
}
