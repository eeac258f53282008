package daemon

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/oledclock/oledclock/internal/clock"
	"github.com/oledclock/oledclock/internal/config"
	"github.com/oledclock/oledclock/internal/display"
	"github.com/oledclock/oledclock/internal/netmode"
)

func testStore(t *testing.T) *config.Store {
	t.Helper()
	store, err := config.Open(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("config.Open() error = %v", err)
	}
	return store
}

func TestEffectiveSettingsAppliesOverrides(t *testing.T) {
	d := New(testStore(t), Options{
		DisplayBackend: "term",
		Listen:         ":8080",
	})

	s := d.effectiveSettings()
	if s.Display.Backend != "term" {
		t.Errorf("Display.Backend = %q, want term", s.Display.Backend)
	}
	if s.HTTP.Listen != ":8080" {
		t.Errorf("HTTP.Listen = %q, want :8080", s.HTTP.Listen)
	}

	// Overrides are per-process; the store keeps its own values.
	if got := d.store.Get().HTTP.Listen; got == ":8080" {
		t.Error("override leaked into the store")
	}
}

func TestStationStateLayouts(t *testing.T) {
	synced := clock.Snapshot{TimeText: "12:30:45", Synced: true}
	unsynced := clock.Snapshot{TimeText: "00:00:07"}
	net := netmode.Status{SSID: "HomeNet", IP: "192.168.1.40", Connected: true}

	st := stationState(synced, net, nil, 3)
	if st.Layout != display.LayoutSynced {
		t.Errorf("synced snapshot layout = %v, want %v", st.Layout, display.LayoutSynced)
	}
	if !st.WiFiOK || st.SSID != "HomeNet" {
		t.Errorf("state = %+v, want WiFi status carried over", st)
	}
	if st.MQTTOn {
		t.Error("MQTT glyph on without a publisher")
	}

	st = stationState(unsynced, net, nil, 3)
	if st.Layout != display.LayoutUnsynced {
		t.Errorf("unsynced snapshot layout = %v, want %v", st.Layout, display.LayoutUnsynced)
	}
}

func TestStatusFuncDocument(t *testing.T) {
	store := testStore(t)
	d := New(store, Options{})
	d.net = netmode.NewController(nil, "wlan0")
	d.started = time.Now().Add(-90 * time.Second)

	settings := store.Get()
	src := clock.NewSource(time.UTC, nil)
	fn := d.statusFunc(src, nil, nil, netmode.ModeSetup, settings)

	st := fn()
	if st.Mode != "setup" {
		t.Errorf("Mode = %q, want setup", st.Mode)
	}
	if st.Hostname != settings.Hostname {
		t.Errorf("Hostname = %q, want %q", st.Hostname, settings.Hostname)
	}
	if st.UptimeSeconds < 89 {
		t.Errorf("UptimeSeconds = %d, want >= 89", st.UptimeSeconds)
	}
	if st.NTP != nil {
		t.Error("NTP section present without a monitor")
	}
	if st.MQTT.Enabled {
		t.Error("MQTT reported enabled with defaults")
	}
}
