package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "config.yaml")
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	store, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := store.Get()
	want := DefaultSettings()
	if got.Hostname != want.Hostname || got.Version != want.Version {
		t.Errorf("Open() on missing file = %+v, want defaults", got)
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	path := testPath(t)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	s := store.Get()
	s.WiFi.SSID = "HomeNet"
	s.WiFi.Passphrase = "correcthorse"
	s.Timezone = "Europe/Amsterdam"
	s.MQTT.Enabled = true
	s.MQTT.Broker = "tcp://192.168.1.2:1883"

	if err := store.Replace(s); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	// A fresh store must see the persisted values.
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after Replace error = %v", err)
	}
	got := reopened.Get()
	if got.WiFi.SSID != "HomeNet" {
		t.Errorf("reloaded SSID = %q, want HomeNet", got.WiFi.SSID)
	}
	if got.Timezone != "Europe/Amsterdam" {
		t.Errorf("reloaded Timezone = %q, want Europe/Amsterdam", got.Timezone)
	}
	if !got.MQTT.Enabled || got.MQTT.Broker != "tcp://192.168.1.2:1883" {
		t.Errorf("reloaded MQTT = %+v, want enabled with broker", got.MQTT)
	}
}

func TestReplaceRejectsInvalidSettings(t *testing.T) {
	store, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	s := store.Get()
	s.WiFi.SSID = "HomeNet"
	s.WiFi.Passphrase = "short"

	if err := store.Replace(s); err == nil {
		t.Fatal("Replace() with invalid passphrase should fail")
	}

	// Store must keep the previous settings.
	if got := store.Get(); got.WiFi.SSID != "" {
		t.Errorf("store mutated by failed Replace: SSID = %q", got.WiFi.SSID)
	}
}

func TestReplaceSignalsChanges(t *testing.T) {
	store, err := Open(testPath(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	s := store.Get()
	s.Hostname = "kitchen-clock"
	if err := store.Replace(s); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	select {
	case <-store.Changes():
	case <-time.After(time.Second):
		t.Fatal("no change notification after Replace()")
	}
}

func TestVersionMismatchResetsToDefaults(t *testing.T) {
	path := testPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatal(err)
	}

	// A file written by schema version 0: stale magic, must be discarded.
	stale := "version: 0\nhostname: old-clock\nwifi:\n  ssid: OldNet\n"
	if err := os.WriteFile(path, []byte(stale), 0600); err != nil {
		t.Fatal(err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	got := store.Get()
	if got.Hostname != "oledclock" || got.WiFi.SSID != "" {
		t.Errorf("stale schema not reset to defaults: %+v", got)
	}
}

func TestCorruptFileIsAnError(t *testing.T) {
	path := testPath(t)
	if err := os.WriteFile(path, []byte("{{{not yaml"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("Open() on corrupt file should fail, not silently reset")
	}
}

func TestSaveMaterializesDefaults(t *testing.T) {
	path := testPath(t)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := store.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("settings file mode = %o, want 0600", mode)
	}
}

// Concurrent savers must leave disk and memory agreeing: with the write and
// the install interleaving freely, writer A's file could land after writer
// B's while B's settings win in memory.
func TestConcurrentReplaceKeepsDiskAndMemoryInAgreement(t *testing.T) {
	path := testPath(t)
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				s := store.Get()
				s.Hostname = fmt.Sprintf("clock-%d-%d", n, j)
				if err := store.Replace(s); err != nil {
					t.Errorf("Replace() error = %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after concurrent writes error = %v", err)
	}
	if disk, mem := reopened.Get().Hostname, store.Get().Hostname; disk != mem {
		t.Errorf("disk hostname %q != in-memory hostname %q", disk, mem)
	}
}
