package clock

import (
	"errors"
	"testing"
	"time"
)

func TestMonitorStartsUnsynced(t *testing.T) {
	m := NewMonitor("pool.ntp.org", time.Minute)
	if m.Synced(time.Now()) {
		t.Error("fresh monitor reported synced before any measurement")
	}
}

func TestMonitorSyncedAfterGoodMeasurement(t *testing.T) {
	m := NewMonitor("pool.ntp.org", time.Minute)
	m.query = func(server string) (time.Duration, error) {
		return 40 * time.Millisecond, nil
	}

	m.poll()

	if !m.Synced(time.Now()) {
		t.Error("monitor not synced after good measurement")
	}

	st := m.Status()
	if !st.Synced {
		t.Error("Status().Synced = false after good measurement")
	}
	if st.Offset != 40*time.Millisecond {
		t.Errorf("Status().Offset = %v, want 40ms", st.Offset)
	}
	if st.QueryCount != 1 {
		t.Errorf("Status().QueryCount = %d, want 1", st.QueryCount)
	}
}

func TestMonitorRejectsLargeOffset(t *testing.T) {
	m := NewMonitor("pool.ntp.org", time.Minute)
	m.query = func(server string) (time.Duration, error) {
		return -5 * time.Second, nil
	}

	m.poll()

	if m.Synced(time.Now()) {
		t.Error("monitor synced despite 5s offset")
	}
}

func TestMonitorGoesStale(t *testing.T) {
	m := NewMonitor("pool.ntp.org", time.Minute)
	m.query = func(server string) (time.Duration, error) {
		return 0, nil
	}
	m.poll()

	if !m.Synced(time.Now()) {
		t.Fatal("monitor should be synced right after measurement")
	}

	// Asking about a time far past the measurement must report stale.
	future := time.Now().Add(staleAfter + time.Minute)
	if m.Synced(future) {
		t.Error("monitor still synced after staleness window")
	}
}

func TestMonitorKeepsLastGoodMeasurementOnError(t *testing.T) {
	m := NewMonitor("pool.ntp.org", time.Minute)
	m.query = func(server string) (time.Duration, error) {
		return 10 * time.Millisecond, nil
	}
	m.poll()

	m.query = func(server string) (time.Duration, error) {
		return 0, errors.New("i/o timeout")
	}
	m.poll()

	// A failed poll must not clear the previous sync; it only records the
	// error and lets staleness expire the state.
	if !m.Synced(time.Now()) {
		t.Error("single failed poll cleared sync state")
	}

	st := m.Status()
	if st.LastError == "" {
		t.Error("Status().LastError empty after failed poll")
	}
	if st.QueryCount != 2 {
		t.Errorf("Status().QueryCount = %d, want 2", st.QueryCount)
	}
}
