package clock

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"go.uber.org/zap"

	"github.com/oledclock/oledclock/internal/logging"
)

const (
	// maxOffset is the largest measured clock offset still reported as
	// "synced" on the display and status API.
	maxOffset = 2 * time.Second

	// staleAfter is how long a successful NTP measurement stays trustworthy.
	// Three missed polls at the default interval.
	staleAfter = 45 * time.Minute
)

// QueryFunc measures the offset between the local clock and an NTP server.
// The default implementation uses github.com/beevik/ntp; tests inject fakes.
type QueryFunc func(server string) (offset time.Duration, err error)

func ntpQuery(server string) (time.Duration, error) {
	resp, err := ntp.Query(server)
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// MonitorStatus is a point-in-time view of the sync state.
type MonitorStatus struct {
	Server     string        `json:"server"`
	LastSync   time.Time     `json:"last_sync"`
	Offset     time.Duration `json:"offset"`
	Synced     bool          `json:"synced"`
	LastError  string        `json:"last_error,omitempty"`
	QueryCount int           `json:"query_count"`
}

// Monitor periodically measures the offset against an NTP server and tracks
// whether the system clock can be called synced. It does not step the clock;
// timesyncd/chrony own that. The monitor only decides what the display and
// the status API report.
type Monitor struct {
	server   string
	interval time.Duration
	query    QueryFunc

	mu         sync.RWMutex
	lastSync   time.Time
	lastOffset time.Duration
	lastErr    error
	queryCount int
}

// NewMonitor creates a Monitor polling the given server at the given interval.
func NewMonitor(server string, interval time.Duration) *Monitor {
	return &Monitor{
		server:   server,
		interval: interval,
		query:    ntpQuery,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately so the
// display leaves the "waiting for time" layout as soon as possible.
func (m *Monitor) Run(ctx context.Context) {
	m.poll()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Monitor) poll() {
	offset, err := m.query(m.server)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCount++
	if err != nil {
		m.lastErr = err
		logging.Warn("NTP query failed",
			zap.String("server", m.server),
			zap.Error(err),
		)
		return
	}
	m.lastErr = nil
	m.lastSync = time.Now()
	m.lastOffset = offset
	logging.Debug("NTP offset measured",
		zap.String("server", m.server),
		zap.Duration("offset", offset),
	)
}

// Synced reports whether the clock counts as synchronized at time now:
// the last successful measurement is fresh and its offset small.
func (m *Monitor) Synced(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastSync.IsZero() {
		return false
	}
	if now.Sub(m.lastSync) > staleAfter {
		return false
	}
	return m.lastOffset.Abs() <= maxOffset
}

// Status returns the current sync state for the JSON status endpoint.
func (m *Monitor) Status() MonitorStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := MonitorStatus{
		Server:     m.server,
		LastSync:   m.lastSync,
		Offset:     m.lastOffset,
		QueryCount: m.queryCount,
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	st.Synced = !m.lastSync.IsZero() &&
		time.Since(m.lastSync) <= staleAfter &&
		m.lastOffset.Abs() <= maxOffset
	return st
}
