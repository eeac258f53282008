package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/oledclock/oledclock/internal/logging"
)

const (
	appName    = "oledclock"
	configFile = "config.yaml"
)

// DefaultPath returns the default location of the settings file:
// $XDG_CONFIG_HOME/oledclock/config.yaml or $HOME/.config/oledclock/config.yaml.
func DefaultPath() (string, error) {
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName, configFile), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName, configFile), nil
}

// Store is the persisted settings store. It keeps the current settings in
// memory, writes them atomically, and notifies a subscriber when they change
// so the daemon can re-evaluate its mode.
type Store struct {
	path string

	// writeMu serializes savers: the file write and the in-memory install
	// must not interleave between two of them, or disk and memory end up
	// holding different settings.
	writeMu sync.Mutex

	mu      sync.RWMutex
	current *Settings

	changes chan struct{}
}

// Open loads the settings file at path, creating defaults when the file is
// missing or carries a stale schema version. A file that exists but fails to
// parse is an error; silently resetting it would lose the user's WiFi
// credentials on a transient read problem.
func Open(path string) (*Store, error) {
	s := &Store{
		path:    path,
		changes: make(chan struct{}, 1),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.Info("No settings file, using defaults", zap.String("path", path))
		s.current = DefaultSettings()
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var loaded Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	// Version gate: a mismatched schema resets to factory defaults, like an
	// EEPROM magic byte that no longer matches.
	if loaded.Version != SettingsVersion {
		logging.Warn("Settings version mismatch, resetting to defaults",
			zap.Int("found", loaded.Version),
			zap.Int("want", SettingsVersion),
		)
		s.current = DefaultSettings()
		return s, nil
	}

	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	s.current = &loaded
	return s, nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Get returns a copy of the current settings. Mutating the copy does not
// affect the store.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.current
}

// Replace validates, persists, and installs new settings, then signals the
// change channel.
func (s *Store) Replace(next Settings) error {
	next.Version = SettingsVersion
	if err := next.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.write(&next); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = &next
	s.mu.Unlock()

	// Non-blocking: a pending notification already covers this change.
	select {
	case s.changes <- struct{}{}:
	default:
	}

	logging.Info("Settings saved", zap.String("path", s.path))
	return nil
}

// Save persists the current in-memory settings without changing them.
// Useful for materializing defaults on first boot.
func (s *Store) Save() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.RLock()
	cur := *s.current
	s.mu.RUnlock()
	return s.write(&cur)
}

// Changes returns a channel that receives a value whenever Replace installs
// new settings. The channel has a buffer of one; coalesced notifications are
// intentional.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// write performs an atomic write: marshal to a temp file in the same
// directory, then rename over the target.
func (s *Store) write(settings *Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, configFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Settings hold WiFi credentials; keep them user-only.
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set settings file mode: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
