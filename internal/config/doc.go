// Package config manages the persisted device settings for oledclock.
//
// Settings are stored as a single YAML file (WiFi credentials, timezone,
// display geometry, NTP and MQTT options). The file carries a schema version;
// a missing file or a version mismatch yields factory defaults, mirroring the
// EEPROM magic-byte gate the original firmware used. Writes are atomic
// (temp file + rename) and the Store exposes a change channel so the daemon
// can react when the HTTP settings page saves new values.
//
// # Configuration File Location
//
// $XDG_CONFIG_HOME/oledclock/config.yaml or $HOME/.config/oledclock/config.yaml,
// overridable with the --config flag.
//
// # Usage Example
//
//	store, err := config.Open(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings := store.Get()
//	settings.Timezone = "Europe/Amsterdam"
//	if err := store.Replace(settings); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The Store is safe for concurrent use; Get returns a copy and Replace
// serializes writers.
package config
