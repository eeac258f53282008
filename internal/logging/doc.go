// Package logging provides structured logging for the oledclock daemon.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the daemon. Logging is silent unless a level is
// passed explicitly or the OLEDCLOCK_LOG_LEVEL environment variable is set,
// so CLI commands stay quiet by default.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (frame diffs, NTP query results)
//   - Info: Normal operations (mode changes, connections, settings saves)
//   - Warn: Non-fatal issues (WiFi reconnects, MQTT drops)
//   - Error: Fatal issues (startup failures, display errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("WiFi joined",
//	    zap.String("ssid", "HomeNet"),
//	    zap.String("ip", "192.168.1.40"),
//	)
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
