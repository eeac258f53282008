// Package daemon owns the clock's run loop.
//
// Boot loads the settings, opens the display, then enters one of two modes:
//
//   - setup: open hotspot, captive DNS, HTTP settings portal, and a display
//     layout pointing at the portal address;
//   - station: join the stored WiFi network, then run the NTP monitor, the
//     HTTP dashboard, the mDNS announcement, the optional MQTT publisher,
//     a 500 ms render loop, and a fixed-interval WiFi reconnect check.
//
// Saving settings from the portal tears the current mode down and
// re-evaluates, the way the firmware rebooted after a save. SIGINT and
// SIGTERM blank the display, mark MQTT offline, and stop the servers.
package daemon
