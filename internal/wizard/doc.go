// Package wizard is the first-run console wizard.
//
// It walks the operator through the same fields the web settings page
// offers (WiFi credentials, hostname, timezone, optional MQTT broker) and
// writes them to the settings store. It exists for the case where the
// device has a keyboard but the operator has no second device to join the
// setup hotspot with.
package wizard
