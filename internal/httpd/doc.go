// Package httpd serves the clock's web surface.
//
// Routes:
//
//	GET  /            dashboard with a live clock over WebSocket
//	GET  /settings    settings form, filled by %KEY% substitution
//	POST /settings    validate and persist new settings
//	GET  /api/status  JSON status document
//	GET  /ws          1 Hz clock frames for the dashboard
//
// In setup mode the server also answers the usual captive-portal probe
// paths (and any unknown host) with a redirect to the settings page, so a
// phone joining the hotspot lands there without typing an address.
//
// Pages are embedded static HTML. Placeholders of the form %KEY% are
// replaced in a single pass; %% escapes a literal percent and unknown keys
// stay verbatim, the same substitution the firmware ran over pages stored
// in flash.
package httpd
