// Package display drives the clock's monochrome panel.
//
// The Device interface is the slice of periph.io's display driver the daemon
// needs, so the SSD1306 backend is the periph driver used directly, and a
// terminal backend renders the same frame buffers as text for development
// without hardware.
//
// The Renderer draws three layouts into image1bit frame buffers: the setup
// screen (access point name and portal address), the waiting-for-time screen,
// and the clock face with upscaled HH:MM digits, a seconds bar, and WiFi/MQTT
// status glyphs. The daemon redraws every 500 ms and pushes a frame only when
// it differs from the previous one.
package display
