// Package telemetry publishes the clock's state over MQTT.
//
// When enabled in the settings, the publisher connects to the configured
// broker, announces availability with a retained "online" message and an
// "offline" last-will, and pushes a JSON snapshot of the clock to
// <prefix>/time on a fixed interval. Reconnects are the paho client's
// automatic ones; the publisher adds no retry machinery of its own.
package telemetry
