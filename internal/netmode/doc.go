// Package netmode decides between access-point setup mode and station mode.
//
// The rule is the firmware's: boot into station mode when a WiFi SSID has
// been stored, fall back to the setup hotspot when there is none or the join
// does not complete within the join deadline. NetworkManager (nmcli) owns the
// actual radio work; this package shells out to it behind a Runner interface
// so tests never touch the real network.
//
// There is no backoff. Station mode re-checks the link on a fixed timer and
// asks nmcli to reconnect when it is down, exactly one attempt per tick.
package netmode
