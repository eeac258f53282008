// Package announce advertises the clock's dashboard over mDNS.
//
// The daemon registers an _http._tcp service under the configured hostname
// so the dashboard is reachable as http://<hostname>.local/ without knowing
// the DHCP address. TXT records carry the firmware version and the current
// mode for anything browsing the network.
package announce
