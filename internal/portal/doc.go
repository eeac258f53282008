// Package portal is the captive-portal DNS responder used in setup mode.
//
// Every A query gets the hotspot's own address, so any hostname a phone
// tries resolves to the settings page. AAAA queries get an empty NOERROR
// answer; returning NXDOMAIN there makes some resolvers distrust the A
// answer too. The server runs only while the device is in setup mode.
package portal
