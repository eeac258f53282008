// Package clock reads the system clock into display-friendly snapshots and
// tracks NTP synchronization state.
//
// The daemon never steps the system clock itself; the OS time daemon does
// that. The Monitor only measures the offset against the configured NTP
// server so the display and the status API can distinguish "synced" from
// "waiting for time". A plausibility floor (year check) keeps a never-set
// clock in the unsynced state even before the first measurement, which is
// the common boot condition on boards without an RTC.
package clock
