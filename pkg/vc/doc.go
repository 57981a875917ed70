// Package vc implements the vehicle controller: the line protocol
// interpreter and the watchdog gated actuation loop.
package vc

// The controller accepts one ASCII command per line over a byte link.
// A line starts with a single verb letter optionally followed by an
// argument. Every line gets exactly one reply, "OK" or "E<code>".
//
// Throttle and steering are only accepted after R (run). If no R or T
// arrives within the timeout (D), the supervisor halts the vehicle and
// zeroes the throttle. Further actuation commands fail with E3 until
// the next R.
//
// All state is owned by the control goroutine; nothing in this package
// is safe for concurrent use.
