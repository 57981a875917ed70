// Package client talks to a vehicle controller over its line protocol.
//
// Replies come back in request order, so pending commands are kept in
// a FIFO and each "OK" or "E<code>" line completes the oldest one.
// Status lines received before the reply are attached to it.
package client
