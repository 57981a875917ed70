// Package telemetry exports controller events.
//
// Events are observed on the control goroutine. Metrics updates are
// lock-free collectors; MQTT publishing is handed off to a background
// runnable through a bounded queue and dropped when the queue is full.
package telemetry
