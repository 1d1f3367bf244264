//go:build !deadlock

// Package syncutil holds the lock that serializes access to the display.
// Building with -tags=deadlock swaps it for a deadlock-detecting one.
package syncutil

import "sync"

// DeadlockDetection reports whether the deadlock detector is compiled in.
const DeadlockDetection = false

// Mutex guards a display shared between request handlers.
type Mutex struct {
	sync.Mutex
}
