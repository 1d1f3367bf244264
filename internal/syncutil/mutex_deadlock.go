//go:build deadlock

// Package syncutil holds the lock that serializes access to the display.
// Building with -tags=deadlock swaps it for a deadlock-detecting one.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockDetection reports whether the deadlock detector is compiled in.
const DeadlockDetection = true

func init() {
	// A long chart script on the legacy firmware can hold the lock for a
	// few seconds.
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
}

// Mutex guards a display shared between request handlers.
type Mutex struct {
	deadlock.Mutex
}
