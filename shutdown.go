package sweep

import (
	"sync/atomic"
	"time"
)

// shutdownSignal is a write-once flag. Once set it stays set.
type shutdownSignal struct {
	set atomic.Bool
}

// Set raises the signal and reports whether this call made the transition.
func (s *shutdownSignal) Set() bool {
	return s.set.CompareAndSwap(false, true)
}

func (s *shutdownSignal) IsSet() bool {
	return s.set.Load()
}

// startShutdownTimer sets sig once d has elapsed. fired is called only if the
// timer was the one to raise the signal.
func startShutdownTimer(d time.Duration, sig *shutdownSignal, fired func()) *time.Timer {
	return time.AfterFunc(d, func() {
		if sig.Set() && fired != nil {
			fired()
		}
	})
}
