package irq

import (
	"sync"
)

// Locked serializes access to a Requester so that peripheral goroutines
// may raise requests while the processor runs.
//
// A level above the one last reported by HighestPriority is latched until
// that level is acknowledged or sampled again, so a request racing the
// acknowledge cycle is taken at the next boundary.
type Locked struct {
	mutex     sync.Mutex
	requester Requester
	sampled   uint8 // Level last reported and not yet acknowledged.
	latched   uint8 // Requests held back while sampled is outstanding.
}

var _ Requester = (*Locked)(nil)

// NewLocked wraps requester.
func NewLocked(requester Requester) *Locked {
	return &Locked{requester: requester}
}

// Do runs fn with the lock held, for operations outside the Requester set.
func (lc *Locked) Do(fn func(Requester)) {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()
	lc.release()
	fn(lc.requester)
}

// release hands latched requests to the wrapped encoder.
func (lc *Locked) release() {
	for _, level := range levelsOf(lc.latched) {
		lc.requester.RequestInterrupt(level)
	}
	lc.latched = 0
	lc.sampled = 0
}

func levelsOf(mask uint8) (out []uint8) {
	for level := LEVEL_MIN; level <= LEVEL_NMI; level++ {
		if mask&levelBit(level) != 0 {
			out = append(out, level)
		}
	}
	return
}

func (lc *Locked) RequestInterrupt(priority uint8) uint8 {
	bit := levelBit(priority)

	lc.mutex.Lock()
	defer lc.mutex.Unlock()

	if lc.sampled != 0 && priority > lc.sampled {
		lc.latched |= bit
		return lc.requester.Pending() | lc.latched
	}

	return lc.requester.RequestInterrupt(priority) | lc.latched
}

func (lc *Locked) Pending() uint8 {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()
	return lc.requester.Pending() | lc.latched
}

func (lc *Locked) ResetExternalDevices() {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()
	lc.latched = 0
	lc.sampled = 0
	lc.requester.ResetExternalDevices()
}

func (lc *Locked) HighestPriority() uint8 {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()
	lc.release()
	lc.sampled = lc.requester.HighestPriority()
	return lc.sampled
}

func (lc *Locked) AcknowledgeInterrupt(priority uint8) (uint8, bool) {
	lc.mutex.Lock()
	defer lc.mutex.Unlock()
	vector, ok := lc.requester.AcknowledgeInterrupt(priority)
	lc.release()
	return vector, ok
}
