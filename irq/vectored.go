package irq

// Vectored models peripherals that place their own vector on the data bus
// during the acknowledge cycle.
type Vectored struct {
	// Vectors indexed by level. Zero falls back to the autovector.
	Vectors [8]uint8

	pending   uint8
	withdrawn uint8
}

var _ Requester = (*Vectored)(nil)

// NewVectored creates an encoder with per-level vectors, levels 1..7.
func NewVectored(vectors map[uint8]uint8) (vc *Vectored) {
	vc = &Vectored{}
	for level, vector := range vectors {
		levelBit(level)
		vc.Vectors[level] = vector
	}
	return
}

// Pending returns the request mask; bit n-1 is level n.
func (vc *Vectored) Pending() uint8 {
	return vc.pending
}

// RequestInterrupt raises a level. Raising a pending level has no effect
// other than cancelling an earlier Withdraw.
func (vc *Vectored) RequestInterrupt(priority uint8) (mask uint8) {
	bit := levelBit(priority)
	vc.pending |= bit
	vc.withdrawn &^= bit
	mask = vc.pending
	return
}

// Withdraw drops a request after the processor may already have seen it.
// The level stays visible until acknowledged, then reports as spurious.
func (vc *Vectored) Withdraw(priority uint8) {
	bit := levelBit(priority)
	vc.withdrawn |= vc.pending & bit
}

func (vc *Vectored) ResetExternalDevices() {
	vc.pending = 0
	vc.withdrawn = 0
}

func (vc *Vectored) HighestPriority() uint8 {
	return highest(vc.pending)
}

func (vc *Vectored) AcknowledgeInterrupt(priority uint8) (vector uint8, ok bool) {
	bit := acknowledged(vc.pending, priority)
	spurious := vc.withdrawn&bit != 0
	vc.pending &^= bit
	vc.withdrawn &^= bit
	if spurious {
		return
	}

	vector = vc.Vectors[priority]
	if vector == 0 {
		vector = AUTOVECTOR_BASE + priority
	}
	ok = true
	return
}
