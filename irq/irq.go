// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package irq implements interrupt priority encoders for the 68000 IPL lines.
//
// An encoder tracks which of the seven priority levels have an outstanding
// request, reports the highest one, and resolves an acknowledged level to
// an exception vector number. Level 7 is the highest priority.
package irq

import (
	"fmt"
	"iter"
	"maps"
	"math/bits"
)

const (
	SPURIOUS_INTERRUPT = uint8(0x18) // Vector used when no vector is supplied.
	AUTOVECTOR_BASE    = uint8(0x18) // Level n autovectors to AUTOVECTOR_BASE + n.
	LEVEL_MIN          = uint8(1)    // Lowest request level.
	LEVEL_NMI          = uint8(7)    // Highest request level.
)

var _irq_defines = map[string]string{
	"SPURIOUS_INTERRUPT": fmt.Sprintf("0x%x", SPURIOUS_INTERRUPT),
	"AUTOVECTOR_BASE":    fmt.Sprintf("0x%x", AUTOVECTOR_BASE),
	"LEVEL_NMI":          fmt.Sprintf("%d", LEVEL_NMI),
}

// Defines for the interrupt encoders.
func Defines() iter.Seq2[string, string] {
	return maps.All(_irq_defines)
}

// Controller is the contract the processor uses at each instruction boundary.
type Controller interface {
	// ResetExternalDevices drops every pending request.
	ResetExternalDevices()
	// HighestPriority returns the highest pending level, or 0. No side effects.
	HighestPriority() uint8
	// AcknowledgeInterrupt consumes the request at priority, which must be
	// the level HighestPriority reports. ok is false for a spurious
	// interrupt.
	AcknowledgeInterrupt(priority uint8) (vector uint8, ok bool)
}

// Requester is a Controller that peripherals can raise requests on.
type Requester interface {
	Controller
	// RequestInterrupt raises a level and returns the pending mask.
	RequestInterrupt(priority uint8) (mask uint8)
	// Pending returns the request mask; bit n-1 is level n.
	Pending() uint8
}

func levelBit(priority uint8) uint8 {
	if priority < LEVEL_MIN || priority > LEVEL_NMI {
		panic(ErrPriority(priority))
	}
	return 1 << (priority - 1)
}

func highest(mask uint8) uint8 {
	return uint8(bits.Len8(mask))
}

// acknowledged returns the bit of priority, panicking with ErrAcknowledge
// unless it is the highest level in pending.
func acknowledged(pending uint8, priority uint8) uint8 {
	bit := levelBit(priority)
	if top := highest(pending); top != priority {
		panic(ErrAcknowledge{Priority: priority, Highest: top})
	}
	return bit
}

// Auto is the autovectored encoder: level n always resolves to
// AUTOVECTOR_BASE + n.
type Auto struct {
	pending uint8
}

var _ Requester = (*Auto)(nil)

// NewAuto creates an encoder with nothing pending.
func NewAuto() *Auto {
	return &Auto{}
}

// Pending returns the request mask; bit n-1 is level n.
func (ac *Auto) Pending() uint8 {
	return ac.pending
}

// RequestInterrupt raises a level. Raising a pending level has no effect.
func (ac *Auto) RequestInterrupt(priority uint8) (mask uint8) {
	ac.pending |= levelBit(priority)
	mask = ac.pending
	return
}

func (ac *Auto) ResetExternalDevices() {
	ac.pending = 0
}

func (ac *Auto) HighestPriority() uint8 {
	return highest(ac.pending)
}

func (ac *Auto) AcknowledgeInterrupt(priority uint8) (vector uint8, ok bool) {
	ac.pending &^= acknowledged(ac.pending, priority)
	vector = AUTOVECTOR_BASE + priority
	ok = true
	return
}
