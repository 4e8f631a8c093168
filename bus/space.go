// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package bus

import (
	"fmt"
)

// Mode is the privilege half of an address qualifier.
type Mode uint8

const (
	MODE_USER       = Mode(0) // User
	MODE_SUPERVISOR = Mode(1) // Supervisor
)

func (m Mode) String() string {
	if m == MODE_SUPERVISOR {
		return "Supervisor"
	}
	return "User"
}

// Segment is the fetch-or-data half of an address qualifier.
type Segment uint8

const (
	SEGMENT_DATA    = Segment(0) // Data
	SEGMENT_PROGRAM = Segment(1) // Program
)

func (s Segment) String() string {
	if s == SEGMENT_PROGRAM {
		return "Program"
	}
	return "Data"
}

// AddressSpace qualifies every bus access with the processor privilege
// and the access kind. Only the four exported values exist.
type AddressSpace struct {
	mode    Mode
	segment Segment
}

var (
	USER_DATA          = AddressSpace{MODE_USER, SEGMENT_DATA}
	USER_PROGRAM       = AddressSpace{MODE_USER, SEGMENT_PROGRAM}
	SUPERVISOR_DATA    = AddressSpace{MODE_SUPERVISOR, SEGMENT_DATA}
	SUPERVISOR_PROGRAM = AddressSpace{MODE_SUPERVISOR, SEGMENT_PROGRAM}
)

// Space selects the qualifier for a privilege and access kind.
func Space(supervisor bool, program bool) (as AddressSpace) {
	switch {
	case supervisor && program:
		as = SUPERVISOR_PROGRAM
	case supervisor:
		as = SUPERVISOR_DATA
	case program:
		as = USER_PROGRAM
	default:
		as = USER_DATA
	}
	return
}

// Mode of the qualifier.
func (as AddressSpace) Mode() Mode {
	return as.mode
}

// Segment of the qualifier.
func (as AddressSpace) Segment() Segment {
	return as.segment
}

// Supervisor is true for supervisor accesses.
func (as AddressSpace) Supervisor() bool {
	return as.mode == MODE_SUPERVISOR
}

// Program is true for instruction stream accesses.
func (as AddressSpace) Program() bool {
	return as.segment == SEGMENT_PROGRAM
}

// FC returns the 3-bit function code driven on the FC0-FC2 pins.
func (as AddressSpace) FC() (fc uint8) {
	fc = 1
	if as.segment == SEGMENT_PROGRAM {
		fc = 2
	}
	if as.mode == MODE_SUPERVISOR {
		fc |= 4
	}
	return
}

func (as AddressSpace) String() string {
	return fmt.Sprintf("[%v/%v]", as.mode, as.segment)
}
