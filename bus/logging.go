package bus

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Access is one recorded bus transaction.
type Access struct {
	Space   AddressSpace
	Address uint32
	Size    int
	Write   bool
	Value   uint32
}

func (ac Access) String() string {
	dir := "R"
	if ac.Write {
		dir = "W"
	}
	return fmt.Sprintf("%v %s%d 0x%06x=0x%0*x", ac.Space, dir, ac.Size*8, ac.Address&ADDRBUS_MASK, ac.Size*2, ac.Value)
}

// Logging records every access made through it to an inner Bus.
type Logging struct {
	Bus                        // Inner bus.
	Verbose bool               // If set, log each access.
	Logger  logrus.FieldLogger // Defaults to the logrus standard logger.
	Record  bool               // If set, append each access to Accesses.

	Accesses []Access
}

var _ Bus = (*Logging)(nil)
var _ Wrapper = (*Logging)(nil)

// NewLogging wraps inner.
func NewLogging(inner Bus) (lb *Logging) {
	lb = &Logging{
		Bus:    inner,
		Record: true,
	}

	return
}

// Reset drops the recorded accesses.
func (lb *Logging) Reset() {
	lb.Accesses = nil
}

func (lb *Logging) log(ac Access) {
	if lb.Record {
		lb.Accesses = append(lb.Accesses, ac)
	}
	if !lb.Verbose {
		return
	}
	logger := lb.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"fc":    ac.Space.FC(),
		"addr":  fmt.Sprintf("0x%06x", ac.Address&ADDRBUS_MASK),
		"size":  ac.Size,
		"write": ac.Write,
		"value": fmt.Sprintf("0x%x", ac.Value),
	}).Debug("bus")
}

func (lb *Logging) Read8(space AddressSpace, addr uint32) (value uint32) {
	value = lb.Bus.Read8(space, addr)
	lb.log(Access{space, addr, SIZE_BYTE, false, value})
	return
}

func (lb *Logging) Read16(space AddressSpace, addr uint32) (value uint32) {
	value = lb.Bus.Read16(space, addr)
	lb.log(Access{space, addr, SIZE_WORD, false, value})
	return
}

func (lb *Logging) Read32(space AddressSpace, addr uint32) (value uint32) {
	value = lb.Bus.Read32(space, addr)
	lb.log(Access{space, addr, SIZE_LONG, false, value})
	return
}

func (lb *Logging) Write8(space AddressSpace, addr uint32, value uint32) {
	lb.Bus.Write8(space, addr, value)
	lb.log(Access{space, addr, SIZE_BYTE, true, value & 0xff})
}

func (lb *Logging) Write16(space AddressSpace, addr uint32, value uint32) {
	lb.Bus.Write16(space, addr, value)
	lb.log(Access{space, addr, SIZE_WORD, true, value & 0xffff})
}

func (lb *Logging) Write32(space AddressSpace, addr uint32, value uint32) {
	lb.Bus.Write32(space, addr, value)
	lb.log(Access{space, addr, SIZE_LONG, true, value})
}

// Inner returns the wrapped bus.
func (lb *Logging) Inner() Bus {
	return lb.Bus
}

// CopyFrom copies into the inner storage.
func (lb *Logging) CopyFrom(other Bus) {
	lb.Bus.CopyFrom(other)
}
