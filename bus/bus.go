package bus

// Access sizes, in bytes.
const (
	SIZE_BYTE = 1
	SIZE_WORD = 2
	SIZE_LONG = 4
)

// ADDRBUS_MASK covers the 24 address lines of the 68000.
const ADDRBUS_MASK = uint32(0x00ffffff)

// Bus is the address-qualified memory interface seen by the processor.
//
// Values are zero-extended into a uint32. Words and longs are big-endian:
// the byte at the lower address is the most significant. Only the low
// 8, 16 or 32 bits of a written value are meaningful.
type Bus interface {
	Read8(space AddressSpace, addr uint32) uint32
	Read16(space AddressSpace, addr uint32) uint32
	Read32(space AddressSpace, addr uint32) uint32
	Write8(space AddressSpace, addr uint32, value uint32)
	Write16(space AddressSpace, addr uint32, value uint32)
	Write32(space AddressSpace, addr uint32, value uint32)

	// CopyFrom replaces all addressable storage with a deep copy of other's.
	CopyFrom(other Bus)
	// ResetInstruction is called when the processor executes RESET.
	ResetInstruction()
	// WaitCycles returns extra cycles for an access of size 1, 2 or 4.
	WaitCycles(addr uint32, size int, write bool) int
}

// Wrapper is a Bus layered over another, such as Logging.
type Wrapper interface {
	Inner() Bus
}

// Storage strips every Wrapper layer from b.
func Storage(b Bus) Bus {
	for {
		wrapper, ok := b.(Wrapper)
		if !ok {
			return b
		}
		b = wrapper.Inner()
	}
}

// ByteBus is the minimum needed to compose word and long accesses.
type ByteBus interface {
	Read8(space AddressSpace, addr uint32) uint32
	Write8(space AddressSpace, addr uint32, value uint32)
}

// Base supplies the optional parts of Bus. Embed it.
type Base struct{}

// ResetInstruction does nothing.
func (Base) ResetInstruction() {}

// WaitCycles adds no wait states.
func (Base) WaitCycles(addr uint32, size int, write bool) int {
	return 0
}

// ReadWord composes a big-endian word from two byte reads.
func ReadWord(b ByteBus, space AddressSpace, addr uint32) uint32 {
	return b.Read8(space, addr)<<8 | b.Read8(space, addr+1)
}

// ReadLong composes a big-endian long from two word reads.
func ReadLong(b ByteBus, space AddressSpace, addr uint32) uint32 {
	return ReadWord(b, space, addr)<<16 | ReadWord(b, space, addr+2)
}

// WriteWord decomposes a big-endian word into two byte writes.
func WriteWord(b ByteBus, space AddressSpace, addr uint32, value uint32) {
	b.Write8(space, addr, (value>>8)&0xff)
	b.Write8(space, addr+1, value&0xff)
}

// WriteLong decomposes a big-endian long into two word writes.
func WriteLong(b ByteBus, space AddressSpace, addr uint32, value uint32) {
	WriteWord(b, space, addr, value>>16)
	WriteWord(b, space, addr+2, value&0xffff)
}
