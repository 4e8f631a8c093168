package cpu

import (
	"github.com/ezrec/m68k/bus"
)

func (cpu *Cpu) dataSpace() bus.AddressSpace {
	return bus.Space(cpu.Supervisor(), false)
}

func (cpu *Cpu) programSpace() bus.AddressSpace {
	return bus.Space(cpu.Supervisor(), true)
}

// readBus performs an unchecked read, accumulating wait states.
func (cpu *Cpu) readBus(space bus.AddressSpace, addr uint32, size int) (value uint32) {
	cpu.waits += cpu.Bus.WaitCycles(addr, size, false)
	switch size {
	case bus.SIZE_BYTE:
		value = cpu.Bus.Read8(space, addr)
	case bus.SIZE_WORD:
		value = cpu.Bus.Read16(space, addr)
	default:
		value = cpu.Bus.Read32(space, addr)
	}
	return
}

// writeBus performs an unchecked write, accumulating wait states.
func (cpu *Cpu) writeBus(space bus.AddressSpace, addr uint32, value uint32, size int) {
	cpu.waits += cpu.Bus.WaitCycles(addr, size, true)
	switch size {
	case bus.SIZE_BYTE:
		cpu.Bus.Write8(space, addr, value)
	case bus.SIZE_WORD:
		cpu.Bus.Write16(space, addr, value)
	default:
		cpu.Bus.Write32(space, addr, value)
	}
}

func (cpu *Cpu) misaligned(space bus.AddressSpace, addr uint32, size int, write bool) error {
	return ErrAddress{
		Address:     addr,
		Space:       space,
		Size:        size,
		Write:       write,
		Instruction: space.Program(),
		IR:          cpu.IR,
	}
}

// read checks word and long alignment before reading.
func (cpu *Cpu) read(space bus.AddressSpace, addr uint32, size int) (value uint32, err error) {
	if size != bus.SIZE_BYTE && addr&1 != 0 {
		err = cpu.misaligned(space, addr, size, false)
		return
	}

	value = cpu.readBus(space, addr, size)
	return
}

// write checks word and long alignment before writing.
func (cpu *Cpu) write(space bus.AddressSpace, addr uint32, value uint32, size int) (err error) {
	if size != bus.SIZE_BYTE && addr&1 != 0 {
		err = cpu.misaligned(space, addr, size, true)
		return
	}

	cpu.writeBus(space, addr, value, size)
	return
}

// fetch reads the next instruction word and advances the PC.
func (cpu *Cpu) fetch() (word uint16, err error) {
	value, err := cpu.read(cpu.programSpace(), cpu.PC, bus.SIZE_WORD)
	if err != nil {
		return
	}

	cpu.PC += 2
	word = uint16(value)
	return
}

// push writes to the active stack.
func (cpu *Cpu) push(value uint32, size int) (err error) {
	sp := cpu.A[7] - uint32(size)
	err = cpu.write(cpu.dataSpace(), sp, value, size)
	if err != nil {
		return
	}

	cpu.A[7] = sp
	return
}

// pop reads from the active stack.
func (cpu *Cpu) pop(size int) (value uint32, err error) {
	value, err = cpu.read(cpu.dataSpace(), cpu.A[7], size)
	if err != nil {
		return
	}

	cpu.A[7] += uint32(size)
	return
}
