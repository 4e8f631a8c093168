package cpu

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/m68k/bus"
)

// Execute runs instructions and exceptions until at least budget cycles
// have been consumed or the processor halts. The last unit may overrun
// the budget; the actual count is returned. A stopped processor with no
// acceptable interrupt consumes the rest of the budget.
func (cpu *Cpu) Execute(budget int) (used int) {
	for used < budget && !cpu.Halted {
		cycles := cpu.Step()
		used += cycles
		if cycles == 0 && cpu.Stopped {
			cpu.Cycles += budget - used
			used = budget
		}
	}

	return
}

// Step takes one exception at the instruction boundary or, if there is
// none, executes one instruction. Returns the cycles consumed.
func (cpu *Cpu) Step() (cycles int) {
	if cpu.Halted {
		return
	}

	defer func() {
		cpu.Cycles += cycles
	}()

	if ex, ok := cpu.boundary(); ok {
		cycles = cpu.Dispatch(ex)
		return
	}

	if cpu.Stopped {
		return
	}

	cpu.waits = 0
	tracing := cpu.SR&SR_T != 0

	base, err := cpu.instruction()
	if err != nil {
		var fault ErrAddress
		if errors.As(err, &fault) {
			cpu.Raise(AddressError(Fault(fault)))
		}
		if cpu.Verbose {
			cpu.logger().Warn(err)
		}
	}
	cycles = base + cpu.waits

	if tracing {
		cpu.trace()
	}

	return
}

// trace queues the trace exception for a traced instruction. TRAP, TRAPV,
// CHK and zero divide complete the instruction, so the trace is taken
// after their exception; other queued exceptions suppress it.
func (cpu *Cpu) trace() {
	if !cpu.hasPending {
		cpu.Raise(Synchronous(KIND_TRACE))
		return
	}

	switch cpu.pending.Kind {
	case KIND_TRAP, KIND_TRAPV, KIND_CHK, KIND_ZERO_DIVIDE:
		cpu.traceNext = true
	}
}

// raiseAt queues a synchronous exception that reports the faulting
// instruction's own address.
func (cpu *Cpu) raiseAt(pc uint32, kind Kind) int {
	cpu.PC = pc
	cpu.Raise(Synchronous(kind))
	return COST_EXCEPTION
}

// privileged is true in supervisor mode; otherwise it queues a privilege
// violation.
func (cpu *Cpu) privileged(pc uint32) bool {
	if cpu.Supervisor() {
		return true
	}
	cpu.raiseAt(pc, KIND_PRIVILEGE_VIOLATION)
	return false
}

func (cpu *Cpu) setNZ(value uint32, negative uint32) {
	ccr := cpu.SR &^ (SR_N | SR_Z | SR_V | SR_C)
	if value == 0 {
		ccr |= SR_Z
	}
	if value&negative != 0 {
		ccr |= SR_N
	}
	cpu.SR = ccr
}

// instruction decodes and runs one opcode, returning its base cost.
func (cpu *Cpu) instruction() (cycles int, err error) {
	start := cpu.PC

	op, err := cpu.fetch()
	if err != nil {
		return
	}
	cpu.IR = op

	if cpu.Verbose {
		cpu.logger().WithFields(logrus.Fields{
			"op": Mnemonic(op),
		}).Debug("execute")
	}

	switch op {
	case OP_NOP:
		cycles = COST_NOP
		return
	case OP_ILLEGAL:
		cycles = cpu.raiseAt(start, KIND_ILLEGAL_INSTRUCTION)
		return
	case OP_RESET:
		cycles = COST_EXCEPTION
		if !cpu.privileged(start) {
			return
		}
		if cpu.Interrupts != nil {
			cpu.Interrupts.ResetExternalDevices()
		}
		cpu.Bus.ResetInstruction()
		cycles = COST_RESET
		return
	case OP_STOP:
		cycles = COST_EXCEPTION
		if !cpu.privileged(start) {
			return
		}
		var imm uint16
		imm, err = cpu.fetch()
		if err != nil {
			return
		}
		cpu.SetSR(imm)
		cpu.Stopped = true
		cycles = COST_STOP
		return
	case OP_RTE:
		cycles = COST_EXCEPTION
		if !cpu.privileged(start) {
			return
		}
		var sr, pc uint32
		sr, err = cpu.pop(bus.SIZE_WORD)
		if err != nil {
			return
		}
		pc, err = cpu.pop(bus.SIZE_LONG)
		if err != nil {
			return
		}
		cpu.SetSR(uint16(sr))
		cpu.PC = pc
		cycles = COST_RTE
		return
	case OP_RTS:
		var pc uint32
		pc, err = cpu.pop(bus.SIZE_LONG)
		if err != nil {
			return
		}
		cpu.PC = pc
		cycles = COST_RTS
		return
	case OP_TRAPV:
		if cpu.SR&SR_V != 0 {
			cpu.Raise(Synchronous(KIND_TRAPV))
			cycles = COST_EXCEPTION
			return
		}
		cycles = COST_TRAPV
		return
	case OP_MOVE_SR, OP_ORI_SR, OP_ANDI_SR, OP_EORI_SR:
		cycles = COST_EXCEPTION
		if !cpu.privileged(start) {
			return
		}
		var imm uint16
		imm, err = cpu.fetch()
		if err != nil {
			return
		}
		switch op {
		case OP_MOVE_SR:
			cpu.SetSR(imm)
			cycles = COST_MOVE_SR
		case OP_ORI_SR:
			cpu.SetSR(cpu.SR | imm)
			cycles = COST_LOGIC_SR
		case OP_ANDI_SR:
			cpu.SetSR(cpu.SR & imm)
			cycles = COST_LOGIC_SR
		case OP_EORI_SR:
			cpu.SetSR(cpu.SR ^ imm)
			cycles = COST_LOGIC_SR
		}
		return
	case OP_ORI_CCR, OP_ANDI_CCR, OP_EORI_CCR:
		var imm uint16
		imm, err = cpu.fetch()
		if err != nil {
			return
		}
		ccr := uint8(cpu.SR)
		switch op {
		case OP_ORI_CCR:
			ccr |= uint8(imm)
		case OP_ANDI_CCR:
			ccr &= uint8(imm)
		case OP_EORI_CCR:
			ccr ^= uint8(imm)
		}
		cpu.SetCCR(ccr)
		cycles = COST_LOGIC_SR
		return
	}

	switch {
	case op&0xfff0 == OP_TRAP:
		cpu.Raise(Trap(uint8(op & 0xf)))
		cycles = COST_EXCEPTION
	case op&0xfff0 == OP_MOVE_USP:
		cycles = COST_EXCEPTION
		if !cpu.privileged(start) {
			return
		}
		reg := op & 7
		if op&8 != 0 {
			cpu.A[reg] = cpu.usp
		} else {
			cpu.usp = cpu.A[reg]
		}
		cycles = COST_MOVE_USP
	case op&0xff00 == OP_BRA:
		base := cpu.PC
		disp := uint32(int32(int8(op)))
		if disp == 0 {
			var ext uint16
			ext, err = cpu.fetch()
			if err != nil {
				return
			}
			disp = uint32(int32(int16(ext)))
		}
		cpu.PC = base + disp
		cycles = COST_BRA
	case op&0xf100 == OP_MOVEQ:
		value := uint32(int32(int8(op)))
		cpu.D[(op>>9)&7] = value
		cpu.setNZ(value, 1<<31)
		cycles = COST_MOVEQ
	case op&0xf1ff == OP_DIVU_IMM:
		var divisor uint16
		divisor, err = cpu.fetch()
		if err != nil {
			return
		}
		if divisor == 0 {
			cpu.Raise(Synchronous(KIND_ZERO_DIVIDE))
			cycles = COST_EXCEPTION
			return
		}
		reg := (op >> 9) & 7
		quotient := cpu.D[reg] / uint32(divisor)
		remainder := cpu.D[reg] % uint32(divisor)
		if quotient > 0xffff {
			cpu.SR = (cpu.SR | SR_V) &^ SR_C
		} else {
			cpu.D[reg] = remainder<<16 | quotient
			cpu.setNZ(quotient, 1<<15)
		}
		cycles = COST_DIVU
	case op&OP_LINE_MASK == OP_LINE_A:
		cycles = cpu.raiseAt(start, KIND_LINE_A)
	case op&OP_LINE_MASK == OP_LINE_F:
		cycles = cpu.raiseAt(start, KIND_LINE_F)
	default:
		cycles = cpu.raiseAt(start, KIND_ILLEGAL_INSTRUCTION)
	}

	return
}
