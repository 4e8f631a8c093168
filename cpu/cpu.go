// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"fmt"
	"iter"
	"maps"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/m68k/bus"
	"github.com/ezrec/m68k/irq"
)

// Status register bits.
const (
	SR_C       = uint16(1 << 0)  // Carry
	SR_V       = uint16(1 << 1)  // Overflow
	SR_Z       = uint16(1 << 2)  // Zero
	SR_N       = uint16(1 << 3)  // Negative
	SR_X       = uint16(1 << 4)  // Extend
	SR_CCR     = uint16(0x001f)  // Condition codes
	SR_I_MASK  = uint16(0x0700)  // Interrupt mask
	SR_I_SHIFT = 8               // Interrupt mask position
	SR_S       = uint16(1 << 13) // Supervisor
	SR_T       = uint16(1 << 15) // Trace
	SR_MASK    = uint16(0xa71f)  // Implemented bits
	SR_RESET   = uint16(0x2700)  // Supervisor, all interrupts masked
)

var _cpu_defines = map[string]string{
	"SR_C":      fmt.Sprintf("0x%x", SR_C),
	"SR_V":      fmt.Sprintf("0x%x", SR_V),
	"SR_Z":      fmt.Sprintf("0x%x", SR_Z),
	"SR_N":      fmt.Sprintf("0x%x", SR_N),
	"SR_X":      fmt.Sprintf("0x%x", SR_X),
	"SR_I_MASK": fmt.Sprintf("0x%x", SR_I_MASK),
	"SR_S":      fmt.Sprintf("0x%x", SR_S),
	"SR_T":      fmt.Sprintf("0x%x", SR_T),

	"VECTOR_BUS_ERROR":           fmt.Sprintf("%d", VECTOR_BUS_ERROR),
	"VECTOR_ADDRESS_ERROR":       fmt.Sprintf("%d", VECTOR_ADDRESS_ERROR),
	"VECTOR_ILLEGAL_INSTRUCTION": fmt.Sprintf("%d", VECTOR_ILLEGAL_INSTRUCTION),
	"VECTOR_ZERO_DIVIDE":         fmt.Sprintf("%d", VECTOR_ZERO_DIVIDE),
	"VECTOR_CHK":                 fmt.Sprintf("%d", VECTOR_CHK),
	"VECTOR_TRAPV":               fmt.Sprintf("%d", VECTOR_TRAPV),
	"VECTOR_PRIVILEGE_VIOLATION": fmt.Sprintf("%d", VECTOR_PRIVILEGE_VIOLATION),
	"VECTOR_TRACE":               fmt.Sprintf("%d", VECTOR_TRACE),
	"VECTOR_LINE_A":              fmt.Sprintf("%d", VECTOR_LINE_A),
	"VECTOR_LINE_F":              fmt.Sprintf("%d", VECTOR_LINE_F),
	"VECTOR_SPURIOUS_INTERRUPT":  fmt.Sprintf("%d", VECTOR_SPURIOUS_INTERRUPT),
	"VECTOR_TRAP_BASE":           fmt.Sprintf("%d", VECTOR_TRAP_BASE),

	"KIND_INTERRUPT":           fmt.Sprintf("%d", KIND_INTERRUPT),
	"KIND_BUS_ERROR":           fmt.Sprintf("%d", KIND_BUS_ERROR),
	"KIND_ADDRESS_ERROR":       fmt.Sprintf("%d", KIND_ADDRESS_ERROR),
	"KIND_ILLEGAL_INSTRUCTION": fmt.Sprintf("%d", KIND_ILLEGAL_INSTRUCTION),
	"KIND_ZERO_DIVIDE":         fmt.Sprintf("%d", KIND_ZERO_DIVIDE),
	"KIND_CHK":                 fmt.Sprintf("%d", KIND_CHK),
	"KIND_TRAPV":               fmt.Sprintf("%d", KIND_TRAPV),
	"KIND_PRIVILEGE_VIOLATION": fmt.Sprintf("%d", KIND_PRIVILEGE_VIOLATION),
	"KIND_TRACE":               fmt.Sprintf("%d", KIND_TRACE),
	"KIND_LINE_A":              fmt.Sprintf("%d", KIND_LINE_A),
	"KIND_LINE_F":              fmt.Sprintf("%d", KIND_LINE_F),
	"KIND_TRAP":                fmt.Sprintf("%d", KIND_TRAP),
}

// Registers is a snapshot of the programmer-visible state.
type Registers struct {
	D   [8]uint32
	A   [7]uint32
	USP uint32
	SSP uint32
	PC  uint32
	SR  uint16
}

// Cpu is the simulation context of one 68000.
type Cpu struct {
	Verbose bool               // Set to enable verbose logging.
	Logger  logrus.FieldLogger // Defaults to the logrus standard logger.

	Bus         bus.Bus        // Memory.
	Interrupts  irq.Controller // Interrupt priority encoder, may be nil.
	Interceptor Interceptor    // Exception hook, may be nil.
	Timing      Timing         // Default processing cost per vector.

	D  [8]uint32 // Data registers.
	A  [8]uint32 // Address registers. A[7] is the active stack pointer.
	PC uint32    // Program counter.
	SR uint16    // Status register. Use SetSR to change modes.
	IR uint16    // Opcode of the current instruction.

	Cycles  int  // Cycles consumed since creation.
	Stopped bool // Waiting in STOP for an interrupt.
	Halted  bool // Double bus fault; only Reset recovers.

	usp uint32 // User stack pointer, while in supervisor mode.
	ssp uint32 // Supervisor stack pointer, while in user mode.

	pending    Exception // Exception to take at the next boundary.
	hasPending bool
	traceNext  bool // Trace follows the pending exception.
	waits      int  // Wait states of the current unit of work.
}

// NewCpu creates a processor on a bus and interrupt encoder.
// Call Reset before executing.
func NewCpu(memory bus.Bus, interrupts irq.Controller) (cpu *Cpu) {
	cpu = &Cpu{
		Bus:        memory,
		Interrupts: interrupts,
		Timing:     DefaultTiming(),
		SR:         SR_RESET,
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

func (cpu *Cpu) logger() logrus.FieldLogger {
	logger := cpu.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithFields(logrus.Fields{
		"pc": fmt.Sprintf("%06x", cpu.PC),
		"sr": fmt.Sprintf("%04x", cpu.SR),
	})
}

// Supervisor is true in supervisor mode.
func (cpu *Cpu) Supervisor() bool {
	return cpu.SR&SR_S != 0
}

// InterruptMask returns the 3-bit interrupt priority mask.
func (cpu *Cpu) InterruptMask() uint8 {
	return uint8((cpu.SR & SR_I_MASK) >> SR_I_SHIFT)
}

// SetSR writes the status register, switching stack pointers when the
// supervisor bit changes.
func (cpu *Cpu) SetSR(sr uint16) {
	sr &= SR_MASK
	if (sr^cpu.SR)&SR_S != 0 {
		if sr&SR_S != 0 {
			cpu.usp = cpu.A[7]
			cpu.A[7] = cpu.ssp
		} else {
			cpu.ssp = cpu.A[7]
			cpu.A[7] = cpu.usp
		}
	}
	cpu.SR = sr
}

// SetCCR writes the condition codes only.
func (cpu *Cpu) SetCCR(ccr uint8) {
	cpu.SR = (cpu.SR &^ SR_CCR) | (uint16(ccr) & SR_CCR)
}

// UserSP returns the user stack pointer.
func (cpu *Cpu) UserSP() uint32 {
	if cpu.Supervisor() {
		return cpu.usp
	}
	return cpu.A[7]
}

// SetUserSP writes the user stack pointer.
func (cpu *Cpu) SetUserSP(sp uint32) {
	if cpu.Supervisor() {
		cpu.usp = sp
	} else {
		cpu.A[7] = sp
	}
}

// SupervisorSP returns the supervisor stack pointer.
func (cpu *Cpu) SupervisorSP() uint32 {
	if cpu.Supervisor() {
		return cpu.A[7]
	}
	return cpu.ssp
}

// SetSupervisorSP writes the supervisor stack pointer.
func (cpu *Cpu) SetSupervisorSP(sp uint32) {
	if cpu.Supervisor() {
		cpu.A[7] = sp
	} else {
		cpu.ssp = sp
	}
}

// Registers returns a snapshot of the register file.
func (cpu *Cpu) Registers() (regs Registers) {
	regs.D = cpu.D
	copy(regs.A[:], cpu.A[:7])
	regs.USP = cpu.UserSP()
	regs.SSP = cpu.SupervisorSP()
	regs.PC = cpu.PC
	regs.SR = cpu.SR
	return
}

// SetRegisters restores a snapshot taken by Registers. The stack pointers
// are placed by regs.SR, without a mode switch.
func (cpu *Cpu) SetRegisters(regs Registers) {
	cpu.D = regs.D
	copy(cpu.A[:7], regs.A[:])
	cpu.SR = regs.SR
	cpu.SetUserSP(regs.USP)
	cpu.SetSupervisorSP(regs.SSP)
	cpu.PC = regs.PC
}

// Pending returns the exception waiting for the next boundary, if any.
func (cpu *Cpu) Pending() (ex Exception, ok bool) {
	return cpu.pending, cpu.hasPending
}

// Raise queues an exception for the next instruction boundary. A group 0
// exception replaces anything queued; otherwise the first one wins.
func (cpu *Cpu) Raise(ex Exception) {
	if cpu.hasPending && !ex.Group0() {
		return
	}
	if ex.Group0() {
		cpu.traceNext = false
	}
	cpu.pending = ex
	cpu.hasPending = true
}

// RaiseBusError queues a bus error for the next instruction boundary.
func (cpu *Cpu) RaiseBusError(fault Fault) {
	cpu.Raise(BusError(fault))
}

// Reset performs the processor reset sequence: supervisor mode with all
// interrupts masked, SSP from address 0 and PC from address 4.
func (cpu *Cpu) Reset() (cycles int) {
	cpu.waits = 0
	cpu.Stopped = false
	cpu.Halted = false
	cpu.hasPending = false
	cpu.pending = Exception{}
	cpu.traceNext = false

	// Reset does not save the old stack pointer.
	cpu.SR = SR_RESET
	cpu.A[7] = cpu.readBus(bus.SUPERVISOR_DATA, 0, bus.SIZE_LONG)
	cpu.PC = cpu.readBus(bus.SUPERVISOR_PROGRAM, 4, bus.SIZE_LONG)

	cycles = cpu.Timing[VECTOR_RESET_SSP] + cpu.waits
	cpu.Cycles += cycles

	if cpu.Verbose {
		cpu.logger().WithField("ssp", fmt.Sprintf("%06x", cpu.A[7])).Info("reset")
	}

	return
}

// CopyFrom duplicates the processor state and memory of other. Interceptor,
// interrupt encoder and logger are not copied.
func (cpu *Cpu) CopyFrom(other *Cpu) {
	cpu.D = other.D
	cpu.A = other.A
	cpu.PC = other.PC
	cpu.SR = other.SR
	cpu.IR = other.IR
	cpu.usp = other.usp
	cpu.ssp = other.ssp
	cpu.Cycles = other.Cycles
	cpu.Stopped = other.Stopped
	cpu.Halted = other.Halted
	cpu.pending = other.pending
	cpu.hasPending = other.hasPending
	cpu.traceNext = other.traceNext
	cpu.Timing = other.Timing
	cpu.Bus.CopyFrom(other.Bus)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	for n, val := range cpu.D {
		text += fmt.Sprintf("   d%d: %04X_%04X\n", n, val>>16, val&0xffff)
	}
	for n, val := range cpu.A[:7] {
		text += fmt.Sprintf("   a%d: %04X_%04X\n", n, val>>16, val&0xffff)
	}

	usp := cpu.UserSP()
	ssp := cpu.SupervisorSP()
	text += fmt.Sprintf("  usp: %04X_%04X\n", usp>>16, usp&0xffff)
	text += fmt.Sprintf("  ssp: %04X_%04X\n", ssp>>16, ssp&0xffff)
	text += fmt.Sprintf("   pc: %04X_%04X\n", cpu.PC>>16, cpu.PC&0xffff)

	flags := []byte("T-S--III---XNZVC")
	for n := range flags {
		bit := uint16(1) << (15 - n)
		if SR_MASK&bit == 0 {
			flags[n] = '-'
		} else if cpu.SR&bit == 0 {
			flags[n] = '.'
		}
	}
	text += fmt.Sprintf("   sr: %04X %s\n", cpu.SR, flags)

	state := "run"
	switch {
	case cpu.Halted:
		state = "halt"
	case cpu.Stopped:
		state = "stop"
	}
	text += fmt.Sprintf("state: %v\n", state)

	return
}
