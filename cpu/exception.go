package cpu

import (
	"fmt"

	"github.com/ezrec/m68k/bus"
	"github.com/ezrec/m68k/irq"
)

// Exception vector numbers.
const (
	VECTOR_RESET_SSP               = uint8(0)
	VECTOR_RESET_PC                = uint8(1)
	VECTOR_BUS_ERROR               = uint8(2)
	VECTOR_ADDRESS_ERROR           = uint8(3)
	VECTOR_ILLEGAL_INSTRUCTION     = uint8(4)
	VECTOR_ZERO_DIVIDE             = uint8(5)
	VECTOR_CHK                     = uint8(6)
	VECTOR_TRAPV                   = uint8(7)
	VECTOR_PRIVILEGE_VIOLATION     = uint8(8)
	VECTOR_TRACE                   = uint8(9)
	VECTOR_LINE_A                  = uint8(10)
	VECTOR_LINE_F                  = uint8(11)
	VECTOR_FORMAT_ERROR            = uint8(14)
	VECTOR_UNINITIALIZED_INTERRUPT = uint8(15)
	VECTOR_SPURIOUS_INTERRUPT      = irq.SPURIOUS_INTERRUPT
	VECTOR_AUTOVECTOR_BASE         = irq.AUTOVECTOR_BASE
	VECTOR_TRAP_BASE               = uint8(32)
	VECTOR_USER_BASE               = 64
)

// Kind classifies what raised an exception.
type Kind uint8

const (
	KIND_INTERRUPT           = Kind(0)  // interrupt
	KIND_BUS_ERROR           = Kind(1)  // bus error
	KIND_ADDRESS_ERROR       = Kind(2)  // address error
	KIND_ILLEGAL_INSTRUCTION = Kind(3)  // illegal instruction
	KIND_ZERO_DIVIDE         = Kind(4)  // zero divide
	KIND_CHK                 = Kind(5)  // chk
	KIND_TRAPV               = Kind(6)  // trapv
	KIND_PRIVILEGE_VIOLATION = Kind(7)  // privilege violation
	KIND_TRACE               = Kind(8)  // trace
	KIND_LINE_A              = Kind(9)  // line 1010
	KIND_LINE_F              = Kind(10) // line 1111
	KIND_TRAP                = Kind(11) // trap
)

const kind_count = 12

var _kind_name = [kind_count]string{
	"interrupt",
	"bus error",
	"address error",
	"illegal instruction",
	"zero divide",
	"chk",
	"trapv",
	"privilege violation",
	"trace",
	"line 1010",
	"line 1111",
	"trap",
}

var _kind_vector = [kind_count]uint8{
	KIND_INTERRUPT:           VECTOR_SPURIOUS_INTERRUPT,
	KIND_BUS_ERROR:           VECTOR_BUS_ERROR,
	KIND_ADDRESS_ERROR:       VECTOR_ADDRESS_ERROR,
	KIND_ILLEGAL_INSTRUCTION: VECTOR_ILLEGAL_INSTRUCTION,
	KIND_ZERO_DIVIDE:         VECTOR_ZERO_DIVIDE,
	KIND_CHK:                 VECTOR_CHK,
	KIND_TRAPV:               VECTOR_TRAPV,
	KIND_PRIVILEGE_VIOLATION: VECTOR_PRIVILEGE_VIOLATION,
	KIND_TRACE:               VECTOR_TRACE,
	KIND_LINE_A:              VECTOR_LINE_A,
	KIND_LINE_F:              VECTOR_LINE_F,
	KIND_TRAP:                VECTOR_TRAP_BASE,
}

func (k Kind) String() string {
	if int(k) >= len(_kind_name) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return _kind_name[k]
}

// Fault describes the bus cycle that raised a bus or address error.
type Fault struct {
	Address     uint32           // Access address.
	Space       bus.AddressSpace // Access qualifier.
	Size        int              // Access size in bytes.
	Write       bool             // Write cycle.
	Instruction bool             // Cycle was an instruction fetch.
	IR          uint16           // Opcode in progress.
}

// Status returns the special status word of a group 0 frame:
// R/W in bit 4, I/N in bit 3, the function code in bits 0-2.
func (ft Fault) Status() (ssw uint16) {
	if !ft.Write {
		ssw |= 1 << 4
	}
	if !ft.Instruction {
		ssw |= 1 << 3
	}
	ssw |= uint16(ft.Space.FC())
	return
}

// Exception is the descriptor handed to the interceptor and to the default
// handling sequence. It is a comparable value.
type Exception struct {
	Kind     Kind  // Source of the exception.
	Vector   uint8 // Vector table index.
	Priority uint8 // Interrupt level, interrupts only.
	Trap     uint8 // TRAP operand, 0..15.
	Fault    Fault // Faulting cycle, bus and address errors only.
}

// Interrupt describes an acknowledged interrupt.
func Interrupt(priority uint8, vector uint8) Exception {
	return Exception{Kind: KIND_INTERRUPT, Vector: vector, Priority: priority}
}

// Trap describes a TRAP #n instruction.
func Trap(n uint8) Exception {
	n &= 0xf
	return Exception{Kind: KIND_TRAP, Vector: VECTOR_TRAP_BASE + n, Trap: n}
}

// AddressError describes an odd word or long access.
func AddressError(fault Fault) Exception {
	return Exception{Kind: KIND_ADDRESS_ERROR, Vector: VECTOR_ADDRESS_ERROR, Fault: fault}
}

// BusError describes a bus cycle terminated by BERR.
func BusError(fault Fault) Exception {
	return Exception{Kind: KIND_BUS_ERROR, Vector: VECTOR_BUS_ERROR, Fault: fault}
}

// Synchronous describes an instruction-raised exception with no operand.
func Synchronous(kind Kind) Exception {
	switch kind {
	case KIND_INTERRUPT, KIND_TRAP, KIND_BUS_ERROR, KIND_ADDRESS_ERROR:
		panic(ErrKindOperand(kind))
	}
	if int(kind) >= kind_count {
		panic(ErrKindOperand(kind))
	}
	return Exception{Kind: kind, Vector: _kind_vector[kind]}
}

// Group0 is true for bus and address errors, which push the long frame.
func (ex Exception) Group0() bool {
	return ex.Kind == KIND_BUS_ERROR || ex.Kind == KIND_ADDRESS_ERROR
}

// Spurious is true for an interrupt that resolved to the spurious vector.
func (ex Exception) Spurious() bool {
	return ex.Kind == KIND_INTERRUPT && ex.Vector == VECTOR_SPURIOUS_INTERRUPT
}

func (ex Exception) String() string {
	switch {
	case ex.Kind == KIND_INTERRUPT:
		return fmt.Sprintf("interrupt level %d vector %d", ex.Priority, ex.Vector)
	case ex.Kind == KIND_TRAP:
		return fmt.Sprintf("trap #%d", ex.Trap)
	case ex.Group0():
		return fmt.Sprintf("%v at 0x%06x %v", ex.Kind, ex.Fault.Address&bus.ADDRBUS_MASK, ex.Fault.Space)
	}
	return ex.Kind.String()
}

// Outcome is the result of offering an exception to an Interceptor.
type Outcome struct {
	handled bool
	cycles  int
	ex      Exception
}

// Handled reports the exception fully processed in cycles.
func Handled(cycles int) Outcome {
	return Outcome{handled: true, cycles: cycles}
}

// Declined hands the same exception back for default processing.
func Declined(ex Exception) Outcome {
	return Outcome{ex: ex}
}

// Cycles returns the cycle count of a handled outcome.
func (oc Outcome) Cycles() (cycles int, handled bool) {
	return oc.cycles, oc.handled
}

// Exception returns the descriptor of a declined outcome.
func (oc Outcome) Exception() (ex Exception, declined bool) {
	return oc.ex, !oc.handled
}

// Interceptor sees every exception before default processing.
//
// It may change any processor or memory state and return Handled, in which
// case the processor resumes at cpu.PC. Returning Declined with the
// unchanged descriptor is the same as having no interceptor.
type Interceptor interface {
	Intercept(cpu *Cpu, ex Exception) Outcome
}

// InterceptorFunc adapts a function to an Interceptor.
type InterceptorFunc func(cpu *Cpu, ex Exception) Outcome

func (fn InterceptorFunc) Intercept(cpu *Cpu, ex Exception) Outcome {
	return fn(cpu, ex)
}
