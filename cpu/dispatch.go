package cpu

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/m68k/bus"
)

// boundary picks the one exception, if any, to take before the next
// instruction. Queued exceptions win over interrupt sampling.
func (cpu *Cpu) boundary() (ex Exception, ok bool) {
	if cpu.hasPending {
		ex, ok = cpu.pending, true
		cpu.pending = Exception{}
		cpu.hasPending = false
		if cpu.traceNext {
			cpu.traceNext = false
			cpu.Raise(Synchronous(KIND_TRACE))
		}
		return
	}

	return cpu.sampleInterrupt()
}

// sampleInterrupt accepts the highest pending interrupt if it is above the
// current mask. A level equal to the mask is held off, level 7 included.
func (cpu *Cpu) sampleInterrupt() (ex Exception, ok bool) {
	if cpu.Interrupts == nil {
		return
	}

	priority := cpu.Interrupts.HighestPriority()
	if priority == 0 || priority <= cpu.InterruptMask() {
		return
	}

	vector, acked := cpu.Interrupts.AcknowledgeInterrupt(priority)
	if !acked {
		vector = VECTOR_SPURIOUS_INTERRUPT
	}

	ex = Interrupt(priority, vector)
	ok = true
	return
}

// Dispatch offers ex to the interceptor, then runs default processing
// unless the interceptor handled it. Returns the cycles consumed.
func (cpu *Cpu) Dispatch(ex Exception) (cycles int) {
	cpu.Stopped = false

	if cpu.Interceptor != nil {
		outcome := cpu.Interceptor.Intercept(cpu, ex)
		if used, handled := outcome.Cycles(); handled {
			if cpu.Verbose {
				cpu.logger().WithFields(logrus.Fields{
					"exception": ex.String(),
					"cycles":    used,
				}).Info("intercepted")
			}
			cycles = used
			return
		}

		declined, _ := outcome.Exception()
		if declined != ex {
			panic(ErrDecline{Offered: ex, Returned: declined})
		}
	}

	cycles = cpu.process(ex)
	return
}

// process is the hardware exception sequence.
func (cpu *Cpu) process(ex Exception) (cycles int) {
	cpu.waits = 0

	sr := cpu.SR
	pc := cpu.PC

	cpu.SetSR((sr | SR_S) &^ SR_T)
	if ex.Kind == KIND_INTERRUPT {
		mask := (uint16(ex.Priority) << SR_I_SHIFT) & SR_I_MASK
		cpu.SR = (cpu.SR &^ SR_I_MASK) | mask
	}

	err := cpu.pushFrame(ex, pc, sr)
	if err != nil {
		var fault ErrAddress
		errors.As(err, &fault)
		if ex.Group0() {
			cpu.Halted = true
			if cpu.Verbose {
				cpu.logger().WithField("exception", ex.String()).Error(err)
			}
		} else {
			cpu.Raise(AddressError(Fault(fault)))
		}
		cycles = cpu.Timing[ex.Vector] + cpu.waits
		return
	}

	cpu.PC = cpu.readBus(bus.SUPERVISOR_PROGRAM, uint32(ex.Vector)*4, bus.SIZE_LONG)
	cycles = cpu.Timing[ex.Vector] + cpu.waits

	if cpu.Verbose {
		cpu.logger().WithFields(logrus.Fields{
			"exception": ex.String(),
			"vector":    ex.Vector,
			"handler":   fmt.Sprintf("%06x", cpu.PC),
			"cycles":    cycles,
		}).Info("exception")
	}

	return
}

// pushFrame builds the short frame (PC, SR) or, for bus and address
// errors, the long frame that adds IR, the access address and the status.
func (cpu *Cpu) pushFrame(ex Exception, pc uint32, sr uint16) (err error) {
	err = cpu.push(pc, bus.SIZE_LONG)
	if err != nil {
		return
	}

	err = cpu.push(uint32(sr), bus.SIZE_WORD)
	if err != nil || !ex.Group0() {
		return
	}

	err = cpu.push(uint32(ex.Fault.IR), bus.SIZE_WORD)
	if err != nil {
		return
	}

	err = cpu.push(ex.Fault.Address, bus.SIZE_LONG)
	if err != nil {
		return
	}

	err = cpu.push(uint32(ex.Fault.Status()), bus.SIZE_WORD)
	return
}
