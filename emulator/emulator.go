// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"maps"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ezrec/m68k/bus"
	"github.com/ezrec/m68k/config"
	"github.com/ezrec/m68k/cpu"
	"github.com/ezrec/m68k/internal"
	"github.com/ezrec/m68k/irq"
	"github.com/ezrec/m68k/script"
)

const (
	MEMORY_SIZE = bus.ADDRBUS_MASK + 1 // Addressable bytes.
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("0x%x", MEMORY_SIZE),
	"PAGE_SIZE":   fmt.Sprintf("0x%x", bus.PAGE_SIZE),
}

// Emulator state. CPU + memory + interrupt encoder + optional script.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the CPU simulation.

	Memory     *bus.Paged          // Backing store.
	Interrupts irq.Requester       // Interrupt encoder, shared with the CPU.
	Script     *script.Interceptor // Exception hook, may be nil.
	Logger     logrus.FieldLogger  // Shared by CPU, bus trace and script.

	Requests chan uint8 // Levels raised by other goroutines, taken at each Run.
}

// NewEmulator creates an autovectored machine with zero-filled memory.
func NewEmulator() (emu *Emulator) {
	emu, err := FromConfig(config.Default())
	if err != nil {
		panic(err)
	}
	return
}

// FromConfig builds a machine and loads its images and script.
// The CPU is not reset.
func FromConfig(cfg *config.Config) (emu *Emulator, err error) {
	requests, err := cfg.Controller()
	if err != nil {
		return
	}

	memory := bus.NewPaged(cfg.Memory.Fill)
	memory.Waits = cfg.WaitRegions()

	emu = &Emulator{
		Verbose:    cfg.Verbose,
		Cpu:        cpu.NewCpu(memory, requests),
		Memory:     memory,
		Interrupts: requests,
		Requests:   make(chan uint8, irq.LEVEL_NMI),
	}

	err = cfg.ApplyTiming(&emu.Cpu.Timing)
	if err != nil {
		emu = nil
		return
	}

	for _, image := range cfg.Memory.Images {
		err = emu.LoadFile(cfg.Path(image.Path), image.Base)
		if err != nil {
			emu = nil
			return
		}
	}

	if cfg.Script != "" {
		err = emu.LoadScript(cfg.Path(cfg.Script))
		if err != nil {
			emu = nil
			return
		}
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.Defines(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		irq.Defines(),
	)
}

// LoadFile copies a binary image into memory at base.
func (emu *Emulator) LoadFile(path string, base uint32) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	_, err = emu.Memory.LoadFrom(inf, base)
	if err != nil {
		err = fmt.Errorf("%v: %w", path, err)
	}
	return
}

// LoadScript installs a Starlark interceptor from path.
func (emu *Emulator) LoadScript(path string) (err error) {
	ic, err := script.Load(path, emu.Defines())
	if err != nil {
		return
	}

	emu.SetScript(ic)
	return
}

// SetScript installs ic as the exception hook; nil removes it.
func (emu *Emulator) SetScript(ic *script.Interceptor) {
	emu.Script = ic
	if ic == nil {
		emu.Cpu.Interceptor = nil
		return
	}
	emu.Cpu.Interceptor = ic
}

// attach propagates verbosity and the logger, and puts a logging bus in
// front of memory while verbose.
func (emu *Emulator) attach() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Logger = emu.Logger

	if emu.Script != nil {
		emu.Script.Verbose = emu.Verbose
		emu.Script.Logger = emu.Logger
	}

	_, tracing := emu.Cpu.Bus.(*bus.Logging)
	switch {
	case emu.Verbose && !tracing:
		trace := bus.NewLogging(emu.Memory)
		trace.Verbose = true
		trace.Record = false
		trace.Logger = emu.Logger
		emu.Cpu.Bus = trace
	case !emu.Verbose && tracing:
		emu.Cpu.Bus = emu.Memory
	}
}

// Reset drops pending interrupts and runs the processor reset sequence.
func (emu *Emulator) Reset() (cycles int) {
	emu.attach()
	for len(emu.Requests) > 0 {
		<-emu.Requests
	}
	emu.Interrupts.ResetExternalDevices()
	cycles = emu.Cpu.Reset()
	return
}

// RequestInterrupt raises an interrupt level. Safe from other goroutines
// when the encoder is locked.
func (emu *Emulator) RequestInterrupt(level uint8) {
	emu.Interrupts.RequestInterrupt(level)
}

// drain moves queued Requests into the interrupt encoder.
func (emu *Emulator) drain() {
	for {
		select {
		case level := <-emu.Requests:
			emu.RequestInterrupt(level)
		default:
			return
		}
	}
}

// Run executes for at least budget cycles. It stops early on a double
// fault, and reports a failing script after the budget is spent.
func (emu *Emulator) Run(budget int) (used int, err error) {
	emu.attach()
	emu.drain()

	defer func() {
		if err != nil {
			err = &ErrRuntime{PC: emu.Cpu.PC, Err: err}
		}
	}()

	if emu.Cpu.Halted {
		err = cpu.ErrHalted
		return
	}

	used = emu.Cpu.Execute(budget)

	if emu.Script != nil && emu.Script.Err != nil {
		err = emu.Script.Err
		emu.Script.Err = nil
		return
	}

	if emu.Cpu.Halted {
		err = cpu.ErrHalted
	}

	return
}

// Ticks returns the total cycles since creation.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Cycles
}
