// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// run68 boots a 68000 machine description and runs it for a cycle budget.
package main

import (
	"errors"
	"fmt"
	"log"

	"github.com/alecthomas/kong"

	"github.com/ezrec/m68k/config"
	"github.com/ezrec/m68k/cpu"
	"github.com/ezrec/m68k/emulator"
	"github.com/ezrec/m68k/irq"
	"github.com/ezrec/m68k/translate"
)

type runCmd struct {
	Config  string  `name:"config" short:"c" type:"existingfile" help:"Machine description (TOML)."`
	Image   string  `arg:"" optional:"" type:"existingfile" help:"Binary image to load."`
	Base    uint32  `name:"base" short:"b" default:"0" help:"Load address of the image."`
	Cycles  int     `name:"cycles" short:"n" default:"1000000" help:"Cycle budget."`
	Irq     []uint8 `name:"irq" short:"i" help:"Interrupt levels to raise after reset."`
	Script  string  `name:"script" short:"s" type:"existingfile" help:"Starlark exception interceptor."`
	Verbose bool    `name:"verbose" short:"v" help:"Log every bus cycle and exception."`
	Lang    string  `name:"lang" help:"Message language, as a BCP 47 tag."`
}

func (r *runCmd) machine() (emu *emulator.Emulator, err error) {
	cfg := config.Default()
	if r.Config != "" {
		cfg, err = config.Load(r.Config)
		if err != nil {
			err = fmt.Errorf("%v: %w", r.Config, err)
			return
		}
	}

	if r.Verbose {
		cfg.Verbose = true
	}

	emu, err = emulator.FromConfig(cfg)
	if err != nil {
		return
	}

	if r.Image != "" {
		err = emu.LoadFile(r.Image, r.Base)
		if err != nil {
			return
		}
	}

	if r.Script != "" {
		err = emu.LoadScript(r.Script)
		if err != nil {
			return
		}
	}

	return
}

func (r *runCmd) Run() (err error) {
	if r.Lang != "" {
		translate.SetLanguage(r.Lang)
	}

	for _, level := range r.Irq {
		if level < irq.LEVEL_MIN || level > irq.LEVEL_NMI {
			return irq.ErrPriority(level)
		}
	}

	emu, err := r.machine()
	if err != nil {
		return
	}

	emu.Reset()
	for _, level := range r.Irq {
		emu.RequestInterrupt(level)
	}

	used, err := emu.Run(r.Cycles)
	fmt.Print(emu.Cpu.String())
	fmt.Printf("cycles: %d (%d total)\n", used, emu.Ticks())

	if errors.Is(err, cpu.ErrHalted) {
		log.Printf("%v", err)
		err = nil
	}

	return
}

func main() {
	var cli struct {
		Run runCmd `cmd:"" default:"withargs" help:"Run a 68000 machine."`
	}

	ctx := kong.Parse(&cli,
		kong.Name("run68"),
		kong.Description("Cycle-counted 68000 exception and interrupt core."),
	)

	err := ctx.Run()
	if err != nil {
		log.Fatalf("run68: %v", err)
	}
}
