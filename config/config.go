// Package config describes a machine in TOML: memory contents and wait
// states, the interrupt encoder, exception timing overrides and an
// optional interception script.
//
//	verbose = false
//	script = "intercept.star"
//
//	[memory]
//	fill = 0xffffffff
//
//	[[memory.image]]
//	path = "boot.bin"
//	base = 0x000000
//
//	[[memory.wait]]
//	start = 0xe00000
//	end = 0xefffff
//	read = 4
//	write = 4
//
//	[interrupts]
//	mode = "vectored"
//	locked = true
//	vectors = { "5" = 64 }
//
//	[timing]
//	trace = 34
//	32 = 38
package config

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/m68k/bus"
	"github.com/ezrec/m68k/cpu"
	"github.com/ezrec/m68k/irq"
)

const (
	MODE_AUTO     = "auto"
	MODE_VECTORED = "vectored"
)

// Image is a binary file placed in memory.
type Image struct {
	Path string `toml:"path"`
	Base uint32 `toml:"base"`
}

// Wait is a wait-state region, end inclusive.
type Wait struct {
	Start uint32 `toml:"start"`
	End   uint32 `toml:"end"`
	Read  int    `toml:"read"`
	Write int    `toml:"write"`
}

// Memory configures the paged reference bus.
type Memory struct {
	Fill   uint32  `toml:"fill"`
	Images []Image `toml:"image"`
	Waits  []Wait  `toml:"wait"`
}

// Interrupts selects the interrupt encoder.
type Interrupts struct {
	Mode    string           `toml:"mode"`
	Locked  bool             `toml:"locked"`
	Vectors map[string]uint8 `toml:"vectors"`
}

// Config is a machine description.
type Config struct {
	Verbose    bool           `toml:"verbose"`
	Script     string         `toml:"script"`
	Memory     Memory         `toml:"memory"`
	Interrupts Interrupts     `toml:"interrupts"`
	Timing     map[string]int `toml:"timing"`

	dir string
}

// Named timing keys.
var _timing_names = map[string]uint8{
	"reset":                   cpu.VECTOR_RESET_SSP,
	"bus_error":               cpu.VECTOR_BUS_ERROR,
	"address_error":           cpu.VECTOR_ADDRESS_ERROR,
	"illegal_instruction":     cpu.VECTOR_ILLEGAL_INSTRUCTION,
	"zero_divide":             cpu.VECTOR_ZERO_DIVIDE,
	"chk":                     cpu.VECTOR_CHK,
	"trapv":                   cpu.VECTOR_TRAPV,
	"privilege_violation":     cpu.VECTOR_PRIVILEGE_VIOLATION,
	"trace":                   cpu.VECTOR_TRACE,
	"line_a":                  cpu.VECTOR_LINE_A,
	"line_f":                  cpu.VECTOR_LINE_F,
	"uninitialized_interrupt": cpu.VECTOR_UNINITIALIZED_INTERRUPT,
	"spurious_interrupt":      cpu.VECTOR_SPURIOUS_INTERRUPT,
}

// Default returns an autovectored machine with zero-filled memory.
func Default() *Config {
	return &Config{
		Interrupts: Interrupts{Mode: MODE_AUTO},
	}
}

// Parse decodes and validates a TOML document.
func Parse(text string) (cfg *Config, err error) {
	cfg = Default()
	md, err := toml.Decode(text, cfg)
	if err != nil {
		cfg = nil
		return
	}

	err = cfg.check(md)
	if err != nil {
		cfg = nil
	}
	return
}

// Load decodes and validates a TOML file. Relative paths inside it are
// taken from the file's directory.
func Load(path string) (cfg *Config, err error) {
	cfg = Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		cfg = nil
		return
	}
	cfg.dir = filepath.Dir(path)

	err = cfg.check(md)
	if err != nil {
		cfg = nil
	}
	return
}

func (cfg *Config) check(md toml.MetaData) (err error) {
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := ErrUndecoded{}
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		err = keys
		return
	}

	return cfg.Validate()
}

// Path resolves a path named in the configuration.
func (cfg *Config) Path(path string) string {
	if path == "" || filepath.IsAbs(path) || cfg.dir == "" {
		return path
	}
	return filepath.Join(cfg.dir, path)
}

// Validate checks value ranges that TOML decoding cannot.
func (cfg *Config) Validate() (err error) {
	switch cfg.Interrupts.Mode {
	case MODE_AUTO, MODE_VECTORED:
	default:
		err = &ErrField{Key: "interrupts.mode", Err: fmt.Errorf("%q: %w", cfg.Interrupts.Mode, ErrModeUnknown)}
		return
	}

	_, err = cfg.vectors()
	if err != nil {
		return
	}

	for n, wait := range cfg.Memory.Waits {
		key := fmt.Sprintf("memory.wait[%d]", n)
		if wait.End < wait.Start {
			err = &ErrField{Key: key, Err: bus.ErrWaitRegion}
			return
		}
		if wait.Read < 0 || wait.Write < 0 {
			err = &ErrField{Key: key, Err: ErrTimingInvalid}
			return
		}
	}

	var tm cpu.Timing
	err = cfg.ApplyTiming(&tm)
	return
}

func (cfg *Config) vectors() (vectors map[uint8]uint8, err error) {
	vectors = map[uint8]uint8{}
	for _, key := range slices.Sorted(maps.Keys(cfg.Interrupts.Vectors)) {
		vector := cfg.Interrupts.Vectors[key]
		field := "interrupts.vectors." + key

		level, perr := strconv.ParseUint(key, 10, 8)
		if perr != nil || uint8(level) < irq.LEVEL_MIN || uint8(level) > irq.LEVEL_NMI {
			err = &ErrField{Key: field, Err: ErrLevelInvalid}
			return
		}

		if vector != 0 && vector != cpu.VECTOR_UNINITIALIZED_INTERRUPT && vector < cpu.VECTOR_USER_BASE {
			err = &ErrField{Key: field, Err: ErrVectorReserved}
			return
		}

		vectors[uint8(level)] = vector
	}
	return
}

// vectorOf accepts a vector number or one of the timing names.
func vectorOf(key string) (vector uint8, ok bool) {
	if vector, ok = _timing_names[strings.ToLower(key)]; ok {
		return
	}

	n, err := strconv.ParseUint(key, 0, 8)
	if err != nil {
		return
	}

	vector = uint8(n)
	ok = true
	return
}

// ApplyTiming overrides entries of tm with the [timing] table.
func (cfg *Config) ApplyTiming(tm *cpu.Timing) (err error) {
	for _, key := range slices.Sorted(maps.Keys(cfg.Timing)) {
		cycles := cfg.Timing[key]
		vector, ok := vectorOf(key)
		if !ok || cycles < 0 {
			err = &ErrField{Key: "timing." + key, Err: ErrTimingInvalid}
			return
		}
		tm[vector] = cycles
	}
	return
}

// WaitRegions returns the wait-state regions for the paged bus.
func (cfg *Config) WaitRegions() (regions []bus.WaitRegion) {
	for _, wait := range cfg.Memory.Waits {
		regions = append(regions, bus.WaitRegion(wait))
	}
	return
}

// Controller builds the configured interrupt encoder.
func (cfg *Config) Controller() (requester irq.Requester, err error) {
	switch cfg.Interrupts.Mode {
	case MODE_AUTO:
		requester = irq.NewAuto()
	case MODE_VECTORED:
		var vectors map[uint8]uint8
		vectors, err = cfg.vectors()
		if err != nil {
			return
		}
		requester = irq.NewVectored(vectors)
	default:
		err = &ErrField{Key: "interrupts.mode", Err: ErrModeUnknown}
		return
	}

	if cfg.Interrupts.Locked {
		requester = irq.NewLocked(requester)
	}

	return
}
