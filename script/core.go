package script

import (
	"fmt"
	"slices"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/ezrec/m68k/bus"
	"github.com/ezrec/m68k/cpu"
)

// Core is the Starlark view of a processor, handed to intercept() as its
// first argument. Registers are attributes; memory is reached through the
// read_* and write_* methods, always in supervisor data space.
type Core struct {
	cpu *cpu.Cpu
}

var _ starlark.HasSetField = (*Core)(nil)

var _core_methods = map[string]int{
	"read_byte":  bus.SIZE_BYTE,
	"read_word":  bus.SIZE_WORD,
	"read_long":  bus.SIZE_LONG,
	"write_byte": bus.SIZE_BYTE,
	"write_word": bus.SIZE_WORD,
	"write_long": bus.SIZE_LONG,
}

var _core_attrs = []string{
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"cycles",
	"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7",
	"pc",
	"read_byte", "read_long", "read_word",
	"sr", "ssp", "stopped", "supervisor", "usp",
	"write_byte", "write_long", "write_word",
}

func (core *Core) String() string {
	return fmt.Sprintf("<m68k pc=0x%06x sr=0x%04x>", core.cpu.PC, core.cpu.SR)
}

func (core *Core) Type() string {
	return "m68k"
}

func (core *Core) Freeze() {}

func (core *Core) Truth() starlark.Bool {
	return starlark.True
}

func (core *Core) Hash() (uint32, error) {
	return 0, fmt.Errorf("unhashable type: %v", core.Type())
}

func (core *Core) AttrNames() []string {
	return _core_attrs
}

// register returns a pointer to a plain 32-bit register.
func (core *Core) register(name string) *uint32 {
	if len(name) != 2 || name[1] < '0' || name[1] > '7' {
		return nil
	}
	n := name[1] - '0'
	switch name[0] {
	case 'd':
		return &core.cpu.D[n]
	case 'a':
		return &core.cpu.A[n]
	}
	return nil
}

func (core *Core) Attr(name string) (value starlark.Value, err error) {
	if reg := core.register(name); reg != nil {
		value = starlark.MakeUint64(uint64(*reg))
		return
	}

	if size, ok := _core_methods[name]; ok {
		if name[0] == 'r' {
			value = core.reader(name, size)
		} else {
			value = core.writer(name, size)
		}
		return
	}

	switch name {
	case "pc":
		value = starlark.MakeUint64(uint64(core.cpu.PC))
	case "sr":
		value = starlark.MakeInt(int(core.cpu.SR))
	case "usp":
		value = starlark.MakeUint64(uint64(core.cpu.UserSP()))
	case "ssp":
		value = starlark.MakeUint64(uint64(core.cpu.SupervisorSP()))
	case "cycles":
		value = starlark.MakeInt(core.cpu.Cycles)
	case "supervisor":
		value = starlark.Bool(core.cpu.Supervisor())
	case "stopped":
		value = starlark.Bool(core.cpu.Stopped)
	}

	return
}

func (core *Core) SetField(name string, value starlark.Value) (err error) {
	if !slices.Contains(_core_attrs, name) {
		err = starlark.NoSuchAttrError(fmt.Sprintf("m68k has no .%s attribute", name))
		return
	}

	if name == "stopped" {
		stopped, ok := value.(starlark.Bool)
		if !ok {
			err = fmt.Errorf("%v: got %v, want bool", name, value.Type())
			return
		}
		core.cpu.Stopped = bool(stopped)
		return
	}

	var word uint32
	switch name {
	case "cycles", "supervisor":
		err = fmt.Errorf("%v: %w", name, ErrReadOnly)
		return
	case "sr":
		var sr uint16
		err = starlark.AsInt(value, &sr)
		if err != nil {
			return
		}
		core.cpu.SetSR(sr)
		return
	}

	if _, ok := _core_methods[name]; ok {
		err = fmt.Errorf("%v: %w", name, ErrReadOnly)
		return
	}

	err = starlark.AsInt(value, &word)
	if err != nil {
		return
	}

	switch name {
	case "pc":
		core.cpu.PC = word
	case "usp":
		core.cpu.SetUserSP(word)
	case "ssp":
		core.cpu.SetSupervisorSP(word)
	default:
		*core.register(name) = word
	}

	return
}

func (core *Core) reader(name string, size int) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
		var addr uint32
		err = starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &addr)
		if err != nil {
			return
		}

		var data uint32
		memory := core.cpu.Bus
		switch size {
		case bus.SIZE_BYTE:
			data = memory.Read8(bus.SUPERVISOR_DATA, addr)
		case bus.SIZE_WORD:
			data = memory.Read16(bus.SUPERVISOR_DATA, addr)
		default:
			data = memory.Read32(bus.SUPERVISOR_DATA, addr)
		}

		value = starlark.MakeUint64(uint64(data))
		return
	})
}

func (core *Core) writer(name string, size int) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (value starlark.Value, err error) {
		var addr, data uint32
		err = starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &addr, &data)
		if err != nil {
			return
		}

		memory := core.cpu.Bus
		switch size {
		case bus.SIZE_BYTE:
			memory.Write8(bus.SUPERVISOR_DATA, addr, data)
		case bus.SIZE_WORD:
			memory.Write16(bus.SUPERVISOR_DATA, addr, data)
		default:
			memory.Write32(bus.SUPERVISOR_DATA, addr, data)
		}

		value = starlark.None
		return
	})
}

// exception converts a descriptor to a frozen Starlark struct.
func exception(ex cpu.Exception) starlark.Value {
	st := starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"kind":     starlark.MakeInt(int(ex.Kind)),
		"name":     starlark.String(ex.Kind.String()),
		"vector":   starlark.MakeInt(int(ex.Vector)),
		"priority": starlark.MakeInt(int(ex.Priority)),
		"trap":     starlark.MakeInt(int(ex.Trap)),
		"address":  starlark.MakeUint64(uint64(ex.Fault.Address)),
		"write":    starlark.Bool(ex.Fault.Write),
		"group0":   starlark.Bool(ex.Group0()),
	})
	st.Freeze()
	return st
}
