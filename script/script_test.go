package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/m68k/bus"
	"github.com/ezrec/m68k/cpu"
	"github.com/ezrec/m68k/irq"
)

const (
	testSSP  = 0x10000
	testBoot = 0x1000
)

func handler(vector uint8) uint32 {
	return 0x4000 + uint32(vector)*0x10
}

func newCpu(t *testing.T) *cpu.Cpu {
	mem := bus.NewPaged(0)
	mem.Write32(bus.SUPERVISOR_DATA, 0, testSSP)
	mem.Write32(bus.SUPERVISOR_DATA, 4, testBoot)
	for v := 2; v < 256; v++ {
		mem.Write32(bus.SUPERVISOR_DATA, uint32(v)*4, handler(uint8(v)))
		mem.Write16(bus.SUPERVISOR_PROGRAM, handler(uint8(v)), uint32(cpu.OP_NOP))
	}
	for n := range uint32(16) {
		mem.Write16(bus.SUPERVISOR_PROGRAM, testBoot+n*2, uint32(cpu.OP_NOP))
	}

	c := cpu.NewCpu(mem, irq.NewAuto())
	c.Reset()
	require.Equal(t, uint32(testSSP), c.A[7])
	return c
}

func newScript(t *testing.T, c *cpu.Cpu, lines ...string) *Interceptor {
	ic, err := New("test.star", strings.Join(lines, "\n")+"\n", c.Defines())
	require.NoError(t, err)
	return ic
}

func TestNew(t *testing.T) {
	assert := assert.New(t)

	ic, err := New("empty.star", "x = 1\n", nil)
	assert.ErrorIs(err, ErrNoIntercept)
	assert.Nil(ic)

	ic, err = New("notfn.star", "intercept = 3\n", nil)
	assert.ErrorIs(err, ErrNoIntercept)
	assert.Nil(ic)

	_, err = New("syntax.star", "def intercept(cpu, ex)\n", nil)
	assert.Error(err)

	_, err = Load("/nonexistent/intercept.star", nil)
	assert.Error(err)
}

func TestHandledTrap(t *testing.T) {
	assert := assert.New(t)

	c := newCpu(t)
	c.Bus.Write16(bus.SUPERVISOR_PROGRAM, testBoot, uint32(cpu.OP_TRAP | 1))
	c.Interceptor = newScript(t, c,
		"def intercept(cpu, ex):",
		"    if ex.kind == KIND_TRAP and ex.trap == 1:",
		"        cpu.d0 = 42",
		"        return 20",
		"    return None",
	)

	assert.Equal(cpu.COST_EXCEPTION, c.Step())
	assert.Equal(20, c.Step())

	assert.Equal(uint32(42), c.D[0])
	assert.Equal(uint32(testBoot+2), c.PC)
	assert.Equal(uint32(testSSP), c.A[7], "no frame pushed")
	assert.Equal(cpu.SR_RESET, c.SR)
	assert.Equal(1, c.Interceptor.(*Interceptor).Calls)
}

func TestDeclined(t *testing.T) {
	assert := assert.New(t)

	c := newCpu(t)
	ic := newScript(t, c,
		"def intercept(cpu, ex):",
		"    return None",
	)
	c.Interceptor = ic

	cycles := c.Dispatch(cpu.Trap(3))
	assert.Equal(34, cycles)
	assert.Equal(handler(cpu.VECTOR_TRAP_BASE+3), c.PC)
	assert.Equal(uint32(testSSP-6), c.A[7])
	assert.NoError(ic.Err)
}

func TestExceptionFields(t *testing.T) {
	assert := assert.New(t)

	c := newCpu(t)
	ic := newScript(t, c,
		"def intercept(cpu, ex):",
		"    cpu.d1 = ex.vector",
		"    cpu.d2 = ex.priority",
		"    cpu.d3 = ex.address",
		"    cpu.d4 = 1 if ex.group0 else 0",
		"    cpu.d5 = 1 if ex.name == 'address error' else 0",
		"    return 0",
	)

	outcome := ic.Intercept(c, cpu.AddressError(cpu.Fault{Address: 0x1235, Space: bus.USER_DATA}))
	cycles, handled := outcome.Cycles()
	assert.True(handled)
	assert.Equal(0, cycles)
	assert.Equal(uint32(cpu.VECTOR_ADDRESS_ERROR), c.D[1])
	assert.Equal(uint32(0), c.D[2])
	assert.Equal(uint32(0x1235), c.D[3])
	assert.Equal(uint32(1), c.D[4])
	assert.Equal(uint32(1), c.D[5])

	ic.Intercept(c, cpu.Interrupt(6, 30))
	assert.Equal(uint32(30), c.D[1])
	assert.Equal(uint32(6), c.D[2])
	assert.Equal(uint32(0), c.D[4])
}

func TestCoreRegisters(t *testing.T) {
	assert := assert.New(t)

	c := newCpu(t)
	ic := newScript(t, c,
		"def intercept(cpu, ex):",
		"    cpu.usp = 0x8000",
		"    cpu.sr = cpu.sr & ~SR_S",
		"    cpu.a3 = cpu.a7",
		"    cpu.ssp = 0x20000",
		"    cpu.pc = 0x2000",
		"    cpu.d7 = 1 if cpu.supervisor else 2",
		"    return 8",
	)

	cycles, handled := ic.Intercept(c, cpu.Synchronous(cpu.KIND_TRACE)).Cycles()
	assert.True(handled)
	assert.Equal(8, cycles)
	assert.NoError(ic.Err)

	assert.False(c.Supervisor())
	assert.Equal(uint32(0x8000), c.A[7])
	assert.Equal(uint32(0x8000), c.A[3])
	assert.Equal(uint32(0x20000), c.SupervisorSP())
	assert.Equal(uint32(0x2000), c.PC)
	assert.Equal(uint32(2), c.D[7])
}

func TestCoreMemory(t *testing.T) {
	assert := assert.New(t)

	c := newCpu(t)
	ic := newScript(t, c,
		"def intercept(cpu, ex):",
		"    cpu.write_long(0x3000, 0x12345678)",
		"    cpu.write_byte(0x3004, 0x9a)",
		"    cpu.d0 = cpu.read_word(0x3002)",
		"    cpu.d1 = cpu.read_byte(0x3004)",
		"    cpu.d2 = cpu.read_long(0x3000)",
		"    return 0",
	)

	ic.Intercept(c, cpu.Trap(0))
	assert.NoError(ic.Err)
	assert.Equal(uint32(0x5678), c.D[0])
	assert.Equal(uint32(0x9a), c.D[1])
	assert.Equal(uint32(0x12345678), c.D[2])
	assert.Equal(uint32(0x12345678), c.Bus.Read32(bus.SUPERVISOR_DATA, 0x3000))
}

func TestScriptFailureDeclines(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		body string
		want error
	}){
		{"    fail('boom')", nil},
		{"    return 'handled'", ErrResultInvalid},
		{"    return -4", ErrResultInvalid},
		{"    cpu.cycles = 3", ErrReadOnly},
		{"    cpu.read_byte = 3", ErrReadOnly},
		{"    cpu.d8 = 3", nil},
	}

	for _, entry := range table {
		c := newCpu(t)
		ic := newScript(t, c, "def intercept(cpu, ex):", entry.body)

		ex := cpu.Trap(5)
		got, declined := ic.Intercept(c, ex).Exception()
		assert.True(declined, entry.body)
		assert.Equal(ex, got, entry.body)

		var failure *ErrIntercept
		if assert.ErrorAs(ic.Err, &failure, entry.body) {
			assert.Equal(ex, failure.Exception)
		}
		if entry.want != nil {
			assert.ErrorIs(ic.Err, entry.want, entry.body)
		}
	}
}

func TestDispatchAfterFailure(t *testing.T) {
	assert := assert.New(t)

	c := newCpu(t)
	c.Interceptor = newScript(t, c,
		"def intercept(cpu, ex):",
		"    return ex.missing",
	)

	cycles := c.Dispatch(cpu.Synchronous(cpu.KIND_ILLEGAL_INSTRUCTION))
	assert.Equal(34, cycles)
	assert.Equal(handler(cpu.VECTOR_ILLEGAL_INSTRUCTION), c.PC)
}

func TestDefinesPredeclared(t *testing.T) {
	assert := assert.New(t)

	defines := func(yield func(string, string) bool) {
		_ = yield("ANSWER", "0x2a") && yield("GREETING", "hello")
	}

	c := newCpu(t)
	ic, err := New("defines.star", strings.Join([]string{
		"def intercept(cpu, ex):",
		"    cpu.d0 = ANSWER",
		"    cpu.d1 = len(GREETING)",
		"    return 0",
	}, "\n")+"\n", defines)
	require.NoError(t, err)

	ic.Intercept(c, cpu.Trap(0))
	assert.NoError(ic.Err)
	assert.Equal(uint32(42), c.D[0])
	assert.Equal(uint32(5), c.D[1])
}

func TestDeclineRestoresRegisters(t *testing.T) {
	assert := assert.New(t)

	run := func(lines ...string) (c *cpu.Cpu, frame [6]byte) {
		c = newCpu(t)
		c.Bus.Write16(bus.SUPERVISOR_PROGRAM, testBoot, uint32(cpu.OP_TRAP|1))
		if len(lines) > 0 {
			c.Interceptor = newScript(t, c, lines...)
		}

		assert.Equal(cpu.COST_EXCEPTION, c.Step())
		assert.Equal(34, c.Step())

		for n := range frame {
			frame[n] = byte(c.Bus.Read8(bus.SUPERVISOR_DATA, c.A[7]+uint32(n)))
		}
		return
	}

	plain, want := run()
	assert.Equal(uint32(testSSP-6), plain.A[7])

	table := []string{
		"    fail('boom')",
		"    return None",
		"    return 'bogus'",
	}

	for _, last := range table {
		c, frame := run(
			"def intercept(cpu, ex):",
			"    cpu.pc = 0x2222",
			"    cpu.d0 = 7",
			"    cpu.usp = 0x8000",
			"    cpu.sr = cpu.sr & ~SR_S",
			"    cpu.stopped = True",
			last,
		)
		assert.Equal(want, frame, last)
		assert.Equal(plain.Registers(), c.Registers(), last)
		assert.False(c.Stopped, last)
	}
}

func TestStepLimit(t *testing.T) {
	assert := assert.New(t)

	c := newCpu(t)
	ic := newScript(t, c,
		"def intercept(cpu, ex):",
		"    if ex.trap == 1:",
		"        cpu.d1 = 5",
		"        for n in range(1000000000):",
		"            pass",
		"        return 0",
		"    cpu.d0 = 9",
		"    return 4",
	)
	ic.MaxSteps = 1000

	ex := cpu.Trap(1)
	got, declined := ic.Intercept(c, ex).Exception()
	assert.True(declined)
	assert.Equal(ex, got)
	assert.ErrorIs(ic.Err, ErrStepLimit)
	assert.Equal(uint32(0), c.D[1])

	var steps ErrSteps
	if assert.ErrorAs(ic.Err, &steps) {
		assert.Equal(ErrSteps(1000), steps)
	}

	cycles, handled := ic.Intercept(c, cpu.Trap(2)).Cycles()
	assert.True(handled)
	assert.Equal(4, cycles)
	assert.Equal(uint32(9), c.D[0])
}
