package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/m68k/bus"
)

func TestExceptionConstructors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		ex     Exception
		vector uint8
		text   string
	}){
		{Interrupt(5, 29), 29, "interrupt level 5 vector 29"},
		{Trap(0), 32, "trap #0"},
		{Trap(15), 47, "trap #15"},
		{Trap(0x13), 35, "trap #3"},
		{Synchronous(KIND_ILLEGAL_INSTRUCTION), 4, "illegal instruction"},
		{Synchronous(KIND_ZERO_DIVIDE), 5, "zero divide"},
		{Synchronous(KIND_CHK), 6, "chk"},
		{Synchronous(KIND_TRAPV), 7, "trapv"},
		{Synchronous(KIND_PRIVILEGE_VIOLATION), 8, "privilege violation"},
		{Synchronous(KIND_TRACE), 9, "trace"},
		{Synchronous(KIND_LINE_A), 10, "line 1010"},
		{Synchronous(KIND_LINE_F), 11, "line 1111"},
		{BusError(Fault{Address: 0x1fffff0, Space: bus.USER_DATA}), 2, "bus error at 0xfffff0 [User/Data]"},
		{AddressError(Fault{Address: 0x1001, Space: bus.SUPERVISOR_PROGRAM}), 3, "address error at 0x001001 [Supervisor/Program]"},
	}

	for _, entry := range table {
		assert.Equal(entry.vector, entry.ex.Vector, entry.text)
		assert.Equal(entry.text, entry.ex.String())
	}

	assert.True(BusError(Fault{}).Group0())
	assert.True(AddressError(Fault{}).Group0())
	assert.False(Trap(1).Group0())
	assert.False(Interrupt(1, 25).Spurious())
	assert.True(Interrupt(1, 24).Spurious())
	assert.Equal("Kind(99)", Kind(99).String())
}

func TestSynchronousNeedsOperand(t *testing.T) {
	assert := assert.New(t)

	for _, kind := range []Kind{KIND_INTERRUPT, KIND_TRAP, KIND_BUS_ERROR, KIND_ADDRESS_ERROR, Kind(200)} {
		assert.PanicsWithError(ErrKindOperand(kind).Error(), func() {
			Synchronous(kind)
		})
	}
	assert.ErrorIs(ErrKindOperand(KIND_TRAP), ErrKindInvalid)
}

func TestFaultStatus(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		fault  Fault
		status uint16
	}){
		{Fault{Space: bus.USER_DATA}, 0x19},
		{Fault{Space: bus.USER_PROGRAM, Instruction: true}, 0x12},
		{Fault{Space: bus.SUPERVISOR_DATA, Write: true}, 0x0d},
		{Fault{Space: bus.SUPERVISOR_PROGRAM, Write: true, Instruction: true}, 0x06},
	}

	for _, entry := range table {
		assert.Equal(entry.status, entry.fault.Status(), entry.fault.Space.String())
	}
}

func TestOutcome(t *testing.T) {
	assert := assert.New(t)

	cycles, handled := Handled(12).Cycles()
	assert.True(handled)
	assert.Equal(12, cycles)
	_, declined := Handled(12).Exception()
	assert.False(declined)

	ex, declined := Declined(Trap(2)).Exception()
	assert.True(declined)
	assert.Equal(Trap(2), ex)
	_, handled = Declined(Trap(2)).Cycles()
	assert.False(handled)
}

func TestDefaultTiming(t *testing.T) {
	assert := assert.New(t)

	tm := DefaultTiming()

	table := map[uint8]int{
		VECTOR_RESET_SSP:           40,
		VECTOR_BUS_ERROR:           50,
		VECTOR_ADDRESS_ERROR:       50,
		VECTOR_ILLEGAL_INSTRUCTION: 34,
		VECTOR_ZERO_DIVIDE:         38,
		VECTOR_CHK:                 40,
		VECTOR_TRAPV:               34,
		VECTOR_PRIVILEGE_VIOLATION: 34,
		VECTOR_TRACE:               34,
		VECTOR_LINE_A:              4,
		VECTOR_LINE_F:              4,
		12:                         4,
		VECTOR_FORMAT_ERROR:        4,
		16:                         4,
		VECTOR_SPURIOUS_INTERRUPT:  44,
		31:                         44,
		VECTOR_TRAP_BASE:           34,
		47:                         34,
		48:                         4,
		VECTOR_USER_BASE:           44,
		255:                        44,
	}

	for vector, cycles := range table {
		assert.Equal(cycles, tm.Cost(vector), "vector %d", vector)
	}
}

func TestMnemonic(t *testing.T) {
	assert := assert.New(t)

	table := map[uint16]string{
		OP_NOP:                 "nop",
		OP_TRAP | 7:            "trap #7",
		OP_MOVE_USP | 3:        "move a3,usp",
		OP_MOVE_USP | 8 | 5:    "move usp,a5",
		OP_MOVEQ | 2<<9 | 0xfe: "moveq #-2,d2",
		OP_DIVU_IMM | 1<<9:     "divu.w #,d1",
		0xa00a:                 "line-a 0xa00a",
		0xffff:                 "line-f 0xffff",
		0x1234:                 "dc.w 0x1234",
	}

	for op, text := range table {
		assert.Equal(text, Mnemonic(op))
	}
}
