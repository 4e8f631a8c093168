package cpu

// Timing is the cost, in clock cycles, of default processing for each
// exception vector. Bus wait states are added on top.
type Timing [256]int

// Instruction costs for the opcodes the core decodes.
const (
	COST_NOP       = 4
	COST_MOVEQ     = 4
	COST_BRA       = 10
	COST_RTS       = 16
	COST_RTE       = 20
	COST_RESET     = 132
	COST_STOP      = 4
	COST_MOVE_SR   = 16
	COST_LOGIC_SR  = 20
	COST_MOVE_USP  = 4
	COST_TRAPV     = 4
	COST_DIVU      = 140
	COST_EXCEPTION = 4 // Opcode fetch of an instruction that raises an exception.
)

// DefaultTiming returns the MC68000 exception cycle table.
func DefaultTiming() (tm Timing) {
	for n := range tm {
		tm[n] = 4
	}

	tm[VECTOR_RESET_SSP] = 40
	tm[VECTOR_RESET_PC] = 4
	tm[VECTOR_BUS_ERROR] = 50
	tm[VECTOR_ADDRESS_ERROR] = 50
	tm[VECTOR_ILLEGAL_INSTRUCTION] = 34
	tm[VECTOR_ZERO_DIVIDE] = 38
	tm[VECTOR_CHK] = 40
	tm[VECTOR_TRAPV] = 34
	tm[VECTOR_PRIVILEGE_VIOLATION] = 34
	tm[VECTOR_TRACE] = 34
	tm[VECTOR_UNINITIALIZED_INTERRUPT] = 44

	// Spurious and autovectored interrupts.
	for n := range 8 {
		tm[int(VECTOR_SPURIOUS_INTERRUPT)+n] = 44
	}

	for n := range 16 {
		tm[int(VECTOR_TRAP_BASE)+n] = 34
	}

	// User vectors are only reached by vectored interrupts.
	for n := VECTOR_USER_BASE; n < len(tm); n++ {
		tm[n] = 44
	}

	return
}

// Cost of default processing for vector.
func (tm *Timing) Cost(vector uint8) int {
	return tm[vector]
}
