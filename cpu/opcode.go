package cpu

import (
	"fmt"
)

// Opcodes, or opcode patterns, understood by the decoder.
const (
	OP_ORI_CCR   = uint16(0x003c)
	OP_ORI_SR    = uint16(0x007c)
	OP_ANDI_CCR  = uint16(0x023c)
	OP_ANDI_SR   = uint16(0x027c)
	OP_EORI_CCR  = uint16(0x0a3c)
	OP_EORI_SR   = uint16(0x0a7c)
	OP_MOVE_SR   = uint16(0x46fc) // move #imm,sr
	OP_ILLEGAL   = uint16(0x4afc)
	OP_TRAP      = uint16(0x4e40) // Low 4 bits: vector.
	OP_MOVE_USP  = uint16(0x4e60) // Bit 3: usp to An. Low 3 bits: An.
	OP_RESET     = uint16(0x4e70)
	OP_NOP       = uint16(0x4e71)
	OP_STOP      = uint16(0x4e72)
	OP_RTE       = uint16(0x4e73)
	OP_RTS       = uint16(0x4e75)
	OP_TRAPV     = uint16(0x4e76)
	OP_BRA       = uint16(0x6000) // Low 8 bits: displacement, 0 for a word.
	OP_MOVEQ     = uint16(0x7000) // Bits 9-11: Dn. Low 8 bits: data.
	OP_DIVU_IMM  = uint16(0x80fc) // divu.w #imm,Dn. Bits 9-11: Dn.
	OP_LINE_A    = uint16(0xa000)
	OP_LINE_F    = uint16(0xf000)
	OP_LINE_MASK = uint16(0xf000)
)

var _op_name = map[uint16]string{
	OP_ORI_CCR:  "ori #,ccr",
	OP_ORI_SR:   "ori #,sr",
	OP_ANDI_CCR: "andi #,ccr",
	OP_ANDI_SR:  "andi #,sr",
	OP_EORI_CCR: "eori #,ccr",
	OP_EORI_SR:  "eori #,sr",
	OP_MOVE_SR:  "move #,sr",
	OP_ILLEGAL:  "illegal",
	OP_RESET:    "reset",
	OP_NOP:      "nop",
	OP_STOP:     "stop #",
	OP_RTE:      "rte",
	OP_RTS:      "rts",
	OP_TRAPV:    "trapv",
}

// Mnemonic renders op for logs.
func Mnemonic(op uint16) string {
	if name, ok := _op_name[op]; ok {
		return name
	}

	switch {
	case op&0xfff0 == OP_TRAP:
		return fmt.Sprintf("trap #%d", op&0xf)
	case op&0xfff8 == OP_MOVE_USP:
		return fmt.Sprintf("move a%d,usp", op&7)
	case op&0xfff8 == OP_MOVE_USP|8:
		return fmt.Sprintf("move usp,a%d", op&7)
	case op&0xff00 == OP_BRA:
		return "bra"
	case op&0xf100 == OP_MOVEQ:
		return fmt.Sprintf("moveq #%d,d%d", int8(op), (op>>9)&7)
	case op&0xf1ff == OP_DIVU_IMM:
		return fmt.Sprintf("divu.w #,d%d", (op>>9)&7)
	case op&OP_LINE_MASK == OP_LINE_A:
		return fmt.Sprintf("line-a 0x%04x", op)
	case op&OP_LINE_MASK == OP_LINE_F:
		return fmt.Sprintf("line-f 0x%04x", op)
	}

	return fmt.Sprintf("dc.w 0x%04x", op)
}
