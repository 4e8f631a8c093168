// Package cpu implements a cycle-counted 68000 processor core built around
// its exception and interrupt dispatch pipeline.
//
// At every instruction boundary the core takes at most one exception: a
// pending fault, a pending trace or synchronous trap, or an interrupt whose
// level exceeds the status register mask. Every exception is first offered
// to an optional Interceptor, which may handle it completely or decline.
// Declined exceptions get the hardware sequence: enter supervisor mode,
// push the frame on the supervisor stack, and load the handler address
// from the vector table.
//
// Memory is reached through a bus.Bus and interrupt requests through an
// irq.Controller, both supplied by the host. The decoder only understands
// the control and system opcodes that raise or return from exceptions;
// everything else is an illegal instruction.
package cpu
