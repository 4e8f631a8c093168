package cpu

import (
	"errors"

	"github.com/ezrec/m68k/bus"
	"github.com/ezrec/m68k/translate"
)

var f = translate.From

var (
	ErrHalted         = errors.New(f("processor halted by double fault"))
	ErrDeclineAltered = errors.New(f("interceptor declined with an altered exception"))
	ErrKindInvalid    = errors.New(f("exception kind invalid"))
)

// ErrAddress is an odd word or long access. It becomes an address error
// exception at the next instruction boundary.
type ErrAddress Fault

func (err ErrAddress) Error() string {
	dir := f("read")
	if err.Write {
		dir = f("write")
	}
	return f("address error: %v 0x%06x %v", dir, err.Address&bus.ADDRBUS_MASK, err.Space)
}

// ErrDecline is the panic value when an interceptor declines with a
// descriptor other than the one it was offered.
type ErrDecline struct {
	Offered  Exception
	Returned Exception
}

func (err ErrDecline) Error() string {
	return f("offered %v, declined %v", err.Offered, err.Returned)
}

func (err ErrDecline) Unwrap() error {
	return ErrDeclineAltered
}

// ErrKindOperand is the panic value for Synchronous on a kind that needs
// an operand, or an unknown kind.
type ErrKindOperand Kind

func (err ErrKindOperand) Error() string {
	return f("exception kind %v needs its own constructor", Kind(err))
}

func (err ErrKindOperand) Unwrap() error {
	return ErrKindInvalid
}
