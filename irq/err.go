package irq

import (
	"errors"

	"github.com/ezrec/m68k/translate"
)

var f = translate.From

var (
	ErrPriorityRange = errors.New(f("interrupt priority out of range"))
	ErrNotHighest    = errors.New(f("acknowledged interrupt is not the highest pending"))
)

// ErrPriority is the panic value for a level outside 1..7.
type ErrPriority uint8

func (err ErrPriority) Error() string {
	return f("interrupt priority %d not in 1..7", uint8(err))
}

func (err ErrPriority) Unwrap() error {
	return ErrPriorityRange
}

// ErrAcknowledge is the panic value for acknowledging a level other than
// the highest pending one.
type ErrAcknowledge struct {
	Priority uint8
	Highest  uint8
}

func (err ErrAcknowledge) Error() string {
	return f("acknowledged level %d, highest pending is %d", err.Priority, err.Highest)
}

func (err ErrAcknowledge) Unwrap() error {
	return ErrNotHighest
}
