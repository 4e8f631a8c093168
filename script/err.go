package script

import (
	"errors"

	"github.com/ezrec/m68k/cpu"
	"github.com/ezrec/m68k/translate"
)

var f = translate.From

var (
	ErrNoIntercept   = errors.New(f("script does not define intercept(cpu, ex)"))
	ErrResultInvalid = errors.New(f("intercept must return None or a cycle count"))
	ErrReadOnly      = errors.New(f("attribute is read-only"))
	ErrStepLimit     = errors.New(f("intercept exceeded its step limit"))
)

// ErrResult is an unusable return value from intercept.
type ErrResult string

func (err ErrResult) Error() string {
	return f("intercept returned %v", string(err))
}

func (err ErrResult) Unwrap() error {
	return ErrResultInvalid
}

// ErrSteps is the step count at which intercept was cancelled.
type ErrSteps uint64

func (err ErrSteps) Error() string {
	return f("intercept cancelled after 0x%x steps", uint64(err))
}

func (err ErrSteps) Unwrap() error {
	return ErrStepLimit
}

// ErrIntercept records a script failure. The exception it was offered
// was declined.
type ErrIntercept struct {
	Exception cpu.Exception
	Err       error
}

func (err *ErrIntercept) Error() string {
	return f("%v: %v", err.Exception, err.Err)
}

func (err *ErrIntercept) Unwrap() error {
	return err.Err
}
