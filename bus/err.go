package bus

import (
	"errors"
	"fmt"

	"github.com/ezrec/m68k/translate"
)

var f = translate.From

var (
	ErrCopyMismatch = errors.New(f("bus copy between different implementations"))
	ErrImageRange   = errors.New(f("image exceeds the address bus"))
	ErrWaitRegion   = errors.New(f("wait region is empty"))
)

// ErrCopyType reports the concrete type handed to CopyFrom.
type ErrCopyType struct {
	Want string
	Got  string
}

func (err ErrCopyType) Error() string {
	return f("bus copy from %v into %v", err.Got, err.Want)
}

func (err ErrCopyType) Unwrap() error {
	return ErrCopyMismatch
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
