package config

import (
	"errors"
	"strings"

	"github.com/ezrec/m68k/translate"
)

var f = translate.From

var (
	ErrKeyUnknown     = errors.New(f("unknown configuration key"))
	ErrModeUnknown    = errors.New(f("interrupt mode must be auto or vectored"))
	ErrLevelInvalid   = errors.New(f("interrupt level must be 1..7"))
	ErrVectorReserved = errors.New(f("interrupt vector must be 0, 15 or 64..255"))
	ErrTimingInvalid  = errors.New(f("timing entry invalid"))
)

// ErrUndecoded lists keys present in the file but not in Config.
type ErrUndecoded []string

func (err ErrUndecoded) Error() string {
	return f("unknown keys: %v", strings.Join(err, ", "))
}

func (err ErrUndecoded) Unwrap() error {
	return ErrKeyUnknown
}

// ErrField places an error at a configuration key.
type ErrField struct {
	Key string
	Err error
}

func (err *ErrField) Error() string {
	return f("%v: %v", err.Key, err.Err)
}

func (err *ErrField) Unwrap() error {
	return err.Err
}
