// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package script offers exceptions to a Starlark function before the
// processor's default handling.
//
// The script must define
//
//	def intercept(cpu, ex):
//	    ...
//
// Returning an int marks the exception handled in that many cycles, with
// execution resuming at cpu.pc. Returning None declines it, and a declined
// exception sees the registers as they were before the call; memory writes
// are kept. Every machine define (SR_S, KIND_TRAP, VECTOR_TRACE, ...) is
// predeclared.
package script

import (
	"iter"
	"strconv"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/m68k/cpu"
)

const (
	MAX_STEPS = uint64(1_000_000) // Default Starlark step limit per intercept call.
)

// Interceptor runs a Starlark intercept function for each exception.
type Interceptor struct {
	Verbose  bool               // Log each offered exception.
	Logger   logrus.FieldLogger // Receives print() output and failures.
	Err      error              // Last script failure, if any.
	Calls    int                // Number of exceptions offered.
	MaxSteps uint64             // Step limit per call; 0 means MAX_STEPS.

	name   string
	thread *starlark.Thread
	fn     starlark.Callable
}

var _ cpu.Interceptor = (*Interceptor)(nil)

// Load reads a script from path.
func Load(path string, defines iter.Seq2[string, string]) (ic *Interceptor, err error) {
	return New(path, nil, defines)
}

// New compiles src and looks up its intercept function. src may be
// anything starlark.ExecFileOptions accepts; nil reads the file name.
func New(name string, src any, defines iter.Seq2[string, string]) (ic *Interceptor, err error) {
	pred := starlark.StringDict{}
	if defines != nil {
		for key, str := range defines {
			value, perr := strconv.ParseInt(str, 0, 64)
			if perr != nil {
				pred[key] = starlark.String(str)
				continue
			}
			pred[key] = starlark.MakeInt64(value)
		}
	}

	ic = &Interceptor{
		name: name,
	}
	ic.thread = &starlark.Thread{
		Name: name,
		Print: func(thread *starlark.Thread, msg string) {
			ic.logger().Info(msg)
		},
	}

	opts := syntax.FileOptions{}
	globals, err := starlark.ExecFileOptions(&opts, ic.thread, name, src, pred)
	if err != nil {
		ic = nil
		return
	}

	fn, ok := globals["intercept"].(starlark.Callable)
	if !ok {
		ic = nil
		err = ErrNoIntercept
		return
	}
	ic.fn = fn

	return
}

func (ic *Interceptor) logger() logrus.FieldLogger {
	logger := ic.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("script", ic.name)
}

// Intercept offers ex to the script. A script error declines the
// exception and is kept in Err. Registers changed by a declining script
// are restored.
func (ic *Interceptor) Intercept(c *cpu.Cpu, ex cpu.Exception) cpu.Outcome {
	ic.Calls++

	if ic.Verbose {
		ic.logger().WithField("exception", ex.String()).Debug("intercept")
	}

	regs := c.Registers()
	stopped := c.Stopped

	cycles, err := ic.call(c, ex)
	if err != nil {
		ic.Err = &ErrIntercept{Exception: ex, Err: err}
		ic.logger().Warn(ic.Err)
	}

	if err != nil || cycles < 0 {
		c.SetRegisters(regs)
		c.Stopped = stopped
		return cpu.Declined(ex)
	}

	return cpu.Handled(cycles)
}

// call returns -1 for a declined exception.
func (ic *Interceptor) call(c *cpu.Cpu, ex cpu.Exception) (cycles int, err error) {
	cycles = -1

	limit := ic.MaxSteps
	if limit == 0 {
		limit = MAX_STEPS
	}
	ic.thread.Uncancel()
	ic.thread.Steps = 0
	ic.thread.SetMaxExecutionSteps(limit)

	rc, err := starlark.Call(ic.thread, ic.fn, starlark.Tuple{&Core{cpu: c}, exception(ex)}, nil)
	if err != nil {
		if ic.thread.Steps >= limit {
			err = ErrSteps(limit)
		}
		return
	}

	switch value := rc.(type) {
	case starlark.NoneType:
		return
	case starlark.Int:
		var count int
		err = starlark.AsInt(value, &count)
		if err != nil {
			return
		}
		if count < 0 {
			err = ErrResult(value.String())
			return
		}
		cycles = count
	default:
		err = ErrResult(rc.Type())
	}

	return
}
