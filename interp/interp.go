// Package interp executes label graphs directly, normalized or not.
package interp

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/thiremani/corvid/builtin"
	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// Instruction is one pending call. Frame is the activation its operands
// were evaluated in; a bare label in Enter opens its frame under it.
type Instruction struct {
	Anchor token.Anchor
	Enter  il.Any
	Args   []il.Any
	Frame  *il.Frame
}

// ForeignFunc is a host function reachable through ffi-call.
type ForeignFunc func(args []il.Any) ([]il.Any, error)

type Interpreter struct {
	Logger *slog.Logger
	// MaxSteps aborts a run after that many instructions. 0 means no limit.
	MaxSteps int
	Out      io.Writer

	foreign map[string]ForeignFunc
	handler il.Any
}

// New returns an interpreter printing to out. A nil logger means
// slog.Default() and a nil out means os.Stdout.
func New(logger *slog.Logger, out io.Writer) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Interpreter{
		Logger:  logger,
		Out:     out,
		foreign: make(map[string]ForeignFunc),
	}
}

// RegisterForeign makes fn callable as (ffi-call cont 'name args...).
func (in *Interpreter) RegisterForeign(name string, fn ForeignFunc) {
	in.foreign[name] = fn
}

// Run calls entry with args and an exit continuation, and returns the
// values passed to exit. An error nobody handles ends the run.
func (in *Interpreter) Run(entry *il.Label, args ...il.Any) ([]il.Any, error) {
	in.handler = il.Any{}

	var bufs [2]Instruction
	cur, next := &bufs[0], &bufs[1]
	cur.Anchor = entry.Anchor
	cur.Enter = il.LabelValue(entry)
	cur.Args = append([]il.Any{il.BuiltinValue(il.Exit)}, args...)

	for steps := 1; ; steps++ {
		if in.MaxSteps > 0 && steps > in.MaxSteps {
			return nil, token.Errorf(cur.Anchor, token.Runtime, "step limit of %d exceeded", in.MaxSteps)
		}
		results, done, err := in.step(cur, next)
		if err != nil {
			if err = in.handle(cur, next, err); err != nil {
				return nil, err
			}
		} else if done {
			return results, nil
		}
		cur, next = next, cur
	}
}

// handle redirects control into the registered handler as
// (handler cont anchor message). The handler is uninstalled first, so an
// error raised while it runs ends the run unless it reinstalls itself.
// Without a handler err is returned as is.
func (in *Interpreter) handle(cur, next *Instruction, err error) error {
	if _, ok := in.handler.Closure(); !ok {
		return err
	}
	handler := in.handler
	in.handler = il.Any{}
	anchor, msg := cur.Anchor, err.Error()
	var ce *token.CompileError
	if errors.As(err, &ce) {
		anchor, msg = ce.Anchor, ce.Msg
	}
	cont := il.None
	if len(cur.Args) > 0 {
		cont = cur.Args[0]
	}
	in.Logger.Debug("exception handler", "anchor", anchor.String(), "message", msg)
	next.Anchor = anchor
	next.Enter = handler
	next.Args = append(next.Args[:0], cont, il.AnchorValue(anchor), il.String(msg))
	next.Frame = cur.Frame
	return nil
}

// step executes cur and writes the following instruction into next. done
// is set when the program exits with results.
func (in *Interpreter) step(cur, next *Instruction) (results []il.Any, done bool, err error) {
	switch enter := cur.Enter.Data.(type) {
	case *il.Closure:
		return nil, false, in.enter(cur, next, enter.Label, enter.Frame)
	case *il.Label:
		return nil, false, in.enter(cur, next, enter, cur.Frame)
	case il.Builtin:
		return in.builtin(cur, next, enter)
	}
	return nil, false, token.Errorf(cur.Anchor, token.Structural, "cannot call %s", cur.Enter)
}

// enter binds cur's arguments to l in a new frame under parent and
// evaluates l's body against it.
func (in *Interpreter) enter(cur, next *Instruction, l *il.Label, parent *il.Frame) error {
	// a label without parameters ignores its arguments
	if n := len(l.Params); n > 0 && len(cur.Args) > n && !l.Params[n-1].Vararg {
		return token.Errorf(cur.Anchor, token.Arity, "%s expects %d arguments, got %d", l, n-1, len(cur.Args)-1)
	}
	body := l.Body()
	if body.IsEmpty() {
		return token.Errorf(l.Anchor, token.Structural, "label %s has no body", l)
	}
	frame := il.NewFrame(parent, l, cur.Args)

	enter, err := in.eval(body.Enter, frame, false, true)
	if err != nil {
		return err
	}
	next.Anchor = body.Anchor
	next.Enter = enter[0]
	next.Args = next.Args[:0]
	for i, a := range body.Args {
		vals, err := in.eval(a, frame, i == len(body.Args)-1, false)
		if err != nil {
			return err
		}
		next.Args = append(next.Args, vals...)
	}
	next.Frame = frame
	return nil
}

// eval resolves one operand against frame. Only the tail argument expands
// a vararg into several values.
func (in *Interpreter) eval(v il.Any, frame *il.Frame, tail, isEnter bool) ([]il.Any, error) {
	switch d := v.Data.(type) {
	case *il.Parameter:
		vals, ok := frame.Lookup(d)
		if !ok {
			return nil, token.Errorf(d.Anchor, token.Structural, "parameter %s of %s is not bound; its label is no longer active", d, d.Label())
		}
		switch {
		case tail:
			return vals, nil
		case len(vals) == 0:
			return []il.Any{il.None}, nil
		}
		return vals[:1], nil
	case *il.Label:
		if isEnter {
			return []il.Any{v}, nil
		}
		return []il.Any{il.ClosureValue(il.NewClosure(d, frame))}, nil
	}
	return []il.Any{v}, nil
}

func (in *Interpreter) builtin(cur, next *Instruction, op il.Builtin) ([]il.Any, bool, error) {
	def := builtin.Lookup(op)
	if len(cur.Args) == 0 {
		return nil, false, token.Errorf(cur.Anchor, token.Arity, "%s called without a continuation", op)
	}
	cont, operands := cur.Args[0], cur.Args[1:]
	if err := def.CheckArity(cur.Anchor, len(operands)); err != nil {
		return nil, false, err
	}

	var results []il.Any
	switch op {
	case il.Exit:
		return append([]il.Any(nil), operands...), true, nil
	case il.Raise:
		msg := operands[0].String()
		if operands[0].Type == types.String {
			msg = operands[0].Str()
		}
		return nil, false, token.Errorf(cur.Anchor, token.Runtime, "%s", msg)
	case il.Branch:
		cond := operands[0]
		if cond.Type != types.Bool {
			return nil, false, token.Errorf(cur.Anchor, token.TypeMismatch, "branch condition must be bool, got %s", cond.Type)
		}
		arm := operands[2]
		if cond.Bool() {
			arm = operands[1]
		}
		next.Anchor = cur.Anchor
		next.Enter = arm
		next.Args = append(next.Args[:0], cont)
		next.Frame = cur.Frame
		return nil, false, nil
	case il.SetExceptionHandler:
		h := operands[0]
		if _, ok := h.Closure(); !ok && !h.IsNone() {
			return nil, false, token.Errorf(cur.Anchor, token.TypeMismatch, "exception handler must be a closure, got %s", h.Type)
		}
		in.handler = il.Any{}
		if !h.IsNone() {
			in.handler = h
		}
	case il.GetExceptionHandler:
		h := in.handler
		if h.IsEmpty() {
			h = il.None
		}
		results = []il.Any{h}
	case il.FFICall:
		var err error
		if results, err = in.ffi(cur.Anchor, operands); err != nil {
			return nil, false, err
		}
	default:
		var err error
		results, err = builtin.Apply(&builtin.Call{Anchor: cur.Anchor, Op: op, Args: operands, Out: in.Out})
		if err != nil {
			return nil, false, err
		}
	}

	next.Anchor = cur.Anchor
	next.Enter = cont
	next.Args = append(append(next.Args[:0], il.None), results...)
	next.Frame = cur.Frame
	return nil, false, nil
}

func (in *Interpreter) ffi(anchor token.Anchor, operands []il.Any) ([]il.Any, error) {
	var name string
	switch operands[0].Type {
	case types.String:
		name = operands[0].Str()
	case types.Symbol:
		s, _ := operands[0].Data.(il.Symbol)
		name = string(s)
	default:
		return nil, token.Errorf(anchor, token.TypeMismatch, "ffi-call: function name must be a string or symbol, got %s", operands[0].Type)
	}
	fn, ok := in.foreign[name]
	if !ok {
		return nil, token.Errorf(anchor, token.Structural, "ffi-call: no foreign function %q", name)
	}
	in.Logger.Debug("ffi-call", "name", name, "args", len(operands)-1)
	results, err := fn(operands[1:])
	if err != nil {
		return nil, token.Errorf(anchor, token.Runtime, "ffi-call %s: %v", name, err)
	}
	return results, nil
}

