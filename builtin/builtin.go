package builtin

import (
	"io"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// Call is one evaluation of a builtin. Args excludes the continuation.
type Call struct {
	Anchor token.Anchor
	Op     il.Builtin
	Args   []il.Any
	Out    io.Writer
}

type Def struct {
	Op il.Builtin
	// MinArgs and MaxArgs bound the operand count after the continuation.
	// MaxArgs < 0 means unbounded.
	MinArgs int
	MaxArgs int
	// Pure builtins have no effects and fold when every operand is a literal.
	Pure bool
	// Control builtins redirect the interpreter loop and have no Eval.
	Control bool
	// NoReturn builtins never invoke their continuation.
	NoReturn bool
	Eval     func(c *Call) ([]il.Any, error)
	// Result gives the static types the builtin passes to its continuation.
	Result func(anchor token.Anchor, args []types.Type) ([]types.Type, error)
}

var table [il.NumBuiltins]*Def

func register(d *Def) {
	if table[d.Op] != nil {
		panic("builtin registered twice: " + d.Op.String())
	}
	table[d.Op] = d
}

// Lookup returns the definition of op.
func Lookup(op il.Builtin) *Def {
	if op < 0 || op >= il.NumBuiltins {
		return nil
	}
	return table[op]
}

// CheckArity reports an arity error unless n operands suit d.
func (d *Def) CheckArity(anchor token.Anchor, n int) error {
	if n < d.MinArgs || (d.MaxArgs >= 0 && n > d.MaxArgs) {
		switch {
		case d.MaxArgs < 0:
			return token.Errorf(anchor, token.Arity, "%s expects at least %d arguments, got %d", d.Op, d.MinArgs, n)
		case d.MinArgs == d.MaxArgs:
			return token.Errorf(anchor, token.Arity, "%s expects %d arguments, got %d", d.Op, d.MinArgs, n)
		default:
			return token.Errorf(anchor, token.Arity, "%s expects %d to %d arguments, got %d", d.Op, d.MinArgs, d.MaxArgs, n)
		}
	}
	return nil
}

// Apply checks arity and evaluates c.
func Apply(c *Call) ([]il.Any, error) {
	d := Lookup(c.Op)
	if d == nil || d.Eval == nil {
		return nil, token.Errorf(c.Anchor, token.Structural, "%s cannot be evaluated directly", c.Op)
	}
	if err := d.CheckArity(c.Anchor, len(c.Args)); err != nil {
		return nil, err
	}
	return d.Eval(c)
}

// ResultTypes checks arity and returns the static result types of op.
func ResultTypes(op il.Builtin, anchor token.Anchor, args []types.Type) ([]types.Type, error) {
	d := Lookup(op)
	if d == nil {
		return nil, token.Errorf(anchor, token.Structural, "unknown builtin %d", int(op))
	}
	if err := d.CheckArity(anchor, len(args)); err != nil {
		return nil, err
	}
	if d.Result == nil {
		return nil, nil
	}
	return d.Result(anchor, args)
}

func fixed(ts ...types.Type) func(token.Anchor, []types.Type) ([]types.Type, error) {
	return func(token.Anchor, []types.Type) ([]types.Type, error) { return ts, nil }
}

func init() {
	registerControl()
	registerArith()
	registerCompare()
	registerData()
}

func registerControl() {
	register(&Def{Op: il.Branch, MinArgs: 3, MaxArgs: 3, Control: true})
	register(&Def{Op: il.Exit, MinArgs: 0, MaxArgs: -1, Control: true, NoReturn: true})
	register(&Def{Op: il.Raise, MinArgs: 1, MaxArgs: 1, Control: true, NoReturn: true})
	register(&Def{Op: il.SetExceptionHandler, MinArgs: 1, MaxArgs: 1, Control: true, Result: fixed()})
	register(&Def{Op: il.GetExceptionHandler, MinArgs: 0, MaxArgs: 0, Control: true, Result: fixed(types.Closure)})
	register(&Def{Op: il.FFICall, MinArgs: 1, MaxArgs: -1, Control: true, Result: fixed(types.Any)})
}
