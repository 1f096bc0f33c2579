package builtin

import (
	"math"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

type intOp func(t types.Int, a, b int64) (int64, error)
type floatOp func(a, b float64) float64

func registerArith() {
	arith := func(op il.Builtin, io intOp, fo floatOp) {
		register(&Def{
			Op: op, MinArgs: 2, MaxArgs: 2, Pure: true,
			Eval:   func(c *Call) ([]il.Any, error) { return evalBinary(c, io, fo) },
			Result: numericResult(op, fo != nil),
		})
	}

	arith(il.Add, func(_ types.Int, a, b int64) (int64, error) { return a + b, nil },
		func(a, b float64) float64 { return a + b })
	arith(il.Sub, func(_ types.Int, a, b int64) (int64, error) { return a - b, nil },
		func(a, b float64) float64 { return a - b })
	arith(il.Mul, func(_ types.Int, a, b int64) (int64, error) { return a * b, nil },
		func(a, b float64) float64 { return a * b })
	arith(il.Div, divInt, func(a, b float64) float64 { return a / b })
	arith(il.Rem, remInt, math.Mod)

	arith(il.Shl, func(_ types.Int, a, b int64) (int64, error) { return a << uint64(b), nil }, nil)
	arith(il.Shr, shrInt, nil)
	arith(il.BitAnd, func(_ types.Int, a, b int64) (int64, error) { return a & b, nil }, nil)
	arith(il.BitOr, func(_ types.Int, a, b int64) (int64, error) { return a | b, nil }, nil)
	arith(il.BitXor, func(_ types.Int, a, b int64) (int64, error) { return a ^ b, nil }, nil)
}

const errDivZero = "integer division by zero"

func divInt(t types.Int, a, b int64) (int64, error) {
	if b == 0 {
		return 0, token.Errorf(token.Anchor{}, token.Structural, errDivZero)
	}
	if !t.Signed {
		return int64(uint64(a) / uint64(b)), nil
	}
	if b == -1 {
		return -a, nil
	}
	return a / b, nil
}

func remInt(t types.Int, a, b int64) (int64, error) {
	if b == 0 {
		return 0, token.Errorf(token.Anchor{}, token.Structural, errDivZero)
	}
	if !t.Signed {
		return int64(uint64(a) % uint64(b)), nil
	}
	if b == -1 {
		return 0, nil
	}
	return a % b, nil
}

func shrInt(t types.Int, a, b int64) (int64, error) {
	if t.Signed {
		return a >> uint64(b), nil
	}
	return int64(uint64(a) >> uint64(b)), nil
}

func evalBinary(c *Call, io intOp, fo floatOp) ([]il.Any, error) {
	a, b := c.Args[0], c.Args[1]
	if a.Type != b.Type {
		return nil, token.Errorf(c.Anchor, token.TypeMismatch, "%s: operand types %s and %s differ", c.Op, a.Type, b.Type)
	}
	switch t := a.Type.(type) {
	case types.Int:
		v, err := io(t, a.Int(), b.Int())
		if err != nil {
			if ce, ok := err.(*token.CompileError); ok {
				ce.Anchor = c.Anchor
			}
			return nil, err
		}
		return []il.Any{il.Int(t, v)}, nil
	case types.Float:
		if fo == nil {
			break
		}
		return []il.Any{il.Float(t, fo(a.Float(), b.Float()))}, nil
	}
	return nil, token.Errorf(c.Anchor, token.TypeMismatch, "%s: unsupported operand type %s", c.Op, a.Type)
}

// numericResult types a binary operation: both operands share one numeric
// type, or one side is still generic and takes the other's type.
func numericResult(op il.Builtin, floats bool) func(token.Anchor, []types.Type) ([]types.Type, error) {
	return func(anchor token.Anchor, args []types.Type) ([]types.Type, error) {
		a, b := args[0], args[1]
		if a == types.Any {
			a = b
		}
		if b == types.Any {
			b = a
		}
		if a != b {
			return nil, token.Errorf(anchor, token.TypeMismatch, "%s: operand types %s and %s differ", op, a, b)
		}
		switch a.Kind() {
		case types.AnyKind, types.IntKind:
			return []types.Type{a}, nil
		case types.FloatKind:
			if floats {
				return []types.Type{a}, nil
			}
		}
		return nil, token.Errorf(anchor, token.TypeMismatch, "%s: unsupported operand type %s", op, a)
	}
}
