package builtin

import (
	"cmp"
	"math"
	"strings"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

func registerCompare() {
	register(&Def{Op: il.Eq, MinArgs: 2, MaxArgs: 2, Pure: true, Eval: evalEquality, Result: boolResult(false)})
	register(&Def{Op: il.Ne, MinArgs: 2, MaxArgs: 2, Pure: true, Eval: evalEquality, Result: boolResult(false)})
	for _, op := range []il.Builtin{il.Lt, il.Le, il.Gt, il.Ge} {
		register(&Def{Op: op, MinArgs: 2, MaxArgs: 2, Pure: true, Eval: evalOrder, Result: boolResult(true)})
	}
	register(&Def{
		Op: il.Not, MinArgs: 1, MaxArgs: 1, Pure: true,
		Eval: func(c *Call) ([]il.Any, error) {
			if c.Args[0].Type != types.Bool {
				return nil, token.Errorf(c.Anchor, token.TypeMismatch, "not: expected bool, got %s", c.Args[0].Type)
			}
			return []il.Any{il.Bool(!c.Args[0].Bool())}, nil
		},
		Result: func(anchor token.Anchor, args []types.Type) ([]types.Type, error) {
			if args[0] != types.Bool && args[0] != types.Any {
				return nil, token.Errorf(anchor, token.TypeMismatch, "not: expected bool, got %s", args[0])
			}
			return []types.Type{types.Bool}, nil
		},
	})
}

func evalEquality(c *Call) ([]il.Any, error) {
	a, b := c.Args[0], c.Args[1]
	var eq bool
	switch {
	case a.Type != b.Type:
		if types.IsNumeric(a.Type) && types.IsNumeric(b.Type) {
			return nil, token.Errorf(c.Anchor, token.TypeMismatch, "%s: operand types %s and %s differ", c.Op, a.Type, b.Type)
		}
		eq = false
	case a.Type.Kind() == types.FloatKind:
		eq = a.Float() == b.Float()
	default:
		eq = a.Equal(b)
	}
	if c.Op == il.Ne {
		eq = !eq
	}
	return []il.Any{il.Bool(eq)}, nil
}

func evalOrder(c *Call) ([]il.Any, error) {
	a, b := c.Args[0], c.Args[1]
	if a.Type != b.Type {
		return nil, token.Errorf(c.Anchor, token.TypeMismatch, "%s: operand types %s and %s differ", c.Op, a.Type, b.Type)
	}
	var order int
	switch t := a.Type.(type) {
	case types.Int:
		if t.Signed {
			order = cmp.Compare(a.Int(), b.Int())
		} else {
			order = cmp.Compare(a.Uint(), b.Uint())
		}
	case types.Float:
		x, y := a.Float(), b.Float()
		if math.IsNaN(x) || math.IsNaN(y) {
			// every ordering against NaN is false
			return []il.Any{il.Bool(false)}, nil
		}
		order = cmp.Compare(x, y)
	default:
		if a.Type != types.String {
			return nil, token.Errorf(c.Anchor, token.TypeMismatch, "%s: unsupported operand type %s", c.Op, a.Type)
		}
		order = strings.Compare(a.Str(), b.Str())
	}

	var r bool
	switch c.Op {
	case il.Lt:
		r = order < 0
	case il.Le:
		r = order <= 0
	case il.Gt:
		r = order > 0
	case il.Ge:
		r = order >= 0
	}
	return []il.Any{il.Bool(r)}, nil
}

func boolResult(ordered bool) func(token.Anchor, []types.Type) ([]types.Type, error) {
	return func(anchor token.Anchor, args []types.Type) ([]types.Type, error) {
		a, b := args[0], args[1]
		if a != types.Any && b != types.Any {
			if a != b && (ordered || (types.IsNumeric(a) && types.IsNumeric(b))) {
				return nil, token.Errorf(anchor, token.TypeMismatch, "operand types %s and %s differ", a, b)
			}
			if ordered && !types.IsNumeric(a) && a != types.String {
				return nil, token.Errorf(anchor, token.TypeMismatch, "unsupported operand type %s", a)
			}
		}
		return []types.Type{types.Bool}, nil
	}
}
