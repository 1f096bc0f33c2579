package builtin

import (
	"fmt"
	"strings"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

func registerData() {
	register(&Def{
		Op: il.TypeOf, MinArgs: 1, MaxArgs: 1, Pure: true,
		Eval:   func(c *Call) ([]il.Any, error) { return []il.Any{il.TypeValue(c.Args[0].Type)}, nil },
		Result: fixed(types.TypeT),
	})

	register(&Def{Op: il.ListCons, MinArgs: 2, MaxArgs: 2, Pure: true, Eval: evalCons, Result: fixed(types.List)})
	register(&Def{Op: il.ListAt, MinArgs: 1, MaxArgs: 1, Pure: true, Eval: evalListAt, Result: fixed(types.Any)})
	register(&Def{Op: il.ListNext, MinArgs: 1, MaxArgs: 1, Pure: true, Eval: evalListNext, Result: fixed(types.List)})
	register(&Def{Op: il.ListCount, MinArgs: 1, MaxArgs: 1, Pure: true, Eval: evalListCount, Result: fixed(types.I32)})

	register(&Def{Op: il.StringJoin, MinArgs: 2, MaxArgs: 2, Pure: true, Eval: evalStringJoin, Result: fixed(types.String)})
	register(&Def{Op: il.StringCount, MinArgs: 1, MaxArgs: 1, Pure: true, Eval: evalStringCount, Result: fixed(types.I32)})
	register(&Def{Op: il.StringAt, MinArgs: 2, MaxArgs: 2, Pure: true, Eval: evalStringAt, Result: fixed(types.String)})
	register(&Def{
		Op: il.Repr, MinArgs: 1, MaxArgs: 1, Pure: true,
		Eval:   func(c *Call) ([]il.Any, error) { return []il.Any{il.String(c.Args[0].String())}, nil },
		Result: fixed(types.String),
	})

	// scopes are mutable, so none of these fold
	register(&Def{Op: il.ScopeNew, MinArgs: 0, MaxArgs: 1, Eval: evalScopeNew, Result: fixed(types.Scope)})
	register(&Def{Op: il.ScopeAt, MinArgs: 2, MaxArgs: 2, Eval: evalScopeAt, Result: fixed(types.Any)})
	register(&Def{Op: il.ScopeSet, MinArgs: 3, MaxArgs: 3, Eval: evalScopeSet, Result: fixed()})

	register(&Def{Op: il.Print, MinArgs: 0, MaxArgs: -1, Eval: evalPrint, Result: fixed()})
}

func expect(c *Call, i int, t types.Type) error {
	if got := c.Args[i].Type; got != t {
		return token.Errorf(c.Anchor, token.TypeMismatch, "%s: argument %d: expected %s, got %s", c.Op, i+1, t, got)
	}
	return nil
}

func list(c *Call, i int) (*il.List, error) {
	if err := expect(c, i, types.List); err != nil {
		return nil, err
	}
	l, _ := c.Args[i].List()
	return l, nil
}

func evalCons(c *Call) ([]il.Any, error) {
	tail, err := list(c, 1)
	if err != nil {
		return nil, err
	}
	return []il.Any{il.ListValue(il.Cons(c.Args[0], tail))}, nil
}

func evalListAt(c *Call) ([]il.Any, error) {
	l, err := list(c, 0)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, token.Errorf(c.Anchor, token.Structural, "list-at: empty list")
	}
	return []il.Any{l.At}, nil
}

func evalListNext(c *Call) ([]il.Any, error) {
	l, err := list(c, 0)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, token.Errorf(c.Anchor, token.Structural, "list-next: empty list")
	}
	return []il.Any{il.ListValue(l.Next)}, nil
}

func evalListCount(c *Call) ([]il.Any, error) {
	l, err := list(c, 0)
	if err != nil {
		return nil, err
	}
	return []il.Any{il.I32(int32(l.Len()))}, nil
}

func evalStringJoin(c *Call) ([]il.Any, error) {
	if err := expect(c, 0, types.String); err != nil {
		return nil, err
	}
	if err := expect(c, 1, types.String); err != nil {
		return nil, err
	}
	return []il.Any{il.String(c.Args[0].Str() + c.Args[1].Str())}, nil
}

func evalStringCount(c *Call) ([]il.Any, error) {
	if err := expect(c, 0, types.String); err != nil {
		return nil, err
	}
	return []il.Any{il.I32(int32(len(c.Args[0].Str())))}, nil
}

func evalStringAt(c *Call) ([]il.Any, error) {
	if err := expect(c, 0, types.String); err != nil {
		return nil, err
	}
	if c.Args[1].Type.Kind() != types.IntKind {
		return nil, token.Errorf(c.Anchor, token.TypeMismatch, "string-at: index must be an integer, got %s", c.Args[1].Type)
	}
	s, i := c.Args[0].Str(), c.Args[1].Int()
	if i < 0 || i >= int64(len(s)) {
		return nil, token.Errorf(c.Anchor, token.Structural, "string-at: index %d out of range [0, %d)", i, len(s))
	}
	return []il.Any{il.String(s[i : i+1])}, nil
}

func evalScopeNew(c *Call) ([]il.Any, error) {
	var parent *il.Env
	if len(c.Args) == 1 && !c.Args[0].IsNone() {
		if err := expect(c, 0, types.Scope); err != nil {
			return nil, err
		}
		parent, _ = c.Args[0].Env()
	}
	return []il.Any{il.EnvValue(il.NewEnv(parent))}, nil
}

func scopeKey(c *Call) (*il.Env, il.Symbol, error) {
	if err := expect(c, 0, types.Scope); err != nil {
		return nil, "", err
	}
	if err := expect(c, 1, types.Symbol); err != nil {
		return nil, "", err
	}
	env, _ := c.Args[0].Env()
	return env, il.Symbol(c.Args[1].Str()), nil
}

func evalScopeAt(c *Call) ([]il.Any, error) {
	env, name, err := scopeKey(c)
	if err != nil {
		return nil, err
	}
	v, ok := env.Lookup(name)
	if !ok {
		return nil, token.Errorf(c.Anchor, token.Structural, "scope-at: unbound symbol '%s", name)
	}
	return []il.Any{v}, nil
}

func evalScopeSet(c *Call) ([]il.Any, error) {
	env, name, err := scopeKey(c)
	if err != nil {
		return nil, err
	}
	env.Bind(name, c.Args[2])
	return nil, nil
}

func evalPrint(c *Call) ([]il.Any, error) {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		if a.Type == types.String {
			parts[i] = a.Str()
			continue
		}
		parts[i] = a.String()
	}
	if c.Out != nil {
		fmt.Fprintln(c.Out, strings.Join(parts, " "))
	}
	return nil, nil
}
