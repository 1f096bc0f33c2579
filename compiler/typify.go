package compiler

import (
	"strconv"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// Typify returns the instance of l specialized for argtypes, building and
// normalizing it on first request. argtypes[0] is the continuation slot and
// is conventionally Nothing; missing trailing types are Nothing. The memo
// entry is stored before the instance is normalized, so recursive requests
// for the same signature return the instance under construction.
func (n *Normalizer) Typify(l *il.Label, argtypes []types.Type) (*il.Label, error) {
	sig := types.NewTypedLabel(argtypes...)
	key := instanceKey{l, sig}
	if inst, ok := n.instances[key]; ok {
		return inst, nil
	}

	m := MangleMap{}
	var params []*il.Parameter
	pos := 0
	next := func() types.Type {
		t := types.Nothing
		if pos < len(argtypes) {
			t = argtypes[pos]
		}
		pos++
		return t
	}
	for _, p := range l.Params {
		if !p.Vararg {
			t, err := paramType(p, next())
			if err != nil {
				return nil, err
			}
			c := p.Clone()
			c.Type = t
			params = append(params, c)
			m[p] = []il.Any{il.ParamValue(c)}
			continue
		}
		vals := []il.Any{}
		for k := 0; pos < len(argtypes); k++ {
			t, err := paramType(p, next())
			if err != nil {
				return nil, err
			}
			c := p.Clone()
			c.Vararg = false
			c.Name = p.Name + strconv.Itoa(k)
			c.Type = t
			params = append(params, c)
			vals = append(vals, il.ParamValue(c))
		}
		m[p] = vals
	}
	if pos < len(argtypes) {
		return nil, token.Errorf(l.Anchor, token.Arity, "%s accepts %d arguments, got %d", l, len(l.Params)-1, len(argtypes)-1)
	}

	inst := Mangle(l, params, m)
	n.instances[key] = inst
	n.instances[instanceKey{inst, sig}] = inst
	n.order = append(n.order, inst)
	n.Logger.Debug("typify", "label", l.String(), "sig", sig.String(), "instance", inst.String())

	if err := n.normalize(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// paramType reconciles a parameter's declared type with the type of the
// argument bound to it.
func paramType(p *il.Parameter, arg types.Type) (types.Type, error) {
	if p.Index == 0 || p.Type == types.Any {
		return arg, nil
	}
	if arg == types.Any || arg == types.Nothing || arg == p.Type {
		return p.Type, nil
	}
	return nil, token.Errorf(p.Anchor, token.TypeMismatch, "parameter %s of %s is %s, got %s", p, p.Label(), p.Type, arg)
}

// typeParam assigns sig to an untyped continuation parameter, or widens an
// already typed one.
func (n *Normalizer) typeParam(p *il.Parameter, sig types.Type) {
	switch {
	case types.IsUntyped(p.Type):
		p.Type = sig
	case p.Type == sig:
		return
	default:
		if ts, ok := p.Type.(*types.TypeSet); ok && ts.Contains(sig) {
			return
		}
		p.Type = types.Union(p.Type, sig)
	}
	n.Logger.Debug("type continuation", "param", p.String(), "type", p.Type.String())
}

// typeContinuation makes cont, the continuation argument of site's body,
// accept sig.
func (n *Normalizer) typeContinuation(site *il.Label, cont il.Any, sig types.Type) error {
	switch d := cont.Data.(type) {
	case *il.Parameter:
		n.typeParam(d, sig)
		return nil
	case *il.Label:
		tl, ok := sig.(*types.TypedLabel)
		if !ok {
			return token.Errorf(site.Body().Anchor, token.Specialization, "continuation %s cannot receive values of ambiguous type %s", d, sig)
		}
		inst, err := n.Typify(d, tl.Types)
		if err != nil {
			return err
		}
		args := site.Body().Args
		args[0] = il.LabelValue(inst)
		site.SetArgs(args)
		return nil
	}
	if cont.IsNone() {
		return nil
	}
	return token.Errorf(site.Body().Anchor, token.Structural, "invalid continuation %s", cont)
}

// resolve revisits recorded call sites until the return types of the
// instances they call stop changing.
func (n *Normalizer) resolve() error {
	defer func() { n.sites = nil }()
	for pass := 0; ; pass++ {
		if pass >= n.MaxPasses {
			return token.Errorf(token.Anchor{}, token.Specialization, "return types are not converging after %d passes; check for recursion without a base case", n.MaxPasses)
		}
		converging := false
		for _, cs := range n.sites {
			rt := cs.inst.ReturnType()
			if rt == cs.seen {
				continue
			}
			if enter, ok := cs.site.Body().Enter.Label(); !ok || enter != cs.inst {
				// the site was rewritten since
				cs.seen = rt
				continue
			}
			cs.seen = rt
			converging = true
			n.Logger.Debug("resolve", "site", cs.site.String(), "instance", cs.inst.String(), "type", rt.String())
			if types.ReturnsFirstOrder(rt) {
				if _, ok := cs.cont.Param(); !ok && !cs.cont.IsNone() {
					return token.Errorf(cs.site.Body().Anchor, token.Specialization, "%s returns a first-order value of type %s through a continuation", cs.inst, rt)
				}
			}
			if err := n.typeContinuation(cs.site, cs.cont, rt); err != nil {
				return err
			}
		}
		if !converging {
			return nil
		}
	}
}
