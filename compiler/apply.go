package compiler

import (
	"strings"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// apply specializes a call to a label. Constant arguments are inlined into
// a clone of the callee, the remaining call is typified, and the callee's
// return type flows into the call's continuation. When the callee returns a
// first-order value or a union of signatures into a label continuation, the
// call is retried with the continuation inlined too.
func (n *Normalizer) apply(l *il.Label, body il.Body, forceCont bool) (bool, error) {
	callee, _ := body.Enter.Label()

	if len(callee.Params) == 0 {
		if err := n.normalize(callee); err != nil {
			return false, err
		}
		if n.inProgress[callee] {
			return false, nil
		}
		b := callee.Body()
		l.SetBody(b.Anchor, b.Enter, b.Args)
		return false, nil
	}

	args, err := checkArgs(callee, body)
	if err != nil {
		return false, err
	}
	cont := args[0]

	target, callArgs := n.inlineArgs(callee, args, forceCont)
	argtypes := append([]types.Type{types.Nothing}, staticTypes(callArgs[1:])...)
	inst, err := n.Typify(target, argtypes)
	if err != nil {
		return false, err
	}
	l.SetBody(body.Anchor, il.LabelValue(inst), callArgs)

	if !n.inProgress[inst] && len(inst.Params) == 1 && len(inst.Params[0].Users()) == 0 {
		// the instance neither returns nor reads an argument
		b := inst.Body()
		n.Logger.Debug("splice", "label", l.String(), "instance", inst.String())
		l.SetBody(b.Anchor, b.Enter, b.Args)
		return false, nil
	}

	rt := inst.ReturnType()
	n.sites = append(n.sites, &callSite{site: l, inst: inst, cont: callArgs[0], seen: rt})
	if types.IsUntyped(rt) {
		return false, nil
	}

	// a label continuation takes one signature of data values; anything
	// else is handled by inlining it into the callee
	_, contIsLabel := cont.Label()
	_, single := rt.(*types.TypedLabel)
	firstOrder := types.ReturnsFirstOrder(rt)
	if contIsLabel && (firstOrder || !single) {
		if forceCont {
			return false, token.Errorf(body.Anchor, token.Specialization, "%s returns values of type %s that continuation %s cannot receive", callee, rt, cont)
		}
		n.Logger.Debug("backtrack", "label", l.String(), "callee", callee.String(), "type", rt.String())
		l.SetBody(body.Anchor, body.Enter, body.Args)
		return n.apply(l, body, true)
	}
	if firstOrder && !cont.IsNone() && !isParam(cont) {
		return false, token.Errorf(body.Anchor, token.Specialization, "%s returns a first-order value of type %s through a continuation", callee, rt)
	}
	return false, n.typeContinuation(l, callArgs[0], rt)
}

// inlineArgs binds the constant arguments of a call into a clone of callee.
// The continuation is inlined when it is a label and every other argument
// is constant, or when forced. It returns the label to call and the
// remaining arguments.
func (n *Normalizer) inlineArgs(callee *il.Label, args []il.Any, forceCont bool) (*il.Label, []il.Any) {
	params := callee.Params
	inline := make([]bool, len(params))
	all := true
	for i := 1; i < len(params); i++ {
		if params[i].Vararg {
			all = all && allConstant(args[i:])
			break
		}
		inline[i] = args[i].IsConstant()
		all = all && inline[i]
	}
	_, contIsLabel := args[0].Label()
	inline[0] = contIsLabel && (all || forceCont)

	keys := make([]string, len(params))
	inlined := false
	for i, inl := range inline {
		keys[i] = "?"
		if inl {
			keys[i] = args[i].Key()
			inlined = true
		}
	}
	if !inlined {
		return callee, args
	}

	key := memoKey{callee, strings.Join(keys, ",")}
	target, ok := n.inlinedArgs[key]
	if !ok {
		m := MangleMap{}
		var newParams []*il.Parameter
		for i, p := range params {
			switch {
			case inline[i]:
				m[p] = []il.Any{args[i]}
				if i == 0 {
					newParams = append(newParams, il.NewParameter(p.Anchor, p.Name, types.Nothing))
				}
			default:
				c := p.Clone()
				newParams = append(newParams, c)
				m[p] = []il.Any{il.ParamValue(c)}
			}
		}
		target = Mangle(callee, newParams, m)
		n.inlinedArgs[key] = target
		n.Logger.Debug("inline", "callee", callee.String(), "key", key.key, "target", target.String())
	}

	callArgs := []il.Any{args[0]}
	if inline[0] {
		callArgs[0] = il.None
	}
	for i := 1; i < len(params); i++ {
		if params[i].Vararg {
			callArgs = append(callArgs, args[i:]...)
			break
		}
		if !inline[i] {
			callArgs = append(callArgs, args[i])
		}
	}
	return target, callArgs
}

// checkArgs pads missing arguments with None and checks the rest against
// the declared parameter types. Inlined constants never reach Typify.
func checkArgs(callee *il.Label, body il.Body) ([]il.Any, error) {
	params := callee.Params
	args := body.Args
	fixed := len(params)
	vararg := params[len(params)-1].Vararg
	if vararg {
		fixed--
	}
	if !vararg && len(args) > len(params) {
		return nil, token.Errorf(body.Anchor, token.Arity, "%s expects %d arguments, got %d", callee, len(params)-1, len(args)-1)
	}
	for len(args) < fixed {
		args = append(args, il.None)
	}
	for i := 1; i < len(args); i++ {
		p := params[min(i, len(params)-1)]
		if _, err := paramType(p, args[i].StaticType()); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func isParam(v il.Any) bool {
	_, ok := v.Param()
	return ok
}
