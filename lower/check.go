// Package lower checks that a normalized graph can be handed to native code
// generation and declares one LLVM function per specialized label.
package lower

import (
	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// Check reports the first place where the graph reachable from entry breaks
// the code generation contract: every parameter has a machine-level type,
// no vararg parameter is left, and no body reads a parameter whose label is
// not part of the graph.
func Check(entry *il.Label) error {
	labels := labelsFrom(entry)
	for _, l := range labels.order {
		for _, p := range l.Params {
			if p.Vararg {
				return token.Errorf(p.Anchor, token.Specialization, "vararg parameter %s of %s was not expanded", p, l)
			}
			if !lowerable(p.Type, p.Index == 0) {
				return token.Errorf(p.Anchor, token.Specialization, "parameter %s of %s has type %s, which has no machine representation", p, l, p.Type)
			}
		}
		body := l.Body()
		if body.IsEmpty() {
			return token.Errorf(l.Anchor, token.Structural, "label %s has no body", l)
		}
		operands := append([]il.Any{body.Enter}, body.Args...)
		for _, v := range operands {
			p, ok := v.Param()
			if !ok {
				continue
			}
			if owner := p.Label(); owner == nil || !labels.seen[owner] {
				return token.Errorf(body.Anchor, token.Structural, "%s reads free parameter %s", l, p)
			}
		}
	}
	return nil
}

type labelSet struct {
	order []*il.Label
	seen  map[*il.Label]bool
}

// labelsFrom collects the labels reachable from entry through label
// operands only. Unlike il.Reachable it does not follow parameters to
// their owners, so a parameter whose owner is outside the set is free.
func labelsFrom(entry *il.Label) labelSet {
	set := labelSet{seen: map[*il.Label]bool{entry: true}}
	work := []*il.Label{entry}
	for len(work) > 0 {
		l := work[0]
		work = work[1:]
		set.order = append(set.order, l)
		body := l.Body()
		for _, v := range append([]il.Any{body.Enter}, body.Args...) {
			if next, ok := v.Label(); ok && !set.seen[next] {
				set.seen[next] = true
				work = append(work, next)
			}
		}
	}
	return set
}

// lowerable reports whether a parameter of type t has a machine
// representation. A continuation may also be a union of signatures.
func lowerable(t types.Type, cont bool) bool {
	switch tt := t.(type) {
	case types.Int, types.Float, types.Ptr:
		return true
	case *types.TypedLabel:
		for _, r := range tt.Results() {
			if !lowerable(r, false) {
				return false
			}
		}
		return true
	case *types.TypeSet:
		if !cont {
			return false
		}
		for _, m := range tt.Members {
			if !lowerable(m, true) {
				return false
			}
		}
		return true
	}
	// strings are compile-time values, like every other first-order type
	switch t {
	case types.Nothing, types.Bool:
		return true
	}
	return false
}
