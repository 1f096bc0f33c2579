package compiler

import (
	"github.com/thiremani/corvid/il"
)

// MangleMap substitutes graph nodes while cloning. A node may map to zero,
// one or many values; many values are only spliced in tail argument
// position, anywhere else the first value is used.
type MangleMap map[il.Node][]il.Any

// Mangle clones entry together with every label in its scope. entry's clone
// takes newParams as its parameters; every scope member and its parameters
// are freshly allocated. Operands are rewritten through m, nodes absent from
// m are shared with the original graph. m is extended with the clones.
func Mangle(entry *il.Label, newParams []*il.Parameter, m MangleMap) *il.Label {
	scope := il.Scope(entry)

	clone := il.NewLabelFrom(entry)
	clone.SetParameters(newParams)

	originals := append([]*il.Label{entry}, scope...)
	clones := make([]*il.Label, len(originals))
	clones[0] = clone
	for i, l := range scope {
		c := il.NewLabelFrom(l)
		for _, p := range l.Params {
			pc := p.Clone()
			c.Append(pc)
			m[p] = []il.Any{il.ParamValue(pc)}
		}
		m[l] = []il.Any{il.LabelValue(c)}
		clones[i+1] = c
	}

	for i, l := range originals {
		body := l.Body()
		if body.IsEmpty() {
			continue
		}
		enter := m.rewrite(body.Enter, false)[0]
		var args []il.Any
		for j, a := range body.Args {
			args = append(args, m.rewrite(a, j == len(body.Args)-1)...)
		}
		clones[i].SetBody(body.Anchor, enter, args)
	}
	return clone
}

func (m MangleMap) rewrite(v il.Any, tail bool) []il.Any {
	n := il.NodeOf(v)
	if n == nil {
		return []il.Any{v}
	}
	vals, ok := m[n]
	switch {
	case !ok:
		return []il.Any{v}
	case tail:
		return vals
	case len(vals) == 0:
		return []il.Any{il.None}
	default:
		return vals[:1]
	}
}
