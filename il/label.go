package il

import (
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

var uidCounter atomic.Uint64

func nextUID() uint64 { return uidCounter.Add(1) }

// Node is a graph vertex that can appear as an operand of a body: a Label or
// a Parameter.
type Node interface {
	ID() uint64
	Users() Users
	String() string
}

// Users counts how often each label's body refers to a node.
type Users map[*Label]int

func (u Users) add(l *Label) { u[l]++ }

func (u Users) remove(l *Label) {
	if n := u[l]; n > 1 {
		u[l] = n - 1
		return
	}
	delete(u, l)
}

// Sorted returns the users ordered by uid.
func (u Users) Sorted() []*Label {
	out := make([]*Label, 0, len(u))
	for l := range u {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

type Parameter struct {
	UID    uint64
	Anchor token.Anchor
	Name   string
	Type   types.Type
	Index  int
	Vararg bool

	label *Label
	users Users
}

// NewParameter returns an unowned parameter. A nil type means Any.
func NewParameter(anchor token.Anchor, name string, t types.Type) *Parameter {
	if t == nil {
		t = types.Any
	}
	return &Parameter{
		UID:    nextUID(),
		Anchor: anchor,
		Name:   name,
		Type:   t,
		Index:  -1,
		users:  make(Users),
	}
}

// NewVarargParameter returns an unowned parameter that captures all
// remaining positional arguments.
func NewVarargParameter(anchor token.Anchor, name string, t types.Type) *Parameter {
	p := NewParameter(anchor, name, t)
	p.Vararg = true
	return p
}

// Clone returns a fresh unowned parameter with p's anchor, name, type and
// vararg flag.
func (p *Parameter) Clone() *Parameter {
	c := NewParameter(p.Anchor, p.Name, p.Type)
	c.Vararg = p.Vararg
	return c
}

func (p *Parameter) ID() uint64   { return p.UID }
func (p *Parameter) Users() Users { return p.users }

// Label returns the owning label, or nil while the parameter is unbound.
func (p *Parameter) Label() *Label { return p.label }

// IsContinuation reports whether p is its label's return target.
func (p *Parameter) IsContinuation() bool { return p.label != nil && p.Index == 0 }

func (p *Parameter) String() string {
	name := p.Name
	if name == "" {
		name = "%" + strconv.FormatUint(p.UID, 10)
	}
	if p.Vararg {
		name += "..."
	}
	return name
}

// Body is the single instruction of a label: call Enter with Args. Args[0]
// is the outgoing continuation.
type Body struct {
	Anchor token.Anchor
	Enter  Any
	Args   []Any
}

func (b Body) IsEmpty() bool { return b.Enter.IsEmpty() }

type Label struct {
	UID    uint64
	Anchor token.Anchor
	Name   string
	Params []*Parameter

	body  Body
	users Users
}

func NewLabel(anchor token.Anchor, name string) *Label {
	return &Label{
		UID:    nextUID(),
		Anchor: anchor,
		Name:   name,
		users:  make(Users),
	}
}

// NewLabelFrom returns a fresh, empty label with l's anchor and name.
func NewLabelFrom(l *Label) *Label {
	return NewLabel(l.Anchor, l.Name)
}

func (l *Label) ID() uint64   { return l.UID }
func (l *Label) Users() Users { return l.users }

func (l *Label) String() string {
	if l.Name == "" {
		return "@" + strconv.FormatUint(l.UID, 10)
	}
	return l.Name + "@" + strconv.FormatUint(l.UID, 10)
}

// Append binds p as l's next parameter.
func (l *Label) Append(p *Parameter) {
	if p.label != nil {
		panic(fmt.Sprintf("parameter %s is already bound to %s", p, p.label))
	}
	p.label = l
	p.Index = len(l.Params)
	l.Params = append(l.Params, p)
}

// SetParameters binds ps as l's parameter list. l must have none yet.
func (l *Label) SetParameters(ps []*Parameter) {
	if len(l.Params) != 0 {
		panic(fmt.Sprintf("label %s already has parameters", l))
	}
	for _, p := range ps {
		l.Append(p)
	}
}

// Continuation returns params[0], or nil for a label without parameters.
func (l *Label) Continuation() *Parameter {
	if len(l.Params) == 0 {
		return nil
	}
	return l.Params[0]
}

// ReturnType is the type of the continuation parameter.
func (l *Label) ReturnType() types.Type {
	if c := l.Continuation(); c != nil {
		return c.Type
	}
	return types.Nothing
}

// Body returns a copy of l's body. Mutate through SetBody.
func (l *Label) Body() Body {
	b := l.body
	b.Args = append([]Any(nil), b.Args...)
	return b
}

// SetBody replaces l's body, keeping every referenced node's users in sync.
func (l *Label) SetBody(anchor token.Anchor, enter Any, args []Any) {
	l.unlink()
	l.body = Body{Anchor: anchor, Enter: enter, Args: append([]Any(nil), args...)}
	l.link()
}

// SetEnter replaces only the enter operand.
func (l *Label) SetEnter(enter Any) {
	l.SetBody(l.body.Anchor, enter, l.body.Args)
}

// SetArgs replaces only the argument list.
func (l *Label) SetArgs(args []Any) {
	l.SetBody(l.body.Anchor, l.body.Enter, args)
}

// ClearBody empties l's body.
func (l *Label) ClearBody() {
	l.unlink()
	l.body = Body{}
}

func (l *Label) operands(fn func(Node)) {
	if n := nodeOf(l.body.Enter); n != nil {
		fn(n)
	}
	for _, a := range l.body.Args {
		if n := nodeOf(a); n != nil {
			fn(n)
		}
	}
}

func (l *Label) link() {
	l.operands(func(n Node) { n.Users().add(l) })
}

func (l *Label) unlink() {
	l.operands(func(n Node) { n.Users().remove(l) })
}

// nodeOf returns the graph node v refers to, if any.
func nodeOf(v Any) Node {
	switch d := v.Data.(type) {
	case *Label:
		return d
	case *Parameter:
		return d
	}
	return nil
}

// NodeOf is the exported form of nodeOf for packages walking bodies.
func NodeOf(v Any) Node { return nodeOf(v) }

// Occurrences counts how often n appears in l's body.
func (l *Label) Occurrences(n Node) int {
	count := 0
	l.operands(func(m Node) {
		if m == n {
			count++
		}
	})
	return count
}
