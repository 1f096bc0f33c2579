package il

// List is an immutable cons list. The nil *List is the empty list.
type List struct {
	At    Any
	Next  *List
	Count int
}

func Cons(at Any, next *List) *List {
	return &List{At: at, Next: next, Count: next.Len() + 1}
}

// NewList builds a list holding vals in order.
func NewList(vals ...Any) *List {
	var l *List
	for i := len(vals) - 1; i >= 0; i-- {
		l = Cons(vals[i], l)
	}
	return l
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return l.Count
}

func (l *List) Values() []Any {
	out := make([]Any, 0, l.Len())
	for ; l != nil; l = l.Next {
		out = append(out, l.At)
	}
	return out
}

// Env is a mutable chain of symbol bindings.
type Env struct {
	UID      uint64
	Parent   *Env
	bindings map[Symbol]Any
}

func NewEnv(parent *Env) *Env {
	return &Env{UID: nextUID(), Parent: parent, bindings: make(map[Symbol]Any)}
}

func (s *Env) Bind(name Symbol, v Any) { s.bindings[name] = v }

// Lookup searches s and then its ancestors.
func (s *Env) Lookup(name Symbol) (Any, bool) {
	for ; s != nil; s = s.Parent {
		if v, ok := s.bindings[name]; ok {
			return v, true
		}
	}
	return Any{}, false
}
