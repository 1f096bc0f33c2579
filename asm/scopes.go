package asm

type ScopeKind int

const (
	ModuleScope ScopeKind = iota
	FnScope
)

type Scope[T any] struct {
	Elems     map[string]T
	ScopeKind ScopeKind
}

func NewScope[T any](sk ScopeKind) Scope[T] {
	return Scope[T]{
		Elems:     make(map[string]T),
		ScopeKind: sk,
	}
}

func PushScope[T any](scopes *[]Scope[T], sk ScopeKind) {
	*scopes = append(*scopes, NewScope[T](sk))
}

func PopScope[T any](scopes *[]Scope[T]) {
	if len(*scopes) == 1 {
		panic("cannot pop module scope")
	}
	*scopes = (*scopes)[:len(*scopes)-1]
}

// Put binds name in the innermost scope and reports whether it was free
// there.
func Put[T any](scopes []Scope[T], name string, elem T) bool {
	inner := scopes[len(scopes)-1].Elems
	if _, ok := inner[name]; ok {
		return false
	}
	inner[name] = elem
	return true
}

// Get searches from the innermost scope outward. Fn scopes are lexical, so
// the search continues through enclosing fns up to the module.
func Get[T any](scopes []Scope[T], name string) (T, bool) {
	for i := len(scopes) - 1; i >= 0; i-- {
		if e, ok := scopes[i].Elems[name]; ok {
			return e, true
		}
	}
	var zero T
	return zero, false
}
