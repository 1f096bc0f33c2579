package types

import (
	"fmt"
	"strings"
)

type Kind int

const (
	NothingKind Kind = iota
	AnyKind
	BoolKind
	IntKind
	FloatKind
	PtrKind
	StringKind
	SymbolKind
	ListKind
	TypeKind
	LabelKind
	ParameterKind
	ClosureKind
	FrameKind
	BuiltinKind
	ScopeKind
	SyntaxKind
	AnchorKind
	TypedLabelKind
	TypeSetKind
)

// Type is the interface for all types of IL values.
//
// Types are comparable with ==: scalar types are small value structs and the
// composite signature types (TypedLabel, TypeSet) are interned pointers.
type Type interface {
	String() string
	Kind() Kind
	Mangle() string
}

// Simple is a type with no parameters, identified by its kind alone.
type Simple struct {
	kind Kind
}

var simpleNames = map[Kind][2]string{
	NothingKind:   {"nothing", "Nothing"},
	AnyKind:       {"any", "Any"},
	BoolKind:      {"bool", "Bool"},
	StringKind:    {"string", "Str"},
	SymbolKind:    {"symbol", "Sym"},
	ListKind:      {"list", "List"},
	TypeKind:      {"type", "Type"},
	LabelKind:     {"label", "Label"},
	ParameterKind: {"parameter", "Param"},
	ClosureKind:   {"closure", "Closure"},
	FrameKind:     {"frame", "Frame"},
	BuiltinKind:   {"builtin", "Builtin"},
	ScopeKind:     {"scope", "Scope"},
	SyntaxKind:    {"syntax", "Syntax"},
	AnchorKind:    {"anchor", "Anchor"},
}

func (s Simple) Kind() Kind     { return s.kind }
func (s Simple) String() string { return simpleNames[s.kind][0] }
func (s Simple) Mangle() string { return simpleNames[s.kind][1] }

// Common types. Nothing is the type of the unit value `none` and of a
// continuation that is never invoked. Any marks a value whose type is not
// known yet (generic).
var (
	Nothing   Type = Simple{NothingKind}
	Any       Type = Simple{AnyKind}
	Bool      Type = Simple{BoolKind}
	String    Type = Simple{StringKind}
	Symbol    Type = Simple{SymbolKind}
	List      Type = Simple{ListKind}
	TypeT     Type = Simple{TypeKind}
	Label     Type = Simple{LabelKind}
	Parameter Type = Simple{ParameterKind}
	Closure   Type = Simple{ClosureKind}
	Frame     Type = Simple{FrameKind}
	Builtin   Type = Simple{BuiltinKind}
	Scope     Type = Simple{ScopeKind}
	Syntax    Type = Simple{SyntaxKind}
	Anchor    Type = Simple{AnchorKind}

	I8  Type = Int{Width: 8, Signed: true}
	I16 Type = Int{Width: 16, Signed: true}
	I32 Type = Int{Width: 32, Signed: true}
	I64 Type = Int{Width: 64, Signed: true}
	U8  Type = Int{Width: 8}
	U16 Type = Int{Width: 16}
	U32 Type = Int{Width: 32}
	U64 Type = Int{Width: 64}
	F32 Type = Float{Width: 32}
	F64 Type = Float{Width: 64}
)

// Int represents an integer type with a given bit width.
type Int struct {
	Width  uint32 // 8, 16, 32, 64
	Signed bool
}

func (i Int) String() string {
	if i.Signed {
		return fmt.Sprintf("i%d", i.Width)
	}
	return fmt.Sprintf("u%d", i.Width)
}

func (i Int) Kind() Kind { return IntKind }

func (i Int) Mangle() string {
	if i.Signed {
		return fmt.Sprintf("I%d", i.Width)
	}
	return fmt.Sprintf("U%d", i.Width)
}

// Float represents a floating-point type with a given precision.
type Float struct {
	Width uint32 // 32, 64
}

func (f Float) String() string { return fmt.Sprintf("f%d", f.Width) }
func (f Float) Kind() Kind     { return FloatKind }
func (f Float) Mangle() string { return fmt.Sprintf("F%d", f.Width) }

// Ptr represents a pointer type to some element type.
type Ptr struct {
	Elem Type
}

func (p Ptr) String() string { return "ptr<" + p.Elem.String() + ">" }
func (p Ptr) Kind() Kind     { return PtrKind }
func (p Ptr) Mangle() string { return "Ptr" + PREFIX + "1" + PREFIX + p.Elem.Mangle() }

// TypedLabel is the signature of a continuation or function accepting
// exactly Types. Types[0] is reserved for the continuation slot and is
// conventionally Nothing. Values are interned: build them with NewTypedLabel.
type TypedLabel struct {
	Types []Type
	key   string
}

func (tl *TypedLabel) Kind() Kind     { return TypedLabelKind }
func (tl *TypedLabel) Mangle() string { return tl.key }

func (tl *TypedLabel) String() string {
	return "label<" + typesStr(tl.Types, ",") + ">"
}

// Results returns the types the signature carries after the reserved slot.
func (tl *TypedLabel) Results() []Type {
	if len(tl.Types) == 0 {
		return nil
	}
	return tl.Types[1:]
}

// TypeSet is the union of a deduplicated, order-independent set of types.
// Values are interned: build them with NewTypeSet.
type TypeSet struct {
	Members []Type
	key     string
}

func (ts *TypeSet) Kind() Kind     { return TypeSetKind }
func (ts *TypeSet) Mangle() string { return ts.key }

func (ts *TypeSet) String() string {
	return "set<" + typesStr(ts.Members, "|") + ">"
}

// Contains reports whether t is one of the set's members.
func (ts *TypeSet) Contains(t Type) bool {
	for _, m := range ts.Members {
		if m == t {
			return true
		}
	}
	return false
}

func typesStr(types []Type, sep string) string {
	if len(types) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, t := range types {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// EqualTypes checks if two type lists are equal element-wise.
func EqualTypes(left []Type, right []Type) bool {
	if len(left) != len(right) {
		return false
	}
	for i, l := range left {
		if l != right[i] {
			return false
		}
	}
	return true
}

// IsUntyped reports whether a continuation of type t has not been assigned
// a signature yet.
func IsUntyped(t Type) bool {
	return t == nil || t == Nothing || t == Any
}

// IsNumeric reports whether arithmetic builtins accept operands of type t.
func IsNumeric(t Type) bool {
	k := t.Kind()
	return k == IntKind || k == FloatKind
}

// FirstOrder reports whether a value of type t is a static, compile-time
// value (a label, closure, type, symbol, ...) that cannot travel through a
// continuation as ordinary runtime data. Returning such a value forces the
// normalizer to inline the receiving continuation instead.
func FirstOrder(t Type) bool {
	switch t.Kind() {
	case NothingKind, AnyKind, BoolKind, IntKind, FloatKind, PtrKind:
		return false
	case TypeSetKind:
		for _, m := range t.(*TypeSet).Members {
			if FirstOrder(m) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// ReturnsFirstOrder reports whether any signature in t (a TypedLabel or a
// TypeSet of them) carries a first-order result.
func ReturnsFirstOrder(t Type) bool {
	switch tt := t.(type) {
	case *TypedLabel:
		for _, r := range tt.Results() {
			if FirstOrder(r) {
				return true
			}
		}
	case *TypeSet:
		for _, m := range tt.Members {
			if ReturnsFirstOrder(m) {
				return true
			}
		}
	}
	return false
}
