package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedLabelInterning(t *testing.T) {
	a := NewTypedLabel(Nothing, I32, Bool)
	b := NewTypedLabel(Nothing, I32, Bool)
	c := NewTypedLabel(Nothing, I64, Bool)

	require.Same(t, a, b)
	require.NotSame(t, a, c)
	assert.Equal(t, []Type{I32, Bool}, a.Results())
	assert.Equal(t, "label<nothing,i32,bool>", a.String())
}

func TestTypeSetIsOrderIndependent(t *testing.T) {
	x := NewTypedLabel(Nothing, I32)
	y := NewTypedLabel(Nothing, F64)

	s1 := NewTypeSet(x, y)
	s2 := NewTypeSet(y, x, y)
	require.Equal(t, TypeSetKind, s1.Kind())
	assert.True(t, s1 == s2, "expected interned identity, got %s and %s", s1, s2)
	assert.Len(t, s1.(*TypeSet).Members, 2)

	// flattening a nested set collapses to the same identity
	s3 := NewTypeSet(s1, x)
	assert.True(t, s1 == s3)

	assert.True(t, s1.(*TypeSet).Contains(x))
	assert.False(t, s1.(*TypeSet).Contains(NewTypedLabel(Nothing, Bool)))

	// a union of one member is that member
	assert.True(t, NewTypeSet(x, x) == Type(x))
	assert.True(t, Union(x, x) == Type(x))
}

func TestMangleRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		want string
	}{
		{"signed", I32, "I32"},
		{"unsigned", U8, "U8"},
		{"float", F64, "F64"},
		{"simple", Nothing, "Nothing"},
		{"pointer", Ptr{Elem: I64}, "Ptr$1$I64"},
		{"nested pointer", Ptr{Elem: Ptr{Elem: U8}}, "Ptr$1$Ptr$1$U8"},
		{"typed label", NewTypedLabel(Nothing, I32, Bool), "TL$3$Nothing$I32$Bool"},
		{"type set", NewTypeSet(NewTypedLabel(Nothing, I32), NewTypedLabel(Nothing)), "TS$2$TL$1$Nothing$TL$2$Nothing$I32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.Mangle())
			name, args, err := UnmangleSignature(MangleSymbol("f", []Type{tt.typ, I32}))
			require.NoError(t, err)
			assert.Equal(t, "f", name)
			require.Len(t, args, 2)
			assert.True(t, args[0] == tt.typ, "round trip of %s gave %s", tt.typ, args[0])
			assert.True(t, EqualTypes(args, []Type{tt.typ, I32}))
		})
	}
}

func TestUnmangleSignature(t *testing.T) {
	sym := MangleSymbol("double", []Type{Nothing, I32})
	assert.Equal(t, "$double$Nothing$I32", sym)

	name, args, err := UnmangleSignature(sym)
	require.NoError(t, err)
	assert.Equal(t, "double", name)
	assert.Equal(t, []Type{Nothing, I32}, args)

	_, _, err = UnmangleSignature("double")
	assert.Error(t, err)
	_, _, err = UnmangleSignature("$f$Ptr$2$I32")
	assert.Error(t, err)
	_, _, err = UnmangleSignature("$f$Q12")
	assert.Error(t, err)
}

func TestFirstOrder(t *testing.T) {
	data := []Type{Nothing, Any, Bool, I8, U64, F32, Ptr{Elem: I8}}
	for _, d := range data {
		assert.False(t, FirstOrder(d), "%s should be data", d)
	}
	static := []Type{Label, Closure, Builtin, TypeT, Symbol, List, Scope, String, NewTypedLabel(Nothing)}
	for _, s := range static {
		assert.True(t, FirstOrder(s), "%s should be first-order", s)
	}

	assert.False(t, ReturnsFirstOrder(NewTypedLabel(Nothing, I32)))
	assert.True(t, ReturnsFirstOrder(NewTypedLabel(Nothing, I32, Label)))
	assert.True(t, ReturnsFirstOrder(NewTypeSet(NewTypedLabel(Nothing, I32), NewTypedLabel(Nothing, Closure))))
	// the reserved slot is not a result
	assert.False(t, ReturnsFirstOrder(NewTypedLabel(Label, I32)))
}

func TestLookupName(t *testing.T) {
	for _, name := range ReservedTypeNames() {
		typ, ok := LookupName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, typ.String())
		assert.True(t, IsReservedTypeName(name))
	}
	_, ok := LookupName("i128")
	assert.False(t, ok)
}
