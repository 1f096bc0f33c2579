package il

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thiremani/corvid/types"
)

func TestWrapInt(t *testing.T) {
	tests := []struct {
		typ  types.Type
		in   int64
		want int64
	}{
		{types.I8, 127, 127},
		{types.I8, 128, -128},
		{types.U8, 256, 0},
		{types.U8, -1, 255},
		{types.I32, math.MaxInt32 + 1, math.MinInt32},
		{types.U64, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Int(tt.typ.(types.Int), tt.in).Int())
		})
	}
	assert.Equal(t, uint64(math.MaxUint64), Int(types.U64.(types.Int), -1).Uint())
}

func TestKeyIsBitExact(t *testing.T) {
	assert.Equal(t, I32(3).Key(), I32(3).Key())
	assert.NotEqual(t, I32(3).Key(), I64(3).Key())
	assert.NotEqual(t, F64(0).Key(), F64(math.Copysign(0, -1)).Key())
	assert.Equal(t, F64(math.NaN()).Key(), F64(math.NaN()).Key())

	a := newFn("a")
	b := newFn("a")
	assert.NotEqual(t, LabelValue(a).Key(), LabelValue(b).Key())
	assert.Equal(t, ListValue(NewList(I32(1), Sym("x"))).Key(), ListValue(NewList(I32(1), Sym("x"))).Key())
	assert.Equal(t, "nothing", None.Type.String())
}

func TestConstantAndStaticType(t *testing.T) {
	f := newFn("f", "ret", "x")
	f.Params[1].Type = types.I64

	x := ParamValue(f.Params[1])
	assert.False(t, x.IsConstant())
	assert.Equal(t, types.I64, x.StaticType())
	assert.True(t, I32(1).IsConstant())
	assert.True(t, LabelValue(f).IsConstant())
	assert.Equal(t, types.Label, LabelValue(f).StaticType())
	assert.False(t, Any{}.IsConstant())
}

func TestAnyString(t *testing.T) {
	tests := []struct {
		v    Any
		want string
	}{
		{I32(-4), "-4"},
		{I64(4), "4:i64"},
		{Int(types.U8.(types.Int), 255), "255:u8"},
		{F64(2), "2.0"},
		{Float(types.F32.(types.Float), 0.5), "0.5:f32"},
		{Bool(true), "true"},
		{String("hi"), `"hi"`},
		{Sym("foo"), "'foo"},
		{None, "none"},
		{TypeValue(types.I32), "i32"},
		{BuiltinValue(Add), "add"},
		{ListValue(NewList(I32(1), I32(2))), "[1 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.String())
		})
	}
}

func TestLookupBuiltin(t *testing.T) {
	for b := Builtin(0); b < NumBuiltins; b++ {
		got, ok := LookupBuiltin(b.String())
		assert.True(t, ok, b.String())
		assert.Equal(t, b, got)
	}
	_, ok := LookupBuiltin("frobnicate")
	assert.False(t, ok)
}
