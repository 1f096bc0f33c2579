package il

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// Symbol is an interned-by-value name datum.
type Symbol string

// Any is the IL's closed tagged union. Type is the tag; Data holds the
// payload, one of:
//
//	bool, int64 (all integer widths, normalized), float64, string, Symbol,
//	types.Type, Builtin, token.Anchor, *List, *Env,
//	*Label, *Parameter, *Closure, *Frame
//
// The zero Any (nil Type) is "empty" and only appears in unset bodies.
type Any struct {
	Type types.Type
	Data any
}

// None is the unit value.
var None = Any{Type: types.Nothing}

// Int returns an integer of type t holding v wrapped to t's width.
func Int(t types.Int, v int64) Any {
	return Any{Type: t, Data: WrapInt(t, v)}
}

func I32(v int32) Any { return Int(types.I32.(types.Int), int64(v)) }
func I64(v int64) Any { return Int(types.I64.(types.Int), v) }

// Float returns a real of type t; 32-bit values are rounded to float32.
func Float(t types.Float, v float64) Any {
	if t.Width == 32 {
		v = float64(float32(v))
	}
	return Any{Type: t, Data: v}
}

func F64(v float64) Any { return Float(types.F64.(types.Float), v) }

func Bool(b bool) Any { return Any{Type: types.Bool, Data: b} }
func String(s string) Any { return Any{Type: types.String, Data: s} }
func Sym(s string) Any { return Any{Type: types.Symbol, Data: Symbol(s)} }
func TypeValue(t types.Type) Any { return Any{Type: types.TypeT, Data: t} }
func LabelValue(l *Label) Any { return Any{Type: types.Label, Data: l} }
func ParamValue(p *Parameter) Any { return Any{Type: types.Parameter, Data: p} }
func ClosureValue(c *Closure) Any { return Any{Type: types.Closure, Data: c} }
func FrameValue(f *Frame) Any { return Any{Type: types.Frame, Data: f} }
func BuiltinValue(b Builtin) Any { return Any{Type: types.Builtin, Data: b} }
func ListValue(l *List) Any { return Any{Type: types.List, Data: l} }
func EnvValue(s *Env) Any { return Any{Type: types.Scope, Data: s} }
func AnchorValue(a token.Anchor) Any { return Any{Type: types.Anchor, Data: a} }

// WrapInt truncates v to t's width, sign- or zero-extending back to 64 bits.
func WrapInt(t types.Int, v int64) int64 {
	if t.Width >= 64 {
		return v
	}
	shift := 64 - t.Width
	if t.Signed {
		return v << shift >> shift
	}
	return int64(uint64(v) << shift >> shift)
}

func (v Any) IsEmpty() bool { return v.Type == nil }
func (v Any) IsNone() bool  { return v.Type == types.Nothing }

func (v Any) Label() (*Label, bool) {
	l, ok := v.Data.(*Label)
	return l, ok
}

func (v Any) Param() (*Parameter, bool) {
	p, ok := v.Data.(*Parameter)
	return p, ok
}

func (v Any) Closure() (*Closure, bool) {
	c, ok := v.Data.(*Closure)
	return c, ok
}

func (v Any) Frame() (*Frame, bool) {
	f, ok := v.Data.(*Frame)
	return f, ok
}

func (v Any) Builtin() (Builtin, bool) {
	b, ok := v.Data.(Builtin)
	return b, ok
}

func (v Any) AsType() (types.Type, bool) {
	if v.Type != types.TypeT {
		return nil, false
	}
	t, ok := v.Data.(types.Type)
	return t, ok
}

func (v Any) List() (*List, bool) {
	if v.Type != types.List {
		return nil, false
	}
	l, _ := v.Data.(*List)
	return l, true
}

func (v Any) Env() (*Env, bool) {
	s, ok := v.Data.(*Env)
	return s, ok
}

// Int returns the integer payload. Unsigned 64-bit values keep their bits.
func (v Any) Int() int64 {
	i, _ := v.Data.(int64)
	return i
}

func (v Any) Uint() uint64 { return uint64(v.Int()) }

func (v Any) Float() float64 {
	f, _ := v.Data.(float64)
	return f
}

func (v Any) Bool() bool {
	b, _ := v.Data.(bool)
	return b
}

func (v Any) Str() string {
	switch d := v.Data.(type) {
	case string:
		return d
	case Symbol:
		return string(d)
	}
	return ""
}

// IsConstant reports whether v is a compile-time value. Parameters are the
// only runtime values of the IL.
func (v Any) IsConstant() bool {
	_, isParam := v.Data.(*Parameter)
	return !isParam && !v.IsEmpty()
}

// StaticType is the type the value has when passed as an argument: the
// declared type for parameters, the tag otherwise.
func (v Any) StaticType() types.Type {
	if p, ok := v.Param(); ok {
		return p.Type
	}
	return v.Type
}

// Key returns a bit-exact structural key suitable for memoization.
func (v Any) Key() string {
	if v.IsEmpty() {
		return "<empty>"
	}
	switch d := v.Data.(type) {
	case nil:
		return v.Type.Mangle()
	case bool:
		return strconv.FormatBool(d)
	case int64:
		return v.Type.Mangle() + ":" + strconv.FormatInt(d, 10)
	case float64:
		return v.Type.Mangle() + ":" + strconv.FormatUint(math.Float64bits(d), 16)
	case string:
		return strconv.Quote(d)
	case Symbol:
		return "'" + string(d)
	case types.Type:
		return "T:" + d.Mangle()
	case Builtin:
		return "!" + d.String()
	case token.Anchor:
		return "A:" + d.String()
	case *Label:
		return "@" + strconv.FormatUint(d.UID, 10)
	case *Parameter:
		return "%" + strconv.FormatUint(d.UID, 10)
	case *Closure:
		return "C" + strconv.FormatUint(d.UID, 10)
	case *Frame:
		return "F" + strconv.FormatUint(d.UID, 10)
	case *Env:
		return "S" + strconv.FormatUint(d.UID, 10)
	case *List:
		var sb strings.Builder
		sb.WriteString("[")
		for i, e := range d.Values() {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(e.Key())
		}
		sb.WriteString("]")
		return sb.String()
	default:
		panic(fmt.Sprintf("Key: unhandled payload %T", d))
	}
}

// Equal compares two values by tag and payload; graph nodes compare by
// identity.
func (v Any) Equal(o Any) bool {
	if v.Type != o.Type {
		return false
	}
	return v.Key() == o.Key()
}

func (v Any) String() string {
	if v.IsEmpty() {
		return "<empty>"
	}
	switch d := v.Data.(type) {
	case nil:
		if v.IsNone() {
			return "none"
		}
		return v.Type.String()
	case bool:
		return strconv.FormatBool(d)
	case int64:
		it := v.Type.(types.Int)
		s := strconv.FormatInt(d, 10)
		if !it.Signed {
			s = strconv.FormatUint(uint64(d), 10)
		}
		if v.Type != types.I32 {
			s += ":" + v.Type.String()
		}
		return s
	case float64:
		s := strconv.FormatFloat(d, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		if v.Type != types.F64 {
			s += ":" + v.Type.String()
		}
		return s
	case string:
		return strconv.Quote(d)
	case Symbol:
		return "'" + string(d)
	case types.Type:
		return d.String()
	case Builtin:
		return d.String()
	case token.Anchor:
		return d.String()
	case *Label:
		return d.String()
	case *Parameter:
		return d.String()
	case *Closure:
		return "closure(" + d.Label.String() + ")"
	case *Frame:
		return fmt.Sprintf("frame(%s)", d.Label)
	case *Env:
		return fmt.Sprintf("scope#%d", d.UID)
	case *List:
		var sb strings.Builder
		sb.WriteString("[")
		for i, e := range d.Values() {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(e.String())
		}
		sb.WriteString("]")
		return sb.String()
	default:
		return fmt.Sprintf("%v", d)
	}
}
