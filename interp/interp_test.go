package interp

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/corvid/asm"
	"github.com/thiremani/corvid/compiler"
	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func load(t *testing.T, src string) *asm.Module {
	t.Helper()
	mod, err := asm.Load("test.cvil", src)
	require.NoError(t, err)
	return mod
}

func entry(t *testing.T, mod *asm.Module, name string) *il.Label {
	t.Helper()
	l, ok := mod.Lookup(name)
	require.True(t, ok, "label %s not found", name)
	return l
}

func run(t *testing.T, src string, args ...il.Any) []il.Any {
	t.Helper()
	in := New(discard, io.Discard)
	in.MaxSteps = 100000
	results, err := in.Run(entry(t, load(t, src), "main"), args...)
	require.NoError(t, err)
	return results
}

func runErr(t *testing.T, src string) *token.CompileError {
	t.Helper()
	in := New(discard, io.Discard)
	in.MaxSteps = 1000
	_, err := in.Run(entry(t, load(t, src), "main"))
	require.Error(t, err)
	var ce *token.CompileError
	require.ErrorAs(t, err, &ce)
	return ce
}

const doubleSrc = `
(label main (ret) (double ret 21))
(label double (ret x) (add ret x x))
`

const factSrc = `
(label main (ret n:i32) (fact ret n))
(label fact (ret n:i32)
  (le (fn (_ c)
        (branch ret c
          (fn (r) (r none 1))
          (fn (r) (sub (fn (_ m) (fact (fn (_ f) (mul r f n)) m)) n 1))))
      n 1))
`

func TestRunDouble(t *testing.T) {
	results := run(t, doubleSrc)
	require.Len(t, results, 1)
	assert.True(t, results[0].Equal(il.I32(42)), "got %s", results[0])
}

func TestRunNormalized(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []il.Any
		want il.Any
	}{
		{"double", doubleSrc, nil, il.I32(42)},
		{"fact", factSrc, []il.Any{il.I32(5)}, il.I32(120)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			main := entry(t, load(t, tt.src), "main")
			require.NoError(t, compiler.NewNormalizer(discard).Normalize(main))

			results, err := New(discard, io.Discard).Run(main, tt.args...)
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.True(t, tt.want.Equal(results[0]), "want %s, got %s", tt.want, results[0])
		})
	}
}

func TestRunRecursion(t *testing.T) {
	results := run(t, factSrc, il.I32(10))
	require.Len(t, results, 1)
	assert.Equal(t, int64(3628800), results[0].Int())
}

func TestVarargCapture(t *testing.T) {
	const src = `
(label main (ret xs...) (collect ret xs))
(label collect (ret a xs...) (ret none xs))
`
	tests := []struct {
		name string
		args []il.Any
		want int
	}{
		{"none", nil, 0},
		{"fixed only", []il.Any{il.I32(1)}, 0},
		{"one extra", []il.Any{il.I32(1), il.I32(2)}, 1},
		{"three extra", []il.Any{il.I32(1), il.I32(2), il.I32(3), il.I32(4)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := run(t, src, tt.args...)
			require.Len(t, results, tt.want)
			for i, r := range results {
				assert.True(t, r.Equal(tt.args[i+1]))
			}
		})
	}
}

func TestVarargOutsideTail(t *testing.T) {
	const src = `(label main (ret xs...) (ret none xs 9))`

	results := run(t, src, il.I32(5), il.I32(6))
	require.Len(t, results, 2)
	assert.True(t, results[0].Equal(il.I32(5)))
	assert.True(t, results[1].Equal(il.I32(9)))

	results = run(t, src)
	require.Len(t, results, 2)
	assert.True(t, results[0].IsNone())
}

func TestMissingArgumentIsNone(t *testing.T) {
	results := run(t, "(label main (ret) (f ret))\n(label f (ret x) (ret none x))")
	require.Len(t, results, 1)
	assert.True(t, results[0].IsNone())
}

func TestFrameTruncation(t *testing.T) {
	const src = `
(label main (ret n) (loop ret n))
(label loop (ret n)
  (ffi-call
    (fn (_ v)
      (le (fn (_ c)
            (branch ret c
              (fn (r) (r none n))
              (fn (r) (sub (fn (_ m) (loop r m)) n 1))))
          n 0))
    'inspect (fn (_) (ret none))))
`
	mod := load(t, src)
	loop := entry(t, mod, "loop")

	calls, most := 0, 0
	in := New(discard, io.Discard)
	in.RegisterForeign("inspect", func(args []il.Any) ([]il.Any, error) {
		c, ok := args[0].Closure()
		if !ok {
			return nil, errors.New("inspect expects a closure")
		}
		calls++
		most = max(most, c.Frame.Count(loop))
		return nil, nil
	})

	results, err := in.Run(entry(t, mod, "main"), il.I32(200))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(0), results[0].Int())
	assert.Equal(t, 201, calls)
	assert.Equal(t, 1, most)
}

func TestBranchWithoutParameters(t *testing.T) {
	results := run(t, `(label main (ret) (branch ret false (fn () (ret none 1)) (fn () (ret none 2))))`)
	require.Len(t, results, 1)
	assert.True(t, results[0].Equal(il.I32(2)))
}

func TestExceptionHandler(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"raise", `(raise (fn (_ v) (ret none "unreachable")) "boom")`, "boom"},
		{"raise symbol", `(raise none 'oops)`, "'oops"},
		{"builtin error", `(add (fn (_ v) (ret none "unreachable")) 1 "a")`, `add: operand types i32 and string differ`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := `
(label main (ret)
  (set-exception-handler
    (fn (_) ` + tt.body + `)
    (fn (k anchor msg) (ret none anchor msg))))
`
			results := run(t, src)
			require.Len(t, results, 2)
			assert.Equal(t, types.Anchor, results[0].Type)
			assert.Equal(t, tt.want, results[1].Str())
		})
	}
}

func TestHandlerRaising(t *testing.T) {
	ce := runErr(t, `
(label main (ret)
  (set-exception-handler
    (fn (_) (raise none "boom"))
    (fn (k a m) (raise none "again"))))
`)
	assert.Equal(t, token.Runtime, ce.Kind)
	assert.Equal(t, "again", ce.Msg)
}

func TestHandlerReinstalls(t *testing.T) {
	results := run(t, `
(label main (ret)
  (set-exception-handler
    (fn (_) (raise (fn (_ v) (raise (fn (_ w) (ret none v w)) "second")) "first"))
    (fn h (k a m) (set-exception-handler (fn (_) (k none m)) h))))
`)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Str())
	assert.Equal(t, "second", results[1].Str())
}

func TestGetExceptionHandler(t *testing.T) {
	results := run(t, `(label main (ret) (get-exception-handler ret))`)
	require.Len(t, results, 1)
	assert.True(t, results[0].IsNone())

	results = run(t, `
(label main (ret)
  (set-exception-handler (fn (_) (get-exception-handler ret)) (fn (k a m) (ret none))))
`)
	require.Len(t, results, 1)
	_, ok := results[0].Closure()
	assert.True(t, ok)
}

func TestForeignCall(t *testing.T) {
	in := New(discard, io.Discard)
	in.RegisterForeign("sum", func(args []il.Any) ([]il.Any, error) {
		var total int64
		for _, a := range args {
			total += a.Int()
		}
		return []il.Any{il.I64(total)}, nil
	})
	in.RegisterForeign("fail", func([]il.Any) ([]il.Any, error) {
		return nil, errors.New("no luck")
	})

	mod := load(t, `
(label main (ret) (ffi-call ret 'sum 1 2 3))
(label named (ret) (ffi-call ret "sum" 4))
(label missing (ret) (ffi-call ret 'nope))
(label failing (ret) (ffi-call ret 'fail))
`)
	results, err := in.Run(entry(t, mod, "main"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Equal(il.I64(6)))

	results, err = in.Run(entry(t, mod, "named"))
	require.NoError(t, err)
	assert.True(t, results[0].Equal(il.I64(4)))

	_, err = in.Run(entry(t, mod, "missing"))
	var ce *token.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, token.Structural, ce.Kind)

	_, err = in.Run(entry(t, mod, "failing"))
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, token.Runtime, ce.Kind)
	assert.Contains(t, ce.Msg, "no luck")
}

func TestPrint(t *testing.T) {
	var out bytes.Buffer
	in := New(discard, &out)
	mod := load(t, `(label main (ret) (print (fn (_) (ret none)) "hi" 1 'x))`)
	_, err := in.Run(entry(t, mod, "main"))
	require.NoError(t, err)
	assert.Equal(t, "hi 1 'x\n", out.String())
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind token.ErrorKind
	}{
		{"unhandled raise", `(label main (ret) (raise ret "boom"))`, token.Runtime},
		{"too many arguments", "(label main (ret) (f ret 1 2))\n(label f (ret x) (ret none x))", token.Arity},
		{"builtin arity", `(label main (ret) (not ret))`, token.Arity},
		{"non-bool branch", `(label main (ret) (branch ret 1 (fn (r) (r none)) (fn (r) (r none))))`, token.TypeMismatch},
		{"call a constant", `(label main (ret) (1 ret))`, token.Structural},
		{"bad handler", `(label main (ret) (set-exception-handler ret 1))`, token.TypeMismatch},
		{"step limit", "(label main (ret) (spin ret))\n(label spin (ret) (spin ret))", token.Runtime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := runErr(t, tt.src)
			assert.Equal(t, tt.kind, ce.Kind, "%v", ce)
		})
	}
}
