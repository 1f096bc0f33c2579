package compiler

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gotest.tools/v3/golden"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func normalizeMain(t *testing.T, src string) (*il.Label, *Normalizer) {
	t.Helper()
	main := mustLookup(t, mustLoad(t, src), "main")
	n := newTestNormalizer()
	require.NoError(t, n.Normalize(main))
	require.NoError(t, il.VerifyUsers(main))
	return main, n
}

func TestNormalizeGolden(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.cvil"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".cvil")
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(file)
			require.NoError(t, err)
			main, _ := normalizeMain(t, string(src))
			golden.Assert(t, il.Dump(main), name+".golden")
		})
	}
}

func TestNormalizeDropsUntakenArm(t *testing.T) {
	main, _ := normalizeMain(t, `
(label main (ret)
  (branch ret false
    (fn then (r) (r none 1))
    (fn else (r) (r none "no"))))
`)
	for _, l := range il.Reachable(main) {
		assert.NotEqual(t, "then", l.Name)
	}
	assert.Equal(t, types.NewTypedLabel(types.Nothing, types.String), main.Params[0].Type)
}

func TestNormalizeDynamicBranch(t *testing.T) {
	main, _ := normalizeMain(t, `
(label main (ret c:bool)
  (branch ret c
    (fn (r) (r none 1))
    (fn (r) (r none 2))))
`)
	body := main.Body()
	op, ok := body.Enter.Builtin()
	require.True(t, ok)
	assert.Equal(t, il.Branch, op)
	assert.True(t, body.Args[0].IsNone())

	// both arms return straight to ret
	for _, arm := range body.Args[2:] {
		l, ok := arm.Label()
		require.True(t, ok)
		p, ok := l.Body().Enter.Param()
		require.True(t, ok)
		assert.Same(t, main.Params[0], p)
	}
	assert.Equal(t, types.NewTypedLabel(types.Nothing, types.I32), main.Params[0].Type)
}

func TestNormalizeUnionReturn(t *testing.T) {
	main, _ := normalizeMain(t, `
(label main (ret c:bool)
  (branch ret c
    (fn (r) (r none 1))
    (fn (r) (r none 1.5))))
`)
	want := types.NewTypeSet(
		types.NewTypedLabel(types.Nothing, types.I32),
		types.NewTypedLabel(types.Nothing, types.F64),
	)
	assert.Equal(t, want, main.Params[0].Type)
}

func TestNormalizeUnionKeepsMembers(t *testing.T) {
	main, _ := normalizeMain(t, `
(label main (ret c:bool d:bool)
  (branch ret c
    (fn (r) (r none 1))
    (fn (r) (branch r d (fn (s) (s none 1.5)) (fn (s) (s none 2))))))
`)
	want := types.NewTypeSet(
		types.NewTypedLabel(types.Nothing, types.I32),
		types.NewTypedLabel(types.Nothing, types.F64),
	)
	assert.Equal(t, want, main.Params[0].Type)
}

func TestNormalizeRecursion(t *testing.T) {
	main, n := normalizeMain(t, `
(label main (ret n:i32) (fact ret n))
(label fact (ret n:i32)
  (le (fn (_ c)
        (branch ret c
          (fn (r) (r none 1))
          (fn (r) (sub (fn (_ m) (fact (fn (_ f) (mul r f n)) m)) n 1))))
      n 1))
`)
	assert.Equal(t, types.NewTypedLabel(types.Nothing, types.I32), main.Params[0].Type)

	var facts []*il.Label
	for _, inst := range n.Instances() {
		if inst.Name == "fact" {
			facts = append(facts, inst)
		}
	}
	require.Len(t, facts, 1)
	fact := facts[0]
	assert.Equal(t, types.I32, fact.Params[1].Type)

	enter, ok := main.Body().Enter.Label()
	require.True(t, ok)
	assert.Same(t, fact, enter)
	// main plus the recursive call site
	assert.Len(t, fact.Users(), 2)
}

func TestNormalizeBacktracksFirstOrderReturn(t *testing.T) {
	main, _ := normalizeMain(t, `
(label main (ret x) (get (fn (_ s) (ret none s)) x))
(label get (ret x) (ret none 'sym))
`)
	assert.Equal(t, types.NewTypedLabel(types.Nothing, types.Symbol), main.Params[0].Type)
	assert.Contains(t, il.Dump(main), "(ret none 'sym)")
}

func TestNormalizeUnionIntoLabelContinuation(t *testing.T) {
	main, _ := normalizeMain(t, `
(label main (ret c:bool) (pick (fn (_ v) (ret none v)) c))
(label pick (k c:bool)
  (branch k c
    (fn (r) (r none 1))
    (fn (r) (r none 1.5))))
`)
	want := types.NewTypeSet(
		types.NewTypedLabel(types.Nothing, types.I32),
		types.NewTypedLabel(types.Nothing, types.F64),
	)
	assert.Equal(t, want, main.Params[0].Type)
	dump := il.Dump(main)
	assert.Contains(t, dump, "(ret none 1)")
	assert.Contains(t, dump, "(ret none 1.5)")
}

const countdownSrc = `
(label main (ret n:i32) (count ret n))
(label count (ret n:i32)
  (gt (fn (_ c)
        (branch ret c
          (fn (r) (sub (fn (_ m) (count r m)) n 1))
          (fn (r) (r none 0))))
      n 0))
`

func TestNormalizePendingReturnType(t *testing.T) {
	// the recursive call is reached before the base case types the return
	main, _ := normalizeMain(t, countdownSrc)
	assert.Equal(t, types.NewTypedLabel(types.Nothing, types.I32), main.Params[0].Type)

	main = mustLookup(t, mustLoad(t, countdownSrc), "main")
	n := newTestNormalizer()
	n.MaxPasses = 1
	err := n.Normalize(main)
	var ce *token.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, token.Specialization, ce.Kind)
	assert.Contains(t, ce.Msg, "not converging")
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind token.ErrorKind
	}{
		{
			name: "operand mismatch",
			src:  `(label main (ret) (add ret 1 "a"))`,
			kind: token.TypeMismatch,
		},
		{
			name: "non-bool condition",
			src:  `(label main (ret) (branch ret 1 (fn (r) (r none)) (fn (r) (r none))))`,
			kind: token.TypeMismatch,
		},
		{
			name: "parameter type",
			src:  "(label main (ret) (f ret \"s\"))\n(label f (ret x:i32) (ret none x))",
			kind: token.TypeMismatch,
		},
		{
			name: "too many arguments",
			src:  "(label main (ret) (f ret 1 2))\n(label f (ret x) (ret none x))",
			kind: token.Arity,
		},
		{
			name: "builtin arity",
			src:  `(label main (ret) (not ret true false))`,
			kind: token.Arity,
		},
		{
			name: "unknown callee",
			src:  `(label main (ret f) (f ret 1))`,
			kind: token.Specialization,
		},
		{
			name: "constant callee",
			src:  `(label main (ret) (1 ret))`,
			kind: token.Structural,
		},
		{
			name: "unbounded specialization",
			src: `
(label main (ret) (loop ret 0))
(label loop (ret n) (add (fn (_ m) (loop ret m)) n 1))
`,
			kind: token.Specialization,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			main := mustLookup(t, mustLoad(t, tt.src), "main")
			n := newTestNormalizer()
			n.MaxDepth = 32
			err := n.Normalize(main)
			require.Error(t, err)
			var ce *token.CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.kind, ce.Kind, "%v", err)
		})
	}
}

func TestTypifyMemo(t *testing.T) {
	mod := mustLoad(t, `(label double (ret x:i32) (add ret x x))`)
	double := mustLookup(t, mod, "double")
	n := newTestNormalizer()

	sig := []types.Type{types.Nothing, types.I32}
	inst, err := n.Typify(double, sig)
	require.NoError(t, err)
	again, err := n.Typify(double, sig)
	require.NoError(t, err)
	assert.Same(t, inst, again)

	self, err := n.Typify(inst, sig)
	require.NoError(t, err)
	assert.Same(t, inst, self)

	assert.Equal(t, types.NewTypedLabel(types.Nothing, types.I32), inst.ReturnType())
	assert.Equal(t, []*il.Label{inst}, n.Instances())

	// an untyped argument takes the declared type
	loose, err := n.Typify(double, []types.Type{types.Nothing, types.Any})
	require.NoError(t, err)
	assert.Equal(t, types.I32, loose.Params[1].Type)
}

func TestTypifyVararg(t *testing.T) {
	mod := mustLoad(t, `(label pack (ret xs...) (ret none xs))`)
	pack := mustLookup(t, mod, "pack")
	n := newTestNormalizer()

	inst, err := n.Typify(pack, []types.Type{types.Nothing, types.I32, types.I64})
	require.NoError(t, err)
	require.Len(t, inst.Params, 3)
	assert.Equal(t, "xs0", inst.Params[1].Name)
	assert.Equal(t, "xs1", inst.Params[2].Name)
	assert.False(t, inst.Params[2].Vararg)
	assert.Equal(t, types.NewTypedLabel(types.Nothing, types.I32, types.I64), inst.ReturnType())
}

func TestTypifyErrors(t *testing.T) {
	mod := mustLoad(t, `(label double (ret x:i32) (add ret x x))`)
	double := mustLookup(t, mod, "double")
	n := newTestNormalizer()

	_, err := n.Typify(double, []types.Type{types.Nothing, types.String})
	var ce *token.CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, token.TypeMismatch, ce.Kind)

	_, err = n.Typify(double, []types.Type{types.Nothing, types.I32, types.I32})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, token.Arity, ce.Kind)
}
