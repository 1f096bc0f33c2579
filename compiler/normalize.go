package compiler

import (
	"log/slog"

	"github.com/thiremani/corvid/builtin"
	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

const (
	DefaultMaxDepth  = 512
	DefaultMaxPasses = 100

	// bound on in-place rewrites of a single body
	maxRestarts = 1 << 16
)

type memoKey struct {
	label *il.Label
	key   string
}

type instanceKey struct {
	label *il.Label
	sig   *types.TypedLabel
}

// callSite is a call whose continuation was typed from an instance's return
// type. Sites are revisited until return types stop changing.
type callSite struct {
	site *il.Label
	inst *il.Label
	cont il.Any
	seen types.Type
}

// Normalizer specializes untyped label graphs into typed, monomorphic ones.
// A Normalizer holds the memo tables of one run; graphs normalized by the
// same Normalizer share specializations.
type Normalizer struct {
	Logger    *slog.Logger
	MaxDepth  int
	MaxPasses int

	branchConts map[memoKey]*il.Label     // (arm, continuation) -> inlined arm
	inlinedArgs map[memoKey]*il.Label     // (callee, constant args) -> inlined callee
	instances   map[instanceKey]*il.Label // (label, signature) -> instance
	order       []*il.Label

	done       map[*il.Label]bool
	inProgress map[*il.Label]bool
	sites      []*callSite
	depth      int
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		Logger:      logger,
		MaxDepth:    DefaultMaxDepth,
		MaxPasses:   DefaultMaxPasses,
		branchConts: make(map[memoKey]*il.Label),
		inlinedArgs: make(map[memoKey]*il.Label),
		instances:   make(map[instanceKey]*il.Label),
		done:        make(map[*il.Label]bool),
		inProgress:  make(map[*il.Label]bool),
	}
}

// Instances returns every typified label in creation order.
func (n *Normalizer) Instances() []*il.Label {
	return append([]*il.Label(nil), n.order...)
}

// Normalize rewrites entry's body in place, specializing everything it
// calls, then revisits call sites until every return type is settled.
func (n *Normalizer) Normalize(entry *il.Label) error {
	if err := n.normalize(entry); err != nil {
		return err
	}
	return n.resolve()
}

func (n *Normalizer) normalize(l *il.Label) error {
	if n.done[l] {
		return nil
	}
	n.done[l] = true

	n.depth++
	defer func() { n.depth-- }()
	if n.depth > n.MaxDepth {
		return token.Errorf(l.Anchor, token.Specialization, "specialization depth limit exceeded (%d) while normalizing %s", n.MaxDepth, l)
	}

	n.inProgress[l] = true
	defer delete(n.inProgress, l)

	for range maxRestarts {
		body := l.Body()
		if body.IsEmpty() || len(body.Args) == 0 {
			return token.Errorf(l.Anchor, token.Structural, "label %s has no body", l)
		}
		restart, err := n.step(l, body)
		if err != nil {
			return err
		}
		if !restart {
			return nil
		}
	}
	return token.Errorf(l.Anchor, token.Specialization, "normalizing %s is not converging", l)
}

// step rewrites one instruction. It reports whether l's body was replaced
// by a new body that needs another step.
func (n *Normalizer) step(l *il.Label, body il.Body) (bool, error) {
	switch enter := body.Enter.Data.(type) {
	case il.Builtin:
		return n.builtin(l, body, enter)
	case *il.Label:
		return n.apply(l, body, false)
	case *il.Parameter:
		if !enter.IsContinuation() {
			return false, token.Errorf(body.Anchor, token.Specialization, "cannot call parameter %s of unknown value", enter)
		}
		sig := signature(body.Args[1:])
		n.Logger.Debug("return", "label", l.String(), "cont", enter.String(), "sig", sig.String())
		n.typeParam(enter, sig)
		return false, nil
	}
	return false, token.Errorf(body.Anchor, token.Structural, "cannot call %s", body.Enter)
}

func (n *Normalizer) builtin(l *il.Label, body il.Body, op il.Builtin) (bool, error) {
	if op == il.Branch {
		return n.branch(l, body)
	}
	def := builtin.Lookup(op)
	operands := body.Args[1:]

	if def.Pure && allConstant(operands) {
		vals, err := builtin.Apply(&builtin.Call{Anchor: body.Anchor, Op: op, Args: operands})
		if err != nil {
			return false, err
		}
		n.Logger.Debug("fold", "label", l.String(), "op", op.String(), "result", vals)
		l.SetBody(body.Anchor, body.Args[0], append([]il.Any{il.None}, vals...))
		return true, nil
	}

	results, err := builtin.ResultTypes(op, body.Anchor, staticTypes(operands))
	if err != nil {
		return false, err
	}
	if def.NoReturn {
		return false, nil
	}
	sig := types.NewTypedLabel(append([]types.Type{types.Nothing}, results...)...)
	return false, n.typeContinuation(l, body.Args[0], sig)
}

// branch handles (branch cont cond then else). A literal condition inlines
// the chosen arm in place; otherwise both arms are specialized for cont.
func (n *Normalizer) branch(l *il.Label, body il.Body) (bool, error) {
	if err := builtin.Lookup(il.Branch).CheckArity(body.Anchor, len(body.Args)-1); err != nil {
		return false, err
	}
	cont, cond := body.Args[0], body.Args[1]

	if cond.IsConstant() {
		if cond.Type != types.Bool {
			return false, token.Errorf(body.Anchor, token.TypeMismatch, "branch condition must be bool, got %s", cond.Type)
		}
		arm := body.Args[3]
		if cond.Bool() {
			arm = body.Args[2]
		}
		inl, err := n.inlineBranch(body.Anchor, arm, cont)
		if err != nil {
			return false, err
		}
		n.Logger.Debug("fold branch", "label", l.String(), "cond", cond.Bool())
		b := inl.Body()
		if b.IsEmpty() {
			return false, token.Errorf(inl.Anchor, token.Structural, "branch arm %s has no body", inl)
		}
		l.SetBody(b.Anchor, b.Enter, b.Args)
		return true, nil
	}

	if t := cond.StaticType(); t != types.Bool && t != types.Any {
		return false, token.Errorf(body.Anchor, token.TypeMismatch, "branch condition must be bool, got %s", t)
	}
	arms := make([]il.Any, 2)
	for i, arm := range body.Args[2:] {
		inl, err := n.inlineBranch(body.Anchor, arm, cont)
		if err != nil {
			return false, err
		}
		if err := n.normalize(inl); err != nil {
			return false, err
		}
		arms[i] = il.LabelValue(inl)
	}
	l.SetBody(body.Anchor, body.Enter, []il.Any{il.None, cond, arms[0], arms[1]})
	return false, nil
}

// inlineBranch returns arm with its continuation parameter bound to cont.
func (n *Normalizer) inlineBranch(anchor token.Anchor, arm, cont il.Any) (*il.Label, error) {
	al, ok := arm.Label()
	if !ok {
		return nil, token.Errorf(anchor, token.Structural, "branch arm must be a label, got %s", arm)
	}
	key := memoKey{al, cont.Key()}
	if inl, ok := n.branchConts[key]; ok {
		return inl, nil
	}
	if len(al.Params) == 0 {
		n.branchConts[key] = al
		return al, nil
	}

	ret := al.Params[0]
	m := MangleMap{ret: {cont}}
	params := []*il.Parameter{il.NewParameter(ret.Anchor, ret.Name, types.Nothing)}
	for _, p := range al.Params[1:] {
		c := p.Clone()
		params = append(params, c)
		m[p] = []il.Any{il.ParamValue(c)}
	}
	inl := Mangle(al, params, m)
	n.branchConts[key] = inl
	return inl, nil
}

func allConstant(vals []il.Any) bool {
	for _, v := range vals {
		if !v.IsConstant() {
			return false
		}
	}
	return true
}

func staticTypes(vals []il.Any) []types.Type {
	ts := make([]types.Type, len(vals))
	for i, v := range vals {
		ts[i] = v.StaticType()
	}
	return ts
}

// signature is the type of a continuation receiving vals.
func signature(vals []il.Any) *types.TypedLabel {
	return types.NewTypedLabel(append([]types.Type{types.Nothing}, staticTypes(vals)...)...)
}
