// Package asm loads label graphs from textual IL:
//
//	(label NAME (PARAMS...) (ENTER ARGS...))
//
// Parameters are written name, name:type or name... for a vararg. Nested
// labels are written (fn [NAME] (PARAMS...) (ENTER ARGS...)) in operand
// position and close over the parameters of every enclosing label.
package asm

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/lexer"
	"github.com/thiremani/corvid/parser"
	"github.com/thiremani/corvid/syntax"
	"github.com/thiremani/corvid/token"
	"github.com/thiremani/corvid/types"
)

// Module is the set of top-level labels of one source.
type Module struct {
	Path   string
	Labels []*il.Label
	byName map[string]*il.Label
}

// Lookup returns the top-level label called name.
func (m *Module) Lookup(name string) (*il.Label, bool) {
	l, ok := m.byName[name]
	return l, ok
}

// ErrorList collects every error found in one source.
type ErrorList []*token.CompileError

func (el ErrorList) Error() string {
	msgs := make([]string, len(el))
	for i, e := range el {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// LoadFile reads and loads the textual IL at path.
func LoadFile(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Load(path, string(src))
}

// Load parses src and builds its label graphs. Top-level labels may refer
// to each other regardless of order.
func Load(path, src string) (*Module, error) {
	p := parser.New(lexer.New(path, src))
	forms := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, ErrorList(errs)
	}

	ld := &loader{
		mod:    &Module{Path: path, byName: make(map[string]*il.Label)},
		scopes: []Scope[il.Any]{NewScope[il.Any](ModuleScope)},
	}
	var defs []*labelDef
	for _, form := range forms {
		if def := ld.declare(form); def != nil {
			defs = append(defs, def)
		}
	}
	for _, def := range defs {
		ld.define(def)
	}
	if len(ld.errors) > 0 {
		return nil, ld.errors
	}
	return ld.mod, nil
}

type loader struct {
	mod    *Module
	scopes []Scope[il.Any]
	errors ErrorList
}

// labelDef is a declared label waiting for its body.
type labelDef struct {
	label *il.Label
	body  *syntax.Syntax
}

func (ld *loader) errorf(anchor token.Anchor, format string, args ...any) {
	ld.errors = append(ld.errors, token.Errorf(anchor, token.Syntax, format, args...))
}

func (ld *loader) declare(form *syntax.Syntax) *labelDef {
	if head, ok := form.Head(); !ok || head != "label" {
		ld.errorf(form.Anchor, "expected (label NAME (PARAMS...) BODY), got %s", form)
		return nil
	}
	if len(form.Items) != 4 || form.Items[1].Kind != syntax.Ident {
		ld.errorf(form.Anchor, "malformed label form %s", form)
		return nil
	}
	name := form.Items[1].Name
	l := il.NewLabel(form.Anchor, name)
	if !ld.params(l, form.Items[2]) {
		return nil
	}
	if !Put(ld.scopes, name, il.LabelValue(l)) {
		ld.errorf(form.Anchor, "label %s is already defined", name)
		return nil
	}
	ld.mod.Labels = append(ld.mod.Labels, l)
	ld.mod.byName[name] = l
	return &labelDef{label: l, body: form.Items[3]}
}

func (ld *loader) define(def *labelDef) {
	PushScope(&ld.scopes, FnScope)
	defer PopScope(&ld.scopes)
	for _, p := range def.label.Params {
		if !Put(ld.scopes, p.Name, il.ParamValue(p)) {
			ld.errorf(p.Anchor, "duplicate parameter %s", p.Name)
		}
	}
	ld.body(def.label, def.body)
}

// params parses a parameter list and appends it to l.
func (ld *loader) params(l *il.Label, list *syntax.Syntax) bool {
	if list.Kind != syntax.List {
		ld.errorf(list.Anchor, "expected a parameter list, got %s", list)
		return false
	}
	for i, item := range list.Items {
		if item.Kind != syntax.Ident {
			ld.errorf(item.Anchor, "expected a parameter name, got %s", item)
			return false
		}
		name, t := item.Name, types.Type(types.Any)
		if j := strings.IndexByte(name, ':'); j >= 0 {
			var ok bool
			if t, ok = types.LookupName(name[j+1:]); !ok {
				ld.errorf(item.Anchor, "unknown type %q for parameter %s", name[j+1:], name[:j])
				return false
			}
			name = name[:j]
		}
		vararg := strings.HasSuffix(name, "...")
		name = strings.TrimSuffix(name, "...")
		if vararg && i != len(list.Items)-1 {
			ld.errorf(item.Anchor, "vararg parameter %s must come last", name)
			return false
		}
		if vararg {
			l.Append(il.NewVarargParameter(item.Anchor, name, t))
			continue
		}
		l.Append(il.NewParameter(item.Anchor, name, t))
	}
	return true
}

func (ld *loader) body(l *il.Label, form *syntax.Syntax) {
	if form.Kind != syntax.List || len(form.Items) < 2 {
		ld.errorf(form.Anchor, "body of %s must be (ENTER CONT ARGS...), got %s", l.Name, form)
		return
	}
	enter, ok := ld.operand(form.Items[0])
	if !ok {
		return
	}
	args := make([]il.Any, 0, len(form.Items)-1)
	for _, item := range form.Items[1:] {
		v, ok := ld.operand(item)
		if !ok {
			return
		}
		args = append(args, v)
	}
	l.SetBody(form.Anchor, enter, args)
}

func (ld *loader) operand(s *syntax.Syntax) (il.Any, bool) {
	switch s.Kind {
	case syntax.Atom:
		return s.Datum, true
	case syntax.Ident:
		return ld.resolve(s)
	case syntax.Vector:
		vals := make([]il.Any, len(s.Items))
		for i, item := range s.Items {
			v, ok := ld.operand(item)
			if !ok {
				return il.Any{}, false
			}
			if !v.IsConstant() {
				ld.errorf(item.Anchor, "list literal element %s is not a constant", item)
				return il.Any{}, false
			}
			vals[i] = v
		}
		return il.ListValue(il.NewList(vals...)), true
	}
	if head, ok := s.Head(); ok && head == "fn" {
		return ld.fn(s)
	}
	ld.errorf(s.Anchor, "nested call %s must be wrapped in (fn (PARAMS...) BODY)", s)
	return il.Any{}, false
}

// fn builds a nested label closing over the enclosing scopes.
func (ld *loader) fn(s *syntax.Syntax) (il.Any, bool) {
	items := s.Items[1:]
	name := ""
	if len(items) == 3 && items[0].Kind == syntax.Ident {
		name, items = items[0].Name, items[1:]
	}
	if len(items) != 2 {
		ld.errorf(s.Anchor, "malformed fn form %s", s)
		return il.Any{}, false
	}

	l := il.NewLabel(s.Anchor, name)
	if !ld.params(l, items[0]) {
		return il.Any{}, false
	}
	PushScope(&ld.scopes, FnScope)
	defer PopScope(&ld.scopes)
	if name != "" {
		Put(ld.scopes, name, il.LabelValue(l))
	}
	for _, p := range l.Params {
		if !Put(ld.scopes, p.Name, il.ParamValue(p)) {
			ld.errorf(p.Anchor, "duplicate parameter %s", p.Name)
		}
	}
	ld.body(l, items[1])
	return il.LabelValue(l), true
}

func (ld *loader) resolve(s *syntax.Syntax) (il.Any, bool) {
	if v, ok := Get(ld.scopes, s.Name); ok {
		return v, true
	}
	switch s.Name {
	case "none":
		return il.None, true
	case "true":
		return il.Bool(true), true
	case "false":
		return il.Bool(false), true
	}
	if b, ok := il.LookupBuiltin(s.Name); ok {
		return il.BuiltinValue(b), true
	}
	if t, ok := types.LookupName(s.Name); ok {
		return il.TypeValue(t), true
	}
	ld.errorf(s.Anchor, "undefined name %s", s.Name)
	return il.Any{}, false
}

// Constant parses text as a single constant operand, such as a command line
// argument. Labels and parameters are not allowed.
func Constant(text string) (il.Any, error) {
	p := parser.New(lexer.New("<arg>", text))
	forms := p.Parse()
	if errs := p.Errors(); len(errs) > 0 {
		return il.Any{}, ErrorList(errs)
	}
	if len(forms) != 1 {
		return il.Any{}, token.Errorf(token.Anchor{Path: "<arg>"}, token.Syntax, "expected one value, got %d in %q", len(forms), text)
	}

	ld := &loader{scopes: []Scope[il.Any]{NewScope[il.Any](ModuleScope)}}
	v, ok := ld.operand(forms[0])
	if !ok {
		return il.Any{}, ld.errors
	}
	if _, isLabel := v.Label(); isLabel || !v.IsConstant() {
		return il.Any{}, token.Errorf(forms[0].Anchor, token.Syntax, "%s is not a constant", forms[0])
	}
	return v, nil
}
