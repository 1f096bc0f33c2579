package lower

import (
	"fmt"
	"strconv"
	"strings"

	"tinygo.org/x/go-llvm"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/types"
)

// Lowerer maps IL types to LLVM types and declares one function prototype
// per specialized label. An instance returns the values its continuation
// receives; parameters of type nothing carry no value and are dropped.
type Lowerer struct {
	Context llvm.Context
	Module  llvm.Module
	funcs   map[*il.Label]llvm.Value
	decls   []decl
}

// decl records the symbol a function was declared under before any
// uniquing suffix.
type decl struct {
	fn     llvm.Value
	symbol string
	args   []types.Type
}

// Signature is a declared function decoded from its symbol.
type Signature struct {
	Symbol string
	Label  string
	Args   []types.Type
}

func (s Signature) String() string {
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s %s(%s)", s.Symbol, s.Label, strings.Join(args, ","))
}

func NewLowerer(name string) *Lowerer {
	ctx := llvm.NewContext()
	return &Lowerer{
		Context: ctx,
		Module:  ctx.NewModule(name),
		funcs:   make(map[*il.Label]llvm.Value),
	}
}

// Dispose releases the module and its context.
func (lw *Lowerer) Dispose() {
	lw.Module.Dispose()
	lw.Context.Dispose()
}

// IR returns the textual LLVM module.
func (lw *Lowerer) IR() string {
	return lw.Module.String()
}

// Type returns the LLVM representation of a value of type t. A signature
// becomes a pointer to the function that receives it.
func (lw *Lowerer) Type(t types.Type) (llvm.Type, error) {
	switch tt := t.(type) {
	case types.Int:
		return lw.Context.IntType(int(tt.Width)), nil
	case types.Float:
		switch tt.Width {
		case 32:
			return lw.Context.FloatType(), nil
		case 64:
			return lw.Context.DoubleType(), nil
		}
	case types.Ptr:
		elem, err := lw.Type(tt.Elem)
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.PointerType(elem, 0), nil
	case *types.TypedLabel:
		ret, err := lw.results(tt.Results())
		if err != nil {
			return llvm.Type{}, err
		}
		return llvm.PointerType(llvm.FunctionType(ret, nil, false), 0), nil
	case *types.TypeSet:
		return lw.namedOpaquePtr("union" + tt.Mangle()), nil
	}
	switch t {
	case types.Bool:
		return lw.Context.Int1Type(), nil
	case types.Nothing:
		return lw.Context.VoidType(), nil
	}
	return llvm.Type{}, fmt.Errorf("type %s has no machine representation", t)
}

// returnType lowers the continuation type of a label.
func (lw *Lowerer) returnType(t types.Type) (llvm.Type, error) {
	switch tt := t.(type) {
	case *types.TypedLabel:
		return lw.results(tt.Results())
	case *types.TypeSet:
		// the caller dispatches on the tag
		return lw.namedOpaquePtr("union" + tt.Mangle()), nil
	}
	if t == types.Nothing {
		return lw.Context.VoidType(), nil
	}
	return llvm.Type{}, fmt.Errorf("continuation type %s has no machine representation", t)
}

// results packs several return values into an anonymous struct. Results of
// type nothing carry no value.
func (lw *Lowerer) results(all []types.Type) (llvm.Type, error) {
	var rs []types.Type
	for _, r := range all {
		if r != types.Nothing {
			rs = append(rs, r)
		}
	}
	switch len(rs) {
	case 0:
		return lw.Context.VoidType(), nil
	case 1:
		return lw.Type(rs[0])
	}
	fields := make([]llvm.Type, len(rs))
	for i, r := range rs {
		ft, err := lw.Type(r)
		if err != nil {
			return llvm.Type{}, err
		}
		fields[i] = ft
	}
	return lw.Context.StructType(fields, false), nil
}

func (lw *Lowerer) namedOpaquePtr(name string) llvm.Type {
	st := lw.Module.GetTypeByName(name)
	if st.IsNil() {
		st = lw.Context.StructCreateNamed(name)
	}
	return llvm.PointerType(st, 0)
}

// Declare adds the prototype of inst to the module, once. The function is
// named by the label name and its argument types; clones sharing both get
// "."+uid appended.
func (lw *Lowerer) Declare(inst *il.Label) (llvm.Value, error) {
	if fn, ok := lw.funcs[inst]; ok {
		return fn, nil
	}
	if len(inst.Params) == 0 {
		return llvm.Value{}, fmt.Errorf("%s has no continuation parameter", inst)
	}

	ret, err := lw.returnType(inst.ReturnType())
	if err != nil {
		return llvm.Value{}, fmt.Errorf("%s: %w", inst, err)
	}
	var argtypes []types.Type
	var pts []llvm.Type
	for _, p := range inst.Params[1:] {
		argtypes = append(argtypes, p.Type)
		if p.Type == types.Nothing {
			continue
		}
		pt, err := lw.Type(p.Type)
		if err != nil {
			return llvm.Value{}, fmt.Errorf("%s: parameter %s: %w", inst, p, err)
		}
		pts = append(pts, pt)
	}

	label := strings.ReplaceAll(inst.Name, types.PREFIX, "_")
	if label == "" {
		label = "L"
	}
	symbol := types.MangleSymbol(label, argtypes)
	name := symbol
	if !lw.Module.NamedFunction(name).IsNil() {
		name += "." + strconv.FormatUint(inst.UID, 10)
	}
	fn := llvm.AddFunction(lw.Module, name, llvm.FunctionType(ret, pts, false))
	lw.funcs[inst] = fn
	lw.decls = append(lw.decls, decl{fn: fn, symbol: symbol, args: argtypes})
	return fn, nil
}

// Signatures decodes the symbol of every declared function, in declaration
// order, and checks it against the parameter types it was declared for.
func (lw *Lowerer) Signatures() ([]Signature, error) {
	sigs := make([]Signature, 0, len(lw.decls))
	for _, d := range lw.decls {
		label, args, err := types.UnmangleSignature(d.symbol)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.fn.Name(), err)
		}
		if !types.EqualTypes(args, d.args) {
			return nil, fmt.Errorf("%s decodes to %v, declared with %v", d.fn.Name(), args, d.args)
		}
		sigs = append(sigs, Signature{Symbol: d.fn.Name(), Label: label, Args: args})
	}
	return sigs, nil
}

// DeclareAll declares every label in order and stops at the first error.
func (lw *Lowerer) DeclareAll(labels []*il.Label) error {
	for _, l := range labels {
		if _, err := lw.Declare(l); err != nil {
			return err
		}
	}
	return nil
}
