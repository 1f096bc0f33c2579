package types

var reservedTypeNames = []Type{
	Nothing,
	Any,
	Bool,
	I8,
	I16,
	I32,
	I64,
	U8,
	U16,
	U32,
	U64,
	F32,
	F64,
	String,
	Symbol,
	List,
	TypeT,
	Label,
	Parameter,
	Closure,
	Frame,
	Builtin,
	Scope,
	Syntax,
	Anchor,
}

var reservedTypeSet = func() map[string]Type {
	m := make(map[string]Type, len(reservedTypeNames))
	for _, t := range reservedTypeNames {
		m[t.String()] = t
	}
	return m
}()

// ReservedTypeNames returns the textual names of the built-in types.
func ReservedTypeNames() []string {
	names := make([]string, len(reservedTypeNames))
	for i, t := range reservedTypeNames {
		names[i] = t.String()
	}
	return names
}

// IsReservedTypeName reports whether name is reserved for a built-in type.
func IsReservedTypeName(name string) bool {
	_, ok := reservedTypeSet[name]
	return ok
}

// LookupName returns the built-in type spelled name.
func LookupName(name string) (Type, bool) {
	t, ok := reservedTypeSet[name]
	return t, ok
}
