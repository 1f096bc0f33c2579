package il

// Builtin names a primitive operation callable as a body's enter.
type Builtin int

const (
	Branch Builtin = iota
	Exit
	Raise
	SetExceptionHandler
	GetExceptionHandler
	FFICall

	Add
	Sub
	Mul
	Div
	Rem
	Shl
	Shr
	BitAnd
	BitOr
	BitXor

	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Not

	TypeOf

	ListCons
	ListAt
	ListNext
	ListCount

	StringJoin
	StringCount
	StringAt
	Repr

	ScopeNew
	ScopeAt
	ScopeSet

	Print

	NumBuiltins
)

var builtinNames = [NumBuiltins]string{
	Branch:              "branch",
	Exit:                "exit",
	Raise:               "raise",
	SetExceptionHandler: "set-exception-handler",
	GetExceptionHandler: "get-exception-handler",
	FFICall:             "ffi-call",
	Add:                 "add",
	Sub:                 "sub",
	Mul:                 "mul",
	Div:                 "div",
	Rem:                 "rem",
	Shl:                 "shl",
	Shr:                 "shr",
	BitAnd:              "band",
	BitOr:               "bor",
	BitXor:              "bxor",
	Eq:                  "eq",
	Ne:                  "ne",
	Lt:                  "lt",
	Le:                  "le",
	Gt:                  "gt",
	Ge:                  "ge",
	Not:                 "not",
	TypeOf:              "typeof",
	ListCons:            "cons",
	ListAt:              "list-at",
	ListNext:            "list-next",
	ListCount:           "list-count",
	StringJoin:          "string-join",
	StringCount:         "string-count",
	StringAt:            "string-at",
	Repr:                "repr",
	ScopeNew:            "scope-new",
	ScopeAt:             "scope-at",
	ScopeSet:            "scope-set",
	Print:               "print",
}

var builtinByName = func() map[string]Builtin {
	m := make(map[string]Builtin, NumBuiltins)
	for b, name := range builtinNames {
		m[name] = Builtin(b)
	}
	return m
}()

func (b Builtin) String() string {
	if b < 0 || b >= NumBuiltins {
		return "builtin?"
	}
	return builtinNames[b]
}

// LookupBuiltin returns the builtin spelled name.
func LookupBuiltin(name string) (Builtin, bool) {
	b, ok := builtinByName[name]
	return b, ok
}
