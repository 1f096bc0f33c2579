package token

import "fmt"

// ErrorKind classifies a CompileError. Every kind aborts the current
// top-level compilation or interpretation attempt.
type ErrorKind int

const (
	Syntax ErrorKind = iota
	TypeMismatch
	Arity
	Structural
	Specialization
	Runtime // raised by a running program
)

var errorKinds = [...]string{
	Syntax:         "syntax error",
	TypeMismatch:   "type error",
	Arity:          "arity error",
	Structural:     "structural error",
	Specialization: "specialization error",
	Runtime:        "runtime error",
}

func (k ErrorKind) String() string {
	if 0 <= k && int(k) < len(errorKinds) {
		return errorKinds[k]
	}
	return fmt.Sprintf("error(%d)", int(k))
}

// CompileError is the single error raised by the core. It carries the anchor
// of the offending body and a formatted message.
type CompileError struct {
	Anchor Anchor
	Kind   ErrorKind
	Msg    string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Anchor, e.Kind, e.Msg)
}

func Errorf(anchor Anchor, kind ErrorKind, format string, args ...any) *CompileError {
	return &CompileError{
		Anchor: anchor,
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
	}
}
