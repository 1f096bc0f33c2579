package syntax

import (
	"strings"

	"github.com/thiremani/corvid/il"
	"github.com/thiremani/corvid/token"
)

type Kind int

const (
	Atom   Kind = iota // a literal datum
	Ident              // a bare name, resolved by the loader
	List               // ( ... )
	Vector             // [ ... ]
)

// Syntax is a datum tagged with the anchor it was read from.
type Syntax struct {
	Anchor token.Anchor
	Kind   Kind
	Name   string    // Ident
	Datum  il.Any    // Atom
	Items  []*Syntax // List and Vector
}

func NewAtom(anchor token.Anchor, v il.Any) *Syntax {
	return &Syntax{Anchor: anchor, Kind: Atom, Datum: v}
}

func NewIdent(anchor token.Anchor, name string) *Syntax {
	return &Syntax{Anchor: anchor, Kind: Ident, Name: name}
}

func NewList(anchor token.Anchor, kind Kind, items []*Syntax) *Syntax {
	return &Syntax{Anchor: anchor, Kind: kind, Items: items}
}

// IsIdent reports whether s is the bare name name.
func (s *Syntax) IsIdent(name string) bool {
	return s.Kind == Ident && s.Name == name
}

// Head returns the name a list form starts with, if any.
func (s *Syntax) Head() (string, bool) {
	if s.Kind != List || len(s.Items) == 0 || s.Items[0].Kind != Ident {
		return "", false
	}
	return s.Items[0].Name, true
}

func (s *Syntax) String() string {
	switch s.Kind {
	case Ident:
		return s.Name
	case Atom:
		return s.Datum.String()
	}
	lp, rp := "(", ")"
	if s.Kind == Vector {
		lp, rp = "[", "]"
	}
	parts := make([]string, len(s.Items))
	for i, it := range s.Items {
		parts[i] = it.String()
	}
	return lp + strings.Join(parts, " ") + rp
}
