package types

import (
	"fmt"
	"strconv"
	"unicode"
)

// UnmangleSignature decodes a name produced by MangleSymbol into its label
// name and argument types. It expects the format:
//
//	$<name> { $<Type> }
//
// where each Type is encoded by Type.Mangle() using a per-type arity scheme.
func UnmangleSignature(s string) (name string, args []Type, err error) {
	if len(s) == 0 || s[0] != '$' {
		return "", nil, fmt.Errorf("invalid mangled string: missing leading '$'")
	}
	// read name up to next '$' or end
	i := 1
	j := i
	for j < len(s) && s[j] != '$' {
		j++
	}
	name = s[i:j]
	pos := j
	for pos < len(s) {
		t, next, perr := parseTypeFrom(s, pos)
		if perr != nil {
			return "", nil, perr
		}
		args = append(args, t)
		pos = next
	}
	return name, args, nil
}

var simpleByMangle = func() map[string]Type {
	m := make(map[string]Type, len(simpleNames))
	for k, names := range simpleNames {
		m[names[1]] = Simple{k}
	}
	return m
}()

// parseTypeFrom parses a single Type starting at position pos, where s[pos] is expected to be '$'.
// It returns the parsed Type and the next index to continue parsing from.
func parseTypeFrom(s string, pos int) (Type, int, error) {
	if pos >= len(s) || s[pos] != '$' {
		return nil, pos, fmt.Errorf("parse error: expected '$' at %d", pos)
	}
	tok, next := readToken(s, pos)
	if tok == "" {
		return nil, next, fmt.Errorf("parse error: empty token at %d", pos)
	}
	if t, ok := simpleByMangle[tok]; ok {
		return t, next, nil
	}
	switch tok {
	case "Ptr":
		cnt, npos, err := readCount(s, next)
		if err != nil {
			return nil, npos, fmt.Errorf("Ptr missing count: %w", err)
		}
		if cnt != 1 {
			return nil, npos, fmt.Errorf("Ptr count must be 1, got %d", cnt)
		}
		elem, nnext, err := parseTypeFrom(s, npos)
		if err != nil {
			return nil, nnext, err
		}
		return Ptr{Elem: elem}, nnext, nil
	case "TL", "TS":
		n, npos, err := readCount(s, next)
		if err != nil {
			return nil, npos, fmt.Errorf("%s missing count: %w", tok, err)
		}
		elems := make([]Type, n)
		cur := npos
		for i := 0; i < n; i++ {
			et, nn, err := parseTypeFrom(s, cur)
			if err != nil {
				return nil, nn, err
			}
			elems[i] = et
			cur = nn
		}
		if tok == "TL" {
			return NewTypedLabel(elems...), cur, nil
		}
		return NewTypeSet(elems...), cur, nil
	default:
		// Scalars: I{digits}, U{digits} or F{digits}
		if tok[0] == 'I' || tok[0] == 'U' || tok[0] == 'F' {
			if len(tok) == 1 {
				return nil, next, fmt.Errorf("missing width in scalar token: %q", tok)
			}
			w, err := strconv.Atoi(tok[1:])
			if err != nil {
				return nil, next, fmt.Errorf("invalid width in token %q: %v", tok, err)
			}
			switch tok[0] {
			case 'I':
				return Int{Width: uint32(w), Signed: true}, next, nil
			case 'U':
				return Int{Width: uint32(w)}, next, nil
			}
			return Float{Width: uint32(w)}, next, nil
		}
		return nil, next, fmt.Errorf("unknown type tag: %q", tok)
	}
}

// readToken reads the token that starts at s[pos], where s[pos] == '$'.
// It returns the token string and the index of the next '$' or end of string.
func readToken(s string, pos int) (string, int) {
	i := pos + 1
	j := i
	for j < len(s) && s[j] != '$' {
		j++
	}
	return s[i:j], j
}

// readCount reads a numeric token after position 'pos'. Expects s[pos] == '$'.
func readCount(s string, pos int) (int, int, error) {
	tok, next := readToken(s, pos)
	if tok == "" {
		return 0, next, fmt.Errorf("missing count token")
	}
	// Allow forms like "3" or "N3" where first char is not a digit
	start := 0
	if !unicode.IsDigit(rune(tok[0])) {
		start = 1
	}
	if start >= len(tok) {
		return 0, next, fmt.Errorf("malformed count token: %q", tok)
	}
	val, err := strconv.Atoi(tok[start:])
	if err != nil {
		return 0, next, fmt.Errorf("invalid count in %q: %v", tok, err)
	}
	return val, next, nil
}
