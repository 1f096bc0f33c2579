package types

import (
	"sort"
	"strconv"
	"sync"
)

const (
	PREFIX = "$" // Prefix for symbol names and types
)

// interned holds every TypedLabel and TypeSet ever built, keyed by mangled
// structure, so that equal signatures share one identity.
var interned = struct {
	sync.Mutex
	m map[string]Type
}{m: make(map[string]Type)}

func intern(key string, build func() Type) Type {
	interned.Lock()
	defer interned.Unlock()
	if t, ok := interned.m[key]; ok {
		return t
	}
	t := build()
	interned.m[key] = t
	return t
}

func mangleCount(tag string, ts []Type) string {
	s := tag + PREFIX + strconv.Itoa(len(ts))
	for _, t := range ts {
		s += PREFIX + t.Mangle()
	}
	return s
}

// NewTypedLabel returns the interned signature for ts.
func NewTypedLabel(ts ...Type) *TypedLabel {
	key := mangleCount("TL", ts)
	return intern(key, func() Type {
		return &TypedLabel{Types: append([]Type(nil), ts...), key: key}
	}).(*TypedLabel)
}

// NewTypeSet returns the union of ts. Nested sets are flattened and
// duplicates removed; a union of a single type is that type.
func NewTypeSet(ts ...Type) Type {
	seen := make(map[string]Type)
	var add func(t Type)
	add = func(t Type) {
		if set, ok := t.(*TypeSet); ok {
			for _, m := range set.Members {
				add(m)
			}
			return
		}
		seen[t.Mangle()] = t
	}
	for _, t := range ts {
		add(t)
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	members := make([]Type, len(keys))
	for i, k := range keys {
		members[i] = seen[k]
	}
	if len(members) == 1 {
		return members[0]
	}

	key := mangleCount("TS", members)
	return intern(key, func() Type {
		return &TypeSet{Members: members, key: key}
	})
}

// Union widens a by b.
func Union(a, b Type) Type {
	if a == b {
		return a
	}
	return NewTypeSet(a, b)
}

// MangleSymbol encodes a label name and its argument types into a unique
// symbol name of the form $<name>{$<Type>}.
func MangleSymbol(name string, args []Type) string {
	mangledName := PREFIX + name
	for i := 0; i < len(args); i++ {
		mangledName += PREFIX + args[i].Mangle()
	}
	return mangledName
}

// Key returns the structural key of a type list, usable as a map key.
func Key(ts []Type) string {
	return mangleCount("", ts)
}
