package il

import (
	"fmt"
)

// Reachable returns every label entry could transfer control to or close
// over, in discovery order, entry first.
func Reachable(entry *Label) []*Label {
	seen := make(map[*Label]bool)
	var order []*Label
	stack := []*Label{entry}
	for len(stack) > 0 {
		l := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[l] {
			continue
		}
		seen[l] = true
		order = append(order, l)

		var next []*Label
		l.operands(func(n Node) {
			switch t := n.(type) {
			case *Label:
				next = append(next, t)
			case *Parameter:
				if t.label != nil {
					next = append(next, t.label)
				}
			}
		})
		// push in reverse so operands are explored left to right
		for i := len(next) - 1; i >= 0; i-- {
			if !seen[next[i]] {
				stack = append(stack, next[i])
			}
		}
	}
	return order
}

// Scope returns the labels reachable from entry that depend on entry's
// parameters, directly or through other scope members. entry itself is
// excluded. These are the labels that must be cloned, not shared, when
// entry is specialized.
func Scope(entry *Label) []*Label {
	reachable := make(map[*Label]bool)
	for _, l := range Reachable(entry) {
		reachable[l] = true
	}

	seen := map[*Label]bool{entry: true}
	var scope []*Label
	var work []*Label

	admit := func(users Users) {
		for _, u := range users.Sorted() {
			if seen[u] || !reachable[u] {
				continue
			}
			seen[u] = true
			scope = append(scope, u)
			work = append(work, u)
		}
	}

	for _, p := range entry.Params {
		admit(p.users)
	}
	for len(work) > 0 {
		l := work[0]
		work = work[1:]
		admit(l.users)
		for _, p := range l.Params {
			admit(p.users)
		}
	}
	return scope
}

// VerifyUsers checks the use-def invariant for every label reachable from
// entry and for each of their parameters.
func VerifyUsers(entry *Label) error {
	labels := Reachable(entry)
	check := func(n Node) error {
		for u, count := range n.Users() {
			if got := u.Occurrences(n); got != count {
				return fmt.Errorf("%s: users[%s] = %d, body has %d occurrences", n, u, count, got)
			}
		}
		return nil
	}
	for _, l := range labels {
		if err := check(l); err != nil {
			return err
		}
		for _, p := range l.Params {
			if err := check(p); err != nil {
				return err
			}
		}
		var err error
		l.operands(func(n Node) {
			if err != nil {
				return
			}
			if got, want := n.Users()[l], l.Occurrences(n); got != want {
				err = fmt.Errorf("%s: users[%s] = %d, body has %d occurrences", n, l, got, want)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}
