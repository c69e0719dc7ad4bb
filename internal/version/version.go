// Package version implements the Version Oracle (spec §4.4): reading
// the locally installed four-part version out of a slot, and comparing
// two version strings component-wise.
//
// Grounded on codex-helper/internal/update/update.go's parseVersionTuple
// / isVersionNewer shape, generalized from "fewer-than-four components
// tolerated" (GitHub tag semantics) to the spec's stricter rule: a
// version string with fewer than four dot-separated integer components
// is simply not comparable, and IsUpToDate returns false to force an
// update attempt rather than guessing.
package version

import (
	"strconv"
	"strings"
)

// UnknownVersion is returned by Local when the slot's version cannot be
// determined, per spec §3 ("if unreadable, 0.0.0.0").
const UnknownVersion = "0.0.0.0"

// components is the fixed arity the spec compares: "the first four
// components as integers in order, from most to least significant."
const components = 4

// ParseTuple parses a dot-separated version string into its first four
// integer components. ok is false if fewer than four components parse
// as non-negative integers.
func ParseTuple(v string) (tuple [components]int, ok bool) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	if len(parts) < components {
		return tuple, false
	}
	for i := 0; i < components; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 {
			return tuple, false
		}
		tuple[i] = n
	}
	return tuple, true
}

// IsUpToDate reports whether local is componentwise >= remote. Per
// spec §4.4 and §9's resolved open question: if either string does not
// have at least four dot-separated integer components, it returns
// false (treat as not up-to-date, forcing an update attempt); equal
// versions are up-to-date and never force a reinstall.
func IsUpToDate(local, remote string) bool {
	lv, ok := ParseTuple(local)
	if !ok {
		return false
	}
	rv, ok := ParseTuple(remote)
	if !ok {
		return false
	}
	for i := 0; i < components; i++ {
		if lv[i] > rv[i] {
			return true
		}
		if lv[i] < rv[i] {
			return false
		}
	}
	return true
}
