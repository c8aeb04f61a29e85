// Package gatecheck is the top-level decision procedure: it dispatches
// locality and descent checks against a pluggable World backend and wraps
// the outcome into a sorted, reproducible gate result. The kernel never
// short-circuits; every simultaneously true failure appears in the verdict.
package gatecheck

// Mask is a bitmask naming a sub-context: each set bit is one atom of the
// base context.
type Mask uint64

// Value is an opaque backend value living over some mask.
type Value string

// World is the capability interface a verification backend implements.
// Restrict is valid only when tgt is a subset of src.
type World interface {
	IsDefinable(mask Mask, value Value) bool
	Restrict(value Value, src, tgt Mask) (Value, bool)
	Same(mask Mask, a, b Value) bool
	IsCover(mask Mask, legs []Mask) bool
	Overlap(i, j Mask) Mask
	Enumerate(mask Mask) []Value
}

// Union folds legs with bitwise OR.
func Union(legs []Mask) Mask {
	var u Mask
	for _, leg := range legs {
		u |= leg
	}
	return u
}

// Subset reports whether every bit of a is set in b.
func Subset(a, b Mask) bool { return a&b == a }
