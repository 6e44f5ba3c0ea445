package typesys

import "cmp"

// DomainKind distinguishes interval and single-value refinements.
type DomainKind int

const (
	// RangeDomain is the closed interval [Low, High].
	RangeDomain DomainKind = iota
	// ValueDomain is the single value Low (High == Low).
	ValueDomain
)

// Domain refines an ordered scalar. A nil *Domain is unconstrained.
type Domain[T cmp.Ordered] struct {
	Kind DomainKind
	Low  T
	High T
}

// Range returns the interval refinement [lo, hi].
func Range[T cmp.Ordered](lo, hi T) *Domain[T] {
	return &Domain[T]{Kind: RangeDomain, Low: lo, High: hi}
}

// Value returns the single-value refinement v.
func Value[T cmp.Ordered](v T) *Domain[T] {
	return &Domain[T]{Kind: ValueDomain, Low: v, High: v}
}

// Contains reports whether o lies within d. A Value is a degenerate range.
// Both domains must be non-nil.
func (d *Domain[T]) Contains(o *Domain[T]) bool {
	return d.Low <= o.Low && o.High <= d.High
}

// Equal reports whether d and o are the same refinement.
func (d *Domain[T]) Equal(o *Domain[T]) bool {
	if d == nil || o == nil {
		return d == nil && o == nil
	}
	return d.Kind == o.Kind && d.Low == o.Low && d.High == o.High
}

// unifyDomain returns the narrower of a and b when one contains the other.
// An unconstrained side yields the other side's domain.
func unifyDomain[T cmp.Ordered](a, b *Domain[T]) (*Domain[T], bool) {
	switch {
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	case a.Contains(b) && b.Contains(a):
		// Same bounds: a Value is more specific than a one-point Range.
		if a.Kind == ValueDomain {
			return a, true
		}
		return b, true
	case a.Contains(b):
		return b, true
	case b.Contains(a):
		return a, true
	}
	return nil, false
}
