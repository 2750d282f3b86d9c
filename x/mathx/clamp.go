// Package mathx holds the small generic numeric helpers the display and
// motor code share: range clamping and the progress-to-pixels mapping.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. Swapped bounds are tolerated so callers can
// pass a span in either order.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}

// Between reports whether v lies in [lo, hi], bounds inclusive and
// order-insensitive.
func Between[T constraints.Ordered](v, lo, hi T) bool {
	return Clamp(v, lo, hi) == v
}

// Abs for signed integers. Speeds and steps are signed, pulse widths are
// not.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
