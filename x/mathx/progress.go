package mathx

import "golang.org/x/exp/constraints"

// LedsForProgress converts a current/max ratio into a pixel count on a strip
// of totalLeds pixels, rounding down. max==0 yields 0 to avoid a division by
// zero mid-boot.
func LedsForProgress[T constraints.Integer](current, max, totalLeds T) T {
	if max == 0 {
		return 0
	}
	return T(int64(current) * int64(totalLeds) / int64(max))
}
