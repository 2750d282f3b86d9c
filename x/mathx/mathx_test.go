package mathx

import "testing"

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{5, 0, 10, 5},
		{-3, 0, 10, 0},
		{42, 0, 10, 10},
		{5, 10, 0, 5}, // swapped bounds
	}
	for _, c := range cases {
		if got := Clamp(c.v, c.lo, c.hi); got != c.want {
			t.Errorf("Clamp(%d,%d,%d)=%d want %d", c.v, c.lo, c.hi, got, c.want)
		}
	}
}

func TestLedsForProgress(t *testing.T) {
	cases := []struct{ cur, max, total, want int }{
		{0, 8, 30, 0},
		{4, 8, 30, 15},
		{8, 8, 30, 30},
		{1, 3, 30, 10},
		{2, 3, 30, 20},
		{5, 0, 30, 0}, // max==0 guard
	}
	for _, c := range cases {
		if got := LedsForProgress(c.cur, c.max, c.total); got != c.want {
			t.Errorf("LedsForProgress(%d,%d,%d)=%d want %d", c.cur, c.max, c.total, got, c.want)
		}
	}
}

func TestBetween(t *testing.T) {
	if !Between(14, 0, 14) {
		t.Error("14 should be within [0,14]")
	}
	if Between(15, 0, 14) {
		t.Error("15 should be outside [0,14]")
	}
}
