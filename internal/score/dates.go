package score

import (
	"time"

	"github.com/ppiankov/quakelink/internal/dates"
)

// ExactMatch reports whether two full timestamps lie within tol of each other.
// Values without a time of day never match exactly.
func ExactMatch(a, b string, tol time.Duration) bool {
	va, okA := dates.Parse(a)
	vb, okB := dates.Parse(b)
	if !okA || !okB {
		return false
	}
	if va.Precision < dates.PrecisionTime || vb.Precision < dates.PrecisionTime {
		return false
	}
	d := va.Start.Sub(vb.Start)
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// MonthMatch reports whether the month components of two values at least
// month-precise differ by at most tol. The year is not compared, so March
// 1780 matches March 1908 and December never matches January.
func MonthMatch(a, b string, tol int) bool {
	va, okA := dates.Parse(a)
	vb, okB := dates.Parse(b)
	if !okA || !okB || va.Range || vb.Range {
		return false
	}
	if va.Precision < dates.PrecisionMonth || vb.Precision < dates.PrecisionMonth {
		return false
	}
	return abs(int(va.Start.Month())-int(vb.Start.Month())) <= tol
}

// YearMatch reports whether the years of two values differ by at most tol
func YearMatch(a, b string, tol int) bool {
	ya, okA := dates.Year(a)
	yb, okB := dates.Year(b)
	if !okA || !okB {
		return false
	}
	return abs(ya-yb) <= tol
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
