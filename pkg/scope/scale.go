package scope

import (
	"strconv"

	"github.com/chewxy/math32"
)

// niceStep returns a 1, 2 or 5 times power of ten step that splits span into
// about n intervals.
func niceStep(span float32, n int) float32 {
	if !(span > 0) || math32.IsInf(span, 0) || n <= 0 {
		return 1
	}

	raw := span / float32(n)
	mag := math32.Pow(10, math32.Floor(math32.Log10(raw)))
	norm := raw / mag

	// Tolerate float32 rounding of norm around the boundaries.
	const eps = 1e-4
	var step float32
	switch {
	case norm <= 1+eps:
		step = 1
	case norm <= 2+eps:
		step = 2
	case norm <= 5+eps:
		step = 5
	default:
		step = 10
	}
	return step * mag
}

// niceRange widens [lo, hi] outward to multiples of a nice step.
func niceRange(lo, hi float32, n int) (float32, float32, float32) {
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi-lo < 1e-6 {
		hi = lo + 1
	}
	step := niceStep(hi-lo, n)
	return math32.Floor(lo/step+1e-4) * step, math32.Ceil(hi/step-1e-4) * step, step
}

// scaleTo maps v from [lo, hi] onto [0, length].
func scaleTo(v, lo, hi, length float32) float32 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo) * length
}

// formatPPM renders an axis label with as few digits as the step needs.
func formatPPM(v, step float32) string {
	switch {
	case math32.Abs(v) >= 10000:
		return strconv.FormatFloat(float64(v/1000), 'f', 0, 32) + "k"
	case step >= 1:
		return strconv.FormatFloat(float64(v), 'f', 0, 32)
	case step >= 0.1:
		return strconv.FormatFloat(float64(v), 'f', 1, 32)
	default:
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	}
}
