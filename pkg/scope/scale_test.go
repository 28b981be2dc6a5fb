package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNiceStep(t *testing.T) {
	tests := []struct {
		span float32
		n    int
		want float32
	}{
		{100, 5, 20},
		{95, 5, 20},
		{1, 5, 0.2},
		{49, 10, 5},
		{12000, 5, 5000},
		{3, 10, 0.5},
		{0, 5, 1},
		{-4, 5, 1},
		{10, 0, 1},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, niceStep(tt.span, tt.n), float64(tt.want)*1e-5, "span %v n %d", tt.span, tt.n)
	}
}

func TestNiceRange(t *testing.T) {
	lo, hi, step := niceRange(0, 95, 5)
	assert.InDelta(t, 0, lo, 1e-6)
	assert.InDelta(t, 100, hi, 1e-4)
	assert.InDelta(t, 20, step, 1e-5)

	// Empty span still yields a usable axis.
	lo, hi, step = niceRange(0, 0, 5)
	assert.InDelta(t, 0, lo, 1e-6)
	assert.InDelta(t, 1, hi, 1e-6)
	assert.InDelta(t, 0.2, step, 1e-6)

	lo, hi, _ = niceRange(120, 10, 5)
	assert.LessOrEqual(t, lo, float32(10))
	assert.GreaterOrEqual(t, hi, float32(120))
}

func TestScaleTo(t *testing.T) {
	assert.InDelta(t, 0, scaleTo(0, 0, 100, 200), 1e-6)
	assert.InDelta(t, 100, scaleTo(50, 0, 100, 200), 1e-4)
	assert.InDelta(t, 200, scaleTo(100, 0, 100, 200), 1e-4)
	assert.InDelta(t, 0, scaleTo(5, 5, 5, 200), 1e-6)
}

func TestFormatPPM(t *testing.T) {
	assert.Equal(t, "0", formatPPM(0, 20))
	assert.Equal(t, "1000", formatPPM(1000, 200))
	assert.Equal(t, "20k", formatPPM(20000, 5000))
	assert.Equal(t, "0.4", formatPPM(0.4, 0.2))
	assert.Equal(t, "0.05", formatPPM(0.05, 0.05))
}
