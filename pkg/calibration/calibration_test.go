package calibration

import (
	"math"
	"testing"

	"github.com/itohio/airmon/pkg/gas"
	"github.com/stretchr/testify/assert"
)

func TestConvert_NonPositiveVoltage(t *testing.T) {
	m := Default()

	for _, v := range []float64{0, -0.001, -1, -5, math.Inf(-1), math.NaN()} {
		r := m.Convert(v)
		for _, s := range gas.All() {
			assert.Equal(t, 0.0, r[s], "voltage %v species %s", v, s)
		}
	}
}

func TestConvert_Fixture(t *testing.T) {
	m := Default()

	assert.InDelta(t, 15.0, m.Resistance(2.0), 1e-12)

	r := m.Convert(2.0)
	assert.InDelta(t, 10666.81, r[gas.CO2], 1e-6)
	assert.InDelta(t, 5768.93, r[gas.NH3], 1e-6)
	assert.InDelta(t, 1179.62, r[gas.NOx], 1e-6)
}

func TestConvert_Table(t *testing.T) {
	m := Default()

	tests := []struct {
		name    string
		voltage float64
		want    gas.Reading
	}{
		{
			name:    "1.0V",
			voltage: 1.0,
			want:    gas.Reading{gas.CO2: 705.52, gas.NH3: 510.12, gas.NOx: 139.04},
		},
		{
			name:    "0.5V",
			voltage: 0.5,
			want:    gas.Reading{gas.CO2: 74.70, gas.NH3: 68.66, gas.NOx: 23.73},
		},
		{
			name:    "0.1V",
			voltage: 0.1,
			want:    gas.Reading{gas.CO2: 0.68, gas.NH3: 1.04, gas.NOx: 0.59},
		},
		{
			name:    "3.0V",
			voltage: 3.0,
			want:    gas.Reading{gas.CO2: 100748.89, gas.NH3: 42859.08, gas.NOx: 6910.32},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Convert(tt.voltage)
			for _, s := range gas.All() {
				assert.InDelta(t, tt.want[s], got[s], 1e-6, "species %s", s)
			}
		})
	}
}

func TestConvert_MatchesFormula(t *testing.T) {
	consts := Constants{LoadResistance: 10, ZeroResistance: 76.63, ADCReference: 5}
	curves := gas.DefaultCurves()
	m := New(consts, curves)

	for _, v := range []float64{0.05, 0.3, 1.7, 2.2, 4.9} {
		ratio := ((consts.ADCReference*consts.LoadResistance)/v - consts.LoadResistance) / consts.ZeroResistance
		got := m.Convert(v)
		for _, s := range gas.All() {
			want := math.Round(curves[s].Coefficient*math.Pow(ratio, curves[s].Exponent)*100) / 100
			assert.Equal(t, want, got[s], "voltage %v species %s", v, s)
		}
	}
}

func TestConvert_OutOfRangeClampsToZero(t *testing.T) {
	m := Default()

	// At Vref the resistance is zero and ratio^negative is +Inf.
	// Above Vref the ratio is negative and a fractional exponent yields NaN.
	for _, v := range []float64{5.0, 5.5, 12} {
		assert.False(t, m.InRange(v))
		r := m.Convert(v)
		for _, s := range gas.All() {
			assert.Equal(t, 0.0, r[s], "voltage %v species %s", v, s)
		}
	}
}

func TestInRange(t *testing.T) {
	m := Default()
	assert.False(t, m.InRange(0))
	assert.False(t, m.InRange(-1))
	assert.True(t, m.InRange(0.001))
	assert.True(t, m.InRange(4.999))
	assert.False(t, m.InRange(5))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.24, round2(1.235000001))
	assert.Equal(t, -1.24, round2(-1.235000001))
	assert.Equal(t, 0.0, round2(0.004))
	assert.Equal(t, 10.0, round2(9.999))
}
