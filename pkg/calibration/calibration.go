package calibration

import (
	"math"

	"github.com/itohio/airmon/pkg/gas"
)

// Constants are the fixed circuit parameters shared by every species.
type Constants struct {
	LoadResistance float64 // RL in kΩ
	ZeroResistance float64 // R0 in clean air, kΩ
	ADCReference   float64 // ADC full scale (V)
}

// DefaultConstants returns the reference MQ-135 board values.
func DefaultConstants() Constants {
	return Constants{
		LoadResistance: 10.0,
		ZeroResistance: 76.63,
		ADCReference:   5.0,
	}
}

// Model converts a sensor voltage into ppm for every species.
// It is read-only after construction and safe for concurrent use.
type Model struct {
	consts Constants
	curves gas.Curves
}

// New creates a calibration model.
func New(consts Constants, curves gas.Curves) *Model {
	return &Model{consts: consts, curves: curves}
}

// Default creates a model from the reference constants and curves.
func Default() *Model {
	return New(DefaultConstants(), gas.DefaultCurves())
}

// Constants returns the circuit constants of the model.
func (m *Model) Constants() Constants {
	return m.consts
}

// Curves returns the calibration curves of the model.
func (m *Model) Curves() gas.Curves {
	return m.curves
}

// Convert maps a voltage to a ppm reading.
// Non-positive voltages (sensor dropout) read as zero for every species.
// A non-finite power-law result, which happens once the voltage reaches the
// ADC reference and the sensor resistance is no longer positive, is clamped
// to zero as well. Use InRange to detect that condition.
func (m *Model) Convert(voltage float64) gas.Reading {
	var r gas.Reading
	if !(voltage > 0) {
		return r
	}

	ratio := m.Resistance(voltage) / m.consts.ZeroResistance
	for _, s := range gas.All() {
		c := m.curves[s]
		ppm := c.Coefficient * math.Pow(ratio, c.Exponent)
		if math.IsNaN(ppm) || math.IsInf(ppm, 0) {
			ppm = 0
		}
		r[s] = round2(ppm)
	}
	return r
}

// Resistance returns the sensor resistance for a voltage across the load resistor.
// Formula: Rs = (Vref * RL / V) - RL
func (m *Model) Resistance(voltage float64) float64 {
	if !(voltage > 0) {
		return 0
	}
	return (m.consts.ADCReference*m.consts.LoadResistance)/voltage - m.consts.LoadResistance
}

// InRange reports whether voltage lies strictly between 0 and the ADC reference,
// where the transfer function is well defined.
func (m *Model) InRange(voltage float64) bool {
	return voltage > 0 && voltage < m.consts.ADCReference
}

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
