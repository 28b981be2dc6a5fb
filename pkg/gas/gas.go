package gas

import (
	"fmt"
	"strings"
)

// Species identifies one gas tracked by the sensor. The set is closed and
// its declaration order is the column order of every per-gas container.
type Species int

const (
	CO2 Species = iota
	NH3
	NOx

	// Count is the number of known species.
	Count = 3
)

var names = [Count]string{"CO2", "NH3", "NOx"}
var labels = [Count]string{"CO₂", "NH₃", "NOx"}

// All returns every species in declaration order.
func All() [Count]Species {
	return [Count]Species{CO2, NH3, NOx}
}

// Name returns the ASCII identifier used in log columns and config keys.
func (s Species) Name() string {
	if !s.Valid() {
		return fmt.Sprintf("Species(%d)", int(s))
	}
	return names[s]
}

// Label returns the display label with chemical subscripts.
func (s Species) Label() string {
	if !s.Valid() {
		return s.Name()
	}
	return labels[s]
}

func (s Species) String() string {
	return s.Name()
}

// Valid reports whether s is one of the declared species.
func (s Species) Valid() bool {
	return s >= 0 && int(s) < Count
}

// Parse resolves a species from its name or label, ignoring case.
func Parse(name string) (Species, error) {
	n := strings.TrimSpace(name)
	for _, s := range All() {
		if strings.EqualFold(n, names[s]) || strings.EqualFold(n, labels[s]) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown gas species %q", name)
}

// Curve holds the power-law calibration parameters: ppm = Coefficient * ratio^Exponent.
type Curve struct {
	Coefficient float64
	Exponent    float64
}

// Curves is a calibration curve per species.
type Curves [Count]Curve

// DefaultCurves returns the MQ-135 datasheet fits.
func DefaultCurves() Curves {
	return Curves{
		CO2: {Coefficient: 116.6020682, Exponent: -2.769034857},
		NH3: {Coefficient: 102.2, Exponent: -2.473},
		NOx: {Coefficient: 33.7, Exponent: -2.18},
	}
}

// Reading is a ppm concentration for every species, produced once per tick.
type Reading [Count]float64

// Get returns the value for s.
func (r Reading) Get(s Species) float64 {
	return r[s]
}

// Map returns the reading keyed by species name.
func (r Reading) Map() map[string]float64 {
	m := make(map[string]float64, Count)
	for _, s := range All() {
		m[s.Name()] = r[s]
	}
	return m
}
