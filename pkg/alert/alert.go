package alert

import (
	"strings"

	"github.com/itohio/airmon/pkg/gas"
)

// Thresholds holds the alert ceiling (ppm) of every species.
type Thresholds [gas.Count]float64

// DefaultThresholds returns the reference ceilings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		gas.CO2: 1000,
		gas.NH3: 25,
		gas.NOx: 40,
	}
}

// Exceeded reports whether value is above the ceiling of s.
func (t Thresholds) Exceeded(s gas.Species, value float64) bool {
	return value > t[s]
}

// Alert reports a species whose concentration exceeded its ceiling.
type Alert struct {
	Species gas.Species `json:"-"`
	Gas     string      `json:"gas"`
	Value   float64     `json:"ppm"`
	Ceiling float64     `json:"ceiling"`
}

func (a Alert) String() string {
	return a.Species.Label() + " high!"
}

// Evaluate returns an alert for every species strictly above its ceiling,
// in declaration order.
func Evaluate(r gas.Reading, t Thresholds) []Alert {
	var alerts []Alert
	for _, s := range gas.All() {
		if t.Exceeded(s, r[s]) {
			alerts = append(alerts, Alert{
				Species: s,
				Gas:     s.Name(),
				Value:   r[s],
				Ceiling: t[s],
			})
		}
	}
	return alerts
}

// Contains reports whether alerts include species s.
func Contains(alerts []Alert, s gas.Species) bool {
	for _, a := range alerts {
		if a.Species == s {
			return true
		}
	}
	return false
}

// Message joins alerts into the warning line shown to operators.
// Empty when there is nothing to report.
func Message(alerts []Alert) string {
	parts := make([]string, 0, len(alerts))
	for _, a := range alerts {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, " | ")
}
