package gas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_DeclarationOrder(t *testing.T) {
	all := All()
	assert.Equal(t, [Count]Species{CO2, NH3, NOx}, all)

	got := make([]string, 0, Count)
	for _, s := range all {
		got = append(got, s.Name())
	}
	assert.Equal(t, []string{"CO2", "NH3", "NOx"}, got)
}

func TestSpecies_Label(t *testing.T) {
	assert.Equal(t, "CO₂", CO2.Label())
	assert.Equal(t, "NH₃", NH3.Label())
	assert.Equal(t, "NOx", NOx.Label())
	assert.Equal(t, "Species(7)", Species(7).Label())
	assert.False(t, Species(-1).Valid())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Species
		wantErr bool
	}{
		{name: "ascii", in: "CO2", want: CO2},
		{name: "lower case", in: "nh3", want: NH3},
		{name: "label", in: "CO₂", want: CO2},
		{name: "padded", in: " NOx ", want: NOx},
		{name: "unknown", in: "SO2", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultCurves(t *testing.T) {
	c := DefaultCurves()
	assert.Equal(t, 116.6020682, c[CO2].Coefficient)
	assert.Equal(t, -2.769034857, c[CO2].Exponent)
	assert.Equal(t, 102.2, c[NH3].Coefficient)
	assert.Equal(t, -2.473, c[NH3].Exponent)
	assert.Equal(t, 33.7, c[NOx].Coefficient)
	assert.Equal(t, -2.18, c[NOx].Exponent)
}

func TestReading_Map(t *testing.T) {
	r := Reading{CO2: 400, NH3: 1.5, NOx: 0.25}
	assert.Equal(t, 1.5, r.Get(NH3))
	assert.Equal(t, map[string]float64{"CO2": 400, "NH3": 1.5, "NOx": 0.25}, r.Map())
}
