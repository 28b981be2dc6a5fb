package sensor

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itohio/airmon/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    float64
		wantErr bool
	}{
		{name: "millivolts", line: "1234", want: 1.234},
		{name: "millivolts suffix", line: "1234mV", want: 1.234},
		{name: "millivolts suffix with space", line: "850 mV", want: 0.85},
		{name: "volts decimal", line: "2.5", want: 2.5},
		{name: "volts suffix", line: "3V", want: 3},
		{name: "exponent", line: "1.5e-1", want: 0.15},
		{name: "timestamp prefix", line: "1234567890123,2000", want: 2},
		{name: "timestamp prefix volts", line: "1234567890123, 0.75V", want: 0.75},
		{name: "zero", line: "0", want: 0},
		{name: "negative", line: "-1.0", wantErr: true},
		{name: "garbage", line: "abc", wantErr: true},
		{name: "empty last field", line: "123,", wantErr: true},
		{name: "nan", line: "NaN", wantErr: true},
		{name: "inf", line: "+Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func newTestSerial(window int) (*Serial, *time.Time) {
	d := NewSerial(config.SerialConfig{Port: "test", AverageSamples: window, StaleAfter: time.Second})
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	d.connected = true
	return d, &now
}

func TestSerial_ReadLines(t *testing.T) {
	d, _ := newTestSerial(1)

	d.readLines(strings.NewReader("\n1000\nbad line\n2.25\n"))

	v, err := d.ReadVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 2.25, v, 1e-12)
}

func TestSerial_MovingAverage(t *testing.T) {
	d, _ := newTestSerial(3)

	d.readLines(strings.NewReader("1.0\n2.0\n"))
	v, err := d.ReadVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v, 1e-12)

	d.readLines(strings.NewReader("3.0\n4.0\n"))
	v, err = d.ReadVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-12)
	assert.Len(t, d.values, 3)
}

func TestSerial_NoData(t *testing.T) {
	d, _ := newTestSerial(1)

	_, err := d.ReadVoltage()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFault))
}

func TestSerial_Stale(t *testing.T) {
	d, now := newTestSerial(1)
	d.push(1.2)

	*now = now.Add(500 * time.Millisecond)
	_, err := d.ReadVoltage()
	require.NoError(t, err)

	*now = now.Add(time.Second)
	_, err = d.ReadVoltage()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFault))
}

func TestSerial_NotConnected(t *testing.T) {
	d := NewSerial(config.SerialConfig{Port: "test"})
	assert.False(t, d.IsConnected())
	assert.NoError(t, d.Close())

	_, err := d.ReadVoltage()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFault))
}

func TestSerial_ConnectMissingPort(t *testing.T) {
	d := NewSerial(config.SerialConfig{Port: "/dev/airmon-does-not-exist"})
	err := d.Connect()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFault))
	assert.False(t, d.IsConnected())
}
