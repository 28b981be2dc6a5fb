package sensor

import (
	"errors"
	"fmt"

	"github.com/itohio/airmon/pkg/config"
)

// ErrFault classifies every failure to obtain a voltage.
var ErrFault = errors.New("sensor fault")

// Source delivers the analogue output voltage of the gas sensor.
// ReadVoltage returns volts or an error wrapping ErrFault.
type Source interface {
	ReadVoltage() (float64, error)
	Close() error
}

var (
	_ Source = (*Serial)(nil)
	_ Source = (*Mock)(nil)
	_ Source = (*ADS1115)(nil)
)

// Open creates the source selected by the configuration.
func Open(cfg *config.Config) (Source, error) {
	switch cfg.Sensor.Source {
	case config.SourceMock:
		return NewMock(&cfg.Mock, cfg.Calibration.ADCReference), nil
	case config.SourceSerial:
		d := NewSerial(cfg.Sensor.Serial)
		if err := d.Connect(); err != nil {
			return nil, err
		}
		return d, nil
	case config.SourceADS1115:
		return NewADS1115(cfg.Sensor.ADS1115)
	default:
		return nil, fmt.Errorf("unknown sensor source %q", cfg.Sensor.Source)
	}
}

func fault(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFault, fmt.Sprintf(format, args...))
}
