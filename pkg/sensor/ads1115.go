package sensor

import (
	"fmt"
	"log"
	"sync"

	"github.com/itohio/airmon/pkg/config"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

var ads1115Channels = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ADS1115 reads the sensor through a 16-bit I2C ADC.
type ADS1115 struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	pin ads1x15.PinADC
}

// NewADS1115 initializes periph, opens the I2C bus and configures one
// single-ended channel.
func NewADS1115(cfg config.ADS1115Config) (*ADS1115, error) {
	if cfg.Channel < 0 || cfg.Channel >= len(ads1115Channels) {
		return nil, fmt.Errorf("ads1115 channel %d out of range", cfg.Channel)
	}
	if cfg.FullScale <= 0 {
		cfg.FullScale = 5.0
	}

	if _, err := host.Init(); err != nil {
		return nil, fault("failed to initialize periph: %v", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fault("failed to open I2C bus %q: %v", cfg.Bus, err)
	}

	opts := ads1x15.DefaultOpts
	if cfg.Address != 0 {
		opts.I2cAddress = cfg.Address
	}
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fault("failed to initialize ADS1115 at 0x%02X: %v", opts.I2cAddress, err)
	}

	fullScale := physic.ElectricPotential(cfg.FullScale * float64(physic.Volt))
	pin, err := dev.PinForChannel(ads1115Channels[cfg.Channel], fullScale, 8*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		bus.Close()
		return nil, fault("failed to configure ADS1115 channel %d: %v", cfg.Channel, err)
	}
	log.Printf("sensor: ADS1115 at 0x%02X channel %d, full scale %v", opts.I2cAddress, cfg.Channel, fullScale)

	return &ADS1115{bus: bus, pin: pin}, nil
}

// ReadVoltage performs one conversion.
func (a *ADS1115) ReadVoltage() (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pin == nil {
		return 0, fault("ADS1115 closed")
	}

	s, err := a.pin.Read()
	if err != nil {
		return 0, fault("ADS1115 read: %v", err)
	}
	return float64(s.V) / float64(physic.Volt), nil
}

// Close halts the channel and releases the bus.
func (a *ADS1115) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pin == nil {
		return nil
	}
	if err := a.pin.Halt(); err != nil {
		log.Printf("sensor: error halting ADS1115: %v", err)
	}
	a.pin = nil
	return a.bus.Close()
}
