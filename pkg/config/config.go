package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/calibration"
	"github.com/itohio/airmon/pkg/gas"
	"gopkg.in/yaml.v3"
)

// Voltage source kinds.
const (
	SourceADS1115 = "ads1115"
	SourceSerial  = "serial"
	SourceMock    = "mock"
)

// Config represents the application configuration.
type Config struct {
	Sensor      SensorConfig         `yaml:"sensor"`
	Calibration CalibrationConfig    `yaml:"calibration"`
	Gases       map[string]GasConfig `yaml:"gases"`
	Acquisition AcquisitionConfig    `yaml:"acquisition"`
	Log         LogConfig            `yaml:"log"`
	MQTT        MQTTConfig           `yaml:"mqtt"`
	OLED        OLEDConfig           `yaml:"oled"`
	Mock        MockConfig           `yaml:"mock"`
}

// SensorConfig selects and configures the voltage source.
type SensorConfig struct {
	Source  string        `yaml:"source"` // ads1115, serial or mock
	Serial  SerialConfig  `yaml:"serial"`
	ADS1115 ADS1115Config `yaml:"ads1115"`
}

// SerialConfig contains configuration of an MCU streaming voltages over a serial port.
type SerialConfig struct {
	Port           string        `yaml:"port"`
	BaudRate       int           `yaml:"baud_rate"`
	AverageSamples int           `yaml:"average_samples"` // 0 or 1 disables averaging
	StaleAfter     time.Duration `yaml:"stale_after"`
}

// ADS1115Config contains configuration of the I2C ADC.
type ADS1115Config struct {
	Bus       string  `yaml:"bus"` // empty selects the first bus
	Address   uint16  `yaml:"address"`
	Channel   int     `yaml:"channel"`
	FullScale float64 `yaml:"full_scale"` // V
}

// CalibrationConfig contains the sensor circuit constants.
type CalibrationConfig struct {
	LoadResistance float64 `yaml:"load_resistance"` // kΩ
	ZeroResistance float64 `yaml:"zero_resistance"` // kΩ
	ADCReference   float64 `yaml:"adc_reference"`   // V
}

// GasConfig contains the calibration curve and alert ceiling of one species.
type GasConfig struct {
	Coefficient float64 `yaml:"coefficient"`
	Exponent    float64 `yaml:"exponent"`
	Threshold   float64 `yaml:"threshold"` // ppm
}

// AcquisitionConfig contains acquisition loop parameters.
type AcquisitionConfig struct {
	Period     time.Duration `yaml:"period"`
	BufferSize int           `yaml:"buffer_size"`
}

// LogConfig contains CSV log parameters.
type LogConfig struct {
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
}

// MQTTConfig contains publisher parameters.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// OLEDConfig contains SSD1306 panel parameters.
type OLEDConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bus     string `yaml:"bus"`
}

// MockConfig contains simulated source configuration.
// Periods are expressed in reads, so the simulation is independent of wall time.
type MockConfig struct {
	Baseline      float64 `yaml:"baseline"`       // Clean air voltage (V)
	Amplitude     float64 `yaml:"amplitude"`      // Slow drift amplitude (V)
	Period        int     `yaml:"period"`         // Drift period (reads)
	NoiseLevel    float64 `yaml:"noise_level"`    // Noise level (V)
	EventLevel    float64 `yaml:"event_level"`    // Voltage added during a gas event (V)
	EventEvery    int     `yaml:"event_every"`    // Reads between gas events, 0 disables
	EventDuration int     `yaml:"event_duration"` // Gas event length (reads)
	FaultEvery    int     `yaml:"fault_every"`    // Every Nth read fails, 0 disables
	Seed          int64   `yaml:"seed"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Sensor: SensorConfig{
			Source: SourceADS1115,
			Serial: SerialConfig{
				Port:           "/dev/ttyACM0",
				BaudRate:       115200,
				AverageSamples: 0,
				StaleAfter:     5 * time.Second,
			},
			ADS1115: ADS1115Config{
				Bus:       "",
				Address:   0x48,
				Channel:   0,
				FullScale: 5.0,
			},
		},
		Calibration: CalibrationConfig{
			LoadResistance: 10.0,
			ZeroResistance: 76.63,
			ADCReference:   5.0,
		},
		Gases: defaultGases(),
		Acquisition: AcquisitionConfig{
			Period:     2 * time.Second,
			BufferSize: 50,
		},
		Log: LogConfig{
			Dir:       "logs",
			Extension: "csv",
		},
		MQTT: MQTTConfig{
			Enabled:  false,
			Broker:   "tcp://localhost:1883",
			ClientID: "airmon",
			Topic:    "airmon",
			QoS:      0,
		},
		OLED: OLEDConfig{
			Enabled: false,
			Bus:     "",
		},
		Mock: MockConfig{
			Baseline:      0.8,
			Amplitude:     0.2,
			Period:        90,
			NoiseLevel:    0.02,
			EventLevel:    1.2,
			EventEvery:    60,
			EventDuration: 8,
			FaultEvery:    0,
			Seed:          1,
		},
	}
}

func defaultGases() map[string]GasConfig {
	curves := gas.DefaultCurves()
	thresholds := alert.DefaultThresholds()

	m := make(map[string]GasConfig, gas.Count)
	for _, s := range gas.All() {
		m[s.Name()] = GasConfig{
			Coefficient: curves[s].Coefficient,
			Exponent:    curves[s].Exponent,
			Threshold:   thresholds[s],
		}
	}
	return m
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Gas entries are merged per species by ensureDefaults, so decoding must
	// not see the default keys.
	cfg.Gases = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports every problem that would make the configuration unusable.
func (c *Config) Validate() error {
	var errs []error

	switch c.Sensor.Source {
	case SourceADS1115, SourceSerial, SourceMock:
	default:
		errs = append(errs, fmt.Errorf("unknown sensor source %q", c.Sensor.Source))
	}
	if c.Sensor.Source == SourceSerial && c.Sensor.Serial.Port == "" {
		errs = append(errs, errors.New("serial source requires a port"))
	}
	if ch := c.Sensor.ADS1115.Channel; ch < 0 || ch > 3 {
		errs = append(errs, fmt.Errorf("ads1115 channel %d out of range 0..3", ch))
	}

	if c.Calibration.LoadResistance <= 0 {
		errs = append(errs, errors.New("calibration load_resistance must be positive"))
	}
	if c.Calibration.ZeroResistance <= 0 {
		errs = append(errs, errors.New("calibration zero_resistance must be positive"))
	}
	if c.Calibration.ADCReference <= 0 {
		errs = append(errs, errors.New("calibration adc_reference must be positive"))
	}

	for name, g := range c.Gases {
		if _, err := gas.Parse(name); err != nil {
			errs = append(errs, err)
			continue
		}
		if g.Coefficient <= 0 {
			errs = append(errs, fmt.Errorf("gas %s: coefficient must be positive", name))
		}
		if g.Threshold < 0 {
			errs = append(errs, fmt.Errorf("gas %s: threshold must not be negative", name))
		}
	}

	if c.Acquisition.Period <= 0 {
		errs = append(errs, errors.New("acquisition period must be positive"))
	}
	if c.Acquisition.BufferSize <= 0 {
		errs = append(errs, errors.New("acquisition buffer_size must be positive"))
	}

	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt requires a broker"))
	}
	if c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt qos %d out of range 0..2", c.MQTT.QoS))
	}

	return errors.Join(errs...)
}

// Constants returns the calibration circuit constants.
func (c *Config) Constants() calibration.Constants {
	return calibration.Constants{
		LoadResistance: c.Calibration.LoadResistance,
		ZeroResistance: c.Calibration.ZeroResistance,
		ADCReference:   c.Calibration.ADCReference,
	}
}

// Curves returns the calibration curve of every species.
func (c *Config) Curves() gas.Curves {
	curves := gas.DefaultCurves()
	for _, s := range gas.All() {
		if g, ok := c.Gases[s.Name()]; ok {
			curves[s] = gas.Curve{Coefficient: g.Coefficient, Exponent: g.Exponent}
		}
	}
	return curves
}

// Thresholds returns the alert ceiling of every species.
func (c *Config) Thresholds() alert.Thresholds {
	th := alert.DefaultThresholds()
	for _, s := range gas.All() {
		if g, ok := c.Gases[s.Name()]; ok {
			th[s] = g.Threshold
		}
	}
	return th
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.Source == "" {
		c.Sensor.Source = def.Sensor.Source
	}
	if c.Sensor.Serial.Port == "" {
		c.Sensor.Serial.Port = def.Sensor.Serial.Port
	}
	if c.Sensor.Serial.BaudRate == 0 {
		c.Sensor.Serial.BaudRate = def.Sensor.Serial.BaudRate
	}
	if c.Sensor.Serial.StaleAfter == 0 {
		c.Sensor.Serial.StaleAfter = def.Sensor.Serial.StaleAfter
	}
	if c.Sensor.ADS1115.Address == 0 {
		c.Sensor.ADS1115.Address = def.Sensor.ADS1115.Address
	}
	if c.Sensor.ADS1115.FullScale == 0 {
		c.Sensor.ADS1115.FullScale = def.Sensor.ADS1115.FullScale
	}

	if c.Calibration.LoadResistance == 0 {
		c.Calibration.LoadResistance = def.Calibration.LoadResistance
	}
	if c.Calibration.ZeroResistance == 0 {
		c.Calibration.ZeroResistance = def.Calibration.ZeroResistance
	}
	if c.Calibration.ADCReference == 0 {
		c.Calibration.ADCReference = def.Calibration.ADCReference
	}

	c.Gases = mergeGases(c.Gases, def.Gases)

	if c.Acquisition.Period == 0 {
		c.Acquisition.Period = def.Acquisition.Period
	}
	if c.Acquisition.BufferSize == 0 {
		c.Acquisition.BufferSize = def.Acquisition.BufferSize
	}

	if c.Log.Dir == "" {
		c.Log.Dir = def.Log.Dir
	}
	if c.Log.Extension == "" {
		c.Log.Extension = def.Log.Extension
	}

	if c.MQTT.Broker == "" {
		c.MQTT.Broker = def.MQTT.Broker
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.EventDuration == 0 {
		c.Mock.EventDuration = def.Mock.EventDuration
	}
}

// mergeGases rekeys entries by canonical species name and fills missing
// species and zero fields from defaults. Unknown keys are kept so Validate
// can report them.
func mergeGases(in, def map[string]GasConfig) map[string]GasConfig {
	out := make(map[string]GasConfig, gas.Count)
	for name, g := range in {
		s, err := gas.Parse(name)
		if err != nil {
			out[name] = g
			continue
		}
		d := def[s.Name()]
		if g.Coefficient == 0 {
			g.Coefficient = d.Coefficient
		}
		if g.Exponent == 0 {
			g.Exponent = d.Exponent
		}
		if g.Threshold == 0 {
			g.Threshold = d.Threshold
		}
		out[s.Name()] = g
	}
	for _, s := range gas.All() {
		if _, ok := out[s.Name()]; !ok {
			out[s.Name()] = def[s.Name()]
		}
	}
	return out
}
