package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/itohio/airmon/pkg/config"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the standard baud rate of the sensor MCU.
	DefaultBaudRate = 115200
	// DefaultStaleAfter is how long a received voltage stays valid.
	DefaultStaleAfter = 5 * time.Second
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads voltages streamed line by line by a microcontroller.
//
// Accepted line formats, optionally prefixed by comma separated fields
// (e.g. a timestamp) of which only the last one is used:
//
//	1234      millivolts
//	1234mV    millivolts
//	1.234     volts
//	1.234V    volts
type Serial struct {
	port       string
	baudRate   int
	window     int
	staleAfter time.Duration

	conn      serial.Port
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	values  []float64 // most recent values, oldest first
	updated time.Time
	now     func() time.Time
}

// NewSerial creates a serial source. Call Connect before reading.
func NewSerial(cfg config.SerialConfig) *Serial {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.AverageSamples <= 0 {
		cfg.AverageSamples = 1
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:       cfg.Port,
		baudRate:   cfg.BaudRate,
		window:     cfg.AverageSamples,
		staleAfter: cfg.StaleAfter,
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fault("failed to open serial port %s: %v", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLines(port)

	return nil
}

// Close closes the port and stops the reader.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	return nil
}

// IsConnected returns whether the port is open.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// ReadVoltage returns the moving average of the most recent lines.
// It fails when nothing arrived within the staleness window.
func (d *Serial) ReadVoltage() (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return 0, fault("serial port %s not connected", d.port)
	}
	if len(d.values) == 0 {
		return 0, fault("no data from %s yet", d.port)
	}
	if age := d.now().Sub(d.updated); age > d.staleAfter {
		return 0, fault("no data from %s for %v", d.port, age.Round(time.Millisecond))
	}

	var sum float64
	for _, v := range d.values {
		sum += v
	}
	return sum / float64(len(d.values)), nil
}

// readLines parses lines from r until it is exhausted or the source closes.
func (d *Serial) readLines(r io.Reader) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(r)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
				log.Printf("Error reading from serial port: %v", err)
			}
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		v, err := parseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}
		d.push(v)
	}
}

// push records a value, keeping at most window values.
func (d *Serial) push(v float64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.values = append(d.values, v)
	if len(d.values) > d.window {
		d.values = d.values[len(d.values)-d.window:]
	}
	d.updated = d.now()
}

// parseLine parses one line sent by the MCU into volts.
func parseLine(line string) (float64, error) {
	parts := strings.Split(line, ",")
	field := strings.TrimSpace(parts[len(parts)-1])

	scale := 1.0
	switch {
	case strings.HasSuffix(field, "mV"):
		field = strings.TrimSpace(strings.TrimSuffix(field, "mV"))
		scale = 0.001
	case strings.HasSuffix(field, "V"):
		field = strings.TrimSpace(strings.TrimSuffix(field, "V"))
	case !strings.ContainsAny(field, ".eE"):
		// Bare integers are millivolts.
		scale = 0.001
	}

	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid voltage: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid voltage: %v", v)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative voltage: %v", v)
	}
	return v * scale, nil
}
