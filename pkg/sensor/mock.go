package sensor

import (
	"math"
	"math/rand"
	"sync"

	"github.com/itohio/airmon/pkg/config"
)

// Mock simulates an MQ-135 board for testing and development.
// The output depends only on the configuration and the number of reads.
type Mock struct {
	cfg  config.MockConfig
	vref float64

	mu     sync.Mutex
	rng    *rand.Rand
	reads  int
	closed bool
}

// NewMock creates a simulated source. vref bounds the produced voltage.
func NewMock(cfg *config.MockConfig, vref float64) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	if vref <= 0 {
		vref = 5.0
	}

	return &Mock{
		cfg:  *cfg,
		vref: vref,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
	}
}

// ReadVoltage returns the next simulated voltage.
func (m *Mock) ReadVoltage() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, fault("mock source closed")
	}

	m.reads++
	n := m.reads

	// Noise is drawn even for failed reads so faults do not shift the series.
	noise := (m.rng.Float64()*2 - 1) * m.cfg.NoiseLevel

	if m.cfg.FaultEvery > 0 && n%m.cfg.FaultEvery == 0 {
		return 0, fault("simulated read failure #%d", n)
	}

	v := m.cfg.Baseline + noise
	if m.cfg.Period > 0 {
		v += m.cfg.Amplitude * math.Sin(2*math.Pi*float64(n)/float64(m.cfg.Period))
	}
	if m.inEvent(n) {
		v += m.cfg.EventLevel
	}

	// Keep strictly inside the ADC range, like a real divider would.
	lo, hi := 0.001, m.vref*0.98
	return math.Max(lo, math.Min(hi, v)), nil
}

// inEvent reports whether read n falls into a simulated gas release.
func (m *Mock) inEvent(n int) bool {
	if m.cfg.EventEvery <= 0 || n < m.cfg.EventEvery {
		return false
	}
	return n%m.cfg.EventEvery < m.cfg.EventDuration
}

// Close stops the source. Further reads fail.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
