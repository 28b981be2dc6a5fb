package acquire

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/calibration"
	"github.com/itohio/airmon/pkg/gas"
	"github.com/itohio/airmon/pkg/history"
	"github.com/itohio/airmon/pkg/sensor"
)

// DefaultPeriod is the acquisition tick interval.
const DefaultPeriod = 2 * time.Second

// Logger persists one record per tick.
type Logger interface {
	Append(t time.Time, voltage float64, r gas.Reading) error
}

// Options configures a Loop. Source, Model and Store are required.
type Options struct {
	Source     sensor.Source
	Model      *calibration.Model
	Store      *history.Store
	Logger     Logger // optional
	Thresholds alert.Thresholds
	Period     time.Duration
	Now        func() time.Time
}

// Update is everything produced by one completed tick.
type Update struct {
	Sample  int
	Time    time.Time
	Voltage float64
	Reading gas.Reading
	Buffers history.Snapshot
	Alerts  []alert.Alert
	LogErr  error // non-nil when the record could not be persisted
}

// Loop drives acquisition: read, calibrate, persist, buffer, evaluate and
// notify. Tick is the only writer of the store.
type Loop struct {
	opts Options

	tickMu sync.Mutex
	sample int

	paused atomic.Bool

	callbacks []func(*Update)
	cbMu      sync.RWMutex
}

// New creates a loop. The sample counter continues from the store.
func New(opts Options) *Loop {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Model == nil {
		opts.Model = calibration.Default()
	}
	if opts.Store == nil {
		opts.Store = history.New(history.DefaultCapacity)
	}
	if opts.Thresholds == (alert.Thresholds{}) {
		opts.Thresholds = alert.DefaultThresholds()
	}

	return &Loop{
		opts:   opts,
		sample: opts.Store.LastSample(),
	}
}

// Store returns the rolling buffers written by the loop.
func (l *Loop) Store() *history.Store {
	return l.opts.Store
}

// Thresholds returns the alert ceilings in use.
func (l *Loop) Thresholds() alert.Thresholds {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	return l.opts.Thresholds
}

// SetThresholds replaces the alert ceilings from the next tick on.
func (l *Loop) SetThresholds(t alert.Thresholds) {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	l.opts.Thresholds = t
}

// Period returns the tick interval.
func (l *Loop) Period() time.Duration {
	return l.opts.Period
}

// Sample returns the index of the last completed tick.
func (l *Loop) Sample() int {
	l.tickMu.Lock()
	defer l.tickMu.Unlock()
	return l.sample
}

// SetPaused suspends or resumes acquisition. While paused ticks do nothing.
func (l *Loop) SetPaused(paused bool) {
	l.paused.Store(paused)
}

// Paused reports whether acquisition is suspended.
func (l *Loop) Paused() bool {
	return l.paused.Load()
}

// TogglePaused flips the pause flag and returns the new state.
func (l *Loop) TogglePaused() bool {
	for {
		old := l.paused.Load()
		if l.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// OnUpdate registers a callback invoked after every completed tick.
// Callbacks run on the ticking goroutine and must not block.
func (l *Loop) OnUpdate(callback func(*Update)) {
	l.cbMu.Lock()
	defer l.cbMu.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// Tick performs one acquisition step.
// It returns (nil, nil) when paused. A read failure returns an error wrapping
// sensor.ErrFault and leaves all state untouched. A log failure does not stop
// the tick; it is reported in Update.LogErr.
func (l *Loop) Tick() (*Update, error) {
	if l.Paused() {
		return nil, nil
	}

	l.tickMu.Lock()
	upd, err := l.tickLocked()
	l.tickMu.Unlock()
	if err != nil {
		return nil, err
	}

	l.notifyCallbacks(upd)
	return upd, nil
}

func (l *Loop) tickLocked() (*Update, error) {
	v, err := l.opts.Source.ReadVoltage()
	if err != nil {
		if !errors.Is(err, sensor.ErrFault) {
			err = fmt.Errorf("%w: %w", sensor.ErrFault, err)
		}
		return nil, err
	}
	if !l.opts.Model.InRange(v) {
		log.Printf("acquire: voltage %.3f V outside ADC range, concentrations clamped", v)
	}

	sample := l.sample + 1
	now := l.opts.Now()
	r := l.opts.Model.Convert(v)

	var logErr error
	if l.opts.Logger != nil {
		if logErr = l.opts.Logger.Append(now, v, r); logErr != nil {
			log.Printf("acquire: %v", logErr)
		}
	}

	snap, err := l.opts.Store.Update(sample, r)
	if err != nil {
		return nil, err
	}
	l.sample = sample

	return &Update{
		Sample:  sample,
		Time:    now,
		Voltage: v,
		Reading: r,
		Buffers: snap,
		Alerts:  alert.Evaluate(r, l.opts.Thresholds),
		LogErr:  logErr,
	}, nil
}

// Run ticks every period until ctx is done. Recoverable faults are logged and
// never stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.opts.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.runTick()
		}
	}
}

func (l *Loop) runTick() {
	_, err := l.Tick()
	switch {
	case err == nil:
	case errors.Is(err, history.ErrPrecondition):
		log.Printf("acquire: BUG: %v", err)
	default:
		log.Printf("acquire: skipping tick: %v", err)
	}
}

func (l *Loop) notifyCallbacks(upd *Update) {
	l.cbMu.RLock()
	callbacks := make([]func(*Update), len(l.callbacks))
	copy(callbacks, l.callbacks)
	l.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(upd)
		}
	}
}
