package acquire

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/calibration"
	"github.com/itohio/airmon/pkg/datalog"
	"github.com/itohio/airmon/pkg/gas"
	"github.com/itohio/airmon/pkg/history"
	"github.com/itohio/airmon/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource returns scripted voltages. A non-nil entry in errs fails that read.
type fakeSource struct {
	mu     sync.Mutex
	values []float64
	errs   []error
	reads  int
}

func (f *fakeSource) ReadVoltage() (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.reads % len(f.values)
	f.reads++
	if f.errs != nil && f.errs[i] != nil {
		return 0, f.errs[i]
	}
	return f.values[i], nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

type record struct {
	t       time.Time
	voltage float64
	reading gas.Reading
}

type fakeLogger struct {
	mu      sync.Mutex
	records []record
	err     error
}

func (f *fakeLogger) Append(t time.Time, voltage float64, r gas.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record{t, voltage, r})
	return nil
}

func (f *fakeLogger) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

var fixedNow = time.Date(2024, 3, 7, 10, 0, 0, 0, time.Local)

func newLoop(src sensor.Source, logger Logger) *Loop {
	return New(Options{
		Source:     src,
		Model:      calibration.Default(),
		Store:      history.New(50),
		Logger:     logger,
		Thresholds: alert.DefaultThresholds(),
		Now:        func() time.Time { return fixedNow },
	})
}

func TestTick_Fixture(t *testing.T) {
	logger := &fakeLogger{}
	l := newLoop(&fakeSource{values: []float64{2.0}}, logger)

	upd, err := l.Tick()
	require.NoError(t, err)
	require.NotNil(t, upd)

	assert.Equal(t, 1, upd.Sample)
	assert.Equal(t, fixedNow, upd.Time)
	assert.Equal(t, 2.0, upd.Voltage)
	assert.InDelta(t, 10666.81, upd.Reading[gas.CO2], 1e-6)
	assert.InDelta(t, 5768.93, upd.Reading[gas.NH3], 1e-6)
	assert.InDelta(t, 1179.62, upd.Reading[gas.NOx], 1e-6)
	assert.NoError(t, upd.LogErr)

	// All three exceed their ceilings.
	assert.Len(t, upd.Alerts, 3)

	assert.Equal(t, 1, upd.Buffers.Samples[49])
	assert.Equal(t, upd.Reading[gas.CO2], upd.Buffers.Series(gas.CO2)[49])

	require.Equal(t, 1, logger.Len())
	assert.Equal(t, record{fixedNow, 2.0, upd.Reading}, logger.records[0])
}

func TestTick_SampleIncrements(t *testing.T) {
	l := newLoop(&fakeSource{values: []float64{0.5, 1.0}}, nil)

	for i := 1; i <= 60; i++ {
		upd, err := l.Tick()
		require.NoError(t, err)
		assert.Equal(t, i, upd.Sample)
	}
	assert.Equal(t, 60, l.Sample())

	snap := l.Store().Latest()
	assert.Equal(t, 50, snap.Len())
	assert.Equal(t, 11, snap.Samples[0])
	assert.Equal(t, 60, snap.Samples[49])
}

func TestTick_NoAlertBelowThreshold(t *testing.T) {
	// 0.1 V gives CO2 0.68, NH3 1.04, NOx 0.59.
	l := newLoop(&fakeSource{values: []float64{0.1}}, nil)

	upd, err := l.Tick()
	require.NoError(t, err)
	assert.Empty(t, upd.Alerts)
}

func TestTick_Paused(t *testing.T) {
	src := &fakeSource{values: []float64{1.0}}
	logger := &fakeLogger{}
	l := newLoop(src, logger)

	_, err := l.Tick()
	require.NoError(t, err)
	before := l.Store().Latest()

	l.SetPaused(true)
	assert.True(t, l.Paused())
	for _i := 0; _i < 5; _i++ {
		upd, err := l.Tick()
		assert.NoError(t, err)
		assert.Nil(t, upd)
	}

	assert.Equal(t, before, l.Store().Latest())
	assert.Equal(t, 1, logger.Len())
	assert.Equal(t, 1, src.Reads())
	assert.Equal(t, 1, l.Sample())

	assert.False(t, l.TogglePaused())
	upd, err := l.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, upd.Sample)
	assert.True(t, l.TogglePaused())
}

func TestTick_SensorFault(t *testing.T) {
	src := &fakeSource{
		values: []float64{1.0, 0, 1.0},
		errs:   []error{nil, errors.New("i2c timeout"), nil},
	}
	logger := &fakeLogger{}
	l := newLoop(src, logger)

	_, err := l.Tick()
	require.NoError(t, err)
	before := l.Store().Latest()

	upd, err := l.Tick()
	require.Error(t, err)
	assert.Nil(t, upd)
	assert.True(t, errors.Is(err, sensor.ErrFault))
	assert.Equal(t, before, l.Store().Latest())
	assert.Equal(t, 1, logger.Len())
	assert.Equal(t, 1, l.Sample())

	upd, err = l.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, upd.Sample)
}

func TestTick_LogFaultStillBuffers(t *testing.T) {
	logger := &fakeLogger{err: errors.New("disk full")}
	l := newLoop(&fakeSource{values: []float64{1.0}}, logger)

	upd, err := l.Tick()
	require.NoError(t, err)
	require.NotNil(t, upd)
	assert.Error(t, upd.LogErr)
	assert.Equal(t, 1, l.Store().LastSample())
	assert.Equal(t, upd.Reading[gas.NH3], l.Store().Latest().Series(gas.NH3)[49])
}

func TestTick_PreconditionAborts(t *testing.T) {
	store := history.New(10)
	l := New(Options{
		Source: &fakeSource{values: []float64{1.0}},
		Store:  store,
	})

	// Another writer advanced the store behind the loop's back.
	_, err := store.Update(5, gas.Reading{})
	require.NoError(t, err)
	_, err = store.Update(6, gas.Reading{})
	require.NoError(t, err)
	before := store.Latest()

	for _i := 0; _i < 3; _i++ {
		upd, err := l.Tick()
		require.Error(t, err)
		assert.Nil(t, upd)
		assert.True(t, errors.Is(err, history.ErrPrecondition))
		assert.Equal(t, before, store.Latest())
	}
	assert.Equal(t, 0, l.Sample())
}

func TestSetThresholds(t *testing.T) {
	l := newLoop(&fakeSource{values: []float64{1.0}}, nil)

	upd, err := l.Tick()
	require.NoError(t, err)
	assert.Len(t, upd.Alerts, 3)

	l.SetThresholds(alert.Thresholds{gas.CO2: 1e6, gas.NH3: 1e6, gas.NOx: 100})
	upd, err = l.Tick()
	require.NoError(t, err)
	require.Len(t, upd.Alerts, 1)
	assert.Equal(t, gas.NOx, upd.Alerts[0].Species)
}

func TestNew_ContinuesFromStore(t *testing.T) {
	store := history.New(10)
	_, err := store.Update(7, gas.Reading{})
	require.NoError(t, err)

	l := New(Options{Source: &fakeSource{values: []float64{1.0}}, Store: store})
	upd, err := l.Tick()
	require.NoError(t, err)
	assert.Equal(t, 8, upd.Sample)
	assert.Equal(t, alert.DefaultThresholds(), l.Thresholds())
	assert.Equal(t, DefaultPeriod, l.Period())
}

func TestOnUpdate(t *testing.T) {
	l := newLoop(&fakeSource{values: []float64{0.1, 3.0}}, nil)

	var got []*Update
	l.OnUpdate(func(u *Update) { got = append(got, u) })

	l.SetPaused(true)
	_, _ = l.Tick()
	l.SetPaused(false)

	for _i := 0; _i < 2; _i++ {
		_, err := l.Tick()
		require.NoError(t, err)
	}

	require.Len(t, got, 2)
	assert.Empty(t, got[0].Alerts)
	assert.Equal(t, "CO₂ high! | NH₃ high! | NOx high!", alert.Message(got[1].Alerts))
}

func TestTick_WithDatalog(t *testing.T) {
	w, err := datalog.New(t.TempDir(), "csv")
	require.NoError(t, err)
	l := newLoop(&fakeSource{values: []float64{1.0}}, w)

	for _i := 0; _i < 3; _i++ {
		upd, err := l.Tick()
		require.NoError(t, err)
		require.NoError(t, upd.LogErr)
	}
	assert.FileExists(t, w.Path(fixedNow))
}

func TestRun(t *testing.T) {
	src := &fakeSource{values: []float64{1.0}}
	l := New(Options{
		Source: src,
		Period: 5 * time.Millisecond,
	})

	done := make(chan struct{})
	l.OnUpdate(func(u *Update) {
		if u.Sample == 3 {
			close(done)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not tick")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestRun_SurvivesFaults(t *testing.T) {
	src := &fakeSource{
		values: []float64{0, 1.0},
		errs:   []error{errors.New("boom"), nil},
	}
	l := New(Options{Source: src, Period: 5 * time.Millisecond})

	done := make(chan struct{})
	l.OnUpdate(func(u *Update) {
		if u.Sample == 2 {
			close(done)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("loop stopped on sensor fault")
	}
}
