package scope

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/chewxy/math32"
	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/gas"
	"github.com/itohio/airmon/pkg/history"
)

var (
	// SeriesColors are the line colours of every species.
	SeriesColors = [gas.Count]color.Color{
		gas.CO2: color.RGBA{R: 255, G: 165, B: 0, A: 255},   // Orange
		gas.NH3: color.RGBA{R: 100, G: 200, B: 255, A: 255}, // Light blue
		gas.NOx: color.RGBA{R: 120, G: 220, B: 120, A: 255}, // Green
	}
	// AlertColor marks segments above the species ceiling.
	AlertColor color.Color = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// ChartWidget plots the rolling window of every species against the sample index.
type ChartWidget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu         sync.RWMutex
	snap       history.Snapshot
	thresholds alert.Thresholds
	visible    [gas.Count]bool

	// Auto-scaling
	yMin, yMax, yStep float32
	xMin, xMax        int
}

// New creates a chart. Thresholds select where segments change colour.
func New(thresholds alert.Thresholds) *ChartWidget {
	c := &ChartWidget{
		thresholds: thresholds,
	}
	for i := range c.visible {
		c.visible[i] = true
	}
	c.updateAutoScale()
	c.ExtendBaseWidget(c)
	c.Refresh()
	return c
}

// UpdateData replaces the plotted window.
// This should be called from the acquisition callback using fyne.Do().
func (c *ChartWidget) UpdateData(snap history.Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.updateAutoScale()
	c.mu.Unlock()

	c.Refresh()
}

// SetVisible shows or hides one species.
func (c *ChartWidget) SetVisible(s gas.Species, visible bool) {
	c.mu.Lock()
	c.visible[s] = visible
	c.updateAutoScale()
	c.mu.Unlock()

	c.Refresh()
}

// SetThresholds replaces the ceilings used for alert colouring.
func (c *ChartWidget) SetThresholds(t alert.Thresholds) {
	c.mu.Lock()
	c.thresholds = t
	c.mu.Unlock()

	c.Refresh()
}

// Visible reports whether a species is plotted.
func (c *ChartWidget) Visible(s gas.Species) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.visible[s]
}

// firstFilled returns the index of the oldest slot written by an update.
// Slots with sample index 0 are the zero pre-fill.
func firstFilled(samples []int) int {
	for i, s := range samples {
		if s > 0 {
			return i
		}
	}
	return len(samples)
}

// updateAutoScale calculates axis ranges from current data. Caller holds mu.
func (c *ChartWidget) updateAutoScale() {
	n := c.snap.Len()
	if n == 0 {
		n = history.DefaultCapacity
	}

	// The window scrolls once full; until then it grows from the left.
	last := 0
	if c.snap.Len() > 0 {
		last = c.snap.Samples[c.snap.Len()-1]
	}
	c.xMax = max(last, n)
	c.xMin = c.xMax - n + 1

	var hi float32
	from := firstFilled(c.snap.Samples)
	for _, s := range gas.All() {
		if !c.visible[s] {
			continue
		}
		for _, v := range c.snap.Gases[s][from:] {
			hi = math32.Max(hi, float32(v))
		}
	}

	// Concentrations are never negative; keep zero on the axis.
	c.yMin, c.yMax, c.yStep = niceRange(0, hi*1.1, 5)
}

// CreateRenderer creates the widget renderer.
func (c *ChartWidget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &chartRenderer{
		chart:   c,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}
