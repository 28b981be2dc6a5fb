package scope

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/gas"
	"github.com/itohio/airmon/pkg/history"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
)

// chartRenderer renders the chart widget.
type chartRenderer struct {
	chart *ChartWidget

	bg *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// plotArea is the rectangle inside the axes.
type plotArea struct {
	x, y, w, h float32
}

// MinSize returns the minimum size of the widget.
func (r *chartRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 250)
}

// Layout arranges the widget components.
func (r *chartRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.chart.BaseWidget.Refresh()
	}
}

// Refresh rebuilds every line and label from the current data.
func (r *chartRenderer) Refresh() {
	c := r.chart
	c.mu.RLock()
	snap := c.snap
	thresholds := c.thresholds
	visible := c.visible
	yMin, yMax, yStep := c.yMin, c.yMax, c.yStep
	xMin, xMax := c.xMin, c.xMax
	c.mu.RUnlock()

	r.objects = []fyne.CanvasObject{r.bg}

	size := c.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	const (
		marginLeft   = float32(60)
		marginRight  = float32(20)
		marginTop    = float32(20)
		marginBottom = float32(30)
	)
	area := plotArea{
		x: marginLeft,
		y: marginTop,
		w: size.Width - marginLeft - marginRight,
		h: size.Height - marginTop - marginBottom,
	}
	if area.w <= 0 || area.h <= 0 {
		return
	}

	r.drawGrid(area, yMin, yMax, yStep, xMin, xMax)

	from := firstFilled(snap.Samples)
	for _, s := range gas.All() {
		if !visible[s] {
			continue
		}
		r.drawThreshold(area, s, thresholds, yMin, yMax)
		r.drawSeries(area, s, snap, from, thresholds, yMin, yMax, xMin, xMax)
	}
	r.drawLegend(area, visible)
}

// drawGrid draws horizontal ppm lines and vertical sample-index lines.
func (r *chartRenderer) drawGrid(a plotArea, yMin, yMax, yStep float32, xMin, xMax int) {
	for v := yMin; v <= yMax+yStep/2; v += yStep {
		y := a.y + a.h - scaleTo(v, yMin, yMax, a.h)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(a.x, y)
		line.Position2 = fyne.NewPos(a.x+a.w, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(formatPPM(v, yStep), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	xStep := int(niceStep(float32(xMax-xMin), 10))
	if xStep < 1 {
		xStep = 1
	}
	for s := ((xMin + xStep - 1) / xStep) * xStep; s <= xMax; s += xStep {
		x := a.x + scaleTo(float32(s), float32(xMin), float32(xMax), a.w)
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, a.y)
		line.Position2 = fyne.NewPos(x, a.y+a.h)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(strconv.Itoa(s), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-10, a.y+a.h+5))
		r.objects = append(r.objects, text)
	}
}

// drawThreshold draws a faint horizontal line at the ceiling if it is on scale.
func (r *chartRenderer) drawThreshold(a plotArea, s gas.Species, th alert.Thresholds, yMin, yMax float32) {
	v := float32(th[s])
	if v < yMin || v > yMax {
		return
	}
	c := color.RGBAModel.Convert(SeriesColors[s]).(color.RGBA)
	c.A = 90

	y := a.y + a.h - scaleTo(v, yMin, yMax, a.h)
	line := canvas.NewLine(c)
	line.Position1 = fyne.NewPos(a.x, y)
	line.Position2 = fyne.NewPos(a.x+a.w, y)
	line.StrokeWidth = 1
	r.objects = append(r.objects, line)
}

// drawSeries draws one species as connected segments. A segment ending above
// the ceiling is drawn in AlertColor.
func (r *chartRenderer) drawSeries(a plotArea, s gas.Species, snap history.Snapshot, from int, th alert.Thresholds, yMin, yMax float32, xMin, xMax int) {
	values := snap.Gases[s]
	if len(values)-from < 2 {
		return
	}

	pos := func(i int) fyne.Position {
		x := a.x + scaleTo(float32(snap.Samples[i]), float32(xMin), float32(xMax), a.w)
		y := a.y + a.h - scaleTo(float32(values[i]), yMin, yMax, a.h)
		return fyne.NewPos(x, y)
	}

	prev := pos(from)
	for i := from + 1; i < len(values); i++ {
		cur := pos(i)
		col := SeriesColors[s]
		if th.Exceeded(s, values[i]) {
			col = AlertColor
		}
		line := canvas.NewLine(col)
		line.Position1 = prev
		line.Position2 = cur
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
		prev = cur
	}
}

// drawLegend names every visible species in its colour.
func (r *chartRenderer) drawLegend(a plotArea, visible [gas.Count]bool) {
	x := a.x + 10
	for _, s := range gas.All() {
		if !visible[s] {
			continue
		}
		text := canvas.NewText(s.Label(), SeriesColors[s])
		text.TextSize = 11
		text.Move(fyne.NewPos(x, a.y+5))
		r.objects = append(r.objects, text)
		x += 45
	}
}

// Objects returns all canvas objects for rendering.
func (r *chartRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *chartRenderer) Destroy() {}
