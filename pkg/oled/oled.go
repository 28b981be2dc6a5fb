package oled

import (
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/itohio/airmon/pkg/acquire"
	"github.com/itohio/airmon/pkg/config"
	"github.com/itohio/airmon/pkg/gas"
)

const (
	Width  = 128
	Height = 64

	lineHeight = 13
)

type display interface {
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Bounds() image.Rectangle
	Halt() error
}

// Panel mirrors the latest reading on a 128x64 SSD1306.
type Panel struct {
	mu  sync.Mutex
	dev display
	bus i2c.BusCloser
}

// Open initializes periph and the display on the configured I2C bus.
func Open(cfg config.OLEDConfig) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("oled: display initialized on bus %q", cfg.Bus)

	p := &Panel{dev: dev, bus: bus}
	if err := p.draw(Splash()); err != nil {
		log.Printf("oled: error showing splash: %v", err)
	}
	return p, nil
}

// OnUpdate is an acquire.Loop callback.
func (p *Panel) OnUpdate(upd *acquire.Update) {
	if err := p.draw(Render(upd)); err != nil {
		log.Printf("oled: %v", err)
	}
}

// Close blanks the display and releases the bus.
func (p *Panel) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev == nil {
		return nil
	}
	if err := p.dev.Halt(); err != nil {
		log.Printf("oled: error halting display: %v", err)
	}
	p.dev = nil
	if p.bus != nil {
		return p.bus.Close()
	}
	return nil
}

func (p *Panel) draw(img image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev == nil {
		return nil
	}
	return p.dev.Draw(p.dev.Bounds(), img, image.Point{})
}

// Splash renders the start-up frame.
func Splash() *image1bit.VerticalLSB {
	return frame("AIR MONITOR", "", "Waiting...")
}

// Render draws one frame: header, one line per species and the alert line.
// The font is ASCII only, so species are shown by name.
func Render(upd *acquire.Update) *image1bit.VerticalLSB {
	lines := []string{fmt.Sprintf("#%d %.3fV", upd.Sample, upd.Voltage)}
	for _, s := range gas.All() {
		lines = append(lines, fmt.Sprintf("%-3s %9.2f ppm", s.Name(), upd.Reading[s]))
	}

	if len(upd.Alerts) == 0 {
		lines = append(lines, "OK")
	} else {
		names := make([]string, 0, len(upd.Alerts))
		for _, a := range upd.Alerts {
			names = append(names, a.Species.Name())
		}
		lines = append(lines, "HIGH "+strings.Join(names, " "))
	}
	return frame(lines...)
}

func frame(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, Width, Height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	for i, line := range lines {
		y := (i + 1) * lineHeight
		if y > Height {
			y = Height - 1
		}
		drawer.Dot = fixed.P(0, y-2)
		drawer.DrawString(line)
	}
	return img
}
