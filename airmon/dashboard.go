package main

import (
	"context"
	"fmt"
	"image/color"
	"net/url"
	"path/filepath"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/airmon/pkg/acquire"
	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/gas"
	"github.com/itohio/airmon/pkg/scope"
)

var (
	normalColor  = color.RGBA{R: 0, G: 255, B: 255, A: 255} // Cyan
	warningColor = color.RGBA{R: 255, G: 0, B: 255, A: 255} // Magenta
)

// appState holds the dashboard state.
type appState struct {
	mon        *monitor
	configPath string
	window     fyne.Window

	chart    *scope.ChartWidget
	ppm      [gas.Count]*canvas.Text
	warning  *canvas.Text
	status   *widget.Label
	pauseBtn *widget.Button
}

// runDashboard opens the window and acquires until it is closed.
func runDashboard(mon *monitor, configPath string) {
	application := app.NewWithID("com.itohio.airmon")

	window := application.NewWindow("Air Quality Dashboard")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	state := &appState{
		mon:        mon,
		configPath: configPath,
		window:     window,
		chart:      scope.New(mon.loop.Thresholds()),
	}

	title := canvas.NewText("AIR QUALITY DASHBOARD", normalColor)
	title.TextSize = 22
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	window.SetContent(container.NewBorder(
		container.NewVBox(title, createToolbar(state)),
		createReadingsPanel(state),
		nil,
		nil,
		state.chart,
	))

	mon.loop.OnUpdate(func(upd *acquire.Update) {
		fyne.Do(func() {
			state.apply(upd)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	window.SetOnClosed(cancel)
	go mon.loop.Run(ctx)

	window.ShowAndRun()
}

// createToolbar creates the Pause, Open Log Folder, Settings and series toggle controls.
func createToolbar(state *appState) fyne.CanvasObject {
	state.pauseBtn = widget.NewButtonWithIcon("Pause", theme.MediaPauseIcon(), func() {
		handlePause(state)
	})

	logBtn := widget.NewButtonWithIcon("Open Log Folder", theme.FolderOpenIcon(), func() {
		if err := openLogFolder(state.mon.writer.Dir()); err != nil {
			dialog.ShowError(err, state.window)
		}
	})

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	toggles := container.NewHBox()
	for _, s := range gas.All() {
		check := widget.NewCheck(s.Label(), func(on bool) {
			state.chart.SetVisible(s, on)
		})
		check.SetChecked(true)
		toggles.Add(check)
	}

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(state.pauseBtn, logBtn, settingsBtn),
		toggles,
		nil,
	)
}

// createReadingsPanel creates the per-species labels, the warning line and the status line.
func createReadingsPanel(state *appState) fyne.CanvasObject {
	row := container.NewGridWithColumns(gas.Count)
	for _, s := range gas.All() {
		text := canvas.NewText(s.Label()+": -- ppm", normalColor)
		text.TextSize = 20
		text.Alignment = fyne.TextAlignCenter
		state.ppm[s] = text
		row.Add(text)
	}

	state.warning = canvas.NewText("", warningColor)
	state.warning.TextSize = 18
	state.warning.TextStyle = fyne.TextStyle{Bold: true}
	state.warning.Alignment = fyne.TextAlignCenter

	state.status = widget.NewLabel("Waiting for first reading...")

	return container.NewVBox(row, state.warning, state.status)
}

// apply shows one completed tick. Must run on the UI goroutine.
func (state *appState) apply(upd *acquire.Update) {
	state.chart.UpdateData(upd.Buffers)

	for _, s := range gas.All() {
		text := state.ppm[s]
		text.Text = fmt.Sprintf("%s: %s ppm", s.Label(), strconv.FormatFloat(upd.Reading[s], 'f', -1, 64))
		text.Color = normalColor
		if alert.Contains(upd.Alerts, s) {
			text.Color = warningColor
		}
		text.Refresh()
	}

	state.warning.Text = alert.Message(upd.Alerts)
	state.warning.Refresh()

	status := fmt.Sprintf("Sample #%d  %s  %.3f V", upd.Sample, upd.Time.Format("15:04:05"), upd.Voltage)
	if upd.LogErr != nil {
		status += fmt.Sprintf("  (log: %v)", upd.LogErr)
	}
	state.status.SetText(status)
}

// handlePause toggles acquisition and relabels the button.
func handlePause(state *appState) {
	if state.mon.loop.TogglePaused() {
		state.pauseBtn.SetText("Resume")
		state.pauseBtn.SetIcon(theme.MediaPlayIcon())
		state.status.SetText("Paused")
		return
	}
	state.pauseBtn.SetText("Pause")
	state.pauseBtn.SetIcon(theme.MediaPauseIcon())
}

// openLogFolder asks the desktop to show the log directory.
func openLogFolder(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	u := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if err := fyne.CurrentApp().OpenURL(u); err != nil {
		return fmt.Errorf("failed to open %s: %w", abs, err)
	}
	return nil
}
