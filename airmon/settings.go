package main

import (
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/airmon/pkg/config"
	"github.com/itohio/airmon/pkg/gas"
	"github.com/itohio/airmon/pkg/sensor"
)

// showSettingsDialog displays a settings dialog with tabs for the editable configuration.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createThresholdsTab(state),
		createSensorTab(state),
		createCalibrationTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(500, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

func (state *appState) save() {
	if err := state.mon.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createThresholdsTab edits alert ceilings. Changes apply from the next tick.
func createThresholdsTab(state *appState) *container.TabItem {
	cfg := state.mon.cfg
	current := state.mon.loop.Thresholds()

	var entries [gas.Count]*widget.Entry
	form := &widget.Form{}
	for _, s := range gas.All() {
		entries[s] = widget.NewEntry()
		entries[s].SetText(strconv.FormatFloat(current[s], 'f', -1, 64))
		form.Append(s.Label()+" (ppm)", entries[s])
	}

	form.OnSubmit = func() {
		th := state.mon.loop.Thresholds()
		for _, s := range gas.All() {
			if v, err := strconv.ParseFloat(entries[s].Text, 64); err == nil && v > 0 {
				th[s] = v
				g := cfg.Gases[s.Name()]
				g.Threshold = v
				cfg.Gases[s.Name()] = g
			}
		}
		state.mon.loop.SetThresholds(th)
		state.chart.SetThresholds(th)
		state.save()
	}

	return container.NewTabItem("Thresholds", form)
}

// createSensorTab selects the voltage source. Changes apply on restart.
func createSensorTab(state *appState) *container.TabItem {
	cfg := state.mon.cfg

	sourceSelect := widget.NewSelect([]string{config.SourceADS1115, config.SourceSerial, config.SourceMock}, nil)
	sourceSelect.SetSelected(cfg.Sensor.Source)

	// Get available serial ports
	ports, err := sensor.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := cfg.Sensor.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(cfg.Sensor.Serial.AverageSamples))

	channelEntry := widget.NewEntry()
	channelEntry.SetText(strconv.Itoa(cfg.Sensor.ADS1115.Channel))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Source", Widget: sourceSelect},
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Average Samples (0=disabled)", Widget: averageEntry},
			{Text: "ADS1115 Channel", Widget: channelEntry},
		},
		OnSubmit: func() {
			if sourceSelect.Selected != "" {
				cfg.Sensor.Source = sourceSelect.Selected
			}
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
				cfg.Sensor.Serial.Port = selectedPort
			}
			if avg, err := strconv.Atoi(averageEntry.Text); err == nil && avg >= 0 {
				cfg.Sensor.Serial.AverageSamples = avg
			}
			if ch, err := strconv.Atoi(channelEntry.Text); err == nil && ch >= 0 && ch <= 3 {
				cfg.Sensor.ADS1115.Channel = ch
			}
			state.save()
			dialog.ShowInformation("Sensor", "Sensor changes take effect after restart.", state.window)
		},
	}

	return container.NewTabItem("Sensor", form)
}

// createCalibrationTab edits the sensor circuit constants. Changes apply on restart.
func createCalibrationTab(state *appState) *container.TabItem {
	cfg := state.mon.cfg

	loadEntry := widget.NewEntry()
	loadEntry.SetText(strconv.FormatFloat(cfg.Calibration.LoadResistance, 'f', -1, 64))

	zeroEntry := widget.NewEntry()
	zeroEntry.SetText(strconv.FormatFloat(cfg.Calibration.ZeroResistance, 'f', -1, 64))

	vrefEntry := widget.NewEntry()
	vrefEntry.SetText(strconv.FormatFloat(cfg.Calibration.ADCReference, 'f', -1, 64))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Load Resistance RL (kΩ)", Widget: loadEntry},
			{Text: "Clean Air Resistance R0 (kΩ)", Widget: zeroEntry},
			{Text: "ADC Reference (V)", Widget: vrefEntry},
		},
		OnSubmit: func() {
			if rl, err := strconv.ParseFloat(loadEntry.Text, 64); err == nil && rl > 0 {
				cfg.Calibration.LoadResistance = rl
			}
			if r0, err := strconv.ParseFloat(zeroEntry.Text, 64); err == nil && r0 > 0 {
				cfg.Calibration.ZeroResistance = r0
			}
			if vref, err := strconv.ParseFloat(vrefEntry.Text, 64); err == nil && vref > 0 {
				cfg.Calibration.ADCReference = vref
			}
			state.save()
			dialog.ShowInformation("Calibration", "Calibration changes take effect after restart.", state.window)
		},
	}

	return container.NewTabItem("Calibration", form)
}
