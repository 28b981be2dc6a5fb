package main

import (
	"fmt"
	"log"
	"os"

	"github.com/itohio/airmon/pkg/acquire"
	"github.com/itohio/airmon/pkg/calibration"
	"github.com/itohio/airmon/pkg/config"
	"github.com/itohio/airmon/pkg/datalog"
	"github.com/itohio/airmon/pkg/history"
	"github.com/itohio/airmon/pkg/oled"
	"github.com/itohio/airmon/pkg/publish"
	"github.com/itohio/airmon/pkg/sensor"
)

// monitor owns the acquisition chain and every optional output.
type monitor struct {
	cfg       *config.Config
	source    sensor.Source
	writer    *datalog.Writer
	loop      *acquire.Loop
	publisher *publish.Publisher
	panel     *oled.Panel
}

func newMonitor(cfg *config.Config) (*monitor, error) {
	source, err := sensor.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s sensor: %w", cfg.Sensor.Source, err)
	}

	writer, err := datalog.New(cfg.Log.Dir, cfg.Log.Extension)
	if err != nil {
		source.Close()
		return nil, err
	}

	loop := acquire.New(acquire.Options{
		Source:     source,
		Model:      calibration.New(cfg.Constants(), cfg.Curves()),
		Store:      history.New(cfg.Acquisition.BufferSize),
		Logger:     writer,
		Thresholds: cfg.Thresholds(),
		Period:     cfg.Acquisition.Period,
	})
	loop.OnUpdate(consolePrinter(os.Stdout))

	m := &monitor{
		cfg:    cfg,
		source: source,
		writer: writer,
		loop:   loop,
	}

	// Optional outputs never prevent acquisition.
	if cfg.MQTT.Enabled {
		p, err := publish.Connect(cfg.MQTT)
		if err != nil {
			log.Printf("MQTT disabled: %v", err)
		} else {
			m.publisher = p
			loop.OnUpdate(p.OnUpdate)
		}
	}
	if cfg.OLED.Enabled {
		panel, err := oled.Open(cfg.OLED)
		if err != nil {
			log.Printf("OLED disabled: %v", err)
		} else {
			m.panel = panel
			loop.OnUpdate(panel.OnUpdate)
		}
	}

	return m, nil
}

// Close releases the sensor and outputs.
func (m *monitor) Close() {
	if m.panel != nil {
		if err := m.panel.Close(); err != nil {
			log.Printf("Error closing OLED: %v", err)
		}
	}
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			log.Printf("Error closing MQTT: %v", err)
		}
	}
	if err := m.source.Close(); err != nil {
		log.Printf("Error closing sensor: %v", err)
	}
}
