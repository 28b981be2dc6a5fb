package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/airmon/pkg/config"
)

func main() {
	var (
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		portFlag           = flag.String("p", "", "Serial port override (e.g., /dev/ttyACM0); selects the serial source")
		mockFlag           = flag.Bool("mock", false, "Use simulated sensor instead of hardware")
		headlessFlag       = flag.Bool("headless", false, "Run without the dashboard, printing readings only")
		logDirFlag         = flag.String("log-dir", "", "Directory for CSV logs (overrides config)")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of serial lines to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line overrides
	if *portFlag != "" {
		cfg.Sensor.Source = config.SourceSerial
		cfg.Sensor.Serial.Port = *portFlag
	}
	if *mockFlag {
		cfg.Sensor.Source = config.SourceMock
	}
	if *logDirFlag != "" {
		cfg.Log.Dir = *logDirFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Sensor.Serial.AverageSamples = *averageSamplesFlag
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	mon, err := newMonitor(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer mon.Close()

	if *headlessFlag {
		runHeadless(mon)
		return
	}
	runDashboard(mon, *configFlag)
}

// runHeadless acquires until interrupted.
func runHeadless(mon *monitor) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Acquiring every %v from %s source, logging to %s\n", mon.loop.Period(), mon.cfg.Sensor.Source, mon.writer.Dir())
	if err := mon.loop.Run(ctx); err != nil {
		log.Printf("Acquisition stopped: %v", err)
	}
}
