package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/itohio/airmon/pkg/acquire"
	"github.com/itohio/airmon/pkg/alert"
	"github.com/itohio/airmon/pkg/gas"
)

// formatUpdate renders one tick for the terminal.
func formatUpdate(upd *acquire.Update) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | Voltage: %.3f V\n", upd.Time.Format("2006-01-02 15:04:05"), upd.Voltage)

	parts := make([]string, 0, gas.Count)
	for _, s := range gas.All() {
		parts = append(parts, fmt.Sprintf("%s: %s ppm", s.Label(), strconv.FormatFloat(upd.Reading[s], 'f', -1, 64)))
	}
	b.WriteString(strings.Join(parts, "  "))

	if msg := alert.Message(upd.Alerts); msg != "" {
		b.WriteString("\n" + msg)
	}
	if upd.LogErr != nil {
		fmt.Fprintf(&b, "\nlog: %v", upd.LogErr)
	}
	return b.String()
}

func consolePrinter(w io.Writer) func(*acquire.Update) {
	return func(upd *acquire.Update) {
		fmt.Fprintf(w, "\n%s\n", formatUpdate(upd))
	}
}
