package datalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/itohio/airmon/pkg/gas"
)

const (
	// DefaultDir is where logs are written when no directory is configured.
	DefaultDir = "logs"
	// DefaultExtension is the log file extension.
	DefaultExtension = "csv"

	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// ErrWrite classifies every failure to persist a log record.
var ErrWrite = errors.New("log write failed")

// Header returns the column names of a log file.
func Header() []string {
	cols := []string{"Timestamp", "Voltage"}
	for _, s := range gas.All() {
		cols = append(cols, s.Name())
	}
	return cols
}

// Record formats one log row.
func Record(t time.Time, voltage float64, r gas.Reading) []string {
	row := []string{
		t.Format(timestampLayout),
		strconv.FormatFloat(voltage, 'f', 3, 64),
	}
	for _, s := range gas.All() {
		row = append(row, strconv.FormatFloat(r[s], 'f', -1, 64))
	}
	return row
}

// Writer appends readings to one CSV file per calendar day.
// Files are opened and closed for every row, so a crash loses at most the row
// being written and other processes may read the file at any time.
type Writer struct {
	dir string
	ext string
}

// New creates a writer rooted at dir. The directory is created if missing.
func New(dir, ext string) (*Writer, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if ext == "" {
		ext = DefaultExtension
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: failed to create log directory %s: %v", ErrWrite, dir, err)
	}
	return &Writer{dir: dir, ext: ext}, nil
}

// Dir returns the log directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the log file for the local calendar day of t.
func (w *Writer) Path(t time.Time) string {
	return filepath.Join(w.dir, fmt.Sprintf("log_%s.%s", t.Format(dateLayout), w.ext))
}

// Append writes one row to the file of t's day, creating it with a header
// first if needed.
func (w *Writer) Append(t time.Time, voltage float64, r gas.Reading) error {
	return w.AppendTo(w.Path(t), t, voltage, r)
}

// AppendTo writes one row to an explicit file.
func (w *Writer) AppendTo(path string, t time.Time, voltage float64, r gas.Reading) error {
	if err := EnsureHeader(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: failed to open %s: %v", ErrWrite, path, err)
	}
	if err := writeRow(f, Record(t, voltage, r)); err != nil {
		f.Close()
		return fmt.Errorf("%w: failed to append to %s: %v", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", ErrWrite, path, err)
	}
	return nil
}

// EnsureHeader creates path and writes the header row. If the file already
// exists nothing happens. Creation is exclusive, so concurrent writers never
// produce a second header.
func EnsureHeader(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", ErrWrite, path, err)
	}
	if err := writeRow(f, Header()); err != nil {
		f.Close()
		return fmt.Errorf("%w: failed to write header to %s: %v", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", ErrWrite, path, err)
	}
	return nil
}

func writeRow(f *os.File, row []string) error {
	cw := csv.NewWriter(f)
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
