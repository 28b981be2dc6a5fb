package datalog

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/airmon/pkg/gas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	w, err := New(dir, "")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, w.Dir())
}

func TestPath(t *testing.T) {
	w, err := New(t.TempDir(), "csv")
	require.NoError(t, err)

	ts := time.Date(2024, 3, 7, 23, 59, 59, 0, time.Local)
	assert.Equal(t, filepath.Join(w.Dir(), "log_2024-03-07.csv"), w.Path(ts))

	w2, err := New(w.Dir(), "txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(w.Dir(), "log_2024-03-08.txt"), w2.Path(ts.Add(time.Second)))
}

func TestAppend_HeaderOnceAndRows(t *testing.T) {
	w, err := New(t.TempDir(), "csv")
	require.NoError(t, err)

	ts := time.Date(2024, 3, 7, 10, 0, 0, 0, time.Local)
	const n = 5
	for i := 0; i < n; i++ {
		err := w.Append(ts.Add(time.Duration(i)*2*time.Second), 1.0, gas.Reading{gas.CO2: 705.52, gas.NH3: 510.12, gas.NOx: 139.04})
		require.NoError(t, err)
	}

	rows := readAll(t, w.Path(ts))
	require.Len(t, rows, n+1)
	assert.Equal(t, []string{"Timestamp", "Voltage", "CO2", "NH3", "NOx"}, rows[0])
	assert.Equal(t, []string{"2024-03-07 10:00:00", "1.000", "705.52", "510.12", "139.04"}, rows[1])
	assert.Equal(t, "2024-03-07 10:00:08", rows[n][0])
}

func TestAppend_ZeroReading(t *testing.T) {
	w, err := New(t.TempDir(), "csv")
	require.NoError(t, err)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	require.NoError(t, w.Append(ts, 0, gas.Reading{}))

	rows := readAll(t, w.Path(ts))
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-01-01 00:00:00", "0.000", "0", "0", "0"}, rows[1])
}

func TestAppend_DayRollover(t *testing.T) {
	w, err := New(t.TempDir(), "csv")
	require.NoError(t, err)

	day1 := time.Date(2024, 3, 7, 23, 59, 59, 0, time.Local)
	day2 := day1.Add(2 * time.Second)
	require.NoError(t, w.Append(day1, 1, gas.Reading{}))
	require.NoError(t, w.Append(day2, 1, gas.Reading{}))

	assert.Len(t, readAll(t, w.Path(day1)), 2)
	assert.Len(t, readAll(t, w.Path(day2)), 2)
}

func TestEnsureHeader_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")

	require.NoError(t, EnsureHeader(path))
	require.NoError(t, EnsureHeader(path))

	rows := readAll(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, Header(), rows[0])
}

func TestEnsureHeader_ExistingFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	require.NoError(t, os.WriteFile(path, []byte("something else\n"), 0o644))

	require.NoError(t, EnsureHeader(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "something else\n", string(data))
}

func TestAppendTo_UnwritableTarget(t *testing.T) {
	w, err := New(t.TempDir(), "csv")
	require.NoError(t, err)

	// Parent of the target is a regular file, so creation fails for any user.
	blocker := filepath.Join(w.Dir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	err = w.AppendTo(filepath.Join(blocker, "log.csv"), time.Now(), 1, gas.Reading{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
}

func TestNew_UnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := New(filepath.Join(blocker, "logs"), "csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
}
