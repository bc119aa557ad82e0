package workload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// FailureEntry is one recorded disk failure.
type FailureEntry struct {
	Disk int
	Time float64 // hours since the start of the trace
}

// ReadFailureTrace reads a failure trace CSV from path.
func ReadFailureTrace(path string) ([]FailureEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening failure trace: %w", err)
	}
	defer f.Close()
	entries, err := ParseFailureTrace(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// ParseFailureTrace parses rows of "disk_total_id,fail_time[,extra]". An
// optional header row and blank lines are skipped.
func ParseFailureTrace(r io.Reader) ([]FailureEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var entries []FailureEntry
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trace row %d: %w", line, err)
		}
		if line == 1 && strings.TrimSpace(row[0]) == "disk_total_id" {
			if len(row) < 2 || strings.TrimSpace(row[1]) != "fail_time" {
				return nil, fmt.Errorf("trace header must start with disk_total_id,fail_time, got %q", strings.Join(row, ","))
			}
			continue
		}
		if len(row) != 2 && len(row) != 3 {
			return nil, fmt.Errorf("trace row %d: want 2 or 3 columns, got %d", line, len(row))
		}
		disk, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("trace row %d: disk id: %w", line, err)
		}
		t, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("trace row %d: fail time: %w", line, err)
		}
		if disk < 0 || t < 0 {
			return nil, fmt.Errorf("trace row %d: negative disk id or time (%d, %v)", line, disk, t)
		}
		entries = append(entries, FailureEntry{Disk: disk, Time: t})
	}
	return entries, nil
}

// Replay extends a trace recorded over period hours to cover mission hours
// by appending copies shifted by period*i for i in [1, mission/period).
func Replay(entries []FailureEntry, mission, period float64) []FailureEntry {
	if period <= 0 || mission <= period {
		return entries
	}
	copies := int(mission / period)
	out := make([]FailureEntry, 0, len(entries)*max(copies, 1))
	out = append(out, entries...)
	for _, e := range entries {
		for i := 1; i < copies; i++ {
			out = append(out, FailureEntry{Disk: e.Disk, Time: e.Time + period*float64(i)})
		}
	}
	return out
}

// LoadFailureTrace reads the trace named by spec and replays it over mission hours.
func LoadFailureTrace(spec FailureSpec, mission float64) ([]FailureEntry, error) {
	entries, err := ReadFailureTrace(spec.TraceFile)
	if err != nil {
		return nil, err
	}
	replayed := Replay(entries, mission, spec.Period())
	logrus.Infof("failure trace %s: %d recorded failures, %d after replay over %.0f h",
		spec.TraceFile, len(entries), len(replayed), mission)
	return replayed, nil
}
