package workload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFailureTrace(t *testing.T) {
	input := "disk_total_id,fail_time\n3,10.5\n7,200,extra\n\n1,0\n"

	entries, err := ParseFailureTrace(strings.NewReader(input))

	require.NoError(t, err)
	assert.Equal(t, []FailureEntry{{Disk: 3, Time: 10.5}, {Disk: 7, Time: 200}, {Disk: 1, Time: 0}}, entries)
}

func TestParseFailureTrace_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bad header", "disk_total_id,when\n1,2\n"},
		{"too many columns", "1,2,3,4\n"},
		{"one column", "1\n"},
		{"non-numeric disk", "x,2\n"},
		{"non-numeric time", "1,soon\n"},
		{"negative time", "1,-4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFailureTrace(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReplay(t *testing.T) {
	entries := []FailureEntry{{Disk: 1, Time: 5}, {Disk: 2, Time: 90}}

	t.Run("mission within one period is unchanged", func(t *testing.T) {
		assert.Equal(t, entries, Replay(entries, 100, 100))
	})

	t.Run("mission spanning three periods", func(t *testing.T) {
		got := Replay(entries, 350, 100)
		assert.Equal(t, []FailureEntry{
			{Disk: 1, Time: 5}, {Disk: 2, Time: 90},
			{Disk: 1, Time: 105}, {Disk: 1, Time: 205},
			{Disk: 2, Time: 190}, {Disk: 2, Time: 290},
		}, got)
	})
}

func TestLoadFailureTrace_ReadsAndReplays(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte("disk_total_id,fail_time\n0,1\n"), 0o644))

	entries, err := LoadFailureTrace(FailureSpec{TraceFile: path, ReplayPeriod: 10}, 30)

	require.NoError(t, err)
	assert.Equal(t, []FailureEntry{{Disk: 0, Time: 1}, {Disk: 0, Time: 11}, {Disk: 0, Time: 21}}, entries)

	_, err = LoadFailureTrace(FailureSpec{TraceFile: filepath.Join(t.TempDir(), "missing.csv")}, 30)
	assert.Error(t, err)
}
