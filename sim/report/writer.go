package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// CSVHeader is the first row of a sweep results file.
var CSVHeader = []string{"#disks/node", "#nodes/rack", "#racks", "#total disks", "#failures", "PDL", "RE", "NOMDL"}

// Point identifies a sweep row.
type Point struct {
	DisksPerNode int
	NodesPerRack int
	Racks        int
	TotalDisks   int
	Failures     int
}

// WriteText prints the summary as tab-separated label/value lines. PDL is
// highlighted when data was lost. chunkSizeMB converts lost chunks to bytes.
func WriteText(w io.Writer, s Summary, chunkSizeMB int64) error {
	pdl := color.New(color.FgGreen)
	if s.DataLoss > 0 {
		pdl = color.New(color.FgRed, color.Bold)
	}
	lostBytes := uint64(max(s.LostChunks, 0)) * uint64(max(chunkSizeMB, 0)) * humanize.MiByte
	lines := []struct {
		label string
		value string
	}{
		{"Missions", humanize.Comma(s.Missions)},
		{"Missions with data loss", humanize.Comma(s.DataLoss)},
		{"Lost stripes", humanize.Comma(s.LostStripes)},
		{"Lost chunks", fmt.Sprintf("%s (%s)", humanize.Comma(s.LostChunks), humanize.IBytes(lostBytes))},
		{"PDL", pdl.Sprintf("%.6f", s.PDL)},
		{"RE", fmt.Sprintf("%.6f (%.0f%% confidence)", s.RE, s.Confidence*100)},
		{"NOMDL", fmt.Sprintf("%e", s.NOMDL)},
		{"Repairs per mission", humanize.FormatFloat("#,###.##", s.RepairsPerMission)},
		{"Cross-rack chunks per mission", humanize.FormatFloat("#,###.##", s.DownloadPerMission)},
		{"Unavailable disk-hours per mission", humanize.FormatFloat("#,###.##", s.UnavailablePerMission)},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", l.label, l.value); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// csvRow formats one sweep row: probabilities fixed to six decimals, NOMDL
// in scientific notation.
func csvRow(p Point, s Summary) []string {
	return []string{
		strconv.Itoa(p.DisksPerNode),
		strconv.Itoa(p.NodesPerRack),
		strconv.Itoa(p.Racks),
		strconv.Itoa(p.TotalDisks),
		strconv.Itoa(p.Failures),
		strconv.FormatFloat(s.PDL, 'f', 6, 64),
		strconv.FormatFloat(s.RE, 'f', 6, 64),
		strconv.FormatFloat(s.NOMDL, 'e', 6, 64),
	}
}

// WriteCSV writes one row, preceded by CSVHeader when header is true.
func WriteCSV(w io.Writer, header bool, p Point, s Summary) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
	}
	if err := cw.Write(csvRow(p, s)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// AppendCSV appends one row to the results file at path, writing the header
// first if the file is new or empty.
func AppendCSV(path string, p Point, s Summary) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat results: %w", err)
	}
	return WriteCSV(f, info.Size() == 0, p, s)
}
