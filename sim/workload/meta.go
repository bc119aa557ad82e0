package workload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// TopologyMeta is one row of a sweep meta file: a cluster shape together
// with how many failures its trace recorded.
type TopologyMeta struct {
	DisksPerNode int
	NodesPerRack int
	Racks        int
	TotalDisks   int
	Failures     int
	Iterations   int // 0 when the file has no iterations column
}

// ReadTopologyMeta reads a sweep meta CSV from path.
func ReadTopologyMeta(path string) ([]TopologyMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening meta file: %w", err)
	}
	defer f.Close()
	rows, err := ParseTopologyMeta(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ParseTopologyMeta parses rows of
// "#disks/node,#nodes/rack,#racks,#total disks,#failures[,iterations]".
func ParseTopologyMeta(r io.Reader) ([]TopologyMeta, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows []TopologyMeta
	for line := 1; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading meta row %d: %w", line, err)
		}
		if strings.TrimSpace(row[0]) == "#disks/node" {
			continue
		}
		if len(row) < 5 {
			return nil, fmt.Errorf("meta row %d: want at least 5 columns, got %d", line, len(row))
		}
		var vals [6]int
		for i := 0; i < len(row) && i < len(vals); i++ {
			v, err := strconv.Atoi(strings.TrimSpace(row[i]))
			if err != nil {
				return nil, fmt.Errorf("meta row %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}
		rows = append(rows, TopologyMeta{
			DisksPerNode: vals[0],
			NodesPerRack: vals[1],
			Racks:        vals[2],
			TotalDisks:   vals[3],
			Failures:     vals[4],
			Iterations:   vals[5],
		})
	}
	return rows, nil
}
