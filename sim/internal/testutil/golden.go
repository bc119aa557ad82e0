// Package testutil provides shared test infrastructure for the simulator:
// the golden mission dataset and float assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one hand-checked mission. Every stripe of the cluster
// must cover every disk so that the outcome does not depend on placement.
type GoldenTestCase struct {
	Name          string         `json:"name"`
	Code          string         `json:"code"`
	N             int            `json:"n"`
	K             int            `json:"k"`
	L             int            `json:"l"`
	Racks         int            `json:"racks"`
	NodesPerRack  int            `json:"nodes_per_rack"`
	DisksPerNode  int            `json:"disks_per_node"`
	Stripes       int64          `json:"stripes"`
	ChunkSizeMB   int64          `json:"chunk_size_mb"`
	CrossRackMBps float64        `json:"cross_rack_mbps"`
	Policy        string         `json:"policy"`
	LazyThreshold int            `json:"lazy_threshold"`
	MissionHours  float64        `json:"mission_hours"`
	Failures      []GoldenInject `json:"failures"`
	Replacements  []GoldenInject `json:"replacements"`
	Metrics       GoldenMetrics  `json:"metrics"`
}

// GoldenInject schedules an event on a disk.
type GoldenInject struct {
	Disk int     `json:"disk"`
	Time float64 `json:"time"`
}

// GoldenMetrics represents the expected outcome of a golden mission.
type GoldenMetrics struct {
	// Exact match
	Termination     string `json:"termination"`
	DataLoss        bool   `json:"data_loss"`
	LostStripes     int    `json:"lost_stripes"`
	LostChunks      int    `json:"lost_chunks"`
	RepairsAdmitted int    `json:"repairs_admitted"`

	// Derived from the simulation clock
	EndTime          float64 `json:"end_time"`
	DownloadChunks   float64 `json:"download_chunks"`
	UnavailableHours float64 `json:"unavailable_hours"`
}

// LoadGoldenDataset reads testdata/goldendataset.json at the repository
// root, located from this file so that any package's tests can call it.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()
	_, here, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("testutil: cannot locate golden.go")
	}
	root := filepath.Join(filepath.Dir(here), "..", "..", "..")
	data, err := os.ReadFile(filepath.Join(root, "testdata", "goldendataset.json"))
	if err != nil {
		t.Fatalf("testutil: %v", err)
	}
	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("testutil: decoding golden dataset: %v", err)
	}
	return &dataset
}

// AssertFloat64Equal fails t when want and got differ by more than relTol
// relative to the larger magnitude.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == got {
		return
	}
	if rel := math.Abs(want-got) / math.Max(math.Abs(want), math.Abs(got)); rel > relTol {
		t.Errorf("%s: got %v, want %v (relative difference %.3g)", name, got, want, rel)
	}
}
