package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ecsim/ecsim/sim"
	"github.com/ecsim/ecsim/sim/report"
	"github.com/ecsim/ecsim/sim/trace"
)

// OutputConfig controls how results are reported.
type OutputConfig struct {
	Format      string  `yaml:"format"`     // text | json
	Confidence  float64 `yaml:"confidence"` // two-sided level of the relative error
	Results     string  `yaml:"results"`    // sweep CSV, appended to
	TraceLevel  string  `yaml:"trace_level"`
	MetricsAddr string  `yaml:"metrics_addr"` // empty disables the /metrics endpoint
}

// FileConfig is the full YAML configuration file. Every top-level section
// must be listed here to satisfy KnownFields(true) strict parsing.
type FileConfig struct {
	sim.Config `yaml:",inline"`
	Output     OutputConfig `yaml:"output"`
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Config: sim.DefaultConfig(),
		Output: OutputConfig{
			Format:     "text",
			Confidence: report.DefaultConfidence,
			TraceLevel: string(trace.TraceLevelNone),
		},
	}
}

// loadConfig overlays the YAML file at path on the defaults. An empty path
// returns the defaults. Unknown keys are errors so that typos are caught.
func loadConfig(path string) (FileConfig, error) {
	fc := defaultFileConfig()
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fc, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return fc, fc.validateOutput()
}

func (fc FileConfig) validateOutput() error {
	switch fc.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", fc.Output.Format)
	}
	if !trace.IsValidTraceLevel(fc.Output.TraceLevel) {
		return fmt.Errorf("output.trace_level must be none, repairs or events, got %q", fc.Output.TraceLevel)
	}
	if !(fc.Output.Confidence > 0 && fc.Output.Confidence < 1) {
		return fmt.Errorf("output.confidence must be in (0, 1), got %v", fc.Output.Confidence)
	}
	return nil
}
