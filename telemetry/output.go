package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/sandbox/config"
)

// Manifest identifies one batch of runs.
type Manifest struct {
	ID      string    `yaml:"id"`
	Seed    uint64    `yaml:"seed"`
	Runs    int       `yaml:"runs"`
	Started time.Time `yaml:"started"`
}

// SeriesRow is one sample of a history in long format.
type SeriesRow struct {
	Run   int     `csv:"run"`
	Key   string  `csv:"key"`
	Step  int     `csv:"step"`
	Value float64 `csv:"value"`
}

// csvFile is an output file whose header is written with the first record.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

func writeRecords[T any](c *csvFile, records []T, what string) error {
	if len(records) == 0 {
		return nil
	}
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return fmt.Errorf("writing %s: %w", what, err)
		}
		c.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, c.f); err != nil {
		return fmt.Errorf("writing %s: %w", what, err)
	}
	return nil
}

// OutputManager handles structured experiment output with CSV logging.
type OutputManager struct {
	dir string
	id  uuid.UUID

	telemetry *csvFile
	perf      *csvFile
	agents    *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled). A nil manager accepts every
// write as a no-op.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, id: uuid.New()}
	var err error
	if om.telemetry, err = createCSV(dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if om.perf, err = createCSV(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.agents, err = createCSV(dir, "agents.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// ID returns the batch identifier, or the zero UUID when output is disabled.
func (om *OutputManager) ID() uuid.UUID {
	if om == nil {
		return uuid.Nil
	}
	return om.id
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteManifest saves the batch identity as YAML.
func (om *OutputManager) WriteManifest(seed uint64, runs int, started time.Time) error {
	if om == nil {
		return nil
	}
	data, err := yaml.Marshal(Manifest{ID: om.id.String(), Seed: seed, Runs: runs, Started: started})
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "manifest.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing manifest.yaml: %w", err)
	}
	return nil
}

// WriteTelemetry writes a window stats record to telemetry.csv.
func (om *OutputManager) WriteTelemetry(stats WindowStats) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.telemetry, []WindowStats{stats}, "telemetry")
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, run, windowEnd int) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.perf, []PerfStatsCSV{stats.ToCSV(run, windowEnd)}, "perf")
}

// WriteLifetimes writes per-agent run summaries to agents.csv.
func (om *OutputManager) WriteLifetimes(stats []LifetimeStats) error {
	if om == nil {
		return nil
	}
	return writeRecords(om.agents, stats, "agents")
}

// WriteSeries writes every history of one run to series_run_<run>.csv.
func (om *OutputManager) WriteSeries(run int, s Series) error {
	if om == nil {
		return nil
	}
	var rows []SeriesRow
	for _, k := range s.Keys() {
		for step, v := range s[k] {
			rows = append(rows, SeriesRow{Run: run, Key: k, Step: step, Value: v})
		}
	}
	name := fmt.Sprintf("series_run_%03d.csv", run)
	f, err := createCSV(om.dir, name)
	if err != nil {
		return err
	}
	if err := writeRecords(f, rows, name); err != nil {
		f.f.Close()
		return err
	}
	return f.f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, c := range []*csvFile{om.telemetry, om.perf, om.agents} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
