package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/shoal/config"
)

// csvFile is an output file that writes its header with the first record.
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

// write marshals records, which must be a slice of structs.
func (c *csvFile) write(records any) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	// Subsequent writes skip headers
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	flockFile  *csvFile
	perfFile   *csvFile
	eventsFile *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	// Create output directory
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	var err error
	if om.flockFile, err = createCSV(dir, "flock.csv"); err != nil {
		return nil, err
	}
	if om.perfFile, err = createCSV(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.eventsFile, err = createCSV(dir, "events.csv"); err != nil {
		om.Close()
		return nil, err
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	configPath := filepath.Join(om.dir, "config.yaml")
	return cfg.WriteYAML(configPath)
}

// WriteStats writes window stats records to flock.csv.
func (om *OutputManager) WriteStats(stats []WindowStats) error {
	if om == nil || len(stats) == 0 {
		return nil
	}
	if err := om.flockFile.write(stats); err != nil {
		return fmt.Errorf("writing flock stats: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}
	if err := om.perfFile.write(records); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteEvent writes a lifecycle event to events.csv.
func (om *OutputManager) WriteEvent(e Event) error {
	if om == nil {
		return nil
	}
	if err := om.eventsFile.write([]Event{e}); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
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
	for _, c := range []*csvFile{om.flockFile, om.perfFile, om.eventsFile} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
