package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/dustkit/config"
)

// summaryRow is one CSV row of run_summary.csv: the run ID, a phase name
// with its accumulated wall-clock duration, and the package count. Close
// writes one row per recorded phase plus a final "total" row.
type summaryRow struct {
	RunID         string  `csv:"run_id"`
	Phase         string  `csv:"phase"`
	DurationMs    int64   `csv:"duration_ms"`
	PackagesTotal float64 `csv:"packages_total"`
}

// Run tracks one simulation run's identity, phase timing, and output
// files. Grounded on the reference OutputManager's directory-scoped CSV
// writers, simplified to the single-pass shape of a Monte Carlo run:
// there is no rolling per-tick window to flush, so Run writes its
// summary once, at Close.
type Run struct {
	id      string
	dir     string
	timer   *PerfTimer
	started time.Time
}

// NewRun creates a Run rooted at dir. If dir is empty, output is
// disabled and all methods become no-ops, matching the reference
// OutputManager's "nil dir disables output" convention.
func NewRun(dir string) (*Run, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Run{
		id:      uuid.NewString(),
		dir:     dir,
		timer:   NewPerfTimer(),
		started: time.Now(),
	}, nil
}

// ID returns the run's unique identifier.
func (r *Run) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// Dir returns the run's output directory.
func (r *Run) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// Timer returns the run's phase timer. Safe to call on a nil Run; the
// returned timer simply accumulates into nothing that gets written.
func (r *Run) Timer() *PerfTimer {
	if r == nil {
		return NewPerfTimer()
	}
	return r.timer
}

// WriteConfig saves cfg as config.yaml next to the run's other output.
func (r *Run) WriteConfig(cfg *config.Config) error {
	if r == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(r.dir, "config.yaml"))
}

// Close writes run_summary.csv, one row per recorded phase, and the
// total wall-clock duration of the run.
func (r *Run) Close(packagesTotal float64) error {
	if r == nil {
		return nil
	}

	phases := r.timer.Phases()
	rows := make([]*summaryRow, 0, len(phases)+1)
	for _, phase := range phases {
		rows = append(rows, &summaryRow{
			RunID:         r.id,
			Phase:         phase,
			DurationMs:    r.timer.Total(phase).Milliseconds(),
			PackagesTotal: packagesTotal,
		})
	}
	rows = append(rows, &summaryRow{
		RunID:         r.id,
		Phase:         "total",
		DurationMs:    time.Since(r.started).Milliseconds(),
		PackagesTotal: packagesTotal,
	})

	f, err := os.Create(filepath.Join(r.dir, "run_summary.csv"))
	if err != nil {
		return fmt.Errorf("creating run_summary.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("writing run_summary.csv: %w", err)
	}

	r.timer.LogSummary()
	return nil
}
