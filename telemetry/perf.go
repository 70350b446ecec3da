package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// Phase names for the kernel's work-unit life cycle, mirroring the
// reference engine's per-system phase breakdown but scoped to the
// Monte Carlo transport loop's stages instead of a tick's subsystems.
const (
	PhaseEmission   = "emission"
	PhaseTransport  = "transport"
	PhaseScattering = "scattering"
	PhaseOutput     = "output"
)

// PerfTimer accumulates wall-clock duration per named phase across a
// whole run. A radiative transfer run is one pass through a handful of
// phases rather than thousands of repeated ticks, so unlike the
// reference PerfCollector's rolling per-tick window, PerfTimer simply
// sums durations until the run ends. Safe for concurrent Add calls from
// dispatcher workers.
type PerfTimer struct {
	mu     sync.Mutex
	totals map[string]time.Duration
	order  []string
}

// NewPerfTimer creates an empty PerfTimer.
func NewPerfTimer() *PerfTimer {
	return &PerfTimer{totals: make(map[string]time.Duration)}
}

// Add records dur against phase, accumulating across repeated calls.
func (p *PerfTimer) Add(phase string, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.totals[phase]; !ok {
		p.order = append(p.order, phase)
	}
	p.totals[phase] += dur
}

// Time runs fn, recording its wall-clock duration against phase.
func (p *PerfTimer) Time(phase string, fn func()) {
	start := time.Now()
	fn()
	p.Add(phase, time.Since(start))
}

// Total returns the accumulated duration for phase.
func (p *PerfTimer) Total(phase string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals[phase]
}

// Phases returns the phase names in first-seen order.
func (p *PerfTimer) Phases() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// LogSummary emits one structured log line per recorded phase, with its
// share of the total recorded time.
func (p *PerfTimer) LogSummary() {
	p.mu.Lock()
	defer p.mu.Unlock()
	var grandTotal time.Duration
	for _, d := range p.totals {
		grandTotal += d
	}
	for _, phase := range p.order {
		d := p.totals[phase]
		pct := 0.0
		if grandTotal > 0 {
			pct = float64(d) / float64(grandTotal) * 100
		}
		slog.Info("phase", "name", phase, "duration_ms", d.Milliseconds(), "pct", int(pct*10)/10.0)
	}
}
