package kernel

import (
	"sync/atomic"
	"time"

	"github.com/pthm-cable/dustkit/telemetry"
)

// logInterval is the minimum time between progress log lines, per
// spec.md §5: "progress log is emitted when a 3-second timer elapses".
const logInterval = 3 * time.Second

// progress is the kernel's single monotonic Ndone counter, shared by
// every worker of one phase. fetch-add is the only synchronized
// operation: the log trigger reads lastLog without locking, so two
// workers racing past the 3-second mark concurrently may both emit a
// line — accepted per spec.md §5's "the timer is read without locking;
// duplicate messages are permitted".
type progress struct {
	done    atomic.Int64
	total   int64
	phase   string
	lastLog atomic.Int64 // UnixNano of the last emitted log line
}

func newProgress(phase string, total int64) *progress {
	p := &progress{phase: phase, total: total}
	p.lastLog.Store(time.Now().UnixNano())
	return p
}

// add advances Ndone by delta and logs progress if the 3-second timer
// has elapsed since the last log line.
func (p *progress) add(delta int64) {
	after := p.done.Add(delta)
	now := time.Now()
	last := p.lastLog.Load()
	if now.Sub(time.Unix(0, last)) < logInterval {
		return
	}
	p.lastLog.Store(now.UnixNano())
	pct := 100 * float64(after) / float64(p.total)
	telemetry.Logf("%s: %d/%d packages (%.1f%%)", p.phase, after, p.total, pct)
}

// Done reports the current Ndone value.
func (p *progress) Done() int64 {
	return p.done.Load()
}
