// Package dustgrid defines the grid-path contract — the ordered sequence
// of cell crossings a photon package's position and direction produce —
// and a concrete spherical grid implementation.
package dustgrid

// ExteriorCell is the sentinel cell index for a segment outside the grid.
const ExteriorCell = -1

// Path is the ordered sequence of cell crossings produced by a grid's
// FillPath method. Segments are appended in travel order; cumulative length
// and optical depth are non-decreasing by construction.
//
// A Path is reused across photon package life cycles (Reset, then
// refilled) to amortize the backing-array allocation — it is pre-sized
// at construction from the grid's MaxPathSegments, per spec.md's
// "reusable package object" note.
type Path struct {
	cell  []int     // m(n); ExteriorCell for segments outside the grid
	ds    []float64 // ds(n): segment length
	dtau  []float64 // dtau(n): optical depth contribution, filled by DustSystem
	s     []float64 // s(n): cumulative length at segment end
	tau   []float64 // tau(n): cumulative optical depth at segment end
	valid bool
}

// NewPath allocates a path pre-sized for capacity segments.
func NewPath(capacity int) *Path {
	return &Path{
		cell: make([]int, 0, capacity),
		ds:   make([]float64, 0, capacity),
		dtau: make([]float64, 0, capacity),
		s:    make([]float64, 0, capacity),
		tau:  make([]float64, 0, capacity),
	}
}

// Reset clears the path for reuse without releasing backing storage.
func (p *Path) Reset() {
	p.cell = p.cell[:0]
	p.ds = p.ds[:0]
	p.dtau = p.dtau[:0]
	p.s = p.s[:0]
	p.tau = p.tau[:0]
	p.valid = false
}

// Valid reports whether the path reflects the package's current position
// and direction.
func (p *Path) Valid() bool {
	return p.valid
}

// Invalidate marks the path stale; callers must refill it before using
// cumulative length/tau or per-segment data again.
func (p *Path) Invalidate() {
	p.valid = false
}

// AddSegment appends a geometric crossing (cell index, segment length).
// Optical-depth bookkeeping (dtau/tau) is filled in separately by
// DustSystem.FillOpticalDepth once the grid's raw path is known.
func (p *Path) AddSegment(cell int, ds float64) {
	prevS := 0.0
	if n := len(p.s); n > 0 {
		prevS = p.s[n-1]
	}
	p.cell = append(p.cell, cell)
	p.ds = append(p.ds, ds)
	p.dtau = append(p.dtau, 0)
	p.s = append(p.s, prevS+ds)
	p.tau = append(p.tau, 0)
}

// MarkFilled records that optical depths have been computed for every
// segment (called by DustSystem.FillOpticalDepth after populating Dtau).
func (p *Path) MarkFilled() {
	p.valid = true
}

// N returns the number of segments.
func (p *Path) N() int {
	return len(p.cell)
}

// Cell returns m(n).
func (p *Path) Cell(n int) int {
	return p.cell[n]
}

// Ds returns ds(n).
func (p *Path) Ds(n int) float64 {
	return p.ds[n]
}

// Dtau returns dtau(n).
func (p *Path) Dtau(n int) float64 {
	return p.dtau[n]
}

// SetDtau sets dtau(n) and recomputes the cumulative tau(n) as a running
// sum — called by DustSystem while it walks the segments in order.
func (p *Path) SetDtau(n int, dtau float64) {
	p.dtau[n] = dtau
	prevTau := 0.0
	if n > 0 {
		prevTau = p.tau[n-1]
	}
	p.tau[n] = prevTau + dtau
}

// S returns the cumulative length s(n).
func (p *Path) S(n int) float64 {
	return p.s[n]
}

// Tau returns the cumulative optical depth tau(n).
func (p *Path) Tau(n int) float64 {
	return p.tau[n]
}

// TotalLength returns the cumulative length of the whole path, 0 if empty.
func (p *Path) TotalLength() float64 {
	if n := len(p.s); n > 0 {
		return p.s[n-1]
	}
	return 0
}

// TotalTau returns the cumulative optical depth of the whole path, 0 if
// empty.
func (p *Path) TotalTau() float64 {
	if n := len(p.tau); n > 0 {
		return p.tau[n-1]
	}
	return 0
}

// PathLength returns the cumulative length s at which cumulative tau
// equals target, linearly interpolating within the segment that crosses
// target (constant density within a segment makes tau(s) piecewise
// linear). Returns the total path length if target exceeds TotalTau.
func (p *Path) PathLength(target float64) float64 {
	prevTau, prevS := 0.0, 0.0
	for n := 0; n < len(p.tau); n++ {
		if target <= p.tau[n] {
			dtau := p.tau[n] - prevTau
			if dtau <= 0 {
				return p.s[n]
			}
			frac := (target - prevTau) / dtau
			return prevS + frac*(p.s[n]-prevS)
		}
		prevTau = p.tau[n]
		prevS = p.s[n]
	}
	return p.TotalLength()
}
