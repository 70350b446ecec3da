package dustgrid

import (
	"fmt"
	"math"
	"sort"

	"github.com/pthm-cable/dustkit/geom"
)

// SphericalGrid is a 1-D concentric-shell dust grid: cell m is the shell
// between radii shellRadii[m] and shellRadii[m+1]. It implements the
// traversal algorithm of the grid-path routine (binary-search shell
// lookup, inward traversal to the tangent shell, outward traversal to the
// outer boundary), following the reference shell-grid implementation.
type SphericalGrid struct {
	shellRadii []float64 // Nr+1 boundaries, shellRadii[0] == 0
	rMax       float64
}

// NewSphericalGrid builds a grid from Nr+1 strictly increasing shell
// boundaries starting at 0.
func NewSphericalGrid(shellRadii []float64) (*SphericalGrid, error) {
	if len(shellRadii) < 2 {
		return nil, fmt.Errorf("dustgrid: spherical grid needs at least 2 shell boundaries")
	}
	if shellRadii[0] != 0 {
		return nil, fmt.Errorf("dustgrid: spherical grid must start at radius 0")
	}
	for i := 1; i < len(shellRadii); i++ {
		if shellRadii[i] <= shellRadii[i-1] {
			return nil, fmt.Errorf("dustgrid: shell boundaries must be strictly increasing (index %d)", i)
		}
	}
	return &SphericalGrid{
		shellRadii: shellRadii,
		rMax:       shellRadii[len(shellRadii)-1],
	}, nil
}

// nr is the number of shells (cells).
func (g *SphericalGrid) nr() int {
	return len(g.shellRadii) - 1
}

func (g *SphericalGrid) Ncells() int {
	return g.nr()
}

func (g *SphericalGrid) Dimension() int {
	return 1
}

func (g *SphericalGrid) MaxPathSegments() int {
	return 2*g.nr() + 2
}

// whichShell returns the shell index containing radius r, -1 if r<0, Nr
// if r>rMax — a binary search over shellRadii.
func (g *SphericalGrid) whichShell(r float64) int {
	if r < 0 {
		return -1
	}
	if r > g.rMax {
		return g.nr()
	}
	// sort.Search finds the first index i with shellRadii[i] > r; the
	// containing shell is one below that, matching the reference
	// il/iu binary search.
	i := sort.Search(len(g.shellRadii), func(i int) bool { return g.shellRadii[i] > r })
	return i - 1
}

func (g *SphericalGrid) WhichCell(r geom.Vector) int {
	i := g.whichShell(geom.Norm(r))
	if i < 0 || i >= g.nr() {
		return ExteriorCell
	}
	return i
}

func (g *SphericalGrid) Volume(m int) float64 {
	if m < 0 || m >= g.nr() {
		return 0
	}
	rL, rR := g.shellRadii[m], g.shellRadii[m+1]
	return 4.0 * math.Pi / 3.0 * (rR - rL) * (rR*rR + rR*rL + rL*rL)
}

func (g *SphericalGrid) CentralPosition(m int) geom.Vector {
	r := (g.shellRadii[m] + g.shellRadii[m+1]) / 2.0
	return geom.New(r, 0, 0)
}

func (g *SphericalGrid) RandomPosition(m int, u1, u2, u3 float64) geom.Vector {
	cosTheta := 2*u1 - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * u2
	dir := geom.New(sinTheta*math.Cos(phi), sinTheta*math.Sin(phi), cosTheta)
	rL, rR := g.shellRadii[m], g.shellRadii[m+1]
	r := math.Cbrt(rL*rL*rL + (rR*rR*rR-rL*rL*rL)*u3)
	return geom.Scale(r, dir)
}

// FillPath implements the grid-path algorithm of spec.md §4.2, filling
// the caller-owned path in place.
func (g *SphericalGrid) FillPath(path *Path, bfr, bfk geom.Vector) error {
	path.Reset()

	r := geom.Norm(bfr)
	q := geom.Dot(bfr, bfk)
	p := math.Sqrt(math.Max(0, (r-q)*(r+q)))

	if r > g.rMax {
		if q > 0.0 || p > g.rMax {
			return nil // never crosses the grid; path stays empty
		}
		eps := 1e-8 * (g.shellRadii[g.nr()] - g.shellRadii[g.nr()-1])
		r = g.rMax - eps
		// The near intersection of the ray with the outer sphere lies on the
		// negative branch of s+q = ±sqrt(rmax^2-p^2): q is negative here (the
		// ray approaches but hasn't yet reached closest approach), so the
		// first crossing into the grid is at -sqrt(...), not +sqrt(...).
		qMax := -math.Sqrt(math.Max(0, (g.rMax-p)*(g.rMax+p)))
		path.AddSegment(ExteriorCell, qMax-q)
		q = qMax
	}

	i := g.whichShell(r)
	if i == -1 || i == g.nr() {
		return fmt.Errorf("dustgrid: photon package starts outside the dust grid")
	}

	// Inward traversal down to the shell containing the tangent point p.
	if q < 0.0 {
		iMin := g.whichShell(p)
		for i > iMin {
			rN := g.shellRadii[i]
			qN := -math.Sqrt(math.Max(0, (rN-p)*(rN+p)))
			path.AddSegment(i, qN-q)
			i--
			q = qN
		}
	}

	// Outward traversal to the grid boundary. The loop must add a segment
	// for shell Nr-1 itself before returning, so it checks for the last
	// shell after adding rather than before.
	for {
		rN := g.shellRadii[i+1]
		qN := math.Sqrt(math.Max(0, (rN-p)*(rN+p)))
		path.AddSegment(i, qN-q)
		if i == g.nr()-1 {
			return nil
		}
		i++
		q = qN
	}
}
