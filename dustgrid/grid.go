package dustgrid

import "github.com/pthm-cable/dustkit/geom"

// Grid is the dust-grid capability contract: given a position it finds the
// owning cell, and given a position and direction it produces the ordered
// geometric path of cell crossings. Concrete grid topologies (spherical,
// cartesian, adaptive) satisfy this with their own traversal algorithm but
// the same segment bookkeeping (Path).
type Grid interface {
	// WhichCell returns the index of the cell containing r, or
	// ExteriorCell if r lies outside the grid.
	WhichCell(r geom.Vector) int

	// FillPath resets path and appends the ordered sequence of cell
	// crossings starting at r travelling along unit direction k. Filling
	// into a caller-owned Path (rather than allocating a new one) is what
	// lets a photon package's path storage be reused across its whole
	// life cycle. Only the geometric crossings (Ds, Cell, S) are set —
	// dtau/tau are filled in separately by DustSystem.FillOpticalDepth.
	FillPath(path *Path, r geom.Vector, k geom.Vector) error

	// Ncells returns the number of interior cells.
	Ncells() int

	// Volume returns the volume of cell m.
	Volume(m int) float64

	// RandomPosition draws a uniformly distributed position within cell m.
	RandomPosition(m int, u1, u2, u3 float64) geom.Vector

	// CentralPosition returns a representative position within cell m.
	CentralPosition(m int) geom.Vector

	// Dimension returns 1, 2, or 3 depending on the grid's symmetry.
	Dimension() int

	// MaxPathSegments returns an upper bound on the number of segments any
	// Path through this grid can contain, used to pre-size reusable paths.
	MaxPathSegments() int
}
