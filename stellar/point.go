package stellar

import (
	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/photon"
	"github.com/pthm-cable/dustkit/random"
)

// PointSource is a degenerate single-point stellar emitter: every package
// launches from the same position with an isotropic direction. Used for
// the "empty dust, one wavelength, one instrument" testable scenario in
// spec.md §8, where the stellar geometry itself is not the thing under
// test.
type PointSource struct {
	position   geom.Vector
	luminosity []float64
	compIndex  int
}

// NewPointSource builds a point source at position with the given
// per-wavelength luminosity table. compIndex is the stellar component
// index tagged on every package this source launches.
func NewPointSource(position geom.Vector, luminosity []float64, compIndex int) *PointSource {
	return &PointSource{position: position, luminosity: luminosity, compIndex: compIndex}
}

func (s *PointSource) Luminosity(ell int) float64 {
	return s.luminosity[ell]
}

func (s *PointSource) Launch(pp *photon.Package, rng *random.Source, ell int, L float64) {
	dir := rng.IsotropicDirection()
	pp.Launch(L, ell, s.position, dir)
	pp.SetStellarOrigin(s.compIndex)
}
