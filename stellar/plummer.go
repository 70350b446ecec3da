package stellar

import (
	"math"

	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/photon"
	"github.com/pthm-cable/dustkit/random"
)

// PlummerSource is a spherically symmetric Plummer-sphere stellar
// geometry centered at a given position, emitting isotropically with a flat
// per-wavelength SED scaled by a luminosity table. Grounded on the
// reference Plummer-sphere geometry's density and random-radius sampling.
type PlummerSource struct {
	scale      float64   // c: Plummer scale length
	luminosity []float64 // per wavelength index, W
	center     geom.Vector
	compIndex  int
}

// NewPlummerSource builds a source with Plummer scale length c (>0),
// centered at center, with the given per-wavelength luminosity table.
// compIndex is the stellar component index tagged on every package this
// source launches.
func NewPlummerSource(scale float64, luminosity []float64, center geom.Vector, compIndex int) *PlummerSource {
	return &PlummerSource{scale: scale, luminosity: luminosity, center: center, compIndex: compIndex}
}

func (s *PlummerSource) Luminosity(ell int) float64 {
	return s.luminosity[ell]
}

// randomRadius draws a radius from the Plummer density profile via
// inverse-CDF: r = c·t/√((1-t)(1+t)), t = u^(1/3).
func (s *PlummerSource) randomRadius(u float64) float64 {
	t := math.Cbrt(u)
	return s.scale * t / math.Sqrt((1-t)*(1+t))
}

// Launch samples a position from the Plummer radial profile and an
// isotropic direction, and sets pp to emit L at wavelength ell from that
// position.
func (s *PlummerSource) Launch(pp *photon.Package, rng *random.Source, ell int, L float64) {
	r := s.randomRadius(rng.Uniform())
	dir := rng.IsotropicDirection()
	pos := geom.Add(s.center, geom.Scale(r, dir))
	emissionDir := rng.IsotropicDirection()
	pp.Launch(L, ell, pos, emissionDir)
	pp.SetStellarOrigin(s.compIndex)
}
