// Package photon implements the photon package: the mutable carrier the
// kernel launches, peels off, propagates, and scatters through one life
// cycle at a time.
package photon

import (
	"github.com/pthm-cable/dustkit/dustgrid"
	"github.com/pthm-cable/dustkit/geom"
)

// AngularDistribution biases emission luminosity by observation direction
// for anisotropic sources (e.g. limb-darkened stars). Concrete sources
// attach one when they need direction-dependent emission; most do not.
type AngularDistribution interface {
	// Weight returns the bias factor w_bias(kObs) applied to L at
	// emission peel-off.
	Weight(kObs geom.Vector) float64
}

// Package is the mutable photon-package carrier of spec.md §3/§4.1. A
// Package is reused across life cycles (Launch resets it) so its
// embedded Path keeps its backing storage — the allocation-amortizing
// pattern spec.md's design notes call for.
type Package struct {
	l       float64 // L: luminosity, W
	ell     int     // wavelength index
	bfr     geom.Vector
	bfk     geom.Vector
	nScatt  int
	stellar int // -1 for dust emission, else emitting stellar component index
	ad      AngularDistribution

	path *dustgrid.Path
}

// New builds a Package with a path pre-sized to hold capacity segments
// (the grid's MaxPathSegments()).
func New(pathCapacity int) *Package {
	return &Package{
		stellar: -1,
		path:    dustgrid.NewPath(pathCapacity),
	}
}

// Launch resets pp to a fresh life cycle with luminosity L at wavelength
// ell, starting position bfr and direction bfk. nScatt resets to 0, the
// stellar tag resets to dust-emission (-1), any angular distribution is
// cleared, and the path is invalidated.
func (pp *Package) Launch(L float64, ell int, bfr, bfk geom.Vector) {
	pp.l = L
	pp.ell = ell
	pp.bfr = bfr
	pp.bfk = bfk
	pp.nScatt = 0
	pp.stellar = -1
	pp.ad = nil
	pp.path.Reset()
}

// SetStellarOrigin tags pp as originating from stellar component k. Must
// only be called immediately after Launch.
func (pp *Package) SetStellarOrigin(k int) {
	pp.stellar = k
}

// SetAngularDistribution attaches an anisotropic emission bias. Must only
// be called immediately after Launch.
func (pp *Package) SetAngularDistribution(ad AngularDistribution) {
	pp.ad = ad
}

// LaunchEmissionPeelOff initializes pp as an emission peel-off package
// cloned from source: luminosity, wavelength, position and stellar origin
// are copied, direction is set to kObs, and the angular emission bias
// L <- L*w_bias(kObs) is applied if source has an angular distribution.
// The path is invalidated.
func (pp *Package) LaunchEmissionPeelOff(source *Package, kObs geom.Vector) {
	l := source.l
	if source.ad != nil {
		l *= source.ad.Weight(kObs)
	}
	pp.l = l
	pp.ell = source.ell
	pp.bfr = source.bfr
	pp.bfk = kObs
	pp.nScatt = source.nScatt
	pp.stellar = source.stellar
	pp.ad = nil
	pp.path.Reset()
}

// LaunchScatteringPeelOff initializes pp as a scattering peel-off package
// cloned from source at source's current position: L <- source.L*w,
// direction is set to kObs, and the scatter count is incremented. The
// path is invalidated.
func (pp *Package) LaunchScatteringPeelOff(source *Package, kObs geom.Vector, w float64) {
	pp.launchScatteringPeelOffAt(source, source.bfr, kObs, w)
}

// LaunchScatteringPeelOffAt is the position-overriding variant used by
// continuous scattering peel-off, where the peel-off originates from a
// sampled point within a crossed cell rather than source's own position.
func (pp *Package) LaunchScatteringPeelOffAt(source *Package, r geom.Vector, kObs geom.Vector, w float64) {
	pp.launchScatteringPeelOffAt(source, r, kObs, w)
}

func (pp *Package) launchScatteringPeelOffAt(source *Package, r geom.Vector, kObs geom.Vector, w float64) {
	pp.l = source.l * w
	pp.ell = source.ell
	pp.bfr = r
	pp.bfk = kObs
	pp.nScatt = source.nScatt + 1
	pp.stellar = source.stellar
	pp.ad = nil
	pp.path.Reset()
}

// Propagate advances pp's position by distance s along its direction:
// bfr <- bfr + s*bfk. Invalidates the path.
func (pp *Package) Propagate(s float64) {
	pp.bfr = geom.AlongRay(pp.bfr, pp.bfk, s)
	pp.path.Invalidate()
}

// Scatter sets pp's direction to kNew and increments the scatter count.
// Invalidates the path.
func (pp *Package) Scatter(kNew geom.Vector) {
	pp.bfk = kNew
	pp.nScatt++
	pp.path.Invalidate()
}

// SetLuminosity overwrites pp's luminosity.
func (pp *Package) SetLuminosity(L float64) {
	pp.l = L
}

// IsStellar reports whether pp originates from stellar emission.
func (pp *Package) IsStellar() bool {
	return pp.stellar >= 0
}

// StellarCompIndex returns the emitting stellar component index, or -1
// for dust emission.
func (pp *Package) StellarCompIndex() int {
	return pp.stellar
}

// Luminosity returns L.
func (pp *Package) Luminosity() float64 {
	return pp.l
}

// Ell returns the wavelength index.
func (pp *Package) Ell() int {
	return pp.ell
}

// Position returns the current starting position of pp's path.
func (pp *Package) Position() geom.Vector {
	return pp.bfr
}

// Direction returns pp's propagation direction.
func (pp *Package) Direction() geom.Vector {
	return pp.bfk
}

// NScatt returns the number of scattering events pp has experienced.
func (pp *Package) NScatt() int {
	return pp.nScatt
}

// Path returns pp's embedded grid path. Valid only after a fill; callers
// must check Path().Valid() before relying on cumulative length/tau.
func (pp *Package) Path() *dustgrid.Path {
	return pp.path
}

// FillPath asks grid to (re)fill pp's embedded path for its current
// position and direction.
func (pp *Package) FillPath(grid dustgrid.Grid) error {
	return grid.FillPath(pp.path, pp.bfr, pp.bfk)
}

// Tau returns the total optical depth of pp's current (valid) path.
func (pp *Package) Tau() float64 {
	return pp.path.TotalTau()
}
