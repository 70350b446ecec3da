// Package dustsystem owns the multi-component density field, the
// cell/wavelength absorption accumulator, and the optical-depth fill
// that turns a grid's geometric path into the path a photon package
// actually sees.
package dustsystem

import (
	"sync/atomic"

	"github.com/pthm-cable/dustkit/dustgrid"
	"github.com/pthm-cable/dustkit/dustmix"
	"github.com/pthm-cable/dustkit/floatatomic"
	"github.com/pthm-cable/dustkit/geom"
)

// component pairs a dust mix with its density field over cells.
type component struct {
	mix     dustmix.Mix
	density []float64 // ρ(m,h), indexed by cell m
}

// DustSystem is the multi-component dust medium: a cell decomposition
// (via its Grid), one or more components each with their own density
// field and Mix, and the per-(cell,wavelength) absorbed-luminosity
// accumulator.
//
// Constructed once per simulation; Absorb is called concurrently from
// every kernel worker during the transport phase and must be safe for
// that. FillOpticalDepth and PathLength are read-only with respect to
// shared state and are also called concurrently, once per package.
type DustSystem struct {
	grid         dustgrid.Grid
	components   []component
	nLambda      int
	dustEmission bool

	// absorbedStellar/absorbedDust are flattened (cell*nLambda + ell)
	// additive accumulators, one float64 bit-pattern per atomic slot.
	absorbedStellar []atomic.Uint64
	absorbedDust    []atomic.Uint64
}

// New builds a dust system over the given grid with nLambda wavelengths.
// dustEmission enables the separate stellar/dust-emission absorption
// buckets described in spec.md §3.
func New(grid dustgrid.Grid, nLambda int, dustEmission bool) *DustSystem {
	n := grid.Ncells() * nLambda
	ds := &DustSystem{
		grid:            grid,
		nLambda:         nLambda,
		dustEmission:    dustEmission,
		absorbedStellar: make([]atomic.Uint64, n),
	}
	if dustEmission {
		ds.absorbedDust = make([]atomic.Uint64, n)
	}
	return ds
}

// AddComponent registers a dust component with its density field, one
// entry per cell. Components are combined additively everywhere κ_ext,
// κ_sca, and ρ appear together.
func (ds *DustSystem) AddComponent(mix dustmix.Mix, density []float64) {
	ds.components = append(ds.components, component{mix: mix, density: density})
}

// NumComponents returns the number of registered dust components.
func (ds *DustSystem) NumComponents() int {
	return len(ds.components)
}

// Grid returns the underlying dust grid.
func (ds *DustSystem) Grid() dustgrid.Grid {
	return ds.grid
}

// WhichCell returns the cell containing r, or dustgrid.ExteriorCell.
// Delegates to the underlying grid; exposed on DustSystem directly per
// spec.md §4.3 since callers reason about "the dust system" as a whole.
func (ds *DustSystem) WhichCell(r geom.Vector) int {
	return ds.grid.WhichCell(r)
}

// kappaExtAt returns Σ_h ρ(m,h)·κ_ext(h,ℓ) at cell m, wavelength ℓ.
func (ds *DustSystem) kappaExtAt(m, ell int) float64 {
	total := 0.0
	for _, c := range ds.components {
		total += c.density[m] * c.mix.KappaExt(ell)
	}
	return total
}

// kappaScaAt returns Σ_h ρ(m,h)·κ_sca(h,ℓ) at cell m, wavelength ℓ.
func (ds *DustSystem) kappaScaAt(m, ell int) float64 {
	total := 0.0
	for _, c := range ds.components {
		total += c.density[m] * c.mix.KappaSca(ell)
	}
	return total
}

// KappaExtAt returns Σ_h ρ(m,h)·κ_ext(h,ℓ) at cell m, wavelength ℓ.
func (ds *DustSystem) KappaExtAt(m, ell int) float64 {
	return ds.kappaExtAt(m, ell)
}

// KappaScaAt returns Σ_h ρ(m,h)·κ_sca(h,ℓ) at cell m, wavelength ℓ.
func (ds *DustSystem) KappaScaAt(m, ell int) float64 {
	return ds.kappaScaAt(m, ell)
}

// AlbedoAt returns the per-cell albedo a_m = κ_sca_m/κ_ext_m (0 when
// κ_ext_m is 0), used by the multi-component escape-and-absorption update.
func (ds *DustSystem) AlbedoAt(m, ell int) float64 {
	ext := ds.kappaExtAt(m, ell)
	if ext <= 0 {
		return 0
	}
	return ds.kappaScaAt(m, ell) / ext
}

// ComponentWeights fills weights[h] = ρ(m,h)·κ_sca(h,ℓ) for every
// registered component h, the unnormalized weight used to pick a
// scattering component by a weighted categorical draw. weights must have
// length NumComponents().
func (ds *DustSystem) ComponentWeights(m, ell int, weights []float64) {
	for h, c := range ds.components {
		weights[h] = c.density[m] * c.mix.KappaSca(ell)
	}
}

// Mix returns the dust mix of component h.
func (ds *DustSystem) Mix(h int) dustmix.Mix {
	return ds.components[h].mix
}

// Density returns ρ(m,h).
func (ds *DustSystem) Density(h, m int) float64 {
	return ds.components[h].density[m]
}

// FillOpticalDepth populates path with Δτ/τ at wavelength ell, given the
// raw geometric path already produced by the grid (cell/ds/s). Segments
// with cell == ExteriorCell carry no optical depth.
func (ds *DustSystem) FillOpticalDepth(path *dustgrid.Path, ell int) {
	for n := 0; n < path.N(); n++ {
		m := path.Cell(n)
		if m == dustgrid.ExteriorCell {
			path.SetDtau(n, 0)
			continue
		}
		path.SetDtau(n, path.Ds(n)*ds.kappaExtAt(m, ell))
	}
	path.MarkFilled()
}

// PathLength returns the cumulative length along path at which cumulative
// optical depth equals target (inverse lookup, linear within a segment).
// Thin delegation to Path.PathLength, named to match the DustSystem
// operation in spec.md §4.3.
func (ds *DustSystem) PathLength(path *dustgrid.Path, target float64) float64 {
	return path.PathLength(target)
}

// Absorb atomically adds absorbed luminosity L_abs to cell m, wavelength
// ell, routed to the stellar or dust-emission bucket. Safe for concurrent
// use from any number of workers.
func (ds *DustSystem) Absorb(m, ell int, labs float64, stellar bool) {
	if m == dustgrid.ExteriorCell || labs <= 0 {
		return
	}
	idx := m*ds.nLambda + ell
	var bucket *atomic.Uint64
	if stellar || !ds.dustEmission {
		bucket = &ds.absorbedStellar[idx]
	} else {
		bucket = &ds.absorbedDust[idx]
	}
	floatatomic.Add(bucket, labs)
}

// AbsorbedStellar returns the accumulated stellar-originated absorption
// in cell m at wavelength ell.
func (ds *DustSystem) AbsorbedStellar(m, ell int) float64 {
	return floatatomic.Load(&ds.absorbedStellar[m*ds.nLambda+ell])
}

// AbsorbedDust returns the accumulated dust-emission absorption in cell m
// at wavelength ell; 0 if dust emission is disabled.
func (ds *DustSystem) AbsorbedDust(m, ell int) float64 {
	if !ds.dustEmission {
		return 0
	}
	return floatatomic.Load(&ds.absorbedDust[m*ds.nLambda+ell])
}

// DustEmission reports whether dust-emission absorption bookkeeping is
// enabled.
func (ds *DustSystem) DustEmission() bool {
	return ds.dustEmission
}
