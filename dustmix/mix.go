// Package dustmix defines the per-wavelength dust optical-properties
// contract (extinction, scattering, albedo, phase function) and a
// concrete Henyey-Greenstein grain mix.
package dustmix

import "github.com/pthm-cable/dustkit/geom"

// Mix is the dust-mix capability contract, evaluated per wavelength
// index ℓ. Implementations are read-only once constructed: the kernel
// calls these concurrently from every worker.
type Mix interface {
	// Name identifies the mix (e.g. for logging / output column headers).
	Name() string

	// KappaExt returns the mass extinction coefficient κ_ext at ℓ, m²/kg.
	KappaExt(ell int) float64

	// KappaSca returns the mass scattering coefficient κ_sca at ℓ, m²/kg.
	KappaSca(ell int) float64

	// Albedo returns κ_sca/κ_ext at ℓ (0 if κ_ext is 0).
	Albedo(ell int) float64

	// PhaseFunction returns the angular probability density for
	// scattering from kIn into kOut at wavelength ℓ.
	PhaseFunction(ell int, kIn, kOut geom.Vector) float64

	// GenerateNewDirection samples a new direction from the phase
	// function given the incoming direction kIn and two independent
	// uniform draws in [0, 1).
	GenerateNewDirection(ell int, kIn geom.Vector, uCosTheta, uPhi float64) geom.Vector
}
