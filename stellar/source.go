// Package stellar defines the stellar-source contract and concrete
// emission geometries (Plummer sphere, point source) that launch photon
// packages.
package stellar

import (
	"github.com/pthm-cable/dustkit/photon"
	"github.com/pthm-cable/dustkit/random"
)

// Source is the stellar-source capability contract.
type Source interface {
	// Luminosity returns the source's luminosity at wavelength index ell, W.
	Luminosity(ell int) float64

	// Launch sets pp to a freshly sampled emission position and direction
	// consistent with the source's geometry, with luminosity L at
	// wavelength ell, tags the stellar origin, and optionally attaches an
	// angular-distribution bias.
	Launch(pp *photon.Package, rng *random.Source, ell int, L float64)
}
