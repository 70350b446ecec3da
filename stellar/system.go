package stellar

import (
	"github.com/pthm-cable/dustkit/photon"
	"github.com/pthm-cable/dustkit/random"
)

// System aggregates one or more stellar Sources into the single stellar
// system collaborator the kernel talks to (spec.md §6's "stellar source
// contract"). Luminosity sums across components; Launch picks a
// component by luminosity-weighted categorical draw and delegates.
type System struct {
	sources []Source
}

// NewSystem builds a System over the given components, in the order
// their compIndex was assigned.
func NewSystem(sources ...Source) *System {
	return &System{sources: sources}
}

// Luminosity returns the summed luminosity across all components at ell.
func (s *System) Luminosity(ell int) float64 {
	total := 0.0
	for _, src := range s.sources {
		total += src.Luminosity(ell)
	}
	return total
}

// Launch picks a stellar component weighted by its luminosity at ell and
// delegates to it.
func (s *System) Launch(pp *photon.Package, rng *random.Source, ell int, L float64) {
	if len(s.sources) == 1 {
		s.sources[0].Launch(pp, rng, ell, L)
		return
	}
	weights := make([]float64, len(s.sources))
	for i, src := range s.sources {
		weights[i] = src.Luminosity(ell)
	}
	idx := rng.Categorical(weights)
	if idx < 0 {
		idx = 0
	}
	s.sources[idx].Launch(pp, rng, ell, L)
}
