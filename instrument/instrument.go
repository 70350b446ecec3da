// Package instrument defines the instrument capability contract — the
// final destination for peeled-off photon packages — and a concrete
// distant-observer instrument.
package instrument

import (
	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/photon"
)

// Instrument is the instrument capability contract of spec.md §6.
// Detect must be safe to call concurrently from every kernel worker.
type Instrument interface {
	// Name identifies the instrument (used for output file naming).
	Name() string

	// ObservationDirection returns the direction towards the instrument
	// from emission/scattering position r.
	ObservationDirection(r geom.Vector) geom.Vector

	// Detect records a peeled-off package's contribution. pp is a
	// short-lived package owned by the calling work unit; Detect must
	// copy out whatever it needs rather than retain pp.
	Detect(pp *photon.Package)

	// Write performs the instrument's final (post-phase) output.
	Write(outputDir string) error
}
