package kernel

import "math"

// LogChunkSize is the number of packages a work unit batches before
// folding its count into the shared progress counter (spec.md §4.4):
// coarser for discrete scattering, finer for continuous scattering
// since each package does more peel-off work per step. Whether that
// update actually produces a log line is a separate, timer-gated
// decision (see kernel/progress.go).
const (
	LogChunkSizeDiscrete   = 50000
	LogChunkSizeContinuous = 5000
)

// chunkPlan is the resolved chunk policy for one phase: nChunks work
// units per wavelength, chunkSize packages per unit, and the actual
// total package count N = nChunks*chunkSize (which, for a positive
// requested count, exceeds it by less than nChunks, per spec.md §4.4).
type chunkPlan struct {
	nChunks   int
	chunkSize int
	n         int
}

// planChunks chooses nChunks so that packages-per-chunk is neither too
// small (per-chunk overhead dominates) nor too large (hurts load
// balance across wavelengths), per spec.md §4.4's chunk policy formula.
func planChunks(packages float64, numThreads, numWavelengths int) chunkPlan {
	var nChunks int
	if numThreads == 1 {
		nChunks = 1
	} else {
		overheadBound := packages / 2e4
		balanceBound := math.Max(packages/1e7, 10*float64(numThreads)/float64(numWavelengths))
		nChunks = int(math.Ceil(math.Min(overheadBound, balanceBound)))
		if nChunks < 1 {
			nChunks = 1
		}
	}

	chunkSize := int(math.Ceil(packages / float64(nChunks)))
	if chunkSize < 1 {
		chunkSize = 1
	}

	return chunkPlan{
		nChunks:   nChunks,
		chunkSize: chunkSize,
		n:         nChunks * chunkSize,
	}
}
