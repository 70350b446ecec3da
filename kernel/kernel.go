// Package kernel implements the Monte Carlo photon-transport kernel: the
// chunked parallel loop that launches packages from the stellar system,
// peels off emission and scattering rays towards every instrument,
// fills optical-depth paths from the dust system, and updates the
// absorption/scattering bookkeeping until each package falls below its
// luminosity floor.
package kernel

import (
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/dustkit/dispatch"
	"github.com/pthm-cable/dustkit/dustsystem"
	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/instrument"
	"github.com/pthm-cable/dustkit/photon"
	"github.com/pthm-cable/dustkit/random"
	"github.com/pthm-cable/dustkit/stellar"
	"github.com/pthm-cable/dustkit/telemetry"
	"github.com/pthm-cable/dustkit/wavelength"
)

// Kernel owns the collaborators of one simulation phase and runs the
// chunked parallel photon-transport loop over them.
type Kernel struct {
	wavelengths          *wavelength.Grid
	stellarSrc           stellar.Source
	dust                 *dustsystem.DustSystem // nil: pure emission + peel-off, no transport loop
	instruments          []instrument.Instrument
	dispatcher           *dispatch.Dispatcher
	seed                 int64
	continuousScattering bool
	packages             float64
	lMinFraction         float64
}

// New builds a Kernel. dust may be nil, meaning the simulation has no
// dust medium: every package is emitted, peeled off at emission, and
// discarded (spec.md §6's "dust system may be absent" collaborator).
func New(
	wavelengths *wavelength.Grid,
	stellarSrc stellar.Source,
	dust *dustsystem.DustSystem,
	instruments []instrument.Instrument,
	dispatcher *dispatch.Dispatcher,
	seed int64,
	continuousScattering bool,
	packages float64,
	lMinFraction float64,
) *Kernel {
	return &Kernel{
		wavelengths:          wavelengths,
		stellarSrc:           stellarSrc,
		dust:                 dust,
		instruments:          instruments,
		dispatcher:           dispatcher,
		seed:                 seed,
		continuousScattering: continuousScattering,
		packages:             packages,
		lMinFraction:         lMinFraction,
	}
}

// workerScratch holds the per-worker reusable resources: a thread-local
// random stream, the package objects a work unit launches and peels off
// into, and a scratch weights buffer for component selection. Allocated
// once per worker and indexed by workerID — never touched by more than
// one goroutine at a time, so it needs no locking of its own.
type workerScratch struct {
	rng     *random.Source
	pp      *photon.Package
	peel    *photon.Package
	weights []float64
}

func (k *Kernel) newScratch(workerID int) *workerScratch {
	pathCapacity := 0
	if k.dust != nil {
		pathCapacity = k.dust.Grid().MaxPathSegments()
	}
	s := &workerScratch{
		rng:  random.New(k.seed, workerID),
		pp:   photon.New(pathCapacity),
		peel: photon.New(0),
	}
	if k.dust != nil {
		s.weights = make([]float64, k.dust.NumComponents())
	}
	return s
}

// Run executes the chunked parallel photon-transport phase. run may be
// nil, in which case no phase timing or logging side effects occur
// beyond what telemetry.Logf always does.
func (k *Kernel) Run(run *telemetry.Run) error {
	nLambda := k.wavelengths.Len()
	numWorkers := k.dispatcher.NumWorkers()
	plan := planChunks(k.packages, numWorkers, nLambda)

	logEvery := int64(LogChunkSizeDiscrete)
	if k.continuousScattering {
		logEvery = int64(LogChunkSizeContinuous)
	}
	totalPackages := int64(plan.n) * int64(nLambda)
	prog := newProgress("transport", totalPackages)

	scratches := make([]*workerScratch, numWorkers)
	timer := run.Timer()

	totalUnits := plan.nChunks * nLambda
	return k.dispatcher.Call(totalUnits, func(workerID, index int) error {
		scratch := scratches[workerID]
		if scratch == nil {
			scratch = k.newScratch(workerID)
			scratches[workerID] = scratch
		}
		ell := index % nLambda
		return k.runUnit(scratch, ell, plan.chunkSize, plan.n, prog, logEvery, timer)
	})
}

// runUnit runs one chunk's worth of photon-package life cycles at
// wavelength ell, per spec.md §4.4's per-work-unit algorithm. Progress
// is folded into the shared counter in batches of logEvery packages
// (50 000 normally, 5 000 for continuous scattering, per §4.4); whether
// a batch actually produces a log line is gated by progress's own
// 3-second timer, per §5.
func (k *Kernel) runUnit(scratch *workerScratch, ell, chunkSize, n int, prog *progress, logEvery int64, timer *telemetry.PerfTimer) error {
	lEll := k.stellarSrc.Luminosity(ell) / float64(n)
	if lEll <= 0 {
		prog.add(int64(chunkSize))
		return nil
	}
	lMin := k.lMinFraction * lEll

	var emissionDur, transportDur time.Duration
	pp, peel := scratch.pp, scratch.peel

	var pending int64
	for i := 0; i < chunkSize; i++ {
		t0 := time.Now()
		k.stellarSrc.Launch(pp, scratch.rng, ell, lEll)
		for _, ins := range k.instruments {
			kObs := ins.ObservationDirection(pp.Position())
			peel.LaunchEmissionPeelOff(pp, kObs)
			ins.Detect(peel)
		}
		emissionDur += time.Since(t0)

		if k.dust != nil {
			t1 := time.Now()
			if err := k.transportLoop(pp, peel, scratch, ell, lMin); err != nil {
				return err
			}
			transportDur += time.Since(t1)
		}

		pending++
		if pending >= logEvery {
			prog.add(pending)
			pending = 0
		}
	}
	if pending > 0 {
		prog.add(pending)
	}

	timer.Add(telemetry.PhaseEmission, emissionDur)
	timer.Add(telemetry.PhaseTransport, transportDur)
	return nil
}

// transportLoop runs one package's fill-path / peel-off / absorb /
// propagate / scatter cycle until its luminosity falls below lMin, per
// spec.md §4.4 step 3c.
func (k *Kernel) transportLoop(pp, peel *photon.Package, scratch *workerScratch, ell int, lMin float64) error {
	for {
		if err := pp.FillPath(k.dust.Grid()); err != nil {
			return fmt.Errorf("kernel: %w", err)
		}
		k.dust.FillOpticalDepth(pp.Path(), ell)

		if k.continuousScattering {
			k.continuousPeelOff(pp, peel, scratch, ell)
		}

		newL := k.simulateEscapeAndAbsorption(pp, ell)
		pp.SetLuminosity(newL)
		if newL <= lMin {
			return nil
		}

		tauPath := pp.Path().TotalTau()
		tauPrime := scratch.rng.ExponCutoff(tauPath)
		s := k.dust.PathLength(pp.Path(), tauPrime)
		pp.Propagate(s)

		if !k.continuousScattering {
			k.scatteringPeelOff(pp, peel, scratch, ell)
		}

		if err := k.simulateScattering(pp, scratch, ell); err != nil {
			return err
		}
	}
}

// simulateEscapeAndAbsorption applies spec.md §4.6's escape-and-absorption
// update and returns the package's post-update luminosity.
//
// This always runs the general per-cell (multi-component) formula: for a
// single component, the per-cell albedo a_m reduces to that component's
// constant albedo wherever density is nonzero (and contributes nothing
// where it's zero, since Δτ is then also zero), and the per-cell
// L_int_m terms telescope to L·a·(1-e^-τ_path) exactly — the single-
// component fast path spec.md §4.6 describes as a separate case. Using
// one formula for both is what makes "multi-component update must equal
// single-component update when all components are identical" (spec.md
// §8) hold by construction rather than by a separate code path.
func (k *Kernel) simulateEscapeAndAbsorption(pp *photon.Package, ell int) float64 {
	l := pp.Luminosity()
	path := pp.Path()

	lSca := 0.0
	for n := 0; n < path.N(); n++ {
		m := path.Cell(n)
		dtau := path.Dtau(n)
		if m < 0 || dtau <= 0 {
			continue
		}
		tau0 := 0.0
		if n > 0 {
			tau0 = path.Tau(n - 1)
		}
		lInt := l * expNeg(tau0) * (-expm1Neg(dtau))

		aM := k.dust.AlbedoAt(m, ell)
		lSca += aM * lInt
		if k.dust.DustEmission() {
			k.dust.Absorb(m, ell, (1-aM)*lInt, pp.IsStellar())
		}
	}
	return lSca
}

// scatteringPeelOff performs the discrete scattering peel-off at the
// package's current position, per spec.md §4.5.
func (k *Kernel) scatteringPeelOff(pp, peel *photon.Package, scratch *workerScratch, ell int) {
	m := k.dust.WhichCell(pp.Position())
	if m < 0 {
		return
	}
	weights := scratch.weights
	k.dust.ComponentWeights(m, ell, weights)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return
	}

	kOld := pp.Direction()
	for _, ins := range k.instruments {
		kObs := ins.ObservationDirection(pp.Position())
		w := 0.0
		for h, wh := range weights {
			if wh <= 0 {
				continue
			}
			w += (wh / total) * k.dust.Mix(h).PhaseFunction(ell, kOld, kObs)
		}
		peel.LaunchScatteringPeelOff(pp, kObs, w)
		ins.Detect(peel)
	}
}

// continuousPeelOff performs the continuous scattering peel-off along
// every crossed cell of the package's current path, per spec.md §4.5.
// It intentionally samples the intra-segment position uniformly rather
// than weighting by the exponential attenuation within the segment —
// spec.md §9's second open question calls this bias out explicitly and
// asks that it be preserved rather than corrected.
func (k *Kernel) continuousPeelOff(pp, peel *photon.Package, scratch *workerScratch, ell int) {
	path := pp.Path()
	kOld := pp.Direction()
	origin := pp.Position()
	weights := scratch.weights

	for n := 0; n < path.N(); n++ {
		m := path.Cell(n)
		if m < 0 {
			continue
		}
		kappaSca := k.dust.KappaScaAt(m, ell)
		if kappaSca <= 0 {
			continue
		}
		kappaExt := k.dust.KappaExtAt(m, ell)
		albedo := 0.0
		if kappaExt > 0 {
			albedo = kappaSca / kappaExt
		}

		tau0 := 0.0
		if n > 0 {
			tau0 = path.Tau(n - 1)
		}
		dtau := path.Dtau(n)
		factorM := albedo * expNeg(tau0) * (-expm1Neg(dtau))
		if factorM <= 0 {
			continue
		}

		s0 := 0.0
		if n > 0 {
			s0 = path.S(n - 1)
		}
		xi := scratch.rng.Uniform()
		s := s0 + xi*path.Ds(n)
		rNew := geom.AlongRay(origin, kOld, s)

		k.dust.ComponentWeights(m, ell, weights)
		total := 0.0
		for _, w := range weights {
			total += w
		}
		if total <= 0 {
			continue
		}

		for _, ins := range k.instruments {
			kObs := ins.ObservationDirection(rNew)
			w := 0.0
			for h, wh := range weights {
				if wh <= 0 {
					continue
				}
				w += (wh / total) * k.dust.Mix(h).PhaseFunction(ell, kOld, kObs)
			}
			peel.LaunchScatteringPeelOffAt(pp, rNew, kObs, factorM*w)
			ins.Detect(peel)
		}
	}
}

// simulateScattering picks a dust component at the package's current
// cell weighted by κ_sca(h,ℓ)·ρ(m,h), samples a new direction from that
// component's phase function, and scatters the package, per spec.md
// §4.4 step 3c's simulateScattering.
func (k *Kernel) simulateScattering(pp *photon.Package, scratch *workerScratch, ell int) error {
	m := k.dust.WhichCell(pp.Position())
	if m < 0 {
		return fmt.Errorf("kernel: scattering sampled outside the dust grid")
	}
	weights := scratch.weights
	k.dust.ComponentWeights(m, ell, weights)
	h := scratch.rng.Categorical(weights)
	if h < 0 {
		return nil
	}
	kNew := k.dust.Mix(h).GenerateNewDirection(ell, pp.Direction(), scratch.rng.Uniform(), scratch.rng.Uniform())
	pp.Scatter(kNew)
	return nil
}

// expNeg returns e^-x.
func expNeg(x float64) float64 {
	return math.Exp(-x)
}

// expm1Neg returns expm1(-x) = e^-x - 1, used so that 1-e^-x is computed
// with full precision for small x (spec.md §4.6's rationale note).
func expm1Neg(x float64) float64 {
	return math.Expm1(-x)
}
