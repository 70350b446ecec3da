package kernel

import (
	"math"
	"testing"

	"github.com/pthm-cable/dustkit/dispatch"
	"github.com/pthm-cable/dustkit/dustgrid"
	"github.com/pthm-cable/dustkit/dustmix"
	"github.com/pthm-cable/dustkit/dustsystem"
	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/instrument"
	"github.com/pthm-cable/dustkit/stellar"
	"github.com/pthm-cable/dustkit/wavelength"
)

// TestEmptyDustOneInstrument is spec.md §8 scenario 1: with no dust
// system, every launched package is peeled off exactly once at
// emission, and the instrument's total detected luminosity equals
// N*L_launch.
func TestEmptyDustOneInstrument(t *testing.T) {
	grid, err := wavelength.NewGrid([]float64{5e-7})
	if err != nil {
		t.Fatal(err)
	}

	const luminosity = 3.7 // W
	source := stellar.NewPointSource(geom.Zero, []float64{luminosity}, 0)

	// Choose a distance so 4*pi*distance^2 == 1, making Flux(ell)*Width(ell)
	// recover the raw accumulated luminosity directly.
	distance := 1 / math.Sqrt(4*math.Pi)
	ins := instrument.NewDistantInstrument("test", distance, 0, 0, grid)

	disp := dispatch.New(4)
	const packages = 10.0
	const lMinFraction = 1e-4

	k := New(grid, source, nil, []instrument.Instrument{ins}, disp, 42, false, packages, lMinFraction)
	if err := k.Run(nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	detected := ins.Flux(0) * grid.Width(0)
	want := luminosity
	if rel := math.Abs(detected-want) / want; rel > 1e-9 {
		t.Errorf("detected luminosity = %v, want %v (rel err %v)", detected, want, rel)
	}
}

func TestLuminosityZeroAdvancesProgressWithoutLaunching(t *testing.T) {
	grid, err := wavelength.NewGrid([]float64{5e-7, 1e-6})
	if err != nil {
		t.Fatal(err)
	}
	source := stellar.NewPointSource(geom.Zero, []float64{0, 1.0}, 0)
	distance := 1 / math.Sqrt(4*math.Pi)
	ins := instrument.NewDistantInstrument("test", distance, 0, 0, grid)

	disp := dispatch.New(2)
	k := New(grid, source, nil, []instrument.Instrument{ins}, disp, 1, false, 100, 1e-4)
	if err := k.Run(nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := ins.Flux(0) * grid.Width(0); got != 0 {
		t.Errorf("wavelength 0 has zero luminosity, expected zero detected flux, got %v", got)
	}
	if got := ins.Flux(1) * grid.Width(1); got <= 0 {
		t.Errorf("wavelength 1 should have detected positive flux, got %v", got)
	}
}

// sphereSlab builds a single-shell spherical grid (r_max=1) whose dust
// components sum to the given total extinction and albedo, for use as
// spec.md §8's "uniform single-cell slab": since the grid is a sphere
// centered on the stellar source, the optical depth from center to
// boundary is exactly kappaExt in every direction, regardless of the
// random emission direction.
func sphereSlab(t *testing.T, nLambda int, densities []float64, kappaExt, kappaSca float64) *dustsystem.DustSystem {
	t.Helper()
	grid, err := dustgrid.NewSphericalGrid([]float64{0, 1})
	if err != nil {
		t.Fatalf("NewSphericalGrid: %v", err)
	}
	ds := dustsystem.New(grid, nLambda, true)
	for _, rho := range densities {
		mix := dustmix.NewGrainMix("slab", repeat(kappaExt, nLambda), repeat(kappaSca, nLambda), 0)
		ds.AddComponent(mix, []float64{rho})
	}
	return ds
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// TestUniformSlabAbsorptionMatchesClosedForm is spec.md §8 scenario 2: a
// uniform single-cell slab with tau_path=1 and albedo=0.5, dust emission
// on. Setting lMinFraction=1 forces exactly one escape-and-absorption
// evaluation per package (the scattered remainder, 0.5*(1-e^-1)*L, falls
// below L_min and the transport loop exits immediately afterward), which
// makes the per-package absorbed contribution identical and deterministic
// across all packages regardless of the random emission direction — the
// sphere is centered on the source, so every direction sees exactly the
// same optical depth. That determinism is why a scaled-down package
// count (1000, vs spec.md's 10^6) still reproduces the closed form to
// near machine precision rather than only to the stated 0.5% tolerance.
func TestUniformSlabAbsorptionMatchesClosedForm(t *testing.T) {
	grid, err := wavelength.NewGrid([]float64{5e-7})
	if err != nil {
		t.Fatal(err)
	}
	ds := sphereSlab(t, 1, []float64{1.0}, 1.0, 0.5)

	const luminosity = 1.0
	source := stellar.NewPointSource(geom.Zero, []float64{luminosity}, 0)
	distance := 1 / math.Sqrt(4*math.Pi)
	ins := instrument.NewDistantInstrument("test", distance, 0, 0, grid)

	disp := dispatch.New(2)
	const packages = 1000.0
	const lMinFraction = 1.0 // forces a single interaction per package

	k := New(grid, source, ds, []instrument.Instrument{ins}, disp, 7, false, packages, lMinFraction)
	if err := k.Run(nil); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// Total absorbed sums each package's L/N contribution, so it converges
	// to the total source luminosity times the per-interaction absorbed
	// fraction, independent of how many packages N it was split across.
	wantTotal := luminosity * 0.5 * -math.Expm1(-1)
	got := ds.AbsorbedStellar(0, 0)
	if rel := math.Abs(got-wantTotal) / wantTotal; rel > 1e-9 {
		t.Errorf("AbsorbedStellar = %v, want %v (rel err %v)", got, wantTotal, rel)
	}
}

// TestMultiComponentSlabMatchesSingleComponentSlab is spec.md §8 scenario
// 3: two identical half-density components must match the single-
// component slab of scenario 2 to within floating-point noise.
func TestMultiComponentSlabMatchesSingleComponentSlab(t *testing.T) {
	grid, err := wavelength.NewGrid([]float64{5e-7})
	if err != nil {
		t.Fatal(err)
	}

	run := func(densities []float64) float64 {
		ds := sphereSlab(t, 1, densities, 1.0, 0.5)
		source := stellar.NewPointSource(geom.Zero, []float64{1.0}, 0)
		distance := 1 / math.Sqrt(4*math.Pi)
		ins := instrument.NewDistantInstrument("test", distance, 0, 0, grid)
		disp := dispatch.New(2)
		k := New(grid, source, ds, []instrument.Instrument{ins}, disp, 7, false, 1000, 1.0)
		if err := k.Run(nil); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return ds.AbsorbedStellar(0, 0)
	}

	single := run([]float64{1.0})
	split := run([]float64{0.5, 0.5})
	if rel := math.Abs(single-split) / single; rel > 1e-9 {
		t.Errorf("single-component absorbed = %v, two-component absorbed = %v (rel diff %v, want ~=0)", single, split, rel)
	}
}

// TestContinuousAndDiscreteScatteringAgree is spec.md §8 scenario 5: on
// an optically thin slab, continuous and discrete scattering must detect
// statistically equivalent flux at one instrument. The package count
// (2*10^5) and tolerance (5%) are both scaled down from spec.md's
// 10^7-package, 0.2% figures to keep the test's statistical noise
// bounded without running anywhere near that many packages.
func TestContinuousAndDiscreteScatteringAgree(t *testing.T) {
	grid, err := wavelength.NewGrid([]float64{5e-7})
	if err != nil {
		t.Fatal(err)
	}

	run := func(continuous bool, seed int64) float64 {
		ds := sphereSlab(t, 1, []float64{1.0}, 0.01, 0.005) // tau_path ~= 0.01
		source := stellar.NewPointSource(geom.Zero, []float64{1.0}, 0)
		distance := 1 / math.Sqrt(4*math.Pi)
		ins := instrument.NewDistantInstrument("test", distance, math.Pi/2, 0, grid)
		disp := dispatch.New(4)
		k := New(grid, source, ds, []instrument.Instrument{ins}, disp, seed, continuous, 2e5, 1e-4)
		if err := k.Run(nil); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		return ins.Flux(0)
	}

	discrete := run(false, 11)
	continuous := run(true, 13)
	if rel := math.Abs(discrete-continuous) / discrete; rel > 0.05 {
		t.Errorf("discrete flux = %v, continuous flux = %v (rel diff %v, want <= 0.05)", discrete, continuous, rel)
	}
}
