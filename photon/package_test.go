package photon

import (
	"testing"

	"github.com/pthm-cable/dustkit/geom"
)

func TestLaunchResetsLifeCycleState(t *testing.T) {
	pp := New(4)
	pp.Launch(5.0, 2, geom.New(1, 0, 0), geom.New(0, 1, 0))
	pp.SetStellarOrigin(3)
	pp.Scatter(geom.New(0, 0, 1))

	pp.Launch(7.0, 1, geom.Zero, geom.New(1, 0, 0))

	if pp.Luminosity() != 7.0 {
		t.Errorf("Luminosity() = %v, want 7.0", pp.Luminosity())
	}
	if pp.Ell() != 1 {
		t.Errorf("Ell() = %v, want 1", pp.Ell())
	}
	if pp.NScatt() != 0 {
		t.Errorf("NScatt() = %d, want 0 after Launch", pp.NScatt())
	}
	if pp.IsStellar() {
		t.Error("IsStellar() = true, want false (stellar tag resets to dust emission)")
	}
}

func TestSetStellarOriginTagsPackage(t *testing.T) {
	pp := New(0)
	pp.Launch(1, 0, geom.Zero, geom.New(1, 0, 0))
	pp.SetStellarOrigin(2)
	if !pp.IsStellar() {
		t.Error("IsStellar() = false after SetStellarOrigin")
	}
	if pp.StellarCompIndex() != 2 {
		t.Errorf("StellarCompIndex() = %d, want 2", pp.StellarCompIndex())
	}
}

func TestLaunchEmissionPeelOffCopiesSourceState(t *testing.T) {
	source := New(0)
	source.Launch(10.0, 3, geom.New(1, 2, 3), geom.New(1, 0, 0))
	source.SetStellarOrigin(5)

	peel := New(0)
	kObs := geom.New(0, 0, 1)
	peel.LaunchEmissionPeelOff(source, kObs)

	if peel.Luminosity() != 10.0 {
		t.Errorf("Luminosity() = %v, want 10.0 (no angular bias attached)", peel.Luminosity())
	}
	if peel.Ell() != 3 {
		t.Errorf("Ell() = %d, want 3", peel.Ell())
	}
	if peel.Position() != source.Position() {
		t.Errorf("Position() = %v, want %v", peel.Position(), source.Position())
	}
	if peel.Direction() != kObs {
		t.Errorf("Direction() = %v, want %v", peel.Direction(), kObs)
	}
	if peel.StellarCompIndex() != 5 {
		t.Errorf("StellarCompIndex() = %d, want 5", peel.StellarCompIndex())
	}
}

type constWeight struct{ w float64 }

func (c constWeight) Weight(_ geom.Vector) float64 { return c.w }

func TestLaunchEmissionPeelOffAppliesAngularBias(t *testing.T) {
	source := New(0)
	source.Launch(10.0, 0, geom.Zero, geom.New(1, 0, 0))
	source.SetAngularDistribution(constWeight{w: 0.25})

	peel := New(0)
	peel.LaunchEmissionPeelOff(source, geom.New(0, 1, 0))

	if peel.Luminosity() != 2.5 {
		t.Errorf("Luminosity() = %v, want 2.5 (10 * 0.25 bias)", peel.Luminosity())
	}
}

func TestLaunchScatteringPeelOffIncrementsScatterCount(t *testing.T) {
	source := New(0)
	source.Launch(8.0, 0, geom.Zero, geom.New(1, 0, 0))
	source.Scatter(geom.New(0, 1, 0))

	peel := New(0)
	peel.LaunchScatteringPeelOff(source, geom.New(0, 0, 1), 0.5)

	if peel.Luminosity() != 4.0 {
		t.Errorf("Luminosity() = %v, want 4.0 (source L=8 * w=0.5)", peel.Luminosity())
	}
	if peel.NScatt() != source.NScatt()+1 {
		t.Errorf("NScatt() = %d, want %d", peel.NScatt(), source.NScatt()+1)
	}
	if peel.Position() != source.Position() {
		t.Error("LaunchScatteringPeelOff must originate at source's own position")
	}
}

func TestLaunchScatteringPeelOffAtUsesOverriddenPosition(t *testing.T) {
	source := New(0)
	source.Launch(8.0, 0, geom.New(1, 1, 1), geom.New(1, 0, 0))

	override := geom.New(5, 5, 5)
	peel := New(0)
	peel.LaunchScatteringPeelOffAt(source, override, geom.New(0, 0, 1), 1.0)

	if peel.Position() != override {
		t.Errorf("Position() = %v, want overridden position %v", peel.Position(), override)
	}
}

func TestPropagateAdvancesPositionAndInvalidatesPath(t *testing.T) {
	pp := New(4)
	pp.Launch(1, 0, geom.Zero, geom.New(1, 0, 0))
	pp.Path().AddSegment(0, 1.0)
	pp.Path().MarkFilled()

	pp.Propagate(3.0)

	want := geom.New(3, 0, 0)
	if pp.Position() != want {
		t.Errorf("Position() = %v, want %v", pp.Position(), want)
	}
	if pp.Path().Valid() {
		t.Error("Propagate must invalidate the path")
	}
}

func TestScatterUpdatesDirectionAndCount(t *testing.T) {
	pp := New(4)
	pp.Launch(1, 0, geom.Zero, geom.New(1, 0, 0))
	pp.Path().AddSegment(0, 1.0)
	pp.Path().MarkFilled()

	newDir := geom.New(0, 1, 0)
	pp.Scatter(newDir)

	if pp.Direction() != newDir {
		t.Errorf("Direction() = %v, want %v", pp.Direction(), newDir)
	}
	if pp.NScatt() != 1 {
		t.Errorf("NScatt() = %d, want 1", pp.NScatt())
	}
	if pp.Path().Valid() {
		t.Error("Scatter must invalidate the path")
	}
}

func TestSetLuminosityOverwritesL(t *testing.T) {
	pp := New(0)
	pp.Launch(1, 0, geom.Zero, geom.New(1, 0, 0))
	pp.SetLuminosity(42.0)
	if pp.Luminosity() != 42.0 {
		t.Errorf("Luminosity() = %v, want 42.0", pp.Luminosity())
	}
}
