package dustmix

import (
	"math"

	"github.com/pthm-cable/dustkit/geom"
)

// BulkDensitySilicate is the reference bulk density (kg/m³) for the
// Draine & Li silicate grain population this mix is modeled after.
const BulkDensitySilicate = 3.0e3

// GrainMix is a Henyey-Greenstein dust mix: per-wavelength κ_ext/κ_sca
// tables plus a single asymmetry parameter g governing the angular
// scattering distribution. Two GrainMix instances with the same table
// values are indistinguishable, which is what the multi-component
// "identical components" testable property in spec.md §8 relies on.
type GrainMix struct {
	name      string
	kappaExt  []float64 // per wavelength index, m²/kg
	kappaSca  []float64
	asymmetry float64 // g in [-1, 1]; 0 is isotropic
}

// NewGrainMix builds a mix from per-wavelength tables. len(kappaExt) must
// equal len(kappaSca); both are indexed by wavelength index ℓ.
func NewGrainMix(name string, kappaExt, kappaSca []float64, asymmetry float64) *GrainMix {
	return &GrainMix{name: name, kappaExt: kappaExt, kappaSca: kappaSca, asymmetry: asymmetry}
}

func (m *GrainMix) Name() string { return m.name }

func (m *GrainMix) KappaExt(ell int) float64 { return m.kappaExt[ell] }

func (m *GrainMix) KappaSca(ell int) float64 { return m.kappaSca[ell] }

func (m *GrainMix) Albedo(ell int) float64 {
	ext := m.kappaExt[ell]
	if ext <= 0 {
		return 0
	}
	return m.kappaSca[ell] / ext
}

// PhaseFunction evaluates the Henyey-Greenstein angular probability
// density at the cosine of the angle between kIn and kOut.
//
//	p(cosθ) = (1-g²) / (4π (1+g²-2g·cosθ)^(3/2))
func (m *GrainMix) PhaseFunction(ell int, kIn, kOut geom.Vector) float64 {
	g := m.asymmetry
	cosTheta := geom.CosAngle(kIn, kOut)
	denom := 1 + g*g - 2*g*cosTheta
	return (1 - g*g) / (4 * math.Pi * math.Pow(denom, 1.5))
}

// GenerateNewDirection samples a new direction from the Henyey-Greenstein
// phase function given two independent uniform draws.
func (m *GrainMix) GenerateNewDirection(ell int, kIn geom.Vector, uCosTheta, uPhi float64) geom.Vector {
	g := m.asymmetry

	var cosTheta float64
	if g == 0 {
		cosTheta = 2*uCosTheta - 1
	} else {
		s := (1 - g*g) / (1 - g + 2*g*uCosTheta)
		cosTheta = (1 + g*g - s*s) / (2 * g)
	}
	cosTheta = math.Max(-1, math.Min(1, cosTheta))
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * uPhi

	e1, e2 := orthonormalBasis(kIn)
	inPlane := geom.Add(geom.Scale(math.Cos(phi), e1), geom.Scale(math.Sin(phi), e2))
	return geom.Add(geom.Scale(cosTheta, kIn), geom.Scale(sinTheta, inPlane))
}

// orthonormalBasis builds two unit vectors perpendicular to k and to each
// other, completing a right-handed frame with k.
func orthonormalBasis(k geom.Vector) (e1, e2 geom.Vector) {
	var ref geom.Vector
	if math.Abs(k.X) < 0.9 {
		ref = geom.New(1, 0, 0)
	} else {
		ref = geom.New(0, 1, 0)
	}
	e1 = geom.Unit(geom.Cross(k, ref))
	e2 = geom.Cross(k, e1)
	return e1, e2
}
