package instrument

import (
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/dustkit/floatatomic"
	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/photon"
	"github.com/pthm-cable/dustkit/wavelength"
)

// sedRow is one CSV row of a distant instrument's flux SED, marshaled by
// gocarina/gocsv.
type sedRow struct {
	WavelengthM float64 `csv:"wavelength_m"`
	FluxWm3     float64 `csv:"flux_w_per_m3"`
}

// DistantInstrument observes from a single fixed direction far from the
// source, the distant-observer approximation: the observation direction
// is constant regardless of emission/scattering position. Grounded on the
// reference distant-instrument implementation (inclination/azimuth
// spherical angles fix a constant bfkobs; SED calibration divides the
// accumulated luminosity by Δλ and 4πd²).
type DistantInstrument struct {
	name        string
	distance    float64 // m
	bfkobs      geom.Vector
	grid        *wavelength.Grid
	accumulated []atomic.Uint64 // per-wavelength raw accumulated luminosity, W
}

// NewDistantInstrument builds an instrument at distance (m) viewing along
// the direction given by inclination and azimuth (radians, same
// convention as spherical coordinates: inclination measured from +Z).
func NewDistantInstrument(name string, distance, inclination, azimuth float64, grid *wavelength.Grid) *DistantInstrument {
	sinInc, cosInc := math.Sincos(inclination)
	sinAz, cosAz := math.Sincos(azimuth)
	bfkobs := geom.New(sinInc*cosAz, sinInc*sinAz, cosInc)
	return &DistantInstrument{
		name:        name,
		distance:    distance,
		bfkobs:      bfkobs,
		grid:        grid,
		accumulated: make([]atomic.Uint64, grid.Len()),
	}
}

func (ins *DistantInstrument) Name() string {
	return ins.name
}

// ObservationDirection is constant: the distant-observer approximation.
func (ins *DistantInstrument) ObservationDirection(_ geom.Vector) geom.Vector {
	return ins.bfkobs
}

// Detect accumulates pp's luminosity into the instrument's per-wavelength
// flux array. Safe for concurrent use from any number of workers.
func (ins *DistantInstrument) Detect(pp *photon.Package) {
	floatatomic.Add(&ins.accumulated[pp.Ell()], pp.Luminosity())
}

// Flux returns the calibrated flux density at wavelength ell, W/m³:
// accumulated luminosity divided by the wavelength bin width and by
// 4πd².
func (ins *DistantInstrument) Flux(ell int) float64 {
	total := floatatomic.Load(&ins.accumulated[ell])
	monochromatic := total / ins.grid.Width(ell)
	fourPiD2 := 4 * math.Pi * ins.distance * ins.distance
	return monochromatic / fourPiD2
}

// Write emits the calibrated SED as a CSV file named "<name>_sed.csv" in
// outputDir.
func (ins *DistantInstrument) Write(outputDir string) error {
	rows := make([]*sedRow, ins.grid.Len())
	for ell := 0; ell < ins.grid.Len(); ell++ {
		rows[ell] = &sedRow{
			WavelengthM: ins.grid.Value(ell),
			FluxWm3:     ins.Flux(ell),
		}
	}

	f, err := os.Create(filepath.Join(outputDir, ins.name+"_sed.csv"))
	if err != nil {
		return err
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}
