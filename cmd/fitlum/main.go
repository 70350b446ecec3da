// Command fitlum fits stellar component luminosity scale factors against
// a reference flux SED, the minimal downstream-fitting collaborator
// spec.md names as out of scope for the kernel itself (the simplex
// luminosity optimization over reference images the reference
// FitSKIRTcore/LumSimplex.hpp performs). It runs the full kernel once per
// simplex evaluation and minimizes the relative deviation from the
// reference SED with gonum/optimize's Nelder-Mead implementation.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/dustkit/config"
	"github.com/pthm-cable/dustkit/dispatch"
	"github.com/pthm-cable/dustkit/dustgrid"
	"github.com/pthm-cable/dustkit/dustmix"
	"github.com/pthm-cable/dustkit/dustsystem"
	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/instrument"
	"github.com/pthm-cable/dustkit/kernel"
	"github.com/pthm-cable/dustkit/stellar"
	"github.com/pthm-cable/dustkit/wavelength"
)

func main() {
	configPath := flag.String("config", "", "Base simulation config YAML file (empty = use embedded defaults)")
	referencePath := flag.String("reference", "", "Reference SED CSV (wavelength_m,flux_w_per_m3), same grid as the config")
	instrumentName := flag.String("instrument", "", "Name of the instrument to fit against (empty = first configured instrument)")
	packages := flag.Float64("packages", 20000, "Photon packages per evaluation (kept small; fitting needs many evaluations)")
	maxEvals := flag.Int("max-evals", 100, "Maximum simplex evaluations")
	outputDir := flag.String("output", "", "Output directory for the fitted config")
	flag.Parse()

	if *referencePath == "" {
		log.Fatal("fitlum: --reference is required")
	}
	if *outputDir == "" {
		log.Fatal("fitlum: --output is required")
	}

	if err := run(*configPath, *referencePath, *instrumentName, *packages, *maxEvals, *outputDir); err != nil {
		log.Fatalf("fitlum: %v", err)
	}
}

func run(configPath, referencePath, instrumentName string, packages float64, maxEvals int, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	baseCfg := config.Cfg()

	grid, err := wavelength.NewGrid(baseCfg.Wavelength.ValuesM)
	if err != nil {
		return fmt.Errorf("building wavelength grid: %w", err)
	}

	reference, err := readReferenceSED(referencePath, grid.Len())
	if err != nil {
		return fmt.Errorf("reading reference SED: %w", err)
	}

	if instrumentName == "" && len(baseCfg.Instrument) > 0 {
		instrumentName = baseCfg.Instrument[0].Name
	}
	if instrumentName == "" {
		return fmt.Errorf("config has no instruments to fit against")
	}

	evaluator := &fitnessEvaluator{
		baseCfg:        baseCfg,
		grid:           grid,
		reference:      reference,
		instrumentName: instrumentName,
		packages:       packages,
	}

	dim := len(baseCfg.Stellar)
	initX := make([]float64, dim)
	for i := range initX {
		initX[i] = 1.0 // start at the configured luminosity, i.e. scale factor 1
	}

	logPath := filepath.Join(outputDir, "fitlum_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	logWriter := csv.NewWriter(logFile)
	defer logWriter.Flush()

	header := []string{"eval", "chisq"}
	for i := range baseCfg.Stellar {
		header = append(header, fmt.Sprintf("scale_%d", i))
	}
	logWriter.Write(header)

	evalCount := 0
	startTime := time.Now()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			chisq := evaluator.evaluate(x)
			evalCount++

			row := []string{strconv.Itoa(evalCount), fmt.Sprintf("%.6g", chisq)}
			for _, v := range x {
				row = append(row, fmt.Sprintf("%.6f", v))
			}
			logWriter.Write(row)
			logWriter.Flush()

			fmt.Printf("eval %d/%d: chisq=%.6g scales=%v (elapsed %s)\n",
				evalCount, maxEvals, chisq, x, time.Since(startTime).Round(time.Second))
			return chisq
		},
	}

	settings := &optimize.Settings{FuncEvaluations: maxEvals}
	result, err := optimize.Minimize(problem, initX, settings, &optimize.NelderMead{})
	if err != nil {
		log.Printf("fitlum: optimization ended: %v", err)
	}

	fmt.Printf("\nbest chisq: %.6g after %d evaluations\n", result.F, evalCount)
	fmt.Println("best scale factors:")
	for i, v := range result.X {
		fmt.Printf("  stellar[%d]: %.6f\n", i, v)
	}

	fittedCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("reloading config: %w", err)
	}
	applyScales(fittedCfg, result.X)
	return fittedCfg.WriteYAML(filepath.Join(outputDir, "fitted_config.yaml"))
}

// fitnessEvaluator runs one full kernel simulation per simplex
// evaluation point, scaling each stellar component's luminosity table by
// x[i] and comparing the resulting SED against the reference.
type fitnessEvaluator struct {
	baseCfg        *config.Config
	grid           *wavelength.Grid
	reference      []float64
	instrumentName string
	packages       float64
}

// evaluate returns the chi-squared deviation between the simulated and
// reference SEDs for scale factors x, one per stellar component.
func (fe *fitnessEvaluator) evaluate(x []float64) float64 {
	cfg, err := config.Load("")
	if err != nil {
		return math.Inf(1)
	}
	*cfg = *fe.baseCfg
	cfg.Stellar = append([]config.StellarConfig(nil), fe.baseCfg.Stellar...)
	applyScales(cfg, x)

	stellarSrc, err := buildStellarSystemFromConfig(cfg, fe.grid)
	if err != nil {
		return math.Inf(1)
	}
	dust, err := buildDustSystemFromConfig(cfg, fe.grid)
	if err != nil {
		return math.Inf(1)
	}

	var ins *instrument.DistantInstrument
	var instruments []instrument.Instrument
	for _, ic := range cfg.Instrument {
		d := instrument.NewDistantInstrument(ic.Name, ic.DistanceM, ic.InclinationRad, ic.AzimuthRad, fe.grid)
		instruments = append(instruments, d)
		if ic.Name == fe.instrumentName {
			ins = d
		}
	}
	if ins == nil {
		return math.Inf(1)
	}

	disp := dispatch.New(0)
	k := kernel.New(fe.grid, stellarSrc, dust, instruments, disp,
		cfg.Kernel.Seed, cfg.Kernel.ContinuousScattering, fe.packages, cfg.Derived.LMinFraction)
	if err := k.Run(nil); err != nil {
		return math.Inf(1)
	}

	var chisq float64
	for ell := 0; ell < fe.grid.Len(); ell++ {
		want := fe.reference[ell]
		got := ins.Flux(ell) * fe.grid.Width(ell)
		wantTotal := want * fe.grid.Width(ell)
		if wantTotal == 0 {
			continue
		}
		d := (got - wantTotal) / wantTotal
		chisq += d * d
	}
	return chisq
}

// applyScales multiplies every stellar component's luminosity table by
// the corresponding entry of scales.
func applyScales(cfg *config.Config, scales []float64) {
	for i := range cfg.Stellar {
		if i >= len(scales) {
			break
		}
		scaled := make([]float64, len(cfg.Stellar[i].LuminosityW))
		for ell, l := range cfg.Stellar[i].LuminosityW {
			scaled[ell] = l * scales[i]
		}
		cfg.Stellar[i].LuminosityW = scaled
	}
}

// readReferenceSED loads a reference SED CSV (wavelength_m,flux_w_per_m3)
// and returns its flux column, validated against the expected grid
// length. The wavelength column is not matched against the configured
// grid beyond a length check: the reference is expected to have been
// produced on the same grid as the config under fit.
func readReferenceSED(path string, wantLen int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reference SED is empty")
	}

	start := 0
	if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
		start = 1 // header row
	}

	flux := make([]float64, 0, len(records)-start)
	for _, rec := range records[start:] {
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing flux column: %w", err)
		}
		flux = append(flux, v)
	}
	if len(flux) != wantLen {
		return nil, fmt.Errorf("reference SED has %d wavelengths, want %d", len(flux), wantLen)
	}
	return flux, nil
}

// buildStellarSystemFromConfig and buildDustSystemFromConfig mirror
// cmd/mcrt's assembly helpers; fitlum needs its own copy because each
// simplex evaluation rebuilds the collaborators from a scaled config
// rather than running once from a single loaded config.
func buildStellarSystemFromConfig(cfg *config.Config, grid *wavelength.Grid) (stellar.Source, error) {
	sources := make([]stellar.Source, 0, len(cfg.Stellar))
	for i, sc := range cfg.Stellar {
		if len(sc.LuminosityW) != grid.Len() {
			return nil, fmt.Errorf("stellar component %d: luminosity table has %d entries, want %d", i, len(sc.LuminosityW), grid.Len())
		}
		pos := geom.New(sc.PositionM[0], sc.PositionM[1], sc.PositionM[2])
		switch sc.Kind {
		case "point":
			sources = append(sources, stellar.NewPointSource(pos, sc.LuminosityW, i))
		case "plummer":
			sources = append(sources, stellar.NewPlummerSource(sc.Scale, sc.LuminosityW, pos, i))
		default:
			return nil, fmt.Errorf("stellar component %d: unknown kind %q", i, sc.Kind)
		}
	}
	if len(sources) == 1 {
		return sources[0], nil
	}
	return stellar.NewSystem(sources...), nil
}

func buildDustSystemFromConfig(cfg *config.Config, grid *wavelength.Grid) (*dustsystem.DustSystem, error) {
	if len(cfg.DustMix) == 0 {
		return nil, nil
	}
	dgrid, err := dustgrid.NewSphericalGrid(cfg.DustGrid.ShellRadiiM)
	if err != nil {
		return nil, err
	}
	ds := dustsystem.New(dgrid, grid.Len(), cfg.Kernel.DustEmission)
	for _, mc := range cfg.DustMix {
		mix := dustmix.NewPresetMix(dustmix.Preset(mc.Preset), grid.Len(), mc.KappaExt0, mc.Albedo, mc.Asymmetry)
		ds.AddComponent(mix, mc.DensityKgM3)
	}
	return ds, nil
}
