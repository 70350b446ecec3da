// Command mcrt is the primary entry point: it loads a simulation
// configuration, assembles the wavelength grid, stellar sources, dust
// system and instruments it describes, and runs the chunked Monte Carlo
// photon-transport kernel to completion.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/pthm-cable/dustkit/config"
	"github.com/pthm-cable/dustkit/dispatch"
	"github.com/pthm-cable/dustkit/dustgrid"
	"github.com/pthm-cable/dustkit/dustmix"
	"github.com/pthm-cable/dustkit/dustsystem"
	"github.com/pthm-cable/dustkit/geom"
	"github.com/pthm-cable/dustkit/instrument"
	"github.com/pthm-cable/dustkit/kernel"
	"github.com/pthm-cable/dustkit/stellar"
	"github.com/pthm-cable/dustkit/telemetry"
	"github.com/pthm-cable/dustkit/wavelength"
)

func main() {
	configPath := flag.String("config", "", "Simulation config YAML file (empty = use embedded defaults)")
	outputDir := flag.String("output", "", "Output directory for run results (empty = no file output)")
	flag.Parse()

	if err := run(*configPath, *outputDir); err != nil {
		log.Fatalf("mcrt: %v", err)
	}
}

func run(configPath, outputDir string) error {
	if err := config.Init(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()
	if outputDir != "" {
		cfg.Telemetry.OutputDir = outputDir
	}

	telemetry.Logf("mcrt: starting run (%d wavelengths, %d stellar components, %d instruments)",
		len(cfg.Wavelength.ValuesM), len(cfg.Stellar), len(cfg.Instrument))

	grid, err := wavelength.NewGrid(cfg.Wavelength.ValuesM)
	if err != nil {
		return fmt.Errorf("building wavelength grid: %w", err)
	}

	stellarSrc, err := buildStellarSystem(cfg, grid)
	if err != nil {
		return fmt.Errorf("building stellar system: %w", err)
	}

	dust, err := buildDustSystem(cfg, grid)
	if err != nil {
		return fmt.Errorf("building dust system: %w", err)
	}

	instruments := make([]instrument.Instrument, 0, len(cfg.Instrument))
	for _, ic := range cfg.Instrument {
		instruments = append(instruments, instrument.NewDistantInstrument(
			ic.Name, ic.DistanceM, ic.InclinationRad, ic.AzimuthRad, grid))
	}

	threads := cfg.Kernel.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	disp := dispatch.New(threads)

	k := kernel.New(grid, stellarSrc, dust, instruments, disp,
		cfg.Kernel.Seed, cfg.Kernel.ContinuousScattering, cfg.Kernel.Packages, cfg.Derived.LMinFraction)

	runRecord, err := telemetry.NewRun(cfg.Telemetry.OutputDir)
	if err != nil {
		return fmt.Errorf("starting run: %w", err)
	}
	if err := runRecord.WriteConfig(cfg); err != nil {
		return fmt.Errorf("saving config snapshot: %w", err)
	}

	if err := k.Run(runRecord); err != nil {
		return fmt.Errorf("running kernel: %w", err)
	}

	if cfg.Telemetry.OutputDir != "" {
		if err := os.MkdirAll(cfg.Telemetry.OutputDir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		for _, ins := range instruments {
			if err := ins.Write(cfg.Telemetry.OutputDir); err != nil {
				return fmt.Errorf("writing instrument %q: %w", ins.Name(), err)
			}
		}
	}

	if err := runRecord.Close(cfg.Kernel.Packages); err != nil {
		return fmt.Errorf("closing run: %w", err)
	}

	telemetry.Logf("mcrt: run complete")
	return nil
}

// buildStellarSystem assembles the configured stellar components into a
// single Source. A run with exactly one component uses it directly;
// multiple components are combined with a stellar.System so the kernel
// still sees one Source collaborator, per spec.md §6.
func buildStellarSystem(cfg *config.Config, grid *wavelength.Grid) (stellar.Source, error) {
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
			if sc.Scale <= 0 {
				return nil, fmt.Errorf("stellar component %d: plummer source needs a positive scale_m", i)
			}
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

// buildDustSystem assembles the configured dust grid and components. A
// run with no dust_mix entries has no dust medium at all: the kernel
// treats a nil DustSystem as "emission and peel-off only" per spec.md §6.
func buildDustSystem(cfg *config.Config, grid *wavelength.Grid) (*dustsystem.DustSystem, error) {
	if len(cfg.DustMix) == 0 {
		return nil, nil
	}
	if len(cfg.DustGrid.ShellRadiiM) == 0 {
		return nil, fmt.Errorf("dust_mix is configured but dust_grid has no shell_radii_m")
	}

	dgrid, err := dustgrid.NewSphericalGrid(cfg.DustGrid.ShellRadiiM)
	if err != nil {
		return nil, err
	}

	ds := dustsystem.New(dgrid, grid.Len(), cfg.Kernel.DustEmission)
	for i, mc := range cfg.DustMix {
		if len(mc.DensityKgM3) != dgrid.Ncells() {
			return nil, fmt.Errorf("dust component %d: density table has %d entries, want %d cells", i, len(mc.DensityKgM3), dgrid.Ncells())
		}
		mix := dustmix.NewPresetMix(dustmix.Preset(mc.Preset), grid.Len(), mc.KappaExt0, mc.Albedo, mc.Asymmetry)
		ds.AddComponent(mix, mc.DensityKgM3)
	}
	return ds, nil
}
