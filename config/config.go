// Package config provides YAML-backed configuration loading and access
// for a radiative transfer run, following the same embedded-defaults +
// global-singleton pattern the teacher's config package uses.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds every parameter needed to assemble and run a simulation.
type Config struct {
	Wavelength WavelengthConfig   `yaml:"wavelength"`
	Stellar    []StellarConfig    `yaml:"stellar"`
	DustGrid   DustGridConfig     `yaml:"dust_grid"`
	DustMix    []DustMixConfig    `yaml:"dust_mix"`
	Instrument []InstrumentConfig `yaml:"instrument"`
	Kernel     KernelConfig       `yaml:"kernel"`
	Telemetry  TelemetryConfig    `yaml:"telemetry"`

	Derived DerivedConfig `yaml:"-"`
}

// WavelengthConfig lists the wavelength grid points, in meters.
type WavelengthConfig struct {
	ValuesM []float64 `yaml:"values_m"`
}

// StellarConfig describes one stellar source component.
type StellarConfig struct {
	Kind        string     `yaml:"kind"` // "plummer" or "point"
	Scale       float64    `yaml:"scale_m"`
	PositionM   [3]float64 `yaml:"position_m"`
	LuminosityW []float64  `yaml:"luminosity_w"` // per wavelength index
}

// DustGridConfig describes the spherical dust grid.
type DustGridConfig struct {
	ShellRadiiM []float64 `yaml:"shell_radii_m"`
}

// DustMixConfig describes one dust component: its grain mix preset and
// its density in every cell of DustGridConfig.ShellRadiiM.
type DustMixConfig struct {
	Preset      string    `yaml:"preset"`
	KappaExt0   float64   `yaml:"kappa_ext0_m2_per_kg"`
	Albedo      float64   `yaml:"albedo"`
	Asymmetry   float64   `yaml:"asymmetry"`
	DensityKgM3 []float64 `yaml:"density_kg_per_m3"` // per cell
}

// InstrumentConfig describes one distant instrument.
type InstrumentConfig struct {
	Name           string  `yaml:"name"`
	DistanceM      float64 `yaml:"distance_m"`
	InclinationRad float64 `yaml:"inclination_rad"`
	AzimuthRad     float64 `yaml:"azimuth_rad"`
}

// KernelConfig holds the Monte Carlo kernel's run parameters.
type KernelConfig struct {
	Packages             float64 `yaml:"packages"`
	ContinuousScattering bool    `yaml:"continuous_scattering"`
	DustEmission         bool    `yaml:"dust_emission"`
	Seed                 int64   `yaml:"seed"`
	Threads              int     `yaml:"threads"` // 0 = runtime.GOMAXPROCS(0)
}

// TelemetryConfig controls run output.
type TelemetryConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// DerivedConfig holds values computed after loading, not read from YAML.
type DerivedConfig struct {
	LMinFraction float64 // L_min = LMinFraction * L_launch, fixed at 1e-4 per spec.md §4.4
}

// MaxPackages is the implementation limit on the number of photon
// packages per spec.md §8 scenario 6.
const MaxPackages = 1e15

// global holds the loaded configuration.
var global *Config

// Init loads configuration from path, or embedded defaults if path is
// empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	if err := Validate(cfg); err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	c.Derived.LMinFraction = 1e-4
}

// Validate checks the configuration-invalid fatal conditions of spec.md
// §7: presence of a wavelength grid, at least one stellar component, at
// least one instrument, and a package count within the implementation
// limit. Runs at setup, before any work unit starts.
func Validate(c *Config) error {
	if len(c.Wavelength.ValuesM) == 0 {
		return fmt.Errorf("config: wavelength grid is required")
	}
	if len(c.Stellar) == 0 {
		return fmt.Errorf("config: at least one stellar component is required")
	}
	if len(c.Instrument) == 0 {
		return fmt.Errorf("config: at least one instrument is required")
	}
	if c.Kernel.Packages < 0 {
		return fmt.Errorf("config: number of photon packages must be non-negative")
	}
	if c.Kernel.Packages > MaxPackages {
		return fmt.Errorf("config: number of photon packages is larger than implementation limit")
	}
	return nil
}

// WriteYAML saves c to path, e.g. to snapshot the configuration actually
// used for a run next to its output files.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
