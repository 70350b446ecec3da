package dustmix

// Preset names a catalog entry for a named grain population, the way the
// reference library catalogs individual grain compositions (silicate,
// graphite) by name rather than by raw optical-constant tables.
type Preset string

const (
	PresetSilicate Preset = "Draine_Silicate"
	PresetGraphite Preset = "Draine_Graphite"
)

// NewPresetMix builds a GrainMix for a named preset, evaluated over the
// given wavelength count with a flat κ_ext/κ_sca/asymmetry approximation.
// Real SED-resolved optical tables are an external collaborator per
// spec.md; this preset exists so a simulation can be assembled and run
// without first sourcing lab-measured grain data.
func NewPresetMix(preset Preset, nLambda int, kappaExt0, albedo, asymmetry float64) *GrainMix {
	kappaExtTable := make([]float64, nLambda)
	kappaScaTable := make([]float64, nLambda)
	for ell := range kappaExtTable {
		kappaExtTable[ell] = kappaExt0
		kappaScaTable[ell] = kappaExt0 * albedo
	}
	return NewGrainMix(string(preset), kappaExtTable, kappaScaTable, asymmetry)
}
