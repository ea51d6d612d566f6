package surface

// Blend is one row of a precomputed blend table: a reference string resolved
// to a surface type by keyword, the weight it contributes and optional
// per-output modifiers. Zero multipliers mean "unchanged".
type Blend struct {
	Reference        string  `json:"reference" yaml:"reference" jsonschema:"title=Reference,description=Name matched against surface type keywords,minLength=1,required"`
	Weight           float64 `json:"weight" yaml:"weight" jsonschema:"title=Weight,description=Relative contribution of the referenced surface type,minimum=0,required"`
	Volume           float64 `json:"volume,omitempty" yaml:"volume,omitempty" jsonschema:"description=Volume multiplier (defaults to 1),minimum=0"`
	Pitch            float64 `json:"pitch,omitempty" yaml:"pitch,omitempty" jsonschema:"description=Pitch multiplier (defaults to 1),minimum=0"`
	ParticleSize     float64 `json:"particleSize,omitempty" yaml:"particleSize,omitempty" jsonschema:"description=Particle size multiplier (defaults to 1),minimum=0"`
	ParticleCount    float64 `json:"particleCount,omitempty" yaml:"particleCount,omitempty" jsonschema:"description=Particle count multiplier (defaults to 1),minimum=0"`
	Color            *Color  `json:"color,omitempty" yaml:"color,omitempty" jsonschema:"description=Particle tint (defaults to white)"`
	ParticleOverride string  `json:"particleOverride,omitempty" yaml:"particleOverride,omitempty" jsonschema:"description=Identity of a particle override; outputs with different overrides never merge"`
}

// Output converts the blend row into an output for the resolved surface type.
func (b Blend) Output(surfaceTypeID int) Output {
	o := NewOutput(surfaceTypeID, b.Weight)
	o.VolumeMultiplier = orOne(b.Volume)
	o.PitchMultiplier = orOne(b.Pitch)
	o.ParticleSizeMultiplier = orOne(b.ParticleSize)
	o.ParticleCountMultiplier = orOne(b.ParticleCount)
	if b.Color != nil {
		o.Color = *b.Color
	}
	o.OverrideID = b.ParticleOverride
	return o
}

func orOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}
