package surface

// Color is a linear RGBA tint carried alongside an output so particle layers
// can blend surface colours across contacts.
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// White is the neutral tint used when nothing overrides the colour.
var White = Color{R: 1, G: 1, B: 1, A: 1}

// Mix returns c*(1-t) + other*t.
func (c Color) Mix(other Color, t float64) Color {
	inv := 1 - t
	return Color{
		R: inv*c.R + t*other.R,
		G: inv*c.G + t*other.G,
		B: inv*c.B + t*other.B,
		A: inv*c.A + t*other.A,
	}
}

// Key identifies an output for merging and channel assignment. Two outputs of
// the same surface type with different override identities stay distinct.
type Key struct {
	SurfaceTypeID int
	OverrideID    string
}

// Output is one weighted surface-type contribution. Weight is a relative
// contribution and is not required to sum to one across a Set.
type Output struct {
	SurfaceTypeID           int
	Weight                  float64
	VolumeMultiplier        float64
	PitchMultiplier         float64
	ParticleSizeMultiplier  float64
	ParticleCountMultiplier float64
	Color                   Color
	OverrideID              string
}

// NewOutput returns an output with neutral modifiers.
func NewOutput(surfaceTypeID int, weight float64) Output {
	return Output{
		SurfaceTypeID:           surfaceTypeID,
		Weight:                  weight,
		VolumeMultiplier:        1,
		PitchMultiplier:         1,
		ParticleSizeMultiplier:  1,
		ParticleCountMultiplier: 1,
		Color:                   White,
	}
}

// Key returns the merge key of the output.
func (o Output) Key() Key {
	return Key{SurfaceTypeID: o.SurfaceTypeID, OverrideID: o.OverrideID}
}
