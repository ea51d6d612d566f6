package effects

import (
	"github.com/go-gl/mathgl/mgl64"

	"surfacefx/surface"
)

// ImpactVoice is one output of an impact, routed to an impact channel.
type ImpactVoice struct {
	Channel   int
	Output    surface.Output
	Volume    float64
	Pitch     float64
	HitNormal mgl64.Vec3
	Hardness  float64
}

// FrictionVoice is the per-render state of one friction channel.
type FrictionVoice struct {
	Channel int
	// Key is the output currently sounding; HasKey is false for a channel
	// that never played.
	Key    surface.Key
	HasKey bool
	Given  bool
	Volume float64
	Pitch  float64
}

// ParticleBurst asks the particle layer to emit one surface's particles.
type ParticleBurst struct {
	Output    surface.Output
	Impulse   float64
	Speed     float64
	Point     mgl64.Vec3
	HitNormal mgl64.Vec3
	Velocity  mgl64.Vec3
	// Radius is the emission shape radius.
	Radius float64
	// Duration is dt for continuous contacts and the estimated collision
	// time for impacts.
	Duration float64
	// CountMultiplier and SizeMultiplier already include the output's own multipliers.
	CountMultiplier float64
	SizeMultiplier  float64
}

// ImpactSink plays one-shot impact voices.
type ImpactSink interface {
	PlayImpact(ImpactVoice)
}

// FrictionSink applies friction channel state once per render step.
type FrictionSink interface {
	UpdateFriction(FrictionVoice)
}

// ParticleSink emits particle bursts.
type ParticleSink interface {
	EmitParticles(ParticleBurst)
}

// Sinks bundles the audio and particle consumers. Any may be nil.
type Sinks struct {
	Impact    ImpactSink
	Friction  FrictionSink
	Particles ParticleSink
}

// ImpactFunc adapts a function to ImpactSink.
type ImpactFunc func(ImpactVoice)

// PlayImpact implements ImpactSink.
func (f ImpactFunc) PlayImpact(v ImpactVoice) { f(v) }

// FrictionFunc adapts a function to FrictionSink.
type FrictionFunc func(FrictionVoice)

// UpdateFriction implements FrictionSink.
func (f FrictionFunc) UpdateFriction(v FrictionVoice) { f(v) }

// ParticleFunc adapts a function to ParticleSink.
type ParticleFunc func(ParticleBurst)

// EmitParticles implements ParticleSink.
func (f ParticleFunc) EmitParticles(b ParticleBurst) { f(b) }
