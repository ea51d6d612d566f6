package effects

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"surfacefx/internal/aggregate"
	"surfacefx/internal/envelope"
)

// MaxParticleTypes bounds the particle outputs emitted for one contact.
const MaxParticleTypes = 10

// ParticleMode selects which contact phases emit particles.
type ParticleMode int

const (
	ParticlesNone ParticleMode = iota
	ParticlesImpactOnly
	ParticlesImpactAndFriction
)

func (m ParticleMode) String() string {
	switch m {
	case ParticlesNone:
		return "none"
	case ParticlesImpactOnly:
		return "impact"
	case ParticlesImpactAndFriction:
		return "impact_and_friction"
	default:
		return "unknown"
	}
}

// MarshalText spells the mode by name.
func (m ParticleMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a mode name.
func (m *ParticleMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "none", "":
		*m = ParticlesNone
	case "impact", "impact_only":
		*m = ParticlesImpactOnly
	case "impact_and_friction", "all":
		*m = ParticlesImpactAndFriction
	default:
		return fmt.Errorf("effects: unknown particle mode %q", text)
	}
	return nil
}

// ParticleConfig tunes particle emission.
type ParticleConfig struct {
	Mode              ParticleMode `yaml:"mode" json:"mode"`
	MinimumTypeWeight float64      `yaml:"minimumTypeWeight" json:"minimumTypeWeight"`
	// SelfHardness combines with the struck surface's hardness to estimate
	// how long an impact lasts.
	SelfHardness       float64 `yaml:"selfHardness" json:"selfHardness"`
	CountMultiplier    float64 `yaml:"countMultiplier" json:"countMultiplier"`
	SizeMultiplier     float64 `yaml:"sizeMultiplier" json:"sizeMultiplier"`
	MinimumShapeRadius float64 `yaml:"minimumShapeRadius" json:"minimumShapeRadius"`
}

// Config is the tuning of one contact-effects instance.
type Config struct {
	// Priority decides which of two touching instances voices the contact.
	Priority int `yaml:"priority" json:"priority"`
	// FindMeshSubmesh honours triangle indices on non-convex meshes.
	FindMeshSubmesh bool `yaml:"findMeshSubmesh" json:"findMeshSubmesh"`

	ImpactCooldown            time.Duration `yaml:"impactCooldown" json:"impactCooldown"`
	ImpactByImpulseChangeRate bool          `yaml:"impactByImpulseChangeRate" json:"impactByImpulseChangeRate"`
	ImpulseChangeRateToImpact float64       `yaml:"impulseChangeRateToImpact" json:"impulseChangeRateToImpact"`

	SpeedMultiplier       float64 `yaml:"speedMultiplier" json:"speedMultiplier"`
	ForceMultiplier       float64 `yaml:"forceMultiplier" json:"forceMultiplier"`
	TotalVolumeMultiplier float64 `yaml:"totalVolumeMultiplier" json:"totalVolumeMultiplier"`
	TotalPitchMultiplier  float64 `yaml:"totalPitchMultiplier" json:"totalPitchMultiplier"`

	ImpactChannels   int               `yaml:"impactChannels" json:"impactChannels"`
	Impact           envelope.Impact   `yaml:"impact" json:"impact"`
	FrictionSound    bool              `yaml:"frictionSound" json:"frictionSound"`
	FrictionChannels int               `yaml:"frictionChannels" json:"frictionChannels"`
	Friction         envelope.Friction `yaml:"friction" json:"friction"`
	// OrderIndependentFriction decays surfaces a contact does not touch, so
	// the friction mix no longer depends on contact order.
	OrderIndependentFriction bool `yaml:"orderIndependentFriction" json:"orderIndependentFriction"`

	Particles ParticleConfig `yaml:"particles" json:"particles"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		FindMeshSubmesh:           true,
		ImpactCooldown:            100 * time.Millisecond,
		ImpactByImpulseChangeRate: true,
		ImpulseChangeRateToImpact: 10,
		SpeedMultiplier:           1,
		ForceMultiplier:           1,
		TotalVolumeMultiplier:     0.3,
		TotalPitchMultiplier:      1,
		ImpactChannels:            2,
		Impact:                    envelope.DefaultImpact(),
		FrictionSound:             true,
		FrictionChannels:          3,
		Friction:                  envelope.DefaultFriction(),
		Particles: ParticleConfig{
			Mode:              ParticlesImpactAndFriction,
			MinimumTypeWeight: 0.1,
			SelfHardness:      1,
			CountMultiplier:   1,
			SizeMultiplier:    1,
		},
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.ImpactChannels < 0 {
		return fmt.Errorf("effects: impact channel count %d is negative", c.ImpactChannels)
	}
	if c.FrictionChannels < 0 {
		return fmt.Errorf("effects: friction channel count %d is negative", c.FrictionChannels)
	}
	if c.ImpactCooldown < 0 {
		return errors.New("effects: impact cooldown is negative")
	}
	if err := c.Impact.Validate(); err != nil {
		return fmt.Errorf("effects: impact: %w", err)
	}
	if c.FrictionSound {
		if err := c.Friction.Validate(); err != nil {
			return fmt.Errorf("effects: friction: %w", err)
		}
	}
	if c.Particles.Mode < ParticlesNone || c.Particles.Mode > ParticlesImpactAndFriction {
		return fmt.Errorf("effects: invalid particle mode %d", c.Particles.Mode)
	}
	return nil
}

// NeedsContactStay reports whether the host must forward continuous contacts.
func (c Config) NeedsContactStay() bool {
	return c.FrictionSound || c.ImpactByImpulseChangeRate || c.Particles.Mode == ParticlesImpactAndFriction
}

func (c Config) meanPolicy() aggregate.MeanPolicy {
	if c.OrderIndependentFriction {
		return aggregate.MeanDecay
	}
	return aggregate.MeanBlend
}
