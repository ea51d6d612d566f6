// Package envelope holds the shared sound-envelope parameters used by the
// impact and friction paths, and the free functions that evaluate them.
package envelope

import (
	"errors"
	"fmt"
	"math"
)

// AudibleThreshold is the smallest envelope volume treated as sounding.
const AudibleThreshold = 1e-8

// Params are the parameters common to impact and friction sounds.
type Params struct {
	VolumeByForce float64 `yaml:"volumeByForce" json:"volumeByForce"`
	// FaderMinSpeed and FaderMaxSpeed bound the speed range over which volume
	// fades in from silence.
	FaderMinSpeed     float64 `yaml:"faderMinSpeed" json:"faderMinSpeed"`
	FaderMaxSpeed     float64 `yaml:"faderMaxSpeed" json:"faderMaxSpeed"`
	BasePitch         float64 `yaml:"basePitch" json:"basePitch"`
	PitchBySpeed      float64 `yaml:"pitchBySpeed" json:"pitchBySpeed"`
	MinimumTypeWeight float64 `yaml:"minimumTypeWeight" json:"minimumTypeWeight"`
}

// DefaultParams returns the stock envelope tuning.
func DefaultParams() Params {
	return Params{
		VolumeByForce:     0.1,
		FaderMinSpeed:     0.01,
		FaderMaxSpeed:     0.1,
		BasePitch:         0.5,
		PitchBySpeed:      0.035,
		MinimumTypeWeight: 0.1,
	}
}

// Validate rejects parameter sets that cannot produce a usable envelope.
func (p Params) Validate() error {
	if p.FaderMinSpeed < 0 {
		return fmt.Errorf("envelope: fader min speed %g is negative", p.FaderMinSpeed)
	}
	if p.FaderMaxSpeed < p.FaderMinSpeed {
		return fmt.Errorf("envelope: fader range [%g, %g] is inverted", p.FaderMinSpeed, p.FaderMaxSpeed)
	}
	if p.MinimumTypeWeight < 0 {
		return errors.New("envelope: minimum type weight is negative")
	}
	return nil
}

// SmoothTimes are the SmoothDamp times used while a value rises and falls.
type SmoothTimes struct {
	Up   float64 `yaml:"up" json:"up"`
	Down float64 `yaml:"down" json:"down"`
}

// Impact parameterises one-shot impact sounds.
type Impact struct {
	Params `yaml:",inline"`
}

// DefaultImpact returns the stock impact tuning.
func DefaultImpact() Impact {
	return Impact{Params: DefaultParams()}
}

// Friction parameterises the continuous friction loops.
type Friction struct {
	Params `yaml:",inline"`

	SmoothTimes          SmoothTimes `yaml:"smoothTimes" json:"smoothTimes"`
	ClipChangeSmoothTime float64     `yaml:"clipChangeSmoothTime" json:"clipChangeSmoothTime"`
	MinForce             float64     `yaml:"minForce" json:"minForce"`
	MaxForce             float64     `yaml:"maxForce" json:"maxForce"`
	// NormalForceMultiplier scales impulse aligned with the contact normal
	// relative to tangential impulse.
	NormalForceMultiplier float64 `yaml:"normalForceMultiplier" json:"normalForceMultiplier"`
}

// DefaultFriction returns the stock friction tuning.
func DefaultFriction() Friction {
	return Friction{
		Params:                DefaultParams(),
		SmoothTimes:           SmoothTimes{Up: 0.05, Down: 0.15},
		ClipChangeSmoothTime:  0.001,
		MinForce:              1,
		MaxForce:              100,
		NormalForceMultiplier: 1,
	}
}

// Validate checks the friction tuning on top of the shared parameters.
func (f Friction) Validate() error {
	if err := f.Params.Validate(); err != nil {
		return err
	}
	if f.SmoothTimes.Up <= 0 || f.SmoothTimes.Down <= 0 {
		return fmt.Errorf("envelope: smooth times must be positive (up=%g down=%g)", f.SmoothTimes.Up, f.SmoothTimes.Down)
	}
	if f.ClipChangeSmoothTime <= 0 {
		return errors.New("envelope: clip change smooth time must be positive")
	}
	if f.MaxForce < f.MinForce {
		return fmt.Errorf("envelope: force band [%g, %g] is inverted", f.MinForce, f.MaxForce)
	}
	return nil
}

// SpeedFader maps speed onto [0, 1] across the fader range.
func SpeedFader(p Params, speed float64) float64 {
	span := p.FaderMaxSpeed - p.FaderMinSpeed
	if span <= 0 {
		if speed >= p.FaderMaxSpeed {
			return 1
		}
		return 0
	}
	return clamp01((speed - p.FaderMinSpeed) / span)
}

// Volume converts a force-like magnitude into a linear volume.
func Volume(p Params, force float64) float64 {
	return p.VolumeByForce * force
}

// Pitch converts a sliding or impact speed into a pitch.
func Pitch(p Params, speed float64) float64 {
	return p.BasePitch + p.PitchBySpeed*speed
}

// ClampForce squeezes a force into the friction band: forces under MinForce
// are silent and forces over MaxForce saturate.
func ClampForce(f Friction, force float64) float64 {
	return math.Max(0, math.Min(f.MaxForce, force)-f.MinForce)
}

// Audible reports whether a volume is loud enough to keep playing.
func Audible(volume float64) bool {
	return volume > AudibleThreshold
}

const minSmoothTime = 1e-4

// SmoothDamp moves current toward target with a critically damped spring
// reaching the target in roughly smoothTime seconds. velocity carries the
// spring state between calls. The result never overshoots target.
func SmoothDamp(current, target float64, velocity *float64, smoothTime, dt float64) float64 {
	if dt <= 0 {
		return current
	}
	smoothTime = math.Max(minSmoothTime, smoothTime)
	omega := 2 / smoothTime
	x := omega * dt
	decay := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	change := current - target
	temp := (*velocity + omega*change) * dt
	*velocity = (*velocity - omega*temp) * decay
	out := target + (change+temp)*decay

	if (target-current > 0) == (out > target) {
		out = target
		*velocity = 0
	}
	return out
}

// Follow applies SmoothDamp to *value, choosing the up or down time by the
// direction of travel.
func Follow(value *float64, target float64, velocity *float64, times SmoothTimes, dt float64) {
	smoothTime := times.Down
	if target > *value {
		smoothTime = times.Up
	}
	*value = SmoothDamp(*value, target, velocity, smoothTime, dt)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
