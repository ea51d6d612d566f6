// Package channels maps aggregated surface outputs onto a fixed bank of
// stateful output channels and follows each channel's envelope.
package channels

import (
	"surfacefx/internal/envelope"
	"surfacefx/surface"
)

// Channel is one persistent output slot. Its key names the output it is
// assigned to; the playing key trails behind while the channel fades out the
// previous output before switching.
type Channel struct {
	key        surface.Key
	hasKey     bool
	playing    surface.Key
	hasPlaying bool
	given      bool

	volume         float64
	volumeVelocity float64
	pitch          float64
	pitchVelocity  float64
}

// Key returns the assigned key.
func (c *Channel) Key() (surface.Key, bool) { return c.key, c.hasKey }

// Playing returns the key currently sounding on the channel.
func (c *Channel) Playing() (surface.Key, bool) { return c.playing, c.hasPlaying }

// Given reports whether the channel was assigned an output this tick.
func (c *Channel) Given() bool { return c.given }

// Volume is the current envelope volume.
func (c *Channel) Volume() float64 { return c.volume }

// Pitch is the current envelope pitch.
func (c *Channel) Pitch() float64 { return c.pitch }

// Silent reports whether the envelope has decayed below audibility.
func (c *Channel) Silent() bool { return !envelope.Audible(c.volume) }

// Switching reports whether the channel is fading out toward a new key.
func (c *Channel) Switching() bool {
	return c.hasKey && (!c.hasPlaying || c.playing != c.key)
}

func (c *Channel) claim(key surface.Key) {
	c.key = key
	c.hasKey = true
	c.given = true
}

// Update advances the envelope by dt seconds toward the target implied by
// force and speed. volumeMult and pitchMult scale the targets.
//
// While the channel is switching keys the volume fades to silence using the
// clip-change time; once silent the new key takes over and the pitch snaps to
// its target. The pitch only follows while speed is non-zero so a contact
// coming to rest does not drag it down.
func (c *Channel) Update(f envelope.Friction, volumeMult, pitchMult, force, speed, dt float64) {
	if !c.hasKey {
		return
	}
	targetPitch := pitchMult * envelope.Pitch(f.Params, speed)

	if c.Switching() {
		if c.Silent() {
			c.playing = c.key
			c.hasPlaying = true
			c.pitch = targetPitch
			c.volumeVelocity = 0
			c.pitchVelocity = 0
		}
		envelope.Follow(&c.volume, 0, &c.volumeVelocity, envelope.SmoothTimes{Down: f.ClipChangeSmoothTime}, dt)
		return
	}

	target := volumeMult * envelope.Volume(f.Params, force)
	envelope.Follow(&c.volume, target, &c.volumeVelocity, f.SmoothTimes, dt)
	if speed != 0 {
		envelope.Follow(&c.pitch, targetPitch, &c.pitchVelocity, f.SmoothTimes, dt)
	}
}
