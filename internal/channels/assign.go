package channels

import (
	"surfacefx/internal/envelope"
	"surfacefx/surface"
)

// Unassigned marks an output that found no channel.
const Unassigned = -1

// Assign maps every output onto a channel and returns, per output, the
// channel index or Unassigned. mapping is reused when it has capacity.
//
// The first pass keeps outputs where they already are: an output claims a
// free channel already holding its key, and failing that the first free
// channel that is silent or has never been keyed. The second pass hands any
// remaining output the first channel not yet given this tick. Channels that
// receive nothing keep their key and are expected to fade out.
func Assign(outputs *surface.Set, channels []Channel, mapping []int) []int {
	for i := range channels {
		channels[i].given = false
	}
	mapping = mapping[:0]
	if outputs == nil {
		return mapping
	}

	for _, o := range outputs.Items {
		key := o.Key()
		found := Unassigned
		for i := range channels {
			c := &channels[i]
			if !c.given && c.hasKey && c.key == key {
				found = i
				break
			}
		}
		if found == Unassigned {
			for i := range channels {
				c := &channels[i]
				if !c.given && (!c.hasKey || c.Silent()) {
					found = i
					break
				}
			}
		}
		if found != Unassigned {
			channels[found].claim(key)
		}
		mapping = append(mapping, found)
	}

	for n, o := range outputs.Items {
		if mapping[n] != Unassigned {
			continue
		}
		for i := range channels {
			if !channels[i].given {
				channels[i].claim(o.Key())
				mapping[n] = i
				break
			}
		}
	}
	return mapping
}

// Mix carries the tick-wide scalars applied when driving channels.
type Mix struct {
	TotalVolume float64
	TotalPitch  float64
	ForceSum    float64
	Speed       float64
}

// Drive updates every channel for one render step: assigned channels follow
// their output's share of the aggregated force, the others are driven to
// silence.
func Drive(f envelope.Friction, outputs *surface.Set, mapping []int, channels []Channel, mix Mix, dt float64) {
	var items []surface.Output
	if outputs != nil {
		items = outputs.Items
	}
	for n, o := range items {
		if n >= len(mapping) || mapping[n] == Unassigned {
			continue
		}
		vm := mix.TotalVolume * o.VolumeMultiplier
		pm := mix.TotalPitch * o.PitchMultiplier
		channels[mapping[n]].Update(f, vm, pm, mix.ForceSum*o.Weight, mix.Speed, dt)
	}
	for i := range channels {
		if !channels[i].given {
			channels[i].Update(f, mix.TotalVolume, mix.TotalPitch, 0, 0, dt)
		}
	}
}

// Bank owns a fixed channel array and the mapping of the last assignment.
type Bank struct {
	channels []Channel
	mapping  []int
}

// NewBank allocates count channels.
func NewBank(count int) *Bank {
	if count < 0 {
		count = 0
	}
	return &Bank{
		channels: make([]Channel, count),
		mapping:  make([]int, 0, count),
	}
}

// Len is the number of channels.
func (b *Bank) Len() int { return len(b.channels) }

// Channel returns channel i.
func (b *Bank) Channel(i int) *Channel { return &b.channels[i] }

// Mapping returns the output-to-channel mapping of the last Assign.
func (b *Bank) Mapping() []int { return b.mapping }

// Assign runs Assign against the bank.
func (b *Bank) Assign(outputs *surface.Set) []int {
	b.mapping = Assign(outputs, b.channels, b.mapping)
	return b.mapping
}

// Drive runs Drive against the bank using the last mapping.
func (b *Bank) Drive(f envelope.Friction, outputs *surface.Set, mix Mix, dt float64) {
	Drive(f, outputs, b.mapping, b.channels, mix, dt)
}

// Silence drops every channel's envelope to zero immediately.
func (b *Bank) Silence() {
	for i := range b.channels {
		c := &b.channels[i]
		c.volume, c.volumeVelocity = 0, 0
		c.pitchVelocity = 0
	}
}
