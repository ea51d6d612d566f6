package effects

import "surfacefx/internal/channels"

// Snapshot is a read-only view of an instance for diagnostics.
type Snapshot struct {
	ID       string            `json:"id"`
	Body     uint64            `json:"body"`
	Tick     uint64            `json:"tick"`
	Contacts int               `json:"contacts"`
	ForceSum float64           `json:"forceSum"`
	Speed    float64           `json:"speed"`
	Hardness float64           `json:"hardness"`
	Outputs  []OutputSnapshot  `json:"outputs"`
	Channels []ChannelSnapshot `json:"channels"`
}

// OutputSnapshot is one finalized friction output.
type OutputSnapshot struct {
	SurfaceType string  `json:"surfaceType"`
	Override    string  `json:"override,omitempty"`
	Weight      float64 `json:"weight"`
	Volume      float64 `json:"volume"`
	Pitch       float64 `json:"pitch"`
	Channel     int     `json:"channel"`
}

// ChannelSnapshot is the envelope state of one friction channel.
type ChannelSnapshot struct {
	Index       int     `json:"index"`
	SurfaceType string  `json:"surfaceType,omitempty"`
	Override    string  `json:"override,omitempty"`
	Given       bool    `json:"given"`
	Switching   bool    `json:"switching"`
	Volume      float64 `json:"volume"`
	Pitch       float64 `json:"pitch"`
}

// Snapshot copies the current friction state. Outputs are only listed once
// the tick's aggregate has been finalized.
func (i *Instance) Snapshot() Snapshot {
	snap := Snapshot{
		ID:       i.id.String(),
		Body:     uint64(i.body),
		Tick:     i.tick,
		Contacts: i.state.Contacts(),
		ForceSum: i.state.ForceSum(),
		Speed:    i.state.Speed(),
	}
	if i.state.Finalized() {
		outputs := i.state.Outputs()
		snap.Hardness = outputs.Hardness
		mapping := i.bank.Mapping()
		snap.Outputs = make([]OutputSnapshot, 0, outputs.Len())
		for n, o := range outputs.Items {
			channel := channels.Unassigned
			if n < len(mapping) {
				channel = mapping[n]
			}
			snap.Outputs = append(snap.Outputs, OutputSnapshot{
				SurfaceType: i.typeName(o.SurfaceTypeID),
				Override:    o.OverrideID,
				Weight:      o.Weight,
				Volume:      o.VolumeMultiplier,
				Pitch:       o.PitchMultiplier,
				Channel:     channel,
			})
		}
	}
	snap.Channels = make([]ChannelSnapshot, 0, i.bank.Len())
	for n := 0; n < i.bank.Len(); n++ {
		c := i.bank.Channel(n)
		cs := ChannelSnapshot{
			Index:     n,
			Given:     c.Given(),
			Switching: c.Switching(),
			Volume:    c.Volume(),
			Pitch:     c.Pitch(),
		}
		if key, ok := c.Key(); ok {
			cs.SurfaceType = i.typeName(key.SurfaceTypeID)
			cs.Override = key.OverrideID
		}
		snap.Channels = append(snap.Channels, cs)
	}
	return snap
}
