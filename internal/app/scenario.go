package app

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"surfacefx/contact"
	"surfacefx/surface"
)

const gravity = 9.81

// ScriptedContact is one contact callback produced by a Script.
type ScriptedContact struct {
	// Enter marks the first tick of the contact; later ticks are stays.
	Enter bool
	contact.Descriptor
}

// Script produces the contacts of one body for a simulation tick.
type Script interface {
	Contacts(tick uint64, dt float64) []ScriptedContact
}

// BodyScript attaches a script to an effects instance.
type BodyScript struct {
	Name     string
	Body     contact.BodyID
	Priority int
	Script   Script
}

// Slide drags a body across terrain whose texture mix drifts from the first
// layer to the last and back over Period ticks.
type Slide struct {
	Body   contact.BodyID
	Ground contact.BodyID
	Mass   float64
	Speed  float64
	Layers []string
	Period uint64
}

func (s Slide) Contacts(tick uint64, dt float64) []ScriptedContact {
	if len(s.Layers) == 0 {
		return nil
	}
	period := max(s.Period, 1)
	phase := 0.5 - 0.5*math.Cos(2*math.Pi*float64(tick%period)/float64(period))
	mix := make([]float64, len(s.Layers))
	if len(mix) == 1 {
		mix[0] = 1
	} else {
		mix[0] = 1 - phase
		mix[len(mix)-1] += phase
	}

	x := s.Speed * dt * float64(tick)
	d := contact.Descriptor{
		Body:             s.Body,
		Other:            s.Ground,
		Point:            mgl64.Vec3{x, 0, 0},
		Normal:           mgl64.Vec3{0, 1, 0},
		RelativeVelocity: mgl64.Vec3{s.Speed, 0, 0},
		Impulse:          mgl64.Vec3{0, s.Mass * gravity * dt, 0},
		DeltaTime:        dt,
		Surface: contact.Surface{
			Terrain: contact.StaticTerrain{Mix: mix, Layers: s.Layers},
		},
	}
	return []ScriptedContact{{Enter: tick == 1, Descriptor: d}}
}

// Bounce drops a body onto a surface every Period ticks with a decaying
// impulse.
type Bounce struct {
	Body    contact.BodyID
	Ground  contact.BodyID
	Mass    float64
	Impulse float64
	Period  uint64
	Surface contact.Surface
}

func (b Bounce) Contacts(tick uint64, dt float64) []ScriptedContact {
	period := max(b.Period, 1)
	if tick == 0 || tick%period != 0 {
		return nil
	}
	n := float64(tick / period)
	impulse := b.Impulse / n
	speed := impulse / math.Max(b.Mass, 1e-3)
	d := contact.Descriptor{
		Body:             b.Body,
		Other:            b.Ground,
		Normal:           mgl64.Vec3{0, 1, 0},
		RelativeVelocity: mgl64.Vec3{0, -speed, 0},
		Impulse:          mgl64.Vec3{0, impulse, 0},
		DeltaTime:        dt,
		Surface:          b.Surface,
	}
	return []ScriptedContact{{Enter: true, Descriptor: d}}
}

// Roll keeps a body in contact with a mesh, walking its triangles so the
// struck submesh changes every few ticks.
type Roll struct {
	Body      contact.BodyID
	Ground    contact.BodyID
	Mass      float64
	Speed     float64
	Triangles int
	Surface   contact.Surface
}

func (r Roll) Contacts(tick uint64, dt float64) []ScriptedContact {
	var triangle contact.Triangle
	if r.Triangles > 0 {
		triangle = contact.TriangleAt(int(tick/5) % r.Triangles)
	}
	d := contact.Descriptor{
		Body:             r.Body,
		Other:            r.Ground,
		Normal:           mgl64.Vec3{0, 1, 0},
		RelativeVelocity: mgl64.Vec3{0, 0, r.Speed},
		Impulse:          mgl64.Vec3{0, r.Mass * gravity * dt, 0},
		DeltaTime:        dt,
		Triangle:         triangle,
		Surface:          r.Surface,
		Points: []contact.Point{
			{Normal: mgl64.Vec3{0, 1, 0}, RelativeVelocity: mgl64.Vec3{0, 0, r.Speed}},
			{Normal: mgl64.Vec3{0, 0.8, 0.6}, RelativeVelocity: mgl64.Vec3{0, 0, 0.9 * r.Speed}},
		},
	}
	return []ScriptedContact{{Enter: tick == 1, Descriptor: d}}
}

// DemoScripts is the bundled scenario: a crate sliding across a gravel to
// sand terrain, a barrel bouncing on a steel deck and a cart rolling over a
// blended deck that also bumps into the crate.
func DemoScripts() []BodyScript {
	deck := contact.Surface{
		Marker: contact.BlendOverride(
			[]surface.Blend{{Reference: "wood", Weight: 0.7}, {Reference: "metal", Weight: 0.3}},
			contact.SubmeshBlends{Submesh: 1, Blends: []surface.Blend{{Reference: "metal", Weight: 1}}},
		),
		Mesh:      contact.SubmeshRanges{Starts: []int{0, 4, 8}},
		Materials: []string{"Deck_Planks", "Deck_Plate", "Deck_Rust"},
	}
	return []BodyScript{
		{
			Name:     "crate",
			Body:     1,
			Priority: 1,
			Script: Slide{
				Body: 1, Ground: 100, Mass: 20, Speed: 1.5,
				Layers: []string{"terrain_gravel", "terrain_sand"},
				Period: 200,
			},
		},
		{
			Name: "barrel",
			Body: 2,
			Script: Bounce{
				Body: 2, Ground: 101, Mass: 8, Impulse: 40, Period: 25,
				Surface: contact.Surface{Materials: []string{"Steel_Deck_Plate"}},
			},
		},
		{
			Name: "cart",
			Body: 3,
			Script: scripts{
				Roll{Body: 3, Ground: 102, Mass: 12, Speed: 2, Triangles: 12, Surface: deck},
				Bounce{
					Body: 3, Ground: 1, Mass: 12, Impulse: 30, Period: 60,
					Surface: contact.Surface{Materials: []string{"Crate_Wood"}},
				},
			},
		},
	}
}

// scripts runs several scripts for the same body.
type scripts []Script

func (s scripts) Contacts(tick uint64, dt float64) []ScriptedContact {
	var out []ScriptedContact
	for _, script := range s {
		out = append(out, script.Contacts(tick, dt)...)
	}
	return out
}
