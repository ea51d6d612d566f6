// Package effects voices physics contacts: it resolves every contact against
// the surface catalogs, plays impacts, folds continuous contacts into the
// friction channels and emits particles.
//
// An Instance is driven from a single goroutine. BeginTick and the Contact
// calls run on the simulation cadence, Render on the render cadence; the
// aggregate of a tick is finalized by the first Render after it.
package effects

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"surfacefx/contact"
	"surfacefx/internal/aggregate"
	"surfacefx/internal/channels"
	"surfacefx/internal/envelope"
	"surfacefx/internal/resolve"
	"surfacefx/internal/telemetry"
	"surfacefx/logging"
	"surfacefx/logging/surfaces"
	"surfacefx/surface"
)

const (
	metricImpacts            = "surfaces_impacts_total"
	metricFrictionReassigned = "surfaces_friction_reassigned_total"
	metricDefaultSubstituted = "surfaces_default_substituted_total"
	metricContactsSkipped    = "surfaces_contacts_skipped_total"
	metricActiveChannels     = "surfaces_active_channels"
)

// minImpactVolume is the loudest impact still treated as silence.
const minImpactVolume = 1e-14

// minCollisionHardness keeps the impact duration estimate finite.
const minCollisionHardness = 1e-8

// simEpoch anchors the simulated clock that drives the impact cooldown.
var simEpoch = time.Unix(0, 0).UTC()

// Options configure New.
type Options struct {
	// ID defaults to a random identity.
	ID   uuid.UUID
	Body contact.BodyID
	// Name labels the instance in logs; it defaults to the ID.
	Name   string
	Config Config
	// Sounds is required. Particles may be nil to disable particles.
	Sounds    resolve.Snapshotter
	Particles resolve.Snapshotter
	Sinks     Sinks
	Registry  *Registry
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
}

// Instance is the contact-effects state attached to one body.
type Instance struct {
	id   uuid.UUID
	body contact.BodyID
	cfg  Config

	sounds           resolve.Snapshotter
	soundResolver    *resolve.Resolver
	particleResolver *resolve.Resolver
	sinks            Sinks
	registry         *Registry
	pub              logging.Publisher
	metrics          telemetry.Metrics
	actor            logging.EntityRef

	state       *aggregate.State
	bank        *channels.Bank
	prevKeys    []surface.Key
	prevHas     []bool
	soundBuf    surface.Set
	particleBuf surface.Set

	cooldown        *rate.Limiter
	elapsed         time.Duration
	tick            uint64
	previousImpulse float64
	defaulted       bool
}

// New builds an instance and registers it when a Registry is given.
func New(opts Options) (*Instance, error) {
	if opts.Sounds == nil {
		return nil, errors.New("effects: sound catalog is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	name := opts.Name
	if name == "" {
		name = id.String()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = logging.NopPublisher()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.Nop()
	}

	cfg := opts.Config
	inst := &Instance{
		id:            id,
		body:          opts.Body,
		cfg:           cfg,
		sounds:        opts.Sounds,
		soundResolver: resolve.New(opts.Sounds),
		sinks:         opts.Sinks,
		registry:      opts.Registry,
		pub:           pub,
		metrics:       metrics,
		actor:         logging.EntityRef{ID: name, Kind: logging.EntityKindEffect},
		state:         aggregate.NewStateWithPolicy(cfg.FrictionChannels+1, cfg.meanPolicy()),
		bank:          channels.NewBank(cfg.FrictionChannels),
		prevKeys:      make([]surface.Key, cfg.FrictionChannels),
		prevHas:       make([]bool, cfg.FrictionChannels),
		soundBuf:      surface.Set{Items: make([]surface.Output, 0, max(cfg.ImpactChannels, cfg.FrictionChannels)+1)},
		particleBuf:   surface.Set{Items: make([]surface.Output, 0, MaxParticleTypes+1)},
		cooldown:      rate.NewLimiter(rate.Every(cfg.ImpactCooldown), 1),
	}
	if opts.Particles != nil {
		inst.particleResolver = resolve.New(opts.Particles)
	}
	if opts.Registry != nil {
		if err := opts.Registry.Register(inst); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// ID returns the instance identity.
func (i *Instance) ID() uuid.UUID { return i.id }

// Body returns the body the instance is attached to.
func (i *Instance) Body() contact.BodyID { return i.body }

// Config returns the instance tuning.
func (i *Instance) Config() Config { return i.cfg }

// Close detaches the instance from its registry and silences its channels.
func (i *Instance) Close() {
	if i.registry != nil {
		if registered, ok := i.registry.Lookup(i.body); ok && registered == i {
			i.registry.Unregister(i.body)
		}
	}
	i.bank.Silence()
}

// BeginTick starts a simulation tick, discarding the previous aggregate.
func (i *Instance) BeginTick(tick uint64) {
	i.tick = tick
	i.state.Reset()
}

// ContactEnter handles the first tick of a contact and reports whether an
// impact played.
func (i *Instance) ContactEnter(ctx context.Context, d contact.Descriptor) bool {
	return i.impact(ctx, d, false)
}

// ContactStay handles a continuing contact: a sudden impulse rise plays an
// impact, the contact feeds the friction aggregate and, when enabled,
// particles are emitted for this tick.
func (i *Instance) ContactStay(ctx context.Context, d contact.Descriptor) {
	if i.yields(d) {
		return
	}
	impulse := i.cfg.ForceMultiplier * d.ImpulseMagnitude()
	if i.cfg.ImpactByImpulseChangeRate && d.DeltaTime > 0 {
		if (impulse-i.previousImpulse)/d.DeltaTime >= i.cfg.ImpulseChangeRateToImpact {
			i.impact(ctx, d, true)
		}
		i.previousImpulse = impulse
	}

	d = i.prepare(d)
	if i.cfg.FrictionSound {
		i.friction(ctx, d, impulse)
	}
	if i.cfg.Particles.Mode == ParticlesImpactAndFriction && d.DeltaTime > 0 {
		i.emitParticles(d, d.DeltaTime)
	}
}

// Render advances the instance by dt seconds of wall time: the impact
// cooldown elapses, the tick's friction aggregate is finalized and assigned
// on first use, and every friction channel follows its envelope.
func (i *Instance) Render(ctx context.Context, dt float64) {
	if dt > 0 {
		i.elapsed += time.Duration(dt * float64(time.Second))
	}
	if !i.cfg.FrictionSound || i.bank.Len() == 0 {
		return
	}

	outputs := i.state.Outputs()
	if i.state.Finalize(i.cfg.FrictionChannels, i.cfg.Friction.MinimumTypeWeight) {
		for n := 0; n < i.bank.Len(); n++ {
			i.prevKeys[n], i.prevHas[n] = i.bank.Channel(n).Key()
		}
		i.bank.Assign(outputs)
		i.reportReassignments(ctx)
	}

	i.bank.Drive(i.cfg.Friction, outputs, channels.Mix{
		TotalVolume: i.cfg.TotalVolumeMultiplier,
		TotalPitch:  i.cfg.TotalPitchMultiplier,
		ForceSum:    i.state.ForceSum(),
		Speed:       i.state.Speed(),
	}, dt)

	var active uint64
	for n := 0; n < i.bank.Len(); n++ {
		c := i.bank.Channel(n)
		if !c.Silent() {
			active++
		}
		if i.sinks.Friction == nil {
			continue
		}
		key, has := c.Playing()
		i.sinks.Friction.UpdateFriction(FrictionVoice{
			Channel: n,
			Key:     key,
			HasKey:  has,
			Given:   c.Given(),
			Volume:  c.Volume(),
			Pitch:   c.Pitch(),
		})
	}
	i.metrics.Store(metricActiveChannels, active)
}

func (i *Instance) yields(d contact.Descriptor) bool {
	other, ok := i.registry.Lookup(d.Other)
	return ok && i.Yields(other)
}

func (i *Instance) prepare(d contact.Descriptor) contact.Descriptor {
	if !i.cfg.FindMeshSubmesh {
		d.Triangle = contact.Triangle{}
	}
	return d
}

func (i *Instance) now() time.Time {
	return simEpoch.Add(i.elapsed)
}

func (i *Instance) impact(ctx context.Context, d contact.Descriptor, byChange bool) bool {
	now := i.now()
	if i.cooldown.TokensAt(now) < 1 {
		return false
	}
	if i.yields(d) {
		return false
	}

	speed := i.cfg.SpeedMultiplier * d.RelativeVelocity.Len()
	impulse := i.cfg.ForceMultiplier * d.ImpulseMagnitude()
	params := i.cfg.Impact.Params
	volume := i.cfg.TotalVolumeMultiplier * envelope.Volume(params, impulse) * envelope.SpeedFader(params, speed)
	if !(volume > minImpactVolume) {
		return false
	}
	i.cooldown.AllowN(now, 1)

	d = i.prepare(d)
	sounds := i.resolveSounds(ctx, d, i.cfg.ImpactChannels)
	sounds.SortDescending()
	sounds.Downshift(i.cfg.ImpactChannels, params.MinimumTypeWeight, 1)

	pitch := i.cfg.TotalPitchMultiplier * envelope.Pitch(params, speed)
	count := min(i.cfg.ImpactChannels, sounds.Len())
	infos := make([]surfaces.OutputInfo, 0, count)
	for n, o := range sounds.Items[:count] {
		if i.sinks.Impact != nil {
			i.sinks.Impact.PlayImpact(ImpactVoice{
				Channel:   n,
				Output:    o,
				Volume:    math.Min(volume*o.Weight*o.VolumeMultiplier, 1),
				Pitch:     pitch * o.PitchMultiplier,
				HitNormal: sounds.HitNormal,
				Hardness:  sounds.Hardness,
			})
		}
		infos = append(infos, surfaces.OutputInfo{
			SurfaceType: i.typeName(o.SurfaceTypeID),
			Override:    o.OverrideID,
			Weight:      o.Weight,
			Channel:     n,
		})
	}
	i.metrics.Add(metricImpacts, 1)
	surfaces.ImpactPlayed(ctx, i.pub, i.tick, i.actor, i.targets(d), surfaces.ImpactPlayedPayload{
		Volume:          volume,
		Pitch:           pitch,
		Speed:           speed,
		Impulse:         impulse,
		Hardness:        sounds.Hardness,
		Outputs:         infos,
		ByImpulseChange: byChange,
	})

	if i.cfg.Particles.Mode != ParticlesNone {
		hardness := math.Max(minCollisionHardness, i.cfg.Particles.SelfHardness*sounds.Hardness)
		i.emitParticles(d, 1/hardness)
	}
	return true
}

func (i *Instance) friction(ctx context.Context, d contact.Descriptor, impulse float64) {
	if d.DeltaTime <= 0 {
		i.skip(ctx, d, "zero_delta_time")
		return
	}
	points := d.ManifoldPoints()
	direction := d.Impulse
	if direction.Len() > 0 {
		direction = direction.Normalize()
	}

	var normalImpulse, speed float64
	for _, p := range points {
		alignment := math.Abs(direction.Dot(p.Normal))
		normalImpulse += impulse * lerp(1, i.cfg.Friction.NormalForceMultiplier, alignment)
		speed += p.RelativeVelocity.Len()
	}
	n := float64(len(points))
	normalImpulse /= n
	speed *= i.cfg.SpeedMultiplier / n

	force := envelope.ClampForce(i.cfg.Friction, normalImpulse/d.DeltaTime)
	force *= envelope.SpeedFader(i.cfg.Friction.Params, speed)
	if !(force > 0) {
		return
	}
	sounds := i.resolveSounds(ctx, d, i.cfg.FrictionChannels)
	i.state.Add(sounds, force, speed)
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*mgl64.Clamp(t, 0, 1)
}

func (i *Instance) emitParticles(d contact.Descriptor, duration float64) {
	if i.particleResolver == nil || i.sinks.Particles == nil {
		return
	}
	set := &i.particleBuf
	i.particleResolver.Resolve(d, MaxParticleTypes, set)
	set.SortDescending()
	set.Downshift(MaxParticleTypes, i.cfg.Particles.MinimumTypeWeight, 1)

	impulse := d.ImpulseMagnitude()
	speed := d.RelativeVelocity.Len()
	for _, o := range set.Items {
		i.sinks.Particles.EmitParticles(ParticleBurst{
			Output:          o,
			Impulse:         impulse,
			Speed:           speed,
			Point:           d.Point,
			HitNormal:       set.HitNormal,
			Velocity:        d.RelativeVelocity,
			Radius:          i.cfg.Particles.MinimumShapeRadius,
			Duration:        duration,
			CountMultiplier: o.ParticleCountMultiplier * i.cfg.Particles.CountMultiplier,
			SizeMultiplier:  o.ParticleSizeMultiplier * i.cfg.Particles.SizeMultiplier,
		})
	}
}

// resolveSounds fills the instance's sound buffer. The returned set is only
// valid until the next call.
func (i *Instance) resolveSounds(ctx context.Context, d contact.Descriptor, maxOutputCount int) *surface.Set {
	outcome := i.soundResolver.Resolve(d, maxOutputCount, &i.soundBuf)
	if outcome.Defaulted {
		i.metrics.Add(metricDefaultSubstituted, 1)
		if !i.defaulted {
			var def string
			if snap := i.sounds.Snapshot(); snap != nil {
				def = i.typeName(snap.Default())
			}
			surfaces.DefaultSubstituted(ctx, i.pub, i.tick, i.actor, i.targets(d), surfaces.DefaultSubstitutedPayload{
				Strategy:    outcome.Strategy.String(),
				Material:    d.Surface.PrimaryMaterial(),
				DefaultType: def,
			})
		}
	}
	i.defaulted = outcome.Defaulted
	return &i.soundBuf
}

func (i *Instance) reportReassignments(ctx context.Context) {
	for n := 0; n < i.bank.Len(); n++ {
		key, has := i.bank.Channel(n).Key()
		if !has || (i.prevHas[n] && i.prevKeys[n] == key) {
			continue
		}
		i.metrics.Add(metricFrictionReassigned, 1)
		payload := surfaces.FrictionReassignedPayload{
			Channel:    n,
			To:         i.typeName(key.SurfaceTypeID),
			ToOverride: key.OverrideID,
		}
		if i.prevHas[n] {
			payload.From = i.typeName(i.prevKeys[n].SurfaceTypeID)
			payload.FromOverride = i.prevKeys[n].OverrideID
		}
		surfaces.FrictionReassigned(ctx, i.pub, i.tick, i.actor, payload)
	}
}

func (i *Instance) skip(ctx context.Context, d contact.Descriptor, reason string) {
	i.metrics.Add(metricContactsSkipped, 1)
	surfaces.ContactSkipped(ctx, i.pub, i.tick, i.actor, i.targets(d), surfaces.ContactSkippedPayload{
		Reason:    reason,
		DeltaTime: d.DeltaTime,
		Points:    len(d.Points),
	})
}

func (i *Instance) targets(d contact.Descriptor) []logging.EntityRef {
	return []logging.EntityRef{{ID: strconv.FormatUint(uint64(d.Other), 10), Kind: logging.EntityKindBody}}
}

func (i *Instance) typeName(index int) string {
	if t, ok := i.sounds.Snapshot().Type(index); ok {
		return t.ID
	}
	return strconv.Itoa(index)
}
