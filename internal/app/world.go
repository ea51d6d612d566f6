package app

import (
	"context"
	"fmt"
	"sync"

	"surfacefx/effects"
	"surfacefx/internal/resolve"
	"surfacefx/internal/telemetry"
	"surfacefx/logging"
)

const (
	metricImpactVoices    = "demo_impact_voices_total"
	metricParticleBursts  = "demo_particle_bursts_total"
	metricAudibleFriction = "demo_audible_friction_voices"
)

// WorldConfig wires the instances of a World.
type WorldConfig struct {
	TickRate  int
	Effects   effects.Config
	Sounds    resolve.Snapshotter
	Particles resolve.Snapshotter
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	// Counters backs TelemetrySnapshot; it should also feed Metrics.
	Counters *logging.Metrics
	Bodies   []BodyScript
}

// World drives scripted bodies through their effects instances on a fixed
// tick. Step must be called from a single goroutine; the read methods are
// safe from any goroutine.
type World struct {
	tickRate int
	dt       float64
	registry *effects.Registry
	bodies   []worldBody
	metrics  telemetry.Metrics
	counters *logging.Metrics
	audible  uint64

	mu        sync.RWMutex
	tick      uint64
	snapshots []effects.Snapshot
}

type worldBody struct {
	inst   *effects.Instance
	script Script
}

func NewWorld(cfg WorldConfig) (*World, error) {
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.Nop()
	}
	w := &World{
		tickRate: cfg.TickRate,
		dt:       1 / float64(cfg.TickRate),
		registry: effects.NewRegistry(),
		metrics:  metrics,
		counters: cfg.Counters,
	}

	sinks := effects.Sinks{
		Impact: effects.ImpactFunc(func(effects.ImpactVoice) {
			w.metrics.Add(metricImpactVoices, 1)
		}),
		Friction: effects.FrictionFunc(func(v effects.FrictionVoice) {
			if v.HasKey && v.Volume > 0 {
				w.audible++
			}
		}),
		Particles: effects.ParticleFunc(func(effects.ParticleBurst) {
			w.metrics.Add(metricParticleBursts, 1)
		}),
	}

	for _, script := range cfg.Bodies {
		effectCfg := cfg.Effects
		effectCfg.Priority = script.Priority
		inst, err := effects.New(effects.Options{
			Body:      script.Body,
			Name:      script.Name,
			Config:    effectCfg,
			Sounds:    cfg.Sounds,
			Particles: cfg.Particles,
			Sinks:     sinks,
			Registry:  w.registry,
			Publisher: cfg.Publisher,
			Metrics:   metrics,
		})
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("app: body %q: %w", script.Name, err)
		}
		w.bodies = append(w.bodies, worldBody{inst: inst, script: script.Script})
	}
	return w, nil
}

// Step advances the world by one tick and renders it once.
func (w *World) Step(ctx context.Context) {
	w.mu.Lock()
	w.tick++
	tick := w.tick
	w.mu.Unlock()

	for _, b := range w.bodies {
		b.inst.BeginTick(tick)
	}
	for _, b := range w.bodies {
		if b.script == nil {
			continue
		}
		for _, c := range b.script.Contacts(tick, w.dt) {
			if c.Enter {
				b.inst.ContactEnter(ctx, c.Descriptor)
			} else {
				b.inst.ContactStay(ctx, c.Descriptor)
			}
		}
	}

	w.audible = 0
	snapshots := make([]effects.Snapshot, 0, len(w.bodies))
	for _, b := range w.bodies {
		b.inst.Render(ctx, w.dt)
		snapshots = append(snapshots, b.inst.Snapshot())
	}
	w.metrics.Store(metricAudibleFriction, w.audible)

	w.mu.Lock()
	w.snapshots = snapshots
	w.mu.Unlock()
}

// Close detaches every instance.
func (w *World) Close() {
	for _, b := range w.bodies {
		b.inst.Close()
	}
}

// Snapshots returns the snapshots taken by the last Step.
func (w *World) Snapshots() []effects.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]effects.Snapshot(nil), w.snapshots...)
}

func (w *World) TelemetrySnapshot() map[string]uint64 {
	return w.counters.Snapshot()
}

func (w *World) TickRate() int { return w.tickRate }

func (w *World) Tick() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.tick
}
