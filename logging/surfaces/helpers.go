package surfaces

import (
	"context"

	"surfacefx/logging"
)

const (
	// EventImpactPlayed is emitted when an effects instance plays a one-shot impact.
	EventImpactPlayed logging.EventType = "surfaces.impact_played"
	// EventFrictionReassigned is emitted when a friction channel changes surface key.
	EventFrictionReassigned logging.EventType = "surfaces.friction_reassigned"
	// EventDefaultSubstituted is emitted when a contact resolves to nothing and the default type stands in.
	EventDefaultSubstituted logging.EventType = "surfaces.default_substituted"
	// EventContactSkipped is emitted when a contact carries degenerate numeric input.
	EventContactSkipped logging.EventType = "surfaces.contact_skipped"
)

// ImpactPlayedPayload describes one impact and the outputs it voiced.
type ImpactPlayedPayload struct {
	Volume   float64      `json:"volume"`
	Pitch    float64      `json:"pitch"`
	Speed    float64      `json:"speed"`
	Impulse  float64      `json:"impulse"`
	Hardness float64      `json:"hardness"`
	Outputs  []OutputInfo `json:"outputs"`
	// ByImpulseChange is set when the impact came from a sudden impulse rise during continuous contact.
	ByImpulseChange bool `json:"byImpulseChange,omitempty"`
}

// OutputInfo is the loggable form of a weighted surface output.
type OutputInfo struct {
	SurfaceType string  `json:"surfaceType"`
	Override    string  `json:"override,omitempty"`
	Weight      float64 `json:"weight"`
	Channel     int     `json:"channel"`
}

// ImpactPlayed publishes an impact event.
func ImpactPlayed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload ImpactPlayedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventImpactPlayed,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

// FrictionReassignedPayload captures a channel key change.
type FrictionReassignedPayload struct {
	Channel      int    `json:"channel"`
	From         string `json:"from,omitempty"`
	FromOverride string `json:"fromOverride,omitempty"`
	To           string `json:"to"`
	ToOverride   string `json:"toOverride,omitempty"`
}

// FrictionReassigned publishes a channel reassignment.
func FrictionReassigned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FrictionReassignedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFrictionReassigned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

// DefaultSubstitutedPayload records why the default surface type was used.
type DefaultSubstitutedPayload struct {
	Strategy    string `json:"strategy"`
	Material    string `json:"material,omitempty"`
	DefaultType string `json:"defaultType"`
}

// DefaultSubstituted publishes a warning when nothing resolved for a contact.
func DefaultSubstituted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload DefaultSubstitutedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDefaultSubstituted,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityWarn,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}

// ContactSkippedPayload names the degenerate input that excluded a contact.
type ContactSkippedPayload struct {
	Reason    string  `json:"reason"`
	DeltaTime float64 `json:"deltaTime"`
	Points    int     `json:"points"`
}

// ContactSkipped publishes a debug event for an excluded contact.
func ContactSkipped(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload ContactSkippedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventContactSkipped,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySurfaces,
		Payload:  payload,
	})
}
