package attach

import (
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/foundation/normalization"
)

// StopReason explains why an attachment ends. Forced reasons ignore vetoes.
type StopReason string

const (
	ReasonGetUp       StopReason = "get_up"
	ReasonEnvironment StopReason = "environment"
	ReasonTeleport    StopReason = "teleport"
	ReasonDamage      StopReason = "damage"
	ReasonBlockBreak  StopReason = "block_break"
	ReasonDeath       StopReason = "death"
	ReasonQuit        StopReason = "quit"
	ReasonKicked      StopReason = "kicked"
	ReasonPlugin      StopReason = "plugin"
)

var cancellableReasons = map[StopReason]bool{
	ReasonGetUp:       true,
	ReasonEnvironment: true,
	ReasonTeleport:    true,
	ReasonDamage:      true,
	ReasonBlockBreak:  false,
	ReasonDeath:       false,
	ReasonQuit:        false,
	ReasonKicked:      false,
	ReasonPlugin:      false,
}

// Cancellable reports whether a pre-stop subscriber may veto this reason.
func (r StopReason) Cancellable() bool { return cancellableReasons[r] }

func (r StopReason) String() string { return string(r) }

// ParseStopReason accepts the canonical names case-insensitively, with '-' or '_'.
func ParseStopReason(raw string) (StopReason, error) {
	r, ok := reasonNames.Lookup(raw)
	if !ok {
		return "", ErrUnknownReason.WithContext("reason", raw).WithContext("valid", reasonNames.ValidKeys())
	}
	return r, nil
}

var reasonNames = func() *normalization.Normalizer[StopReason] {
	names := make(map[string]StopReason, len(cancellableReasons))
	for r := range cancellableReasons {
		names[string(r)] = r
	}
	return normalization.NewNormalizer(names)
}()

// Variant is the posture held by a pose.
type Variant string

const (
	VariantSitting   Variant = "sitting"
	VariantLying     Variant = "lying"
	VariantBellyFlop Variant = "belly_flop"
	VariantSpinning  Variant = "spinning"
)

var variantNames = normalization.NewNormalizer(map[string]Variant{
	string(VariantSitting):   VariantSitting,
	string(VariantLying):     VariantLying,
	string(VariantBellyFlop): VariantBellyFlop,
	string(VariantSpinning):  VariantSpinning,
})

func (v Variant) String() string { return string(v) }

// ParseVariant accepts the canonical names case-insensitively, with '-' or '_'.
func ParseVariant(raw string) (Variant, error) {
	v, ok := variantNames.Lookup(raw)
	if !ok {
		return "", ErrUnknownVariant.WithContext("variant", raw).WithContext("valid", variantNames.ValidKeys())
	}
	return v, nil
}

var (
	// ErrVetoed means a pre-event subscriber cancelled the change.
	ErrVetoed = ferrors.RejectedError("state change vetoed").Build()
	// ErrInvalidLocation means the computed attach point failed validation.
	ErrInvalidLocation = ferrors.RejectedError("attach point is not usable").Build()
	// ErrMaterializeFailed means the factory could not create the marker.
	ErrMaterializeFailed = ferrors.RejectedError("attachment could not be materialized").Build()
	// ErrAlreadyActive means the player already holds a state of this kind.
	ErrAlreadyActive = ferrors.RejectedError("player already holds this attachment").Build()

	ErrUnknownVariant = ferrors.ValidationError("unknown pose variant").Build()
	ErrUnknownReason  = ferrors.ValidationError("unknown stop reason").Build()
)
