package disposition

import (
	"errors"
	"fmt"
)

// AgentKind identifies which family of decision behavior an agent uses.
type AgentKind string

const (
	Player   AgentKind = "player"
	Monster  AgentKind = "monster"
	Guardian AgentKind = "guardian"
)

var (
	ErrInvalidDisposition = errors.New("disposition component outside [0,1]")
	ErrUnknownEvent       = errors.New("unknown disposition event kind")
)

// Vector is an agent's eight-dimensional personality state. Every component
// stays in [0,1] after every transition; vectors outside that range are
// rejected at construction, never at decision time.
type Vector struct {
	Aggressiveness   float64 `json:"aggressiveness" yaml:"aggressiveness"`
	Greediness       float64 `json:"greediness" yaml:"greediness"`
	Cautiousness     float64 `json:"cautiousness" yaml:"cautiousness"`
	Strategicness    float64 `json:"strategicness" yaml:"strategicness"`
	Agreeableness    float64 `json:"agreeableness" yaml:"agreeableness"`
	Expendability    float64 `json:"expendability" yaml:"expendability"`
	Unpredictability float64 `json:"unpredictability" yaml:"unpredictability"`
	Influencability  float64 `json:"influencability" yaml:"influencability"`
}

// Trait names index into a vector for table-driven weight lookups.
const (
	TraitAggressiveness   = "aggressiveness"
	TraitGreediness       = "greediness"
	TraitCautiousness     = "cautiousness"
	TraitStrategicness    = "strategicness"
	TraitAgreeableness    = "agreeableness"
	TraitExpendability    = "expendability"
	TraitUnpredictability = "unpredictability"
	TraitInfluencability  = "influencability"
)

// Trait returns the named component. Unknown names return 0.5 so a
// misconfigured weight table biases nothing rather than everything.
func (v Vector) Trait(name string) float64 {
	switch name {
	case TraitAggressiveness:
		return v.Aggressiveness
	case TraitGreediness:
		return v.Greediness
	case TraitCautiousness:
		return v.Cautiousness
	case TraitStrategicness:
		return v.Strategicness
	case TraitAgreeableness:
		return v.Agreeableness
	case TraitExpendability:
		return v.Expendability
	case TraitUnpredictability:
		return v.Unpredictability
	case TraitInfluencability:
		return v.Influencability
	default:
		return 0.5
	}
}

// Validate checks every component is inside [0,1].
func (v Vector) Validate() error {
	components := map[string]float64{
		TraitAggressiveness:   v.Aggressiveness,
		TraitGreediness:       v.Greediness,
		TraitCautiousness:     v.Cautiousness,
		TraitStrategicness:    v.Strategicness,
		TraitAgreeableness:    v.Agreeableness,
		TraitExpendability:    v.Expendability,
		TraitUnpredictability: v.Unpredictability,
		TraitInfluencability:  v.Influencability,
	}
	for name, c := range components {
		if c < 0 || c > 1 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidDisposition, name, c)
		}
	}
	return nil
}

// New seeds a disposition from kind-specific base values. Higher levels drift
// slightly toward strategic, less influencable play.
func New(kind AgentKind, level int) Vector {
	var v Vector
	switch kind {
	case Monster:
		v = Vector{
			Aggressiveness:   0.8,
			Greediness:       0.2,
			Cautiousness:     0.2,
			Strategicness:    0.1,
			Agreeableness:    0.1,
			Expendability:    0.9,
			Unpredictability: 0.5,
			Influencability:  0.1,
		}
	case Guardian:
		v = Vector{
			Aggressiveness:   0.9,
			Greediness:       0.0,
			Cautiousness:     0.1,
			Strategicness:    0.3,
			Agreeableness:    0.0,
			Expendability:    1.0,
			Unpredictability: 0.2,
			Influencability:  0.0,
		}
	default: // Player
		v = Vector{
			Aggressiveness:   0.5,
			Greediness:       0.5,
			Cautiousness:     0.5,
			Strategicness:    0.5,
			Agreeableness:    0.5,
			Expendability:    0.3,
			Unpredictability: 0.3,
			Influencability:  0.5,
		}
	}

	if level > 1 {
		drift := float64(level-1) * 0.05
		v.Strategicness = clamp01(v.Strategicness + drift)
		v.Influencability = clamp01(v.Influencability - drift/2)
	}
	return v
}

// Behavior presets for balance experiments.

// Aggressive returns a preset that favors engagement over safety.
func Aggressive() Vector {
	v := New(Player, 1)
	v.Aggressiveness = 0.9
	v.Cautiousness = 0.2
	v.Greediness = 0.6
	return v
}

// Cautious returns a preset that favors safety over engagement.
func Cautious() Vector {
	v := New(Player, 1)
	v.Aggressiveness = 0.3
	v.Cautiousness = 0.9
	v.Greediness = 0.3
	return v
}

// Greedy returns a preset that chases treasure at most costs.
func Greedy() Vector {
	v := New(Player, 1)
	v.Aggressiveness = 0.5
	v.Cautiousness = 0.4
	v.Greediness = 0.95
	return v
}

// EventKind identifies an in-trial happening that nudges personality.
type EventKind string

const (
	TookDamage        EventKind = "took_damage"
	DealtKill         EventKind = "dealt_kill"
	AllyDied          EventKind = "ally_died"
	FoundTreasure     EventKind = "found_treasure"
	UsedConsumable    EventKind = "used_consumable"
	CeasefireAccepted EventKind = "ceasefire_accepted"
	CeasefireBroken   EventKind = "ceasefire_broken"
	LeveledUp         EventKind = "leveled_up"
)

// Event is one personality-shifting happening. Magnitude is normalized to
// [0,1] by the caller (e.g. damage as a fraction of max health) and scales
// the per-component deltas.
type Event struct {
	Kind      EventKind
	Magnitude float64
}

type delta struct {
	trait  string
	amount float64
}

// transitions maps each event kind to its bounded component nudges. Amounts
// are the full-magnitude deltas; an event with Magnitude 0.5 applies half.
var transitions = map[EventKind][]delta{
	TookDamage: {
		{TraitCautiousness, +0.10},
		{TraitAggressiveness, -0.04},
	},
	DealtKill: {
		{TraitAggressiveness, +0.08},
		{TraitCautiousness, -0.04},
	},
	AllyDied: {
		{TraitCautiousness, +0.12},
		{TraitAgreeableness, -0.05},
	},
	FoundTreasure: {
		{TraitGreediness, +0.06},
	},
	UsedConsumable: {
		{TraitGreediness, -0.03},
		{TraitCautiousness, -0.02},
	},
	CeasefireAccepted: {
		{TraitAgreeableness, +0.10},
		{TraitAggressiveness, -0.05},
	},
	CeasefireBroken: {
		{TraitAgreeableness, -0.12},
		{TraitAggressiveness, +0.08},
	},
	LeveledUp: {
		{TraitStrategicness, +0.05},
		{TraitExpendability, -0.03},
	},
}

// Apply returns the vector after one event. Unrecognized event kinds are a
// programming error and fail fast; they are never a game-state condition.
func (v Vector) Apply(ev Event) (Vector, error) {
	deltas, ok := transitions[ev.Kind]
	if !ok {
		return v, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}

	mag := clamp01(ev.Magnitude)
	out := v
	for _, d := range deltas {
		out = out.withTrait(d.trait, clamp01(out.Trait(d.trait)+d.amount*mag))
	}
	return out, nil
}

func (v Vector) withTrait(name string, value float64) Vector {
	switch name {
	case TraitAggressiveness:
		v.Aggressiveness = value
	case TraitGreediness:
		v.Greediness = value
	case TraitCautiousness:
		v.Cautiousness = value
	case TraitStrategicness:
		v.Strategicness = value
	case TraitAgreeableness:
		v.Agreeableness = value
	case TraitExpendability:
		v.Expendability = value
	case TraitUnpredictability:
		v.Unpredictability = value
	case TraitInfluencability:
		v.Influencability = value
	}
	return v
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
