package decision

import (
	"github.com/aldenhart/dungeon-balance-go/internal/game"
)

// Context is an ephemeral, per-decision snapshot of circumstances. Every
// field is normalized to a [0,1] scale so the engine can blend them uniformly
// with personality weights. Contexts are built fresh for each decision and
// never persisted.
type Context struct {
	LifeFraction  float64 // current health / max health
	LevelScale    float64 // level / 10, capped at 1
	Consumables   float64 // held consumables / 5, capped at 1
	ThreatRatio   float64 // opponent power vs own power, squashed to [0,1)
	OpponentCount float64 // opponent count / 6, capped at 1
	Equipment     float64 // equipped item power / 20, capped at 1
}

// Context field names for table-driven circumstance coefficients.
const (
	FieldLifeFraction  = "life_fraction"
	FieldLevel         = "level"
	FieldConsumables   = "consumables"
	FieldThreatRatio   = "threat_ratio"
	FieldOpponentCount = "opponent_count"
	FieldEquipment     = "equipment"
)

// Field returns the named component. Unknown names return 0.5, the neutral
// point of the blending formula.
func (c Context) Field(name string) float64 {
	switch name {
	case FieldLifeFraction:
		return c.LifeFraction
	case FieldLevel:
		return c.LevelScale
	case FieldConsumables:
		return c.Consumables
	case FieldThreatRatio:
		return c.ThreatRatio
	case FieldOpponentCount:
		return c.OpponentCount
	case FieldEquipment:
		return c.Equipment
	default:
		return 0.5
	}
}

// BuildContext converts raw game state into a normalized decision context.
// It is a pure function: neither the agent nor the board is mutated.
func BuildContext(agent *game.Agent, opponents []*game.Agent, _ *game.Board) Context {
	var ctx Context

	if agent.MaxHealth > 0 {
		ctx.LifeFraction = clamp01(float64(agent.Health) / float64(agent.MaxHealth))
	}
	ctx.LevelScale = clamp01(float64(agent.Level) / 10)
	ctx.Consumables = clamp01(float64(agent.ConsumableCount()) / 5)
	ctx.OpponentCount = clamp01(float64(len(opponents)) / 6)
	ctx.Equipment = clamp01(float64(agent.EquipmentPower()) / 20)

	oppPower := 0
	for _, o := range opponents {
		if o.Alive() {
			oppPower += o.Power()
		}
	}
	ownPower := agent.Power()
	if ownPower > 0 && oppPower > 0 {
		r := float64(oppPower) / float64(ownPower)
		ctx.ThreatRatio = r / (1 + r)
	}

	return ctx
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
