package game

import (
	"fmt"

	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
)

// Agent is any combatant in a trial: a player character, a spawned monster,
// or a vault guardian. All three share stats and an inventory; behavior
// differences live entirely in the decision engine.
type Agent struct {
	Name        string
	Kind        disposition.AgentKind
	Type        string // class for players, monster type otherwise
	Level       int
	Health      int
	MaxHealth   int
	Attack      int
	Defense     int
	Speed       int
	Gold        int
	Pos         Position
	Disposition disposition.Vector
	Inventory   []*Item
	Weapon      *Item
	Armor       *Item
}

// NewAgent creates an agent with baseline stats for its kind and a
// kind-seeded disposition.
func NewAgent(name string, kind disposition.AgentKind, agentType string, level int, stats *StatsTable) (*Agent, error) {
	disp := disposition.New(kind, level)
	if err := disp.Validate(); err != nil {
		return nil, fmt.Errorf("agent %s: %w", name, err)
	}

	base := stats.StatsFor(agentType, level)
	return &Agent{
		Name:        name,
		Kind:        kind,
		Type:        agentType,
		Level:       level,
		Health:      base.Health,
		MaxHealth:   base.Health,
		Attack:      base.Attack,
		Defense:     base.Defense,
		Speed:       base.Speed,
		Disposition: disp,
	}, nil
}

// Alive reports whether the agent can still act.
func (a *Agent) Alive() bool {
	return a.Health > 0
}

// TakeDamage applies damage reduced by defense and returns the health
// actually lost. Damage never drops below 1.
func (a *Agent) TakeDamage(damage int) int {
	actual := damage - a.EffectiveDefense()/2
	if actual < 1 {
		actual = 1
	}
	if actual > a.Health {
		actual = a.Health
	}
	a.Health -= actual
	return actual
}

// Heal restores health up to the maximum.
func (a *Agent) Heal(amount int) {
	a.Health += amount
	if a.Health > a.MaxHealth {
		a.Health = a.MaxHealth
	}
}

// LevelUp raises the agent's level and grows its stats.
func (a *Agent) LevelUp() {
	a.Level++
	a.MaxHealth += 20
	a.Health = a.MaxHealth
	a.Attack += 3
	a.Defense += 2
	a.Speed++
}

// EffectiveAttack is base attack plus the equipped weapon bonus.
func (a *Agent) EffectiveAttack() int {
	atk := a.Attack
	if a.Weapon != nil {
		atk += a.Weapon.Power
	}
	return atk
}

// EffectiveDefense is base defense plus the equipped armor bonus.
func (a *Agent) EffectiveDefense() int {
	def := a.Defense
	if a.Armor != nil {
		def += a.Armor.Power
	}
	return def
}

// Power is a single-number strength estimate used for threat ratios.
func (a *Agent) Power() int {
	return a.EffectiveAttack() + a.EffectiveDefense()
}

// AddItem puts an item into the inventory.
func (a *Agent) AddItem(it *Item) {
	a.Inventory = append(a.Inventory, it)
}

// RemoveItem drops the first inventory entry matching the pointer.
func (a *Agent) RemoveItem(it *Item) {
	for i, held := range a.Inventory {
		if held == it {
			a.Inventory = append(a.Inventory[:i], a.Inventory[i+1:]...)
			return
		}
	}
}

// ItemsOfClass returns held items of the given class, in inventory order.
func (a *Agent) ItemsOfClass(class ItemClass) []*Item {
	var out []*Item
	for _, it := range a.Inventory {
		if it.Class == class {
			out = append(out, it)
		}
	}
	return out
}

// ConsumableCount counts held consumables.
func (a *Agent) ConsumableCount() int {
	n := 0
	for _, it := range a.Inventory {
		if it.Consumable() {
			n++
		}
	}
	return n
}

// EquipmentPower sums the power of equipped weapon and armor.
func (a *Agent) EquipmentPower() int {
	p := 0
	if a.Weapon != nil {
		p += a.Weapon.Power
	}
	if a.Armor != nil {
		p += a.Armor.Power
	}
	return p
}

func (a *Agent) String() string {
	return fmt.Sprintf("%s (%s %s Lv.%d) HP %d/%d ATK %d DEF %d",
		a.Name, a.Type, a.Kind, a.Level, a.Health, a.MaxHealth, a.EffectiveAttack(), a.EffectiveDefense())
}
