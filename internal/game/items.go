package game

// ItemClass partitions the item catalog by what the item does.
type ItemClass string

const (
	ClassWeapon       ItemClass = "weapon"
	ClassArmor        ItemClass = "armor"
	ClassHealingKit   ItemClass = "healing_kit"
	ClassTimeBomb     ItemClass = "time_bomb"
	ClassUpgradeKit   ItemClass = "upgrade_kit"
	ClassImplant      ItemClass = "implant"
	ClassExitMap      ItemClass = "exit_map"
	ClassMagneticCard ItemClass = "magnetic_card"
	ClassTreasure     ItemClass = "treasure"
)

// Item is a piece of equipment or a consumable. Power means attack bonus for
// weapons, defense bonus for armor, heal amount for healing kits, damage for
// time bombs, and gold value for treasure.
type Item struct {
	Name  string
	Class ItemClass
	Power int
}

// Consumable reports whether using the item removes it from the inventory.
func (it *Item) Consumable() bool {
	switch it.Class {
	case ClassHealingKit, ClassTimeBomb, ClassUpgradeKit, ClassExitMap, ClassMagneticCard:
		return true
	}
	return false
}

// Apply applies the item's effect to an agent. Equipment is equipped,
// consumables take effect immediately. Treasure converts to gold.
func Apply(it *Item, target *Agent) {
	switch it.Class {
	case ClassWeapon:
		target.Weapon = it
	case ClassArmor:
		target.Armor = it
	case ClassHealingKit:
		target.Heal(it.Power)
	case ClassUpgradeKit:
		target.Attack += it.Power
	case ClassImplant:
		target.MaxHealth += it.Power
		target.Health += it.Power
	case ClassTreasure:
		target.Gold += it.Power
	}
}

// Catalog returns the default loot table, roughly ordered from common to
// rare.
func Catalog() []Item {
	return []Item{
		{Name: "Rusty Blade", Class: ClassWeapon, Power: 2},
		{Name: "Steel Sword", Class: ClassWeapon, Power: 4},
		{Name: "Plasma Cutter", Class: ClassWeapon, Power: 7},
		{Name: "Leather Vest", Class: ClassArmor, Power: 2},
		{Name: "Composite Plate", Class: ClassArmor, Power: 5},
		{Name: "Field Dressing", Class: ClassHealingKit, Power: 20},
		{Name: "Med Station Charge", Class: ClassHealingKit, Power: 35},
		{Name: "Time Bomb", Class: ClassTimeBomb, Power: 30},
		{Name: "Upgrade Kit", Class: ClassUpgradeKit, Power: 3},
		{Name: "Reflex Implant", Class: ClassImplant, Power: 15},
		{Name: "Dermal Implant", Class: ClassImplant, Power: 25},
		{Name: "Exit Map", Class: ClassExitMap, Power: 0},
		{Name: "Magnetic Card", Class: ClassMagneticCard, Power: 0},
		{Name: "Gold Cache", Class: ClassTreasure, Power: 50},
	}
}
