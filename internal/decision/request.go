package decision

import "github.com/aldenhart/dungeon-balance-go/internal/disposition"

// Kind identifies one of the non-deterministic choices an agent can face.
type Kind string

const (
	WeaponEquip         Kind = "weapon_equip"
	WeaponDiscard       Kind = "weapon_discard"
	ArmorEquip          Kind = "armor_equip"
	EngageOrAvoid       Kind = "engage_or_avoid"
	TargetSelect        Kind = "target_select"
	RiskForTreasure     Kind = "risk_for_treasure"
	Flee                Kind = "flee"
	UseHealing          Kind = "use_healing"
	UseTimeBomb         Kind = "use_time_bomb"
	ApplyUpgrade        Kind = "apply_upgrade"
	ChooseImplant       Kind = "choose_implant"
	UseExitMap          Kind = "use_exit_map"
	UseMagneticCard     Kind = "use_magnetic_card"
	AttackPlayer        Kind = "attack_player"
	ProposeCeasefire    Kind = "propose_ceasefire"
	AcceptCeasefire     Kind = "accept_ceasefire"
	ChooseEncounterPile Kind = "choose_encounter_pile"
)

// Kinds lists every decision kind, in declaration order.
var Kinds = []Kind{
	WeaponEquip, WeaponDiscard, ArmorEquip, EngageOrAvoid, TargetSelect,
	RiskForTreasure, Flee, UseHealing, UseTimeBomb, ApplyUpgrade,
	ChooseImplant, UseExitMap, UseMagneticCard, AttackPlayer,
	ProposeCeasefire, AcceptCeasefire, ChooseEncounterPile,
}

// Option is one legal choice for a request. Ref is opaque to the engine and
// resolved by the caller; the Agent tag exists only so the Guardian variant
// can exclude fellow Guardians from target selection.
type Option struct {
	ID    string
	Agent disposition.AgentKind
	Ref   any
}

// Request is a decision kind plus its finite, ordered set of legal options.
type Request struct {
	Kind    Kind
	Options []Option
}

// NoChoice is returned when a decision resolves to a defined no-op, such as a
// Guardian with no non-Guardian targets.
const NoChoice = -1
