package sim

import (
	"fmt"

	"github.com/aldenhart/dungeon-balance-go/internal/decision"
	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
	"github.com/aldenhart/dungeon-balance-go/internal/engine"
	"github.com/aldenhart/dungeon-balance-go/internal/game"
	"github.com/aldenhart/dungeon-balance-go/internal/report"
)

const (
	killsPerLevel  = 2
	ceasefireTurns = 5
	trapChance     = 5 // d20 results at or under this spring a treasure trap
)

// trial holds the mutable state of one simulated dungeon run. Every random
// draw flows through src, so a trial is a pure function of (seed, index).
type trial struct {
	cfg    *Config
	src    *engine.Source
	roller *game.Roller
	board  *game.Board
	table  *decision.Table

	player    *game.Agent
	monsters  []*game.Agent
	guardians []*game.Agent

	playerMaker   decision.Maker
	monsterMaker  decision.Maker
	guardianMaker decision.Maker

	result    report.TrialResult
	kills     int // toward the next level
	ceasefire map[*game.Agent]int
	beeline   bool // exit map used: head straight for the exit
}

// runTrial plays one dungeon run to completion and returns its result. An
// error means the trial itself broke, not that the player lost.
func runTrial(cfg *Config, index uint64) (report.TrialResult, error) {
	t, err := newTrial(cfg, index)
	if err != nil {
		return report.TrialResult{}, fmt.Errorf("%w: trial %d: %v", ErrTrialFailed, index, err)
	}

	outcome := report.OutcomeTimeout
	turns := int64(cfg.TurnCap)
	for turn := 1; turn <= cfg.TurnCap; turn++ {
		done, o, err := t.playTurn()
		if err != nil {
			return report.TrialResult{}, fmt.Errorf("%w: trial %d turn %d: %v", ErrTrialFailed, index, turn, err)
		}
		if done {
			outcome = o
			turns = int64(turn)
			break
		}
	}

	t.result.Outcome = outcome
	t.result.Turns = turns
	t.result.FinalLevel = int64(t.player.Level)
	t.result.FinalHealth = int64(t.player.Health)
	return t.result, nil
}

func newTrial(cfg *Config, index uint64) (*trial, error) {
	src := engine.NewSource(cfg.Seed, index)
	table := cfg.Weights
	if table == nil {
		table = decision.DefaultTable()
	}

	t := &trial{
		cfg:           cfg,
		src:           src,
		roller:        game.NewRoller(src),
		board:         game.NewBoard(cfg.BoardWidth, cfg.BoardHeight, game.DefaultLayout(), src),
		table:         table,
		playerMaker:   decision.ForKind(disposition.Player, table),
		monsterMaker:  decision.ForKind(disposition.Monster, table),
		guardianMaker: decision.ForKind(disposition.Guardian, table),
		ceasefire:     make(map[*game.Agent]int),
		result:        report.TrialResult{KillsByType: make(map[string]int64)},
	}

	player, err := game.NewAgent("player", disposition.Player, cfg.PlayerClass, cfg.PlayerLevel, cfg.Stats)
	if err != nil {
		return nil, err
	}
	if cfg.PlayerDisposition != nil {
		player.Disposition = *cfg.PlayerDisposition
	}
	if err := t.board.Place(player, t.board.Start); err != nil {
		return nil, fmt.Errorf("place player: %w", err)
	}
	t.player = player

	for _, spec := range cfg.Monsters {
		for i := 0; i < spec.Count; i++ {
			m, err := game.NewAgent(fmt.Sprintf("%s-%d", spec.Type, i+1), disposition.Monster, spec.Type, spec.Level, cfg.Stats)
			if err != nil {
				return nil, err
			}
			if err := t.placeRandom(m); err != nil {
				return nil, err
			}
			t.monsters = append(t.monsters, m)
		}
	}

	for i := 0; i < cfg.Guardians; i++ {
		g, err := game.NewAgent(fmt.Sprintf("guardian-%d", i+1), disposition.Guardian, game.KindGuardian, cfg.PlayerLevel, cfg.Stats)
		if err != nil {
			return nil, err
		}
		if err := t.placeNearExit(g); err != nil {
			return nil, err
		}
		t.guardians = append(t.guardians, g)
	}

	return t, nil
}

// placeRandom drops an agent on a random free tile, avoiding the start and
// exit. Falls back to a row-major scan if random probing keeps colliding.
func (t *trial) placeRandom(a *game.Agent) error {
	for tries := 0; tries < t.board.Width*t.board.Height*4; tries++ {
		p := game.Position{X: t.src.Intn(t.board.Width), Y: t.src.Intn(t.board.Height)}
		if p == t.board.Start || p == t.board.Exit {
			continue
		}
		if err := t.board.Place(a, p); err == nil {
			return nil
		}
	}
	for y := 0; y < t.board.Height; y++ {
		for x := 0; x < t.board.Width; x++ {
			p := game.Position{X: x, Y: y}
			if p == t.board.Start || p == t.board.Exit {
				continue
			}
			if err := t.board.Place(a, p); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no free tile for %s", a.Name)
}

// placeNearExit stations a guardian beside the exit so it screens escape.
func (t *trial) placeNearExit(g *game.Agent) error {
	for _, p := range t.board.Adjacent(t.board.Exit) {
		if err := t.board.Place(g, p); err == nil {
			return nil
		}
	}
	return t.placeRandom(g)
}

// playTurn runs one full round: the player, then every monster, then every
// guardian. Terminal conditions are checked after each actor so a kill ends
// the trial immediately.
func (t *trial) playTurn() (bool, report.Outcome, error) {
	if err := t.playerTurn(); err != nil {
		return false, "", err
	}
	if o, done := t.terminal(); done {
		return true, o, nil
	}

	for _, m := range t.monsters {
		if !m.Alive() {
			continue
		}
		if err := t.monsterTurn(m); err != nil {
			return false, "", err
		}
		if o, done := t.terminal(); done {
			return true, o, nil
		}
	}

	for _, g := range t.guardians {
		if !g.Alive() {
			continue
		}
		if err := t.guardianTurn(g); err != nil {
			return false, "", err
		}
		if o, done := t.terminal(); done {
			return true, o, nil
		}
	}

	for m, left := range t.ceasefire {
		if left <= 1 {
			delete(t.ceasefire, m)
		} else {
			t.ceasefire[m] = left - 1
		}
	}
	return false, "", nil
}

func (t *trial) terminal() (report.Outcome, bool) {
	if !t.player.Alive() {
		return report.OutcomeDeath, true
	}
	if t.player.Pos == t.board.Exit {
		return report.OutcomeExitReached, true
	}
	for _, m := range t.monsters {
		if m.Alive() {
			return "", false
		}
	}
	return report.OutcomeVictory, true
}

// decide runs one decision through the given maker and counts it.
func (t *trial) decide(maker decision.Maker, agent *game.Agent, kind decision.Kind, opts []decision.Option, opponents []*game.Agent) (int, error) {
	ctx := decision.BuildContext(agent, opponents, t.board)
	idx, err := maker.Decide(decision.Request{Kind: kind, Options: opts}, agent.Disposition, ctx, t.src)
	if err != nil {
		return decision.NoChoice, fmt.Errorf("%s decision for %s: %w", kind, agent.Name, err)
	}
	t.result.Decisions++
	return idx, nil
}

func (t *trial) applyEvent(a *game.Agent, kind disposition.EventKind, magnitude float64) error {
	v, err := a.Disposition.Apply(disposition.Event{Kind: kind, Magnitude: magnitude})
	if err != nil {
		return fmt.Errorf("event for %s: %w", a.Name, err)
	}
	a.Disposition = v
	return nil
}

// actRefrain is the standard two-option shape for yes/no decisions.
func actRefrain(act, refrain string) []decision.Option {
	return []decision.Option{{ID: act}, {ID: refrain}}
}

func (t *trial) playerTurn() error {
	opponents := t.aliveEnemies()

	if err := t.playerItems(opponents); err != nil {
		return err
	}

	adjacent := t.adjacentEnemies()
	if len(adjacent) > 0 {
		return t.playerCombat(adjacent, opponents)
	}
	return t.playerExplore(opponents)
}

// playerItems handles consumables that can be used any turn: healing when
// hurt, upgrade kits, and the exit map.
func (t *trial) playerItems(opponents []*game.Agent) error {
	p := t.player

	if kits := p.ItemsOfClass(game.ClassHealingKit); len(kits) > 0 && p.Health < p.MaxHealth {
		idx, err := t.decide(t.playerMaker, p, decision.UseHealing, actRefrain("use", "hold"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			game.Apply(kits[0], p)
			p.RemoveItem(kits[0])
			t.result.ItemsUsed++
			if err := t.applyEvent(p, disposition.UsedConsumable, 0.5); err != nil {
				return err
			}
		}
	}

	if kits := p.ItemsOfClass(game.ClassUpgradeKit); len(kits) > 0 {
		idx, err := t.decide(t.playerMaker, p, decision.ApplyUpgrade, actRefrain("apply", "hold"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			game.Apply(kits[0], p)
			p.RemoveItem(kits[0])
			t.result.ItemsUsed++
			if err := t.applyEvent(p, disposition.UsedConsumable, 0.3); err != nil {
				return err
			}
		}
	}

	if maps := p.ItemsOfClass(game.ClassExitMap); len(maps) > 0 && !t.beeline {
		idx, err := t.decide(t.playerMaker, p, decision.UseExitMap, actRefrain("use", "save"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			p.RemoveItem(maps[0])
			t.beeline = true
			t.result.ItemsUsed++
			if err := t.applyEvent(p, disposition.UsedConsumable, 0.5); err != nil {
				return err
			}
		}
	}

	return nil
}

func (t *trial) playerCombat(adjacent, opponents []*game.Agent) error {
	p := t.player

	if bombs := p.ItemsOfClass(game.ClassTimeBomb); len(bombs) > 0 && len(adjacent) >= 2 {
		idx, err := t.decide(t.playerMaker, p, decision.UseTimeBomb, actRefrain("use", "hold"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			if err := t.detonate(bombs[0], adjacent); err != nil {
				return err
			}
			return nil
		}
	}

	idx, err := t.decide(t.playerMaker, p, decision.EngageOrAvoid, actRefrain("engage", "avoid"), opponents)
	if err != nil {
		return err
	}

	if idx == 0 {
		target := adjacent[0]
		if len(adjacent) > 1 {
			opts := make([]decision.Option, len(adjacent))
			for i, e := range adjacent {
				opts[i] = decision.Option{ID: e.Name, Agent: e.Kind, Ref: e}
			}
			pick, err := t.decide(t.playerMaker, p, decision.TargetSelect, opts, opponents)
			if err != nil {
				return err
			}
			target = adjacent[pick]
		}
		return t.attack(p, target)
	}

	fleeIdx, err := t.decide(t.playerMaker, p, decision.Flee, actRefrain("flee", "stand"), opponents)
	if err != nil {
		return err
	}
	if fleeIdx == 0 {
		step := t.board.StepAway(p.Pos, adjacent[0].Pos)
		if step != p.Pos {
			return t.board.Move(p, step)
		}
	}
	return nil
}

func (t *trial) playerExplore(opponents []*game.Agent) error {
	p := t.player
	tile := t.board.TileAt(p.Pos)

	if tile.Type == game.TileTreasure && !t.beeline {
		idx, err := t.decide(t.playerMaker, p, decision.RiskForTreasure, actRefrain("grab", "pass"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			if err := t.grabTreasure(); err != nil {
				return err
			}
		}
		tile.Type = game.TileEmpty
		return nil
	}

	if tile.Type == game.TileEncounter && !t.beeline {
		idx, err := t.decide(t.playerMaker, p, decision.ChooseEncounterPile, actRefrain("gear", "cache"), opponents)
		if err != nil {
			return err
		}
		tile.Type = game.TileEmpty
		if idx == 0 {
			catalog := game.Catalog()
			drawn := catalog[t.src.Intn(len(catalog))]
			return t.handleLoot(&drawn, opponents)
		}
		gold := 10 + t.src.Intn(20)
		p.Gold += gold
		t.result.GoldLooted += int64(gold)
		return t.applyEvent(p, disposition.FoundTreasure, 0.3)
	}

	// A magnetic card slips the player past the exit's guardians.
	if cards := p.ItemsOfClass(game.ClassMagneticCard); len(cards) > 0 && t.board.Distance(p.Pos, t.board.Exit) == 1 {
		idx, err := t.decide(t.playerMaker, p, decision.UseMagneticCard, actRefrain("use", "save"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			p.RemoveItem(cards[0])
			t.result.ItemsUsed++
			if err := t.applyEvent(p, disposition.UsedConsumable, 0.5); err != nil {
				return err
			}
			return t.board.Move(p, t.board.Exit)
		}
	}

	step := t.board.StepToward(p.Pos, t.board.Exit)
	if step != p.Pos {
		return t.board.Move(p, step)
	}
	return nil
}

func (t *trial) grabTreasure() error {
	p := t.player
	gold := 20 + t.src.Intn(30)
	p.Gold += gold
	t.result.GoldLooted += int64(gold)
	if err := t.applyEvent(p, disposition.FoundTreasure, 0.6); err != nil {
		return err
	}

	// Grabbing is the risk: a low roll springs the trap.
	roll, _, err := t.roller.Roll(game.D20, 1)
	if err != nil {
		return err
	}
	if roll <= trapChance {
		dmg, _, err := t.roller.Roll(game.D6, 2)
		if err != nil {
			return err
		}
		lost := p.TakeDamage(dmg)
		t.result.DamageTaken += int64(lost)
		return t.applyEvent(p, disposition.TookDamage, float64(lost)/float64(p.MaxHealth))
	}
	return nil
}

// handleLoot resolves a freshly drawn item through the relevant equip or
// install decision.
func (t *trial) handleLoot(it *game.Item, opponents []*game.Agent) error {
	p := t.player

	switch it.Class {
	case game.ClassWeapon:
		idx, err := t.decide(t.playerMaker, p, decision.WeaponEquip, actRefrain("equip", "stash"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			if p.Weapon != nil {
				p.AddItem(p.Weapon)
			}
			game.Apply(it, p)
		} else {
			p.AddItem(it)
		}
		return t.maybeDiscardWeapon(opponents)

	case game.ClassArmor:
		idx, err := t.decide(t.playerMaker, p, decision.ArmorEquip, actRefrain("equip", "stash"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			if p.Armor != nil {
				p.AddItem(p.Armor)
			}
			game.Apply(it, p)
		} else {
			p.AddItem(it)
		}
		return nil

	case game.ClassImplant:
		idx, err := t.decide(t.playerMaker, p, decision.ChooseImplant, actRefrain("install", "leave"), opponents)
		if err != nil {
			return err
		}
		if idx == 0 {
			game.Apply(it, p)
			t.result.ItemsUsed++
		}
		return nil

	case game.ClassTreasure:
		p.Gold += it.Power
		t.result.GoldLooted += int64(it.Power)
		return t.applyEvent(p, disposition.FoundTreasure, 0.6)

	default:
		p.AddItem(it)
		return nil
	}
}

// maybeDiscardWeapon keeps the stash from growing without bound: holding
// more than two spare weapons triggers a discard decision.
func (t *trial) maybeDiscardWeapon(opponents []*game.Agent) error {
	p := t.player
	spares := p.ItemsOfClass(game.ClassWeapon)
	if len(spares) <= 2 {
		return nil
	}

	idx, err := t.decide(t.playerMaker, p, decision.WeaponDiscard, actRefrain("discard", "keep"), opponents)
	if err != nil {
		return err
	}
	if idx == 0 {
		worst := spares[0]
		for _, w := range spares[1:] {
			if w.Power < worst.Power {
				worst = w
			}
		}
		p.RemoveItem(worst)
	}
	return nil
}

func (t *trial) detonate(bomb *game.Item, victims []*game.Agent) error {
	p := t.player
	p.RemoveItem(bomb)
	t.result.ItemsUsed++
	if err := t.applyEvent(p, disposition.UsedConsumable, 0.8); err != nil {
		return err
	}

	for _, v := range victims {
		lost := v.TakeDamage(bomb.Power)
		t.result.DamageDealt += int64(lost)
		if !v.Alive() {
			if err := t.recordKill(p, v); err != nil {
				return err
			}
			continue
		}
		if err := t.applyEvent(v, disposition.TookDamage, float64(lost)/float64(v.MaxHealth)); err != nil {
			return err
		}
	}
	return nil
}

func (t *trial) monsterTurn(m *game.Agent) error {
	if t.board.Distance(m.Pos, t.player.Pos) == 1 {
		return t.monsterMelee(m)
	}

	if t.ceasefire[m] > 0 {
		// Honoring the truce: keep distance rather than close in.
		return nil
	}
	step := t.board.StepToward(m.Pos, t.player.Pos)
	if step != m.Pos {
		return t.board.Move(m, step)
	}
	return nil
}

func (t *trial) monsterMelee(m *game.Agent) error {
	p := t.player

	if t.ceasefire[m] > 0 {
		idx, err := t.decide(t.monsterMaker, m, decision.AttackPlayer, actRefrain("break_truce", "honor"), []*game.Agent{p})
		if err != nil {
			return err
		}
		if idx != 0 {
			return nil
		}
		delete(t.ceasefire, m)
		if err := t.applyEvent(m, disposition.CeasefireBroken, 1); err != nil {
			return err
		}
		if err := t.applyEvent(p, disposition.CeasefireBroken, 1); err != nil {
			return err
		}
		return t.monsterAttack(m)
	}

	if m.Health*5 < m.MaxHealth*2 { // below 40%: consider suing for peace
		idx, err := t.decide(t.monsterMaker, m, decision.ProposeCeasefire, actRefrain("propose", "fight"), []*game.Agent{p})
		if err != nil {
			return err
		}
		if idx == 0 {
			accept, err := t.decide(t.playerMaker, p, decision.AcceptCeasefire, actRefrain("accept", "refuse"), t.aliveEnemies())
			if err != nil {
				return err
			}
			if accept == 0 {
				t.ceasefire[m] = ceasefireTurns
				t.result.Ceasefires++
				if err := t.applyEvent(m, disposition.CeasefireAccepted, 1); err != nil {
					return err
				}
				return t.applyEvent(p, disposition.CeasefireAccepted, 1)
			}
			return t.monsterAttack(m)
		}
	}

	idx, err := t.decide(t.monsterMaker, m, decision.AttackPlayer, actRefrain("attack", "hold"), []*game.Agent{p})
	if err != nil {
		return err
	}
	if idx == 0 {
		return t.monsterAttack(m)
	}
	return nil
}

// monsterAttack picks a victim among adjacent non-monsters. Usually that is
// just the player, but a monster wedged between the player and a guardian
// chooses uniformly.
func (t *trial) monsterAttack(m *game.Agent) error {
	var victims []*game.Agent
	for _, e := range t.board.EntitiesInRange(m.Pos, 1) {
		if e.Alive() && e.Kind != disposition.Monster {
			victims = append(victims, e)
		}
	}
	if len(victims) == 0 {
		return nil
	}

	target := victims[0]
	if len(victims) > 1 {
		opts := make([]decision.Option, len(victims))
		for i, v := range victims {
			opts[i] = decision.Option{ID: v.Name, Agent: v.Kind, Ref: v}
		}
		idx, err := t.decide(t.monsterMaker, m, decision.TargetSelect, opts, victims)
		if err != nil {
			return err
		}
		target = victims[idx]
	}
	return t.attack(m, target)
}

// guardianTurn attacks any adjacent non-guardian; guardians hold their post
// and never chase.
func (t *trial) guardianTurn(g *game.Agent) error {
	var nearby []*game.Agent
	for _, e := range t.board.EntitiesInRange(g.Pos, 1) {
		if e.Alive() {
			nearby = append(nearby, e)
		}
	}
	if len(nearby) == 0 {
		return nil
	}

	opts := make([]decision.Option, len(nearby))
	for i, e := range nearby {
		opts[i] = decision.Option{ID: e.Name, Agent: e.Kind, Ref: e}
	}
	idx, err := t.decide(t.guardianMaker, g, decision.TargetSelect, opts, nearby)
	if err != nil {
		return err
	}
	if idx == decision.NoChoice {
		return nil
	}
	return t.attack(g, nearby[idx])
}

// attack resolves one melee exchange: d20 plus attack against 10 plus
// defense to hit, then 2d6 plus half attack as damage.
func (t *trial) attack(att, def *game.Agent) error {
	roll, _, err := t.roller.Roll(game.D20, 1)
	if err != nil {
		return err
	}
	if roll+att.EffectiveAttack() < 10+def.EffectiveDefense() {
		return nil // miss
	}

	base, _, err := t.roller.Roll(game.D6, 2)
	if err != nil {
		return err
	}
	lost := def.TakeDamage(base + att.EffectiveAttack()/2)

	if att == t.player {
		t.result.DamageDealt += int64(lost)
	}
	if def == t.player {
		t.result.DamageTaken += int64(lost)
	}

	if !def.Alive() {
		return t.recordKill(att, def)
	}
	return t.applyEvent(def, disposition.TookDamage, float64(lost)/float64(def.MaxHealth))
}

// recordKill books a death: board cleanup, metrics, disposition shifts, and
// player level progression.
func (t *trial) recordKill(att, def *game.Agent) error {
	t.board.Remove(def)
	if err := t.applyEvent(att, disposition.DealtKill, 1); err != nil {
		return err
	}

	switch {
	case def == t.player:
		t.result.DeathByType = att.Type

	case def.Kind == disposition.Monster:
		if att == t.player {
			t.result.KillsByType[def.Type]++
			t.kills++
			if t.kills >= killsPerLevel {
				t.kills = 0
				t.player.LevelUp()
				if err := t.applyEvent(t.player, disposition.LeveledUp, 1); err != nil {
					return err
				}
			}
		}
		delete(t.ceasefire, def)
		for _, m := range t.monsters {
			if m != def && m.Alive() {
				if err := t.applyEvent(m, disposition.AllyDied, 0.5); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (t *trial) aliveEnemies() []*game.Agent {
	var out []*game.Agent
	for _, m := range t.monsters {
		if m.Alive() {
			out = append(out, m)
		}
	}
	for _, g := range t.guardians {
		if g.Alive() {
			out = append(out, g)
		}
	}
	return out
}

func (t *trial) adjacentEnemies() []*game.Agent {
	var out []*game.Agent
	for _, e := range t.board.EntitiesInRange(t.player.Pos, 1) {
		if e.Alive() && e.Kind != disposition.Player {
			out = append(out, e)
		}
	}
	return out
}
