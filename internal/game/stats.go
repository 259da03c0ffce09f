package game

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// BaseStats are the baseline combat numbers for an agent kind at level 1.
// Levels scale them; see StatsFor.
type BaseStats struct {
	Health  int
	Attack  int
	Defense int
	Speed   int
}

// Player classes and monster types share one lookup namespace.
const (
	ClassHuman   = "human"
	ClassCyborg  = "cyborg"
	ClassWartech = "wartech"

	MonsterGoblin = "goblin"
	MonsterOrc    = "orc"
	MonsterTroll  = "troll"
	MonsterDragon = "dragon"
	MonsterUndead = "undead"
	MonsterDemon  = "demon"

	KindGuardian = "guardian"
)

// MonsterTypes lists the spawnable monster types.
var MonsterTypes = []string{
	MonsterGoblin, MonsterOrc, MonsterTroll, MonsterDragon, MonsterUndead, MonsterDemon,
}

var baseStats = map[string]BaseStats{
	ClassHuman:   {Health: 100, Attack: 10, Defense: 8, Speed: 6},
	ClassCyborg:  {Health: 110, Attack: 12, Defense: 10, Speed: 7},
	ClassWartech: {Health: 120, Attack: 13, Defense: 12, Speed: 5},

	MonsterGoblin: {Health: 50, Attack: 8, Defense: 4, Speed: 7},
	MonsterOrc:    {Health: 100, Attack: 12, Defense: 8, Speed: 5},
	MonsterTroll:  {Health: 150, Attack: 15, Defense: 12, Speed: 3},
	MonsterDragon: {Health: 300, Attack: 25, Defense: 20, Speed: 8},
	MonsterUndead: {Health: 80, Attack: 10, Defense: 6, Speed: 4},
	MonsterDemon:  {Health: 200, Attack: 20, Defense: 15, Speed: 9},

	KindGuardian: {Health: 180, Attack: 16, Defense: 14, Speed: 4},
}

// StatsTable resolves baseline stats by (kind, level). The zero value uses
// the built-in table; LoadCSV overrides entries from a stats file.
type StatsTable struct {
	overrides map[string]BaseStats // key: "<kind>:<level>"
}

// StatsFor returns the baseline stats for the given kind at the given level.
// Unknown kinds fall back to human baselines; levels above 1 scale stats by
// 20% per level.
func (t *StatsTable) StatsFor(kind string, level int) BaseStats {
	if level < 1 {
		level = 1
	}

	if t != nil && t.overrides != nil {
		if s, ok := t.overrides[overrideKey(kind, level)]; ok {
			return s
		}
	}

	base, ok := baseStats[strings.ToLower(kind)]
	if !ok {
		base = baseStats[ClassHuman]
	}

	mult := 1 + float64(level-1)*0.2
	return BaseStats{
		Health:  int(math.Round(float64(base.Health) * mult)),
		Attack:  int(math.Round(float64(base.Attack) * mult)),
		Defense: int(math.Round(float64(base.Defense) * mult)),
		Speed:   int(math.Round(float64(base.Speed) * mult)),
	}
}

// LoadCSV loads stat overrides from a CSV file with the header
// kind,level,health,attack,defense,speed.
func (t *StatsTable) LoadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open stats file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read stats file: %w", err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("stats file %s has no data rows", path)
	}

	if t.overrides == nil {
		t.overrides = make(map[string]BaseStats)
	}

	for i, row := range rows[1:] {
		if len(row) < 6 {
			return fmt.Errorf("stats file row %d: want 6 columns, got %d", i+2, len(row))
		}
		nums := make([]int, 5)
		for j, cell := range row[1:6] {
			n, err := strconv.Atoi(strings.TrimSpace(cell))
			if err != nil {
				return fmt.Errorf("stats file row %d column %d: %w", i+2, j+2, err)
			}
			nums[j] = n
		}
		t.overrides[overrideKey(strings.ToLower(strings.TrimSpace(row[0])), nums[0])] = BaseStats{
			Health:  nums[1],
			Attack:  nums[2],
			Defense: nums[3],
			Speed:   nums[4],
		}
	}
	return nil
}

func overrideKey(kind string, level int) string {
	return fmt.Sprintf("%s:%d", kind, level)
}
