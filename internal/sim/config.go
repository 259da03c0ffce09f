package sim

import (
	"fmt"

	"github.com/aldenhart/dungeon-balance-go/internal/decision"
	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
	"github.com/aldenhart/dungeon-balance-go/internal/game"
)

// MonsterSpec describes one group of monsters to spawn per trial.
type MonsterSpec struct {
	Type  string `json:"type" yaml:"type"`
	Level int    `json:"level" yaml:"level"`
	Count int    `json:"count" yaml:"count"`
}

// Config describes one simulation run. The same config and seed always
// produce the same report, regardless of Parallelism.
type Config struct {
	Seed        string        `json:"seed"`
	Trials      int           `json:"trials"`
	Parallelism int           `json:"parallelism,omitempty"` // 0 means GOMAXPROCS
	TurnCap     int           `json:"turn_cap"`
	BoardWidth  int           `json:"board_width"`
	BoardHeight int           `json:"board_height"`
	PlayerClass string        `json:"player_class"`
	PlayerLevel int           `json:"player_level"`
	Monsters    []MonsterSpec `json:"monsters"`
	Guardians   int           `json:"guardians,omitempty"`

	// PlayerDisposition overrides the class-seeded personality when set.
	PlayerDisposition *disposition.Vector `json:"player_disposition,omitempty"`

	// Weights overrides the embedded decision weight table when set.
	Weights *decision.Table `json:"-"`

	// Stats overrides the built-in stat table when set.
	Stats *game.StatsTable `json:"-"`
}

// Defaults fills zero-valued knobs that have sensible defaults. Validation
// still rejects fields with no default, like the seed.
func (c *Config) Defaults() {
	if c.TurnCap == 0 {
		c.TurnCap = 100
	}
	if c.BoardWidth == 0 {
		c.BoardWidth = 10
	}
	if c.BoardHeight == 0 {
		c.BoardHeight = 10
	}
	if c.PlayerClass == "" {
		c.PlayerClass = game.ClassHuman
	}
	if c.PlayerLevel == 0 {
		c.PlayerLevel = 1
	}
}

// Validate checks the config. All violations wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return fmt.Errorf("%w: seed is required", ErrInvalidConfig)
	}
	if c.Trials < 1 {
		return fmt.Errorf("%w: trials must be at least 1, got %d", ErrInvalidConfig, c.Trials)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism cannot be negative", ErrInvalidConfig)
	}
	if c.TurnCap < 1 {
		return fmt.Errorf("%w: turn cap must be at least 1, got %d", ErrInvalidConfig, c.TurnCap)
	}
	if c.BoardWidth < 4 || c.BoardHeight < 4 {
		return fmt.Errorf("%w: board must be at least 4x4, got %dx%d", ErrInvalidConfig, c.BoardWidth, c.BoardHeight)
	}
	if c.PlayerLevel < 1 {
		return fmt.Errorf("%w: player level must be at least 1", ErrInvalidConfig)
	}
	if len(c.Monsters) == 0 {
		return fmt.Errorf("%w: at least one monster spec is required", ErrInvalidConfig)
	}
	if c.Guardians < 0 {
		return fmt.Errorf("%w: guardians cannot be negative", ErrInvalidConfig)
	}

	total := 0
	for i, m := range c.Monsters {
		if m.Type == "" {
			return fmt.Errorf("%w: monster spec %d has no type", ErrInvalidConfig, i)
		}
		if m.Count < 1 {
			return fmt.Errorf("%w: monster spec %d count must be at least 1", ErrInvalidConfig, i)
		}
		if m.Level < 1 {
			return fmt.Errorf("%w: monster spec %d level must be at least 1", ErrInvalidConfig, i)
		}
		total += m.Count
	}

	cells := c.BoardWidth * c.BoardHeight
	if total+c.Guardians+1 > cells/2 {
		return fmt.Errorf("%w: %d combatants will not fit a %dx%d board", ErrInvalidConfig, total+c.Guardians+1, c.BoardWidth, c.BoardHeight)
	}

	if c.PlayerDisposition != nil {
		if err := c.PlayerDisposition.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
