package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
	"github.com/aldenhart/dungeon-balance-go/internal/game"
	"github.com/aldenhart/dungeon-balance-go/internal/report"
)

func baseConfig() Config {
	return Config{
		Seed:        "test-run",
		Trials:      50,
		TurnCap:     100,
		BoardWidth:  10,
		BoardHeight: 10,
		PlayerClass: game.ClassHuman,
		PlayerLevel: 1,
		Monsters: []MonsterSpec{
			{Type: game.MonsterGoblin, Level: 1, Count: 3},
		},
	}
}

// The same seed must yield a bit-identical report no matter how many
// workers split the trials.
func TestRunReproducibleAcrossParallelism(t *testing.T) {
	var rendered []string
	for _, workers := range []int{1, 2, 8} {
		cfg := baseConfig()
		cfg.Parallelism = workers
		rep, err := Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("Run(workers=%d) error: %v", workers, err)
		}
		rendered = append(rendered, rep.Render())
	}
	for i := 1; i < len(rendered); i++ {
		if rendered[i] != rendered[0] {
			t.Errorf("report differs between 1 worker and %d workers:\n%s\nvs\n%s", []int{1, 2, 8}[i], rendered[0], rendered[i])
		}
	}
}

func TestRunDifferentSeedsDiverge(t *testing.T) {
	cfgA := baseConfig()
	cfgB := baseConfig()
	cfgB.Seed = "other-run"

	repA, err := Run(context.Background(), cfgA)
	if err != nil {
		t.Fatal(err)
	}
	repB, err := Run(context.Background(), cfgB)
	if err != nil {
		t.Fatal(err)
	}

	if repA.TurnsSum == repB.TurnsSum && repA.DamageDealtSum == repB.DamageDealtSum && repA.Wins == repB.Wins {
		t.Error("different seeds produced identical aggregates")
	}
}

func TestRunOutcomesAreMeaningful(t *testing.T) {
	cfg := baseConfig()
	cfg.Trials = 1000
	cfg.TurnCap = 200
	rep, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if rep.Trials != 1000 {
		t.Fatalf("Trials = %d", rep.Trials)
	}
	// A level-1 human against three goblins should be winnable but not
	// certain; an all-or-nothing outcome means the engine is degenerate.
	if rate := rep.WinRate(); rate <= 0 || rate >= 1 {
		t.Errorf("win rate %v over %d trials, expected a mixed outcome", rate, rep.Trials)
	}

	total := int64(0)
	for _, n := range rep.Outcomes {
		total += n
	}
	if total != rep.Trials {
		t.Errorf("outcome counts sum to %d, want %d", total, rep.Trials)
	}
	if rep.DecisionsSum == 0 {
		t.Error("no decisions recorded across 1000 trials")
	}
}

// A one-turn cap must end cleanly in a defined outcome, not an error.
func TestRunTurnCapBoundary(t *testing.T) {
	cfg := baseConfig()
	cfg.Trials = 20
	cfg.TurnCap = 1

	rep, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run() with 1-turn cap error: %v", err)
	}
	if rep.Trials != 20 {
		t.Fatalf("Trials = %d", rep.Trials)
	}
	for o := range rep.Outcomes {
		switch o {
		case report.OutcomeVictory, report.OutcomeExitReached, report.OutcomeDeath, report.OutcomeTimeout:
		default:
			t.Errorf("undefined outcome %q", o)
		}
	}
	if rep.TurnsSum > rep.Trials {
		t.Errorf("TurnsSum = %d exceeds the cap across %d trials", rep.TurnsSum, rep.Trials)
	}
}

func TestRunWithGuardiansAndOverrides(t *testing.T) {
	cfg := baseConfig()
	cfg.Trials = 30
	cfg.Guardians = 1
	aggressive := disposition.Aggressive()
	cfg.PlayerDisposition = &aggressive

	rep, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Trials != 30 {
		t.Errorf("Trials = %d", rep.Trials)
	}
}

func TestRunValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing seed", func(c *Config) { c.Seed = "" }},
		{"zero trials", func(c *Config) { c.Trials = 0 }},
		{"negative parallelism", func(c *Config) { c.Parallelism = -1 }},
		{"no monsters", func(c *Config) { c.Monsters = nil }},
		{"zero-count spec", func(c *Config) { c.Monsters = []MonsterSpec{{Type: "goblin", Level: 1}} }},
		{"untyped spec", func(c *Config) { c.Monsters = []MonsterSpec{{Level: 1, Count: 1}} }},
		{"overcrowded board", func(c *Config) {
			c.BoardWidth, c.BoardHeight = 4, 4
			c.Monsters = []MonsterSpec{{Type: "goblin", Level: 1, Count: 20}}
		}},
		{"bad disposition", func(c *Config) {
			c.PlayerDisposition = &disposition.Vector{Aggressiveness: 1.5}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := baseConfig()
			tc.mutate(&cfg)
			if _, err := Run(context.Background(), cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Run() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := baseConfig()
	cfg.Trials = 10000
	cfg.Parallelism = 2
	if _, err := Run(ctx, cfg); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() on canceled context = %v, want context.Canceled", err)
	}
}

func TestTrialResultShape(t *testing.T) {
	cfg := baseConfig()
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	tr, err := runTrial(&cfg, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Turns < 1 || tr.Turns > int64(cfg.TurnCap) {
		t.Errorf("Turns = %d outside [1, %d]", tr.Turns, cfg.TurnCap)
	}
	if tr.FinalLevel < 1 {
		t.Errorf("FinalLevel = %d", tr.FinalLevel)
	}
	if tr.Outcome == "" {
		t.Error("trial ended without an outcome")
	}
}
