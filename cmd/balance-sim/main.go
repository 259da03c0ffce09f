// balance-sim runs a batch of simulated dungeon trials from the command line
// and prints the balance report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/aldenhart/dungeon-balance-go/internal/config"
	"github.com/aldenhart/dungeon-balance-go/internal/decision"
	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
	"github.com/aldenhart/dungeon-balance-go/internal/game"
	"github.com/aldenhart/dungeon-balance-go/internal/report"
	"github.com/aldenhart/dungeon-balance-go/internal/scripting"
	"github.com/aldenhart/dungeon-balance-go/internal/sim"
	"github.com/aldenhart/dungeon-balance-go/internal/store"
)

func main() {
	logger := log.New(os.Stderr, "[CLI] ", log.LstdFlags)

	env, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var (
		seed        = flag.String("seed", "", "run seed (required)")
		trials      = flag.Int("trials", env.Trials, "number of trials")
		turnCap     = flag.Int("turn-cap", env.TurnCap, "turns before a trial times out")
		parallelism = flag.Int("parallelism", env.Parallelism, "worker count (0 = all cores)")
		width       = flag.Int("width", 10, "board width")
		height      = flag.Int("height", 10, "board height")
		class       = flag.String("class", game.ClassHuman, "player class (human, cyborg, wartech)")
		level       = flag.Int("level", 1, "player starting level")
		monsters    = flag.String("monsters", "goblin:1:3", "monster specs as type:level:count, comma separated")
		guardians   = flag.Int("guardians", 0, "guardians stationed at the exit")
		preset      = flag.String("preset", "", "player disposition preset (aggressive, cautious, greedy)")
		weightsPath = flag.String("weights", "", "decision weight table YAML file")
		statsPath   = flag.String("stats", "", "stat override CSV file")
		profilePath = flag.String("profile", "", "behavior profile JS file")
		dbPath      = flag.String("db", env.DBPath, "SQLite file to archive the run (empty disables)")
	)
	flag.Parse()

	if *seed == "" {
		logger.Fatal("a -seed is required so runs are reproducible")
	}

	specs, err := parseMonsters(*monsters)
	if err != nil {
		logger.Fatalf("parse -monsters: %v", err)
	}

	cfg := sim.Config{
		Seed:        *seed,
		Trials:      *trials,
		Parallelism: *parallelism,
		TurnCap:     *turnCap,
		BoardWidth:  *width,
		BoardHeight: *height,
		PlayerClass: *class,
		PlayerLevel: *level,
		Monsters:    specs,
		Guardians:   *guardians,
	}

	if *preset != "" {
		v, err := presetDisposition(*preset)
		if err != nil {
			logger.Fatal(err)
		}
		cfg.PlayerDisposition = &v
	}

	if *weightsPath != "" {
		table, err := decision.LoadTable(*weightsPath)
		if err != nil {
			logger.Fatalf("load weights: %v", err)
		}
		cfg.Weights = table
	}

	if *statsPath != "" {
		var table game.StatsTable
		if err := table.LoadCSV(*statsPath); err != nil {
			logger.Fatalf("load stats: %v", err)
		}
		cfg.Stats = &table
	}

	if *profilePath != "" {
		if err := applyProfile(&cfg, *profilePath); err != nil {
			logger.Fatalf("load profile: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := sim.Run(ctx, cfg)
	if err != nil {
		logger.Fatalf("run: %v", err)
	}

	fmt.Print(rep.Render())

	if *dbPath != "" {
		if err := archive(*dbPath, &cfg, rep); err != nil {
			logger.Fatalf("archive: %v", err)
		}
	}
}

// applyProfile overlays a JS behavior profile onto the run config.
func applyProfile(cfg *sim.Config, path string) error {
	p, err := scripting.Load(path)
	if err != nil {
		return err
	}

	base := disposition.New(disposition.Player, cfg.PlayerLevel)
	if cfg.PlayerDisposition != nil {
		base = *cfg.PlayerDisposition
	}
	v, err := p.ApplyDisposition(base)
	if err != nil {
		return err
	}
	cfg.PlayerDisposition = &v

	table := cfg.Weights
	if table == nil {
		table = decision.DefaultTable()
	}
	table, err = p.ApplyWeights(table)
	if err != nil {
		return err
	}
	cfg.Weights = table
	return nil
}

func archive(path string, cfg *sim.Config, rep *report.Report) error {
	db, err := store.NewSQLiteDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	repJSON, err := json.Marshal(rep)
	if err != nil {
		return err
	}

	run := &store.Run{
		Seed:       rep.Seed,
		Trials:     rep.Trials,
		Wins:       rep.Wins,
		WinRate:    rep.WinRate(),
		Verdict:    rep.Verdict(),
		MeanTurns:  rep.MeanTurns(),
		ConfigJSON: string(cfgJSON),
		ReportJSON: string(repJSON),
	}
	if err := db.SaveRun(run); err != nil {
		return err
	}
	fmt.Printf("Archived as run %s in %s\n", run.ID, path)
	return nil
}

func presetDisposition(name string) (disposition.Vector, error) {
	switch name {
	case "aggressive":
		return disposition.Aggressive(), nil
	case "cautious":
		return disposition.Cautious(), nil
	case "greedy":
		return disposition.Greedy(), nil
	default:
		return disposition.Vector{}, fmt.Errorf("unknown preset %q", name)
	}
}

// parseMonsters parses "goblin:1:3,orc:2:1" into monster specs.
func parseMonsters(s string) ([]sim.MonsterSpec, error) {
	var specs []sim.MonsterSpec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%q: want type:level:count", part)
		}
		level, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%q: bad level: %w", part, err)
		}
		count, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("%q: bad count: %w", part, err)
		}
		specs = append(specs, sim.MonsterSpec{Type: fields[0], Level: level, Count: count})
	}
	return specs, nil
}
