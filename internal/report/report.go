// Package report aggregates trial results into a balance report.
//
// Aggregation is order-independent: every accumulated metric is an integer
// count or sum, so merging worker-local partial reports yields bit-identical
// results regardless of how trials were scheduled across goroutines.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Outcome is the terminal state of one trial.
type Outcome string

const (
	OutcomeVictory     Outcome = "victory"      // every monster dead
	OutcomeExitReached Outcome = "exit_reached" // player escaped through the exit
	OutcomeDeath       Outcome = "death"        // player died
	OutcomeTimeout     Outcome = "timeout"      // turn cap hit
)

// Win reports whether the outcome counts as a player win. Escaping alive is
// a win even when monsters survive.
func (o Outcome) Win() bool {
	return o == OutcomeVictory || o == OutcomeExitReached
}

// TrialResult is the measured outcome of a single trial.
type TrialResult struct {
	Outcome     Outcome
	Turns       int64
	DamageDealt int64
	DamageTaken int64
	GoldLooted  int64
	ItemsUsed   int64
	Decisions   int64
	Ceasefires  int64
	KillsByType map[string]int64
	DeathByType string // monster type that landed the killing blow, if any
	FinalLevel  int64
	FinalHealth int64
}

// Report is the commutative aggregate over all trials of a run.
type Report struct {
	Seed     string
	TurnCap  int64
	Trials   int64
	Wins     int64
	Outcomes map[Outcome]int64
	Elapsed  time.Duration

	TurnsSum   int64
	TurnsSumSq int64

	DamageDealtSum int64
	DamageTakenSum int64
	GoldSum        int64
	ItemsUsedSum   int64
	DecisionsSum   int64
	CeasefiresSum  int64
	FinalLevelSum  int64
	FinalHealthSum int64

	KillsByType  map[string]int64
	DeathsByType map[string]int64
}

// New creates an empty report for the given run parameters.
func New(seed string, turnCap int64) *Report {
	return &Report{
		Seed:         seed,
		TurnCap:      turnCap,
		Outcomes:     make(map[Outcome]int64),
		KillsByType:  make(map[string]int64),
		DeathsByType: make(map[string]int64),
	}
}

// Add folds one trial result into the report.
func (r *Report) Add(tr TrialResult) {
	r.Trials++
	r.Outcomes[tr.Outcome]++
	if tr.Outcome.Win() {
		r.Wins++
	}

	r.TurnsSum += tr.Turns
	r.TurnsSumSq += tr.Turns * tr.Turns
	r.DamageDealtSum += tr.DamageDealt
	r.DamageTakenSum += tr.DamageTaken
	r.GoldSum += tr.GoldLooted
	r.ItemsUsedSum += tr.ItemsUsed
	r.DecisionsSum += tr.Decisions
	r.CeasefiresSum += tr.Ceasefires
	r.FinalLevelSum += tr.FinalLevel
	r.FinalHealthSum += tr.FinalHealth

	for typ, n := range tr.KillsByType {
		r.KillsByType[typ] += n
	}
	if tr.DeathByType != "" {
		r.DeathsByType[tr.DeathByType]++
	}
}

// Merge folds another partial report into this one. Both reports must come
// from the same run.
func (r *Report) Merge(other *Report) {
	r.Trials += other.Trials
	r.Wins += other.Wins
	for o, n := range other.Outcomes {
		r.Outcomes[o] += n
	}

	r.TurnsSum += other.TurnsSum
	r.TurnsSumSq += other.TurnsSumSq
	r.DamageDealtSum += other.DamageDealtSum
	r.DamageTakenSum += other.DamageTakenSum
	r.GoldSum += other.GoldSum
	r.ItemsUsedSum += other.ItemsUsedSum
	r.DecisionsSum += other.DecisionsSum
	r.CeasefiresSum += other.CeasefiresSum
	r.FinalLevelSum += other.FinalLevelSum
	r.FinalHealthSum += other.FinalHealthSum

	for typ, n := range other.KillsByType {
		r.KillsByType[typ] += n
	}
	for typ, n := range other.DeathsByType {
		r.DeathsByType[typ] += n
	}
}

// WinRate is the fraction of trials the player won.
func (r *Report) WinRate() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trials)
}

// MeanTurns is the average trial length.
func (r *Report) MeanTurns() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.TurnsSum) / float64(r.Trials)
}

// TurnStdDev is the population standard deviation of trial length, computed
// from the running sum of squares.
func (r *Report) TurnStdDev() float64 {
	if r.Trials == 0 {
		return 0
	}
	n := float64(r.Trials)
	mean := float64(r.TurnsSum) / n
	variance := float64(r.TurnsSumSq)/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Balance thresholds. Win rates outside [0.30, 0.70] indicate a tuning
// problem; long mean trials relative to the cap suggest stalling.
const (
	winRateTooHard = 0.30
	winRateTooEasy = 0.70
	longTrialRatio = 0.80
)

// Verdict summarizes the balance of the run in one word.
func (r *Report) Verdict() string {
	switch rate := r.WinRate(); {
	case r.Trials == 0:
		return "no data"
	case rate < winRateTooHard:
		return "too hard"
	case rate > winRateTooEasy:
		return "too easy"
	default:
		return "balanced"
	}
}

// KillOutlier flags a monster type whose kill contribution deviates from the
// per-type mean by two or more standard deviations.
type KillOutlier struct {
	Type   string
	Kills  int64
	ZScore float64
}

// KillOutliers detects monster types killed disproportionately often or
// rarely. With fewer than two types there is nothing to compare against.
func (r *Report) KillOutliers() []KillOutlier {
	if len(r.KillsByType) < 2 {
		return nil
	}

	types := make([]string, 0, len(r.KillsByType))
	for typ := range r.KillsByType {
		types = append(types, typ)
	}
	sort.Strings(types)

	n := float64(len(types))
	sum := 0.0
	for _, typ := range types {
		sum += float64(r.KillsByType[typ])
	}
	mean := sum / n

	variance := 0.0
	for _, typ := range types {
		d := float64(r.KillsByType[typ]) - mean
		variance += d * d
	}
	variance /= n
	if variance == 0 {
		return nil
	}
	std := math.Sqrt(variance)

	var out []KillOutlier
	for _, typ := range types {
		z := (float64(r.KillsByType[typ]) - mean) / std
		if math.Abs(z) >= 2 {
			out = append(out, KillOutlier{Type: typ, Kills: r.KillsByType[typ], ZScore: z})
		}
	}
	return out
}

// Render produces the human-readable balance report. The output is a pure
// function of the seed and the accumulated trial aggregates, so the same run
// renders identically no matter when or how it was executed.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Balance Report (seed %s, %d trials)\n", r.Seed, r.Trials)
	fmt.Fprintf(&b, "==================================================\n")
	fmt.Fprintf(&b, "Win rate:        %.1f%% (%d/%d) [%s]\n", r.WinRate()*100, r.Wins, r.Trials, r.Verdict())

	outcomes := make([]Outcome, 0, len(r.Outcomes))
	for o := range r.Outcomes {
		outcomes = append(outcomes, o)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i] < outcomes[j] })
	for _, o := range outcomes {
		fmt.Fprintf(&b, "  %-14s %d\n", o+":", r.Outcomes[o])
	}

	fmt.Fprintf(&b, "Trial length:    %.1f turns mean, %.1f std (cap %d)\n", r.MeanTurns(), r.TurnStdDev(), r.TurnCap)
	if r.Trials > 0 {
		fmt.Fprintf(&b, "Per trial:       %.1f dmg dealt, %.1f dmg taken, %.1f gold, %.1f items used\n",
			float64(r.DamageDealtSum)/float64(r.Trials),
			float64(r.DamageTakenSum)/float64(r.Trials),
			float64(r.GoldSum)/float64(r.Trials),
			float64(r.ItemsUsedSum)/float64(r.Trials))
		fmt.Fprintf(&b, "Decisions:       %.1f per trial, %d ceasefires total\n",
			float64(r.DecisionsSum)/float64(r.Trials), r.CeasefiresSum)
	}

	if len(r.KillsByType) > 0 {
		fmt.Fprintf(&b, "Kills by type:\n")
		types := make([]string, 0, len(r.KillsByType))
		for typ := range r.KillsByType {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			fmt.Fprintf(&b, "  %-14s %d\n", typ+":", r.KillsByType[typ])
		}
	}
	if len(r.DeathsByType) > 0 {
		fmt.Fprintf(&b, "Player deaths by killer:\n")
		types := make([]string, 0, len(r.DeathsByType))
		for typ := range r.DeathsByType {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			fmt.Fprintf(&b, "  %-14s %d\n", typ+":", r.DeathsByType[typ])
		}
	}

	var warnings []string
	if r.Trials > 0 {
		if rate := r.WinRate(); rate < winRateTooHard {
			warnings = append(warnings, fmt.Sprintf("win rate %.1f%% below %.0f%%: players lose too often", rate*100, winRateTooHard*100))
		} else if rate > winRateTooEasy {
			warnings = append(warnings, fmt.Sprintf("win rate %.1f%% above %.0f%%: monsters pose too little threat", rate*100, winRateTooEasy*100))
		}
		if r.TurnCap > 0 && r.MeanTurns() > float64(r.TurnCap)*longTrialRatio {
			warnings = append(warnings, fmt.Sprintf("mean trial length %.1f is near the %d-turn cap: trials stall", r.MeanTurns(), r.TurnCap))
		}
		if timeouts := r.Outcomes[OutcomeTimeout]; timeouts*4 > r.Trials {
			warnings = append(warnings, fmt.Sprintf("%d of %d trials timed out: encounters may be indecisive", timeouts, r.Trials))
		}
	}
	for _, o := range r.KillOutliers() {
		warnings = append(warnings, fmt.Sprintf("kill contribution outlier: %s killed %d times (z=%.1f)", o.Type, o.Kills, o.ZScore))
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "Warnings:\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	return b.String()
}
