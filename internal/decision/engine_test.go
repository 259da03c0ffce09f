package decision

import (
	"errors"
	"math"
	"testing"

	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
	"github.com/aldenhart/dungeon-balance-go/internal/engine"
)

func balanced() disposition.Vector {
	return disposition.Vector{
		Aggressiveness: 0.5, Greediness: 0.5, Cautiousness: 0.5, Strategicness: 0.5,
		Agreeableness: 0.5, Expendability: 0.5, Unpredictability: 0.5, Influencability: 0.5,
	}
}

func neutralContext() Context {
	return Context{LifeFraction: 0.5, LevelScale: 0.5, Consumables: 0.5, ThreatRatio: 0.5, OpponentCount: 0.5, Equipment: 0.5}
}

func twoOptions(kind Kind) Request {
	return Request{Kind: kind, Options: []Option{{ID: "a"}, {ID: "b"}}}
}

func TestWeightsFormDistribution(t *testing.T) {
	maker := PlayerMaker{}
	disp := balanced()
	ctx := neutralContext()

	for _, kind := range Kinds {
		for _, n := range []int{1, 2, 3, 5} {
			opts := make([]Option, n)
			for i := range opts {
				opts[i] = Option{ID: string(rune('a' + i))}
			}
			src := engine.NewSource("dist_test", 1)
			weights, err := maker.Weights(Request{Kind: kind, Options: opts}, disp, ctx, src)
			if err != nil {
				t.Fatalf("Weights(%s, %d options) error: %v", kind, n, err)
			}

			sum := 0.0
			for i, w := range weights {
				if w < 0 {
					t.Errorf("Weights(%s) option %d negative: %v", kind, i, w)
				}
				sum += w
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("Weights(%s, %d options) sum = %v, want 1", kind, n, sum)
			}
		}
	}
}

func TestZeroInfluencabilityIgnoresContext(t *testing.T) {
	maker := PlayerMaker{}
	disp := balanced()
	disp.Aggressiveness = 0.7
	disp.Influencability = 0

	contexts := []Context{
		{},
		{LifeFraction: 1, ThreatRatio: 1, OpponentCount: 1, Equipment: 1, Consumables: 1, LevelScale: 1},
		{LifeFraction: 0.1, ThreatRatio: 0.9},
		neutralContext(),
	}

	req := twoOptions(EngageOrAvoid)
	base, err := maker.Weights(req, disp, contexts[0], engine.NewSource("infl", 0))
	if err != nil {
		t.Fatal(err)
	}
	for i, ctx := range contexts[1:] {
		got, err := maker.Weights(req, disp, ctx, engine.NewSource("infl", 0))
		if err != nil {
			t.Fatal(err)
		}
		for j := range base {
			if got[j] != base[j] {
				t.Errorf("context %d changed distribution despite Influencability=0: %v vs %v", i+1, got, base)
			}
		}
	}
}

func TestZeroUnpredictabilityIsDeterministic(t *testing.T) {
	maker := PlayerMaker{}
	disp := balanced()
	disp.Unpredictability = 0

	req := Request{Kind: RiskForTreasure, Options: []Option{{ID: "risk"}, {ID: "pass"}, {ID: "wait"}}}
	ctx := neutralContext()

	first, err := maker.Decide(req, disp, ctx, engine.NewSource("determinism", 9))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		got, err := maker.Decide(req, disp, ctx, engine.NewSource("determinism", 9))
		if err != nil {
			t.Fatal(err)
		}
		if got != first {
			t.Fatalf("decision changed between identical seeded calls: %d vs %d", got, first)
		}
	}
}

func TestEngageBeatsAvoidForAggressor(t *testing.T) {
	maker := PlayerMaker{}
	disp := balanced()
	disp.Aggressiveness = 0.9
	disp.Cautiousness = 0.1
	disp.Influencability = 0

	weights, err := maker.Weights(twoOptions(EngageOrAvoid), disp, Context{}, engine.NewSource("engage", 0))
	if err != nil {
		t.Fatal(err)
	}
	if weights[0] <= weights[1] {
		t.Errorf("engage probability %v not greater than avoid %v", weights[0], weights[1])
	}
}

func TestEmptyOptionSet(t *testing.T) {
	disp := balanced()
	ctx := neutralContext()
	src := engine.NewSource("empty", 0)

	if _, err := (PlayerMaker{}).Decide(Request{Kind: WeaponEquip}, disp, ctx, src); !errors.Is(err, ErrEmptyOptions) {
		t.Errorf("player Decide(no options) = %v, want ErrEmptyOptions", err)
	}
	if _, err := (MonsterMaker{}).Decide(Request{Kind: TargetSelect}, disp, ctx, src); !errors.Is(err, ErrEmptyOptions) {
		t.Errorf("monster Decide(no options) = %v, want ErrEmptyOptions", err)
	}
}

// Monster target selection should be statistically uniform over the living
// non-self combatants it is offered. Chi-square with 3 degrees of freedom;
// 16.27 is the 99.9% critical value.
func TestMonsterTargetsUniform(t *testing.T) {
	opts := []Option{
		{ID: "p1", Agent: disposition.Player},
		{ID: "p2", Agent: disposition.Player},
		{ID: "m1", Agent: disposition.Monster},
		{ID: "g1", Agent: disposition.Guardian},
	}
	req := Request{Kind: TargetSelect, Options: opts}

	src := engine.NewSource("monster_uniform", 0)
	counts := make([]int, len(opts))
	const samples = 40000
	for i := 0; i < samples; i++ {
		idx, err := (MonsterMaker{}).Decide(req, disposition.Vector{}, Context{}, src)
		if err != nil {
			t.Fatal(err)
		}
		counts[idx]++
	}

	expected := float64(samples) / float64(len(opts))
	chi := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		chi += diff * diff / expected
	}
	if chi > 16.27 {
		t.Errorf("chi-square %.2f exceeds 16.27, targeting looks non-uniform: %v", chi, counts)
	}
}

func TestGuardianNeverTargetsGuardian(t *testing.T) {
	opts := []Option{
		{ID: "g1", Agent: disposition.Guardian},
		{ID: "p1", Agent: disposition.Player},
		{ID: "g2", Agent: disposition.Guardian},
		{ID: "m1", Agent: disposition.Monster},
	}
	req := Request{Kind: TargetSelect, Options: opts}

	src := engine.NewSource("guardian_filter", 0)
	for i := 0; i < 10000; i++ {
		idx, err := (GuardianMaker{}).Decide(req, disposition.Vector{}, Context{}, src)
		if err != nil {
			t.Fatal(err)
		}
		if idx == NoChoice {
			t.Fatal("guardian returned NoChoice despite valid targets")
		}
		if opts[idx].Agent == disposition.Guardian {
			t.Fatalf("guardian targeted guardian %s on draw %d", opts[idx].ID, i)
		}
	}
}

func TestGuardianAllGuardiansIsNoop(t *testing.T) {
	req := Request{Kind: TargetSelect, Options: []Option{
		{ID: "g1", Agent: disposition.Guardian},
		{ID: "g2", Agent: disposition.Guardian},
	}}

	idx, err := (GuardianMaker{}).Decide(req, disposition.Vector{}, Context{}, engine.NewSource("noop", 0))
	if err != nil {
		t.Fatalf("filtered-empty set should be a no-op, got error %v", err)
	}
	if idx != NoChoice {
		t.Errorf("Decide() = %d, want NoChoice", idx)
	}
}

func TestFullInfluencabilityTracksCircumstance(t *testing.T) {
	maker := PlayerMaker{}
	disp := balanced()
	disp.Influencability = 1
	disp.Unpredictability = 0

	healthy := Context{LifeFraction: 1}
	dying := Context{LifeFraction: 0.05}

	req := twoOptions(Flee)
	wHealthy, err := maker.Weights(req, disp, healthy, engine.NewSource("ctx", 0))
	if err != nil {
		t.Fatal(err)
	}
	wDying, err := maker.Weights(req, disp, dying, engine.NewSource("ctx", 0))
	if err != nil {
		t.Fatal(err)
	}

	if wDying[0] <= wHealthy[0] {
		t.Errorf("flee weight should rise as health falls: dying=%v healthy=%v", wDying[0], wHealthy[0])
	}
}
