package decision

import (
	"fmt"
	"sort"

	"github.com/aldenhart/dungeon-balance-go/internal/disposition"
	"github.com/aldenhart/dungeon-balance-go/internal/engine"
)

// noiseScale caps the relative perturbation injected at full
// unpredictability; the amplitude grows linearly with the trait.
const noiseScale = 0.75

// Maker produces one choice for a decision request. Implementations are
// stateless and safe to share across trials; all randomness flows through
// the supplied source.
type Maker interface {
	Decide(req Request, disp disposition.Vector, ctx Context, src *engine.Source) (int, error)
}

// ForKind returns the decision variant for an agent kind.
func ForKind(kind disposition.AgentKind, table *Table) Maker {
	switch kind {
	case disposition.Monster:
		return MonsterMaker{}
	case disposition.Guardian:
		return GuardianMaker{}
	default:
		return PlayerMaker{Table: table}
	}
}

// PlayerMaker is the general personality-weighted variant. For each option
// it derives a base weight from the decision kind's trait profile, blends in
// circumstance according to Influencability, perturbs by Unpredictability,
// normalizes, and samples.
type PlayerMaker struct {
	Table *Table
}

// Decide picks an option index from the request.
func (m PlayerMaker) Decide(req Request, disp disposition.Vector, ctx Context, src *engine.Source) (int, error) {
	if len(req.Options) == 0 {
		return NoChoice, fmt.Errorf("%w: %s", ErrEmptyOptions, req.Kind)
	}

	weights, err := m.Weights(req, disp, ctx, src)
	if err != nil {
		return NoChoice, err
	}
	return sample(weights, src), nil
}

// Weights computes the normalized probability distribution over the
// request's options. Exposed for property tests; Decide samples from it.
func (m PlayerMaker) Weights(req Request, disp disposition.Vector, ctx Context, src *engine.Source) ([]float64, error) {
	if len(req.Options) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyOptions, req.Kind)
	}

	table := m.Table
	if table == nil {
		table = DefaultTable()
	}

	weights := make([]float64, len(req.Options))
	for i := range req.Options {
		profile, ok := table.profile(req.Kind, i)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKind, req.Kind)
		}

		base := blend(0.5, profile.Traits, disp.Trait)
		modifier := blend(0.5, profile.Context, ctx.Field)

		infl := disp.Influencability
		eff := base*(1-infl) + base*modifier*infl

		if disp.Unpredictability > 0 {
			eff *= 1 + src.Noise(disp.Unpredictability*noiseScale)
		}
		if eff < 0 {
			eff = 0
		}
		weights[i] = eff
	}

	normalize(weights)
	return weights, nil
}

// MonsterMaker targets uniformly: monsters have no tactical preference, so
// personality and context are not consulted.
type MonsterMaker struct{}

// Decide picks a uniformly random option.
func (MonsterMaker) Decide(req Request, _ disposition.Vector, _ Context, src *engine.Source) (int, error) {
	if len(req.Options) == 0 {
		return NoChoice, fmt.Errorf("%w: %s", ErrEmptyOptions, req.Kind)
	}
	return src.Intn(len(req.Options)), nil
}

// GuardianMaker targets uniformly like a monster, but never at another
// Guardian. An empty filtered set is a defined no-op, not an error.
type GuardianMaker struct{}

// Decide picks a uniformly random non-Guardian option, or NoChoice when
// every candidate is a Guardian.
func (GuardianMaker) Decide(req Request, _ disposition.Vector, _ Context, src *engine.Source) (int, error) {
	candidates := make([]int, 0, len(req.Options))
	for i, opt := range req.Options {
		if opt.Agent != disposition.Guardian {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return NoChoice, nil
	}
	return candidates[src.Intn(len(candidates))], nil
}

// blend pulls a neutral midpoint toward the coefficients' directions:
// result = mid + sum(coef * (value - 0.5)), clamped to [0,1]. With no
// coefficients the result is the midpoint itself. Keys are visited in
// sorted order so float summation is bit-identical across runs.
func blend(mid float64, coefs map[string]float64, value func(string) float64) float64 {
	names := make([]string, 0, len(coefs))
	for name := range coefs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := mid
	for _, name := range names {
		out += coefs[name] * (value(name) - 0.5)
	}
	return clamp01(out)
}

// normalize scales weights into a probability distribution. When every
// weight collapses to zero the distribution falls back to uniform; that is
// the defined edge-case policy, not an error.
func normalize(weights []float64) {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		uniform := 1 / float64(len(weights))
		for i := range weights {
			weights[i] = uniform
		}
		return
	}
	for i := range weights {
		weights[i] /= sum
	}
}

// sample draws one index from a normalized distribution.
func sample(weights []float64, src *engine.Source) int {
	r := src.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	// Floating point slack: the remainder belongs to the last option.
	return len(weights) - 1
}
