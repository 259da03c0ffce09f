package game

import (
	"errors"
	"fmt"

	"github.com/aldenhart/dungeon-balance-go/internal/engine"
)

// DieKind names a supported die.
type DieKind string

const (
	D4  DieKind = "d4"
	D6  DieKind = "d6"
	D8  DieKind = "d8"
	D10 DieKind = "d10"
	D12 DieKind = "d12"
	D20 DieKind = "d20"
)

var ErrUnknownDie = errors.New("unknown die kind")

var dieSides = map[DieKind]int{
	D4: 4, D6: 6, D8: 8, D10: 10, D12: 12, D20: 20,
}

// Roller rolls dice against a trial's private random source, so every roll in
// a trial is reproducible from the run seed and trial index.
type Roller struct {
	src *engine.Source
}

// NewRoller creates a roller bound to the given source.
func NewRoller(src *engine.Source) *Roller {
	return &Roller{src: src}
}

// Roll rolls n dice of the given kind and returns the total plus the
// individual rolls.
func (r *Roller) Roll(kind DieKind, n int) (int, []int, error) {
	sides, ok := dieSides[kind]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", ErrUnknownDie, kind)
	}
	if n < 1 {
		n = 1
	}

	rolls := make([]int, n)
	total := 0
	for i := range rolls {
		rolls[i] = r.src.Intn(sides) + 1
		total += rolls[i]
	}
	return total, rolls, nil
}

// RollWithAdvantage rolls the die twice and keeps the higher result. Both
// rolls are returned so callers can log them.
func (r *Roller) RollWithAdvantage(kind DieKind) (int, []int, error) {
	_, rolls, err := r.Roll(kind, 2)
	if err != nil {
		return 0, nil, err
	}
	best := rolls[0]
	if rolls[1] > best {
		best = rolls[1]
	}
	return best, rolls, nil
}
