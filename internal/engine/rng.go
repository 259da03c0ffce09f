package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// Source is a deterministic random stream private to one trial. It is derived
// from the run seed plus the trial index, so a full Monte Carlo run is
// reproducible from the top-level seed and trials never observe each other's
// randomness regardless of how they are scheduled.
type Source struct {
	runSeed     string
	trial       uint64
	round       uint64
	roundCursor int
	buffer      [32]byte
}

// NewSource creates a random stream for the given run seed and trial index.
func NewSource(runSeed string, trial uint64) *Source {
	return &Source{
		runSeed:     runSeed,
		trial:       trial,
		roundCursor: 32, // force a round on first draw
	}
}

func (s *Source) generateRound() {
	h := hmac.New(sha256.New, []byte(s.runSeed))
	message := fmt.Sprintf("trial:%d:round:%d", s.trial, s.round)
	h.Write([]byte(message))
	copy(s.buffer[:], h.Sum(nil))
}

// NextByte returns the next byte from the stream.
func (s *Source) NextByte() byte {
	if s.roundCursor >= 32 {
		s.generateRound()
		s.round++
		s.roundCursor = 0
	}

	b := s.buffer[s.roundCursor]
	s.roundCursor++
	return b
}

// Float64 returns the next value in [0, 1), built from 4 stream bytes.
func (s *Source) Float64() float64 {
	b0 := s.NextByte()
	b1 := s.NextByte()
	b2 := s.NextByte()
	b3 := s.NextByte()

	return float64(b0)/256.0 +
		float64(b1)/(256.0*256.0) +
		float64(b2)/(256.0*256.0*256.0) +
		float64(b3)/(256.0*256.0*256.0*256.0)
}

// Intn returns an integer in [0, n). n must be positive.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("engine: Intn called with non-positive n")
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Noise returns a symmetric perturbation in [-amplitude, +amplitude].
func (s *Source) Noise(amplitude float64) float64 {
	return (s.Float64()*2 - 1) * amplitude
}

// Floats fills out with the next count values from a fresh stream for the
// given run seed and trial. Convenience for tests and one-shot consumers.
func Floats(runSeed string, trial uint64, count int) []float64 {
	src := NewSource(runSeed, trial)
	floats := make([]float64, count)
	for i := range floats {
		floats[i] = src.Float64()
	}
	return floats
}
