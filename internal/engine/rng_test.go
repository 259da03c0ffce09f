package engine

import (
	"testing"
)

func TestFloats(t *testing.T) {
	tests := []struct {
		name    string
		seed    string
		trial   uint64
		count   int
		wantLen int
	}{
		{
			name:    "basic float generation",
			seed:    "test_run_seed",
			trial:   1,
			count:   1,
			wantLen: 1,
		},
		{
			name:    "multiple floats",
			seed:    "test_run_seed",
			trial:   1,
			count:   8,
			wantLen: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			floats := Floats(tt.seed, tt.trial, tt.count)

			if len(floats) != tt.wantLen {
				t.Errorf("Floats() returned %d floats, want %d", len(floats), tt.wantLen)
			}

			for i, f := range floats {
				if f < 0 || f >= 1 {
					t.Errorf("Float %d is out of range [0, 1): %f", i, f)
				}
			}
		})
	}
}

func TestDeterministicStreams(t *testing.T) {
	seed := "deterministic_test"
	trial := uint64(42)

	floats1 := Floats(seed, trial, 64)
	floats2 := Floats(seed, trial, 64)

	for i := range floats1 {
		if floats1[i] != floats2[i] {
			t.Errorf("Float %d differs: %f != %f", i, floats1[i], floats2[i])
		}
	}
}

func TestTrialStreamsIndependent(t *testing.T) {
	seed := "independence_test"

	a := Floats(seed, 0, 32)
	b := Floats(seed, 1, 32)

	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	if same == len(a) {
		t.Error("trial 0 and trial 1 produced identical streams")
	}
}

func TestIntnBounds(t *testing.T) {
	src := NewSource("intn_bounds", 7)
	for i := 0; i < 10000; i++ {
		v := src.Intn(6)
		if v < 0 || v >= 6 {
			t.Fatalf("Intn(6) = %d, out of range", v)
		}
	}
}

// TestFloat64Uniformity is a coarse chi-square check over 16 buckets. The
// threshold is the 99.9% critical value for 15 degrees of freedom, so a
// correct stream fails roughly once in a thousand seeds.
func TestFloat64Uniformity(t *testing.T) {
	const samples = 160000
	const buckets = 16

	src := NewSource("uniformity_test", 3)
	counts := make([]int, buckets)
	for i := 0; i < samples; i++ {
		b := int(src.Float64() * buckets)
		if b >= buckets {
			b = buckets - 1
		}
		counts[b]++
	}

	expected := float64(samples) / buckets
	chi := 0.0
	for _, c := range counts {
		diff := float64(c) - expected
		chi += diff * diff / expected
	}

	if chi > 37.70 {
		t.Errorf("chi-square statistic %.2f exceeds 37.70, distribution looks non-uniform: %v", chi, counts)
	}
}

func BenchmarkFloat64(b *testing.B) {
	src := NewSource("benchmark_seed", 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		src.Float64()
	}
}
