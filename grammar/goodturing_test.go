package grammar

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestGoodTuringTotalMass(t *testing.T) {
	tests := [][]int{
		{1, 1, 1, 1, 1, 2, 2, 2, 3, 3, 4, 5, 5, 7, 10},
		{1, 1, 2, 3},
		{3, 3, 3},
		{1, 1, 1, 1},
		{1, 2, 4, 8, 16, 32},
		{6, 6, 6, 5, 3, 3, 2, 2, 1, 1, 1, 1, 1, 1, 1},
	}
	for _, counts := range tests {
		w, err := EstimateGoodTuring(counts, DefaultConfidenceZ)
		if err != nil {
			t.Errorf("EstimateGoodTuring(%v) error: %v", counts, err)
			continue
		}
		if got := w.TotalMass(); math.Abs(got-1) > 1e-9 {
			t.Errorf("TotalMass(%v) = %v, want 1", counts, got)
		}
		for _, c := range w.Classes {
			if !(c.Weight > 0) || math.IsInf(c.Weight, 0) {
				t.Errorf("weight for r=%d in %v = %v", c.R, counts, c.Weight)
			}
		}
	}
}

func TestGoodTuringPZero(t *testing.T) {
	w, err := EstimateGoodTuring([]int{1, 1, 2, 3}, DefaultConfidenceZ)
	if err != nil {
		t.Fatal(err)
	}
	if want := 2.0 / 7.0; math.Abs(w.PZero-want) > 1e-12 {
		t.Errorf("PZero = %v, want %v", w.PZero, want)
	}
	if w.Weight(0) != w.PZero {
		t.Errorf("Weight(0) = %v, want PZero", w.Weight(0))
	}

	w, err = EstimateGoodTuring([]int{2, 2, 3}, DefaultConfidenceZ)
	if err != nil {
		t.Fatal(err)
	}
	if w.PZero != 0 {
		t.Errorf("PZero without singletons = %v, want 0", w.PZero)
	}

	w, err = EstimateGoodTuring([]int{1, 1, 1, 1}, DefaultConfidenceZ)
	if err != nil {
		t.Fatal(err)
	}
	if w.PZero >= 1 {
		t.Errorf("PZero for all singletons = %v, want < 1", w.PZero)
	}
}

func TestGoodTuringMonotonicSwitch(t *testing.T) {
	// many classes with dense low counts keep Turing estimates for a while
	var counts []int
	for r, n := range map[int]int{1: 120, 2: 40, 3: 24, 4: 13, 5: 15, 6: 5, 7: 11, 8: 2, 9: 2, 10: 1, 12: 3, 14: 2, 15: 1, 16: 1, 17: 3, 19: 1, 20: 3, 21: 2, 23: 3, 24: 3, 25: 3, 26: 2, 27: 2, 28: 1, 31: 2, 32: 2, 33: 1, 34: 2, 36: 2, 41: 3, 43: 1, 45: 3, 46: 1, 47: 1, 50: 1, 71: 1, 84: 1, 101: 1, 105: 1, 121: 1, 124: 1, 146: 1, 162: 1, 193: 1, 199: 1, 224: 1, 226: 1, 254: 1, 257: 1, 339: 1, 421: 1, 456: 1, 481: 1, 483: 1, 1140: 1, 1256: 1, 1322: 1, 1530: 1, 2131: 1, 2395: 1, 6925: 1, 7846: 1} {
		for range n {
			counts = append(counts, r)
		}
	}
	w, err := EstimateGoodTuring(counts, DefaultConfidenceZ)
	if err != nil {
		t.Fatal(err)
	}
	for j, c := range w.Classes {
		if want := j >= w.SwitchedAt; c.Smoothed != want {
			t.Errorf("class r=%d smoothed = %v, want %v (switched at %d)", c.R, c.Smoothed, want, w.SwitchedAt)
		}
	}
	if w.SwitchedAt >= len(w.Classes) {
		t.Error("no switch to smoothed estimates; the last class has no adjacent class")
	}
	if w.Slope >= 0 {
		t.Errorf("Slope = %v, want negative", w.Slope)
	}
	if math.Abs(w.TotalMass()-1) > 1e-9 {
		t.Errorf("TotalMass = %v", w.TotalMass())
	}
}

func TestGoodTuringTuringEstimate(t *testing.T) {
	// With a huge z every adjacent class is indistinguishable, with z=0 the
	// Turing estimate is kept as long as the adjacent class exists.
	counts := []int{1, 1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 3, 3, 5}
	w, err := EstimateGoodTuring(counts, 0)
	if err != nil {
		t.Fatal(err)
	}
	first := w.Classes[0]
	if first.Smoothed {
		t.Fatalf("class r=1 smoothed with z=0")
	}
	if want := 2.0 * 3 / 8; math.Abs(first.RStar-want) > 1e-12 {
		t.Errorf("r*(1) = %v, want %v", first.RStar, want)
	}
	// r=3 has no r=4 class
	if !w.Classes[2].Smoothed {
		t.Error("class r=3 should use the smoothed estimate")
	}

	w, err = EstimateGoodTuring(counts, 1e9)
	if err != nil {
		t.Fatal(err)
	}
	if w.SwitchedAt != 0 {
		t.Errorf("SwitchedAt = %d, want 0 with a huge z", w.SwitchedAt)
	}
}

func TestGoodTuringDegenerate(t *testing.T) {
	w, err := EstimateGoodTuring([]int{4, 4}, DefaultConfidenceZ)
	if err != nil {
		t.Fatal(err)
	}
	if w.Slope != -1 {
		t.Errorf("Slope for a single class = %v, want -1", w.Slope)
	}
	if got := w.Weight(4); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Weight(4) = %v, want 0.5", got)
	}

	if _, err := EstimateGoodTuring(nil, DefaultConfidenceZ); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("empty counts error = %v, want ErrEmptyCorpus", err)
	}
	if _, err := EstimateGoodTuring([]int{1, 0}, DefaultConfidenceZ); err == nil {
		t.Error("expected error for zero count")
	}
}
