package grammar

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultConfidenceZ is the z-factor of the ~95% interval used to decide
// between Turing and smoothed estimates.
const DefaultConfidenceZ = 1.96

// FreqClass is one frequency class of the Simple Good-Turing estimator.
type FreqClass struct {
	R        int     // raw count
	N        int     // number of productions seen exactly R times
	Z        float64 // averaged frequency of frequency
	RStar    float64 // adjusted count
	Smoothed bool    // RStar comes from the log-linear fit
	Weight   float64
}

// FrequencyWeights maps raw counts to smoothed probability weights.
type FrequencyWeights struct {
	Classes    []FreqClass
	PZero      float64
	Slope      float64
	Intercept  float64
	SwitchedAt int // index of the first smoothed class

	weights map[int]float64
}

// Weight returns the smoothed weight of a production observed r times.
// Weight(0) is the mass reserved for unseen productions.
func (w *FrequencyWeights) Weight(r int) float64 {
	return w.weights[r]
}

// TotalMass returns pZero plus the weight of every observed production; it
// is 1 for a proper estimate.
func (w *FrequencyWeights) TotalMass() float64 {
	total := w.PZero
	for _, c := range w.Classes {
		total += float64(c.N) * c.Weight
	}
	return total
}

// smoothed evaluates the fitted log-linear frequency-of-frequency curve.
func (w *FrequencyWeights) smoothed(r float64) float64 {
	return math.Exp(w.Intercept + w.Slope*math.Log(r))
}

// EstimateGoodTuring runs Simple Good-Turing over the raw counts of all
// productions. z is the confidence factor for the switch to smoothed
// estimates.
func EstimateGoodTuring(counts []int, z float64) (*FrequencyWeights, error) {
	if len(counts) == 0 {
		return nil, ErrEmptyCorpus
	}
	nByR := make(map[int]int)
	for _, c := range counts {
		if c <= 0 {
			return nil, errors.Errorf("non-positive count %d", c)
		}
		nByR[c]++
	}
	rs := make([]int, 0, len(nByR))
	for r := range nByR {
		rs = append(rs, r)
	}
	sort.Ints(rs)
	k := len(rs)

	w := &FrequencyWeights{
		Classes:    make([]FreqClass, k),
		SwitchedAt: k,
		weights:    make(map[int]float64, k+1),
	}
	r := make([]float64, k)
	n := make([]float64, k)
	logR := make([]float64, k)
	logZ := make([]float64, k)
	for j, rj := range rs {
		r[j] = float64(rj)
		n[j] = float64(nByR[rj])
		w.Classes[j].R = rj
		w.Classes[j].N = nByR[rj]
	}

	bigN := floats.Dot(n, r)
	if n1, ok := nByR[1]; ok {
		w.PZero = float64(n1) / bigN
		if w.PZero >= 1 {
			// every production is a singleton; keep mass for the seen ones
			w.PZero = float64(n1) / (bigN + float64(n1))
		}
	}

	for j := range rs {
		prev := 0.0
		if j > 0 {
			prev = r[j-1]
		}
		next := 2*r[j] - prev
		if j < k-1 {
			next = r[j+1]
		}
		w.Classes[j].Z = 2 * n[j] / (next - prev)
		logR[j] = math.Log(r[j])
		logZ[j] = math.Log(w.Classes[j].Z)
	}

	w.Intercept, w.Slope = fitLogLinear(logR, logZ)

	switched := false
	rStar := make([]float64, k)
	for j, rj := range rs {
		y := (r[j] + 1) * w.smoothed(r[j]+1) / w.smoothed(r[j])
		nNext, adjacent := nByR[rj+1]
		if !adjacent {
			switched = true
		}
		if !switched {
			n1 := float64(nNext)
			x := (r[j] + 1) * n1 / n[j]
			sd := math.Sqrt((r[j] + 1) * (r[j] + 1) * n1 / (n[j] * n[j]) * (1 + n1/n[j]))
			if math.Abs(x-y) <= z*sd {
				switched = true
			} else {
				rStar[j] = x
			}
		}
		if switched {
			if w.SwitchedAt == k {
				w.SwitchedAt = j
			}
			rStar[j] = y
			w.Classes[j].Smoothed = true
		}
		w.Classes[j].RStar = rStar[j]
	}

	bigNPrime := floats.Dot(n, rStar)
	if !(bigNPrime > 0) || math.IsInf(bigNPrime, 0) {
		return nil, errors.Errorf("degenerate adjusted total %v", bigNPrime)
	}
	w.weights[0] = w.PZero
	for j, rj := range rs {
		weight := (1 - w.PZero) * rStar[j] / bigNPrime
		w.Classes[j].Weight = weight
		w.weights[rj] = weight
	}
	return w, nil
}

// fitLogLinear fits log Z = intercept + slope·log r. With fewer than two
// distinct points the slope is fixed at -1 through the mean point.
func fitLogLinear(logR, logZ []float64) (intercept, slope float64) {
	if len(logR) >= 2 && stat.Variance(logR, nil) > 0 {
		intercept, slope = stat.LinearRegression(logR, logZ, nil, false)
		if !math.IsNaN(slope) && !math.IsInf(slope, 0) {
			return intercept, slope
		}
	}
	slope = -1
	intercept = stat.Mean(logZ, nil) - slope*stat.Mean(logR, nil)
	return intercept, slope
}
