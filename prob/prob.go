// Package prob is the exact probability engine (spec §4.2): it computes
// the distribution of a sum of independent non-identical Binomial random
// variables by direct PMF convolution, exposes tail probabilities, and
// runs the two-sided binary search that locates the feasible threshold
// interval for a share allocation vector.
//
// No probability/statistics library appears in the retrieved corpus
// (gonum's stat/distuv packages are named only in an unrelated doc
// comment in katalvlaran-lvlath/converterts/doc.go and never imported
// anywhere), so this is written directly against the standard library,
// in the teacher's documentation style: a package doc comment plus
// per-function Complexity notes, as in katalvlaran-lvlath/dijkstra and
// katalvlaran-lvlath/tsp.
package prob

import "math"

// Dist is a probability mass function over {0, 1, ..., N}: Dist[k] is
// Pr[X = k].
type Dist []float64

// WarningFunc receives a non-fatal NumericalWarning-shaped report when
// convolution drift exceeds the configured tolerance. The probability
// engine renormalises regardless; this is purely an observability hook
// (spec §7: NumericalWarning is non-fatal).
type WarningFunc func(drift float64)

// Engine computes PMFs of sums of independent Binomials under a
// configured renormalisation tolerance.
//
// Complexity: binomial PMF construction is O(n_j); each convolution step
// is O(partial_N * n_j); building the full distribution for m paths with
// total N is O(N^2) overall, as specified.
type Engine struct {
	RenormEpsilon float64
	OnWarning     WarningFunc
}

// NewEngine constructs an Engine with the given renormalisation
// tolerance. A nil OnWarning is legal; warnings are then silently applied.
func NewEngine(renormEpsilon float64) *Engine {
	return &Engine{RenormEpsilon: renormEpsilon}
}

// BinomialPMF returns Pr[Y = k] for Y ~ Binomial(n, q), for k = 0..n,
// via the stable forward recurrence b_{k+1} = b_k * (n-k)/(k+1) * q/(1-q),
// with the q=0 and q=1 degenerate cases handled explicitly to avoid
// division by zero.
func BinomialPMF(n int, q float64) Dist {
	d := make(Dist, n+1)
	if q <= 0 {
		d[0] = 1
		return d
	}
	if q >= 1 {
		d[n] = 1
		return d
	}

	ratio := q / (1 - q)
	// b_0 = (1-q)^n, computed directly to avoid recurrence from zero.
	d[0] = math.Pow(1-q, float64(n))
	for k := 0; k < n; k++ {
		d[k+1] = d[k] * ratio * float64(n-k) / float64(k+1)
	}
	return d
}

// Convolve computes the PMF of X+Y given independent distributions for X
// (length nx+1) and Y (length ny+1), by direct O(nx*ny) accumulation.
func Convolve(a, b Dist) Dist {
	out := make(Dist, len(a)+len(b)-1)
	for i, ai := range a {
		if ai == 0 {
			continue
		}
		for j, bj := range b {
			out[i+j] += ai * bj
		}
	}
	return out
}

// Sum computes the distribution of X = Sum_j Y_j where Y_j ~
// Binomial(n_j, q_j) are independent, by convolving one path at a time.
// After each convolution, the distribution is renormalised if its total
// mass drifts from 1 by more than e.RenormEpsilon (guarding against
// drift accumulated over long chains of convolutions); a drift beyond
// tolerance invokes OnWarning before renormalising.
func (e *Engine) Sum(n []int, q []float64) Dist {
	total := 0
	for _, nj := range n {
		total += nj
	}
	dist := Dist{1}
	for j, nj := range n {
		if nj == 0 {
			continue
		}
		dist = Convolve(dist, BinomialPMF(nj, q[j]))
		e.maybeRenormalise(dist)
	}
	if len(dist) < total+1 {
		padded := make(Dist, total+1)
		copy(padded, dist)
		dist = padded
	}
	return dist
}

func (e *Engine) maybeRenormalise(dist Dist) {
	sum := 0.0
	for _, p := range dist {
		sum += p
	}
	drift := math.Abs(sum - 1)
	eps := e.RenormEpsilon
	if eps <= 0 {
		eps = 1e-12
	}
	if drift <= eps {
		return
	}
	if e.OnWarning != nil {
		e.OnWarning(drift)
	}
	if sum == 0 {
		return
	}
	for i := range dist {
		dist[i] /= sum
	}
}

// TailGE returns Pr[X >= t], summed from the high end to preserve
// precision against the many small terms typical of a well-concentrated
// distribution.
func TailGE(d Dist, t int) float64 {
	if t <= 0 {
		return 1
	}
	if t >= len(d) {
		return 0
	}
	sum := 0.0
	for k := len(d) - 1; k >= t; k-- {
		sum += d[k]
	}
	if sum > 1 {
		sum = 1
	}
	return sum
}

// TailLT returns Pr[X < t] = 1 - TailGE(d, t). For t > N/2 the
// complement is accumulated directly from the low end, which is the
// numerically better-conditioned side of the distribution in that
// regime.
func TailLT(d Dist, t int) float64 {
	n := len(d) - 1
	if t > n/2 {
		sum := 0.0
		for k := 0; k < t && k <= n; k++ {
			sum += d[k]
		}
		if sum > 1 {
			sum = 1
		}
		return sum
	}
	return 1 - TailGE(d, t)
}

// ThresholdInterval is the inclusive [Low, High] range of thresholds t
// satisfying both the reliability and leakage bounds, or Empty if no
// such t exists.
type ThresholdInterval struct {
	Low, High int
	Empty     bool
}

// ThresholdSearch finds T(n) = { t : TailGE(pB, t) >= sigma AND
// TailGE(pE, t) <= tau }, for t in [1, N]. TailGE(pB, .) and TailGE(pE, .)
// are both monotone non-increasing in t, so T(n), if non-empty, is a
// contiguous integer interval found by two binary searches: one for the
// smallest t with TailGE(pE, t) <= tau (confidentiality starts holding),
// one for the largest t with TailGE(pB, t) >= sigma (reliability still
// holds).
func ThresholdSearch(pB, pE Dist, sigma, tau float64) ThresholdInterval {
	n := len(pB) - 1
	if n != len(pE)-1 {
		return ThresholdInterval{Empty: true}
	}
	if n < 1 {
		return ThresholdInterval{Empty: true}
	}

	// Smallest t in [1,N] with TailGE(pE,t) <= tau. TailGE(pE,.) is
	// non-increasing, so this is the first t where the predicate
	// "TailGE <= tau" becomes (and stays) true.
	lo, hi := 1, n+1 // hi = n+1 acts as "not found within range"
	for lo < hi {
		mid := lo + (hi-lo)/2
		if TailGE(pE, mid) <= tau {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	tLow := lo

	// Largest t in [1,N] with TailGE(pB,t) >= sigma. TailGE(pB,.) is
	// non-increasing, so this is the last t where the predicate holds.
	lo, hi = 0, n // lo = 0 acts as "not found"
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if TailGE(pB, mid) >= sigma {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	tHigh := lo

	if tLow > n || tHigh < 1 || tLow > tHigh {
		return ThresholdInterval{Empty: true}
	}
	return ThresholdInterval{Low: tLow, High: tHigh}
}
