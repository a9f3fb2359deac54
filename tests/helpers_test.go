package tests

import (
	"math"
	"math/big"

	"github.com/sharecast/sharecast/field"
	"github.com/sharecast/sharecast/phase"
)

func phaseTuple(n []int, t int) phase.Tuple {
	sav := phase.SAV(n)
	return phase.Tuple{N: sav, T: t, Total: sav.Total()}
}

func shareFor(secret *big.Int, n, t int, prime *big.Int) ([]field.Share, error) {
	return field.Split(secret, n, t, prime)
}

func reconstructFor(shares []field.Share, t int, prime *big.Int) (*big.Int, error) {
	return field.Reconstruct(shares, t, prime)
}

// clopperPearson returns the exact binomial confidence interval for
// successes out of trials at the given confidence level, via bisection
// on the tail-sum binomial CDF (no stats library appears in the
// retrieved corpus, and a single two-sided interval does not warrant
// adding one).
func clopperPearson(successes, trials int, confidence float64) (lo, hi float64) {
	alpha := 1 - confidence
	if successes == 0 {
		lo = 0
	} else {
		lo = bisectTail(trials, successes, alpha/2, true)
	}
	if successes == trials {
		hi = 1
	} else {
		hi = bisectTail(trials, successes, alpha/2, false)
	}
	return lo, hi
}

func bisectTail(n, successes int, alpha float64, lower bool) float64 {
	lo, hi := 0.0, 1.0
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		var tail float64
		if lower {
			tail = binomialTailGE(n, mid, successes)
		} else {
			tail = 1 - binomialTailGE(n, mid, successes+1)
		}
		if lower {
			if tail > alpha {
				hi = mid
			} else {
				lo = mid
			}
		} else {
			if tail > alpha {
				lo = mid
			} else {
				hi = mid
			}
		}
	}
	return (lo + hi) / 2
}

func binomialTailGE(n int, p float64, k int) float64 {
	total := 0.0
	for i := k; i <= n; i++ {
		total += binomialPMF(n, p, i)
	}
	return total
}

func binomialPMF(n int, p float64, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if p <= 0 || p >= 1 {
		if (p <= 0 && k == 0) || (p >= 1 && k == n) {
			return 1
		}
		return 0
	}
	// Log space: choose(n, k) and p^k overflow or underflow for n in the
	// thousands.
	lgN, _ := math.Lgamma(float64(n + 1))
	lgK, _ := math.Lgamma(float64(k + 1))
	lgNK, _ := math.Lgamma(float64(n - k + 1))
	return math.Exp(lgN - lgK - lgNK + float64(k)*math.Log(p) + float64(n-k)*math.Log1p(-p))
}

func choose(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= float64(n-i) / float64(i+1)
	}
	return result
}
