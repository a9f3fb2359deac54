package simulate_test

import (
	"math"
	"math/big"
	"testing"

	"github.com/sharecast/sharecast/phase"
	"github.com/sharecast/sharecast/simulate"
	"github.com/sharecast/sharecast/topology"
)

// TestScenarioS2CrossCheck mirrors spec §8 Scenario S2: a single path
// with SAV (0,5,0) style allocation collapses, for this test, to one
// path carrying 5 shares at t=4, prime=257, seed=42, n_trials=10000. With
// rho=0.95 and eps=0.10 the closed-form binomial tails give reliability
// ~= 0.977 and breach ~= 0.00046, and each must fall inside the 99%
// Clopper-Pearson interval around the simulator's empirical rate.
func TestScenarioS2CrossCheck(t *testing.T) {
	paths := []topology.Path{{Nodes: []string{"s", "r"}, Eps: 0.10, Rho: 0.95}}
	tup := phase.Tuple{N: phase.SAV{5}, T: 4, Total: 5}

	cfg := simulate.Config{
		Tuple:   tup,
		Paths:   paths,
		Prime:   big.NewInt(257),
		NTrials: 10000,
		Seed:    42,
	}
	res, err := simulate.Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Analytic cross-check: P(Binomial(5, 0.95) >= 4).
	wantReliability := binomialTailGE(5, 0.95, 4)
	lo, hi := clopperPearson(res.Successes, res.Trials, 0.99)
	if wantReliability < lo || wantReliability > hi {
		t.Fatalf("analytic reliability %.4f outside empirical 99%% CI [%.4f, %.4f] (empirical %.4f)",
			wantReliability, lo, hi, res.Reliability)
	}

	wantBreach := binomialTailGE(5, 0.10, 4)
	lo, hi = clopperPearson(res.Breaches, res.Trials, 0.99)
	if wantBreach < lo || wantBreach > hi {
		t.Fatalf("analytic breach %.4f outside empirical 99%% CI [%.4f, %.4f] (empirical %.4f)",
			wantBreach, lo, hi, res.Breach)
	}
}

func TestRunIsReproducibleGivenSameSeed(t *testing.T) {
	paths := []topology.Path{{Nodes: []string{"s", "r"}, Eps: 0.2, Rho: 0.8}, {Nodes: []string{"s", "x", "r"}, Eps: 0.3, Rho: 0.7}}
	tup := phase.Tuple{N: phase.SAV{2, 2}, T: 3, Total: 4}
	cfg := simulate.Config{Tuple: tup, Paths: paths, Prime: big.NewInt(257), NTrials: 2000, Seed: 7, Workers: 4}

	r1, err := simulate.Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	r2, err := simulate.Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r1 != r2 {
		t.Fatalf("two runs with identical config diverged: %+v vs %+v", r1, r2)
	}
}

func TestRunRejectsMismatchedDimensions(t *testing.T) {
	tup := phase.Tuple{N: phase.SAV{1, 1}, T: 1, Total: 2}
	cfg := simulate.Config{Tuple: tup, Paths: []topology.Path{{Nodes: []string{"s", "r"}}}, Prime: big.NewInt(257), NTrials: 10}
	if _, err := simulate.Run(cfg); err == nil {
		t.Fatalf("expected an error when the tuple has more coordinates than there are paths")
	}
}

// binomialTailGE computes P(X >= k) for X ~ Binomial(n, p) directly,
// independent of the production prob package, so this test does not
// merely check the simulator against its own analytic engine.
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

// clopperPearson returns the exact binomial confidence interval for
// successes out of trials at the given confidence level, via a coarse
// bisection on the regularized incomplete beta function's tail sums
// (no stats library is present in the retrieved corpus, and a single
// two-sided interval does not warrant adding one).
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

// bisectTail finds p such that P(X >= successes | n, p) = alpha (lower
// bound search) or P(X <= successes | n, p) = alpha (upper bound
// search), by bisection over p in [0, 1].
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
