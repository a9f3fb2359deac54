package prob_test

import (
	"math"
	"testing"

	"github.com/sharecast/sharecast/prob"
)

func binomCoeff(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result *= float64(n-i) / float64(i+1)
	}
	return result
}

func closedFormBinomial(n int, q float64, k int) float64 {
	return binomCoeff(n, k) * math.Pow(q, float64(k)) * math.Pow(1-q, float64(n-k))
}

func TestBinomialPMFMatchesClosedForm(t *testing.T) {
	n, q := 12, 0.37
	d := prob.BinomialPMF(n, q)
	for k := 0; k <= n; k++ {
		want := closedFormBinomial(n, q, k)
		if math.Abs(d[k]-want) > 1e-10 {
			t.Fatalf("k=%d: got %v want %v", k, d[k], want)
		}
	}
}

func TestBinomialPMFDegenerateCases(t *testing.T) {
	d0 := prob.BinomialPMF(5, 0)
	if d0[0] != 1 {
		t.Fatalf("q=0: expected mass at 0, got %v", d0)
	}
	d1 := prob.BinomialPMF(5, 1)
	if d1[5] != 1 {
		t.Fatalf("q=1: expected mass at n, got %v", d1)
	}
}

func TestConvolveSumsToOne(t *testing.T) {
	a := prob.BinomialPMF(5, 0.3)
	b := prob.BinomialPMF(7, 0.6)
	c := prob.Convolve(a, b)
	sum := 0.0
	for _, p := range c {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("convolution mass = %v, want ~1", sum)
	}
}

func TestConvolveCommutativeAssociative(t *testing.T) {
	a := prob.BinomialPMF(3, 0.2)
	b := prob.BinomialPMF(4, 0.5)
	c := prob.BinomialPMF(2, 0.9)

	ab := prob.Convolve(a, b)
	ba := prob.Convolve(b, a)
	l1 := func(x, y prob.Dist) float64 {
		s := 0.0
		for i := range x {
			s += math.Abs(x[i] - y[i])
		}
		return s
	}
	if l1(ab, ba) > 1e-10 {
		t.Fatalf("convolution not commutative: %v", l1(ab, ba))
	}

	abc1 := prob.Convolve(prob.Convolve(a, b), c)
	abc2 := prob.Convolve(a, prob.Convolve(b, c))
	if l1(abc1, abc2) > 1e-10 {
		t.Fatalf("convolution not associative: %v", l1(abc1, abc2))
	}
}

func TestEngineSumMassOne(t *testing.T) {
	e := prob.NewEngine(1e-12)
	dist := e.Sum([]int{3, 5, 2}, []float64{0.1, 0.4, 0.8})
	sum := 0.0
	for _, p := range dist {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("Sum mass = %v, want ~1", sum)
	}
}

func TestTailGELTComplement(t *testing.T) {
	d := prob.BinomialPMF(10, 0.4)
	for t2 := 0; t2 <= 11; t2++ {
		ge := prob.TailGE(d, t2)
		lt := prob.TailLT(d, t2)
		if math.Abs(ge+lt-1) > 1e-9 {
			t.Fatalf("t=%d: TailGE+TailLT = %v, want 1", t2, ge+lt)
		}
	}
}

func TestThresholdSearchScenarioS3(t *testing.T) {
	// Two parallel identical paths with eps=0.5, rho=0.5; sigma=0.6, tau=0.3.
	e := prob.NewEngine(1e-12)
	n := []int{1, 1}
	pB := e.Sum(n, []float64{0.5, 0.5})
	pE := e.Sum(n, []float64{0.5, 0.5})

	// At t=2, analytic reliability = 0.25 and breach = 0.25 (both
	// Binomial-sum mass at the top).
	if got := prob.TailGE(pB, 2); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("reliability at t=2: got %v want 0.25", got)
	}
	if got := prob.TailGE(pE, 2); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("breach at t=2: got %v want 0.25", got)
	}

	interval := prob.ThresholdSearch(pB, pE, 0.6, 0.3)
	if !interval.Empty {
		t.Fatalf("(1,1) at N=2 should be infeasible for sigma=0.6, got %+v", interval)
	}
}

func TestThresholdSearchMonotoneInterval(t *testing.T) {
	e := prob.NewEngine(1e-12)
	n := []int{4, 3}
	pB := e.Sum(n, []float64{0.9, 0.8})
	pE := e.Sum(n, []float64{0.1, 0.2})

	interval := prob.ThresholdSearch(pB, pE, 0.9, 0.1)
	if interval.Empty {
		t.Fatalf("expected a feasible interval")
	}
	for t2 := interval.Low; t2 <= interval.High; t2++ {
		if prob.TailGE(pB, t2) < 0.9 || prob.TailGE(pE, t2) > 0.1 {
			t.Fatalf("t=%d within reported interval violates bounds", t2)
		}
	}
	if interval.Low > 1 && (prob.TailGE(pB, interval.Low-1) >= 0.9 && prob.TailGE(pE, interval.Low-1) <= 0.1) {
		t.Fatalf("interval.Low=%d is not minimal", interval.Low)
	}
}
