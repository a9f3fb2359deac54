// Package phase1 implements the passive-adversary, (k,k)-scheme strategy
// (spec §4.4.1): only t = N is considered, and feasibility reduces to the
// leakage bound prod_j eps_j^n_j <= tau, equivalently
// sum_j n_j*log(eps_j) <= log(tau) (both sides non-positive). Reliability
// prod_j rho_j^n_j is computed and reported on every emitted tuple, but
// never gates feasibility (spec's own resolution of the corresponding
// Open Question: "reported, not gated").
package phase1

import (
	"math"
	"sort"

	"github.com/sharecast/sharecast/phase"
	"github.com/sharecast/sharecast/topology"
)

// Strategy enumerates minimal (k,k) SAV tuples over a fixed set of
// paths.
type Strategy struct {
	Paths []topology.Path
}

// New constructs a Phase I strategy over the given paths.
func New(paths []topology.Path) *Strategy {
	return &Strategy{Paths: paths}
}

func (s *Strategy) Kind() phase.Kind { return phase.KindPhaseI }

var _ phase.Strategy = (*Strategy)(nil)

type pathWeight struct {
	idx     int
	logEps  float64
	logRho  float64
	canHelp bool // logEps < 0, i.e. this path strictly reduces leakage
}

// GenerateMinimalTuples enumerates every minimal n (with Sum n_j <=
// nMax) such that prod_j eps_j^n_j <= tau, in lexicographic order on n.
//
// Enumeration walks paths in order of decreasing |log eps_j| (the
// cheapest leakage reducer first): at each level, shares are added to
// the current path until the leakage bound is met with every remaining
// path at zero — that partial vector is emitted as a candidate and the
// loop over this level's coordinate stops (growing it further would only
// produce a strict super-vector, never minimal). Before the cutoff is
// reached, each smaller value recurses into the next path, exploring
// combinations that rely on more than one path. Every candidate is
// re-verified for exact minimality (decrementing any positive coordinate
// must break feasibility) before being kept.
func (s *Strategy) GenerateMinimalTuples(nMax int, sigma, tau float64) ([]phase.Tuple, error) {
	m := len(s.Paths)
	weights := make([]pathWeight, m)
	for i, p := range s.Paths {
		logEps := math.Log(p.Eps)
		weights[i] = pathWeight{
			idx:     i,
			logEps:  logEps,
			logRho:  math.Log(p.Rho),
			canHelp: logEps < 0,
		}
	}
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		wa, wb := weights[order[a]], weights[order[b]]
		if wa.logEps != wb.logEps {
			return wa.logEps < wb.logEps // more negative (bigger |log eps|) first
		}
		return order[a] < order[b]
	})

	// A 1e-9 slack in log space keeps exact boundary cases such as
	// 0.1^2 == 0.01 feasible despite rounding in the logarithms.
	target := math.Log(tau) + 1e-9
	results := make(map[string]phase.Tuple)

	current := make(phase.SAV, m)
	var recurse func(level int, accLeak float64, used int)
	recurse = func(level int, accLeak float64, used int) {
		if level == m {
			return
		}
		pw := weights[order[level]]

		if accLeak <= target {
			s.emit(current, results, target, weights)
			return
		}

		if !pw.canHelp {
			// This path never reduces leakage (eps == 1); allocating to
			// it cannot help reach feasibility, so it stays at zero in
			// every minimal vector built from this branch.
			current[pw.idx] = 0
			recurse(level+1, accLeak, used)
			return
		}

		nMin := minSharesToSatisfy(accLeak, target, pw.logEps)
		budgetLeft := nMax - used
		upper := nMin
		if upper > budgetLeft {
			upper = budgetLeft
		}

		for nj := 0; nj <= upper; nj++ {
			if used+nj > nMax {
				break
			}
			current[pw.idx] = nj
			newLeak := leak(accLeak, nj, pw.logEps)
			if newLeak <= target {
				s.emit(current, results, target, weights)
				break // cutoff: larger nj here is strictly dominated
			}
			recurse(level+1, newLeak, used+nj)
		}
		current[pw.idx] = 0
	}
	recurse(0, 0, 0)

	tuples := make([]phase.Tuple, 0, len(results))
	for _, t := range results {
		tuples = append(tuples, t)
	}
	sort.Slice(tuples, func(a, b int) bool { return lexLess(tuples[a].N, tuples[b].N) })
	return tuples, nil
}

func leak(accLeak float64, nj int, logEps float64) float64 {
	if nj == 0 {
		return accLeak
	}
	if math.IsInf(logEps, -1) {
		return math.Inf(-1)
	}
	return accLeak + float64(nj)*logEps
}

func minSharesToSatisfy(accLeak, target, logEps float64) int {
	if accLeak <= target {
		return 0
	}
	if logEps == 0 {
		return 0 // cannot help; caller treats as infeasible-alone
	}
	if math.IsInf(logEps, -1) {
		return 1
	}
	needed := (target - accLeak) / logEps // both operands negative => positive
	n := int(math.Ceil(needed))
	if n < 1 {
		n = 1
	}
	return n
}

// feasible reports whether n satisfies the leakage bound sum n_j*logEps_j <= target.
func feasible(n phase.SAV, target float64, weights []pathWeight) bool {
	acc := 0.0
	for _, w := range weights {
		acc = leak(acc, n[w.idx], w.logEps)
		if math.IsInf(acc, -1) {
			return true
		}
	}
	return acc <= target
}

func (s *Strategy) emit(n phase.SAV, results map[string]phase.Tuple, target float64, weights []pathWeight) {
	if !feasible(n, target, weights) {
		return
	}
	for j, v := range n {
		if v == 0 {
			continue
		}
		dec := n.Clone()
		dec[j]--
		if feasible(dec, target, weights) {
			return // decrementing j keeps it feasible: n is not minimal
		}
	}

	key := n.String()
	if _, ok := results[key]; ok {
		return
	}

	logTau := 0.0
	logSigma := 0.0
	for _, w := range weights {
		if n[w.idx] == 0 {
			continue
		}
		logTau += float64(n[w.idx]) * w.logEps
		logSigma += float64(n[w.idx]) * w.logRho
	}

	results[key] = phase.Tuple{
		N:             n.Clone(),
		T:             n.Total(),
		SigmaAchieved: math.Exp(logSigma),
		TauAchieved:   math.Exp(logTau),
		Total:         n.Total(),
	}
}

func lexLess(a, b phase.SAV) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
