// Package phase2 implements the dropping-adversary, (N,t)-scheme
// strategy (spec §4.4.2): a SAV n is feasible iff the probability
// engine's threshold interval T(n) is non-empty, its canonical
// threshold is t* = min T(n), and enumeration proceeds breadth-first
// over SAV vectors by total N, with dominance pruning (no strict
// super-vector of a feasible SAV is explored further) and a
// concurrency-safe dedup set across the frontier (spec §5).
package phase2

import (
	"runtime"
	"sort"
	"sync"

	sherr "github.com/sharecast/sharecast/errors"
	"github.com/sharecast/sharecast/phase"
	"github.com/sharecast/sharecast/prob"
	"github.com/sharecast/sharecast/topology"
)

// Strategy enumerates minimal (N,t) SAV tuples over a fixed set of
// paths.
type Strategy struct {
	Paths  []topology.Path
	Engine *prob.Engine

	// BudgetExhausted is set after GenerateMinimalTuples returns if the
	// BFS frontier was still non-empty when n_max was reached: more
	// minimal tuples may exist beyond the configured budget (spec §4.4.3:
	// "BudgetExhausted only as an informational flag").
	BudgetExhausted bool
}

// New constructs a Phase II strategy over the given paths, using the
// provided renormalisation tolerance for the probability engine.
func New(paths []topology.Path, renormEpsilon float64) *Strategy {
	return &Strategy{Paths: paths, Engine: prob.NewEngine(renormEpsilon)}
}

func (s *Strategy) Kind() phase.Kind { return phase.KindPhaseII }

var _ phase.Strategy = (*Strategy)(nil)

// GenerateMinimalTuples runs the BFS described in spec §4.4.2, fanning
// the per-level frontier out across GOMAXPROCS workers (spec §5's
// "independent frontier vectors may be tested in parallel").
func (s *Strategy) GenerateMinimalTuples(nMax int, sigma, tau float64) ([]phase.Tuple, error) {
	m := len(s.Paths)
	s.BudgetExhausted = false

	rhos := make([]float64, m)
	epss := make([]float64, m)
	for i, p := range s.Paths {
		rhos[i] = p.Rho
		epss[i] = p.Eps
	}

	test := func(n phase.SAV) (prob.ThresholdInterval, phase.Tuple) {
		pB := s.Engine.Sum(n, rhos)
		pE := s.Engine.Sum(n, epss)
		interval := prob.ThresholdSearch(pB, pE, sigma, tau)
		if interval.Empty {
			return interval, phase.Tuple{}
		}
		tStar := interval.Low
		return interval, phase.Tuple{
			N:             n.Clone(),
			T:             tStar,
			SigmaAchieved: prob.TailGE(pB, tStar),
			TauAchieved:   prob.TailGE(pE, tStar),
			Total:         n.Total(),
		}
	}

	isFeasible := func(n phase.SAV) bool {
		interval, _ := test(n)
		return !interval.Empty
	}

	isMinimal := func(n phase.SAV) bool {
		for j, v := range n {
			if v == 0 {
				continue
			}
			dec := n.Clone()
			dec[j]--
			if isFeasible(dec) {
				return false
			}
		}
		return true
	}

	seen := newDedupSet()
	var results []phase.Tuple
	var resultsMu sync.Mutex

	frontier := []phase.SAV{make(phase.SAV, m)} // the zero vector, N=0
	seen.addIfAbsent(frontier[0].String())

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	for n := 1; n <= nMax; n++ {
		type unit struct {
			parent phase.SAV
			coord  int
		}
		var candidates []unit
		for _, parent := range frontier {
			for j := 0; j < m; j++ {
				child := parent.Clone()
				child[j]++
				if !seen.addIfAbsent(child.String()) {
					continue
				}
				candidates = append(candidates, unit{parent: parent, coord: j})
			}
		}

		var nextFrontier []phase.SAV
		var nextMu sync.Mutex

		jobs := make(chan unit, len(candidates))
		for _, u := range candidates {
			jobs <- u
		}
		close(jobs)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for u := range jobs {
					child := u.parent.Clone()
					child[u.coord]++

					interval, tup := test(child)
					if interval.Empty {
						nextMu.Lock()
						nextFrontier = append(nextFrontier, child)
						nextMu.Unlock()
						continue
					}
					if isMinimal(child) {
						resultsMu.Lock()
						results = append(results, tup)
						resultsMu.Unlock()
					}
					// Dominance pruning: child is feasible, so no strict
					// super-vector of it is explored further from here.
				}
			}()
		}
		wg.Wait()

		frontier = nextFrontier
		if len(frontier) == 0 {
			break
		}
		if n == nMax && len(frontier) > 0 {
			s.BudgetExhausted = true
		}
	}

	sort.Slice(results, func(a, b int) bool {
		if results[a].Total != results[b].Total {
			return results[a].Total < results[b].Total
		}
		return lexLess(results[a].N, results[b].N)
	})

	if len(results) == 0 {
		return nil, sherr.ErrInfeasibleParameters
	}
	return results, nil
}

func lexLess(a, b phase.SAV) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
