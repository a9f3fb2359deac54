package optimize

import (
	sherr "github.com/sharecast/sharecast/errors"
	"github.com/sharecast/sharecast/topology"
)

// BranchAndBoundSolver is the default ("cbc"-named, spec §4.5/§6) ILP
// backend: an exact depth-first branch-and-bound search over per-tuple
// multiplicities, grounded on the corpus's Hamiltonian-cycle solver
// (dedicated engine struct instead of closures, dense per-variable load
// buffer, deterministic branching order, admissible bound, sparse
// deadline checks). There each node fixes the next city and prunes
// against a lower bound on the remaining tour; here each node fixes one
// variable's multiplicity and prunes against an upper bound on the
// remaining variables' achievable sum.
//
// The bound is deliberately loose rather than tight: for variable i it
// is floor(min_e remainingCap(e) / load(e,i)), the most i alone could
// still contribute ignoring contention with variables still unfixed.
// Summing this per-variable cap over the unfixed variables overestimates
// what they could jointly achieve (they compete for the same capacity),
// which is exactly what admissibility requires: the bound never
// underestimates the true optimum, so pruning on it never discards it.
// A looser bound costs search nodes, not correctness.
type BranchAndBoundSolver struct {
	// MaxNodes bounds the search; exceeding it without a proof of
	// optimality yields SolverError{Kind: SolverTimeout}. Zero means the
	// package default (2,000,000).
	MaxNodes int
}

const defaultMaxNodes = 2_000_000

// bbEngine holds all search data, mirroring the corpus solver's
// dedicated-struct-over-closures shape: explicit dependencies, a
// predictable hot-path state, and easy per-field testing.
type bbEngine struct {
	nVars, nCons int
	load         []int // dense buffer: load[i*nCons+e]
	cap0         []int // starting capacity per constraint

	maxNodes int
	nodes    int
	timedOut bool

	remaining []int // current remaining capacity per constraint
	alloc     []int // current partial allocation

	best      int
	bestAlloc []int
}

func (e *bbEngine) loadAt(i, c int) int { return e.load[i*e.nCons+c] }

// perVarMax is the per-variable admissible cap given the current
// remaining capacities: the most variable i alone could still take.
func (e *bbEngine) perVarMax(i int) int {
	max := -1
	for c := 0; c < e.nCons; c++ {
		l := e.loadAt(i, c)
		if l == 0 {
			continue
		}
		m := e.remaining[c] / l
		if max == -1 || m < max {
			max = m
		}
	}
	if max < 0 {
		return 0
	}
	return max
}

// upperBoundFrom sums perVarMax over the unfixed tail [idx, nVars), the
// admissible relaxation bound described on BranchAndBoundSolver.
func (e *bbEngine) upperBoundFrom(idx int) int {
	bound := 0
	for i := idx; i < e.nVars; i++ {
		bound += e.perVarMax(i)
	}
	return bound
}

// deadlineCheck is a sparse node-count budget check, mirroring the
// corpus solver's rare-deadline-test pattern (there, wall-clock time;
// here, a node count, since this search has no external clock input).
func (e *bbEngine) deadlineCheck() bool {
	e.nodes++
	if e.nodes&1023 != 0 {
		return false
	}
	return e.nodes > e.maxNodes
}

// dfs performs the core search: deterministic descending-value
// branching on the current variable, pruned by the admissible bound.
func (e *bbEngine) dfs(idx, objSoFar int) {
	if e.timedOut {
		return
	}
	if e.deadlineCheck() {
		e.timedOut = true
		return
	}
	if idx == e.nVars {
		if objSoFar > e.best {
			e.best = objSoFar
			copy(e.bestAlloc, e.alloc)
		}
		return
	}
	if objSoFar+e.upperBoundFrom(idx) <= e.best {
		return // admissible bound proves this branch cannot beat best
	}

	maxHere := e.perVarMax(idx)
	for x := maxHere; x >= 0; x-- {
		e.alloc[idx] = x
		if x > 0 {
			for c := 0; c < e.nCons; c++ {
				l := e.loadAt(idx, c)
				if l > 0 {
					e.remaining[c] -= l * x
				}
			}
		}
		e.dfs(idx+1, objSoFar+x)
		if x > 0 {
			for c := 0; c < e.nCons; c++ {
				l := e.loadAt(idx, c)
				if l > 0 {
					e.remaining[c] += l * x
				}
			}
		}
		if e.timedOut {
			return
		}
	}
	e.alloc[idx] = 0
}

// Solve runs the branch-and-bound search. A variable touching no
// capacitated edge at all is unconstrained in every direction: the
// problem is then unbounded, reported as SolverError{Kind:
// SolverUnbounded} rather than silently capped, since an uncapped
// variable usually indicates a bug in capacity modelling (spec §6:
// "every real edge has finite bandwidth").
func (s *BranchAndBoundSolver) Solve(vars []Variable, cons []Constraint) (Result, error) {
	if len(vars) == 0 {
		return Result{Status: StatusOptimal, Objective: 0, Allocation: map[int]int{}, EdgeLoad: map[topology.Edge]int{}}, nil
	}

	maxNodes := s.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}

	edgeIdx := make(map[topology.Edge]int, len(cons))
	cap0 := make([]int, len(cons))
	for i, c := range cons {
		edgeIdx[c.Edge] = i
		cap0[i] = c.Capacity
	}

	load := make([]int, len(vars)*len(cons))
	for i, v := range vars {
		touched := false
		for e, l := range v.Load {
			if idx, ok := edgeIdx[e]; ok && l > 0 {
				load[i*len(cons)+idx] = l
				touched = true
			}
		}
		if !touched {
			return Result{}, &sherr.SolverError{Kind: sherr.SolverUnbounded, Msg: "variable has no capacity-bearing edge"}
		}
	}

	e := &bbEngine{
		nVars:     len(vars),
		nCons:     len(cons),
		load:      load,
		cap0:      cap0,
		maxNodes:  maxNodes,
		remaining: append([]int(nil), cap0...),
		alloc:     make([]int, len(vars)),
		bestAlloc: make([]int, len(vars)),
	}
	e.dfs(0, 0)

	if e.timedOut {
		return Result{}, &sherr.SolverError{Kind: sherr.SolverTimeout, Msg: "branch-and-bound exceeded node budget"}
	}

	edgeLoad := make(map[topology.Edge]int, len(cons))
	allocation := make(map[int]int, len(vars))
	for i, x := range e.bestAlloc {
		if x == 0 {
			continue
		}
		allocation[i] = x
		for c := 0; c < len(cons); c++ {
			if l := e.loadAt(i, c); l > 0 {
				edgeLoad[cons[c].Edge] += l * x
			}
		}
	}

	return Result{
		Status:     StatusOptimal,
		Objective:  e.best,
		Allocation: allocation,
		EdgeLoad:   edgeLoad,
	}, nil
}

var _ Solver = (*BranchAndBoundSolver)(nil)
