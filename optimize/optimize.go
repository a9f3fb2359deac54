// Package optimize is the throughput optimizer (spec §4.5): given the
// minimal SAV tuples from a phase strategy and per-edge bandwidth
// capacities, it chooses non-negative integer multiplicities maximising
// total throughput subject to every edge's capacity.
//
// The optimizer calls a pluggable ILP backend through a narrow
// capability (spec §9, "Solver abstraction"): add_var / add_constraint /
// set_objective / solve, modeled here as the single Solver.Solve method
// taking the already-built variable and constraint set, since this
// package is itself the only caller that ever builds one.
package optimize

import (
	"fmt"

	"github.com/sharecast/sharecast/config"
	sherr "github.com/sharecast/sharecast/errors"
	"github.com/sharecast/sharecast/phase"
	"github.com/sharecast/sharecast/topology"
)

// Variable is one candidate SAV tuple's multiplicity variable x_i, with
// its precomputed per-edge load.
type Variable struct {
	Tuple phase.Tuple
	Load  map[topology.Edge]int
}

// Constraint bounds total load on one edge.
type Constraint struct {
	Edge     topology.Edge
	Capacity int
}

// Status reports how a Solve call concluded.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
)

func (s Status) String() string {
	if s == StatusOptimal {
		return "Optimal"
	}
	return "Infeasible"
}

// Result is the optimizer output (spec §6): status, objective, the
// chosen multiplicity per variable, and the resulting per-edge load.
type Result struct {
	Status     Status
	Objective  int
	Allocation map[int]int // variable index -> multiplicity
	EdgeLoad   map[topology.Edge]int
}

// Solver is the narrow ILP backend capability.
type Solver interface {
	Solve(vars []Variable, cons []Constraint) (Result, error)
}

// BuildVariables computes the per-edge load for each tuple over the
// given paths, producing the Variable set Solve expects.
func BuildVariables(tuples []phase.Tuple, paths []topology.Path) []Variable {
	edges := topology.Edges(paths)
	vars := make([]Variable, len(tuples))
	for i, tup := range tuples {
		load := make(map[topology.Edge]int, len(edges))
		for _, e := range edges {
			l := topology.Load(paths, tup.N, e)
			if l > 0 {
				load[e] = l
			}
		}
		vars[i] = Variable{Tuple: tup, Load: load}
	}
	return vars
}

// BuildConstraints turns a capacity map into the Constraint set Solve
// expects, restricted to edges actually touched by the given variables.
func BuildConstraints(vars []Variable, capacity map[topology.Edge]int) []Constraint {
	touched := make(map[topology.Edge]bool)
	for _, v := range vars {
		for e := range v.Load {
			touched[e] = true
		}
	}
	cons := make([]Constraint, 0, len(touched))
	for e := range touched {
		cons = append(cons, Constraint{Edge: e, Capacity: capacity[e]})
	}
	return cons
}

// NewSolver resolves a config.Solver name to a concrete backend.
func NewSolver(name config.Solver) (Solver, error) {
	switch name {
	case config.SolverCBC, "":
		return &BranchAndBoundSolver{}, nil
	case config.SolverGurobi:
		return &GurobiSolver{}, nil
	default:
		return nil, fmt.Errorf("optimize: unrecognised solver %q", name)
	}
}

// Run optimizes the given tuples over the given topology's paths and
// capacities using the requested Solver.
func Run(solver Solver, tuples []phase.Tuple, paths []topology.Path, capacity map[topology.Edge]int) (Result, error) {
	if len(tuples) == 0 {
		return Result{}, sherr.ErrInfeasibleParameters
	}
	vars := BuildVariables(tuples, paths)
	cons := BuildConstraints(vars, capacity)
	return solver.Solve(vars, cons)
}
