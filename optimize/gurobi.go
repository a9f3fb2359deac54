package optimize

import sherr "github.com/sharecast/sharecast/errors"

// GurobiSolver is the commercial-backend slot named by spec §4.5's
// pluggable-solver-backend requirement ("cbc" vs "gurobi" in
// config.Solver). No Gurobi binding is available in this environment, so
// Solve always reports SolverError{Kind: SolverBackendFailure}: an
// honest failure rather than a fabricated binding.
type GurobiSolver struct{}

func (s *GurobiSolver) Solve(vars []Variable, cons []Constraint) (Result, error) {
	return Result{}, &sherr.SolverError{Kind: sherr.SolverBackendFailure, Msg: "gurobi backend is not available in this build"}
}

var _ Solver = (*GurobiSolver)(nil)
