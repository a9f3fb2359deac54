// Package config holds the recognised runtime options for the sharecast
// core (spec §6): the field prime, enumeration bound, the (sigma, tau)
// targets, the ILP backend choice, the simulator seed, and the
// convolution renormalisation threshold.
//
// No configuration/options library appears anywhere in the retrieved
// corpus (the teacher wires flags directly in main.go), so this follows
// the teacher's own plain-struct-with-validating-constructor idiom rather
// than reaching for an external config framework.
package config

import (
	"fmt"
	"math/big"
)

// Solver names the ILP backend requested for the throughput optimizer.
type Solver string

const (
	SolverCBC    Solver = "cbc"
	SolverGurobi Solver = "gurobi"
)

// DefaultPrime is the default Mersenne prime 2^127 - 1, matching spec §4.1.
var DefaultPrime = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))

// Config is the recognised option set from spec §6.
type Config struct {
	// Prime is the GF(p) modulus used by field sharing. Must be >= 2 and
	// prime; primality is taken on faith for caller-supplied primes (the
	// core does not run a primality test on every call), but the default
	// is a well-known Mersenne prime.
	Prime *big.Int

	// NMax bounds Sigma n_j during Phase I/II enumeration.
	NMax int

	// Sigma is the reliability lower bound in [0, 1].
	Sigma float64

	// Tau is the leakage upper bound in [0, 1].
	Tau float64

	// Solver selects the ILP backend for the throughput optimizer.
	Solver Solver

	// Seed drives the simulator's deterministic PRNG.
	Seed int64

	// RenormEpsilon is the convolution drift tolerance before the
	// probability engine renormalises and raises a NumericalWarning.
	RenormEpsilon float64

	// MaxPaths bounds the number of simple sender-to-receiver paths the
	// path model will enumerate (spec §9 Open Question, resolved: all
	// simple paths, capped at this bound).
	MaxPaths int
}

// Default returns the recognised defaults: the Mersenne prime 2^127-1,
// n_max unset (caller must supply a positive bound), solver "cbc", and
// renorm_epsilon 1e-12.
func Default() Config {
	return Config{
		Prime:         new(big.Int).Set(DefaultPrime),
		NMax:          0,
		Sigma:         0,
		Tau:           0,
		Solver:        SolverCBC,
		Seed:          0,
		RenormEpsilon: 1e-12,
		MaxPaths:      64,
	}
}

// Validate checks the option set against spec §6's recognised ranges.
func (c Config) Validate() error {
	if c.Prime == nil || c.Prime.Sign() <= 0 || c.Prime.Cmp(big.NewInt(2)) < 0 {
		return fmt.Errorf("config: prime must be >= 2, got %v", c.Prime)
	}
	if c.NMax <= 0 {
		return fmt.Errorf("config: n_max must be a positive integer, got %d", c.NMax)
	}
	if c.Sigma < 0 || c.Sigma > 1 {
		return fmt.Errorf("config: sigma must be in [0,1], got %v", c.Sigma)
	}
	if c.Tau < 0 || c.Tau > 1 {
		return fmt.Errorf("config: tau must be in [0,1], got %v", c.Tau)
	}
	if c.Solver != SolverCBC && c.Solver != SolverGurobi {
		return fmt.Errorf("config: unrecognised solver %q", c.Solver)
	}
	if c.RenormEpsilon <= 0 {
		return fmt.Errorf("config: renorm_epsilon must be positive, got %v", c.RenormEpsilon)
	}
	if c.MaxPaths <= 0 {
		return fmt.Errorf("config: max_paths must be positive, got %d", c.MaxPaths)
	}
	return nil
}
