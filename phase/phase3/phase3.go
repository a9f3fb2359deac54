// Package phase3 is the declared interface slot for the unpublished
// Phase III strategy (spec §1, §4.4.3): no algorithm is described in the
// source material, so Strategy implements phase.Strategy but its method
// always reports ErrNotImplemented. Nothing in this package is invented
// beyond the slot itself.
package phase3

import (
	sherr "github.com/sharecast/sharecast/errors"
	"github.com/sharecast/sharecast/phase"
)

// Strategy is the unimplemented third phase variant.
type Strategy struct{}

// New constructs the Phase III slot.
func New() *Strategy { return &Strategy{} }

func (s *Strategy) Kind() phase.Kind { return phase.KindPhaseIII }

// GenerateMinimalTuples always fails: Phase III has no published
// algorithm.
func (s *Strategy) GenerateMinimalTuples(nMax int, sigma, tau float64) ([]phase.Tuple, error) {
	return nil, sherr.ErrNotImplemented
}

var _ phase.Strategy = (*Strategy)(nil)
