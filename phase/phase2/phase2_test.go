package phase2_test

import (
	"errors"
	"testing"

	sherr "github.com/sharecast/sharecast/errors"
	"github.com/sharecast/sharecast/phase/phase2"
	"github.com/sharecast/sharecast/prob"
	"github.com/sharecast/sharecast/topology"
)

// TestScenarioS3 covers spec §8 Scenario S3: two parallel identical
// paths, eps=0.5, rho=0.5, sigma=0.6, tau=0.3. (1,1) at t=2 is
// infeasible, as the spec states — but since eps_j == rho_j for both
// paths, every SAV built from them has an identical reliability and
// leakage distribution, so TailGE(P_B,t) == TailGE(P_E,t) at every t:
// no threshold can clear sigma=0.6 while staying under tau=0.3
// (0.6 > 0.3), for any N. The strategy must report
// ErrInfeasibleParameters rather than a smallest feasible tuple.
func TestScenarioS3(t *testing.T) {
	paths := []topology.Path{{Eps: 0.5, Rho: 0.5}, {Eps: 0.5, Rho: 0.5}}
	strat := phase2.New(paths, 1e-12)

	tuples, err := strat.GenerateMinimalTuples(6, 0.6, 0.3)
	if !errors.Is(err, sherr.ErrInfeasibleParameters) {
		t.Fatalf("GenerateMinimalTuples: got (%+v, %v), want (nil, ErrInfeasibleParameters)", tuples, err)
	}
}

func TestEveryTupleIsMinimal(t *testing.T) {
	paths := []topology.Path{{Eps: 0.1, Rho: 0.9}, {Eps: 0.2, Rho: 0.8}, {Eps: 0.05, Rho: 0.95}}
	strat := phase2.New(paths, 1e-12)

	tuples, err := strat.GenerateMinimalTuples(12, 0.9, 0.1)
	if err != nil {
		t.Fatalf("GenerateMinimalTuples: %v", err)
	}
	if len(tuples) == 0 {
		t.Fatalf("expected at least one feasible tuple")
	}

	for _, tup := range tuples {
		for j, v := range tup.N {
			if v == 0 {
				continue
			}
			dec := append([]int(nil), tup.N...)
			dec[j]--
			if directFeasible(paths, dec, 0.9, 0.1) {
				t.Fatalf("tuple %+v is not minimal: decrementing coord %d is still feasible", tup, j)
			}
		}
	}
}

func directFeasible(paths []topology.Path, n []int, sigma, tau float64) bool {
	rhos := make([]float64, len(paths))
	epss := make([]float64, len(paths))
	for i, p := range paths {
		rhos[i] = p.Rho
		epss[i] = p.Eps
	}
	eng := prob.NewEngine(1e-12)
	pB := eng.Sum(n, rhos)
	pE := eng.Sum(n, epss)
	interval := prob.ThresholdSearch(pB, pE, sigma, tau)
	return !interval.Empty
}
