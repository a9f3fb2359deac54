// Package simulate is the Monte-Carlo simulator (spec §4.6, component
// F): it cross-checks a phase strategy's analytic (sigma, tau) claim for
// one SAV tuple by actually splitting random secrets across the
// topology's paths, independently sampling each share's delivery and
// interception per trial, and counting how often reconstruction
// succeeds and how often the adversary accumulates enough shares to
// reconstruct as well.
//
// Trials are partitioned across workers the way the teacher fans work
// out over goroutines, via internal/workerpool; each partition draws
// from its own deterministic PRNG stream (internal/rng), so the
// aggregate reliability/breach estimate is reproducible for a given
// (seed, n_trials, workers) regardless of scheduling. field.Split itself
// still always draws its polynomial coefficients from crypto/rand (spec
// §5): the simulator reseeds only which shares are dropped or
// intercepted, since that sampling is what the reliability/breach
// statistics are actually estimating.
package simulate

import (
	"fmt"
	"math/big"
	"math/rand/v2"
	"runtime"

	sherr "github.com/sharecast/sharecast/errors"
	"github.com/sharecast/sharecast/field"
	"github.com/sharecast/sharecast/internal/rng"
	"github.com/sharecast/sharecast/internal/workerpool"
	"github.com/sharecast/sharecast/phase"
	"github.com/sharecast/sharecast/topology"
)

func defaultWorkers() int {
	w := runtime.GOMAXPROCS(0)
	if w < 1 {
		return 1
	}
	return w
}

// Config parameterises one simulation run.
type Config struct {
	Tuple   phase.Tuple
	Paths   []topology.Path
	Prime   *big.Int
	NTrials int
	Seed    int64

	// Workers bounds concurrency; 0 means GOMAXPROCS.
	Workers int
}

// Result is the simulator's aggregate output (spec §6).
type Result struct {
	Trials      int
	Successes   int // trials where >= t shares were delivered
	Breaches    int // trials where >= t shares were intercepted
	Reliability float64
	Breach      float64
}

// Run executes the simulation described in the package doc.
func Run(cfg Config) (Result, error) {
	if cfg.NTrials <= 0 {
		return Result{}, fmt.Errorf("simulate: n_trials must be positive, got %d", cfg.NTrials)
	}
	m := len(cfg.Tuple.N)
	if m != len(cfg.Paths) {
		return Result{}, fmt.Errorf("simulate: tuple has %d coordinates but topology has %d paths", m, len(cfg.Paths))
	}
	total := cfg.Tuple.Total
	if total == 0 {
		total = cfg.Tuple.N.Total()
	}
	if total == 0 || cfg.Tuple.T <= 0 {
		return Result{}, sherr.ErrInfeasibleParameters
	}

	workers := cfg.Workers
	partitions := partitionTrials(cfg.NTrials, workers)

	type job struct {
		index int
		count int
	}
	jobs := make([]job, len(partitions))
	for i, c := range partitions {
		jobs[i] = job{index: i, count: c}
	}

	partials := workerpool.Run(jobs, len(jobs), func(j job) partialResult {
		src := rng.ForPartition(cfg.Seed, j.index)
		return runPartition(cfg, src, j.count)
	})

	var agg partialResult
	for _, p := range partials {
		agg.successes += p.successes
		agg.breaches += p.breaches
	}

	return Result{
		Trials:      cfg.NTrials,
		Successes:   agg.successes,
		Breaches:    agg.breaches,
		Reliability: float64(agg.successes) / float64(cfg.NTrials),
		Breach:      float64(agg.breaches) / float64(cfg.NTrials),
	}, nil
}

type partialResult struct {
	successes int
	breaches  int
}

// runPartition runs count independent trials against the shared tuple
// and topology, drawing delivery/interception outcomes from src.
func runPartition(cfg Config, src *rand.Rand, count int) partialResult {
	n := cfg.Tuple.N
	t := cfg.Tuple.T
	total := cfg.Tuple.Total
	if total == 0 {
		total = n.Total()
	}

	// Fixed assignment of the flat 1..total share indices to paths, in
	// path order: path j gets n[j] consecutive indices.
	pathOf := make([]int, total)
	idx := 0
	for j, nj := range n {
		for k := 0; k < nj; k++ {
			pathOf[idx] = j
			idx++
		}
	}

	var out partialResult
	for trial := 0; trial < count; trial++ {
		secret, err := randFieldElement(src, cfg.Prime)
		if err != nil {
			continue // malformed prime; counted as neither success nor breach
		}
		shares, err := field.Split(secret, total, t, cfg.Prime)
		if err != nil {
			continue
		}

		delivered := make([]field.Share, 0, total)
		intercepted := 0
		for i, sh := range shares {
			j := pathOf[i]
			p := cfg.Paths[j]
			if src.Float64() < p.Rho {
				delivered = append(delivered, sh)
			}
			if src.Float64() < p.Eps {
				intercepted++
			}
		}

		if len(delivered) >= t {
			if recovered, err := field.Reconstruct(delivered[:t], t, cfg.Prime); err == nil && recovered.Cmp(secret) == 0 {
				out.successes++
			}
		}
		if intercepted >= t {
			out.breaches++
		}
	}
	return out
}

// randFieldElement draws a uniform element of [0, prime) from src, by
// rejection sampling over values of prime's bit length.
func randFieldElement(src *rand.Rand, prime *big.Int) (*big.Int, error) {
	if prime == nil || prime.Sign() <= 0 {
		return nil, fmt.Errorf("simulate: prime must be positive")
	}
	bitLen := prime.BitLen()
	buf := make([]byte, (bitLen+7)/8)
	mask := byte(0xFF >> (uint(len(buf))*8 - uint(bitLen)))
	for {
		for i := range buf {
			buf[i] = byte(src.Uint32())
		}
		buf[0] &= mask
		v := new(big.Int).SetBytes(buf)
		if v.Cmp(prime) < 0 {
			return v, nil
		}
	}
}

// partitionTrials splits n_trials as evenly as possible across workers
// (GOMAXPROCS if workers <= 0), front-loading the remainder.
func partitionTrials(nTrials, workers int) []int {
	if workers <= 0 {
		workers = defaultWorkers()
	}
	if workers > nTrials {
		workers = nTrials
	}
	if workers < 1 {
		workers = 1
	}
	base := nTrials / workers
	rem := nTrials % workers
	out := make([]int, workers)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}
