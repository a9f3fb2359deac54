// Command sharecast is the CLI driver for the core (spec §6): it loads a
// topology, runs a phase strategy to enumerate minimal share-allocation
// vectors, optimizes throughput over them, and optionally cross-checks
// one chosen tuple against the Monte-Carlo simulator. Following the
// teacher's own main.go: flags (not a framework), zerolog for structured
// per-layer logging, stdout reserved for the final NDJSON report.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sharecast/sharecast/config"
	"github.com/sharecast/sharecast/optimize"
	"github.com/sharecast/sharecast/phase"
	"github.com/sharecast/sharecast/phase/phase1"
	"github.com/sharecast/sharecast/phase/phase2"
	"github.com/sharecast/sharecast/simulate"
	"github.com/sharecast/sharecast/topology"
	"github.com/sharecast/sharecast/utils"
)

// topologyFile is the JSON wire shape for a topology input (spec §6):
// adjacency, sender, receiver, per-node (p_int, delta), and per-edge
// bandwidth. Missing node params default to (0, 0).
type topologyFile struct {
	Adjacency map[string][]string `json:"adjacency"`
	Sender    string              `json:"sender"`
	Receiver  string              `json:"receiver"`
	Params    map[string]struct {
		PInt  float64 `json:"p_int"`
		Delta float64 `json:"delta"`
	} `json:"params"`
	Capacity []struct {
		From string `json:"from"`
		To   string `json:"to"`
		Cap  int    `json:"cap"`
	} `json:"capacity"`
}

func loadTopology(path string, maxPaths int) (*topology.Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sharecast: opening topology file: %w", err)
	}
	defer f.Close()

	var tf topologyFile
	if err := json.NewDecoder(f).Decode(&tf); err != nil {
		return nil, fmt.Errorf("sharecast: decoding topology file: %w", err)
	}

	params := make(map[string]topology.NodeParams, len(tf.Params))
	for node, p := range tf.Params {
		params[node] = topology.NodeParams{PInt: p.PInt, Delta: p.Delta}
	}
	capacity := make(map[topology.Edge]int, len(tf.Capacity))
	for _, c := range tf.Capacity {
		capacity[topology.Edge{From: c.From, To: c.To}] = c.Cap
	}

	return topology.New(tf.Adjacency, tf.Sender, tf.Receiver, params, capacity, maxPaths)
}

func main() {
	topoPath := flag.String("topology", "", "path to a topology JSON file")
	phaseFlag := flag.String("phase", "2", "strategy to run: 1 (passive adversary) or 2 (dropping adversary)")
	sigma := flag.Float64("sigma", 0.95, "reliability lower bound")
	tau := flag.Float64("tau", 0.01, "leakage upper bound")
	nMax := flag.Int("n-max", 10, "share budget bound for enumeration")
	solverName := flag.String("solver", string(config.SolverCBC), "ILP backend: cbc or gurobi")
	seed := flag.Int64("seed", 0, "simulator PRNG seed")
	nTrials := flag.Int("n-trials", 0, "if > 0, run the simulator on the tuple with the largest total share count for this many trials")
	renormEpsilon := flag.Float64("renorm-epsilon", 1e-12, "convolution renormalisation tolerance")
	silent := flag.Bool("silent", false, "disable logs and print only the NDJSON report")
	flag.Parse()

	utils.SetupLogger()
	if *silent {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	cfg := config.Config{
		Prime:         config.DefaultPrime,
		NMax:          *nMax,
		Sigma:         *sigma,
		Tau:           *tau,
		Solver:        config.Solver(*solverName),
		Seed:          *seed,
		RenormEpsilon: *renormEpsilon,
		MaxPaths:      64,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Str("layer", "CLI").Msg("invalid configuration")
	}
	if *topoPath == "" {
		log.Fatal().Str("layer", "CLI").Msg("-topology is required")
	}

	topo, err := loadTopology(*topoPath, cfg.MaxPaths)
	if err != nil {
		log.Fatal().Err(err).Str("layer", "CLI").Msg("failed to load topology")
	}

	paths, err := topo.Paths()
	if err != nil {
		log.Fatal().Err(err).Str("layer", "TOPO").Msg("failed to derive paths")
	}
	log.Info().Str("layer", "TOPO").Int("paths", len(paths)).Msg("derived path probabilities")

	var strat phase.Strategy
	switch *phaseFlag {
	case "1":
		strat = phase1.New(paths)
	case "2":
		strat = phase2.New(paths, cfg.RenormEpsilon)
	default:
		log.Fatal().Str("layer", "CLI").Str("phase", *phaseFlag).Msg("unrecognised -phase, want 1 or 2")
	}

	tuples, err := strat.GenerateMinimalTuples(cfg.NMax, cfg.Sigma, cfg.Tau)
	if err != nil {
		log.Fatal().Err(err).Str("layer", "PHASE").Msg("enumeration failed")
	}
	log.Info().Str("layer", "PHASE").Int("tuples", len(tuples)).Msg("enumerated minimal SAV tuples")

	solver, err := optimize.NewSolver(cfg.Solver)
	if err != nil {
		log.Fatal().Err(err).Str("layer", "OPT").Msg("failed to construct solver")
	}
	result, err := optimize.Run(solver, tuples, paths, topo.Capacity)
	if err != nil {
		log.Fatal().Err(err).Str("layer", "OPT").Msg("optimizer failed")
	}
	log.Info().Str("layer", "OPT").Int("objective", result.Objective).Msg("optimizer finished")

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for i, tup := range tuples {
		mult := result.Allocation[i]
		log.Info().Str("layer", "OPT").Int("tuple_id", i).Int("multiplicity", mult).Msg("reporting tuple")
		line := map[string]any{
			"n":              []int(tup.N),
			"t":              tup.T,
			"total":          tup.Total,
			"sigma_achieved": tup.SigmaAchieved,
			"tau_achieved":   tup.TauAchieved,
			"multiplicity":   mult,
		}
		enc, _ := json.Marshal(line)
		fmt.Fprintln(w, string(enc))
	}

	if *nTrials > 0 && len(tuples) > 0 {
		best := bestTuple(tuples)
		log.Info().Str("layer", "SIM").Int("tuple_total", best.Total).Int("n_trials", *nTrials).Msg("running cross-check simulation")
		simResult, err := simulate.Run(simulate.Config{
			Tuple:   best,
			Paths:   paths,
			Prime:   cfg.Prime,
			NTrials: *nTrials,
			Seed:    *seed,
		})
		if err != nil {
			log.Fatal().Err(err).Str("layer", "SIM").Msg("simulation failed")
		}
		log.Info().Str("layer", "SIM").
			Float64("reliability", simResult.Reliability).
			Float64("confidentiality_breach", simResult.Breach).
			Msg("simulation finished")
		w.Flush()
		enc, _ := json.Marshal(map[string]any{
			"reliability":            simResult.Reliability,
			"confidentiality_breach": simResult.Breach,
			"n_trials":               simResult.Trials,
			"seed":                   *seed,
		})
		fmt.Println(string(enc))
	}
}

// bestTuple picks the tuple with the largest total share count (the first
// such tuple in report order); it does not consult the optimizer's
// allocation.
func bestTuple(tuples []phase.Tuple) phase.Tuple {
	best := tuples[0]
	for _, tup := range tuples[1:] {
		if tup.Total > best.Total {
			best = tup
		}
	}
	return best
}
