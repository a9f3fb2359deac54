// Package topology is the path model (spec §4.3): it takes a directed
// graph with per-node interception/drop parameters and per-edge
// bandwidth, enumerates simple sender-to-receiver paths, and derives each
// path's (epsilon, rho) — interception and delivery probability.
//
// Graph construction and traversal is delegated to
// github.com/katalvlaran/lvlath/core, the graph library retrieved
// alongside the teacher in this pack; building a from-scratch graph
// representation when a real one is already in the corpus would
// duplicate dependency surface the task exists to exercise. The DFS
// enumeration of simple paths over lvlath's Graph.NeighborIDs is ours:
// lvlath ships shortest-path and max-flow algorithms but no all-simple-
// paths enumerator.
package topology

import (
	"fmt"
	"sort"

	lvlath "github.com/katalvlaran/lvlath/core"
	sherr "github.com/sharecast/sharecast/errors"
)

// NodeParams is the per-node adversary model: PInt is the probability an
// intermediate node leaks a share to the adversary, Delta is the
// probability it drops a share. Sender and receiver are trusted: their
// implicit params are always (0, 0).
type NodeParams struct {
	PInt  float64
	Delta float64
}

// Edge is an ordered pair of node IDs, used as a capacity map key.
type Edge struct {
	From, To string
}

// Path is an ordered sequence of distinct nodes from sender to receiver with
// its derived interception probability Eps and delivery probability Rho
// (spec §3).
type Path struct {
	Nodes []string
	Eps   float64
	Rho   float64
}

// Topology is a value object: adjacency, sender/receiver, per-node
// params, and per-edge capacity, plus a lazily-computed, cached list of
// considered paths (spec §9, "Graph as value" — no cycles in the
// dependency graph of derived data).
type Topology struct {
	Adjacency map[string][]string
	Sender    string
	Receiver  string
	Params    map[string]NodeParams
	Capacity  map[Edge]int
	MaxPaths  int

	graph *lvlath.Graph
	paths []Path
}

// New validates and constructs a Topology. Missing node params default to
// (0, 0) per spec §6.
func New(adjacency map[string][]string, sender, receiver string, params map[string]NodeParams, capacity map[Edge]int, maxPaths int) (*Topology, error) {
	if sender == "" || receiver == "" {
		return nil, fmt.Errorf("topology: %w: sender and receiver must be set", sherr.ErrMalformedTopology)
	}
	if sender == receiver {
		return nil, fmt.Errorf("topology: %w: sender and receiver must differ", sherr.ErrMalformedTopology)
	}
	for e, c := range capacity {
		if c < 0 {
			return nil, fmt.Errorf("topology: %w: negative capacity on edge %v", sherr.ErrMalformedTopology, e)
		}
	}
	for node, p := range params {
		if p.PInt < 0 || p.PInt > 1 || p.Delta < 0 || p.Delta > 1 {
			return nil, fmt.Errorf("topology: %w: node %q has out-of-range probability", sherr.ErrMalformedTopology, node)
		}
	}
	if maxPaths <= 0 {
		maxPaths = 64
	}

	g := lvlath.NewGraph(lvlath.WithDirected(true))
	seen := map[string]bool{sender: true, receiver: true}
	if err := g.AddVertex(sender); err != nil {
		return nil, fmt.Errorf("topology: %w: %v", sherr.ErrMalformedTopology, err)
	}
	if err := g.AddVertex(receiver); err != nil {
		return nil, fmt.Errorf("topology: %w: %v", sherr.ErrMalformedTopology, err)
	}
	for from, tos := range adjacency {
		if !seen[from] {
			if err := g.AddVertex(from); err != nil {
				return nil, fmt.Errorf("topology: %w: %v", sherr.ErrMalformedTopology, err)
			}
			seen[from] = true
		}
		for _, to := range tos {
			if !seen[to] {
				if err := g.AddVertex(to); err != nil {
					return nil, fmt.Errorf("topology: %w: %v", sherr.ErrMalformedTopology, err)
				}
				seen[to] = true
			}
			if _, err := g.AddEdge(from, to, 0); err != nil {
				return nil, fmt.Errorf("topology: %w: edge %s->%s: %v", sherr.ErrMalformedTopology, from, to, err)
			}
		}
	}

	return &Topology{
		Adjacency: adjacency,
		Sender:    sender,
		Receiver:  receiver,
		Params:    params,
		Capacity:  capacity,
		MaxPaths:  maxPaths,
		graph:     g,
	}, nil
}

// paramsFor returns the node's params, defaulting to (0, 0) for the
// sender, receiver, or any node absent from Params.
func (t *Topology) paramsFor(node string) NodeParams {
	if node == t.Sender || node == t.Receiver {
		return NodeParams{}
	}
	return t.Params[node]
}

// Paths returns the memoized, ordered list of simple sender-to-receiver
// paths with their derived (Eps, Rho), computing them on first call via
// depth-first enumeration over the underlying graph, capped at MaxPaths
// (spec §9 Open Question: path enumeration bound is "all simple paths,
// capped at a documented bound" — this is that bound).
//
// Fails with ErrNoPaths if no sender-to-receiver path exists, or with
// ErrMalformedPath if path discovery surfaces a repeated node or places
// sender/receiver in an interior slot (both would indicate a bug in the
// traversal itself: the DFS marks the sender and every node on the
// current path as visited and stops at the receiver, so a correct walk
// produces neither).
func (t *Topology) Paths() ([]Path, error) {
	if t.paths != nil {
		return t.paths, nil
	}

	var found []Path
	visited := map[string]bool{t.Sender: true}
	stack := []string{t.Sender}

	var dfs func(node string) error
	dfs = func(node string) error {
		if len(found) >= t.MaxPaths {
			return nil
		}
		if node == t.Receiver {
			if err := t.validatePath(stack); err != nil {
				return err
			}
			found = append(found, t.derivePath(stack))
			return nil
		}
		neighbors, err := t.graph.NeighborIDs(node)
		if err != nil {
			return fmt.Errorf("topology: %w: %v", sherr.ErrMalformedPath, err)
		}
		sort.Strings(neighbors)
		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			visited[next] = true
			stack = append(stack, next)
			if err := dfs(next); err != nil {
				return err
			}
			stack = stack[:len(stack)-1]
			visited[next] = false
			if len(found) >= t.MaxPaths {
				return nil
			}
		}
		return nil
	}

	if err := dfs(t.Sender); err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, sherr.ErrNoPaths
	}

	t.paths = found
	return found, nil
}

func (t *Topology) validatePath(nodes []string) error {
	seen := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		if seen[n] {
			return fmt.Errorf("topology: %w: node %q repeats", sherr.ErrMalformedPath, n)
		}
		seen[n] = true
		if i != 0 && n == t.Sender {
			return fmt.Errorf("topology: %w: sender %q in interior slot", sherr.ErrMalformedPath, n)
		}
		if i != len(nodes)-1 && n == t.Receiver {
			return fmt.Errorf("topology: %w: receiver %q in interior slot", sherr.ErrMalformedPath, n)
		}
	}
	return nil
}

// derivePath computes (Eps, Rho) per spec §3:
//
//	eps = 1 - prod_v (1 - p_int(v))
//	rho = prod_v (1 - delta(v))
//
// over the interior nodes of the path (sender and receiver excluded,
// since both are trusted with p_int = delta = 0 and would not change the
// product).
func (t *Topology) derivePath(nodes []string) Path {
	nodesCopy := make([]string, len(nodes))
	copy(nodesCopy, nodes)

	notIntercepted := 1.0
	delivered := 1.0
	for _, n := range nodes {
		p := t.paramsFor(n)
		notIntercepted *= 1 - p.PInt
		delivered *= 1 - p.Delta
	}

	return Path{
		Nodes: nodesCopy,
		Eps:   1 - notIntercepted,
		Rho:   delivered,
	}
}

// Load computes load(e, n) = sum of n_j over paths P_j that traverse edge e,
// the number of shares a SAV n routes over e in one use (spec §4.5).
func Load(paths []Path, n []int, e Edge) int {
	total := 0
	for j, p := range paths {
		if j >= len(n) {
			break
		}
		for k := 0; k+1 < len(p.Nodes); k++ {
			if p.Nodes[k] == e.From && p.Nodes[k+1] == e.To {
				total += n[j]
				break
			}
		}
	}
	return total
}

// Edges returns every directed edge (u, v) traversed by at least one of
// the given paths, deduplicated and in first-seen order.
func Edges(paths []Path) []Edge {
	seen := make(map[Edge]bool)
	var out []Edge
	for _, p := range paths {
		for k := 0; k+1 < len(p.Nodes); k++ {
			e := Edge{From: p.Nodes[k], To: p.Nodes[k+1]}
			if !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}
