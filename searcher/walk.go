package searcher

import (
	"math"

	"gametree/experiments/metrics"
	"gametree/tree"

	"github.com/rs/zerolog"
)

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

// run holds the state of one evaluation pass
type run struct {
	tree    *tree.Tree
	depth   int
	best    map[tree.ID]tree.ID
	trace   bool
	steps   []Step
	metrics metrics.Collector
	logger  zerolog.Logger

	visited int
	pruned  int
	cutoffs int
}

func (r *run) enter(n *tree.Node, depth int, alpha, beta tree.Optional) {
	r.visited++
	r.metrics.AddVisit()
	r.record(Step{Kind: Enter, Node: n.ID, Depth: depth, Alpha: alpha, Beta: beta})
}

// terminal evaluates a node at the configured leaf depth from its stored
// score, whatever its declared role
func (r *run) terminal(n *tree.Node, depth int) float64 {
	value := 0.0
	if n.Score.Finite() {
		value = n.Score.V
	} else {
		r.logger.Warn().Str("node", string(n.ID)).Msg("leaf has no numeric value, using 0")
	}
	n.Value = tree.Some(value)
	r.record(Step{Kind: LeafValue, Node: n.ID, Depth: depth, Value: n.Value})
	return value
}

// childless evaluates a non-terminal node without children to 0
func (r *run) childless(n *tree.Node, depth int) float64 {
	r.logger.Warn().Str("node", string(n.ID)).Int("depth", depth).Msg("internal node has no children, using 0")
	n.Value = tree.Some(0)
	r.record(Step{Kind: Exit, Node: n.ID, Depth: depth, Value: n.Value})
	return 0
}

func (r *run) exit(n *tree.Node, depth int) {
	r.record(Step{Kind: Exit, Node: n.ID, Depth: depth, Value: n.Value, Alpha: n.Alpha, Beta: n.Beta})
}

func (r *run) cutoff(n *tree.Node, depth int, alpha, beta float64) {
	r.cutoffs++
	r.metrics.AddCutoff()
	r.record(Step{Kind: Cutoff, Node: n.ID, Depth: depth, Alpha: tree.Some(alpha), Beta: tree.Some(beta)})
}

// prune marks a skipped sibling and everything below it
func (r *run) prune(n *tree.Node, depth int) {
	r.tree.WalkFrom(n.ID, depth, func(p *tree.Node, d int) bool {
		p.Pruned = true
		r.pruned++
		r.metrics.AddPrune()
		r.record(Step{Kind: Prune, Node: p.ID, Depth: d})
		return true
	})
}

func (r *run) record(step Step) {
	if !r.trace {
		return
	}
	step.Seq = len(r.steps)
	r.steps = append(r.steps, step)
	r.logger.Trace().
		Int("seq", step.Seq).
		Str("kind", step.Kind.String()).
		Str("node", string(step.Node)).
		Int("depth", step.Depth).
		Str("value", step.Value.String()).
		Str("alpha", step.Alpha.String()).
		Str("beta", step.Beta.String()).
		Msg("step")
}

// principal follows the recorded best children from id
func (r *run) principal(id tree.ID) []tree.ID {
	var path []tree.ID
	for {
		next, ok := r.best[id]
		if !ok {
			return path
		}
		path = append(path, next)
		id = next
	}
}
