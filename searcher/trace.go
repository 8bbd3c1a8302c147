package searcher

import (
	"fmt"

	"gametree/experiments/metrics"
	"gametree/tree"
)

type StepKind int

const (
	Enter     StepKind = iota // Node visited, with the bounds it was called with
	LeafValue                 // Terminal node read its score
	Exit                      // Node value (and bounds) written
	Cutoff                    // beta <= alpha at this node
	Prune                     // Node skipped by an ancestor's cutoff
)

func (k StepKind) String() string {
	switch k {
	case Enter:
		return "enter"
	case LeafValue:
		return "leaf"
	case Exit:
		return "exit"
	case Cutoff:
		return "cutoff"
	case Prune:
		return "prune"
	default:
		return fmt.Sprintf("step(%d)", int(k))
	}
}

func (k StepKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Step is one event of an evaluation walk, in the order it happened
type Step struct {
	Seq   int
	Kind  StepKind
	Node  tree.ID
	Depth int
	Value tree.Optional
	Alpha tree.Optional
	Beta  tree.Optional
}

func (s Step) Record(evaluation int) metrics.StepRecord {
	return metrics.StepRecord{
		Evaluation: evaluation,
		Seq:        s.Seq,
		Kind:       s.Kind.String(),
		Node:       string(s.Node),
		Depth:      s.Depth,
		Value:      s.Value.String(),
		Alpha:      s.Alpha.String(),
		Beta:       s.Beta.String(),
	}
}
