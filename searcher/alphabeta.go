package searcher

import (
	"math"

	"gametree/tree"
)

// alphaBeta is minimax with alpha/beta bounds. After each child the bound of
// the side to move is tightened; once beta <= alpha the siblings not yet
// visited are marked pruned and the walk returns.
func (r *run) alphaBeta(n *tree.Node, depth int, maximizing bool, alpha, beta float64) float64 {
	r.enter(n, depth, tree.Some(alpha), tree.Some(beta))

	if depth == r.depth {
		return r.terminal(n, depth)
	}

	children := r.tree.Children(n.ID)
	if len(children) == 0 {
		return r.childless(n, depth)
	}

	best := posInf
	if maximizing {
		best = negInf
	}
	var bestChild *tree.Node

	for i, child := range children {
		childValue := r.alphaBeta(child, depth+1, !maximizing, alpha, beta)

		// Strictly better only: the first child reaching a value stays best
		if maximizing {
			if childValue > best {
				best, bestChild = childValue, child
			}
			alpha = math.Max(alpha, best)
		} else {
			if childValue < best {
				best, bestChild = childValue, child
			}
			beta = math.Min(beta, best)
		}

		if beta <= alpha {
			r.cutoff(n, depth, alpha, beta)
			for _, sibling := range children[i+1:] {
				r.prune(sibling, depth+1)
			}
			break
		}
	}

	if bestChild != nil {
		r.best[n.ID] = bestChild.ID
	}
	n.Value = tree.Some(best)
	n.Alpha = tree.Some(alpha)
	n.Beta = tree.Some(beta)
	r.exit(n, depth)
	return best
}
