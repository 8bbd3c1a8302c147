package searcher

import "gametree/tree"

// minimax visits every node below n. Children are visited in sibling order;
// ties keep the first child seen as the best one.
func (r *run) minimax(n *tree.Node, depth int, maximizing bool) float64 {
	r.enter(n, depth, tree.Optional{}, tree.Optional{})

	if depth == r.depth {
		return r.terminal(n, depth)
	}

	children := r.tree.Children(n.ID)
	if len(children) == 0 {
		return r.childless(n, depth)
	}

	value := posInf
	if maximizing {
		value = negInf
	}
	for _, child := range children {
		childValue := r.minimax(child, depth+1, !maximizing)
		if (maximizing && childValue > value) || (!maximizing && childValue < value) {
			value = childValue
			r.best[n.ID] = child.ID
		}
	}

	n.Value = tree.Some(value)
	r.exit(n, depth)
	return value
}
