package tree

import (
	"cmp"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"
)

var (
	ErrUnknownRole     = errors.New("unknown role")
	ErrDuplicateNode   = errors.New("duplicate node")
	ErrUnknownNode     = errors.New("unknown node")
	ErrSelfLoop        = errors.New("node cannot be its own child")
	ErrDuplicateEdge   = errors.New("duplicate edge")
	ErrMultipleParents = errors.New("node already has a parent")

	ErrNoRoot                  = errors.New("tree has no root")
	ErrMultipleRoots           = errors.New("tree has more than one root")
	ErrUnreachable             = errors.New("node is not reachable from the root")
	ErrCycle                   = errors.New("tree contains a cycle")
	ErrLeafWithChildren        = errors.New("leaf node has children")
	ErrInternalWithoutChildren = errors.New("internal node has no children")
	ErrNonUniformDepth         = errors.New("leaves are not all at the configured depth")
	ErrMissingScore            = errors.New("leaf has no numeric value")
)

// Tree is a fixed-shape game tree. Only the result fields of its nodes change
// once it has been built.
type Tree struct {
	depth    int
	nodes    map[ID]*Node
	order    []ID
	children map[ID][]*Node
	parent   map[ID]ID
}

// New returns an empty tree whose leaves are expected at the given depth
func New(depth int) *Tree {
	return &Tree{
		depth:    depth,
		nodes:    make(map[ID]*Node),
		children: make(map[ID][]*Node),
		parent:   make(map[ID]ID),
	}
}

// Depth is the recursion depth at which nodes are evaluated as leaves
func (t *Tree) Depth() int {
	return t.depth
}

func (t *Tree) Len() int {
	return len(t.order)
}

func (t *Tree) AddNode(n Node) error {
	if _, ok := t.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	node := n
	node.reset()
	t.nodes[n.ID] = &node
	t.order = append(t.order, n.ID)
	return nil
}

// Connect adds the edge parent -> child. Children are kept sorted by their
// horizontal position; equal positions keep connection order.
func (t *Tree) Connect(parent, child ID) error {
	p, ok := t.nodes[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, parent)
	}
	c, ok := t.nodes[child]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, child)
	}
	if parent == child {
		return fmt.Errorf("%w: %s", ErrSelfLoop, child)
	}
	if existing, ok := t.parent[child]; ok {
		if existing == parent {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, parent, child)
		}
		return fmt.Errorf("%w: %s (parent %s)", ErrMultipleParents, child, existing)
	}

	t.parent[child] = parent
	kids := append(t.children[p.ID], c)
	slices.SortStableFunc(kids, func(a, b *Node) int {
		return cmp.Compare(a.Position.X, b.Position.X)
	})
	t.children[p.ID] = kids
	return nil
}

func (t *Tree) Node(id ID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Children returns the children of id in ascending sibling order. The slice
// must not be modified.
func (t *Tree) Children(id ID) []*Node {
	return t.children[id]
}

func (t *Tree) Parent(id ID) (ID, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// Nodes returns every node in insertion order
func (t *Tree) Nodes() []*Node {
	nodes := make([]*Node, 0, len(t.order))
	for _, id := range t.order {
		nodes = append(nodes, t.nodes[id])
	}
	return nodes
}

// Edges returns every edge, grouped by parent in insertion order and by child
// in sibling order
func (t *Tree) Edges() []Edge {
	edges := make([]Edge, 0, len(t.parent))
	for _, id := range t.order {
		for _, c := range t.children[id] {
			edges = append(edges, Edge{Parent: id, Child: c.ID})
		}
	}
	return edges
}

// Root returns the single node without a parent. When several parentless
// nodes exist and one of them is RootID, that one wins; the others are
// unreachable and reported by Validate.
func (t *Tree) Root() (*Node, error) {
	var roots []ID
	for _, id := range t.order {
		if _, ok := t.parent[id]; !ok {
			roots = append(roots, id)
		}
	}
	switch {
	case len(roots) == 0:
		return nil, ErrNoRoot
	case len(roots) == 1:
		return t.nodes[roots[0]], nil
	}
	if slices.Contains(roots, RootID) {
		return t.nodes[RootID], nil
	}
	return nil, fmt.Errorf("%w: %v", ErrMultipleRoots, roots)
}

// Reset clears the result fields of every node
func (t *Tree) Reset() {
	for _, n := range t.nodes {
		n.reset()
	}
}

// Walk visits the tree from the root in pre-order and sibling order. Returning
// false from fn skips the node's subtree.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) error {
	root, err := t.Root()
	if err != nil {
		return err
	}
	t.WalkFrom(root.ID, 0, fn)
	return nil
}

// WalkFrom is Walk starting at id, reported at the given depth
func (t *Tree) WalkFrom(id ID, depth int, fn func(n *Node, depth int) bool) {
	n, ok := t.nodes[id]
	if !ok {
		return
	}
	if !fn(n, depth) {
		return
	}
	for _, c := range t.children[id] {
		t.WalkFrom(c.ID, depth+1, fn)
	}
}

// Validate reports every shape violation found in the tree
func (t *Tree) Validate() error {
	root, err := t.Root()
	if err != nil {
		return err
	}

	var errs []error
	reached := make(map[ID]bool, len(t.nodes))
	t.WalkFrom(root.ID, 0, func(n *Node, depth int) bool {
		reached[n.ID] = true
		kids := len(t.children[n.ID])
		switch {
		case n.Role == Leaf && kids > 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrLeafWithChildren, n.ID))
		case n.Role != Leaf && kids == 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrInternalWithoutChildren, n.ID))
		}
		if n.Role == Leaf {
			if depth != t.depth {
				errs = append(errs, fmt.Errorf("%w: %s at depth %d, want %d", ErrNonUniformDepth, n.ID, depth, t.depth))
			}
			if !n.Score.Finite() {
				errs = append(errs, fmt.Errorf("%w: %s", ErrMissingScore, n.ID))
			}
		} else if depth >= t.depth {
			errs = append(errs, fmt.Errorf("%w: %s is %s at depth %d", ErrNonUniformDepth, n.ID, n.Role, depth))
		}
		return true
	})

	cycle := false
	for _, id := range t.order {
		if reached[id] {
			continue
		}
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnreachable, id))
		if !cycle && t.onCycle(id) {
			cycle = true
			errs = append(errs, fmt.Errorf("%w: through %s", ErrCycle, id))
		}
	}
	return errors.Join(errs...)
}

func (t *Tree) onCycle(id ID) bool {
	seen := map[ID]bool{id: true}
	for cur := id; ; {
		p, ok := t.parent[cur]
		if !ok {
			return false
		}
		if seen[p] {
			return true
		}
		seen[p] = true
		cur = p
	}
}
