package searcher

import (
	"math"
	"testing"

	"gametree/experiments/metrics"
	"gametree/tree"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

/**
Tests the evaluation engine on generated trees:
- minimax: textbook value, exhaustive visit, no pruning
- alpha-beta: textbook cutoff, bounds, pruned subtrees, tie-break
- both: equivalence on random trees, determinism, reset between runs
- degenerate shapes: depth mismatch, childless internal node, missing score, no root
*/

func generate(t *testing.T, depth int, perLevel []int, leaves ...float64) *tree.Tree {
	t.Helper()
	tr, err := tree.Generate(tree.GenerateConfig{Depth: depth, NodesPerLevel: perLevel, LeafValues: leaves})
	require.NoError(t, err)
	return tr
}

func node(t *testing.T, tr *tree.Tree, id tree.ID) *tree.Node {
	t.Helper()
	n, ok := tr.Node(id)
	require.True(t, ok, "node %s should exist", id)
	return n
}

func pruned(tr *tree.Tree) []tree.ID {
	var ids []tree.ID
	for _, n := range tr.Nodes() {
		if n.Pruned {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func randomTree(t *testing.T, r *rand.Rand, depth, branching int) *tree.Tree {
	t.Helper()
	perLevel := make([]int, depth-1)
	size := 1
	for l := range perLevel {
		size *= branching
		perLevel[l] = size
	}
	leaves := make([]float64, size*branching)
	for i := range leaves {
		leaves[i] = float64(r.Intn(41) - 20)
	}
	return generate(t, depth, perLevel, leaves...)
}

func TestMinimax(t *testing.T) {
	t.Run("textbook two level tree", func(t *testing.T) {
		tr := generate(t, 2, []int{2}, 3, 5, 2, 9)

		report, err := New().Evaluate(tr, Minimax)
		require.NoError(t, err)

		require.Equal(t, 3.0, report.Value, "Root should be max(min(3,5), min(2,9))")
		require.Equal(t, tree.Some(3), node(t, tr, "node-0").Value)
		require.Equal(t, tree.Some(2), node(t, tr, "node-1").Value)
		require.Equal(t, tree.Some(3), node(t, tr, tree.RootID).Value)
		require.Equal(t, []tree.ID{"node-0", "node-2"}, report.Principal)
	})

	t.Run("visits every node and prunes none", func(t *testing.T) {
		tr := generate(t, 3, []int{2, 4}, 3, 1, 2, 0, 1, 0, 8, 9)

		report, err := New().Evaluate(tr, Minimax)
		require.NoError(t, err)

		require.Equal(t, tr.Len(), report.Visited)
		require.Zero(t, report.Pruned)
		for _, n := range tr.Nodes() {
			require.True(t, n.Value.Set, "node %s should have a value", n.ID)
			require.False(t, n.Pruned, "node %s should not be pruned", n.ID)
			require.False(t, n.Alpha.Set, "minimax should not write bounds")
			require.False(t, n.Beta.Set, "minimax should not write bounds")
		}
	})
}

func TestAlphaBeta(t *testing.T) {
	t.Run("textbook cutoff", func(t *testing.T) {
		tr := generate(t, 2, []int{2}, 3, 5, 2, 9)

		report, err := New().Evaluate(tr, AlphaBeta)
		require.NoError(t, err)

		require.Equal(t, 3.0, report.Value)
		require.Equal(t, []tree.ID{"node-5"}, pruned(tr), "Only the leaf 9 under B should be pruned")
		require.False(t, node(t, tr, "node-5").Value.Set, "Pruned node should have no value")

		root := node(t, tr, tree.RootID)
		require.Equal(t, tree.Some(3), root.Value)
		require.Equal(t, tree.Some(3), root.Alpha)
		require.Equal(t, tree.Some(math.Inf(1)), root.Beta)

		a := node(t, tr, "node-0")
		require.Equal(t, tree.Some(3), a.Value)
		require.Equal(t, tree.Some(math.Inf(-1)), a.Alpha)
		require.Equal(t, tree.Some(3), a.Beta)

		b := node(t, tr, "node-1")
		require.Equal(t, tree.Some(2), b.Value)
		require.Equal(t, tree.Some(3), b.Alpha)
		require.Equal(t, tree.Some(2), b.Beta)

		require.Equal(t, 6, report.Visited)
		require.Equal(t, 1, report.Pruned)
		require.Equal(t, 1, report.Cutoffs)
		require.Equal(t, []tree.ID{"node-0", "node-2"}, report.Principal)
	})

	t.Run("cutoff when beta equals alpha", func(t *testing.T) {
		tr := generate(t, 2, []int{2}, 3, 5, 3, 9)

		report, err := New().Evaluate(tr, AlphaBeta)
		require.NoError(t, err)

		require.Equal(t, 3.0, report.Value)
		require.Equal(t, 1, report.Cutoffs, "beta == alpha should cut off")
		require.Equal(t, []tree.ID{"node-5"}, pruned(tr))

		b := node(t, tr, "node-1")
		require.Equal(t, tree.Some(3), b.Value)
		require.Equal(t, tree.Some(3), b.Alpha)
		require.Equal(t, tree.Some(3), b.Beta)
		require.Equal(t, []tree.ID{"node-0", "node-2"}, report.Principal,
			"Equal value under B should not replace A")
	})

	t.Run("pruning a subtree marks every node in it", func(t *testing.T) {
		tr := generate(t, 3, []int{2, 4}, 3, 1, 2, 0, 1, 0, 8, 9)

		report, err := New().Evaluate(tr, AlphaBeta)
		require.NoError(t, err)

		require.Equal(t, 2.0, report.Value)
		require.Equal(t, []tree.ID{"node-5", "node-12", "node-13"}, pruned(tr))
		require.Equal(t, tree.Some(1), node(t, tr, "node-1").Value, "Node with the cutoff should keep its value")
		require.Equal(t, tree.Some(1), node(t, tr, "node-4").Value, "Visited sibling should not be pruned")
		require.False(t, node(t, tr, "node-4").Pruned)
	})

	t.Run("ties keep the first child and prune nothing", func(t *testing.T) {
		tr := generate(t, 2, []int{1}, 4, 4, 9)

		report, err := New().Evaluate(tr, AlphaBeta)
		require.NoError(t, err)

		require.Equal(t, 4.0, report.Value)
		require.Equal(t, []tree.ID{"node-0", "node-1"}, report.Principal,
			"First child reaching the best value should stay best")
		require.Empty(t, pruned(tr), "Equal values should not cause pruning")
	})

	t.Run("ties at a maximizing root", func(t *testing.T) {
		tr := generate(t, 1, nil, 5, 5, 3)

		report, err := New().Evaluate(tr, AlphaBeta)
		require.NoError(t, err)

		require.Equal(t, 5.0, report.Value)
		require.Equal(t, []tree.ID{"node-0"}, report.Principal)
		require.Empty(t, pruned(tr))
	})

	t.Run("root value matches minimax on random trees", func(t *testing.T) {
		r := rand.New(rand.NewSource(7))
		for i := 0; i < 200; i++ {
			depth := 1 + r.Intn(4)
			branching := 1 + r.Intn(3)

			tr := randomTree(t, r, depth, branching)
			minimax, err := New().Evaluate(tr, Minimax)
			require.NoError(t, err)
			alphaBeta, err := New().Evaluate(tr, AlphaBeta)
			require.NoError(t, err)

			require.Equal(t, minimax.Value, alphaBeta.Value, "tree %d (depth %d, branching %d)", i, depth, branching)
			require.LessOrEqual(t, alphaBeta.Visited, minimax.Visited, "Alpha-beta should never visit more nodes")
			require.Equal(t, tr.Len(), alphaBeta.Visited+alphaBeta.Pruned, "Every node is either visited or pruned")
		}
	})
}

func TestEvaluate(t *testing.T) {
	t.Run("repeated runs are identical", func(t *testing.T) {
		r := rand.New(rand.NewSource(11))
		tr := randomTree(t, r, 4, 3)

		for _, alg := range []Algorithm{Minimax, AlphaBeta} {
			first, err := New(WithTrace()).Evaluate(tr, alg)
			require.NoError(t, err)
			firstNodes := snapshot(tr)

			second, err := New(WithTrace()).Evaluate(tr, alg)
			require.NoError(t, err)

			require.Equal(t, firstNodes, snapshot(tr), "%s annotations should not change", alg)
			require.Equal(t, first.Steps, second.Steps, "%s trace should not change", alg)
		}
	})

	t.Run("reset clears a previous run", func(t *testing.T) {
		tr := generate(t, 2, []int{2}, 3, 5, 2, 9)

		_, err := New().Evaluate(tr, AlphaBeta)
		require.NoError(t, err)
		require.NotEmpty(t, pruned(tr))

		_, err = New().Evaluate(tr, Minimax)
		require.NoError(t, err)
		require.Empty(t, pruned(tr), "Minimax run should not inherit pruned flags")
		for _, n := range tr.Nodes() {
			require.False(t, n.Alpha.Set, "node %s should not keep alpha", n.ID)
			require.False(t, n.Beta.Set, "node %s should not keep beta", n.ID)
		}
	})

	t.Run("package level shorthand", func(t *testing.T) {
		tr := generate(t, 2, []int{2}, 3, 5, 2, 9)

		got, err := Evaluate(tr, AlphaBeta)
		require.NoError(t, err)
		require.Same(t, tr, got, "Evaluate should annotate the tree in place")
		require.Equal(t, tree.Some(3), node(t, got, tree.RootID).Value)
	})

	t.Run("node at the leaf depth is a leaf whatever its role", func(t *testing.T) {
		tr := tree.New(1)
		require.NoError(t, tr.AddNode(tree.Node{ID: tree.RootID, Role: tree.Max}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "a", Role: tree.Min, Score: tree.Some(7)}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "below", Role: tree.Leaf, Score: tree.Some(100)}))
		require.NoError(t, tr.Connect(tree.RootID, "a"))
		require.NoError(t, tr.Connect("a", "below"))

		for _, alg := range []Algorithm{Minimax, AlphaBeta} {
			report, err := New().Evaluate(tr, alg)
			require.NoError(t, err)
			require.Equal(t, 7.0, report.Value, "%s should read the stored value", alg)
			require.False(t, node(t, tr, "below").Value.Set, "%s should not descend past the leaf depth", alg)
		}
	})

	t.Run("childless internal node evaluates to zero", func(t *testing.T) {
		tr := tree.New(2)
		require.NoError(t, tr.AddNode(tree.Node{ID: tree.RootID, Role: tree.Max}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "empty", Role: tree.Min, Position: tree.Position{X: -1}}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "b", Role: tree.Min, Position: tree.Position{X: 1}}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "leaf", Role: tree.Leaf, Score: tree.Some(-4)}))
		require.NoError(t, tr.Connect(tree.RootID, "empty"))
		require.NoError(t, tr.Connect(tree.RootID, "b"))
		require.NoError(t, tr.Connect("b", "leaf"))

		for _, alg := range []Algorithm{Minimax, AlphaBeta} {
			report, err := New().Evaluate(tr, alg)
			require.NoError(t, err)
			require.Equal(t, 0.0, report.Value, "%s root should be max(0, -4)", alg)

			empty := node(t, tr, "empty")
			require.Equal(t, tree.Some(0), empty.Value)
			require.False(t, empty.Alpha.Set, "%s should leave bounds unset", alg)
		}
	})

	t.Run("leaf without a score counts as zero", func(t *testing.T) {
		tr := tree.New(1)
		require.NoError(t, tr.AddNode(tree.Node{ID: tree.RootID, Role: tree.Max}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "a", Role: tree.Leaf}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "b", Role: tree.Leaf, Score: tree.Some(math.NaN()), Position: tree.Position{X: 1}}))
		require.NoError(t, tr.Connect(tree.RootID, "a"))
		require.NoError(t, tr.Connect(tree.RootID, "b"))

		report, err := New().Evaluate(tr, Minimax)
		require.NoError(t, err)
		require.Equal(t, 0.0, report.Value)
		require.Equal(t, tree.Some(0), node(t, tr, "b").Value)
	})

	t.Run("tree without a root is rejected and left reset", func(t *testing.T) {
		tr := tree.New(1)
		require.NoError(t, tr.AddNode(tree.Node{ID: "a", Role: tree.Max}))
		require.NoError(t, tr.AddNode(tree.Node{ID: "b", Role: tree.Max}))
		node(t, tr, "a").Pruned = true

		_, err := New().Evaluate(tr, AlphaBeta)
		require.ErrorIs(t, err, ErrNoRoot)
		require.ErrorIs(t, err, tree.ErrMultipleRoots)
		require.False(t, node(t, tr, "a").Pruned, "Stale annotations should be cleared")
	})

	t.Run("unknown algorithm leaves the tree untouched", func(t *testing.T) {
		tr := generate(t, 1, nil, 1)
		_, err := New().Evaluate(tr, Algorithm(9))
		require.ErrorIs(t, err, ErrUnknownAlgorithm)
	})

	t.Run("nil tree panics", func(t *testing.T) {
		require.Panics(t, func() {
			_, _ = New().Evaluate(nil, Minimax)
		})
	})
}

func TestEngineMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	tr := generate(t, 2, []int{2}, 3, 5, 2, 9)

	report, err := New(WithMetrics(collector)).Evaluate(tr, AlphaBeta)
	require.NoError(t, err)

	require.Equal(t, "alphabeta", report.Metric.Algorithm)
	require.Equal(t, 6, report.Metric.Visited)
	require.Equal(t, 1, report.Metric.Pruned)
	require.Equal(t, 1, report.Metric.Cutoffs)
	require.Equal(t, 3.0, report.Metric.Value)
}

func TestTrace(t *testing.T) {
	tr := generate(t, 2, []int{2}, 3, 5, 2, 9)

	report, err := New(WithTrace()).Evaluate(tr, AlphaBeta)
	require.NoError(t, err)

	var kinds []StepKind
	var nodes []tree.ID
	for i, s := range report.Steps {
		require.Equal(t, i, s.Seq)
		kinds = append(kinds, s.Kind)
		nodes = append(nodes, s.Node)
	}
	require.Equal(t, []StepKind{
		Enter, Enter, Enter, LeafValue, Enter, LeafValue, Exit,
		Enter, Enter, LeafValue, Cutoff, Prune, Exit, Exit,
	}, kinds)
	require.Equal(t, []tree.ID{
		tree.RootID, "node-0", "node-2", "node-2", "node-3", "node-3", "node-0",
		"node-1", "node-4", "node-4", "node-1", "node-5", "node-1", tree.RootID,
	}, nodes)

	record := report.Steps[0].Record(1)
	require.Equal(t, "enter", record.Kind)
	require.Equal(t, "-∞", record.Alpha)
	require.Equal(t, "∞", record.Beta)

	t.Run("no trace unless asked", func(t *testing.T) {
		report, err := New().Evaluate(tr, AlphaBeta)
		require.NoError(t, err)
		require.Empty(t, report.Steps)
	})
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("minimax")
	require.NoError(t, err)
	require.Equal(t, Minimax, alg)

	alg, err = ParseAlgorithm("alphabeta")
	require.NoError(t, err)
	require.Equal(t, AlphaBeta, alg)

	_, err = ParseAlgorithm("negamax")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)

	var decoded Algorithm
	require.NoError(t, decoded.UnmarshalText([]byte("alpha-beta")))
	require.Equal(t, AlphaBeta, decoded)
}

type annotation struct {
	Value, Alpha, Beta tree.Optional
	Pruned             bool
}

func snapshot(tr *tree.Tree) map[tree.ID]annotation {
	out := make(map[tree.ID]annotation, tr.Len())
	for _, n := range tr.Nodes() {
		out[n.ID] = annotation{Value: n.Value, Alpha: n.Alpha, Beta: n.Beta, Pruned: n.Pruned}
	}
	return out
}
