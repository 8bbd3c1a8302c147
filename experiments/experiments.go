package experiments

import (
	"errors"
	"fmt"
	"runtime"

	"gametree/experiments/metrics"
	"gametree/searcher"
	"gametree/tree"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidConfig = errors.New("experiment trees, depth and branching must be positive")
	ErrValueMismatch = errors.New("minimax and alpha-beta disagree on the root value")
)

const (
	Name     = "pruning"
	MinScore = -50
	MaxScore = 50
)

type Config struct {
	Trees     int
	Depth     int
	Branching int
	Seed      uint64
	Workers   int // Defaults to the number of CPUs
}

// Result holds one row per tree plus one evaluation record per algorithm run
type Result struct {
	Trees       []metrics.ExperimentRecord
	Evaluations []metrics.EvaluationRecord
}

// Run evaluates cfg.Trees random uniform trees with both algorithms and
// compares the work done. The trees only depend on cfg.Seed. If w is not nil
// the records are stored as CSV.
func Run(cfg Config, w *metrics.Writer) (*Result, error) {
	if cfg.Trees < 1 || cfg.Depth < 1 || cfg.Branching < 1 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidConfig, cfg)
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	log.Info().Msgf("starting %s experiment with %d trees of depth %d and branching %d...", Name, cfg.Trees, cfg.Depth, cfg.Branching)

	// Generate up front so the trees do not depend on scheduling
	rng := rand.New(rand.NewSource(cfg.Seed))
	gens := make([]tree.GenerateConfig, cfg.Trees)
	for i := range gens {
		gens[i] = Uniform(rng, cfg.Depth, cfg.Branching)
	}

	result := &Result{
		Trees:       make([]metrics.ExperimentRecord, cfg.Trees),
		Evaluations: make([]metrics.EvaluationRecord, 2*cfg.Trees),
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, gen := range gens {
		i, gen := i, gen
		g.Go(func() error {
			record, evals, err := runTree(i+1, gen)
			if err != nil {
				return fmt.Errorf("tree %d: %w", i+1, err)
			}
			result.Trees[i] = record
			evals[0].ID = 2*i + 1
			evals[1].ID = 2*i + 2
			result.Evaluations[2*i] = evals[0]
			result.Evaluations[2*i+1] = evals[1]
			log.Debug().Msgf("completed tree %d of %d with value %v", i+1, cfg.Trees, record.Value)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().Msgf("completed %s experiment", Name)
	summarize(result.Trees)

	if w == nil {
		return result, nil
	}
	if err := w.WriteExperimentRecords(result.Trees); err != nil {
		return nil, fmt.Errorf("failed to write experiment records: %w", err)
	}
	log.Info().Msg("stored experiment records")
	if err := w.WriteEvaluationRecords(result.Evaluations); err != nil {
		return nil, fmt.Errorf("failed to write evaluation records: %w", err)
	}
	log.Info().Msg("stored evaluation records")
	return result, nil
}

func runTree(id int, gen tree.GenerateConfig) (metrics.ExperimentRecord, [2]metrics.EvaluationRecord, error) {
	var evals [2]metrics.EvaluationRecord

	t, err := tree.Generate(gen)
	if err != nil {
		return metrics.ExperimentRecord{}, evals, err
	}
	e := searcher.New(searcher.WithMetrics(metrics.NewCollector()))

	mm, err := e.Evaluate(t, searcher.Minimax)
	if err != nil {
		return metrics.ExperimentRecord{}, evals, err
	}
	evals[0] = metrics.EvaluationRecord{SearchMetric: mm.Metric}

	ab, err := e.Evaluate(t, searcher.AlphaBeta)
	if err != nil {
		return metrics.ExperimentRecord{}, evals, err
	}
	evals[1] = metrics.EvaluationRecord{SearchMetric: ab.Metric}

	if mm.Value != ab.Value {
		return metrics.ExperimentRecord{}, evals, fmt.Errorf("%w: %v != %v", ErrValueMismatch, mm.Value, ab.Value)
	}

	return metrics.ExperimentRecord{
		Tree:             id,
		Depth:            gen.Depth,
		Branching:        gen.NodesPerLevel[0],
		Leaves:           len(gen.LeafValues),
		Value:            ab.Value,
		MinimaxVisited:   mm.Visited,
		AlphaBetaVisited: ab.Visited,
		Pruned:           ab.Pruned,
		Cutoffs:          ab.Cutoffs,
	}, evals, nil
}

// Uniform describes a complete tree where every internal node has branching
// children and leaves hold integer scores in [MinScore, MaxScore].
func Uniform(rng *rand.Rand, depth, branching int) tree.GenerateConfig {
	cfg := tree.GenerateConfig{Depth: depth}
	size := branching
	for l := 0; l < depth-1; l++ {
		cfg.NodesPerLevel = append(cfg.NodesPerLevel, size)
		size *= branching
	}
	if len(cfg.NodesPerLevel) == 0 {
		cfg.NodesPerLevel = []int{branching}
	}
	cfg.LeafValues = make([]float64, size)
	for i := range cfg.LeafValues {
		cfg.LeafValues[i] = float64(MinScore + rng.Intn(MaxScore-MinScore+1))
	}
	return cfg
}

func summarize(records []metrics.ExperimentRecord) {
	var minimax, alphaBeta, pruned int
	for _, r := range records {
		minimax += r.MinimaxVisited
		alphaBeta += r.AlphaBetaVisited
		pruned += r.Pruned
	}
	saved := 0.0
	if minimax > 0 {
		saved = 100 * float64(minimax-alphaBeta) / float64(minimax)
	}
	log.Info().
		Int("minimax_visited", minimax).
		Int("alphabeta_visited", alphaBeta).
		Int("pruned", pruned).
		Msgf("alpha-beta visited %.1f%% fewer nodes", saved)
}
