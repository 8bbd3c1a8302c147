package searcher

import (
	"errors"
	"fmt"

	"gametree/experiments/metrics"
	"gametree/tree"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrNoRoot           = errors.New("cannot evaluate a tree without a root")
)

type Algorithm int

const (
	Minimax Algorithm = iota
	AlphaBeta
)

func (a Algorithm) String() string {
	switch a {
	case Minimax:
		return "minimax"
	case AlphaBeta:
		return "alphabeta"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "minimax":
		return Minimax, nil
	case "alphabeta", "alpha-beta":
		return AlphaBeta, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if a != Minimax && a != AlphaBeta {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(a))
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

type Option func(e *Engine)

func WithMetrics(collector metrics.Collector) Option {
	return func(e *Engine) {
		if collector != nil {
			e.metrics = collector
		}
	}
}

// WithTrace makes the engine record every step of the walk in the report
func WithTrace() Option {
	return func(e *Engine) {
		e.trace = true
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine evaluates trees. It keeps no state between runs besides its
// configuration, but a single Engine must not run two evaluations at once.
type Engine struct {
	metrics metrics.Collector
	trace   bool
	logger  zerolog.Logger
}

func New(options ...Option) *Engine {
	e := &Engine{ // Default values
		metrics: metrics.NewDummyCollector(),
		logger:  log.Logger,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

type Report struct {
	Tree      *tree.Tree
	Algorithm Algorithm
	Value     float64
	Principal []tree.ID // Best child chosen at each level, starting below the root
	Visited   int
	Pruned    int
	Cutoffs   int
	Steps     []Step
	Metric    metrics.SearchMetric
}

// Evaluate resets every result field of t and annotates it with a fresh
// evaluation using the default engine.
func Evaluate(t *tree.Tree, alg Algorithm) (*tree.Tree, error) {
	report, err := New().Evaluate(t, alg)
	if err != nil {
		return nil, err
	}
	return report.Tree, nil
}

// Evaluate resets every result field of t and annotates it with alg. On
// error the tree is left reset.
func (e *Engine) Evaluate(t *tree.Tree, alg Algorithm) (*Report, error) {
	if t == nil {
		panic("cannot evaluate a nil tree")
	}
	if alg != Minimax && alg != AlphaBeta {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(alg))
	}

	t.Reset()
	root, err := t.Root()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoRoot, err)
	}

	r := &run{
		tree:    t,
		depth:   t.Depth(),
		best:    make(map[tree.ID]tree.ID),
		trace:   e.trace,
		metrics: e.metrics,
		logger:  e.logger,
	}

	e.metrics.Start(alg.String())
	var value float64
	switch alg {
	case Minimax:
		value = r.minimax(root, 0, true)
	case AlphaBeta:
		value = r.alphaBeta(root, 0, true, negInf, posInf)
	}
	metric := e.metrics.Complete(value)

	report := &Report{
		Tree:      t,
		Algorithm: alg,
		Value:     value,
		Principal: r.principal(root.ID),
		Visited:   r.visited,
		Pruned:    r.pruned,
		Cutoffs:   r.cutoffs,
		Steps:     r.steps,
		Metric:    metric,
	}

	e.logger.Debug().
		Str("algorithm", alg.String()).
		Float64("value", value).
		Int("visited", r.visited).
		Int("pruned", r.pruned).
		Int("cutoffs", r.cutoffs).
		Msg("evaluation-complete")

	return report, nil
}
