package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"gametree/experiments/metrics"
	"gametree/render"
	"gametree/searcher"
	"gametree/tree"

	"github.com/rs/zerolog/log"
)

var (
	ErrBusy   = errors.New("an evaluation is already running")
	ErrNoTree = errors.New("no tree has been drawn")
)

// Session owns at most one tree and serializes every write to it. Writes that
// arrive while another one is in progress fail with ErrBusy instead of
// queueing.
type Session struct {
	mu     sync.RWMutex
	tree   *tree.Tree
	engine *searcher.Engine
	runs   int
}

type Result struct {
	ID     int // Sequence number of the run within the session
	Report *searcher.Report
	View   View
}

// New creates an empty session. Options configure the engine used for every
// run; runs always record a trace and collect metrics.
func New(options ...searcher.Option) *Session {
	defaults := []searcher.Option{
		searcher.WithTrace(),
		searcher.WithMetrics(metrics.NewCollector()),
	}
	return &Session{
		engine: searcher.New(append(defaults, options...)...),
	}
}

// Draw replaces the current tree with a freshly generated one
func (s *Session) Draw(cfg tree.GenerateConfig) error {
	t, err := tree.Generate(cfg)
	if err != nil {
		return err
	}
	if !s.mu.TryLock() {
		return ErrBusy
	}
	defer s.mu.Unlock()

	s.tree = t
	log.Info().Msgf("drew tree with depth %d and %d nodes", t.Depth(), t.Len())
	return nil
}

func (s *Session) Clear() error {
	if !s.mu.TryLock() {
		return ErrBusy
	}
	defer s.mu.Unlock()

	s.tree = nil
	log.Info().Msg("cleared tree")
	return nil
}

// Connect adds an edge to the current tree
func (s *Session) Connect(parent, child tree.ID) error {
	if !s.mu.TryLock() {
		return ErrBusy
	}
	defer s.mu.Unlock()

	if s.tree == nil {
		return ErrNoTree
	}
	if err := s.tree.Connect(parent, child); err != nil {
		return err
	}
	s.tree.Reset()
	return nil
}

func (s *Session) Snapshot() (View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tree == nil {
		return View{}, ErrNoTree
	}
	return NewView(s.tree), nil
}

// DOT renders the current tree as a Graphviz digraph
func (s *Session) DOT() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tree == nil {
		return nil, ErrNoTree
	}
	var buf bytes.Buffer
	if err := render.DOT(&buf, s.tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate reports the shape problems of the current tree
func (s *Session) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tree == nil {
		return ErrNoTree
	}
	return s.tree.Validate()
}

// Run evaluates the current tree. If ctx is done by the time the run
// finishes, the result is discarded and the tree is left reset.
func (s *Session) Run(ctx context.Context, alg searcher.Algorithm) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	if s.tree == nil {
		return nil, ErrNoTree
	}
	if err := s.tree.Validate(); err != nil {
		log.Warn().Err(err).Msg("evaluating a malformed tree")
	}

	report, err := s.engine.Evaluate(s.tree, alg)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate tree: %w", err)
	}
	if err := ctx.Err(); err != nil {
		s.tree.Reset()
		return nil, err
	}

	s.runs++
	log.Info().Msgf("run %d: %s evaluated root to %v (%d visited, %d pruned)", s.runs, alg, report.Value, report.Visited, report.Pruned)
	return &Result{
		ID:     s.runs,
		Report: report,
		View:   NewView(s.tree),
	}, nil
}
