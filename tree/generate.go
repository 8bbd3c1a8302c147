package tree

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidDepth         = errors.New("depth must be at least 1")
	ErrNoLeaves             = errors.New("at least one leaf value is required")
	ErrInsufficientChildren = errors.New("level has fewer nodes than its parent level")
	ErrInvalidLeafValue     = errors.New("leaf values must be valid numbers")
)

const (
	DefaultNodesPerLevel = 2

	levelSpacing = 100.0
	nodeSpacing  = 200.0
)

type GenerateConfig struct {
	Depth         int       `json:"depth" yaml:"depth"`
	NodesPerLevel []int     `json:"nodes_per_level" yaml:"nodes_per_level"`
	LeafValues    []float64 `json:"leaf_values" yaml:"-"`
	// Manual places the nodes without edges, leaving them to be connected
	// one by one
	Manual bool `json:"manual" yaml:"manual"`
}

// LevelSize returns the configured node count for internal level l (0-based,
// the root excluded)
func (c GenerateConfig) LevelSize(l int) int {
	if l < len(c.NodesPerLevel) && c.NodesPerLevel[l] > 0 {
		return c.NodesPerLevel[l]
	}
	return DefaultNodesPerLevel
}

// Generate lays out a tree level by level: the MAX root, Depth-1 internal
// levels alternating MIN/MAX, and one leaf per leaf value at depth Depth.
// Each level is split over the level above it contiguously, earlier parents
// taking the remainder.
func Generate(cfg GenerateConfig) (*Tree, error) {
	if cfg.Depth < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDepth, cfg.Depth)
	}
	if len(cfg.LeafValues) == 0 {
		return nil, ErrNoLeaves
	}
	for i, v := range cfg.LeafValues {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is %v", ErrInvalidLeafValue, i+1, v)
		}
	}

	t := New(cfg.Depth)
	_ = t.AddNode(Node{
		ID:       RootID,
		Role:     Max,
		Position: Position{X: 0, Y: -levelSpacing},
	})

	nextID := 0
	newID := func() ID {
		id := ID(fmt.Sprintf("node-%d", nextID))
		nextID++
		return id
	}

	parents := []ID{RootID}
	for l := 0; l < cfg.Depth-1; l++ {
		n := cfg.LevelSize(l)
		level := make([]ID, n)
		for i := range level {
			level[i] = newID()
			_ = t.AddNode(Node{
				ID:       level[i],
				Role:     RoleAt(l + 1),
				Position: layout(i, n, l),
			})
		}
		if err := t.spread(cfg.Manual, parents, level); err != nil {
			return nil, fmt.Errorf("level %d: %w", l+1, err)
		}
		parents = level
	}

	n := len(cfg.LeafValues)
	leaves := make([]ID, n)
	for i, v := range cfg.LeafValues {
		leaves[i] = newID()
		_ = t.AddNode(Node{
			ID:       leaves[i],
			Role:     Leaf,
			Position: layout(i, n, cfg.Depth-1),
			Score:    Some(v),
		})
	}
	if err := t.spread(cfg.Manual, parents, leaves); err != nil {
		return nil, fmt.Errorf("leaf level: %w", err)
	}

	return t, nil
}

func layout(i, n, level int) Position {
	return Position{
		X: float64(i)*nodeSpacing - float64(n)*nodeSpacing/4,
		Y: float64(level) * levelSpacing,
	}
}

func (t *Tree) spread(manual bool, parents, children []ID) error {
	if manual {
		return nil
	}
	if len(children) < len(parents) {
		return fmt.Errorf("%w: %d nodes under %d parents", ErrInsufficientChildren, len(children), len(parents))
	}
	base := len(children) / len(parents)
	extra := len(children) % len(parents)
	next := 0
	for i, p := range parents {
		count := base
		if i < extra {
			count++
		}
		for _, c := range children[next : next+count] {
			if err := t.Connect(p, c); err != nil {
				return err
			}
		}
		next += count
	}
	return nil
}

// ParseLeafValues reads a comma separated list of numbers as typed by a user
func ParseLeafValues(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []float64{}, nil
	}
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is %q", ErrInvalidLeafValue, i+1, part)
		}
		values = append(values, v)
	}
	return values, nil
}
