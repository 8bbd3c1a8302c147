package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gametree/searcher"
	"gametree/tree"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Defaults
const (
	Depth      = 3
	LeafValues = "3, 5, 2, 9, 1, 4, 6, 8"
	Algorithm  = "minimax"
	Speed      = 500 * time.Millisecond
	Addr       = ":8080"
	LogLevel   = "info"

	ExperimentTrees     = 100
	ExperimentDepth     = 4
	ExperimentBranching = 3
	ExperimentSeed      = 1
	ExperimentOut       = "experiments"
)

type Config struct {
	Tree       TreeConfig       `yaml:"tree"`
	Algorithm  string           `yaml:"algorithm"`
	Speed      time.Duration    `yaml:"speed"` // Delay between animation steps
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Experiment ExperimentConfig `yaml:"experiment"`
}

type TreeConfig struct {
	Depth         int    `yaml:"depth"`
	NodesPerLevel []int  `yaml:"nodes_per_level"`
	LeafValues    string `yaml:"leaf_values"` // Comma separated, as typed in the UI
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type ExperimentConfig struct {
	Trees     int    `yaml:"trees"`
	Depth     int    `yaml:"depth"`
	Branching int    `yaml:"branching"`
	Seed      uint64 `yaml:"seed"`
	Out       string `yaml:"out"`
}

func Default() Config {
	return Config{
		Tree: TreeConfig{
			Depth:         Depth,
			NodesPerLevel: []int{2, 4},
			LeafValues:    LeafValues,
		},
		Algorithm: Algorithm,
		Speed:     Speed,
		Server:    ServerConfig{Addr: Addr},
		Log:       LogConfig{Level: LogLevel, Pretty: true},
		Experiment: ExperimentConfig{
			Trees:     ExperimentTrees,
			Depth:     ExperimentDepth,
			Branching: ExperimentBranching,
			Seed:      ExperimentSeed,
			Out:       ExperimentOut,
		},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep
// their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Tree.Depth < 1 {
		errs = append(errs, fmt.Errorf("tree.depth must be at least 1, got %d", c.Tree.Depth))
	}
	if _, err := tree.ParseLeafValues(c.Tree.LeafValues); err != nil {
		errs = append(errs, fmt.Errorf("tree.leaf_values: %w", err))
	}
	if _, err := searcher.ParseAlgorithm(c.Algorithm); err != nil {
		errs = append(errs, fmt.Errorf("algorithm: %w", err))
	}
	if c.Speed < 0 {
		errs = append(errs, fmt.Errorf("speed must not be negative, got %s", c.Speed))
	}
	if c.Experiment.Trees < 1 || c.Experiment.Depth < 1 || c.Experiment.Branching < 1 {
		errs = append(errs, fmt.Errorf("experiment trees, depth and branching must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (c Config) ParsedAlgorithm() (searcher.Algorithm, error) {
	return searcher.ParseAlgorithm(c.Algorithm)
}

// GenerateConfig converts the tree section into generator input
func (t TreeConfig) GenerateConfig() (tree.GenerateConfig, error) {
	values, err := tree.ParseLeafValues(t.LeafValues)
	if err != nil {
		return tree.GenerateConfig{}, err
	}
	return tree.GenerateConfig{
		Depth:         t.Depth,
		NodesPerLevel: t.NodesPerLevel,
		LeafValues:    values,
	}, nil
}
