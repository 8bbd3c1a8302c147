package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"gametree/config"
	"gametree/experiments"
	"gametree/experiments/metrics"
	"gametree/render"
	"gametree/searcher"
	"gametree/server"
	"gametree/session"
	"gametree/tree"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	algorithm := flag.String("algorithm", config.Algorithm, "Search algorithm: minimax or alphabeta")
	depth := flag.Int("depth", config.Depth, "Depth of the tree, the root excluded")
	nodes := flag.String("nodes", "", "Comma separated node count per internal level, e.g. 2,4")
	leaves := flag.String("leaves", config.LeafValues, "Comma separated leaf values")
	serve := flag.Bool("serve", false, "Serve the HTTP and websocket API")
	addr := flag.String("addr", config.Addr, "Address to serve on")
	experiment := flag.Bool("experiment", false, "Compare minimax and alpha-beta on random trees")
	dot := flag.String("dot", "", "Write the evaluated tree as Graphviz DOT to this file")
	trace := flag.String("trace", "", "Write the evaluation trace as CSV under this directory")
	level := flag.String("log-level", config.LogLevel, "Log level")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}

	// Flags set explicitly win over the config file
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "algorithm":
			cfg.Algorithm = *algorithm
		case "depth":
			cfg.Tree.Depth = *depth
		case "nodes":
			counts, err := parseCounts(*nodes)
			if err != nil {
				flagErr = err
			}
			cfg.Tree.NodesPerLevel = counts
		case "leaves":
			cfg.Tree.LeafValues = *leaves
		case "addr":
			cfg.Server.Addr = *addr
		case "log-level":
			cfg.Log.Level = *level
		}
	})
	if flagErr == nil {
		flagErr = cfg.Validate()
	}
	if flagErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", flagErr)
		os.Exit(2)
	}

	setupLogger(cfg.Log)

	var err error
	switch {
	case *serve:
		err = runServer(cfg)
	case *experiment:
		err = runExperiment(cfg)
	default:
		err = runEvaluation(cfg, *dot, *trace)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed")
	}
}

func setupLogger(cfg config.LogConfig) {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func parseCounts(s string) ([]int, error) {
	var counts []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid node count %q", part)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func runEvaluation(cfg config.Config, dotPath, traceDir string) error {
	alg, err := cfg.ParsedAlgorithm()
	if err != nil {
		return err
	}
	gen, err := cfg.Tree.GenerateConfig()
	if err != nil {
		return err
	}
	t, err := tree.Generate(gen)
	if err != nil {
		return err
	}

	e := searcher.New(searcher.WithTrace(), searcher.WithMetrics(metrics.NewCollector()))
	report, err := e.Evaluate(t, alg)
	if err != nil {
		return err
	}

	if err := render.Text(os.Stdout, t); err != nil {
		return err
	}
	fmt.Printf("\n%s: root value %v, %d visited, %d pruned, %d cutoffs\n",
		alg, report.Value, report.Visited, report.Pruned, report.Cutoffs)

	if dotPath != "" {
		f, err := os.Create(dotPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dotPath, err)
		}
		defer f.Close()
		if err := render.DOT(f, t); err != nil {
			return err
		}
		log.Info().Msgf("wrote %s", dotPath)
	}

	if traceDir != "" {
		w, err := metrics.NewWriter(traceDir, "evaluation")
		if err != nil {
			return err
		}
		if err := w.WriteEvaluationRecords([]metrics.EvaluationRecord{{ID: 1, SearchMetric: report.Metric}}); err != nil {
			return err
		}
		steps := make([]metrics.StepRecord, len(report.Steps))
		for i, s := range report.Steps {
			steps[i] = s.Record(1)
		}
		if err := w.WriteStepRecords(steps); err != nil {
			return err
		}
		log.Info().Msgf("stored trace in %s", w.Dir())
	}
	return nil
}

func runServer(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	p := metrics.NewPrometheus(reg)

	sess := session.New(searcher.WithMetrics(p.Collector()))
	if gen, err := cfg.Tree.GenerateConfig(); err == nil {
		if err := sess.Draw(gen); err != nil {
			log.Warn().Err(err).Msg("failed to draw the configured tree")
		}
	}

	s := server.NewServer(sess, server.WithSpeed(cfg.Speed), server.WithGatherer(reg))
	return s.Start(ctx, cfg.Server.Addr)
}

func runExperiment(cfg config.Config) error {
	w, err := metrics.NewWriter(cfg.Experiment.Out, experiments.Name)
	if err != nil {
		return err
	}
	_, err = experiments.Run(experiments.Config{
		Trees:     cfg.Experiment.Trees,
		Depth:     cfg.Experiment.Depth,
		Branching: cfg.Experiment.Branching,
		Seed:      cfg.Experiment.Seed,
	}, w)
	if err != nil {
		return err
	}
	log.Info().Msgf("results stored in %s", w.Dir())
	return nil
}
