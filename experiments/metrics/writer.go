package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type EvaluationRecord struct {
	ID int
	SearchMetric
}

type StepRecord struct {
	Evaluation int // EvaluationRecord.ID
	Seq        int
	Kind       string
	Node       string
	Depth      int
	Value      string
	Alpha      string
	Beta       string
}

type ExperimentRecord struct {
	Tree             int
	Depth            int
	Branching        int
	Leaves           int
	Value            float64
	MinimaxVisited   int
	AlphaBetaVisited int
	Pruned           int
	Cutoffs          int
}

type Writer struct {
	baseDir string
}

func NewWriter(root, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteEvaluationRecords(records []EvaluationRecord) error {
	header := []string{"id", "algorithm", "start_time", "duration", "visited", "pruned", "cutoffs", "value"}
	return w.write("evaluations.csv", header, len(records), func(i int) []string {
		r := records[i]
		return []string{
			strconv.Itoa(r.ID),
			r.Algorithm,
			r.StartTime.Format(time.RFC3339),
			r.Duration.String(),
			strconv.Itoa(r.Visited),
			strconv.Itoa(r.Pruned),
			strconv.Itoa(r.Cutoffs),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
		}
	})
}

func (w *Writer) WriteStepRecords(records []StepRecord) error {
	header := []string{"evaluation", "seq", "kind", "node", "depth", "value", "alpha", "beta"}
	return w.write("steps.csv", header, len(records), func(i int) []string {
		r := records[i]
		return []string{
			strconv.Itoa(r.Evaluation),
			strconv.Itoa(r.Seq),
			r.Kind,
			r.Node,
			strconv.Itoa(r.Depth),
			r.Value,
			r.Alpha,
			r.Beta,
		}
	})
}

func (w *Writer) WriteExperimentRecords(records []ExperimentRecord) error {
	header := []string{"tree", "depth", "branching", "leaves", "value", "minimax_visited", "alphabeta_visited", "pruned", "cutoffs"}
	return w.write("experiment_records.csv", header, len(records), func(i int) []string {
		r := records[i]
		return []string{
			strconv.Itoa(r.Tree),
			strconv.Itoa(r.Depth),
			strconv.Itoa(r.Branching),
			strconv.Itoa(r.Leaves),
			strconv.FormatFloat(r.Value, 'g', -1, 64),
			strconv.Itoa(r.MinimaxVisited),
			strconv.Itoa(r.AlphaBetaVisited),
			strconv.Itoa(r.Pruned),
			strconv.Itoa(r.Cutoffs),
		}
	})
}

func (w *Writer) write(name string, header []string, n int, row func(int) []string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}

	for i := 0; i < n; i++ {
		err = writer.Write(row(i))
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}
