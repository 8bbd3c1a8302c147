package session

import (
	"gametree/render"
	"gametree/searcher"
	"gametree/tree"
)

// View is a read-only copy of a tree and its annotations, safe to hand to
// another goroutine or encode as JSON
type View struct {
	Depth int        `json:"depth"`
	Root  string     `json:"root,omitempty"`
	Nodes []NodeView `json:"nodes"`
	Edges []EdgeView `json:"edges"`
}

type NodeView struct {
	ID     string   `json:"id"`
	Role   string   `json:"role"`
	X      float64  `json:"x"`
	Y      float64  `json:"y"`
	Label  string   `json:"label"`
	Score  *float64 `json:"score,omitempty"`
	Value  string   `json:"value,omitempty"`
	Alpha  string   `json:"alpha,omitempty"`
	Beta   string   `json:"beta,omitempty"`
	Pruned bool     `json:"pruned"`
}

type EdgeView struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

type ReportView struct {
	Algorithm string     `json:"algorithm"`
	Value     float64    `json:"value"`
	Principal []string   `json:"principal"`
	Visited   int        `json:"visited"`
	Pruned    int        `json:"pruned"`
	Cutoffs   int        `json:"cutoffs"`
	Duration  string     `json:"duration"`
	Steps     []StepView `json:"steps,omitempty"`
}

type StepView struct {
	Seq   int    `json:"seq"`
	Kind  string `json:"kind"`
	Node  string `json:"node"`
	Depth int    `json:"depth"`
	Value string `json:"value,omitempty"`
	Alpha string `json:"alpha,omitempty"`
	Beta  string `json:"beta,omitempty"`
}

func NewView(t *tree.Tree) View {
	v := View{
		Depth: t.Depth(),
		Nodes: []NodeView{},
		Edges: []EdgeView{},
	}
	if root, err := t.Root(); err == nil {
		v.Root = string(root.ID)
	}
	for _, n := range t.Nodes() {
		nv := NodeView{
			ID:     string(n.ID),
			Role:   n.Role.String(),
			X:      n.Position.X,
			Y:      n.Position.Y,
			Label:  render.Label(n),
			Value:  n.Value.String(),
			Alpha:  n.Alpha.String(),
			Beta:   n.Beta.String(),
			Pruned: n.Pruned,
		}
		if n.Score.Finite() {
			score := n.Score.V
			nv.Score = &score
		}
		v.Nodes = append(v.Nodes, nv)
	}
	for _, e := range t.Edges() {
		v.Edges = append(v.Edges, EdgeView{Parent: string(e.Parent), Child: string(e.Child)})
	}
	return v
}

func NewReportView(r *searcher.Report) ReportView {
	v := ReportView{
		Algorithm: r.Algorithm.String(),
		Value:     r.Value,
		Principal: []string{},
		Visited:   r.Visited,
		Pruned:    r.Pruned,
		Cutoffs:   r.Cutoffs,
		Duration:  r.Metric.Duration.String(),
	}
	for _, id := range r.Principal {
		v.Principal = append(v.Principal, string(id))
	}
	for _, s := range r.Steps {
		v.Steps = append(v.Steps, NewStepView(s))
	}
	return v
}

func NewStepView(s searcher.Step) StepView {
	return StepView{
		Seq:   s.Seq,
		Kind:  s.Kind.String(),
		Node:  string(s.Node),
		Depth: s.Depth,
		Value: s.Value.String(),
		Alpha: s.Alpha.String(),
		Beta:  s.Beta.String(),
	}
}
