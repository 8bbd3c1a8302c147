// Package render turns an evaluated tree into something a person can read:
// node labels, a Graphviz digraph and an indented outline.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gametree/tree"
)

const (
	PrunedLabel  = "pruned"
	PendingLabel = "pending"
)

// Label is what a node shows: pruned marker, computed value, leaf score, or
// pending when nothing has been computed yet
func Label(n *tree.Node) string {
	switch {
	case n.Pruned:
		return PrunedLabel
	case n.Value.Set:
		return n.Value.String()
	case n.Role == tree.Leaf && n.Score.Set:
		return n.Score.String()
	}
	return PendingLabel
}

// Bounds returns the "α: a β: b" annotation, empty when the node has none
func Bounds(n *tree.Node) string {
	var parts []string
	if n.Alpha.Set {
		parts = append(parts, "α: "+n.Alpha.String())
	}
	if n.Beta.Set {
		parts = append(parts, "β: "+n.Beta.String())
	}
	return strings.Join(parts, " ")
}

// DOT writes the tree as a Graphviz digraph. Pruned nodes are dashed and
// greyed out.
func DOT(w io.Writer, t *tree.Tree) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph {")
	fmt.Fprintln(bw, "  node [fontname=\"Arial\"];")

	for _, n := range t.Nodes() {
		label := Label(n)
		if b := Bounds(n); b != "" {
			label += "\\n" + b
		}
		attrs := []string{
			fmt.Sprintf(`label="%s"`, strings.ReplaceAll(label, `"`, `\"`)),
			"shape=" + shape(n.Role),
		}
		if n.Pruned {
			attrs = append(attrs, "style=dashed", "color=gray", "fontcolor=gray")
		}
		fmt.Fprintf(bw, "  %q [%s];\n", string(n.ID), strings.Join(attrs, ", "))
	}

	fmt.Fprintln(bw)
	for _, e := range t.Edges() {
		child, _ := t.Node(e.Child)
		if child != nil && child.Pruned {
			fmt.Fprintf(bw, "  %q -> %q [style=dashed, color=gray];\n", string(e.Parent), string(e.Child))
			continue
		}
		fmt.Fprintf(bw, "  %q -> %q;\n", string(e.Parent), string(e.Child))
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func shape(r tree.Role) string {
	switch r {
	case tree.Max:
		return "box"
	case tree.Min:
		return "ellipse"
	default:
		return "plaintext"
	}
}

// Text writes an indented outline of the tree from its root
func Text(w io.Writer, t *tree.Tree) error {
	bw := bufio.NewWriter(w)
	err := t.Walk(func(n *tree.Node, depth int) bool {
		line := fmt.Sprintf("%s%s %s = %s", strings.Repeat("  ", depth), n.Role, n.ID, Label(n))
		if b := Bounds(n); b != "" {
			line += " (" + b + ")"
		}
		fmt.Fprintln(bw, line)
		return true
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
