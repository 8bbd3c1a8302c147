package tree

import (
	"fmt"
	"math"
	"strconv"
)

type Role int

const (
	Max Role = iota
	Min
	Leaf
)

func (r Role) String() string {
	switch r {
	case Max:
		return "max"
	case Min:
		return "min"
	case Leaf:
		return "leaf"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "max":
		return Max, nil
	case "min":
		return Min, nil
	case "leaf":
		return Leaf, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// RoleAt returns the role the generator assigns to internal nodes at the given depth
func RoleAt(depth int) Role {
	if depth%2 == 0 {
		return Max
	}
	return Min
}

type ID string

const RootID ID = "node-root"

// Optional is a number that may be unset
type Optional struct {
	V   float64
	Set bool
}

func Some(v float64) Optional {
	return Optional{V: v, Set: true}
}

func (o Optional) Get() (float64, bool) {
	return o.V, o.Set
}

// Finite reports whether the value is set and is a usable number
func (o Optional) Finite() bool {
	return o.Set && !math.IsNaN(o.V) && !math.IsInf(o.V, 0)
}

type Position struct {
	X float64
	Y float64
}

type Node struct {
	ID       ID
	Role     Role
	Position Position // X is the sibling order key
	Score    Optional // Leaf input, never touched by Reset

	// Result fields, written only by an evaluation run
	Value  Optional
	Alpha  Optional
	Beta   Optional
	Pruned bool
}

func (n *Node) reset() {
	n.Value = Optional{}
	n.Alpha = Optional{}
	n.Beta = Optional{}
	n.Pruned = false
}

type Edge struct {
	Parent ID
	Child  ID
}

// String formats the value for display: empty when unset, ∞ symbols for
// unbounded values.
func (o Optional) String() string {
	if !o.Set {
		return ""
	}
	switch {
	case math.IsInf(o.V, 1):
		return "∞"
	case math.IsInf(o.V, -1):
		return "-∞"
	}
	return strconv.FormatFloat(o.V, 'g', -1, 64)
}
