package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2767mr/shapereach/internal/shape"
)

var ErrUnknownOp = errors.New("unknown operation")

// Op names the operation that first produced a shape.
type Op uint8

const (
	OpBase Op = iota
	OpRight
	OpLeft
	OpQuadTopRight
	OpQuadBottomRight
	OpQuadBottomLeft
	OpQuadTopLeft
	OpRotate90
	OpRotate180
	OpRotate270
	OpStack
)

var opNames = [...]string{
	OpBase:            "base",
	OpRight:           "right",
	OpLeft:            "left",
	OpQuadTopRight:    "top-right",
	OpQuadBottomRight: "bottom-right",
	OpQuadBottomLeft:  "bottom-left",
	OpQuadTopLeft:     "top-left",
	OpRotate90:        "r90",
	OpRotate180:       "r180",
	OpRotate270:       "r270",
	OpStack:           "stack",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

func ParseOp(s string) (Op, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range opNames {
		if name == s && Op(i) != OpBase {
			return Op(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOp, s)
}

// Unary reports whether the op takes a single shape.
func (o Op) Unary() bool {
	return o != OpBase && o != OpStack
}

// Apply runs a unary op. Binary and base ops return the input unchanged.
func (o Op) Apply(s shape.Code) shape.Code {
	switch o {
	case OpRight:
		return s.Right()
	case OpLeft:
		return s.Left()
	case OpQuadTopRight:
		return s.Quadrant(shape.TopRight)
	case OpQuadBottomRight:
		return s.Quadrant(shape.BottomRight)
	case OpQuadBottomLeft:
		return s.Quadrant(shape.BottomLeft)
	case OpQuadTopLeft:
		return s.Quadrant(shape.TopLeft)
	case OpRotate90:
		return s.Rotate90()
	case OpRotate180:
		return s.Rotate180()
	case OpRotate270:
		return s.Rotate270()
	}
	return s
}

// OpSet is the list of operations the closure may use, in the order they
// are tried for every frontier shape.
type OpSet []Op

var (
	FullOps = OpSet{
		OpLeft, OpRight,
		OpQuadTopRight, OpQuadBottomRight, OpQuadBottomLeft, OpQuadTopLeft,
		OpRotate90, OpRotate180, OpRotate270,
		OpStack,
	}

	// ReducedOps is the cut, rotate and stack set used by the simpler
	// crafting rules.
	ReducedOps = OpSet{OpLeft, OpRight, OpRotate90, OpStack}
)

// ParseOpSet accepts "full", "reduced" or a comma separated list of op names.
func ParseOpSet(s string) (OpSet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "full":
		return FullOps, nil
	case "reduced":
		return ReducedOps, nil
	}

	var set OpSet
	seen := map[Op]bool{}
	for _, name := range strings.Split(s, ",") {
		op, err := ParseOp(name)
		if err != nil {
			return nil, fmt.Errorf("parse op set %q: %w", s, err)
		}
		if !seen[op] {
			seen[op] = true
			set = append(set, op)
		}
	}
	return set, nil
}

func (s OpSet) Has(op Op) bool {
	for _, o := range s {
		if o == op {
			return true
		}
	}
	return false
}

func (s OpSet) unary() []Op {
	var result []Op
	for _, o := range s {
		if o.Unary() {
			result = append(result, o)
		}
	}
	return result
}

func (s OpSet) String() string {
	names := make([]string, len(s))
	for i, o := range s {
		names[i] = o.String()
	}
	return strings.Join(names, ",")
}
