// Package colorshape models shapes with a type and color per corner, as they
// appear in puzzle files. Code reduces such a shape to the presence-only
// shape.Code; the reduction loses type and color.
package colorshape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/2767mr/shapereach/internal/shape"
)

var (
	ErrTooManyLayers = errors.New("shape has more than 4 layers")
	ErrEmptyLayer    = errors.New("shape has an all empty layer")
	ErrBadCorner     = errors.New("bad corner")
)

type Type byte

const (
	TypeNone      Type = '-'
	TypeCircle    Type = 'C'
	TypeRectangle Type = 'R'
	TypeWindmill  Type = 'W'
	TypeStar      Type = 'S'
)

type Color byte

const (
	ColorNone      Color = '-'
	ColorUncolored Color = 'u'
	ColorRed       Color = 'r'
	ColorGreen     Color = 'g'
	ColorBlue      Color = 'b'
	ColorYellow    Color = 'y'
	ColorPurple    Color = 'p'
	ColorCyan      Color = 'c'
	ColorWhite     Color = 'w'
)

var colorNames = map[string]Color{
	"uncolored": ColorUncolored,
	"red":       ColorRed,
	"green":     ColorGreen,
	"blue":      ColorBlue,
	"yellow":    ColorYellow,
	"purple":    ColorPurple,
	"cyan":      ColorCyan,
	"white":     ColorWhite,
}

// ParseColor accepts either the one letter key or the long name ("red").
func ParseColor(s string) (Color, error) {
	if c, ok := colorNames[s]; ok {
		return c, nil
	}
	if len(s) == 1 && validColor(Color(s[0])) && Color(s[0]) != ColorNone {
		return Color(s[0]), nil
	}
	return ColorNone, fmt.Errorf("unknown color %q", s)
}

func validType(t Type) bool {
	switch t {
	case TypeNone, TypeCircle, TypeRectangle, TypeWindmill, TypeStar:
		return true
	}
	return false
}

func validColor(c Color) bool {
	switch c {
	case ColorNone, ColorUncolored, ColorRed, ColorGreen, ColorBlue, ColorYellow, ColorPurple, ColorCyan, ColorWhite:
		return true
	}
	return false
}

type Corner struct {
	Type  Type
	Color Color
}

var EmptyCorner = Corner{TypeNone, ColorNone}

func (c Corner) IsEmpty() bool {
	return c.Type == TypeNone
}

func (c Corner) String() string {
	if c.IsEmpty() {
		return "--"
	}
	return string([]byte{byte(c.Type), byte(c.Color)})
}

func parseCorner(s string) (Corner, error) {
	if s == "--" {
		return EmptyCorner, nil
	}
	t, c := Type(s[0]), Color(s[1])
	if t == TypeNone || c == ColorNone || !validType(t) || !validColor(c) {
		return EmptyCorner, fmt.Errorf("%w: %q", ErrBadCorner, s)
	}
	return Corner{t, c}, nil
}

// Layer holds the corners clockwise from the top right.
type Layer [4]Corner

func (l Layer) IsEmpty() bool {
	return l[0].IsEmpty() && l[1].IsEmpty() && l[2].IsEmpty() && l[3].IsEmpty()
}

// Shape is a stack of 1 to 4 non empty layers, bottom first.
type Shape struct {
	layers []Layer
}

func Parse(key string) (Shape, error) {
	parts := strings.Split(key, ":")
	if len(parts) > shape.MaxLayers {
		return Shape{}, fmt.Errorf("parse %q: %w", key, ErrTooManyLayers)
	}

	s := Shape{layers: make([]Layer, 0, len(parts))}
	for i, part := range parts {
		if len(part) != 8 {
			return Shape{}, fmt.Errorf("parse %q: layer %d: %w: want 4 corners", key, i, ErrBadCorner)
		}
		var layer Layer
		for j := range layer {
			c, err := parseCorner(part[j*2 : j*2+2])
			if err != nil {
				return Shape{}, fmt.Errorf("parse %q: layer %d: %w", key, i, err)
			}
			layer[j] = c
		}
		if layer.IsEmpty() {
			return Shape{}, fmt.Errorf("parse %q: layer %d: %w", key, i, ErrEmptyLayer)
		}
		s.layers = append(s.layers, layer)
	}
	return s, nil
}

// FromCode builds an uncolored circle shape with the corners of code.
func FromCode(code shape.Code) Shape {
	var s Shape
	for i := 0; i < code.LayerCount(); i++ {
		var layer Layer
		for j := range layer {
			if code.Has(shape.Position(i*4 + j)) {
				layer[j] = Corner{TypeCircle, ColorUncolored}
			} else {
				layer[j] = EmptyCorner
			}
		}
		if !layer.IsEmpty() {
			s.layers = append(s.layers, layer)
		}
	}
	return s
}

func (s Shape) LayerCount() int {
	return len(s.layers)
}

func (s Shape) Layer(i int) Layer {
	return s.layers[i]
}

func (s Shape) String() string {
	parts := make([]string, len(s.layers))
	for i, layer := range s.layers {
		var sb strings.Builder
		for _, c := range layer {
			sb.WriteString(c.String())
		}
		parts[i] = sb.String()
	}
	return strings.Join(parts, ":")
}

// Code keeps a cell for every non empty corner and forgets type and color.
func (s Shape) Code() shape.Code {
	var code shape.Code
	for i, layer := range s.layers {
		for j, c := range layer {
			if !c.IsEmpty() {
				code = code.With(shape.Position(i*4 + j))
			}
		}
	}
	return code
}

// Paint colors every non empty corner.
func (s Shape) Paint(color Color) Shape {
	painted := Shape{layers: make([]Layer, len(s.layers))}
	for i, layer := range s.layers {
		for j, c := range layer {
			if !c.IsEmpty() {
				c.Color = color
			}
			painted.layers[i][j] = c
		}
	}
	return painted
}
