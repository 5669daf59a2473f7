package shape

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAngle    = errors.New("angle must be a multiple of 90")
	ErrInvalidQuadrant = errors.New("quadrant index must be 0-3")
)

// Half and quadrant masks for a single layer nibble.
const (
	MaskRight uint8 = 0b0011
	MaskLeft  uint8 = 0b1100
)

type Quadrant uint8

const (
	TopRight Quadrant = iota
	BottomRight
	BottomLeft
	TopLeft
)

func QuadrantFromIndex(i int) (Quadrant, error) {
	if i < 0 || i > 3 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidQuadrant, i)
	}
	return Quadrant(i), nil
}

func (q Quadrant) Mask() uint8 {
	return 1 << q
}

func (q Quadrant) String() string {
	switch q {
	case TopRight:
		return "top-right"
	case BottomRight:
		return "bottom-right"
	case BottomLeft:
		return "bottom-left"
	case TopLeft:
		return "top-left"
	}
	return fmt.Sprintf("quadrant(%d)", uint8(q))
}

// Split keeps the corners selected by mask in every layer and drops the
// layers that become empty. Masking and compaction happen in one bottom-up
// pass: a surviving layer is shifted down by the number of empty layers seen
// below it.
func (c Code) Split(mask uint8) Code {
	filter := Code(mask & 0b1111)
	result := Empty
	empty := 0
	for i := 0; i < MaxLayers; i++ {
		layer := c & filter
		if layer != 0 {
			result |= layer >> empty
		} else {
			empty += 4
		}
		filter <<= 4
	}
	return result
}

func (c Code) Right() Code {
	return c.Split(MaskRight)
}

// Left keeps the left half in place.
func (c Code) Left() Code {
	return c.Split(MaskLeft)
}

func (c Code) Quadrant(q Quadrant) Code {
	return c.Split(q.Mask())
}

// Rotate90 turns every layer one corner clockwise.
func (c Code) Rotate90() Code {
	return (c&0x7777)<<1 | (c&0x8888)>>3
}

func (c Code) Rotate180() Code {
	return (c&0x3333)<<2 | (c&0xCCCC)>>2
}

func (c Code) Rotate270() Code {
	return (c&0x1111)<<3 | (c&0xEEEE)>>1
}

// Rotate accepts any multiple of 90, negative angles turn counter clockwise.
func (c Code) Rotate(angle int) (Code, error) {
	if angle%90 != 0 {
		return Empty, fmt.Errorf("%w: %d", ErrInvalidAngle, angle)
	}
	switch ((angle/90)%4 + 4) % 4 {
	case 1:
		return c.Rotate90(), nil
	case 2:
		return c.Rotate180(), nil
	case 3:
		return c.Rotate270(), nil
	}
	return c, nil
}

// Stack drops top onto c. Top starts one full stack above c and moves down a
// layer at a time, at most 4 times, resting one layer above the first
// collision. Whatever ends up above layer 3 is lost.
func (c Code) Stack(top Code) Code {
	falling := uint32(top) << 16
	bottom := uint32(c)
	for i := 0; i < MaxLayers; i++ {
		falling >>= 4
		if falling&bottom != 0 {
			falling <<= 4
			break
		}
	}
	return Code(bottom | falling&0xFFFF)
}

// Unstack splits off the top layer.
func (c Code) Unstack() (bottom, top Code) {
	if c == Empty {
		return Empty, Empty
	}
	shift := (c.LayerCount() - 1) * 4
	mask := Code(0b1111) << shift
	return c &^ mask, (c & mask) >> shift
}

func (c Code) TopLayer() Code {
	_, top := c.Unstack()
	return top
}
