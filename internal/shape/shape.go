// Package shape implements the 16-bit presence-only shape code and the
// split, rotate and stack operations on it.
//
// A Code holds 4 layers of 4 corners. Layer 0 is the bottom layer and lives
// in bits 0-3. Inside a layer the corners run clockwise from the top right:
// bit 0 top right, bit 1 bottom right, bit 2 bottom left, bit 3 top left.
package shape

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

type Code uint16

const (
	Empty Code = 0

	// MaxLayers is the stack height cap.
	MaxLayers = 4
)

var ErrNotCanonical = errors.New("shape has an empty layer below a filled one")

type Position byte

const (
	Layer0_Top_Right Position = iota
	Layer0_Bottom_Right
	Layer0_Bottom_Left
	Layer0_Top_Left

	Layer1_Top_Right
	Layer1_Bottom_Right
	Layer1_Bottom_Left
	Layer1_Top_Left

	Layer2_Top_Right
	Layer2_Bottom_Right
	Layer2_Bottom_Left
	Layer2_Top_Left

	Layer3_Top_Right
	Layer3_Bottom_Right
	Layer3_Bottom_Left
	Layer3_Top_Left
)

func (p Position) Layer() int {
	return int(p) / 4
}

// Rotate moves the position one corner clockwise within its layer.
func (p Position) Rotate() Position {
	return (p+1)%4 + (p/4)*4
}

func (c Code) Has(p Position) bool {
	return c>>p&1 != 0
}

func (c Code) With(p Position) Code {
	return c | 1<<p
}

func (c Code) IsEmpty() bool {
	return c == Empty
}

// Layer returns the nibble of layer i.
func (c Code) Layer(i int) uint8 {
	return uint8(c>>(i*4)) & 0b1111
}

func (c Code) LayerOccupied(i int) bool {
	return c.Layer(i) != 0
}

func (c Code) Layers() [MaxLayers]uint8 {
	return [MaxLayers]uint8{c.Layer(0), c.Layer(1), c.Layer(2), c.Layer(3)}
}

// LayerCount is the index of the highest occupied layer plus one.
func (c Code) LayerCount() int {
	return MaxLayers - bits.LeadingZeros16(uint16(c))/4
}

func (c Code) IsCanonical() bool {
	for i := 1; i < MaxLayers; i++ {
		if c.LayerOccupied(i) && !c.LayerOccupied(i-1) {
			return false
		}
	}
	return true
}

// Canonicalize drops empty layers and packs the remaining ones downwards,
// keeping their order and bit patterns.
func Canonicalize(layers [MaxLayers]uint8) Code {
	var result Code
	next := 0
	for _, layer := range layers {
		layer &= 0b1111
		if layer == 0 {
			continue
		}
		result |= Code(layer) << (next * 4)
		next++
	}
	return result
}

func (c Code) String() string {
	if c == Empty {
		return "--------"
	}

	var sb strings.Builder
	for i := 0; i < c.LayerCount(); i++ {
		if i > 0 {
			sb.WriteByte(':')
		}
		for p := Position(i * 4); p < Position(i*4+4); p++ {
			if c.Has(p) {
				sb.WriteString("Cu")
			} else {
				sb.WriteString("--")
			}
		}
	}
	return sb.String()
}

// Hex renders the code the way ids are written in the tests and cache: 0x0011.
func (c Code) Hex() string {
	return fmt.Sprintf("0x%04X", uint16(c))
}

// Parse reads a shape from a short key ("Cu--Cu--:P-------"), a hex id
// ("0x0011") or a decimal id ("17"). Corner type and color are ignored,
// only presence is kept. The result must be canonical.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Empty, fmt.Errorf("parse shape: empty input")
	}

	var result Code
	switch {
	case strings.ContainsAny(s, "-:") || len(s) == 8 && !isDigits(s):
		code, err := parseKey(s)
		if err != nil {
			return Empty, err
		}
		result = code
	default:
		v, err := strconv.ParseUint(s, 0, 16)
		if err != nil {
			return Empty, fmt.Errorf("parse shape %q: %w", s, err)
		}
		result = Code(v)
	}

	if !result.IsCanonical() {
		return Empty, fmt.Errorf("parse shape %q: %w", s, ErrNotCanonical)
	}
	return result, nil
}

func parseKey(s string) (Code, error) {
	layers := strings.Split(s, ":")
	if len(layers) > MaxLayers {
		return Empty, fmt.Errorf("parse shape %q: more than %d layers", s, MaxLayers)
	}

	var result Code
	for i, layer := range layers {
		if len(layer) != 8 {
			return Empty, fmt.Errorf("parse shape %q: layer %d must be 8 characters", s, i)
		}
		for j := 0; j < 4; j++ {
			pair := layer[j*2 : j*2+2]
			if pair == "--" {
				continue
			}
			if !validCorner(pair) {
				return Empty, fmt.Errorf("parse shape %q: bad corner %q", s, pair)
			}
			result = result.With(Position(i*4 + j))
		}
	}
	return result, nil
}

// validCorner accepts a type letter followed by a color, or a pin ("P-").
func validCorner(pair string) bool {
	switch pair[0] {
	case 'C', 'R', 'W', 'S', 'c':
		return strings.IndexByte("urgbypcw", pair[1]) >= 0
	case 'P':
		return pair[1] == '-'
	}
	return false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
