package shape

// Mirror flips every layer left to right.
func (c Code) Mirror() Code {
	c = c&^0x9999 | (c&0x1111)<<3 | (c&0x8888)>>3
	c = c&^0x6666 | (c&0x2222)<<1 | (c&0x4444)>>1
	return c
}

// Minimal returns the smallest code among the rotations and mirror images of c.
func (c Code) Minimal() Code {
	m := c.Mirror()
	return min(
		min(min(c, c.Rotate90()), min(c.Rotate180(), c.Rotate270())),
		min(min(m, m.Rotate90()), min(m.Rotate180(), m.Rotate270())),
	)
}

func (c Code) IsMinimal() bool {
	return c == c.Minimal()
}
