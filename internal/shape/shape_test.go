package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type TestCase struct {
	name      string
	input     Code
	input2    Code
	expect    Code
	operation func(*testing.T, TestCase)
}

var (
	checkRight = func(t *testing.T, tc TestCase) {
		result := tc.input.Right()
		if result != tc.expect {
			t.Fatal(" Expected", tc.expect.Hex(), "but got", result.Hex(), "original", tc.input.Hex())
		}
	}

	checkLeft = func(t *testing.T, tc TestCase) {
		result := tc.input.Left()
		if result != tc.expect {
			t.Fatal(" Expected", tc.expect.Hex(), "but got", result.Hex(), "original", tc.input.Hex())
		}
	}

	// input2 carries the quadrant index
	checkQuadrant = func(t *testing.T, tc TestCase) {
		result := tc.input.Quadrant(Quadrant(tc.input2))
		if result != tc.expect {
			t.Fatal(" Expected", tc.expect.Hex(), "but got", result.Hex(), "original", tc.input.Hex())
		}
	}

	checkRotate = func(t *testing.T, tc TestCase) {
		result := tc.input.Rotate90()
		if result != tc.expect {
			t.Fatal(" Expected", tc.expect.Hex(), "but got", result.Hex(), "original", tc.input.Hex())
		}
	}

	// input is dropped onto input2
	checkStack = func(t *testing.T, tc TestCase) {
		result := tc.input2.Stack(tc.input)
		if result != tc.expect {
			t.Fatal(" Expected", tc.expect.Hex(), "but got", result.Hex(), "original", tc.input2.Hex(), "+", tc.input.Hex())
		}
	}
)

func testOne(t *testing.T, tc TestCase) {
	t.Run(tc.name, func(t *testing.T) {
		tc.operation(t, tc)
	})
}

func TestShapes(t *testing.T) {
	testOne(t, TestCase{"CUT_01", 0x000f, 0, 0x0003, checkRight})
	testOne(t, TestCase{"CUT_02", 0x000f, 0, 0x000c, checkLeft})
	testOne(t, TestCase{"CUT_03", 0x936c, 0, 0x0132, checkRight})
	testOne(t, TestCase{"CUT_04", 0x936c, 0, 0x084c, checkLeft})
	testOne(t, TestCase{"CUT_05", 0xc3c3, 0, 0x0033, checkRight})
	testOne(t, TestCase{"CUT_06", 0xc3c3, 0, 0x00cc, checkLeft})
	testOne(t, TestCase{"CUT_07", 0x000c, 0, 0x0000, checkRight})
	testOne(t, TestCase{"CUT_08", 0x0003, 0, 0x0000, checkLeft})

	testOne(t, TestCase{"QUAD_01", 0x936c, Code(TopRight), 0x0011, checkQuadrant})
	testOne(t, TestCase{"QUAD_02", 0x936c, Code(BottomLeft), 0x0044, checkQuadrant})
	testOne(t, TestCase{"QUAD_03", 0x936c, Code(TopLeft), 0x0088, checkQuadrant})
	testOne(t, TestCase{"QUAD_04", 0x936c, Code(BottomRight), 0x0022, checkQuadrant})

	testOne(t, TestCase{"ROTATE_01", 0x0001, 0, 0x0002, checkRotate})
	testOne(t, TestCase{"ROTATE_02", 0x0008, 0, 0x0001, checkRotate})
	testOne(t, TestCase{"ROTATE_03", 0x936c, 0, 0x36c9, checkRotate})

	testOne(t, TestCase{"STACK_01", 0x0001, 0x0001, 0x0011, checkStack})
	testOne(t, TestCase{"STACK_02", 0x000f, 0x000f, 0x00ff, checkStack})
	testOne(t, TestCase{"STACK_03", 0x0002, 0x0001, 0x0003, checkStack})
	testOne(t, TestCase{"STACK_04", 0x0001, 0x00ff, 0x01ff, checkStack})
	testOne(t, TestCase{"STACK_05", 0x0001, 0xffff, 0xffff, checkStack})
	testOne(t, TestCase{"STACK_06", 0x0002, 0x1111, 0x1113, checkStack})
	testOne(t, TestCase{"STACK_07", 0x1111, 0x8421, 0x9531, checkStack})
	testOne(t, TestCase{"STACK_08", 0x0000, 0x0021, 0x0021, checkStack})
}

// splitTwoPass masks every layer first and compacts afterwards.
func splitTwoPass(c Code, mask uint8) Code {
	layers := c.Layers()
	for i := range layers {
		layers[i] &= mask
	}
	return Canonicalize(layers)
}

func TestSplitMatchesTwoPass(t *testing.T) {
	masks := []uint8{MaskRight, MaskLeft, 0b0001, 0b0010, 0b0100, 0b1000}
	for id := 1; id <= 0xFFFF; id++ {
		c := Code(id)
		for _, mask := range masks {
			if got, want := c.Split(mask), splitTwoPass(c, mask); got != want {
				t.Fatalf("split %s mask %04b: fused %s, two-pass %s", c.Hex(), mask, got.Hex(), want.Hex())
			}
		}
		if got, want := c.Left(), splitTwoPass(c, MaskLeft); got != want {
			t.Fatalf("left %s: %s, want %s", c.Hex(), got.Hex(), want.Hex())
		}
		if got, want := c.Right(), splitTwoPass(c, MaskRight); got != want {
			t.Fatalf("right %s: %s, want %s", c.Hex(), got.Hex(), want.Hex())
		}
		if l, r := c.Left(), c.Right(); l&r != 0 || (l|r).LayerCount() > c.LayerCount() {
			t.Fatalf("halves of %s overlap: left %s, right %s", c.Hex(), l.Hex(), r.Hex())
		}
	}
}

func TestOperationsStayCanonical(t *testing.T) {
	for id := 1; id <= 0xFFFF; id++ {
		c := Code(id)
		results := []Code{
			c.Right(), c.Left(),
			c.Quadrant(TopRight), c.Quadrant(BottomRight), c.Quadrant(BottomLeft), c.Quadrant(TopLeft),
		}
		if c.IsCanonical() {
			results = append(results, c.Rotate90(), c.Rotate180(), c.Rotate270())
		}
		for _, r := range results {
			if !r.IsCanonical() || Canonicalize(r.Layers()) != r {
				t.Fatalf("operation on %s produced non canonical %s", c.Hex(), r.Hex())
			}
		}
	}
}

func TestStackStaysCanonical(t *testing.T) {
	var canonical []Code
	for id := 1; id <= 0xFFFF; id++ {
		if c := Code(id); c.IsCanonical() {
			canonical = append(canonical, c)
		}
	}

	// every lower shape against a spread of upper shapes
	for _, lower := range canonical {
		for i := 0; i < len(canonical); i += 997 {
			r := lower.Stack(canonical[i])
			require.True(t, r.IsCanonical(), "%s onto %s gave %s", canonical[i].Hex(), lower.Hex(), r.Hex())
			require.Equal(t, r, Canonicalize(r.Layers()))
		}
	}
}

func TestRotationGroupLaws(t *testing.T) {
	for id := 0; id <= 0xFFFF; id++ {
		c := Code(id)
		require.Equal(t, c, c.Rotate90().Rotate90().Rotate90().Rotate90())
		require.Equal(t, c.Rotate90().Rotate90(), c.Rotate180())
		require.Equal(t, c.Rotate180().Rotate90(), c.Rotate270())
		require.Equal(t, c, c.Rotate90().Rotate270())
	}
}

func TestRotateAngle(t *testing.T) {
	c := Code(0x936c)

	for _, tc := range []struct {
		angle  int
		expect Code
	}{
		{0, c},
		{90, c.Rotate90()},
		{180, c.Rotate180()},
		{270, c.Rotate270()},
		{360, c},
		{-90, c.Rotate270()},
		{-180, c.Rotate180()},
		{450, c.Rotate90()},
	} {
		got, err := c.Rotate(tc.angle)
		require.NoError(t, err)
		assert.Equal(t, tc.expect, got, "angle %d", tc.angle)
	}

	_, err := c.Rotate(45)
	assert.ErrorIs(t, err, ErrInvalidAngle)
}

func TestQuadrantFromIndex(t *testing.T) {
	q, err := QuadrantFromIndex(2)
	require.NoError(t, err)
	assert.Equal(t, BottomLeft, q)

	_, err = QuadrantFromIndex(4)
	assert.ErrorIs(t, err, ErrInvalidQuadrant)
	_, err = QuadrantFromIndex(-1)
	assert.ErrorIs(t, err, ErrInvalidQuadrant)
}

func TestStackWithEmpty(t *testing.T) {
	for id := 1; id <= 0xFFFF; id++ {
		c := Code(id)
		if !c.IsCanonical() {
			continue
		}
		require.Equal(t, c, c.Stack(Empty), "stack empty onto %s", c.Hex())
		require.Equal(t, c, Empty.Stack(c), "stack %s onto empty", c.Hex())
	}
}

func TestStackCapacityLoss(t *testing.T) {
	// four layers with a full top layer leave no room for anything
	for id := 0xF000; id <= 0xFFFF; id++ {
		s := Code(id)
		if !s.IsCanonical() {
			continue
		}
		for t2 := 1; t2 <= 0xFF; t2++ {
			top := Code(t2)
			if !top.IsCanonical() {
				continue
			}
			require.Equal(t, s, s.Stack(top), "%s onto %s", top.Hex(), s.Hex())
		}
	}
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, Code(0x0021), Canonicalize([4]uint8{0, 1, 0, 2}))
	assert.Equal(t, Code(0x4321), Canonicalize([4]uint8{1, 2, 3, 4}))
	assert.Equal(t, Empty, Canonicalize([4]uint8{}))
	assert.Equal(t, Code(0x0005), Canonicalize([4]uint8{0, 0, 0, 0x15}))

	assert.True(t, Code(0x0011).IsCanonical())
	assert.False(t, Code(0x0010).IsCanonical())
	assert.False(t, Code(0x1011).IsCanonical())
	assert.True(t, Empty.IsCanonical())
}

func TestLayers(t *testing.T) {
	c := Code(0x0936)
	assert.Equal(t, 3, c.LayerCount())
	assert.True(t, c.LayerOccupied(2))
	assert.False(t, c.LayerOccupied(3))
	assert.Equal(t, uint8(0x3), c.Layer(1))
	assert.Equal(t, [4]uint8{6, 3, 9, 0}, c.Layers())
	assert.Equal(t, 0, Empty.LayerCount())
	assert.True(t, Empty.IsEmpty())

	bottom, top := c.Unstack()
	assert.Equal(t, Code(0x0036), bottom)
	assert.Equal(t, Code(0x0009), top)
	assert.Equal(t, c, bottom.Stack(top))
}

func TestStringAndParse(t *testing.T) {
	assert.Equal(t, "Cu------:Cu------", Code(0x0011).String())
	assert.Equal(t, "CuCu----", Code(0x0003).String())
	assert.Equal(t, "--------", Empty.String())
	assert.Equal(t, "0x0011", Code(0x0011).Hex())

	for _, in := range []string{"0x0011", "17", "Cu------:Cu------", "Rg------:Sc------", "P-------:cw------"} {
		c, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, Code(0x0011), c, in)
	}

	c, err := Parse("CuCuCuCu")
	require.NoError(t, err)
	assert.Equal(t, Code(0x000F), c)

	_, err = Parse("0x0010")
	assert.ErrorIs(t, err, ErrNotCanonical)

	_, err = Parse("--------:Cu------")
	assert.ErrorIs(t, err, ErrNotCanonical)

	for _, bad := range []string{"", "0x10000", "Xu------", "Cu------:Cu------:Cu------:Cu------:Cu------", "Cu---",
		"Cx------", "C-------", "Pu------", "CuRgSbW?"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestMirrorAndMinimal(t *testing.T) {
	assert.Equal(t, Code(0x0008), Code(0x0001).Mirror())
	assert.Equal(t, Code(0x0004), Code(0x0002).Mirror())
	assert.Equal(t, Code(0x0001), Code(0x0008).Minimal())
	assert.Equal(t, Code(0x0003), Code(0x000C).Minimal())
	assert.True(t, Code(0x0001).IsMinimal())

	for id := 0; id <= 0xFFFF; id++ {
		c := Code(id)
		require.Equal(t, c, c.Mirror().Mirror())
		require.Equal(t, c.Minimal(), c.Rotate90().Minimal())
		require.Equal(t, c.Minimal(), c.Mirror().Minimal())
	}
}
