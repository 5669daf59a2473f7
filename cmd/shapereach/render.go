package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/2767mr/shapereach/internal/search"
	"github.com/2767mr/shapereach/internal/shape"
)

var (
	colorFilled = lipgloss.Color("#2CD7C7")
	colorEmpty  = lipgloss.Color("#2C4A54")

	styles = struct {
		Title  lipgloss.Style
		Muted  lipgloss.Style
		Filled lipgloss.Style
		Empty  lipgloss.Style
		Layer  lipgloss.Style
	}{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(colorFilled),
		Muted:  lipgloss.NewStyle().Foreground(colorEmpty),
		Filled: lipgloss.NewStyle().Foreground(colorFilled),
		Empty:  lipgloss.NewStyle().Foreground(colorEmpty),
		Layer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorEmpty).
			Padding(0, 1),
	}
)

// cell renders one corner of a layer.
func cell(c shape.Code, p shape.Position) string {
	if c.Has(p) {
		return styles.Filled.Render("██")
	}
	return styles.Empty.Render("··")
}

// renderLayer draws layer i as a 2x2 grid, top-left corner first.
func renderLayer(c shape.Code, i int) string {
	base := shape.Position(4 * i)
	tr, br, bl, tl := base, base+1, base+2, base+3

	grid := cell(c, tl) + cell(c, tr) + "\n" + cell(c, bl) + cell(c, br)
	title := styles.Muted.Render(fmt.Sprintf("layer %d", i+1))
	return styles.Layer.Render(lipgloss.JoinVertical(lipgloss.Center, title, grid))
}

// renderShape draws the occupied layers bottom to top, left to right.
func renderShape(c shape.Code) string {
	n := c.LayerCount()
	if n == 0 {
		return styles.Muted.Render("(empty)")
	}

	layers := make([]string, n)
	for i := range layers {
		layers[i] = renderLayer(c, i)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, layers...)
}

func renderRecipe(recipe []search.Step) string {
	var b strings.Builder
	for i, st := range recipe {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, st)
	}
	return b.String()
}
