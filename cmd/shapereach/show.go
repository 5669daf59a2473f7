package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/2767mr/shapereach/internal/colorshape"
	"github.com/2767mr/shapereach/internal/search"
	"github.com/2767mr/shapereach/internal/shape"
)

var showRecipe bool

// showCmd: shapereach show <shape>
var showCmd = &cobra.Command{
	Use:   "show <shape>",
	Short: "Draw a shape and print how it is built",
	Long: `Draw a shape and print the fewest steps that build it.

The shape is a short key ("Cu------:Cu------"), a hex id ("0x0011") or a
decimal id ("17").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := shape.Parse(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		state, err := a.fullState(ctx)
		if err != nil {
			return err
		}
		return showShape(a.out, state, code, showRecipe)
	},
}

// convertCmd: shapereach convert <key>
var convertCmd = &cobra.Command{
	Use:   "convert <key>",
	Short: "Reduce a colored shape key to its shape id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := colorshape.Parse(args[0])
		if err != nil {
			return err
		}
		code := s.Code()
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", code.Hex(), code, s)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showRecipe, "recipe", true, "Print the build steps")
}

func showShape(w io.Writer, state *search.State, code shape.Code, withRecipe bool) error {
	fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf("%s  %s", code.Hex(), code)))
	fmt.Fprintln(w, renderShape(code))

	steps, ok := state.MinSteps(code)
	if !ok {
		fmt.Fprintln(w, styles.Muted.Render("not reachable with "+state.Ops.String()))
		return nil
	}
	fmt.Fprintf(w, "min steps: %d\n", steps)
	if !withRecipe {
		return nil
	}

	recipe, err := state.Recipe(code)
	if errors.Is(err, search.ErrNotDiscovered) {
		return fmt.Errorf("recipe for %s: %w", code.Hex(), err)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(w, renderRecipe(recipe))
	return nil
}
