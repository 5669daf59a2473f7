package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/2767mr/shapereach/internal/cache"
	"github.com/2767mr/shapereach/internal/search"
	"github.com/2767mr/shapereach/internal/shape"
)

var (
	runForce       bool
	runOps         string
	runWorkers     int
	runBackend     string
	runMetricsFile string
)

// runCmd: shapereach run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute the closure, or load it from the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		a.applyRunFlags(cmd)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, err := a.reach(ctx, runForce)
		if err != nil {
			return err
		}
		a.report(res)

		if err := a.writeMetrics(); err != nil {
			a.logger.Warn("Could not write metrics", slog.String("error", err.Error()))
		}
		return nil
	},
}

// countCmd: shapereach count
var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of reachable shapes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		a.applyRunFlags(cmd)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		res, err := a.reach(ctx, false)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, len(res.ids))
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{runCmd, countCmd} {
		cmd.Flags().StringVar(&runOps, "ops", "", "Op set: full, reduced or a comma separated list")
		cmd.Flags().IntVar(&runWorkers, "workers", -1, "Workers per level, 0 for one per CPU")
		cmd.Flags().StringVar(&runBackend, "cache", "", "Cache backend (json, badger, sqlite, none)")
	}
	runCmd.Flags().BoolVarP(&runForce, "force", "f", false, "Ignore the cache and any checkpoint")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "Write prometheus metrics to this file")
}

// applyRunFlags lets flags that were set override the configuration file.
func (a *app) applyRunFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("ops") {
		a.cfg.Search.Ops = runOps
	}
	if cmd.Flags().Changed("workers") {
		a.cfg.Search.Workers = runWorkers
	}
	if cmd.Flags().Changed("cache") {
		a.cfg.Cache.Backend = runBackend
	}
	if cmd.Flags().Changed("metrics-file") {
		a.cfg.Metrics.Textfile = runMetricsFile
	}
}

// result is a finished closure. state is nil when the ids came from the
// cache.
type result struct {
	ids    []shape.Code
	state  *search.State
	cached bool
}

// reach loads the closure from the cache, or runs the search, resuming from
// a checkpoint when one was built with the same ops, and stores the result.
func (a *app) reach(ctx context.Context, force bool) (*result, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	ops, err := a.cfg.OpSet()
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(a.cfg.CacheConfig(a.logger))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if !force {
		if ids, ok := cache.Load(ctx, store, a.logger); ok {
			return &result{ids: ids, cached: true}, nil
		}
	}

	state, err := a.search(ctx, store, ops, force)
	if err != nil {
		return nil, err
	}

	ids := state.Discovered()
	if err := store.Save(ctx, ids); err != nil {
		a.logger.Warn("Could not save shapes", slog.String("error", err.Error()))
	}
	return &result{ids: ids, state: state}, nil
}

// fullState returns a search state with provenance for every shape, from a
// complete checkpoint if the store has one.
func (a *app) fullState(ctx context.Context) (*search.State, error) {
	ops, err := a.cfg.OpSet()
	if err != nil {
		return nil, err
	}

	store, err := cache.Open(a.cfg.CacheConfig(a.logger))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return a.search(ctx, store, ops, false)
}

func (a *app) search(ctx context.Context, store cache.Store, ops search.OpSet, fresh bool) (*search.State, error) {
	state := search.NewState()
	if !fresh && a.cfg.Cache.Checkpoint {
		if restored, ok := cache.LoadSnapshot(ctx, store, ops, a.logger); ok {
			state = restored
		}
	}

	opts := []search.Option{
		search.WithOps(ops),
		search.WithWorkers(a.cfg.Search.Workers),
		search.WithLogger(a.logger),
	}
	if a.cfg.Cache.Checkpoint {
		opts = append(opts, search.WithCheckpoint(cache.Checkpoint(store)))
	}

	state, err := search.NewEngine(opts...).Resume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("search stopped after step %d: %w", state.Level(), err)
	}
	return state, nil
}

func (a *app) report(res *result) {
	printReport(a.out, res)
}

func printReport(w io.Writer, res *result) {
	source := "computed"
	if res.cached {
		source = "cached"
	}
	fmt.Fprintf(w, "%d shapes (%s)\n", len(res.ids), source)
	fmt.Fprintf(w, "symmetry classes: %d\n", symmetryClasses(res.ids))

	if res.state == nil {
		return
	}
	fmt.Fprintf(w, "ops: %s\n", res.state.Ops)
	fmt.Fprintf(w, "max step: %d\n", res.state.Level())
	for step, n := range res.state.Histogram() {
		if n == 0 {
			continue
		}
		fmt.Fprintf(w, "  step %2d: %6d %s\n", step, n, bar(n, len(res.ids)))
	}
}

func symmetryClasses(ids []shape.Code) int {
	classes := make(map[shape.Code]struct{}, len(ids)/8)
	for _, id := range ids {
		classes[id.Minimal()] = struct{}{}
	}
	return len(classes)
}

func bar(n, total int) string {
	if total == 0 {
		return ""
	}
	width := n * 40 / total
	if width == 0 && n > 0 {
		width = 1
	}
	return strings.Repeat("#", width)
}

func (a *app) writeMetrics() error {
	if a.cfg.Metrics.Textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(a.cfg.Metrics.Textfile, prometheus.DefaultGatherer)
}
