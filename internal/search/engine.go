// Package search finds every shape reachable from the base shapes and the
// fewest operations each one needs.
//
// The search runs level by level. Level k expands the shapes first found at
// step k: every unary op is applied to them and each one is stacked onto and
// under every shape known when the level started. New results get step k+1.
// Workers only read the table while a level runs; their results are merged
// after all of them finish, so the outcome does not depend on scheduling.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/2767mr/shapereach/internal/shape"
)

var ErrOpsMismatch = errors.New("state was built with a different op set")

// CheckpointFunc is called after every completed level.
type CheckpointFunc func(ctx context.Context, s *State) error

type Engine struct {
	ops        OpSet
	workers    int
	logger     *slog.Logger
	checkpoint CheckpointFunc
}

type Option func(*Engine)

func WithOps(ops OpSet) Option {
	return func(e *Engine) {
		if len(ops) > 0 {
			e.ops = ops
		}
	}
}

// WithWorkers sets the number of goroutines per level. Zero or less uses
// every CPU.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithCheckpoint(fn CheckpointFunc) Option {
	return func(e *Engine) {
		e.checkpoint = fn
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		ops:    FullOps,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers <= 0 {
		e.workers = runtime.NumCPU()
	}
	return e
}

func (e *Engine) Ops() OpSet {
	return e.ops
}

// Run searches from the base shapes.
func (e *Engine) Run(ctx context.Context) (*State, error) {
	return e.Resume(ctx, NewState())
}

// Resume continues a search from the last completed level of s. If ctx is
// cancelled the level in progress is dropped and s is returned as it was
// after the last completed level, together with the context error.
func (e *Engine) Resume(ctx context.Context, s *State) (*State, error) {
	if len(s.Ops) > 0 && s.Ops.String() != e.ops.String() {
		return s, fmt.Errorf("resume %s with %s: %w", s.Ops, e.ops, ErrOpsMismatch)
	}
	if s.RunID == "" {
		s.RunID = uuid.NewString()
	}
	s.Ops = e.ops

	ctx, span := tracer.Start(ctx, "search.Run",
		trace.WithAttributes(
			attribute.String("search.run_id", s.RunID),
			attribute.String("search.ops", e.ops.String()),
			attribute.Int("search.workers", e.workers),
			attribute.Int("search.start_level", int(s.level)),
		),
	)
	defer span.End()

	start := time.Now()
	for !s.complete {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return s, err
		}

		added, err := e.level(ctx, s)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return s, err
		}

		if added == 0 {
			s.complete = true
		} else {
			s.level++
		}

		// The level is complete, so it is saved even if ctx was cancelled
		// while it ran.
		if e.checkpoint != nil {
			if err := e.checkpoint(context.WithoutCancel(ctx), s); err != nil {
				e.logger.Warn("Checkpoint failed",
					slog.Int("step", int(s.level)),
					slog.String("error", err.Error()))
			}
		}
	}

	span.SetAttributes(attribute.Int("search.discovered", s.count))
	e.logger.Info("Search finished",
		slog.String("run_id", s.RunID),
		slog.Int("discovered", s.count),
		slog.Int("max_step", int(s.level)),
		slog.Duration("elapsed", time.Since(start)))
	return s, nil
}

type candidate struct {
	id     shape.Code
	record Record
}

// level expands the current frontier and merges the results into s.
func (e *Engine) level(ctx context.Context, s *State) (int, error) {
	ctx, span := tracer.Start(ctx, "search.Level",
		trace.WithAttributes(attribute.Int("search.step", int(s.level))))
	defer span.End()

	start := time.Now()
	frontier := s.Frontier()
	known := s.Discovered()

	workers := e.workers
	if workers > len(frontier) {
		workers = len(frontier)
	}
	if workers == 0 {
		return 0, nil
	}

	additions := make([][]candidate, workers)
	g, gCtx := errgroup.WithContext(ctx)
	chunk := (len(frontier) + workers - 1) / workers
	for i := 0; i < workers; i++ {
		i := i
		lo := min(i*chunk, len(frontier))
		hi := min(lo+chunk, len(frontier))
		g.Go(func() error {
			result, err := e.expand(gCtx, s, frontier[lo:hi], known)
			additions[i] = result
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	// Chunks are merged in frontier order so the first producer of a shape
	// is the same one a single worker would have found.
	added := 0
	for _, result := range additions {
		for _, c := range result {
			if s.discover(c.id, c.record) {
				added++
			}
		}
	}

	elapsed := time.Since(start)
	levelsCompleted.Inc()
	levelDuration.Observe(elapsed.Seconds())
	discoveredShapes.Set(float64(s.count))
	span.SetAttributes(
		attribute.Int("search.frontier", len(frontier)),
		attribute.Int("search.new", added),
	)

	e.logger.Info("Step end",
		slog.Int("step", int(s.level)),
		slog.Int("frontier", len(frontier)),
		slog.Int("new", added),
		slog.Int("discovered", s.count),
		slog.Duration("elapsed", elapsed))
	return added, nil
}

// expand applies every op to a slice of the frontier. It reads s without
// writing to it and keeps the first candidate for each new shape.
func (e *Engine) expand(ctx context.Context, s *State, frontier, known []shape.Code) ([]candidate, error) {
	var (
		result []candidate
		seen   [tableSize / 64]uint64
		next   = s.level + 1
		unary  = e.ops.unary()
		stack  = e.ops.Has(OpStack)
	)

	add := func(id shape.Code, r Record) {
		if id == shape.Empty || s.records[id].Found() || seen[id/64]&(1<<(id%64)) != 0 {
			return
		}
		seen[id/64] |= 1 << (id % 64)
		result = append(result, candidate{id, r})
	}

	var unaryCount, stackCount int
	for _, a := range frontier {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, op := range unary {
			add(op.Apply(a), Record{Steps: next, Op: op, A: a})
		}
		unaryCount += len(unary)

		if !stack {
			continue
		}
		for _, b := range known {
			add(b.Stack(a), Record{Steps: next, Op: OpStack, A: a, B: b})
			add(a.Stack(b), Record{Steps: next, Op: OpStack, A: b, B: a})
		}
		stackCount += 2 * len(known)
	}

	operations.WithLabelValues("unary").Add(float64(unaryCount))
	operations.WithLabelValues("stack").Add(float64(stackCount))
	return result, nil
}
