// Package cache persists search results so the closure does not have to be
// recomputed on every run.
//
// A Store keeps the sorted list of discovered shape ids. A Checkpointer
// additionally keeps the full search state as of the last completed level,
// which lets an interrupted search resume instead of starting over.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/2767mr/shapereach/internal/search"
	"github.com/2767mr/shapereach/internal/shape"
)

// ErrMiss reports that nothing has been stored yet.
var ErrMiss = errors.New("cache miss")

type Store interface {
	Load(ctx context.Context) ([]shape.Code, error)
	Save(ctx context.Context, ids []shape.Code) error
	Close() error
}

type Checkpointer interface {
	LoadSnapshot(ctx context.Context) (search.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap search.Snapshot) error
}

const (
	BackendJSON   = "json"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

type Config struct {
	Backend string
	Path    string
	Logger  *slog.Logger
}

// Open returns the store for cfg.Backend. The "none" backend never hits.
func Open(cfg Config) (Store, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	switch cfg.Backend {
	case BackendJSON, "":
		return NewJSONFile(cfg.Path), nil
	case BackendBadger:
		store, err := OpenBadger(BadgerConfig{Path: cfg.Path, SyncWrites: true, Logger: cfg.Logger})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendSQLite:
		store, err := OpenSQLite(SQLiteConfig{Path: cfg.Path})
		if err != nil {
			return nil, err
		}
		return store, nil
	case BackendNone:
		return noStore{}, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// Load reads the store and treats every failure as a miss: a missing or
// broken cache only means the search runs again.
func Load(ctx context.Context, store Store, logger *slog.Logger) ([]shape.Code, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	ids, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrMiss):
		logger.Info("No cached shapes")
		return nil, false
	case err != nil:
		logger.Warn("Ignoring unreadable cache", slog.String("error", err.Error()))
		return nil, false
	}

	if err := validate(ids); err != nil {
		logger.Warn("Ignoring corrupt cache", slog.String("error", err.Error()))
		return nil, false
	}

	logger.Info("Loaded cached shapes", slog.Int("count", len(ids)))
	return ids, true
}

// LoadSnapshot returns the checkpoint of store if it has one that was built
// with ops. Like Load it never fails, it only misses.
func LoadSnapshot(ctx context.Context, store Store, ops search.OpSet, logger *slog.Logger) (*search.State, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	cp, ok := store.(Checkpointer)
	if !ok {
		return nil, false
	}

	snap, err := cp.LoadSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			logger.Warn("Ignoring unreadable checkpoint", slog.String("error", err.Error()))
		}
		return nil, false
	}

	state, err := search.Restore(snap)
	if err != nil {
		logger.Warn("Ignoring corrupt checkpoint", slog.String("error", err.Error()))
		return nil, false
	}
	if state.Ops.String() != ops.String() {
		logger.Info("Checkpoint was built with other ops",
			slog.String("checkpoint", state.Ops.String()),
			slog.String("wanted", ops.String()))
		return nil, false
	}

	logger.Info("Loaded checkpoint",
		slog.String("run_id", state.RunID),
		slog.Int("step", int(state.Level())),
		slog.Int("count", state.Count()),
		slog.Bool("complete", state.Complete()))
	return state, true
}

// Checkpoint adapts a store to search.WithCheckpoint. Stores without
// checkpoint support return nil.
func Checkpoint(store Store) search.CheckpointFunc {
	cp, ok := store.(Checkpointer)
	if !ok {
		return nil
	}
	return func(ctx context.Context, s *search.State) error {
		return cp.SaveSnapshot(ctx, s.Snapshot())
	}
}

// sorted returns an ascending copy of ids.
func sorted(ids []shape.Code) []shape.Code {
	result := slices.Clone(ids)
	slices.Sort(result)
	return result
}

// validate rejects ids that are not shapes and ids listed twice.
func validate(ids []shape.Code) error {
	ordered := sorted(ids)
	for i, id := range ordered {
		if id == shape.Empty || !id.IsCanonical() {
			return fmt.Errorf("cached id %s is not a valid shape", id.Hex())
		}
		if i > 0 && id == ordered[i-1] {
			return fmt.Errorf("cached id %s is listed twice", id.Hex())
		}
	}
	return nil
}

type noStore struct{}

func (noStore) Load(context.Context) ([]shape.Code, error) { return nil, ErrMiss }
func (noStore) Save(context.Context, []shape.Code) error   { return nil }
func (noStore) Close() error                               { return nil }
