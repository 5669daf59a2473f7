package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"

	"github.com/2767mr/shapereach/internal/search"
	"github.com/2767mr/shapereach/internal/shape"
)

// DefaultBadgerPath is the database directory used when no path is set.
var DefaultBadgerPath = filepath.Join("shape database", "badger")

var (
	keyDiscovered = []byte("discovered")
	keySnapshot   = []byte("snapshot")
)

type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	InMemory   bool
	SyncWrites bool

	// Logger receives badger's own log lines. Nil silences them.
	Logger *slog.Logger
}

func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		Path:       DefaultBadgerPath,
		SyncWrites: true,
	}
}

func InMemoryBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger keeps the shape list and the latest checkpoint in an embedded
// badger database. Ids are stored as big endian uint16 pairs, the
// checkpoint as JSON.
type Badger struct {
	db *badger.DB
}

func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			cfg.Path = DefaultBadgerPath
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Load(ctx context.Context) ([]shape.Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := b.get(keyDiscovered)
	if err != nil {
		return nil, err
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("discovered list has odd length %d", len(data))
	}

	ids := make([]shape.Code, 0, len(data)/2)
	for i := 0; i < len(data); i += 2 {
		ids = append(ids, shape.Code(binary.BigEndian.Uint16(data[i:])))
	}
	return ids, nil
}

func (b *Badger) Save(ctx context.Context, ids []shape.Code) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := make([]byte, 0, 2*len(ids))
	for _, id := range sorted(ids) {
		data = binary.BigEndian.AppendUint16(data, uint16(id))
	}
	return b.set(keyDiscovered, data)
}

func (b *Badger) LoadSnapshot(ctx context.Context) (search.Snapshot, error) {
	var snap search.Snapshot
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	data, err := b.get(keySnapshot)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (b *Badger) SaveSnapshot(ctx context.Context, snap search.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return b.set(keySnapshot, data)
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) get(key []byte) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (b *Badger) set(key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
