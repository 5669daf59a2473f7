package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sqlite "github.com/glebarez/sqlite"
	gorm "gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/2767mr/shapereach/internal/search"
	"github.com/2767mr/shapereach/internal/shape"
)

// DefaultSQLitePath is the database file used when no path is set.
var DefaultSQLitePath = filepath.Join("shape database", "shapes.sqlite")

type SQLiteConfig struct {
	Path    string
	Pragmas []string
}

type discoveredRow struct {
	ID uint16 `gorm:"primaryKey;autoIncrement:false"`
}

func (discoveredRow) TableName() string { return "discovered_shapes" }

type checkpointRow struct {
	ID       uint `gorm:"primaryKey"`
	RunID    string
	Ops      string
	Level    uint32
	Complete bool
}

func (checkpointRow) TableName() string { return "checkpoints" }

type recordRow struct {
	ID    uint16 `gorm:"primaryKey;autoIncrement:false"`
	Steps uint32 `gorm:"column:min_steps;index"`
	Op    string
	A     uint16 `gorm:"column:operand_a"`
	B     uint16 `gorm:"column:operand_b"`
}

func (recordRow) TableName() string { return "checkpoint_records" }

// SQLite keeps the shape list and the latest checkpoint in a sqlite file.
type SQLite struct {
	db *gorm.DB
}

func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultSQLitePath
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := cfg.Path
	for i, pragma := range cfg.Pragmas {
		if i == 0 {
			dsn += "?"
		} else {
			dsn += "&"
		}
		dsn += "_pragma=" + pragma
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", cfg.Path, err)
	}
	db = db.Session(&gorm.Session{PrepareStmt: true, CreateBatchSize: 1000})

	store := &SQLite{db: db}
	if err := db.AutoMigrate(&discoveredRow{}, &checkpointRow{}, &recordRow{}); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return store, nil
}

func (s *SQLite) Load(ctx context.Context) ([]shape.Code, error) {
	var rows []discoveredRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read discovered shapes: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrMiss
	}

	ids := make([]shape.Code, len(rows))
	for i, row := range rows {
		ids[i] = shape.Code(row.ID)
	}
	return ids, nil
}

func (s *SQLite) Save(ctx context.Context, ids []shape.Code) error {
	rows := make([]discoveredRow, len(ids))
	for i, id := range sorted(ids) {
		rows[i] = discoveredRow{ID: uint16(id)}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM discovered_shapes").Error; err != nil {
			return fmt.Errorf("clear discovered shapes: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("write discovered shapes: %w", err)
		}
		return nil
	})
}

func (s *SQLite) LoadSnapshot(ctx context.Context) (search.Snapshot, error) {
	var snap search.Snapshot

	var cp checkpointRow
	err := s.db.WithContext(ctx).First(&cp, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return snap, ErrMiss
	}
	if err != nil {
		return snap, fmt.Errorf("read checkpoint: %w", err)
	}

	var rows []recordRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return snap, fmt.Errorf("read checkpoint records: %w", err)
	}

	snap = search.Snapshot{
		RunID:    cp.RunID,
		Ops:      cp.Ops,
		Level:    cp.Level,
		Complete: cp.Complete,
		Records:  make([]search.SnapshotRecord, len(rows)),
	}
	for i, row := range rows {
		snap.Records[i] = search.SnapshotRecord{ID: row.ID, Steps: row.Steps, Op: row.Op, A: row.A, B: row.B}
	}
	return snap, nil
}

// SaveSnapshot replaces the stored checkpoint in one transaction.
func (s *SQLite) SaveSnapshot(ctx context.Context, snap search.Snapshot) error {
	rows := make([]recordRow, len(snap.Records))
	for i, r := range snap.Records {
		rows[i] = recordRow{ID: r.ID, Steps: r.Steps, Op: r.Op, A: r.A, B: r.B}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM checkpoint_records").Error; err != nil {
			return fmt.Errorf("clear checkpoint records: %w", err)
		}
		cp := checkpointRow{ID: 1, RunID: snap.RunID, Ops: snap.Ops, Level: snap.Level, Complete: snap.Complete}
		if err := tx.Save(&cp).Error; err != nil {
			return fmt.Errorf("write checkpoint: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("write checkpoint records: %w", err)
		}
		return nil
	})
}

func (s *SQLite) Close() error {
	sqldb, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("retrieve raw db: %w", err)
	}
	return sqldb.Close()
}
