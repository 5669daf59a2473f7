package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/2767mr/shapereach/internal/search"
	"github.com/2767mr/shapereach/internal/shape"
)

// DefaultJSONPath is where the shape list is written when no path is set.
var DefaultJSONPath = filepath.Join("shape database", "shapes.json")

// JSONFile stores the ids as a flat JSON array of numbers in ascending order.
// The checkpoint of shapes.json is kept in shapes.checkpoint.json.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	if path == "" {
		path = DefaultJSONPath
	}
	return &JSONFile{path: path}
}

func (f *JSONFile) Path() string {
	return f.path
}

func (f *JSONFile) SnapshotPath() string {
	return strings.TrimSuffix(f.path, ".json") + ".checkpoint.json"
}

func (f *JSONFile) Load(ctx context.Context) ([]shape.Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	var ids []shape.Code
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return ids, nil
}

func (f *JSONFile) Save(ctx context.Context, ids []shape.Code) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sorted(ids), "", "  ")
	if err != nil {
		return fmt.Errorf("encode shapes: %w", err)
	}
	return writeAtomic(f.path, append(data, '\n'))
}

func (f *JSONFile) LoadSnapshot(ctx context.Context) (search.Snapshot, error) {
	var snap search.Snapshot
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	path := f.SnapshotPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return snap, ErrMiss
	}
	if err != nil {
		return snap, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}

func (f *JSONFile) SaveSnapshot(ctx context.Context, snap search.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return writeAtomic(f.SnapshotPath(), data)
}

// writeAtomic writes to a temporary file next to path and renames it, so a
// crash never leaves a half written file behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

func (f *JSONFile) Close() error {
	return nil
}
