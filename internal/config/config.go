// Package config loads shapereach.yaml and builds the logger and cache
// settings the commands run with.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/2767mr/shapereach/internal/cache"
	"github.com/2767mr/shapereach/internal/search"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "shapereach.yaml"

type Config struct {
	Search  Search  `yaml:"search"`
	Cache   Cache   `yaml:"cache"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
}

type Search struct {
	// Ops is "full", "reduced" or a comma separated list of op names.
	Ops string `yaml:"ops" validate:"opset"`
	// Workers per level, 0 for one per CPU.
	Workers int `yaml:"workers" validate:"gte=0"`
}

type Cache struct {
	Backend string `yaml:"backend" validate:"oneof=json badger sqlite none"`
	// Path overrides the backend's default location.
	Path string `yaml:"path"`
	// Checkpoint saves the search state after every level, if the backend
	// supports it.
	Checkpoint bool `yaml:"checkpoint"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type Metrics struct {
	// Textfile receives the prometheus metrics after a run. Empty disables.
	Textfile string `yaml:"textfile"`
}

func DefaultConfig() Config {
	return Config{
		Search: Search{Ops: "full"},
		Cache:  Cache{Backend: cache.BackendJSON, Checkpoint: true},
		Log:    Log{Level: "info", Format: "text"},
	}
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("opset", validateOpSet)
}

func validateOpSet(fl validator.FieldLevel) bool {
	_, err := search.ParseOpSet(fl.Field().String())
	return err == nil
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	return validate.Struct(c)
}

// Write stores c as YAML at path, replacing any existing file.
func (c Config) Write(path string) error {
	if path == "" {
		path = DefaultPath
	}

	d, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, d, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

func (c Config) OpSet() (search.OpSet, error) {
	return search.ParseOpSet(c.Search.Ops)
}

func (c Config) CacheConfig(logger *slog.Logger) cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Path:    c.Cache.Path,
		Logger:  logger,
	}
}

// NewLogger builds a slog logger writing to w at the configured level.
func NewLogger(l Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
