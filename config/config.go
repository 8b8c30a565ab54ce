// Package config loads the TOML configuration of the market data cache.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/etnz/marketcache"
	"github.com/etnz/marketcache/eodhd"
	"github.com/etnz/marketcache/sqlstore"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a string like "15m" or "168h".
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Config is the whole configuration.
type Config struct {
	Database  Database  `toml:"database"`
	EODHD     EODHD     `toml:"eodhd"`
	Freshness Freshness `toml:"freshness"`
	Timeouts  Timeouts  `toml:"timeouts"`
	History   History   `toml:"history"`
	HTTP      HTTP      `toml:"http"`
}

type Database struct {
	Driver          string   `toml:"driver"` // sqlite, postgres or mysql
	DSN             string   `toml:"dsn"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

type EODHD struct {
	APIKey            string  `toml:"api_key,omitempty"`
	BaseURL           string  `toml:"base_url"`
	Exchange          string  `toml:"exchange"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Freshness holds the maximum age of each data class.
type Freshness struct {
	Price         Duration `toml:"price"`
	Summary       Duration `toml:"summary"`
	Search        Duration `toml:"search"`
	News          Duration `toml:"news"`
	ChartIntraday Duration `toml:"chart_intraday"`
	Chart         Duration `toml:"chart"`
}

type Timeouts struct {
	Point   Duration `toml:"point"`
	Batch   Duration `toml:"batch"`
	Summary Duration `toml:"summary"`
	Chart   Duration `toml:"chart"`
	History Duration `toml:"history"`
	Write   Duration `toml:"write"`
}

type History struct {
	// MaxGapDays is the longest hole a cached series may have and still be
	// complete. A negative value disables the check, 0 means the default.
	MaxGapDays int    `toml:"max_gap_days"`
	Benchmark  string `toml:"benchmark"`
}

type HTTP struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// DefaultPath is the configuration file used when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "marketcache", "config.toml")
}

func defaultDSN() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "marketcache", "cache.db")
}

// Default returns the configuration used when there is no file.
func Default() Config {
	p := marketcache.DefaultPolicy()
	t := marketcache.DefaultTimeouts()
	return Config{
		Database: Database{Driver: "sqlite", DSN: defaultDSN(), MaxOpenConns: 1},
		EODHD:    EODHD{BaseURL: eodhd.DefaultBaseURL, Exchange: "US", RequestsPerSecond: 10, Burst: 5},
		Freshness: Freshness{
			Price:         Duration{p.Price},
			Summary:       Duration{p.Summary},
			Search:        Duration{p.Search},
			News:          Duration{p.News},
			ChartIntraday: Duration{p.ChartIntraday},
			Chart:         Duration{p.Chart},
		},
		Timeouts: Timeouts{
			Point:   Duration{t.Point},
			Batch:   Duration{t.Batch},
			Summary: Duration{t.Summary},
			Chart:   Duration{t.Chart},
			History: Duration{t.History},
			Write:   Duration{t.Write},
		},
		History: History{MaxGapDays: p.MaxGap, Benchmark: marketcache.DefaultBenchmark},
		HTTP:    HTTP{Addr: "localhost:8080", ShutdownTimeout: Duration{10 * time.Second}},
	}
}

// Load reads the file at path over the defaults.
//
// A missing file is not an error, keys absent from the file keep their
// default value and unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config file not found, using defaults", slog.String("path", path))
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()
	if err := Decode(f, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode reads TOML from r over cfg and validates the result.
func Decode(r io.Reader, cfg *Config) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}
	return cfg.Validate()
}

// Encode writes cfg as TOML, without the API key.
func (c Config) Encode(w io.Writer) error {
	c.EODHD.APIKey = ""
	return toml.NewEncoder(w).Encode(c)
}

// Validate reports the first invalid value of c.
func (c Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	for name, d := range map[string]Duration{
		"freshness.price":          c.Freshness.Price,
		"freshness.summary":        c.Freshness.Summary,
		"freshness.search":         c.Freshness.Search,
		"freshness.news":           c.Freshness.News,
		"freshness.chart_intraday": c.Freshness.ChartIntraday,
		"freshness.chart":          c.Freshness.Chart,
		"timeouts.point":           c.Timeouts.Point,
		"timeouts.batch":           c.Timeouts.Batch,
		"timeouts.summary":         c.Timeouts.Summary,
		"timeouts.chart":           c.Timeouts.Chart,
		"timeouts.history":         c.Timeouts.History,
		"timeouts.write":           c.Timeouts.Write,
	} {
		if d.Duration <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	return nil
}

// Policy returns the freshness policy.
func (c Config) Policy() marketcache.Policy {
	return marketcache.Policy{
		Price:         c.Freshness.Price.Duration,
		Summary:       c.Freshness.Summary.Duration,
		Search:        c.Freshness.Search.Duration,
		News:          c.Freshness.News.Duration,
		ChartIntraday: c.Freshness.ChartIntraday.Duration,
		Chart:         c.Freshness.Chart.Duration,
		MaxGap:        c.History.MaxGapDays,
	}
}

// Options returns the service options, logging to logger and counting in metrics.
func (c Config) Options(logger *slog.Logger, metrics *marketcache.Metrics) marketcache.Options {
	return marketcache.Options{
		Policy: c.Policy(),
		Timeouts: marketcache.Timeouts{
			Point:   c.Timeouts.Point.Duration,
			Batch:   c.Timeouts.Batch.Duration,
			Summary: c.Timeouts.Summary.Duration,
			Chart:   c.Timeouts.Chart.Duration,
			History: c.Timeouts.History.Duration,
			Write:   c.Timeouts.Write.Duration,
		},
		Benchmark: c.History.Benchmark,
		Logger:    logger,
		Metrics:   metrics,
	}
}

// Store returns the database configuration.
func (c Config) Store() sqlstore.Config {
	return sqlstore.Config{
		Driver:          c.Database.Driver,
		DSN:             c.Database.DSN,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime.Duration,
	}
}

// Provider returns the EODHD client configuration.
func (c Config) Provider(logger *slog.Logger) eodhd.Config {
	return eodhd.Config{
		APIKey:            c.EODHD.APIKey,
		BaseURL:           c.EODHD.BaseURL,
		Exchange:          c.EODHD.Exchange,
		RequestsPerSecond: c.EODHD.RequestsPerSecond,
		Burst:             c.EODHD.Burst,
		Logger:            logger,
	}
}
