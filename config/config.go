package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/safeopen"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/xlog"
)

type ConfigErr string

func (err ConfigErr) Error() string {
	return string(err)
}

const (
	ErrInvalidConfig ConfigErr = "[config] invalid config"
)

type StoreType string

const (
	MemoryStore StoreType = "memory"
	RedisStore  StoreType = "redis"
	SqliteStore StoreType = "sqlite"
)

type ExporterType string

const (
	NoExporter         ExporterType = "none"
	StdoutExporter     ExporterType = "stdout"
	PrometheusExporter ExporterType = "prometheus"
)

type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	Encoder string `json:"encoder" yaml:"encoder"`
	Writer  string `json:"writer" yaml:"writer"`
	// File is read only by the "file" writer.
	File xlog.FileCoreConfig `json:"file" yaml:"file"`
}

type SchedulerConfig struct {
	// Interval is the pause between two animation steps.
	Interval       time.Duration `json:"interval" yaml:"interval"`
	WorkerPoolSize int           `json:"workerPoolSize" yaml:"workerPoolSize"`
}

type RedisConfig struct {
	Addr     string        `json:"addr" yaml:"addr"`
	Password string        `json:"password" yaml:"password"`
	DB       int           `json:"db" yaml:"db"`
	Prefix   string        `json:"prefix" yaml:"prefix"`
	TTL      time.Duration `json:"ttl" yaml:"ttl"`
}

type SqliteConfig struct {
	DSN string `json:"dsn" yaml:"dsn"`
}

type StoreConfig struct {
	Type   StoreType    `json:"type" yaml:"type"`
	Redis  RedisConfig  `json:"redis" yaml:"redis"`
	Sqlite SqliteConfig `json:"sqlite" yaml:"sqlite"`
}

type PlaygroundConfig struct {
	TreeType  string  `json:"treeType" yaml:"treeType"`
	TreeScale float64 `json:"treeScale" yaml:"treeScale"`
}

type MetricsConfig struct {
	Exporter ExporterType `json:"exporter" yaml:"exporter"`
	// Addr is where the prometheus handler listens.
	Addr string `json:"addr" yaml:"addr"`
}

type Config struct {
	Log        LogConfig        `json:"log" yaml:"log"`
	Scheduler  SchedulerConfig  `json:"scheduler" yaml:"scheduler"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Playground PlaygroundConfig `json:"playground" yaml:"playground"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "INFO",
			Encoder: "plaintext",
			Writer:  "stderr",
			File: xlog.FileCoreConfig{
				Filename:   "xtree.log",
				MaxSize:    "10MB",
				MaxAge:     "7days",
				MaxBackups: 5,
			},
		},
		Scheduler: SchedulerConfig{
			Interval:       500 * time.Millisecond,
			WorkerPoolSize: 8,
		},
		Store: StoreConfig{
			Type:   MemoryStore,
			Redis:  RedisConfig{Addr: "127.0.0.1:6379", Prefix: "xtree:"},
			Sqlite: SqliteConfig{DSN: "xtree.db"},
		},
		Playground: PlaygroundConfig{
			TreeType:  tree.AVLType.String(),
			TreeScale: 1.0,
		},
		Metrics: MetricsConfig{
			Exporter: NoExporter,
			Addr:     ":9464",
		},
	}
}

// Load reads the yaml file over the defaults, then applies the
// environment overrides. An empty path loads the defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		f, err := safeopen.OpenBeneath(filepath.Dir(path), filepath.Base(path))
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, "[config] open "+path)
		}
		defer func() {
			_ = f.Close()
		}()
		if err = Decode(f, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode overlays the yaml document onto cfg.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return infra.WrapErrorStackWithMessage(err, "[config] decode yaml")
	}
	return nil
}

func (cfg *Config) applyEnv(lookup func(string) (string, bool)) error {
	var merr error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("XLOG_LVL", &cfg.Log.Level)
	str("XTREE_REDIS_ADDR", &cfg.Store.Redis.Addr)
	str("XTREE_REDIS_PASSWORD", &cfg.Store.Redis.Password)
	str("XTREE_SQLITE_DSN", &cfg.Store.Sqlite.DSN)
	str("XTREE_TREE_TYPE", &cfg.Playground.TreeType)
	if v, ok := lookup("XTREE_STORE"); ok && v != "" {
		cfg.Store.Type = StoreType(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup("XTREE_METRICS"); ok && v != "" {
		cfg.Metrics.Exporter = ExporterType(strings.ToLower(strings.TrimSpace(v)))
	}
	if v, ok := lookup("XTREE_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(err, "[config] XTREE_INTERVAL"))
		} else {
			cfg.Scheduler.Interval = d
		}
	}
	if v, ok := lookup("XTREE_TREE_SCALE"); ok && v != "" {
		scale, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(err, "[config] XTREE_TREE_SCALE"))
		} else {
			cfg.Playground.TreeScale = scale
		}
	}
	return merr
}

func invalid(reason string) error {
	return infra.WrapErrorStackWithMessage(ErrInvalidConfig, reason)
}

func (cfg *Config) Validate() error {
	var merr error
	if cfg.Scheduler.Interval < 0 {
		merr = multierr.Append(merr, invalid("negative scheduler interval"))
	}
	switch cfg.Store.Type {
	case MemoryStore, RedisStore, SqliteStore:
	default:
		merr = multierr.Append(merr, invalid("unknown store type "+string(cfg.Store.Type)))
	}
	if cfg.Store.Type == RedisStore && cfg.Store.Redis.Addr == "" {
		merr = multierr.Append(merr, invalid("redis store without addr"))
	}
	if cfg.Store.Type == SqliteStore && cfg.Store.Sqlite.DSN == "" {
		merr = multierr.Append(merr, invalid("sqlite store without dsn"))
	}
	if _, err := tree.ParseDiscipline(cfg.Playground.TreeType); err != nil {
		merr = multierr.Append(merr, invalid("unknown tree type "+cfg.Playground.TreeType))
	}
	if cfg.Playground.TreeScale <= 0 {
		merr = multierr.Append(merr, invalid("tree scale must be positive"))
	}
	if _, err := xlog.ParseEncoder(cfg.Log.Encoder); err != nil {
		merr = multierr.Append(merr, invalid("unknown log encoder "+cfg.Log.Encoder))
	}
	if w, err := xlog.ParseWriter(cfg.Log.Writer); err != nil {
		merr = multierr.Append(merr, invalid("unknown log writer "+cfg.Log.Writer))
	} else if w == xlog.File {
		if err = cfg.Log.File.Validate(); err != nil {
			merr = multierr.Append(merr, infra.WrapErrorStackWithMessage(err, "[config] log file"))
		}
	}
	switch cfg.Metrics.Exporter {
	case NoExporter, StdoutExporter, PrometheusExporter:
	default:
		merr = multierr.Append(merr, invalid("unknown metrics exporter "+string(cfg.Metrics.Exporter)))
	}
	return merr
}

// Discipline is the validated tree type.
func (cfg *Config) Discipline() tree.Discipline {
	d, err := tree.ParseDiscipline(cfg.Playground.TreeType)
	if err != nil {
		return tree.AVLType
	}
	return d
}
