package main

import (
	"context"
	"io"

	"github.com/redis/go-redis/v9"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/config"
	"github.com/benz9527/xtree/observability"
	"github.com/benz9527/xtree/playground"
	"github.com/benz9527/xtree/sched"
	"github.com/benz9527/xtree/store"
	"github.com/benz9527/xtree/xlog"
)

type configPath string

type replIO struct {
	in  io.Reader
	out io.Writer
}

func newConfig(path configPath) (*config.Config, error) {
	return config.Load(string(path))
}

type banner struct {
	treeType string
	store    config.StoreType
}

func (b banner) JSON() string {
	return `{"app":"xtree","treeType":"` + b.treeType + `","store":"` + string(b.store) + `"}`
}

func (b banner) PlainText() string {
	return "xtree playground, " + b.treeType + " on " + string(b.store) + " store"
}

// newLogger trusts the names config.Validate already checked. The
// file writer is flushed and closed on stop.
func newLogger(lc fx.Lifecycle, cfg *config.Config) xlog.XLogger {
	enc, _ := xlog.ParseEncoder(cfg.Log.Encoder)
	w, _ := xlog.ParseWriter(cfg.Log.Writer)
	ctx, cancel := context.WithCancel(context.Background())
	opts := []xlog.XLoggerOption{
		xlog.WithXLoggerContext(ctx),
		xlog.WithXLoggerLevelName(cfg.Log.Level),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerWriter(w),
	}
	if w == xlog.File {
		opts = append(opts, xlog.WithXLoggerFileCore(&cfg.Log.File))
	}
	logger := xlog.NewXLogger(opts...)
	logger.Banner(banner{treeType: cfg.Playground.TreeType, store: cfg.Store.Type})
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
		cancel()
	}))
	return logger
}

func setMaxProcs(logger xlog.XLogger) {
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Logf(zap.InfoLevel, format, args...)
	}))
}

// newStore opens the configured snapshot store, the playground
// closes it.
func newStore(cfg *config.Config, logger xlog.XLogger) (store.Store, error) {
	switch cfg.Store.Type {
	case config.RedisStore:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		s, err := store.RedisStoreBuilder(context.Background(), client).
			Prefix(cfg.Store.Redis.Prefix).
			TTL(cfg.Store.Redis.TTL).
			Retry(store.DefaultExponentialBackoffRetry).
			OwnClient().
			Logger(logger).
			Build()
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return s, nil
	case config.SqliteStore:
		s, err := store.OpenSqliteStore(cfg.Store.Sqlite.DSN, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
	}
	return store.NewMemStore(), nil
}

func newScheduler(lc fx.Lifecycle, cfg *config.Config, logger xlog.XLogger) (*sched.Scheduler, error) {
	opts := []sched.SchedulerOption{
		sched.WithSchedulerName("cli"),
		sched.WithSchedulerInterval(cfg.Scheduler.Interval),
		sched.WithSchedulerLogger(logger),
	}
	if cfg.Scheduler.WorkerPoolSize > 0 {
		opts = append(opts, sched.WithSchedulerWorkerPoolSize(cfg.Scheduler.WorkerPoolSize))
	}
	if cfg.Metrics.Exporter != config.NoExporter {
		opts = append(opts, sched.WithSchedulerStats())
	}
	s, err := sched.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(s.Close))
	return s, nil
}

func newPlayground(
	lc fx.Lifecycle,
	cfg *config.Config,
	s store.Store,
	sch *sched.Scheduler,
	logger xlog.XLogger,
	rio replIO,
) (*playground.Playground, error) {
	p, err := playground.NewPlayground(
		playground.WithPlaygroundListener(frameListener(rio.out)),
		playground.WithPlaygroundStore(s),
		playground.WithPlaygroundScheduler(sch),
		playground.WithPlaygroundLogger(logger),
		playground.WithPlaygroundTreeType(cfg.Discipline()),
		playground.WithPlaygroundTreeScale(cfg.Playground.TreeScale),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: p.Init,
		OnStop: func(context.Context) error {
			return p.Close()
		},
	})
	return p, nil
}

func runMetrics(lc fx.Lifecycle, cfg *config.Config, logger xlog.XLogger) error {
	var (
		exporter *observability.MetricsExporter
		err      error
	)
	switch cfg.Metrics.Exporter {
	case config.StdoutExporter:
		exporter, err = observability.NewConsoleMetricsExporter(observability.WithExporterLogger(logger))
	case config.PrometheusExporter:
		exporter, err = observability.NewPrometheusMetricsExporter(
			observability.WithExporterAddr(cfg.Metrics.Addr),
			observability.WithExporterLogger(logger),
		)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("[cli] metrics exporter started",
		zap.String("exporter", string(cfg.Metrics.Exporter)),
		zap.String("addr", exporter.Addr()),
	)
	observability.InitAppStats(context.Background(), "cli")
	lc.Append(fx.StopHook(exporter.Shutdown))
	return nil
}

// watchConfig applies the hot reloadable parts of the config
// file, the step interval and the tree scale.
func watchConfig(lc fx.Lifecycle, path configPath, p *playground.Playground, logger xlog.XLogger) {
	if path == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return config.Watch(ctx, string(path), func(cfg *config.Config, err error) {
				if err != nil {
					logger.ErrorStack(err, "[cli] reload config")
					return
				}
				p.SetInterval(cfg.Scheduler.Interval)
				if err = p.SetTreeScale(cfg.Playground.TreeScale); err != nil {
					logger.ErrorStack(err, "[cli] reload tree scale")
				}
				logger.Info("[cli] config reloaded", zap.Duration("interval", cfg.Scheduler.Interval))
			})
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func runREPL(lc fx.Lifecycle, shutdowner fx.Shutdowner, p *playground.Playground, rio replIO) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				newREPL(p, rio.out).Run(ctx, rio.in)
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
