package xlog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
	gutils "gorm.io/gorm/utils"
)

var (
	_ glogger.Interface = (*GormXLogger)(nil)
	_ gorm.ParamsFilter = (*GormXLogger)(nil)
)

const defaultGormSlowThreshold = 500 * time.Millisecond

// GormXLogger routes the snapshot store SQL traces into xlog.
// The gorm level and the component level move together.
type GormXLogger struct {
	logger              XLogger
	cfg                 glogger.Config
	dynamicLevelEnabler zap.AtomicLevel
	gormLevel           atomic.Int32
}

func (l *GormXLogger) level() glogger.LogLevel {
	return glogger.LogLevel(l.gormLevel.Load())
}

func (l *GormXLogger) LogMode(lvl glogger.LogLevel) glogger.Interface {
	l.gormLevel.Store(int32(lvl))
	l.dynamicLevelEnabler.SetLevel(getLogLevelOrDefaultForGorm(lvl))
	return l
}

func (l *GormXLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

func (l *GormXLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level() >= glogger.Error {
		l.logger.ErrorContext(ctx, nil, fmt.Sprintf(msg, data...), zap.String("fileAndLine", gutils.FileWithLineNum()))
	}
}

// ParamsFilter drops the bound values from the traced SQL when
// parameterized queries are enabled. Snapshot payloads stay out
// of the logs that way.
func (l *GormXLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.cfg.ParameterizedQueries {
		return sql, nil
	}
	return sql, params
}

func (l *GormXLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	lvl := l.level()
	if lvl <= glogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var (
		msg  string
		slow = l.cfg.SlowThreshold != 0 && elapsed > l.cfg.SlowThreshold
	)
	switch {
	case err != nil && lvl >= glogger.Error:
		if errors.Is(err, glogger.ErrRecordNotFound) && l.cfg.IgnoreRecordNotFoundError {
			return
		}
		msg = "sql failed"
	case slow && lvl >= glogger.Warn:
		msg = "slow sql"
	case lvl == glogger.Info:
		msg = "sql"
	default:
		return
	}

	sql, rows := fc()
	fields := make([]zap.Field, 0, 5)
	fields = append(fields, zap.String("fileAndLine", gutils.FileWithLineNum()))
	if rows > -1 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	fields = append(fields, zap.Duration("elapsed", elapsed), zap.String("sql", sql))
	switch msg {
	case "sql failed":
		l.logger.ErrorContext(ctx, err, msg, fields...)
	case "slow sql":
		l.logger.WarnContext(ctx, msg, append(fields, zap.Duration("threshold", l.cfg.SlowThreshold))...)
	default:
		l.logger.InfoContext(ctx, msg, fields...)
	}
}

func NewGormXLogger(logger XLogger, opts ...GormXLoggerOption) *GormXLogger {
	gl := &GormXLogger{}
	for _, o := range opts {
		o(&gl.cfg)
	}
	if gl.cfg.SlowThreshold <= 0 {
		gl.cfg.SlowThreshold = defaultGormSlowThreshold
	}
	if gl.cfg.LogLevel == 0 {
		gl.cfg.LogLevel = glogger.Warn
	}
	gl.gormLevel.Store(int32(gl.cfg.LogLevel))
	gl.dynamicLevelEnabler = zap.NewAtomicLevelAt(getLogLevelOrDefaultForGorm(gl.cfg.LogLevel))
	gl.logger = newComponentXLogger(logger, "Gorm", gl.dynamicLevelEnabler)
	return gl
}

func getLogLevelOrDefaultForGorm(lvl glogger.LogLevel) zapcore.Level {
	switch lvl {
	case glogger.Info:
		return zapcore.InfoLevel
	case glogger.Warn:
		return zapcore.WarnLevel
	case glogger.Error:
		return zapcore.ErrorLevel
	default:
		return zapcore.DebugLevel
	}
}

type GormXLoggerOption func(*glogger.Config)

func WithGormXLoggerSlowThreshold(threshold time.Duration) GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.SlowThreshold = threshold
	}
}

func WithGormXLoggerLogLevel(lvl glogger.LogLevel) GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.LogLevel = lvl
	}
}

func WithGormXLoggerIgnoreRecord404Err() GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.IgnoreRecordNotFoundError = true
	}
}

func WithGormXLoggerParameterizedQueries() GormXLoggerOption {
	return func(cfg *glogger.Config) {
		cfg.ParameterizedQueries = true
	}
}
