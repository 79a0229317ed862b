package xlog

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

var printBanner = sync.Once{}

type ctxField struct {
	key   string
	mapTo string
}

// xLogger wraps a zap logger. Every public method goes through
// log, so the caller skip is the same for all of them.
type xLogger struct {
	logger              atomic.Pointer[zap.Logger]
	ctxFields           []ctxField
	dynamicLevelEnabler zap.AtomicLevel
	writer              logOutWriterType
	encoder             logEncoderType
	bannerOut           zapcore.WriteSyncer
}

var _ XLogger = (*xLogger)(nil)

func (l *xLogger) zap() *zap.Logger {
	return l.logger.Load()
}

func (l *xLogger) log(ctx context.Context, lvl zapcore.Level, msg string, head []zap.Field, fields []zap.Field) {
	ce := l.logger.Load().Check(lvl, msg)
	if ce == nil {
		return
	}
	all := make([]zap.Field, 0, len(l.ctxFields)+len(head)+len(fields))
	all = append(all, extractFieldsFromContext(ctx, l.ctxFields)...)
	all = append(all, head...)
	ce.Write(append(all, fields...)...)
}

func errorFields(err error) []zap.Field {
	if err == nil {
		return nil
	}
	return []zap.Field{zap.String("error", err.Error())}
}

// errorStackFields inlines the frames of an infra.ErrorStack,
// other errors are printed as plain strings.
func errorStackFields(err error) []zap.Field {
	if es, ok := err.(infra.ErrorStack); ok && es != nil {
		return []zap.Field{zap.Inline(es)}
	}
	return errorFields(err)
}

// IncreaseLogLevel moves the level of the root and of every
// component logger derived without its own level.
func (l *xLogger) IncreaseLogLevel(level zapcore.Level) {
	l.dynamicLevelEnabler.SetLevel(level)
}

func (l *xLogger) Level() string {
	return l.dynamicLevelEnabler.Level().String()
}

func (l *xLogger) Sync() error {
	return l.logger.Load().Sync()
}

func (l *xLogger) Banner(banner Banner) {
	printBanner.Do(func() {
		encCfg := zapcore.EncoderConfig{
			MessageKey:    "banner",
			LevelKey:      coreKeyIgnored,
			TimeKey:       coreKeyIgnored,
			CallerKey:     coreKeyIgnored,
			StacktraceKey: coreKeyIgnored,
		}
		text := banner.JSON()
		if l.encoder == PlainText {
			text = banner.PlainText()
		}
		core := zapcore.NewCore(
			getEncoderByType(l.encoder)(encCfg),
			lo.Ternary(l.bannerOut != nil, l.bannerOut, getOutWriterByType(l.writer)),
			zap.NewAtomicLevelAt(zapcore.InfoLevel),
		)
		zap.New(core).Info(text)
	})
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.log(nil, zapcore.DebugLevel, msg, nil, fields)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.log(nil, zapcore.InfoLevel, msg, nil, fields)
}

func (l *xLogger) Warn(msg string, fields ...zap.Field) {
	l.log(nil, zapcore.WarnLevel, msg, nil, fields)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	l.log(nil, zapcore.ErrorLevel, msg, errorFields(err), fields)
}

func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	l.log(nil, zapcore.ErrorLevel, msg, errorStackFields(err), fields)
}

func (l *xLogger) DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.DebugLevel, msg, nil, fields)
}

func (l *xLogger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, nil, fields)
}

func (l *xLogger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, nil, fields)
}

func (l *xLogger) ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, errorFields(err), fields)
}

func (l *xLogger) ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, errorStackFields(err), fields)
}

func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.log(nil, lvl, fmt.Sprintf(format, args...), nil, nil)
}

func (l *xLogger) ErrorStackf(err error, format string, args ...any) {
	l.log(nil, zapcore.ErrorLevel, fmt.Sprintf(format, args...), errorStackFields(err), nil)
}

type loggerCfg struct {
	ctx              context.Context
	ctxFields        map[string]string
	encoderType      *logEncoderType
	writerType       *logOutWriterType
	lvlEncoder       zapcore.LevelEncoder
	tsEncoder        zapcore.TimeEncoder
	level            *zapcore.Level
	coreConstructors []XLogCoreConstructor
	fileCfg          *FileCoreConfig
}

// build fills the defaults into l and returns the root cores.
// Without an explicit level, XLOG_LVL decides.
func (cfg *loggerCfg) build(l *xLogger) []xLogCore {
	l.encoder = lo.FromPtrOr(cfg.encoderType, JSON)
	l.writer = lo.FromPtrOr(cfg.writerType, StdOut)
	l.dynamicLevelEnabler = zap.NewAtomicLevelAt(
		lo.FromPtrOr(cfg.level, getLogLevelOrDefault(os.Getenv("XLOG_LVL"))),
	)

	keys := lo.Keys(cfg.ctxFields)
	slices.Sort(keys)
	l.ctxFields = lo.Map(keys, func(key string, _ int) ctxField {
		return ctxField{key: key, mapTo: cfg.ctxFields[key]}
	})

	if cfg.lvlEncoder == nil {
		cfg.lvlEncoder = zapcore.CapitalLevelEncoder
	}
	if cfg.tsEncoder == nil {
		cfg.tsEncoder = zapcore.ISO8601TimeEncoder
	}
	if l.writer == File {
		cfg.coreConstructors = append(cfg.coreConstructors, newFileCore(cfg.fileCfg))
	}
	if len(cfg.coreConstructors) == 0 {
		cfg.coreConstructors = []XLogCoreConstructor{newConsoleCore}
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}

	cores := make([]xLogCore, 0, len(cfg.coreConstructors))
	for _, newCore := range cfg.coreConstructors {
		core := newCore(cfg.ctx, l.dynamicLevelEnabler, l.encoder, l.writer, cfg.lvlEncoder, cfg.tsEncoder)
		if core != nil {
			cores = append(cores, core)
		}
	}
	return cores
}

type XLoggerOption func(*loggerCfg) error

// NewXLogger panics on an invalid option, the logger is the first
// thing the process builds.
func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &loggerCfg{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			panic(err)
		}
	}
	xl := &xLogger{}
	cores := cfg.build(xl)
	if len(cores) > 0 {
		xl.bannerOut = cores[0].writeSyncer()
	}
	// The zap stacktrace is off, ErrorStack carries the frames.
	// Skip xLogger's public method and log.
	xl.logger.Store(zap.New(
		XLogTeeCore(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(2),
	))
	return xl
}

func WithXLoggerContext(ctx context.Context) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.ctx = ctx
		return nil
	}
}

func WithXLoggerConsoleCore() XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.coreConstructors = append(cfg.coreConstructors, newConsoleCore)
		return nil
	}
}

func WithXLoggerWriter(writer logOutWriterType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if writer >= _writerMax {
			return infra.NewErrorStack(UnknownWriterErr)
		}
		cfg.writerType = &writer
		return nil
	}
}

func WithXLoggerEncoder(logEnc logEncoderType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if logEnc >= _encMax {
			return infra.NewErrorStack(UnknownEncoderErr)
		}
		cfg.encoderType = &logEnc
		return nil
	}
}

func WithXLoggerLevel(lvl logLevel) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.level = lo.ToPtr(lvl.zapLevel())
		return nil
	}
}

// WithXLoggerLevelName accepts the level by its name, the way it
// comes from the config file. Blank names keep the default.
func WithXLoggerLevelName(name string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if len(strings.TrimSpace(name)) > 0 {
			cfg.level = lo.ToPtr(getLogLevelOrDefault(name))
		}
		return nil
	}
}

func WithXLoggerLevelEncoder(lvlEnc zapcore.LevelEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if lvlEnc == nil {
			lvlEnc = zapcore.CapitalColorLevelEncoder
		}
		cfg.lvlEncoder = lvlEnc
		return nil
	}
}

func WithXLoggerTimeEncoder(tsEnc zapcore.TimeEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if tsEnc == nil {
			tsEnc = zapcore.ISO8601TimeEncoder
		}
		cfg.tsEncoder = tsEnc
		return nil
	}
}

// WithXLoggerContextFieldExtract copies the context value stored
// under field into the entry as mapTo. ContextKeyMapToOmitempty
// hides the field.
func WithXLoggerContextFieldExtract(field string, mapTo ...string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if len(field) == 0 {
			return nil
		}
		if cfg.ctxFields == nil {
			cfg.ctxFields = make(map[string]string, 4)
		}
		to := field
		if len(mapTo) > 0 && mapTo[0] != ContextKeyMapToItself {
			to = mapTo[0]
		}
		cfg.ctxFields[field] = to
		return nil
	}
}

func getLogLevelOrDefault(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LogLevelInfo.String():
		return zapcore.InfoLevel
	case LogLevelWarn.String():
		return zapcore.WarnLevel
	case LogLevelError.String():
		return zapcore.ErrorLevel
	default:
		return zapcore.DebugLevel
	}
}

type contextKey string

func extractFieldsFromContext(ctx context.Context, targets []ctxField) []zap.Field {
	if ctx == nil || len(targets) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, len(targets))
	for _, target := range targets {
		if target.mapTo == ContextKeyMapToOmitempty {
			continue
		}
		v := ctx.Value(contextKey(target.key))
		if v == nil {
			v = ctx.Value(target.key)
		}
		if v == nil {
			fields = append(fields, zap.String(target.mapTo, "nil"))
			continue
		}
		fields = append(fields, zap.Any(target.mapTo, v))
	}
	return fields
}

// ContextWithField is the writer side of WithXLoggerContextFieldExtract.
func ContextWithField(ctx context.Context, field string, value any) context.Context {
	return context.WithValue(ctx, contextKey(field), value)
}

// NewNopXLogger drops every entry, it still derives component
// loggers.
func NewNopXLogger() XLogger {
	xl := &xLogger{
		dynamicLevelEnabler: zap.NewAtomicLevelAt(zapcore.InvalidLevel),
	}
	xl.logger.Store(zap.New(XLogTeeCore()))
	return xl
}
