package xlog

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

type logLevel string

const (
	LogLevelDebug logLevel = "DEBUG"
	LogLevelInfo  logLevel = "INFO"
	LogLevelWarn  logLevel = "WARN"
	LogLevelError logLevel = "ERROR"
)

func (lvl logLevel) zapLevel() zapcore.Level {
	return getLogLevelOrDefault(string(lvl))
}

func (lvl logLevel) String() string {
	return string(lvl)
}

type logEncoderType uint8

const (
	JSON logEncoderType = iota
	PlainText
	_encMax
)

type logOutWriterType uint8

const (
	StdOut logOutWriterType = iota
	StdErr
	// File needs the file core, see WithXLoggerFileCore.
	File
	testMemAsOut
	_writerMax
)

const (
	ContextKeyMapToOmitempty = "_"
	ContextKeyMapToItself    = ""
	coreKeyIgnored           = ""
)

const (
	UnknownEncoderErr = "[XLogger] unknown log encoder"
	UnknownWriterErr  = "[XLogger] unknown log writer"
)

// ParseEncoder maps the configured encoder name, "json" or
// "plaintext" (also "text" and "console"), case-insensitively.
func ParseEncoder(name string) (logEncoderType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return JSON, nil
	case "plaintext", "text", "console":
		return PlainText, nil
	}
	return _encMax, infra.NewErrorStack(UnknownEncoderErr + ": " + name)
}

// ParseWriter maps "stdout", "stderr" and "file".
func ParseWriter(name string) (logOutWriterType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stdout":
		return StdOut, nil
	case "stderr":
		return StdErr, nil
	case "file":
		return File, nil
	}
	return _writerMax, infra.NewErrorStack(UnknownWriterErr + ": " + name)
}

var (
	writerLock = sync.RWMutex{}
	writers    = [_writerMax]zapcore.WriteSyncer{
		StdOut: zapcore.Lock(os.Stdout),
		StdErr: zapcore.Lock(os.Stderr),
	}
)

// setOutWriter swaps a writer, the tests redirect testMemAsOut.
func setOutWriter(typ logOutWriterType, ws zapcore.WriteSyncer) {
	writerLock.Lock()
	defer writerLock.Unlock()
	writers[typ] = ws
}

func getOutWriterByType(typ logOutWriterType) zapcore.WriteSyncer {
	writerLock.RLock()
	defer writerLock.RUnlock()
	if typ >= _writerMax || writers[typ] == nil {
		return zapcore.Lock(os.Stdout)
	}
	return writers[typ]
}

func getEncoderByType(typ logEncoderType) func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	if typ == PlainText {
		return zapcore.NewConsoleEncoder
	}
	return zapcore.NewJSONEncoder
}

// Banner is printed once per process, ignoring the log level.
type Banner interface {
	JSON() string
	PlainText() string
}

type xLogCore interface {
	context() context.Context
	timeEncoder() zapcore.TimeEncoder
	levelEncoder() zapcore.LevelEncoder
	writeSyncer() zapcore.WriteSyncer
	outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder

	zapcore.Core
}

type XLogCoreConstructor func(
	context.Context,
	zapcore.LevelEnabler,
	logEncoderType,
	logOutWriterType,
	zapcore.LevelEncoder,
	zapcore.TimeEncoder,
) xLogCore

// XLogger is the logger shared by the playground, the scheduler
// and the stores. zap() lets the component loggers (Ants, Gorm,
// GoRedis, Fx) rebuild the cores under their own name.
// ErrorStack writes the infra error stack as a JSON array.
type XLogger interface {
	zap() *zap.Logger

	IncreaseLogLevel(level zapcore.Level)
	Level() string
	Sync() error
	Banner(banner Banner)

	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(err error, msg string, fields ...zap.Field)
	ErrorStack(err error, msg string, fields ...zap.Field)

	DebugContext(ctx context.Context, msg string, fields ...zap.Field)
	InfoContext(ctx context.Context, msg string, fields ...zap.Field)
	WarnContext(ctx context.Context, msg string, fields ...zap.Field)
	ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field)
	ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field)

	Logf(lvl zapcore.Level, format string, args ...any)
	ErrorStackf(err error, format string, args ...any)
}
