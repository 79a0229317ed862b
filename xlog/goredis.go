package xlog

import (
	"context"
	"fmt"
	"strings"
)

// GoRedisXLogger is installed as the go-redis internal logger by
// the redis snapshot store. The client reports dial and pool
// failures through it.
type GoRedisXLogger struct {
	logger XLogger
}

func (l *GoRedisXLogger) Printf(ctx context.Context, format string, v ...any) {
	if l == nil || l.logger == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	msg := strings.TrimPrefix(fmt.Sprintf(format, v...), "redis: ")
	if strings.Contains(msg, "failed") {
		l.logger.ErrorContext(ctx, nil, msg)
		return
	}
	l.logger.InfoContext(ctx, msg)
}

func NewGoRedisXLogger(logger XLogger) *GoRedisXLogger {
	return &GoRedisXLogger{
		logger: newComponentXLogger(logger, "GoRedis", nil),
	}
}
