package xlog

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// AntsXLogger receives the worker panics of the scheduler pool.
// The pool prints the panic value on the first line and the
// goroutine stack after it, the stack goes to its own field.
type AntsXLogger struct {
	logger XLogger
}

func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	msg, stack, found := strings.Cut(fmt.Sprintf(format, args...), "\n")
	if !found {
		l.logger.Error(nil, msg)
		return
	}
	l.logger.Error(nil, msg, zap.String("stack", strings.TrimSpace(stack)))
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	return &AntsXLogger{
		logger: newComponentXLogger(logger, "Ants", nil),
	}
}
