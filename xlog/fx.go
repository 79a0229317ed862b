package xlog

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger prints the application lifecycle (providers, invokes
// and the start and stop hooks) through the xlog cores.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) hook(stage, fn, caller string, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("stage", stage),
		zap.String("function", fn),
		zap.String("caller", caller),
	}, fields...)
	if err != nil {
		l.logger.Error(err, "lifecycle hook failed", fields...)
		return
	}
	l.logger.Debug("lifecycle hook", fields...)
}

// graph logs one line per type added to the dependency graph.
func (l *FxXLogger) graph(verb string, types []string, module string, err error, stack []string, fields ...zap.Field) {
	for _, typ := range types {
		fs := append([]zap.Field{zap.String("type", typ)}, fields...)
		if module != "" {
			fs = append(fs, zap.String("module", module))
		}
		l.logger.Debug(verb, fs...)
	}
	if err != nil {
		l.logger.Error(err, verb+" failed", zap.Strings("stacktrace", stack))
	}
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.hook("start", e.FunctionName, e.CallerName, nil, zap.Bool("done", false))
	case *fxevent.OnStartExecuted:
		l.hook("start", e.FunctionName, e.CallerName, e.Err, zap.Bool("done", true), zap.Duration("runtime", e.Runtime))
	case *fxevent.OnStopExecuting:
		l.hook("stop", e.FunctionName, e.CallerName, nil, zap.Bool("done", false))
	case *fxevent.OnStopExecuted:
		l.hook("stop", e.FunctionName, e.CallerName, e.Err, zap.Bool("done", true), zap.Duration("runtime", e.Runtime))
	case *fxevent.Supplied:
		l.graph("supply", []string{e.TypeName}, e.ModuleName, e.Err, e.StackTrace)
	case *fxevent.Provided:
		l.graph("provide", e.OutputTypeNames, e.ModuleName, e.Err, e.StackTrace,
			zap.String("constructor", e.ConstructorName),
			zap.Bool("private", e.Private),
		)
	case *fxevent.Replaced:
		l.graph("replace", e.OutputTypeNames, e.ModuleName, e.Err, e.StackTrace)
	case *fxevent.Decorated:
		l.graph("decorate", e.OutputTypeNames, e.ModuleName, e.Err, e.StackTrace,
			zap.String("decorator", e.DecoratorName),
		)
	case *fxevent.Invoking:
		fields := []zap.Field{zap.String("function", e.FunctionName)}
		if e.ModuleName != "" {
			fields = append(fields, zap.String("module", e.ModuleName))
		}
		l.logger.Debug("invoke", fields...)
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "invoke failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("xtree stopping", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "xtree stopped with error")
		}
	case *fxevent.RollingBack:
		l.logger.Warn("xtree start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "xtree roll back failed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "xtree start failed")
			return
		}
		l.logger.Debug("xtree running")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "lifecycle logger failed")
			return
		}
		l.logger.Debug("lifecycle logger ready", zap.String("constructor", e.ConstructorName))
	}
}

// NewFxXLogger names the lifecycle lines with the "Fx" component.
func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: newComponentXLogger(logger, "Fx", nil)}
}
