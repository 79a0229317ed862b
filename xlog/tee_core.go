package xlog

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

var _ xLogCore = (xLogMultiCore)(nil)

// xLogMultiCore fans every entry out to the root cores. It has no
// encoder of its own, WrapCores rebuilds each member instead.
type xLogMultiCore []xLogCore

func (mc xLogMultiCore) context() context.Context {
	if len(mc) == 0 {
		return nil
	}
	return mc[0].context()
}

func (mc xLogMultiCore) levelEncoder() zapcore.LevelEncoder {
	return nil
}

func (mc xLogMultiCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return nil
}

func (mc xLogMultiCore) timeEncoder() zapcore.TimeEncoder {
	return nil
}

func (mc xLogMultiCore) writeSyncer() zapcore.WriteSyncer {
	return nil
}

func (mc xLogMultiCore) With(fields []zap.Field) zapcore.Core {
	clone := make([]zapcore.Core, len(mc))
	for i := range mc {
		clone[i] = mc[i].With(fields)
	}
	return zapcore.NewTee(clone...)
}

// Level is the lowest level any member accepts.
func (mc xLogMultiCore) Level() zapcore.Level {
	minLvl := zapcore.InvalidLevel
	for _, c := range mc {
		minLvl = min(minLvl, zapcore.LevelOf(c))
	}
	return minLvl
}

func (mc xLogMultiCore) Enabled(lvl zapcore.Level) bool {
	for i := range mc {
		if mc[i].Enabled(lvl) {
			return true
		}
	}
	return false
}

func (mc xLogMultiCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for i := range mc {
		ce = mc[i].Check(ent, ce)
	}
	return ce
}

func (mc xLogMultiCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	return mc.each(func(c xLogCore) error { return c.Write(ent, fields) })
}

func (mc xLogMultiCore) Sync() error {
	return mc.each(xLogCore.Sync)
}

func (mc xLogMultiCore) each(fn func(xLogCore) error) (err error) {
	for _, c := range mc {
		err = multierr.Append(err, fn(c))
	}
	return err
}

func XLogTeeCore(cores ...xLogCore) xLogCore {
	return xLogMultiCore(cores)
}

func WrapCores(cores []xLogCore, cfg *zapcore.EncoderConfig) (xLogCore, error) {
	return wrapEach(cores, cfg, func(core xLogCore, c *zapcore.EncoderConfig) (xLogCore, error) {
		return WrapCore(core, c)
	})
}

func WrapCoresNewLevelEnabler(cores []xLogCore, lvlEnabler zapcore.LevelEnabler, cfg *zapcore.EncoderConfig) (xLogCore, error) {
	return wrapEach(cores, cfg, func(core xLogCore, c *zapcore.EncoderConfig) (xLogCore, error) {
		return WrapCoreNewLevelEnabler(core, lvlEnabler, c)
	})
}

// wrapEach hands every core its own copy of cfg.
func wrapEach(
	cores []xLogCore,
	cfg *zapcore.EncoderConfig,
	wrap func(xLogCore, *zapcore.EncoderConfig) (xLogCore, error),
) (xLogCore, error) {
	if cfg == nil {
		return nil, infra.NewErrorStack(EmptyCoreConfigErr)
	}
	wrapped := make(xLogMultiCore, 0, len(cores))
	for _, core := range cores {
		c := *cfg
		w, err := wrap(core, &c)
		if err != nil {
			return nil, err
		}
		wrapped = append(wrapped, w)
	}
	return wrapped, nil
}
