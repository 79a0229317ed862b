package xlog

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
)

const (
	EmptyCoreErr       = "[XLogger] logger core is empty"
	EmptyCoreConfigErr = "[XLogger] logger core config is empty"
)

var (
	_ xLogCore = (*commonCore)(nil)
	_ xLogCore = (*consoleCore)(nil)
)

// commonCore keeps the pieces it was built from, so a component
// logger can rebuild it with another encoder config.
type commonCore struct {
	ctx        context.Context
	lvlEnabler zapcore.LevelEnabler
	lvlEnc     zapcore.LevelEncoder
	tsEnc      zapcore.TimeEncoder
	ws         zapcore.WriteSyncer
	enc        func(cfg zapcore.EncoderConfig) zapcore.Encoder
	core       zapcore.Core
}

func (cc *commonCore) timeEncoder() zapcore.TimeEncoder                            { return cc.tsEnc }
func (cc *commonCore) levelEncoder() zapcore.LevelEncoder                          { return cc.lvlEnc }
func (cc *commonCore) writeSyncer() zapcore.WriteSyncer                            { return cc.ws }
func (cc *commonCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder { return cc.enc }
func (cc *commonCore) context() context.Context                                    { return cc.ctx }

func (cc *commonCore) Enabled(lvl zapcore.Level) bool {
	return cc.lvlEnabler.Enabled(lvl)
}

func (cc *commonCore) With(fields []zap.Field) zapcore.Core {
	return cc.core.With(fields)
}

func (cc *commonCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !cc.Enabled(ent.Level) {
		return ce
	}
	return ce.AddCore(ent, cc)
}

func (cc *commonCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	return cc.core.Write(ent, fields)
}

func (cc *commonCore) Sync() error {
	return cc.core.Sync()
}

func (cc *commonCore) build(cfg zapcore.EncoderConfig) *commonCore {
	cfg.EncodeLevel = cc.lvlEnc
	cfg.EncodeTime = cc.tsEnc
	cc.core = zapcore.NewCore(cc.enc(cfg), cc.ws, cc.lvlEnabler)
	return cc
}

// encoderCfg is shared by the root and the component cores. Only
// the root core reports the caller and the function.
func encoderCfg(withCaller bool) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		TimeKey:       "ts",
		CallerKey:     coreKeyIgnored,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   coreKeyIgnored,
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
	if withCaller {
		cfg.CallerKey = "callAt"
		cfg.FunctionKey = "fn"
	}
	return cfg
}

func componentCoreEncoderCfg() *zapcore.EncoderConfig {
	cfg := encoderCfg(false)
	return &cfg
}

// WrapCore rebuilds the core with another encoder config, the
// level enabler of the origin core is kept.
func WrapCore(core xLogCore, cfg *zapcore.EncoderConfig) (xLogCore, error) {
	return WrapCoreNewLevelEnabler(core, core, cfg)
}

func WrapCoreNewLevelEnabler(core xLogCore, lvlEnabler zapcore.LevelEnabler, cfg *zapcore.EncoderConfig) (xLogCore, error) {
	if cfg == nil {
		return nil, infra.NewErrorStack(EmptyCoreConfigErr)
	}
	if core == nil || lvlEnabler == nil {
		return nil, infra.NewErrorStack(EmptyCoreErr)
	}
	cc := &commonCore{
		ctx: core.context(),
		ws:  core.writeSyncer(),
		enc: core.outEncoder(),
		// The origin enabler may change later, so it is asked
		// on every entry.
		lvlEnabler: zap.LevelEnablerFunc(lvlEnabler.Enabled),
		lvlEnc:     core.levelEncoder(),
		tsEnc:      core.timeEncoder(),
	}
	return cc.build(*cfg), nil
}

// consoleCore is the default root core.
type consoleCore struct {
	*commonCore
}

func newConsoleCore(
	ctx context.Context,
	lvlEnabler zapcore.LevelEnabler,
	encoder logEncoderType,
	writer logOutWriterType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) xLogCore {
	if writer >= _writerMax || writer == File {
		return nil
	}
	cc := &commonCore{
		ctx:        ctx,
		lvlEnabler: lvlEnabler,
		lvlEnc:     lvlEnc,
		tsEnc:      tsEnc,
		ws:         getOutWriterByType(writer),
		enc:        getEncoderByType(encoder),
	}
	return &consoleCore{commonCore: cc.build(encoderCfg(true))}
}
