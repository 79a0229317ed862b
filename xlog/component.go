package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newComponentXLogger derives a named logger from the parent.
// The parent level still applies unless lvlEnabler is given.
// Context fields are inherited.
func newComponentXLogger(parent XLogger, name string, lvlEnabler zapcore.LevelEnabler) *xLogger {
	l := &xLogger{}
	if px, ok := parent.(*xLogger); ok {
		l.ctxFields = px.ctxFields
	}
	l.logger.Store(parent.
		zap().
		Named(name).
		WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			if core == nil {
				panic("[XLogger] core is nil")
			}
			cc, ok := core.(xLogCore)
			if !ok {
				panic("[XLogger] core is not XLogCore")
			}
			cfg := componentCoreEncoderCfg()
			var err error
			switch mc, isMulti := cc.(xLogMultiCore); {
			case isMulti && lvlEnabler != nil:
				cc, err = WrapCoresNewLevelEnabler(mc, lvlEnabler, cfg)
			case isMulti:
				cc, err = WrapCores(mc, cfg)
			case lvlEnabler != nil:
				cc, err = WrapCoreNewLevelEnabler(cc, lvlEnabler, cfg)
			default:
				cc, err = WrapCore(cc, cfg)
			}
			if err != nil {
				panic(err)
			}
			return cc
		})),
	)
	return l
}
