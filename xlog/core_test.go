package xlog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestConsoleCore(t *testing.T) {
	w := &testMemOutWriter{}
	setOutWriter(testMemAsOut, zapcore.AddSync(w))
	lvlEnabler := zap.NewAtomicLevelAt(LogLevelDebug.zapLevel())
	require.Nil(t, newConsoleCore(
		context.TODO(),
		&lvlEnabler,
		JSON,
		_writerMax,
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	))

	cc := newConsoleCore(
		context.TODO(),
		&lvlEnabler,
		JSON,
		testMemAsOut,
		zapcore.CapitalLevelEncoder,
		zapcore.ISO8601TimeEncoder,
	)
	require.NotNil(t, cc.outEncoder())
	require.NotNil(t, cc.writeSyncer())
	require.NotNil(t, cc.levelEncoder())
	require.NotNil(t, cc.timeEncoder())
	require.NotNil(t, cc.context())

	require.True(t, cc.Enabled(zapcore.DebugLevel))
	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, cc.Enabled(zapcore.DebugLevel))
	require.False(t, cc.Enabled(zapcore.WarnLevel))
	require.True(t, cc.Enabled(zapcore.ErrorLevel))
	require.Nil(t, cc.Check(zapcore.Entry{Level: zapcore.InfoLevel}, nil))
	lvlEnabler.SetLevel(zapcore.DebugLevel)

	require.NotNil(t, cc.With([]zap.Field{zap.String("key", "value")}))
	ent := cc.Check(zapcore.Entry{Level: zapcore.DebugLevel, Message: "direct"}, nil)
	require.NotNil(t, ent)
	ent.Write(zap.String("key", "value"))
	require.Contains(t, w.String(), `"msg":"direct"`)
	require.Contains(t, w.String(), `"key":"value"`)
	_ = cc.Sync()

	_, err := WrapCore(cc, nil)
	require.Error(t, err)
	wrapped, err := WrapCore(cc, componentCoreEncoderCfg())
	require.NoError(t, err)
	w.Reset()
	err = wrapped.Write(zapcore.Entry{Level: zapcore.DebugLevel, LoggerName: "component", Message: "wrapped"}, nil)
	require.NoError(t, err)
	require.Contains(t, w.String(), `"component":"component"`)
	require.NotContains(t, w.String(), "callAt")

	// The wrapped core still follows the origin level.
	lvlEnabler.SetLevel(zapcore.ErrorLevel)
	require.False(t, wrapped.Enabled(zapcore.InfoLevel))
}

func TestTeeCore(t *testing.T) {
	w := &testMemOutWriter{}
	setOutWriter(testMemAsOut, zapcore.AddSync(w))
	lvl1 := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	lvl2 := zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	tee := XLogTeeCore(
		newConsoleCore(context.TODO(), lvl1, JSON, testMemAsOut, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder),
		newConsoleCore(context.TODO(), lvl2, PlainText, testMemAsOut, zapcore.CapitalLevelEncoder, zapcore.ISO8601TimeEncoder),
	)
	require.NotNil(t, tee.context())
	require.Nil(t, tee.writeSyncer())
	require.Equal(t, zapcore.DebugLevel, tee.(xLogMultiCore).Level())
	require.True(t, tee.Enabled(zapcore.DebugLevel))

	ce := tee.Check(zapcore.Entry{Level: zapcore.InfoLevel, Message: "info"}, nil)
	ce.Write()
	require.Len(t, strings.Split(strings.TrimSpace(w.String()), "\n"), 1)

	w.Reset()
	ce = tee.Check(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "error"}, nil)
	ce.Write()
	require.Len(t, strings.Split(strings.TrimSpace(w.String()), "\n"), 2)

	require.NoError(t, tee.Write(zapcore.Entry{Level: zapcore.ErrorLevel}, nil))
	require.NotNil(t, tee.With([]zap.Field{zap.Int("k", 1)}))
	_ = tee.Sync()

	wrapped, err := WrapCoresNewLevelEnabler(tee.(xLogMultiCore), zap.NewAtomicLevelAt(zapcore.WarnLevel), componentCoreEncoderCfg())
	require.NoError(t, err)
	require.False(t, wrapped.Enabled(zapcore.InfoLevel))
	require.True(t, wrapped.Enabled(zapcore.WarnLevel))
	_, err = WrapCores(tee.(xLogMultiCore), nil)
	require.Error(t, err)
}

func TestComponentXLogger(t *testing.T) {
	parent, w := newTestMemLogger(t)
	ants := NewAntsXLogger(parent)
	ants.Printf("worker exits from panic: %s", "boom")
	require.Contains(t, w.String(), `"component":"Ants"`)
	require.Contains(t, w.String(), `"lvl":"ERROR"`)
	require.Contains(t, w.String(), `"msg":"worker exits from panic: boom"`)
	require.NotContains(t, w.String(), "callAt")

	var nilAnts *AntsXLogger
	nilAnts.Printf("ignored")

	w.Reset()
	parent.IncreaseLogLevel(zapcore.ErrorLevel)
	redis := NewGoRedisXLogger(parent)
	redis.Printf(context.TODO(), "dial %s", "ok")
	require.Empty(t, w.String())
	redis.Printf(context.TODO(), "dial %s", "failed")
	require.Contains(t, w.String(), `"component":"GoRedis"`)
}
