package xlog

import (
	"sync"
	"testing"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestAntsXLogger_StackField(t *testing.T) {
	parent, w := newTestMemLogger(t)
	logger := NewAntsXLogger(parent)

	logger.Printf("worker exits from panic: %v\n%s\n", "step 3 lost its node", "goroutine 7 [running]:\nsched.(*Scheduler).run")
	line := w.String()
	require.Contains(t, line, `"msg":"worker exits from panic: step 3 lost its node"`)
	require.Contains(t, line, `"stack":"goroutine 7 [running]:\nsched.(*Scheduler).run"`)

	// Raising the parent level silences the component as well.
	w.Reset()
	parent.IncreaseLogLevel(zapcore.FatalLevel)
	logger.Printf("worker exits from panic: %v", "quiet")
	require.Empty(t, w.String())
}

func TestAntsXLogger_SchedulerPool(t *testing.T) {
	parent, w := newTestMemLogger(t)
	p, err := antsv2.NewPool(2, antsv2.WithLogger(NewAntsXLogger(parent)))
	require.NoError(t, err)
	defer p.Release()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, p.Submit(func() {
		defer wg.Done()
		parent.Logf(zapcore.DebugLevel, "step %d refreshed", 1)
	}))
	wg.Wait()
	require.NoError(t, p.Submit(func() {
		panic("rotation on a detached node")
	}))
	require.Eventually(t, func() bool {
		return len(w.Lines()) >= 2
	}, time.Second, 10*time.Millisecond)

	lines := w.Lines()
	require.Contains(t, lines[0], `"msg":"step 1 refreshed"`)
	require.Contains(t, lines[1], `"component":"Ants"`)
	require.Contains(t, lines[1], "rotation on a detached node")
	require.Contains(t, lines[1], `"stack":"goroutine`)
	_ = parent.Sync()
}
