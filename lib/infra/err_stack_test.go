package infra

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
)

var initPC = caller()

func caller() Frame {
	var PCs [3]uintptr
	n := runtime.Callers(2, PCs[:])
	frames := runtime.CallersFrames(PCs[:n])
	frame, _ := frames.Next()
	return Frame(frame.PC)
}

func TestFrameFormat(t *testing.T) {
	testcases := []struct {
		Frame
		format string
		want   func(string) bool
	}{
		{initPC, "%s", func(s string) bool { return s == "err_stack_test.go" }},
		{initPC, "%n", func(s string) bool { return s == "init" }},
		{initPC, "%d", func(s string) bool { return s == "15" }},
		{initPC, "%v", func(s string) bool { return s == "err_stack_test.go:15" }},
		{initPC, "%+s", func(s string) bool {
			return strings.HasPrefix(s, "github.com/benz9527/xtree/lib/infra.init\n\t") &&
				strings.HasSuffix(s, "err_stack_test.go")
		}},
		{Frame(0), "%s", func(s string) bool { return s == "unknownFile" }},
		{Frame(0), "%n", func(s string) bool { return s == "unknownFunc" }},
		{Frame(0), "%d", func(s string) bool { return s == "0" }},
	}
	for _, tc := range testcases {
		res := fmt.Sprintf(tc.format, tc.Frame)
		require.Truef(t, tc.want(res), "format %s got %q", tc.format, res)
	}
}

func TestFrameMarshalText(t *testing.T) {
	text, err := initPC.MarshalText()
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(string(text), "err_stack_test.go:15"))

	text, err = Frame(0).MarshalText()
	require.NoError(t, err)
	require.Equal(t, "unknownFrame", string(text))
}

func TestErrorStack(t *testing.T) {
	base := errors.New("base")
	err := NewErrorStack("abc")
	require.Equal(t, "abc", err.Error())
	es, ok := err.(ErrorStack)
	require.True(t, ok)
	require.NotEmpty(t, es.Frames())
	require.Equal(t, "TestErrorStack", fmt.Sprintf("%n", es.Frames()[0]))

	wrapped := WrapErrorStack(base)
	require.ErrorIs(t, wrapped, base)
	require.Equal(t, "base", wrapped.Error())
	require.Same(t, wrapped, WrapErrorStack(wrapped))

	withMsg := WrapErrorStackWithMessage(wrapped, "ctx")
	require.ErrorIs(t, withMsg, base)
	require.Equal(t, "ctx: base", withMsg.Error())
	require.Equal(t, wrapped.(ErrorStack).Frames(), withMsg.(ErrorStack).Frames())

	require.NoError(t, WrapErrorStack(nil))
	require.NoError(t, WrapErrorStackWithMessage(nil, "nil"))
}

func TestErrorStackMarshalLogObject(t *testing.T) {
	merr := multierr.Combine(errors.New("e1"), errors.New("e2"))
	err := WrapErrorStackWithMessage(merr, "multi")
	enc := zapcore.NewMapObjectEncoder()
	require.NoError(t, err.(ErrorStack).MarshalLogObject(enc))
	require.Equal(t, "multi: e1; e2", enc.Fields["error"])
	require.Len(t, enc.Fields["errors"], 2)
	require.NotEmpty(t, enc.Fields["errorStack"])
}
