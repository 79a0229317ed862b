package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/config"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/playground"
	"github.com/benz9527/xtree/sched"
	"github.com/benz9527/xtree/store"
	"github.com/benz9527/xtree/xlog"
)

func newTestREPL(t *testing.T) (*repl, *playground.Playground, *bytes.Buffer) {
	s, err := sched.NewScheduler(sched.WithSchedulerInterval(0))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	buf := &bytes.Buffer{}
	out := &syncWriter{w: buf}
	p, err := playground.NewPlayground(
		playground.WithPlaygroundScheduler(s),
		playground.WithPlaygroundStore(store.NewMemStore()),
		playground.WithPlaygroundListener(frameListener(out)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.Init(context.TODO()))
	return newREPL(p, out), p, buf
}

func TestREPL_Script(t *testing.T) {
	r, p, buf := newTestREPL(t)
	script := strings.Join([]string{
		"type BST",
		"build 2 1 3",
		"proper",
		"insert 5 4",
		"wait",
		"search 4",
		"wait",
		"remove 2",
		"wait",
		"extr 1 l 0",
		"update 0 -1",
		"cut 5",
		"check",
		"trav in",
		"wait",
		"bogus",
		"build 1 2 3",
		"quit",
		"show",
	}, "\n")
	r.Run(context.TODO(), strings.NewReader(script))
	out := buf.String()

	require.Contains(t, out, "seq: 2 1 3")
	require.Contains(t, out, "4 Found")
	require.Contains(t, out, "2 nodes removed")
	require.Contains(t, out, "seq: -1 1 3")
	require.Contains(t, out, "error: unknown command")
	require.Contains(t, out, "invalid: ")
	// Frames of the animated operations.
	require.Contains(t, out, "*4")
	// Nothing runs after quit.
	require.Equal(t, 1, strings.Count(out, "[BST] Build from proper level-order sequence | Init BST"))

	view := p.View()
	require.Equal(t, tree.BSTType, view.Params.CurTreeType)
	ok, _ := p.CheckValidity()
	require.False(t, ok)
}

func TestREPL_Errors(t *testing.T) {
	r, _, buf := newTestREPL(t)
	for _, line := range []string{
		"type Heap",
		"insert x",
		"remove 1000",
		"extr 36 up 1",
		"interval soon",
		"scale -1",
		"search",
		"trav zigzag",
	} {
		buf.Reset()
		quit, err := r.exec(context.TODO(), strings.Fields(line))
		require.False(t, quit)
		require.Error(t, err, line)
	}

	_, err := r.exec(context.TODO(), []string{"remove", "1000"})
	require.ErrorIs(t, err, tree.ErrNodeNotFound)
	_, err = r.exec(context.TODO(), []string{"scale", "-1"})
	require.ErrorIs(t, err, playground.ErrInvalidScale)

	quit, err := r.exec(context.TODO(), []string{"EXIT"})
	require.NoError(t, err)
	require.True(t, quit)
}

func TestRenderView(t *testing.T) {
	t1, err := tree.NewTree[float64](tree.RedBlackType)
	require.NoError(t, err)
	for _, k := range []float64{10, 20, 30} {
		t1.Insert(k)
	}
	t1.StaticSearch(30).SetStatus(tree.Active)
	view := playground.View{
		Params:      playground.CommonParams{CurTreeType: tree.RedBlackType},
		StructInfo:  t1.CalStructInfo(),
		Messages:    playground.Messages{Left: "Insert 30", Right: "Final: 30 Inserted"},
		TopSequence: []tree.SeqItem[float64]{tree.SeqVal(1.0), tree.SeqNil[float64](), tree.SeqTerm[float64]()},
	}
	buf := &bytes.Buffer{}
	renderView(buf, view)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"[RedBlack] Insert 30 | Final: 30 Inserted",
		"     20",
		"10r       *30r",
		"seq: 1 null end",
	}, lines)

	buf.Reset()
	renderView(buf, playground.View{Params: playground.CommonParams{CurTreeType: tree.BSTType}})
	require.Contains(t, buf.String(), "(empty)")
}

func TestParseSeq(t *testing.T) {
	seq, err := parseSeq([]string{"1", "null", "#", "2.5", "END"})
	require.NoError(t, err)
	require.Equal(t, []tree.SeqItem[float64]{
		tree.SeqVal(1.0), tree.SeqNil[float64](), tree.SeqNil[float64](), tree.SeqVal(2.5), tree.SeqTerm[float64](),
	}, seq)
	require.Equal(t, "1 null null 2.5 end", formatSeq(seq))

	_, err = parseSeq([]string{"1", "two"})
	require.Error(t, err)
}

func TestNewStore(t *testing.T) {
	cfg := config.Default()
	s, err := newStore(cfg, xlog.NewNopXLogger())
	require.NoError(t, err)
	require.IsType(t, &store.MemStore{}, s)
	require.NoError(t, s.Close())

	cfg.Store.Type = config.SqliteStore
	cfg.Store.Sqlite.DSN = t.TempDir() + "/xtree.db"
	s, err = newStore(cfg, xlog.NewNopXLogger())
	require.NoError(t, err)
	require.IsType(t, &store.GormStore{}, s)
	require.NoError(t, s.Save(context.TODO(), "k", []byte("v")))
	require.NoError(t, s.Close())

	cfg.Store.Type = config.RedisStore
	cfg.Store.Redis.Addr = "127.0.0.1:1"
	_, err = newStore(cfg, xlog.NewNopXLogger())
	require.Error(t, err)
}

func TestNewLogger_FileWriter(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Encoder = "json"
	cfg.Log.Writer = "file"
	cfg.Log.File.Dir = filepath.Join(t.TempDir(), "logs")
	lc := fxtest.NewLifecycle(t)
	logger := newLogger(lc, cfg)
	lc.RequireStart()
	logger.Info("[cli] tree switched", zap.String("type", "Splay"))
	lc.RequireStop()

	data, err := os.ReadFile(filepath.Join(cfg.Log.File.Dir, cfg.Log.File.Filename))
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"[cli] tree switched"`)
	require.Contains(t, string(data), `"type":"Splay"`)
}

func TestREPL_CheckWhileBusy(t *testing.T) {
	r, p, _ := newTestREPL(t)
	for _, line := range []string{"type AVL", "interval 1s", "remove 58"} {
		_, err := r.exec(context.TODO(), strings.Fields(line))
		require.NoError(t, err, line)
	}
	require.True(t, p.Busy())
	_, err := r.exec(context.TODO(), []string{"check"})
	require.ErrorIs(t, err, sched.ErrOperationInProgress)

	_, err = r.exec(context.TODO(), []string{"cancel"})
	require.NoError(t, err)
	p.Wait()
	_, err = r.exec(context.TODO(), []string{"check"})
	require.NoError(t, err)
	ok, reason := p.CheckValidity()
	require.True(t, ok, reason)
}
