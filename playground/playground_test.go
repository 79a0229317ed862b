package playground

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/sched"
	"github.com/benz9527/xtree/store"
)

type brokenStore struct{}

var errBroken = errors.New("broken store")

func (brokenStore) Load(context.Context, string) ([]byte, error) { return nil, errBroken }
func (brokenStore) Save(context.Context, string, []byte) error   { return errBroken }
func (brokenStore) Delete(context.Context, string) error         { return errBroken }
func (brokenStore) Keys(context.Context) ([]string, error)       { return nil, errBroken }
func (brokenStore) Close() error                                 { return nil }

func TestPlayground_InitSample(t *testing.T) {
	p, mem := newTestPlayground(t, tree.AVLType, 0)
	view := p.View()
	require.Equal(t, tree.AVLType, view.Params.CurTreeType)
	require.Len(t, view.StructInfo.Nodes, len(sampleSorted))
	require.Equal(t, "Load Sample AVL", view.Messages.Left)
	require.Equal(t, "Init AVL", view.Messages.Right)
	require.False(t, view.Busy)
	require.Equal(t, sampleSorted, p.inorder())
	requirePlaygroundValid(t, p)

	data, err := mem.Load(context.TODO(), "tempAVL")
	require.NoError(t, err)
	restored, err := tree.UnmarshalTree[float64](data)
	require.NoError(t, err)
	require.Equal(t, tree.AVLType, restored.Discipline())

	data, err = mem.Load(context.TODO(), "commonParams")
	require.NoError(t, err)
	var params CommonParams
	require.NoError(t, json.Unmarshal(data, &params))
	require.Equal(t, tree.AVLType, params.CurTreeType)
	require.Equal(t, 1.0, params.TreeScale)
}

func TestPlayground_InitRestore(t *testing.T) {
	mem := store.NewMemStore()
	saved, err := tree.NewTree[float64](tree.RedBlackType)
	require.NoError(t, err)
	for _, k := range []float64{10, 20, 30} {
		saved.Insert(k)
	}
	data, err := tree.MarshalTree(saved)
	require.NoError(t, err)
	require.NoError(t, mem.Save(context.TODO(), "tempRedBlack", data))
	require.NoError(t, mem.Save(context.TODO(), "commonParams",
		[]byte(`{"curTreeType":"RedBlack","treeScale":2,"interval":99999}`)))

	p := newTestPlaygroundOn(t, mem, tree.BSTType, 0)
	view := p.View()
	require.Equal(t, tree.RedBlackType, view.Params.CurTreeType)
	require.Equal(t, 2.0, view.Params.TreeScale)
	// The interval belongs to the scheduler.
	require.Equal(t, int64(0), view.Params.Interval)
	require.Equal(t, []float64{10, 20, 30}, p.inorder())
	require.Equal(t, 20.0, p.root().Data())
	require.Equal(t, tree.Black, p.root().Color())
	requirePlaygroundValid(t, p)
}

func TestPlayground_InitCorrupt(t *testing.T) {
	mem := store.NewMemStore()
	require.NoError(t, mem.Save(context.TODO(), "tempSplay", []byte("{not a tree")))
	require.NoError(t, mem.Save(context.TODO(), "commonParams", []byte("][")))

	p := newTestPlaygroundOn(t, mem, tree.SplayType, 0)
	view := p.View()
	require.Equal(t, tree.SplayType, view.Params.CurTreeType)
	require.Equal(t, "Error reading saved Splay", view.Messages.Right)
	require.Equal(t, sampleSorted, p.inorder())
	requirePlaygroundValid(t, p)

	// The sample replaced the corrupt snapshot.
	data, err := mem.Load(context.TODO(), "tempSplay")
	require.NoError(t, err)
	_, err = tree.UnmarshalTree[float64](data)
	require.NoError(t, err)
}

func TestPlayground_InitWrongDiscipline(t *testing.T) {
	mem := store.NewMemStore()
	saved, err := tree.GenSampleTree[float64](tree.BinTreeType)
	require.NoError(t, err)
	data, err := tree.MarshalTree(saved)
	require.NoError(t, err)
	require.NoError(t, mem.Save(context.TODO(), "tempBST", data))

	p := newTestPlaygroundOn(t, mem, tree.BSTType, 0)
	require.Equal(t, "Error reading saved BST", p.View().Messages.Right)
	require.Equal(t, sampleSorted, p.inorder())
}

func TestPlayground_BrokenStore(t *testing.T) {
	p := newTestPlaygroundOn(t, brokenStore{}, tree.BSTType, 0)
	require.Equal(t, sampleSorted, p.inorder())

	tok, err := p.InsertSequence(context.TODO(), seqOf(1))
	require.Equal(t, sched.Done, finish(t, tok, err))
	require.Equal(t, append([]float64{1}, sampleSorted...), p.inorder())
}

func TestPlayground_RestoreAcrossPlaygrounds(t *testing.T) {
	p1, mem := newTestPlayground(t, tree.BSTType, 0)
	ok, reason, err := p1.TopBuild(seqOf(2, 1, 3))
	require.NoError(t, err)
	require.True(t, ok, reason)
	require.NoError(t, p1.SetTreeScale(1.5))

	p2 := newTestPlaygroundOn(t, mem, tree.AVLType, 0)
	view := p2.View()
	require.Equal(t, tree.BSTType, view.Params.CurTreeType)
	require.Equal(t, 1.5, view.Params.TreeScale)
	require.Equal(t, []float64{1, 2, 3}, p2.inorder())
}

func TestPlayground_SwitchTree(t *testing.T) {
	p, mem := newTestPlayground(t, tree.BSTType, time.Second)
	_, _, err := p.TopBuild(seqOf(2, 1, 3))
	require.NoError(t, err)

	tok, err := p.Traversal(context.TODO(), Inorder)
	require.NoError(t, err)
	require.True(t, p.Busy())

	require.NoError(t, p.SwitchTree(context.TODO(), tree.SplayType))
	<-tok.Finished()
	outcome, err := tok.Result()
	require.NoError(t, err)
	require.Equal(t, sched.Cancelled, outcome)
	require.False(t, p.Busy())

	view := p.View()
	require.Equal(t, tree.SplayType, view.Params.CurTreeType)
	require.Equal(t, "Init Splay", view.Messages.Right)
	require.Len(t, view.StructInfo.Nodes, len(sampleSorted))

	data, err := mem.Load(context.TODO(), "commonParams")
	require.NoError(t, err)
	var params CommonParams
	require.NoError(t, json.Unmarshal(data, &params))
	require.Equal(t, tree.SplayType, params.CurTreeType)

	// The BST stays as it was left.
	require.NoError(t, p.SwitchTree(context.TODO(), tree.BSTType))
	require.Equal(t, []float64{1, 2, 3}, p.inorder())
	for _, status := range p.statuses() {
		require.Equal(t, tree.Normal, status)
	}

	require.ErrorIs(t, p.SwitchTree(context.TODO(), tree.Discipline(200)), tree.ErrUnknownDiscipline)
}

func TestPlayground_ResetAndSample(t *testing.T) {
	p, _ := newTestPlayground(t, tree.BSTType, 0)
	_, _, err := p.TopBuild(seqOf(2, 1, 3))
	require.NoError(t, err)
	p.TopProper()
	require.NotEmpty(t, p.View().TopSequence)

	p.Reset(false)
	require.NotEmpty(t, p.View().TopSequence)
	p.Reset(true)
	view := p.View()
	require.Empty(t, view.TopSequence)
	require.Equal(t, Messages{Right: "Reset"}, view.Messages)

	require.NoError(t, p.LoadSampleTree())
	require.Equal(t, sampleSorted, p.inorder())
	require.Equal(t, "Load Sample BST", p.View().Messages.Left)
}

func TestPlayground_ScaleAndInterval(t *testing.T) {
	var calls atomic.Int64
	p, mem := newTestPlayground(t, tree.BSTType, 0, WithPlaygroundListener(ListenerFunc(func(View) {
		calls.Add(1)
	})))
	before := p.View().StructInfo
	seen := calls.Load()
	require.Positive(t, seen)

	require.ErrorIs(t, p.SetTreeScale(0), ErrInvalidScale)
	require.NoError(t, p.SetTreeScale(2))
	after := p.View().StructInfo
	require.Greater(t, calls.Load(), seen)
	for i := range before.Nodes {
		require.Equal(t, before.Nodes[i].X*2, after.Nodes[i].X)
		require.Equal(t, before.Nodes[i].Y*2, after.Nodes[i].Y)
	}

	p.SetInterval(25 * time.Millisecond)
	require.Equal(t, int64(25), p.View().Params.Interval)
	data, err := mem.Load(context.TODO(), "commonParams")
	require.NoError(t, err)
	var params CommonParams
	require.NoError(t, json.Unmarshal(data, &params))
	require.Equal(t, int64(25), params.Interval)
	require.Equal(t, 2.0, params.TreeScale)
}

func TestPlayground_OwnScheduler(t *testing.T) {
	p, err := NewPlayground(WithPlaygroundTreeType(tree.RedBlackType))
	require.NoError(t, err)
	// Usable before Init.
	require.Len(t, p.View().StructInfo.Nodes, len(sampleSorted))
	require.NoError(t, p.Init(context.TODO()))
	p.SetInterval(0)
	tok, err := p.Search(context.TODO(), 53)
	require.Equal(t, sched.Done, finish(t, tok, err))
	require.Equal(t, "53 Found", p.View().Messages.Right)
	require.NoError(t, p.Close())

	_, err = p.Search(context.TODO(), 53)
	require.Error(t, err)
}

func TestParseTraversalMethod(t *testing.T) {
	for name, m := range map[string]TraversalMethod{
		"pre":        Preorder,
		"In":         Inorder,
		" post ":     Postorder,
		"levelorder": LevelOrder,
	} {
		parsed, err := ParseTraversalMethod(name)
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}
	_, err := ParseTraversalMethod("zigzag")
	require.ErrorIs(t, err, ErrUnknownTraversal)
}
