package playground

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/sched"
	"github.com/benz9527/xtree/store"
)

var sampleSorted = []float64{2, 6, 11, 19, 27, 31, 36, 40, 46, 53, 58, 64, 74}

func newTestPlayground(t *testing.T, d tree.Discipline, interval time.Duration, opts ...PlaygroundOption) (*Playground, store.Store) {
	mem := store.NewMemStore()
	return newTestPlaygroundOn(t, mem, d, interval, opts...), mem
}

func newTestPlaygroundOn(t *testing.T, s store.Store, d tree.Discipline, interval time.Duration, opts ...PlaygroundOption) *Playground {
	sch, err := sched.NewScheduler(sched.WithSchedulerInterval(interval), sched.WithSchedulerName("playground-test"))
	require.NoError(t, err)
	t.Cleanup(sch.Close)
	opts = append([]PlaygroundOption{
		WithPlaygroundScheduler(sch),
		WithPlaygroundStore(s),
		WithPlaygroundTreeType(d),
	}, opts...)
	p, err := NewPlayground(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	require.NoError(t, p.Init(context.TODO()))
	return p
}

func finish(t *testing.T, tok *sched.Token, err error) sched.Outcome {
	require.NoError(t, err)
	<-tok.Finished()
	outcome, err := tok.Result()
	require.NoError(t, err)
	return outcome
}

func (p *Playground) withTree(fn func(t *numTree)) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fn(p.tree())
}

func (p *Playground) inorder() []float64 {
	keys := make([]float64, 0, 16)
	p.withTree(func(t *numTree) {
		for _, x := range t.InorderTraversal().Collect() {
			keys = append(keys, x.Data())
		}
	})
	return keys
}

func (p *Playground) root() *node {
	var root *node
	p.withTree(func(t *numTree) {
		root = t.Root()
	})
	return root
}

func (p *Playground) nodeOf(e float64) *node {
	var x *node
	p.withTree(func(t *numTree) {
		for _, n := range t.PreorderTraversal().Collect() {
			if n.Data() == e {
				x = n
				return
			}
		}
	})
	return x
}

func (p *Playground) statuses() map[float64]tree.NodeStatus {
	res := make(map[float64]tree.NodeStatus)
	p.withTree(func(t *numTree) {
		for _, x := range t.PreorderTraversal().Collect() {
			res[x.Data()] = x.Status()
		}
	})
	return res
}

func requirePlaygroundValid(t *testing.T, p *Playground) {
	ok, reason := p.CheckValidity()
	require.True(t, ok, reason)
}

func seqOf(vals ...float64) []tree.SeqItem[float64] {
	return tree.SeqValues(vals...)
}

func without(keys []float64, e float64) []float64 {
	return slices.DeleteFunc(slices.Clone(keys), func(k float64) bool { return k == e })
}

func orderedDisciplines() []tree.Discipline {
	return []tree.Discipline{tree.BSTType, tree.AVLType, tree.SplayType, tree.RedBlackType}
}
