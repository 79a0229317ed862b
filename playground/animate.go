package playground

import (
	"context"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/sched"
)

// anim is one animated operation on one tree. Every step runs
// with the playground locked and gives up once the epoch it was
// started in is over.
type anim struct {
	p     *Playground
	t     *numTree
	epoch uint64
}

// beginLocked cancels the running operation and starts a new
// epoch for the next one.
func (p *Playground) beginLocked() *anim {
	p.cancelLocked()
	p.updateLocked()
	return &anim{p: p, t: p.tree(), epoch: p.epoch}
}

func (p *Playground) submit(ctx context.Context, name string, cat sched.Category, a *anim, first sched.Step) (*sched.Token, error) {
	return p.sched.Submit(ctx, sched.Operation{
		Name:     name,
		Category: cat,
		First:    first,
		OnFinish: func(outcome sched.Outcome, err error) {
			p.lock.Lock()
			defer p.lock.Unlock()
			if p.epoch == a.epoch {
				if outcome != sched.Done {
					if p.pending != nil {
						p.pending()
					}
					a.t.ResetStatus()
				}
				p.pending = nil
			}
			if outcome == sched.Failed {
				p.messages.Right = name + " failed"
			}
			p.updateLocked()
		},
	})
}

func (a *anim) step(fn func(ctx context.Context) (sched.Step, error)) sched.Step {
	return func(ctx context.Context) (sched.Step, error) {
		a.p.lock.Lock()
		defer a.p.lock.Unlock()
		if a.p.epoch != a.epoch {
			return nil, sched.ErrOperationCancelled
		}
		next, err := fn(ctx)
		a.p.refreshLocked()
		return next, err
	}
}

func (a *anim) enter(ctx context.Context, cat sched.Category) {
	if tok := sched.TokenFrom(ctx); tok != nil {
		tok.Enter(cat)
	}
}

func (a *anim) setPending(fn func()) {
	if a.p.epoch == a.epoch {
		a.p.pending = fn
	}
}

func (a *anim) right(msg string) {
	a.p.messages.Right = msg
}

type searchThen func(found bool, x *node) (sched.Step, error)

// search walks the ordered path from v, one node per step. A
// miss ends with hot as the node the walk fell off from. The
// unordered BinTree is scanned in preorder instead.
func (a *anim) search(v *node, e float64, then searchThen) sched.Step {
	if !a.t.Ordered() {
		return a.scan(e, then)
	}
	var (
		prev *node
		walk sched.Step
	)
	walk = a.step(func(ctx context.Context) (sched.Step, error) {
		a.enter(ctx, sched.SearchLock)
		if prev != nil {
			prev.SetStatus(tree.Visited)
		}
		if v == nil {
			return then(false, a.t.Hot())
		}
		v.SetStatus(tree.Active)
		if v.Data() == e {
			return then(true, v)
		}
		a.t.SetHot(v)
		prev = v
		if e < v.Data() {
			v = v.LC()
		} else {
			v = v.RC()
		}
		return walk, nil
	})
	return walk
}

func (a *anim) scan(e float64, then searchThen) sched.Step {
	var (
		seq  *tree.Sequence[float64]
		prev *node
		walk sched.Step
	)
	walk = a.step(func(ctx context.Context) (sched.Step, error) {
		a.enter(ctx, sched.SearchLock)
		if seq == nil {
			seq = a.t.PreorderTraversal()
		}
		if prev != nil {
			prev.SetStatus(tree.Visited)
		}
		x, ok := seq.Next()
		if !ok {
			return then(false, a.t.Hot())
		}
		x.SetStatus(tree.Active)
		if x.Data() == e {
			return then(true, x)
		}
		a.t.SetHot(x)
		prev = x
		return walk, nil
	})
	return walk
}

// splay lifts v one layer pair per step until its parent is
// stop, nil stop being the root. A nil v goes straight to then.
func (a *anim) splay(v, stop *node, then func() (sched.Step, error)) sched.Step {
	var lift sched.Step
	lift = a.step(func(ctx context.Context) (sched.Step, error) {
		a.enter(ctx, sched.RotateLock)
		if v == nil || v.Parent() == stop {
			return then()
		}
		a.t.SplayStep(v, stop)
		v.SetStatus(tree.Active)
		return lift, nil
	})
	return lift
}

func (a *anim) done() (sched.Step, error) {
	return nil, nil
}

func (a *anim) traversal(seq *tree.Sequence[float64]) sched.Step {
	var (
		prev  *node
		visit sched.Step
	)
	visit = a.step(func(ctx context.Context) (sched.Step, error) {
		if prev != nil {
			prev.SetStatus(tree.Visited)
		}
		x, ok := seq.Next()
		if !ok {
			return a.step(func(context.Context) (sched.Step, error) {
				a.t.ResetStatus()
				a.p.messages.Left = ""
				return nil, nil
			}), nil
		}
		a.p.topSeq = append(a.p.topSeq, tree.SeqVal(x.Data()))
		x.SetStatus(tree.Active)
		prev = x
		return visit, nil
	})
	return visit
}

// insertNext takes the front of the top sequence: a stepped
// search, then the insertion. The splay discipline splays the
// found node or hot first and splits the root.
func (a *anim) insertNext() sched.Step {
	return a.step(func(ctx context.Context) (sched.Step, error) {
		if len(a.p.topSeq) == 0 {
			return nil, nil
		}
		e := a.p.topSeq[0].Val
		a.p.topSeq = a.p.topSeq[1:]
		k := fmtKey(e)
		a.p.messages.Left = "Insert " + k
		a.right("Step 1: Search " + k)
		a.t.ResetStatus()
		a.t.ResetHot()
		return a.search(a.t.Root(), e, func(found bool, x *node) (sched.Step, error) {
			if a.t.Discipline() != tree.SplayType {
				recent := x
				if found {
					a.right(k + " Exists")
				} else {
					recent, _ = a.t.Insert(e)
					a.right("Final: " + k + " Inserted")
				}
				return a.settle(recent), nil
			}
			if x != nil {
				a.right("Step 2: Splay at " + fmtKey(x.Data()))
			}
			return a.splay(x, nil, func() (sched.Step, error) {
				recent := x
				switch {
				case found:
					a.right(k + " Exists")
				case a.t.Empty():
					recent = a.t.InsertAsRoot(e)
					a.right("Final: " + k + " Inserted")
				default:
					recent = a.t.InsertSplitRoot(e)
					a.right("Final: " + k + " Inserted")
				}
				return a.settle(recent), nil
			}), nil
		}), nil
	})
}

func (a *anim) settle(recent *node) sched.Step {
	return a.step(func(ctx context.Context) (sched.Step, error) {
		a.t.ResetStatus()
		if len(a.p.topSeq) == 0 {
			if recent != nil {
				recent.SetStatus(tree.Active)
			}
			return nil, nil
		}
		return a.insertNext(), nil
	})
}

// rebalance climbs the AVL removal chain one ancestor per step.
// A cancelled chain is finished at once, the tree never stays
// unbalanced.
func (a *anim) rebalance(g *node) sched.Step {
	if a.t.Discipline() != tree.AVLType {
		return nil
	}
	a.setPending(func() {
		a.t.SolveRemoveUnbalance(g)
	})
	var climb sched.Step
	climb = a.step(func(ctx context.Context) (sched.Step, error) {
		a.enter(ctx, sched.RotateLock)
		a.t.ResetStatus()
		if g == nil {
			a.setPending(nil)
			a.right("AVL Balanced again.")
			return nil, nil
		}
		g.SetStatus(tree.Active)
		g, _ = a.t.AVLRebalanceStep(g)
		return climb, nil
	})
	return climb
}

func (a *anim) removeRedBlack(x *node) sched.Step {
	return a.step(func(ctx context.Context) (sched.Step, error) {
		a.enter(ctx, sched.RotateLock)
		k := fmtKey(x.Data())
		a.t.Remove(x.Data())
		a.right(k + " Removed.")
		return nil, nil
	})
}

// removeSplay splays x to the root. With a missing side the
// root is spliced at once, otherwise the successor is searched
// for and lifted right under x before the splice.
func (a *anim) removeSplay(x *node) sched.Step {
	k := fmtKey(x.Data())
	x.SetStatus(tree.Active)
	a.right("Step 1: Splay " + k)
	return a.splay(x, nil, func() (sched.Step, error) {
		if !x.HasLC() || !x.HasRC() {
			a.t.SpliceSplayedRoot()
			a.right("Final: remove " + k)
			return nil, nil
		}
		x.SetStatus(tree.Deprecated)
		a.right("Step 2: Elevate Succ of " + k)
		a.t.ResetHot()
		return a.search(x.RC(), x.Data(), func(_ bool, hot *node) (sched.Step, error) {
			return a.splay(hot, x, func() (sched.Step, error) {
				a.right("Step 3: Finally remove " + k)
				a.t.SpliceSplayedRoot()
				return nil, nil
			}), nil
		}), nil
	})
}

// removeSwap splices x out directly when it misses a child.
// Otherwise the path down to its successor is walked, the keys
// are swapped and the successor is spliced. AVL then climbs the
// removal chain.
func (a *anim) removeSwap(x *node) sched.Step {
	k := fmtKey(x.Data())
	if !x.HasLC() || !x.HasRC() {
		return a.step(func(ctx context.Context) (sched.Step, error) {
			a.enter(ctx, sched.RotateLock)
			a.t.RemoveAt(x)
			a.right(k + " Removed.")
			if a.t.Discipline() == tree.AVLType {
				a.right(k + " Removed, solve AVL Unbalance")
			}
			return a.rebalance(a.t.Hot()), nil
		})
	}

	succ := x.Succ()
	x.SetStatus(tree.Deprecated)
	a.right("Step 1: Find Succ")
	remove := a.step(func(ctx context.Context) (sched.Step, error) {
		a.enter(ctx, sched.RotateLock)
		a.setPending(nil)
		a.t.RemoveAt(succ)
		if a.t.Discipline() == tree.AVLType {
			a.right("Step 4: AVL reBalance")
			if hot := a.t.Hot(); hot != nil {
				hot.SetStatus(tree.Active)
			}
		}
		return a.rebalance(a.t.Hot()), nil
	})
	swap := a.step(func(context.Context) (sched.Step, error) {
		a.t.SwapData(x, succ)
		x.SetStatus(tree.Active)
		succ.SetStatus(tree.Deprecated)
		a.right("Step 3: Remove " + k)
		// The keys are out of order until the successor is gone.
		a.setPending(func() {
			a.t.RemoveAt(succ)
			if a.t.Discipline() == tree.AVLType {
				a.t.SolveRemoveUnbalance(a.t.Hot())
			}
		})
		return remove, nil
	})
	var (
		cur  = x
		walk sched.Step
	)
	walk = a.step(func(ctx context.Context) (sched.Step, error) {
		a.enter(ctx, sched.SearchLock)
		if cur != x {
			cur.SetStatus(tree.Visited)
		}
		if cur == x {
			cur = x.RC()
		} else {
			cur = cur.LC()
		}
		cur.SetStatus(tree.Active)
		if cur != succ {
			return walk, nil
		}
		a.right("Step 2: Swap with Succ")
		return swap, nil
	})
	return walk
}

func (p *Playground) Traversal(ctx context.Context, method TraversalMethod) (*sched.Token, error) {
	if method >= _traversalMax {
		return nil, ErrUnknownTraversal
	}
	p.lock.Lock()
	a := p.beginLocked()
	var seq *tree.Sequence[float64]
	switch method {
	case Preorder:
		seq = a.t.PreorderTraversal()
	case Inorder:
		seq = a.t.InorderTraversal()
	case Postorder:
		seq = a.t.PostorderTraversal()
	default:
		seq = a.t.LevelTraversal()
	}
	p.topSeq = make([]tree.SeqItem[float64], 0, a.t.Size())
	p.messages.Left = method.String()
	first := a.traversal(seq)
	p.lock.Unlock()
	return p.submit(ctx, "traversal", sched.TraversalLock, a, first)
}

// InsertSequence inserts the values one after another, null and
// terminal items are skipped.
func (p *Playground) InsertSequence(ctx context.Context, seq []tree.SeqItem[float64]) (*sched.Token, error) {
	values := make([]tree.SeqItem[float64], 0, len(seq))
	for _, item := range seq {
		if item.Kind == tree.SeqValue {
			values = append(values, item)
		}
	}
	if len(values) == 0 {
		return nil, ErrEmptySequence
	}
	p.lock.Lock()
	if p.tree().Discipline() == tree.BinTreeType {
		p.messages.Right = "BinTree can't insert."
		p.lock.Unlock()
		return nil, tree.ErrUnsupported
	}
	a := p.beginLocked()
	p.topSeq = values
	first := a.insertNext()
	p.lock.Unlock()
	return p.submit(ctx, "insertSequence", sched.SearchLock, a, first)
}

// Search animates the search for e. The splay discipline then
// splays the found node, or hot on a miss, to the root.
func (p *Playground) Search(ctx context.Context, e float64) (*sched.Token, error) {
	p.lock.Lock()
	a := p.beginLocked()
	k := fmtKey(e)
	p.messages.Left = "Search " + k
	first := a.search(a.t.Root(), e, func(found bool, x *node) (sched.Step, error) {
		if found {
			a.right(k + " Found")
		} else {
			a.right(k + " Not Found")
		}
		if a.t.Discipline() != tree.SplayType || x == nil {
			return nil, nil
		}
		return a.splay(x, nil, a.done), nil
	})
	p.lock.Unlock()
	return p.submit(ctx, "search", sched.SearchLock, a, first)
}

// RemoveOne removes the node with the given id.
func (p *Playground) RemoveOne(ctx context.Context, nodeID uint64) (*sched.Token, error) {
	p.lock.Lock()
	if p.tree().FindByID(nodeID) == nil {
		p.lock.Unlock()
		return nil, tree.ErrNodeNotFound
	}
	a := p.beginLocked()
	// A cancelled removal may just have spliced the node out.
	x := a.t.FindByID(nodeID)
	if x == nil {
		p.lock.Unlock()
		return nil, tree.ErrNodeNotFound
	}
	p.messages.Left = "Remove " + fmtKey(x.Data())
	var first sched.Step
	switch a.t.Discipline() {
	case tree.RedBlackType:
		first = a.removeRedBlack(x)
	case tree.SplayType:
		first = a.removeSplay(x)
	default:
		first = a.removeSwap(x)
	}
	p.lock.Unlock()
	return p.submit(ctx, "removeOne", sched.SearchLock, a, first)
}
