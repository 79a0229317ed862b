package playground

import (
	"slices"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/sched"
)

// idleLocked refuses a direct mutation while an animated
// operation still owns the tree.
func (p *Playground) idleLocked() error {
	if p.sched.Busy() {
		p.messages.Right = "In Operation!"
		return sched.ErrOperationInProgress
	}
	return nil
}

// ExtrInsert attaches e into an external slot and returns the id
// of the new node. Ordered trees refuse duplicates and keys out
// of the in-order sequence, splay trees refuse the slot insert.
func (p *Playground) ExtrInsert(slot tree.ExtrSlot, e float64) (uint64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.idleLocked(); err != nil {
		return 0, err
	}
	t := p.tree()
	k := fmtKey(e)
	if t.Discipline() == tree.SplayType {
		p.messages.Right = "Can't insert at external nodes in SplayTree."
		return 0, tree.ErrUnsupported
	}
	if !slot.IsRoot && t.FindByID(slot.ParentID) == nil {
		return 0, tree.ErrNodeNotFound
	}
	if t.Ordered() {
		if t.StaticSearch(e) != nil {
			p.messages.Right = k + " Exists!"
			return 0, tree.ErrDuplicateKey
		}
		if !tree.CheckSlotOrder(t.BinTree, slot, e) {
			p.messages.Right = "Must maintain order."
			return 0, tree.ErrOrderViolation
		}
	}
	x, err := t.InsertAt(slot, e)
	if err != nil {
		return 0, err
	}
	t.ResetStatus()
	x.SetStatus(tree.Active)
	p.messages.Left = "Insert " + k
	p.updateLocked()
	return x.ID(), nil
}

// IntrUpdate overwrites the key of a node in place.
func (p *Playground) IntrUpdate(nodeID uint64, e float64) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.idleLocked(); err != nil {
		return err
	}
	t := p.tree()
	x := t.FindByID(nodeID)
	if x == nil {
		return tree.ErrNodeNotFound
	}
	k := fmtKey(e)
	if t.Ordered() {
		if t.StaticSearch(e) != nil {
			p.messages.Right = k + " Exists!"
			return tree.ErrDuplicateKey
		}
		if !tree.CheckNodeOrder(x, e) {
			p.messages.Right = "Must maintain order."
			return tree.ErrOrderViolation
		}
	}
	prev := fmtKey(x.Data())
	t.SetData(x, e)
	t.ResetStatus()
	x.SetStatus(tree.Active)
	p.messages.Left = "Change " + prev + " to " + k
	p.updateLocked()
	return nil
}

// RemoveBelow drops the whole subtree of a node and returns the
// number of removed nodes. A balanced discipline may be left
// invalid, the reason is shown.
func (p *Playground) RemoveBelow(nodeID uint64) (int64, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.idleLocked(); err != nil {
		return 0, err
	}
	t := p.tree()
	x := t.FindByID(nodeID)
	if x == nil {
		return 0, tree.ErrNodeNotFound
	}
	k := fmtKey(x.Data())
	n := t.RemoveBelow(x)
	t.ResetStatus()
	p.messages.Left = "Remove Below " + k
	if ok, reason := tree.CheckValidity(t); !ok {
		p.messages.Right = reason
	}
	p.updateLocked()
	return n, nil
}

// TopBuild rebuilds the current tree from a level-order
// sequence. The result is validated and reported, never fixed.
func (p *Playground) TopBuild(seq []tree.SeqItem[float64]) (bool, string, error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.idleLocked(); err != nil {
		return false, "", err
	}
	t := p.tree()
	t.BuildFromBinSequence(seq)
	p.messages.Left = "Build from proper level-order sequence"
	ok, reason := tree.CheckValidity(t)
	if !ok {
		p.messages.Right = reason
	}
	p.updateLocked()
	return ok, reason, nil
}

// TopProper puts the proper level-order sequence of the current
// tree into the top sequence.
func (p *Playground) TopProper() []tree.SeqItem[float64] {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.topSeq = p.tree().ProperSequence()
	p.refreshLocked()
	return slices.Clone(p.topSeq)
}
