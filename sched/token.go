package sched

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/benz9527/xtree/lib/id"
)

// Token is the lock of the current operation. Releasing it from
// outside cancels the operation before its next step.
type Token struct {
	id       uint64
	category atomic.Uint32
	released atomic.Bool
	done     chan struct{}
	finished chan struct{}
	release  sync.Once
	outcome  Outcome
	err      error
}

func newToken(tokenID uint64, cat Category) *Token {
	tok := &Token{
		id:       tokenID,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	tok.category.Store(uint32(cat))
	return tok
}

func (tok *Token) ID() uint64 {
	return tok.id
}

func (tok *Token) Category() Category {
	return Category(tok.category.Load())
}

// Enter moves the token into another phase and reports whether
// it is still held.
func (tok *Token) Enter(cat Category) bool {
	tok.category.Store(uint32(cat))
	return tok.Held()
}

func (tok *Token) Held() bool {
	return !tok.released.Load()
}

func (tok *Token) Release() {
	tok.release.Do(func() {
		tok.released.Store(true)
		close(tok.done)
	})
}

// Done is closed once the token is released.
func (tok *Token) Done() <-chan struct{} {
	return tok.done
}

// Finished is closed after the operation and its OnFinish
// returned.
func (tok *Token) Finished() <-chan struct{} {
	return tok.finished
}

// Result is meaningful once Finished is closed.
func (tok *Token) Result() (Outcome, error) {
	select {
	case <-tok.finished:
		return tok.outcome, tok.err
	default:
	}
	return Pending, nil
}

func (tok *Token) finish(outcome Outcome, err error) {
	tok.outcome, tok.err = outcome, err
	tok.Release()
	close(tok.finished)
}

type tokenCtxKey struct{}

func withToken(ctx context.Context, tok *Token) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, tok)
}

// TokenFrom returns the token of the operation a step belongs
// to, nil outside of a step.
func TokenFrom(ctx context.Context) *Token {
	if ctx == nil {
		return nil
	}
	tok, _ := ctx.Value(tokenCtxKey{}).(*Token)
	return tok
}

// LockTable holds the single current operation token. Acquiring
// a new token invalidates the previous one.
type LockTable struct {
	lock    sync.Mutex
	current *Token
	ids     id.Generator
}

func NewLockTable() *LockTable {
	gen, err := id.MonotonicNonZeroID()
	if err != nil {
		panic(err)
	}
	return &LockTable{ids: gen}
}

func (lt *LockTable) Acquire(cat Category) *Token {
	lt.lock.Lock()
	defer lt.lock.Unlock()
	if lt.current != nil {
		lt.current.Release()
	}
	lt.current = newToken(lt.ids.Number(), cat)
	return lt.current
}

// CancelAll releases the current token.
func (lt *LockTable) CancelAll() {
	lt.lock.Lock()
	defer lt.lock.Unlock()
	if lt.current != nil {
		lt.current.Release()
		lt.current = nil
	}
}

// clear drops tok if it is still the current one.
func (lt *LockTable) clear(tok *Token) {
	lt.lock.Lock()
	defer lt.lock.Unlock()
	if lt.current == tok {
		lt.current = nil
	}
}

func (lt *LockTable) Current() *Token {
	lt.lock.Lock()
	defer lt.lock.Unlock()
	return lt.current
}

func (lt *LockTable) IsLocked(cat Category) bool {
	tok := lt.Current()
	return tok != nil && tok.Held() && tok.Category() == cat
}

func (lt *LockTable) IsAnyLocked() bool {
	tok := lt.Current()
	return tok != nil && tok.Held()
}
