// Package id hands out the non-zero ids of tree nodes and of the
// scheduler lock tokens. Zero always means "no id".
package id

import (
	"strconv"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

type Generator interface {
	Number() uint64
	Str() string
	// Last is the most recent id, or the floor if none was
	// generated yet.
	Last() uint64
}

var _ Generator = (*monotonicNonZeroID)(nil)

const padSize = unsafe.Sizeof(cpu.CacheLinePad{}) - unsafe.Sizeof(atomic.Uint64{})

// monotonicNonZeroID skips zero on wrap around. It sits on its own
// cache line, tokens are generated by the caller while the worker
// pool bumps node ids of the same tree.
type monotonicNonZeroID struct {
	_   [padSize]byte
	val atomic.Uint64
	_   [padSize]byte
}

func (g *monotonicNonZeroID) Number() uint64 {
	v := g.val.Add(1)
	if v == 0 {
		v = g.val.Add(1)
	}
	return v
}

func (g *monotonicNonZeroID) Str() string {
	return strconv.FormatUint(g.Number(), 10)
}

func (g *monotonicNonZeroID) Last() uint64 {
	return g.val.Load()
}

func MonotonicNonZeroID() (Generator, error) {
	return MonotonicNonZeroIDFrom(0)
}

// MonotonicNonZeroIDFrom resumes after floor, a decoded tree
// passes its largest node id so new nodes never collide.
func MonotonicNonZeroIDFrom(floor uint64) (Generator, error) {
	g := &monotonicNonZeroID{}
	g.val.Store(floor)
	return g, nil
}
