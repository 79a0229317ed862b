package sched

import (
	"context"
)

// Category names the kind of work the current operation does.
// It moves with the operation phases, a splay search enters the
// rotation category once it starts rotating.
type Category uint8

const (
	GlobalLock Category = iota
	TraversalLock
	RotateLock
	SearchLock
	_categoryMax
)

var categoryNames = [...]string{
	GlobalLock:    "global",
	TraversalLock: "traversal",
	RotateLock:    "rotate",
	SearchLock:    "search",
}

func (c Category) String() string {
	if c < _categoryMax {
		return categoryNames[c]
	}
	return "unknown"
}

type Outcome uint8

const (
	Pending Outcome = iota
	Done
	Cancelled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
	}
	return "pending"
}

// Step is one atomic unit of an animated operation. It returns
// the next step, nil when the operation is complete.
type Step func(ctx context.Context) (Step, error)

type Operation struct {
	Name     string
	Category Category
	First    Step
	// OnFinish always runs after the last step, whatever the
	// outcome, so the caller can reconcile its state.
	OnFinish func(outcome Outcome, err error)
}

type SchedErr string

const (
	ErrOperationInProgress SchedErr = "[sched] another operation is in progress"
	ErrOperationCancelled  SchedErr = "[sched] operation cancelled"
	ErrSchedulerClosed     SchedErr = "[sched] scheduler closed"
	ErrEmptyOperation      SchedErr = "[sched] operation without step"
)

func (err SchedErr) Error() string {
	return string(err)
}
