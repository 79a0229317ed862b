package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/playground"
)

// syncWriter is shared by the prompt and the frames printed from
// the scheduler goroutines.
type syncWriter struct {
	lock sync.Mutex
	w    io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.lock.Lock()
	defer sw.lock.Unlock()
	return sw.w.Write(p)
}

func fmtKey(e float64) string {
	return strconv.FormatFloat(e, 'f', -1, 64)
}

// nodeLabel marks the status with a prefix, * active, ' visited
// and ~ deprecated. Red nodes get an r suffix.
func nodeLabel(n tree.NodeInfo[float64]) string {
	label := fmtKey(n.Data)
	if n.Color == tree.Red {
		label += "r"
	}
	switch n.Status {
	case tree.Active:
		label = "*" + label
	case tree.Visited:
		label = "'" + label
	case tree.Deprecated:
		label = "~" + label
	default:
	}
	return label
}

// renderView draws one line per depth, the columns follow the
// in-order rank the same way the layout does.
func renderView(w io.Writer, view playground.View) {
	_, _ = fmt.Fprintf(w, "[%s] %s | %s\n", view.Params.CurTreeType, view.Messages.Left, view.Messages.Right)
	nodes := view.StructInfo.Nodes
	if len(nodes) == 0 {
		_, _ = fmt.Fprintln(w, "(empty)")
	}
	labels := make([]string, len(nodes))
	width, depth := 0, 0
	for i, n := range nodes {
		labels[i] = nodeLabel(n)
		width = max(width, len(labels[i]))
		depth = max(depth, n.Depth)
	}
	width++
	for d := 0; len(nodes) > 0 && d <= depth; d++ {
		b := strings.Builder{}
		for i, n := range nodes {
			cell := ""
			if n.Depth == d {
				cell = labels[i]
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", width-len(cell)))
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
	if len(view.TopSequence) > 0 {
		_, _ = fmt.Fprintln(w, "seq:", formatSeq(view.TopSequence))
	}
}

func formatSeq(seq []tree.SeqItem[float64]) string {
	items := make([]string, 0, len(seq))
	for _, item := range seq {
		switch item.Kind {
		case tree.SeqNull:
			items = append(items, "null")
		case tree.SeqEnd:
			items = append(items, "end")
		default:
			items = append(items, fmtKey(item.Val))
		}
	}
	return strings.Join(items, " ")
}

// parseSeq reads a level-order sequence, null (or #) is an absent
// child and end (or $) the terminal marker.
func parseSeq(fields []string) ([]tree.SeqItem[float64], error) {
	seq := make([]tree.SeqItem[float64], 0, len(fields))
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "null", "#", "-":
			seq = append(seq, tree.SeqNil[float64]())
		case "end", "$":
			seq = append(seq, tree.SeqTerm[float64]())
		default:
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("bad sequence item %q", f)
			}
			seq = append(seq, tree.SeqVal(v))
		}
	}
	return seq, nil
}

// frameListener prints every frame of an animated operation.
func frameListener(w io.Writer) playground.Listener {
	return playground.ListenerFunc(func(view playground.View) {
		if view.Busy {
			renderView(w, view)
		}
	})
}
