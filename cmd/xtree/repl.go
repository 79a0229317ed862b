package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/playground"
	"github.com/benz9527/xtree/sched"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errUnknownCommand = errors.New("unknown command, try help")

const usage = `commands:
  show | json | check | help | quit
  type <BinTree|BST|AVL|Splay|RedBlack>   switch the tree
  sample | reset [all] | cancel | wait
  interval <duration> | scale <factor>
  trav <pre|in|post|level>                animated traversal
  insert <v>...                           animated insertion
  search <v>                              animated search
  remove <key>                            animated removal
  extr <parentKey|root> <l|r> <v>         insert into an external slot
  update <key> <v>                        change a key in place
  cut <key>                               remove the whole subtree
  build <v|null|end>...                   rebuild from a level-order sequence
  proper                                  print the proper level-order sequence
`

type repl struct {
	p   *playground.Playground
	out io.Writer
}

func newREPL(p *playground.Playground, out io.Writer) *repl {
	return &repl{p: p, out: out}
}

func (r *repl) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Run reads one command per line until quit, EOF or ctx is done.
func (r *repl) Run(ctx context.Context, in io.Reader) {
	r.printf("xtree playground, type help for the commands\n")
	sc := bufio.NewScanner(in)
	for ctx.Err() == nil {
		r.printf("> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		quit, err := r.exec(ctx, strings.Fields(line))
		if err != nil {
			r.printf("error: %v\n", err)
		}
		if quit {
			return
		}
	}
}

func (r *repl) show() {
	renderView(r.out, r.p.View())
}

func (r *repl) nodeID(arg string) (uint64, error) {
	key, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, err
	}
	for _, n := range r.p.View().StructInfo.Nodes {
		if n.Data == key {
			return n.ID, nil
		}
	}
	return 0, tree.ErrNodeNotFound
}

func needArgs(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expects %d argument(s)", n)
	}
	return nil
}

func (r *repl) exec(ctx context.Context, fields []string) (bool, error) {
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		r.printf("%s", usage)
	case "show":
		r.show()
	case "json":
		data, err := json.Marshal(r.p.View())
		if err != nil {
			return false, err
		}
		r.printf("%s\n", data)
	case "check":
		if r.p.Busy() {
			return false, sched.ErrOperationInProgress
		}
		if ok, reason := r.p.CheckValidity(); ok {
			r.printf("valid\n")
		} else {
			r.printf("invalid: %s\n", reason)
		}
	case "type":
		if err := needArgs(args, 1); err != nil {
			return false, err
		}
		d, err := tree.ParseDiscipline(args[0])
		if err != nil {
			return false, err
		}
		if err = r.p.SwitchTree(ctx, d); err != nil {
			return false, err
		}
		r.show()
	case "sample":
		if err := r.p.LoadSampleTree(); err != nil {
			return false, err
		}
		r.show()
	case "reset":
		r.p.Reset(len(args) > 0 && strings.EqualFold(args[0], "all"))
		r.show()
	case "cancel":
		r.p.Reset(false)
	case "wait":
		r.p.Wait()
		r.show()
	case "interval":
		if err := needArgs(args, 1); err != nil {
			return false, err
		}
		d, err := time.ParseDuration(args[0])
		if err != nil {
			return false, err
		}
		r.p.SetInterval(d)
	case "scale":
		if err := needArgs(args, 1); err != nil {
			return false, err
		}
		scale, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return false, err
		}
		return false, r.p.SetTreeScale(scale)
	default:
		return false, r.execTree(ctx, cmd, args)
	}
	return false, nil
}

// execTree runs the tree operations, the animated ones return
// at once and print their frames in the background.
func (r *repl) execTree(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "trav":
		if err := needArgs(args, 1); err != nil {
			return err
		}
		m, err := playground.ParseTraversalMethod(args[0])
		if err != nil {
			return err
		}
		_, err = r.p.Traversal(ctx, m)
		return err
	case "insert":
		seq, err := parseSeq(args)
		if err != nil {
			return err
		}
		_, err = r.p.InsertSequence(ctx, seq)
		return err
	case "search":
		if err := needArgs(args, 1); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}
		_, err = r.p.Search(ctx, v)
		return err
	case "remove":
		if err := needArgs(args, 1); err != nil {
			return err
		}
		id, err := r.nodeID(args[0])
		if err != nil {
			return err
		}
		_, err = r.p.RemoveOne(ctx, id)
		return err
	case "extr":
		return r.extrInsert(args)
	case "update":
		if err := needArgs(args, 2); err != nil {
			return err
		}
		id, err := r.nodeID(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}
		if err = r.p.IntrUpdate(id, v); err != nil {
			return err
		}
		r.show()
	case "cut":
		if err := needArgs(args, 1); err != nil {
			return err
		}
		id, err := r.nodeID(args[0])
		if err != nil {
			return err
		}
		n, err := r.p.RemoveBelow(id)
		if err != nil {
			return err
		}
		r.printf("%d nodes removed\n", n)
		r.show()
	case "build":
		seq, err := parseSeq(args)
		if err != nil {
			return err
		}
		ok, reason, err := r.p.TopBuild(seq)
		if err != nil {
			return err
		}
		if ok {
			r.printf("valid\n")
		} else {
			r.printf("invalid: %s\n", reason)
		}
		r.show()
	case "proper":
		r.printf("seq: %s\n", formatSeq(r.p.TopProper()))
	default:
		return errUnknownCommand
	}
	return nil
}

func (r *repl) extrInsert(args []string) error {
	if err := needArgs(args, 3); err != nil {
		return err
	}
	slot := tree.ExtrSlot{IsRoot: strings.EqualFold(args[0], "root")}
	if !slot.IsRoot {
		id, err := r.nodeID(args[0])
		if err != nil {
			return err
		}
		slot.ParentID = id
		switch strings.ToLower(args[1]) {
		case "l", "left":
			slot.IsLC = true
		case "r", "right":
		default:
			return fmt.Errorf("bad side %q, l or r", args[1])
		}
	}
	v, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return err
	}
	if _, err = r.p.ExtrInsert(slot, v); err != nil {
		return err
	}
	r.show()
	return nil
}
