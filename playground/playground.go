package playground

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/sched"
	"github.com/benz9527/xtree/store"
	"github.com/benz9527/xtree/xlog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const persistTimeout = 3 * time.Second

// Playground drives one tree per discipline, only the current
// one is shown and mutated.
type Playground struct {
	lock       sync.Mutex
	trees      map[tree.Discipline]*numTree
	params     CommonParams
	structInfo tree.StructInfo[float64]
	messages   Messages
	topSeq     []tree.SeqItem[float64]
	// epoch moves on every cancellation, a step of an older
	// epoch gives up before touching the tree.
	epoch uint64
	// pending restores the invariants a cancelled operation
	// left half done.
	pending  func()
	store    store.Store
	sched    *sched.Scheduler
	ownSched bool
	logger   xlog.XLogger
	listener Listener
}

type playgroundOption struct {
	store    store.Store
	sched    *sched.Scheduler
	logger   xlog.XLogger
	listener Listener
	params   CommonParams
}

type PlaygroundOption func(opt *playgroundOption)

func WithPlaygroundStore(s store.Store) PlaygroundOption {
	return func(opt *playgroundOption) {
		opt.store = s
	}
}

// WithPlaygroundScheduler shares a scheduler, the playground
// will not close it.
func WithPlaygroundScheduler(s *sched.Scheduler) PlaygroundOption {
	return func(opt *playgroundOption) {
		opt.sched = s
	}
}

func WithPlaygroundLogger(logger xlog.XLogger) PlaygroundOption {
	return func(opt *playgroundOption) {
		opt.logger = logger
	}
}

func WithPlaygroundListener(l Listener) PlaygroundOption {
	return func(opt *playgroundOption) {
		opt.listener = l
	}
}

// WithPlaygroundTreeType is the discipline shown when nothing
// was saved before.
func WithPlaygroundTreeType(d tree.Discipline) PlaygroundOption {
	return func(opt *playgroundOption) {
		opt.params.CurTreeType = d
	}
}

func WithPlaygroundTreeScale(scale float64) PlaygroundOption {
	return func(opt *playgroundOption) {
		if scale > 0 {
			opt.params.TreeScale = scale
		}
	}
}

func NewPlayground(opts ...PlaygroundOption) (*Playground, error) {
	opt := &playgroundOption{
		params: CommonParams{CurTreeType: tree.BSTType, TreeScale: 1.0},
	}
	for _, o := range opts {
		if o != nil {
			o(opt)
		}
	}
	sample, err := tree.GenSampleTree[float64](opt.params.CurTreeType)
	if err != nil {
		return nil, err
	}
	if opt.logger == nil {
		opt.logger = xlog.NewNopXLogger()
	}
	if opt.store == nil {
		opt.store = store.NewMemStore()
	}
	ownSched := false
	if opt.sched == nil {
		s, err := sched.NewScheduler(sched.WithSchedulerLogger(opt.logger))
		if err != nil {
			return nil, err
		}
		opt.sched, ownSched = s, true
	}
	opt.params.Interval = opt.sched.Interval().Milliseconds()
	p := &Playground{
		trees:    make(map[tree.Discipline]*numTree, len(tree.Disciplines())),
		params:   opt.params,
		store:    opt.store,
		sched:    opt.sched,
		ownSched: ownSched,
		logger:   opt.logger,
		listener: opt.listener,
	}
	// Usable before Init, with nothing restored.
	p.trees[opt.params.CurTreeType] = sample
	p.structInfo = sample.CalStructInfo(tree.WithLayoutScale(opt.params.TreeScale))
	return p, nil
}

func (p *Playground) tree() *numTree {
	return p.trees[p.params.CurTreeType]
}

// Init restores the saved params and the tree of the current
// discipline. A missing or corrupt snapshot falls back to the
// sample tree. The step interval always comes from the
// scheduler.
func (p *Playground) Init(ctx context.Context) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.cancelLocked()
	clear(p.trees)

	data, err := p.store.Load(ctx, commonParamsKey)
	switch {
	case err == nil:
		params := p.params
		if err = json.Unmarshal(data, &params); err != nil {
			p.logger.ErrorStack(infra.WrapErrorStack(err), "[playground] corrupt common params, keep defaults")
			break
		}
		p.params.CurTreeType = params.CurTreeType
		if params.TreeScale > 0 {
			p.params.TreeScale = params.TreeScale
		}
	case errors.Is(err, store.ErrNotFound):
	default:
		p.logger.ErrorStack(err, "[playground] load common params, keep defaults")
	}
	return p.initLocked(ctx)
}

func (p *Playground) initLocked(ctx context.Context) error {
	d := p.params.CurTreeType
	p.messages.Right = "Init " + d.String()
	if p.trees[d] == nil {
		t, err := p.restoreTree(ctx, d)
		if err != nil {
			return err
		}
		p.trees[d] = t
	}
	p.resetLocked(false)
	return nil
}

func (p *Playground) restoreTree(ctx context.Context, d tree.Discipline) (*numTree, error) {
	data, err := p.store.Load(ctx, treeKey(d))
	switch {
	case err == nil:
		t, err := tree.UnmarshalTree[float64](data)
		if err == nil && t.Discipline() != d {
			err = infra.WrapErrorStackWithMessage(tree.ErrMalformedSnapshot, "discipline "+t.Discipline().String())
		}
		if err == nil {
			t.ResetStatus()
			return t, nil
		}
		p.messages.Right = "Error reading saved " + d.String()
		p.logger.ErrorStack(err, "[playground] corrupt tree snapshot, load sample", zap.String("type", d.String()))
	case errors.Is(err, store.ErrNotFound):
	default:
		p.logger.ErrorStack(err, "[playground] load tree snapshot, load sample", zap.String("type", d.String()))
	}
	return p.sampleTree(d)
}

func (p *Playground) sampleTree(d tree.Discipline) (*numTree, error) {
	t, err := tree.GenSampleTree[float64](d)
	if err != nil {
		return nil, err
	}
	p.messages.Left = "Load Sample " + d.String()
	return t, nil
}

// Reset cancels the running operation. all clears the messages
// and the top sequence as well.
func (p *Playground) Reset(all bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.resetLocked(all)
}

func (p *Playground) resetLocked(all bool) {
	p.cancelLocked()
	if all {
		p.messages = Messages{Right: "Reset"}
		p.topSeq = nil
	}
	p.updateLocked()
}

// Update refreshes the layout and saves the current tree.
func (p *Playground) Update() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.updateLocked()
}

// SwitchTree shows the tree of d, the running operation of the
// previous tree is cancelled.
func (p *Playground) SwitchTree(ctx context.Context, d tree.Discipline) error {
	if _, err := tree.NewTree[float64](d); err != nil {
		return err
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.cancelLocked()
	p.params.CurTreeType = d
	return p.initLocked(ctx)
}

func (p *Playground) LoadSampleTree() error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.cancelLocked()
	t, err := p.sampleTree(p.params.CurTreeType)
	if err != nil {
		return err
	}
	p.trees[p.params.CurTreeType] = t
	p.updateLocked()
	return nil
}

func (p *Playground) SetInterval(interval time.Duration) {
	p.sched.SetInterval(interval)
	p.lock.Lock()
	defer p.lock.Unlock()
	p.params.Interval = p.sched.Interval().Milliseconds()
	p.persistParamsLocked()
}

func (p *Playground) SetTreeScale(scale float64) error {
	if scale <= 0 {
		return ErrInvalidScale
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.params.TreeScale = scale
	p.updateLocked()
	return nil
}

func (p *Playground) View() View {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.viewLocked()
}

func (p *Playground) viewLocked() View {
	return View{
		Params:      p.params,
		StructInfo:  p.structInfo,
		Messages:    p.messages,
		TopSequence: slices.Clone(p.topSeq),
		Busy:        p.sched.Busy(),
	}
}

// CheckValidity validates the current tree against its
// discipline. A running remove swaps keys one step before it
// unlinks the node, so the check is refused while busy.
func (p *Playground) CheckValidity() (bool, string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	if err := p.idleLocked(); err != nil {
		return false, err.Error()
	}
	return tree.CheckValidity(p.tree())
}

func (p *Playground) Busy() bool {
	return p.sched.Busy()
}

// Wait blocks until every submitted operation finished.
func (p *Playground) Wait() {
	p.sched.Wait()
}

// Close cancels the running operation and releases the store.
func (p *Playground) Close() error {
	p.lock.Lock()
	p.cancelLocked()
	p.lock.Unlock()
	if p.ownSched {
		p.sched.Close()
	} else {
		p.sched.Wait()
	}
	return p.store.Close()
}

func (p *Playground) cancelLocked() {
	p.epoch++
	p.sched.CancelAll()
	if p.pending != nil {
		p.pending()
		p.pending = nil
	}
	if t := p.tree(); t != nil {
		t.ResetStatus()
		t.ResetHot()
	}
}

func (p *Playground) refreshLocked() {
	if t := p.tree(); t != nil {
		p.structInfo = t.CalStructInfo(tree.WithLayoutScale(p.params.TreeScale))
	}
	if p.listener != nil {
		p.listener.OnUpdate(p.viewLocked())
	}
}

func (p *Playground) updateLocked() {
	p.refreshLocked()
	p.persistLocked()
}

// persistLocked saves the current tree and the params. A store
// failure is logged, the playground keeps working in memory.
func (p *Playground) persistLocked() {
	t := p.tree()
	if t == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	data, err := tree.MarshalTree(t)
	if err == nil {
		err = p.store.Save(ctx, treeKey(t.Discipline()), data)
	}
	if err = multierr.Append(err, p.saveParams(ctx)); err != nil {
		p.logger.ErrorStack(err, "[playground] persist", zap.String("type", t.Discipline().String()))
	}
}

func (p *Playground) persistParamsLocked() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := p.saveParams(ctx); err != nil {
		p.logger.ErrorStack(err, "[playground] persist common params")
	}
}

func (p *Playground) saveParams(ctx context.Context) error {
	data, err := json.Marshal(p.params)
	if err != nil {
		return infra.WrapErrorStack(err)
	}
	return p.store.Save(ctx, commonParamsKey, data)
}
