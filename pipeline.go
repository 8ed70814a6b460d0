package pixelpipe

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/parallel"
	"github.com/rawforge/pixelpipe/internal/paramdesc"
	"github.com/rawforge/pixelpipe/iop"
	"github.com/rawforge/pixelpipe/ioporder"
	"github.com/rawforge/pixelpipe/roi"

	// Built-in operations register themselves against iop.Default and
	// paramdesc.Default from their init() functions; importing for side
	// effect is how a caller opts into the engine's default module set,
	// the same pattern recording.Register backends use.
	_ "github.com/rawforge/pixelpipe/iop/builtin"
)

// ModuleInstance is one operation bound to a position in a Pipeline's
// chain: its static iop.Descriptor, its render-local piece data, and its
// current parameter record (spec glossary: "module instance").
type ModuleInstance struct {
	Op       string
	Instance int
	Enabled  bool
	Params   []byte

	desc *iop.Descriptor
	rank int

	mu       sync.Mutex
	piece    iop.Piece
	cache    renderCache
	forceOff bool // set when CommitParams asks to force-disable the module
}

// renderCache memoizes the single most recent render's output so an
// unchanged module can skip recomputation (spec §4.6 step 3 "skip rule").
// This is deliberately a single slot, not a multi-entry LRU: spec.md's
// Non-goals rule out an interactive preview cache, and one render request
// at a time is the engine's whole contract (Render is not safe to call
// concurrently on one Pipeline).
type renderCache struct {
	valid      bool
	roiIn      roi.Record
	paramsHash uint64
	output     *buffer.Buf
}

// Pipeline is an ordered chain of module instances rendering from one
// source Image (spec C4).
type Pipeline struct {
	mu       sync.Mutex
	img      *Image
	modules  []*ModuleInstance
	order    ioporder.Kind
	opts     pipelineOptions
	pool     *parallel.Pool
	cancel   atomic.Bool
	registry *iop.Registry
	params   *paramdesc.Registry
}

// New builds a Pipeline for img using the built-in module set and the
// IOP order table named by WithIOPOrder (default "v5.0-raw").
func New(img *Image, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	kind := ioporder.ParseKind(o.iopOrderKind)
	if kind == ioporder.Custom {
		return nil, coded(CodeInvalidArg, fmt.Errorf("pixelpipe: unknown iop order %q", o.iopOrderKind))
	}

	p := &Pipeline{
		img:      img,
		order:    kind,
		opts:     o,
		pool:     parallel.NewPool(o.workers),
		registry: iop.Default,
		params:   paramdesc.Default,
	}

	for _, entry := range ioporder.ListFor(kind) {
		inst, err := p.newModuleInstance(entry)
		if err != nil {
			p.pool.Close()
			return nil, err
		}
		p.modules = append(p.modules, inst)
	}
	return p, nil
}

func (p *Pipeline) newModuleInstance(entry ioporder.Entry) (*ModuleInstance, error) {
	desc, ok := p.registry.Lookup(entry.Op)
	if !ok {
		return nil, coded(CodeNotFound, fmt.Errorf("%w: %q", ErrUnknownModule, entry.Op))
	}
	rec, err := p.params.NewRecord(entry.Op)
	if err != nil {
		return nil, coded(CodeParameterType, fmt.Errorf("pixelpipe: %q has no parameter table: %w", entry.Op, err))
	}
	var piece iop.Piece
	if desc.InitPiece != nil {
		piece = desc.InitPiece()
	}
	inst := &ModuleInstance{
		Op:       entry.Op,
		Instance: entry.Instance,
		Enabled:  true,
		Params:   rec,
		desc:     desc,
		rank:     entry.IOPOrder,
		piece:    piece,
	}
	if desc.CommitParams != nil {
		forceOff, err := desc.CommitParams(piece, rec)
		if err != nil {
			return nil, wrapRenderError(entry.Op, entry.Instance, err)
		}
		inst.forceOff = forceOff
	}
	return inst, nil
}

// Close releases the Pipeline's worker pool. A Pipeline is unusable
// after Close.
func (p *Pipeline) Close() {
	p.pool.Close()
}

// Enumerate returns the pipeline's module instances in execution order
// (spec C4 "enumerate").
func (p *Pipeline) Enumerate() []*ModuleInstance {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*ModuleInstance, len(p.modules))
	copy(out, p.modules)
	return out
}

// find returns the first module instance registered under op (instance
// 0), or an error if op is not in the chain.
func (p *Pipeline) find(op string) (*ModuleInstance, error) {
	for _, m := range p.modules {
		if m.Op == op {
			return m, nil
		}
	}
	return nil, coded(CodeNotFound, fmt.Errorf("%w: %q", ErrUnknownModule, op))
}

// Enable toggles whether op runs during Render. Disabled modules pass
// their input through unchanged (spec §4.4 "a disabled module is a
// no-op pass-through").
func (p *Pipeline) Enable(op string, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.find(op)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.Enabled = enabled
	m.cache.valid = false
	m.mu.Unlock()
	return nil
}

// Enabled reports whether op is currently enabled and not force-disabled
// by its own CommitParams hook (spec §4.4: a module may force itself off
// for the current source).
func (p *Pipeline) Enabled(op string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.find(op)
	if err != nil {
		return false, err
	}
	return m.Enabled && !m.forceOff, nil
}

// SetFloat writes a float parameter into op's record and re-commits it,
// invalidating the module's render cache.
func (p *Pipeline) SetFloat(op, field string, v float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.find(op)
	if err != nil {
		return err
	}
	if _, err := p.params.SetFloat(m.Params, op, field, v); err != nil {
		return coded(paramCode(err), err)
	}
	return p.recommit(m)
}

// SetInt writes an integer parameter into op's record and re-commits it.
func (p *Pipeline) SetInt(op, field string, v int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.find(op)
	if err != nil {
		return err
	}
	if _, err := p.params.SetInt(m.Params, op, field, v); err != nil {
		return coded(paramCode(err), err)
	}
	return p.recommit(m)
}

// SetBool writes a bool parameter into op's record and re-commits it.
func (p *Pipeline) SetBool(op, field string, v bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.find(op)
	if err != nil {
		return err
	}
	if err := p.params.SetBool(m.Params, op, field, v); err != nil {
		return coded(paramCode(err), err)
	}
	return p.recommit(m)
}

// GetFloat reads a float parameter from op's current record.
func (p *Pipeline) GetFloat(op, field string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.find(op)
	if err != nil {
		return 0, err
	}
	v, err := p.params.GetFloat(m.Params, op, field)
	if err != nil {
		return 0, coded(paramCode(err), err)
	}
	return v, nil
}

// IOPOrderKind returns the name of the built-in IOP order table this
// Pipeline was constructed with (ioporder.Kind's String() form, e.g.
// "v5.0-raw"). History documents persist this under settings.iop_order.
func (p *Pipeline) IOPOrderKind() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.String()
}

// LoadRawParams overwrites op's entire parameter record with raw. Package
// history's sidecar format persists whole records as hex rather than
// per-field text (spec §4.9 "Sidecar format"), so loading it bypasses the
// per-field accessors. raw must match op's declared record size exactly;
// a mismatched length is rejected without writing (spec §7: "out-of-extent
// ... skip").
func (p *Pipeline) LoadRawParams(op string, raw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, err := p.find(op)
	if err != nil {
		return err
	}
	want, err := p.params.RecordSize(op)
	if err != nil {
		return coded(CodeNotFound, err)
	}
	if len(raw) != want {
		return coded(CodeParameterType, fmt.Errorf("pixelpipe: %q record size %d, got %d", op, want, len(raw)))
	}
	copy(m.Params, raw)
	return p.recommit(m)
}

func (p *Pipeline) recommit(m *ModuleInstance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.desc.CommitParams != nil {
		forceOff, err := m.desc.CommitParams(m.piece, m.Params)
		if err != nil {
			return wrapRenderError(m.Op, m.Instance, err)
		}
		m.forceOff = forceOff
	}
	m.cache.valid = false
	return nil
}

// InvalidateCache discards every module's render cache, forcing the
// next Render to recompute the whole chain (spec §4.6: "invalidate
// cache" after a history load or a source-image swap).
func (p *Pipeline) InvalidateCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range p.modules {
		m.mu.Lock()
		m.cache.valid = false
		m.mu.Unlock()
	}
}

// Cancel requests the running (or next) Render call to stop at the next
// between-module checkpoint (spec §4.6 step 4 "cooperative cancellation").
// The flag is sticky: a subsequent Render returns ErrRenderCancelled
// immediately until ResetCancel clears it.
func (p *Pipeline) Cancel() {
	p.cancel.Store(true)
}

// ResetCancel clears a pending cancellation, allowing the next Render
// call to proceed normally.
func (p *Pipeline) ResetCancel() {
	p.cancel.Store(false)
}
