// Package iop implements the IOP module registry (spec C3): one static,
// immutable descriptor per operation, holding its identity, feature
// flags, and the hook functions the scheduler and ROI propagation call.
//
// Registration follows the same database/sql-style pattern the teacher
// library uses for its recording backends (recording.Register): each
// built-in operation registers itself from its package's init(), and a
// duplicate or nil registration panics at program startup rather than
// failing silently at first use.
package iop

import (
	"fmt"
	"sync"

	"github.com/rawforge/pixelpipe/internal/buffer"
	"github.com/rawforge/pixelpipe/internal/colorspace"
	"github.com/rawforge/pixelpipe/roi"
)

// Flags are feature bits a module's static descriptor carries.
type Flags uint32

const (
	SupportsBlending Flags = 1 << iota
	AllowTiling
	OneInstance
	NoMasks
	Deprecated
	Distort
	Fence
)

// Has reports whether f includes all bits in want.
func (f Flags) Has(want Flags) bool { return f&want == want }

// TilingSpec describes a module's tiled-execution requirements (spec
// §4.3): the memory multiplier relative to input+output size, fixed
// overhead, the per-tile overlap a kernel's support needs from its
// neighbors, and the pixel alignment tile boundaries must respect.
type TilingSpec struct {
	Factor   float64
	Overhead int64
	Overlap  int
	Align    int
}

// DefaultTiling is the descriptor's tiling-requirements default when a
// module declares none (spec §4.3: "default {factor=2, overlap=0,
// align=1}").
var DefaultTiling = TilingSpec{Factor: 2, Overhead: 0, Overlap: 0, Align: 1}

// Piece is the opaque, pipeline-local, render-local data block a module
// instance owns for the duration of one render (spec glossary: "Piece").
// Concrete modules define their own piece struct and type-assert it back
// out of the Piece returned by InitPiece.
type Piece any

// ProcessFunc is a module's pixel kernel: given its piece data, the input
// buffer (already converted to the module's declared input colorspace)
// and an allocated output buffer, it must fill output's samples for
// roi-out given input covers roi-in.
type ProcessFunc func(piece Piece, input, output *buffer.Buf, roiIn, roiOut roi.Record) error

// Descriptor is one operation's static, process-wide-singleton
// registration. All fields are set once at Register time and never
// mutated afterward (spec §3: "Immutable once registered").
type Descriptor struct {
	Name  string
	Flags Flags

	// Process is the pixel kernel. A nil Process is a valid
	// registration for partial builds (spec §4.4: "a module with a null
	// process pointer is skipped with a warning") but such a module can
	// never actually run.
	Process ProcessFunc

	// ModifyROIOut/ModifyROIIn default to identity when nil (spec §4.3).
	ModifyROIOut func(piece Piece, roiIn roi.Record) roi.Record
	ModifyROIIn  func(piece Piece, roiOut roi.Record) roi.Record

	// OutputFormat may mutate a copy of the upstream buffer descriptor
	// before this module writes its output (e.g. demosaic flips
	// Channels 1->4). Default: no change.
	OutputFormat func(piece Piece, desc buffer.Descriptor) buffer.Descriptor

	// InputColorspace/OutputColorspace declare the colorspace tag the
	// module expects on input and produces on output; a nil hook means
	// "whatever arrives, unchanged".
	InputColorspace  func(piece Piece) colorspace.Tag
	OutputColorspace func(piece Piece) colorspace.Tag

	// InitPiece/CleanupPiece allocate/free the module's per-render data.
	InitPiece    func() Piece
	CleanupPiece func(Piece)

	// CommitParams copies validated parameters from a parameter record
	// into piece data; it may set an out-parameter through the returned
	// bool to force the module to act disabled for this image. None of
	// the built-in modules sets it; demosaic handles a non-mosaic source
	// in its OutputFormat hook instead.
	CommitParams func(piece Piece, params []byte) (forceDisabled bool, err error)

	// TilingRequirements defaults to DefaultTiling when nil.
	TilingRequirements func(piece Piece, roiIn, roiOut roi.Record) TilingSpec
}

// modifyROIOut returns d's forward ROI hook, defaulted to identity.
func (d *Descriptor) modifyROIOut(piece Piece, in roi.Record) roi.Record {
	if d.ModifyROIOut == nil {
		return roi.Identity(in)
	}
	return d.ModifyROIOut(piece, in)
}

// modifyROIIn returns d's backward ROI hook, defaulted to identity.
func (d *Descriptor) modifyROIIn(piece Piece, out roi.Record) roi.Record {
	if d.ModifyROIIn == nil {
		return roi.Identity(out)
	}
	return d.ModifyROIIn(piece, out)
}

// ModifyOutHook adapts d into a roi.ModifyOut bound to one piece.
func (d *Descriptor) ModifyOutHook(piece Piece) roi.ModifyOut {
	return func(in roi.Record) roi.Record { return d.modifyROIOut(piece, in) }
}

// ModifyInHook adapts d into a roi.ModifyIn bound to one piece.
func (d *Descriptor) ModifyInHook(piece Piece) roi.ModifyIn {
	return func(out roi.Record) roi.Record { return d.modifyROIIn(piece, out) }
}

// OutputFormatFor returns d's output buffer descriptor given the upstream
// descriptor, defaulted to no change.
func (d *Descriptor) OutputFormatFor(piece Piece, upstream buffer.Descriptor) buffer.Descriptor {
	if d.OutputFormat == nil {
		return upstream
	}
	return d.OutputFormat(piece, upstream)
}

// Tiling returns d's tiling requirements, defaulted to DefaultTiling.
func (d *Descriptor) Tiling(piece Piece, roiIn, roiOut roi.Record) TilingSpec {
	if d.TilingRequirements == nil {
		return DefaultTiling
	}
	return d.TilingRequirements(piece, roiIn, roiOut)
}

// Registry is a process-wide table of operation descriptors.
type Registry struct {
	mu    sync.RWMutex
	descs map[string]*Descriptor
}

// Default is the registry built-in operations register themselves into.
var Default = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{descs: make(map[string]*Descriptor)}
}

// Register installs d under d.Name. Register panics if d is nil, d.Name
// is empty, or an operation with that name is already registered —
// mirroring recording.Register's fail-fast contract for duplicate names.
func (r *Registry) Register(d *Descriptor) {
	if d == nil {
		panic("iop: Register called with nil descriptor")
	}
	if d.Name == "" {
		panic("iop: Register called with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.descs[d.Name]; dup {
		panic(fmt.Sprintf("iop: Register called twice for %q", d.Name))
	}
	r.descs[d.Name] = d
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descs[name]
	return d, ok
}

// Names returns every registered operation name, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.descs))
	for name := range r.descs {
		out = append(out, name)
	}
	return out
}
