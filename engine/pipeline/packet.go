package pipeline

import (
	"sort"
	"sync"

	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
	"github.com/spaghettifunk/forgegraph/engine/visibility"
)

// SubmitNode is one draw/dispatch emitted by a feature's prepare stage into a
// phase's block, ordered within that block by Sort (the phase's
// registry.SubmitNodeComparator decides what Sort means: depth for opaque,
// negated depth for transparent, and so on).
type SubmitNode struct {
	FeatureIndex           registry.FeatureIndex
	RenderObjectInstanceID uint64
	SubmitNodeID           uint32
	Sort                   float32
}

func (n SubmitNode) SortKey() float32 { return n.Sort }

// ViewFramePacket is the per-view slice of a frame's extracted data: the
// view itself and the visible instances a feature should extract from.
type ViewFramePacket struct {
	View      *view.RenderView
	Instances []visibility.RenderObjectInstancePerView
}

// FramePacket is the extract stage's output and the prepare stage's input.
// FrameData carries whatever feature-private, type-erased payload Extract
// produced (a features.FeatureFramePacket in spec terms); Go has no
// generic-over-heterogeneous-fields struct, so this is carried as `any` and
// features type-assert it back in Prepare.
type FramePacket struct {
	FrameData any
	PerView   []ViewFramePacket
}

// ViewSubmitPacket accumulates one view's submit nodes, grouped by phase.
// The reference design describes a lock-free write-once cell per node
// slot; Go's idiomatic equivalent for an append-only collector built
// concurrently from many goroutines is a mutex-guarded slice, which is what
// this does. Contention is low (one lock acquisition per feature per
// phase, not per node) so this does not become a bottleneck.
type ViewSubmitPacket struct {
	mu     sync.Mutex
	blocks map[registry.PhaseIndex][]SubmitNode
	sorted map[registry.PhaseIndex][]SubmitNode
}

func newViewSubmitPacket() *ViewSubmitPacket {
	return &ViewSubmitPacket{blocks: make(map[registry.PhaseIndex][]SubmitNode)}
}

// PushNodes appends nodes to a phase's block. Safe for concurrent use by
// multiple features' prepare stages targeting the same view.
func (p *ViewSubmitPacket) PushNodes(phase registry.PhaseIndex, nodes ...SubmitNode) {
	p.mu.Lock()
	p.blocks[phase] = append(p.blocks[phase], nodes...)
	p.mu.Unlock()
}

// Block returns a phase's accumulated, unsorted submit nodes.
func (p *ViewSubmitPacket) Block(phase registry.PhaseIndex) []SubmitNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SubmitNode, len(p.blocks[phase]))
	copy(out, p.blocks[phase])
	return out
}

// sortPhases sorts and caches every phase this view has nodes for,
// according to the registry's per-phase comparator. Called once per view
// during the submit-block-build stage so later write dispatch reads a
// precomputed order instead of re-sorting per draw call.
func (p *ViewSubmitPacket) sortPhases(reg *registry.Registry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sorted = make(map[registry.PhaseIndex][]SubmitNode, len(p.blocks))
	for phase, nodes := range p.blocks {
		out := make([]SubmitNode, len(nodes))
		copy(out, nodes)
		sortNodes(out, reg.PhaseComparator(phase))
		p.sorted[phase] = out
	}
}

// SortedBlock returns a phase's submit nodes in comparator order, as
// computed by the most recent sortPhases call. Returns nil if the phase
// was never pushed to or sortPhases has not run yet.
func (p *ViewSubmitPacket) SortedBlock(phase registry.PhaseIndex) []SubmitNode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sorted[phase]
}

// SubmitPacket is the full frame's submit output, one ViewSubmitPacket per
// view, indexed by view.FrameIndex.
type SubmitPacket struct {
	views []*ViewSubmitPacket
}

func newSubmitPacket(viewCount int) *SubmitPacket {
	sp := &SubmitPacket{views: make([]*ViewSubmitPacket, viewCount)}
	for i := range sp.views {
		sp.views[i] = newViewSubmitPacket()
	}
	return sp
}

// View returns the submit packet for one view by its frame index.
func (sp *SubmitPacket) View(index view.FrameIndex) *ViewSubmitPacket {
	return sp.views[index]
}

// BuildBlocks runs the submit-block-build stage for one view: every phase
// it has accumulated nodes for is sorted by that phase's comparator and
// cached for SortedBlock.
func (sp *SubmitPacket) BuildBlocks(reg *registry.Registry, index view.FrameIndex) {
	sp.View(index).sortPhases(reg)
}

// SortedBlock returns a view's submit nodes for one phase in comparator
// order. BuildBlocks must have run for that view first; an empty slice is
// returned otherwise.
func (sp *SubmitPacket) SortedBlock(index view.FrameIndex, phase registry.PhaseIndex) []SubmitNode {
	return sp.View(index).SortedBlock(phase)
}

func sortNodes(nodes []SubmitNode, cmp registry.SubmitNodeComparator) {
	sort.Slice(nodes, func(i, j int) bool {
		if cmp != nil {
			return cmp(nodes[i], nodes[j])
		}
		return nodes[i].Sort < nodes[j].Sort
	})
}
