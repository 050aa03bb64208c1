package graph

import (
	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
)

type imageUsage struct {
	id         ImageUsageID
	node       NodeID
	name       string
	kind       usageKind
	attachment attachmentKind
	constraint ImageConstraint
	clearValue *gpu.ClearValue
	inputUsage ImageUsageID // upstream version this usage reads/modifies from; -1 if none
	sampled    bool

	resolvedSpec ImageSpecification
	virtualID    VirtualImageID

	isOutput         bool
	outputFinalState gpu.ResourceState
}

type bufferUsage struct {
	id         BufferUsageID
	node       NodeID
	name       string
	kind       usageKind
	constraint BufferConstraint
	inputUsage BufferUsageID

	resolvedSpec BufferSpecification
	virtualID    VirtualBufferID
}

// ViewPhaseRef names one (view, phase) block a node's pass requires write
// dispatch for.
type ViewPhaseRef struct {
	View  view.FrameIndex
	Phase registry.PhaseIndex
}

// SubmitDispatcher fetches and replays a sorted submit-node block for one
// (view, phase) pair, recording GPU commands via encoder. pipeline.Driver
// satisfies this by structural typing; graph never imports pipeline.
type SubmitDispatcher interface {
	Dispatch(viewIndex view.FrameIndex, phase registry.PhaseIndex, encoder gpu.CommandEncoder) error
}

// VisitContext is handed to a node's optional VisitFunc for any GPU
// commands beyond the automatic per-required-phase write dispatch the
// executor already performs (e.g. a full-screen blit, a clear, a compute
// dispatch with no associated phase).
type VisitContext struct {
	Encoder    gpu.CommandEncoder
	Dispatcher SubmitDispatcher
}

// VisitFunc is a node's custom pass body, run after its required (view,
// phase) blocks have been automatically dispatched.
type VisitFunc func(ctx *VisitContext) error

// Node is one user-declared pass: a name, its declared image/buffer usages,
// the (view, phase) blocks it requires write dispatch for, and an optional
// visit callback.
type Node struct {
	id   NodeID
	name string

	colorAttachments map[int]ImageUsageID
	depthAttachment  *ImageUsageID
	sampledImages    []ImageUsageID
	bufferUsages     []BufferUsageID

	// resolveAttachments maps an MSAA color-write usage to the
	// single-sample resolve usage inserted for it, keyed by the write's
	// ImageUsageID. Populated only by the MSAA-resolve-insertion pass.
	resolveAttachments map[ImageUsageID]ImageUsageID

	requiredPhases []ViewPhaseRef
	visit          VisitFunc
}

func (n *Node) allImageUsageIDs() []ImageUsageID {
	ids := make([]ImageUsageID, 0, len(n.colorAttachments)+1+len(n.sampledImages)+len(n.resolveAttachments))
	for _, id := range n.colorAttachments {
		ids = append(ids, id)
	}
	if n.depthAttachment != nil {
		ids = append(ids, *n.depthAttachment)
	}
	ids = append(ids, n.sampledImages...)
	for _, id := range n.resolveAttachments {
		ids = append(ids, id)
	}
	return ids
}
