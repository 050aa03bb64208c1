package graph

import (
	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
)

// Builder accumulates one frame's declarative pass graph: nodes and their
// image/buffer usages. Compile() reduces it to a RenderGraphPlan. A
// Builder is single-use — build a fresh one every frame.
type Builder struct {
	nodes        []*Node
	imageUsages  []imageUsage
	bufferUsages []bufferUsage
}

func NewBuilder() *Builder {
	return &Builder{}
}

// NodeHandle scopes the per-node usage-declaration methods to the node
// that created it.
type NodeHandle struct {
	b *Builder
	n *Node
}

// CreateNode declares a new pass. Passes are identified by declaration
// order for tie-breaking in the topological sort, but the actual plan
// order follows dependency order, not declaration order.
func (b *Builder) CreateNode(name string) *NodeHandle {
	n := &Node{id: NodeID(len(b.nodes)), name: name, colorAttachments: make(map[int]ImageUsageID)}
	b.nodes = append(b.nodes, n)
	return &NodeHandle{b: b, n: n}
}

func (b *Builder) pushImage(u imageUsage) ImageUsageID {
	u.id = ImageUsageID(len(b.imageUsages))
	if u.kind != usageModify && u.kind != usageRead {
		u.inputUsage = -1
	}
	b.imageUsages = append(b.imageUsages, u)
	return u.id
}

func (b *Builder) pushBuffer(u bufferUsage) BufferUsageID {
	u.id = BufferUsageID(len(b.bufferUsages))
	if u.kind != usageModify && u.kind != usageRead {
		u.inputUsage = -1
	}
	b.bufferUsages = append(b.bufferUsages, u)
	return u.id
}

func (h *NodeHandle) usageName(kind, role string) string {
	return h.n.name + "." + role + "." + kind
}

// CreateColorAttachment declares a brand-new color image at the given
// attachment index, created fresh by this node.
func (h *NodeHandle) CreateColorAttachment(index int, constraint ImageConstraint, clear *gpu.ClearValue) ImageUsageID {
	flag := gpu.ImageUsageColorAttachment
	constraint.Usage = mergeUsageFlag(constraint.Usage, flag)
	id := h.b.pushImage(imageUsage{
		node: h.n.id, name: h.usageName("color", "create"), kind: usageCreate,
		attachment: attachmentColor, constraint: constraint, clearValue: clear, inputUsage: -1,
	})
	h.n.colorAttachments[index] = id
	return id
}

// ReadColorAttachment declares that this node reads an existing color
// image (e.g. as an input attachment) without producing a new version.
func (h *NodeHandle) ReadColorAttachment(index int, source ImageUsageID, constraint ImageConstraint) ImageUsageID {
	id := h.b.pushImage(imageUsage{
		node: h.n.id, name: h.usageName("color", "read"), kind: usageRead,
		attachment: attachmentColor, constraint: constraint, inputUsage: source,
	})
	h.n.colorAttachments[index] = id
	return id
}

// ModifyColorAttachment declares that this node both reads source and
// writes a new version of the same logical image at the given attachment
// index.
func (h *NodeHandle) ModifyColorAttachment(index int, source ImageUsageID, constraint ImageConstraint) ImageUsageID {
	flag := gpu.ImageUsageColorAttachment
	constraint.Usage = mergeUsageFlag(constraint.Usage, flag)
	id := h.b.pushImage(imageUsage{
		node: h.n.id, name: h.usageName("color", "modify"), kind: usageModify,
		attachment: attachmentColor, constraint: constraint, inputUsage: source,
	})
	h.n.colorAttachments[index] = id
	return id
}

// CreateDepthAttachment declares a brand-new depth image for this node.
func (h *NodeHandle) CreateDepthAttachment(constraint ImageConstraint, clear *gpu.ClearValue) ImageUsageID {
	flag := gpu.ImageUsageDepthAttachment
	constraint.Usage = mergeUsageFlag(constraint.Usage, flag)
	id := h.b.pushImage(imageUsage{
		node: h.n.id, name: h.usageName("depth", "create"), kind: usageCreate,
		attachment: attachmentDepth, constraint: constraint, clearValue: clear, inputUsage: -1,
	})
	h.n.depthAttachment = &id
	return id
}

func (h *NodeHandle) ReadDepthAttachment(source ImageUsageID, constraint ImageConstraint) ImageUsageID {
	id := h.b.pushImage(imageUsage{
		node: h.n.id, name: h.usageName("depth", "read"), kind: usageRead,
		attachment: attachmentDepth, constraint: constraint, inputUsage: source,
	})
	h.n.depthAttachment = &id
	return id
}

func (h *NodeHandle) ModifyDepthAttachment(source ImageUsageID, constraint ImageConstraint) ImageUsageID {
	flag := gpu.ImageUsageDepthAttachment
	constraint.Usage = mergeUsageFlag(constraint.Usage, flag)
	id := h.b.pushImage(imageUsage{
		node: h.n.id, name: h.usageName("depth", "modify"), kind: usageModify,
		attachment: attachmentDepth, constraint: constraint, inputUsage: source,
	})
	h.n.depthAttachment = &id
	return id
}

// SampleImage declares that this node reads an existing image as a
// shader-sampled resource, not as an attachment.
func (h *NodeHandle) SampleImage(source ImageUsageID, constraint ImageConstraint) ImageUsageID {
	flag := gpu.ImageUsageSampled
	constraint.Usage = mergeUsageFlag(constraint.Usage, flag)
	id := h.b.pushImage(imageUsage{
		node: h.n.id, name: h.usageName("sampled", "read"), kind: usageRead,
		attachment: attachmentNone, constraint: constraint, inputUsage: source, sampled: true,
	})
	h.n.sampledImages = append(h.n.sampledImages, id)
	return id
}

// CreateBuffer declares a brand-new buffer produced by this node.
func (h *NodeHandle) CreateBuffer(constraint BufferConstraint) BufferUsageID {
	id := h.b.pushBuffer(bufferUsage{node: h.n.id, name: h.usageName("buffer", "create"), kind: usageCreate, constraint: constraint, inputUsage: -1})
	h.n.bufferUsages = append(h.n.bufferUsages, id)
	return id
}

func (h *NodeHandle) ReadBuffer(source BufferUsageID, constraint BufferConstraint) BufferUsageID {
	id := h.b.pushBuffer(bufferUsage{node: h.n.id, name: h.usageName("buffer", "read"), kind: usageRead, constraint: constraint, inputUsage: source})
	h.n.bufferUsages = append(h.n.bufferUsages, id)
	return id
}

func (h *NodeHandle) ModifyBuffer(source BufferUsageID, constraint BufferConstraint) BufferUsageID {
	id := h.b.pushBuffer(bufferUsage{node: h.n.id, name: h.usageName("buffer", "modify"), kind: usageModify, constraint: constraint, inputUsage: source})
	h.n.bufferUsages = append(h.n.bufferUsages, id)
	return id
}

// SetOutputImage marks a usage as a graph-boundary output: its physical
// resource stays reserved to the last pass (it may take over a slot whose
// earlier contents are dead, but no later image reuses it), a declared final state, and
// (optionally) a boundary constraint merged in before the backward
// constraint-propagation sweep — e.g. a swapchain's fixed format and
// extent.
func (h *NodeHandle) SetOutputImage(usage ImageUsageID, finalState gpu.ResourceState, boundary ImageConstraint) {
	h.b.imageUsages[usage].isOutput = true
	h.b.imageUsages[usage].outputFinalState = finalState
	h.b.imageUsages[usage].constraint, _ = h.b.imageUsages[usage].constraint.Merge(boundary)
}

// RequireViewPhase registers that this node's pass must dispatch the
// (view, phase) submit-node block during its visit, before any custom
// VisitFunc commands run.
func (h *NodeHandle) RequireViewPhase(v view.FrameIndex, phase registry.PhaseIndex) {
	h.n.requiredPhases = append(h.n.requiredPhases, ViewPhaseRef{View: v, Phase: phase})
}

// AddVisitCallback sets the node's custom pass body.
func (h *NodeHandle) AddVisitCallback(fn VisitFunc) {
	h.n.visit = fn
}

func mergeUsageFlag(existing *gpu.ImageUsageFlags, flag gpu.ImageUsageFlags) *gpu.ImageUsageFlags {
	if existing == nil {
		return &flag
	}
	merged := *existing | flag
	return &merged
}
