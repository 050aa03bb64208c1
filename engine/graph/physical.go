package graph

import (
	"sort"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

// PassKind distinguishes a pass with attachments from one that doesn't.
type PassKind int

const (
	PassRenderpass PassKind = iota
	PassCompute
)

// AttachmentDesc is one entry in a renderpass's attachment table.
type AttachmentDesc struct {
	PhysicalImage            PhysicalImageID
	Format                   gpu.Format
	Samples                  uint8
	LoadOp                   gpu.LoadOp
	StoreOp                  gpu.StoreOp
	ClearValue               gpu.ClearValue
	InitialState, FinalState gpu.ResourceState
}

// ColorAttachment is one color slot, with an optional paired resolve
// target inserted by the MSAA-resolve pass.
type ColorAttachment struct {
	Index   int
	Write   AttachmentDesc
	Resolve *AttachmentDesc
}

// Pass is one physical pass in plan order.
type Pass struct {
	Node NodeID
	Name string
	Kind PassKind

	ColorAttachments []ColorAttachment
	DepthAttachment  *AttachmentDesc

	PreBarrier  []gpu.Barrier
	PostBarrier []gpu.Barrier

	RequiredPhases []ViewPhaseRef
	Visit          VisitFunc
}

// physicalImageRecord tracks one allocated image slot through aliasing.
type physicalImageRecord struct {
	spec      ImageSpecification
	usage     gpu.ImageUsageFlags
	lastPass  int
	dedicated bool
}

type physicalBufferRecord struct {
	spec      BufferSpecification
	lastPass  int
	dedicated bool
}

// imageLifetimes computes [firstPass, lastPass] for each virtual image: the
// earliest and latest index (into order) of a pass that touches it.
func imageLifetimes(b *Builder, order []NodeID) map[VirtualImageID][2]int {
	lifetimes := make(map[VirtualImageID][2]int)
	for passIdx, id := range order {
		n := b.nodes[id]
		for _, uid := range n.allImageUsageIDs() {
			v := b.imageUsages[uid].virtualID
			lt, ok := lifetimes[v]
			if !ok {
				lifetimes[v] = [2]int{passIdx, passIdx}
				continue
			}
			if passIdx < lt[0] {
				lt[0] = passIdx
			}
			if passIdx > lt[1] {
				lt[1] = passIdx
			}
			lifetimes[v] = lt
		}
	}
	return lifetimes
}

func bufferLifetimes(b *Builder, order []NodeID) map[VirtualBufferID][2]int {
	lifetimes := make(map[VirtualBufferID][2]int)
	for passIdx, id := range order {
		n := b.nodes[id]
		for _, uid := range n.bufferUsages {
			v := b.bufferUsages[uid].virtualID
			lt, ok := lifetimes[v]
			if !ok {
				lifetimes[v] = [2]int{passIdx, passIdx}
				continue
			}
			if passIdx < lt[0] {
				lt[0] = passIdx
			}
			if passIdx > lt[1] {
				lt[1] = passIdx
			}
			lifetimes[v] = lt
		}
	}
	return lifetimes
}

// assignPhysicalImages greedily aliases virtual images into physical slots
// in order of first-pass, per §4.4.6: every virtual image, graph-boundary
// outputs included, reuses the lowest-numbered compatible slot whose
// lifetime has already ended, or gets a new one. A slot holding an output
// is kept to the last pass and is not handed to any later virtual image.
func assignPhysicalImages(b *Builder, order []NodeID) (map[VirtualImageID]PhysicalImageID, []physicalImageRecord) {
	lifetimes := imageLifetimes(b, order)

	specOf := make(map[VirtualImageID]ImageSpecification)
	usageOf := make(map[VirtualImageID]gpu.ImageUsageFlags)
	isOutput := make(map[VirtualImageID]bool)

	for _, id := range order {
		n := b.nodes[id]
		for _, uid := range n.allImageUsageIDs() {
			u := b.imageUsages[uid]
			specOf[u.virtualID] = u.resolvedSpec
			usageOf[u.virtualID] = usageOf[u.virtualID] | u.resolvedSpec.Usage
			if u.isOutput {
				isOutput[u.virtualID] = true
			}
		}
	}

	var virtuals []VirtualImageID
	for v := range lifetimes {
		virtuals = append(virtuals, v)
	}
	sortByFirstPass(virtuals, lifetimes)

	physical := make([]physicalImageRecord, 0, len(virtuals))
	assignment := make(map[VirtualImageID]PhysicalImageID, len(virtuals))

	lastPassIndex := len(order) - 1
	for _, v := range virtuals {
		lt := lifetimes[v]
		spec := specOf[v]
		usage := usageOf[v]
		dedicated := isOutput[v]

		reused := -1
		for i := range physical {
			p := &physical[i]
			if p.dedicated {
				continue
			}
			if p.lastPass < lt[0] && p.spec.Format == spec.Format && p.spec.Samples == spec.Samples &&
				p.spec.Width == spec.Width && p.spec.Height == spec.Height && p.spec.Depth == spec.Depth &&
				p.spec.LayerCount == spec.LayerCount && p.spec.MipCount == spec.MipCount &&
				(p.usage&usage) == usage {
				reused = i
				break
			}
		}

		finalLastPass := lt[1]
		if dedicated {
			finalLastPass = lastPassIndex
		}

		if reused >= 0 {
			physical[reused].lastPass = finalLastPass
			physical[reused].dedicated = dedicated
			assignment[v] = PhysicalImageID(reused)
			continue
		}

		physical = append(physical, physicalImageRecord{spec: spec, usage: usage, lastPass: finalLastPass, dedicated: dedicated})
		assignment[v] = PhysicalImageID(len(physical) - 1)
	}

	return assignment, physical
}

func assignPhysicalBuffers(b *Builder, order []NodeID) (map[VirtualBufferID]PhysicalBufferID, []physicalBufferRecord) {
	lifetimes := bufferLifetimes(b, order)
	specOf := make(map[VirtualBufferID]BufferSpecification)
	for _, id := range order {
		n := b.nodes[id]
		for _, uid := range n.bufferUsages {
			u := b.bufferUsages[uid]
			specOf[u.virtualID] = u.resolvedSpec
		}
	}

	var virtuals []VirtualBufferID
	for v := range lifetimes {
		virtuals = append(virtuals, v)
	}
	sortBuffersByFirstPass(virtuals, lifetimes)

	physical := make([]physicalBufferRecord, 0, len(virtuals))
	assignment := make(map[VirtualBufferID]PhysicalBufferID, len(virtuals))

	for _, v := range virtuals {
		lt := lifetimes[v]
		spec := specOf[v]

		reused := -1
		for i := range physical {
			p := &physical[i]
			if p.dedicated {
				continue
			}
			if p.lastPass < lt[0] && p.spec.Size == spec.Size && (p.spec.Usage&spec.Usage) == spec.Usage {
				reused = i
				break
			}
		}
		if reused >= 0 {
			physical[reused].lastPass = lt[1]
			assignment[v] = PhysicalBufferID(reused)
			continue
		}
		physical = append(physical, physicalBufferRecord{spec: spec, lastPass: lt[1]})
		assignment[v] = PhysicalBufferID(len(physical) - 1)
	}

	return assignment, physical
}

func sortByFirstPass(ids []VirtualImageID, lifetimes map[VirtualImageID][2]int) {
	sort.Slice(ids, func(i, j int) bool {
		return lifetimes[ids[i]][0] < lifetimes[ids[j]][0]
	})
}

func sortBuffersByFirstPass(ids []VirtualBufferID, lifetimes map[VirtualBufferID][2]int) {
	sort.Slice(ids, func(i, j int) bool {
		return lifetimes[ids[i]][0] < lifetimes[ids[j]][0]
	})
}

// hasDownstreamReader reports whether any non-culled usage reads version u (used to
// decide an attachment's store_op).
func (b *Builder) hasDownstreamReader(included map[NodeID]bool, u ImageUsageID) bool {
	for _, other := range b.imageUsages {
		if !included[other.node] {
			continue
		}
		if other.inputUsage == u {
			return true
		}
	}
	return false
}

// emitPasses builds the ordered pass list and attachment tables (§4.4.5),
// leaving InitialState/FinalState zero-valued for the barrier pass to fill.
func (b *Builder) emitPasses(order []NodeID, imagePhysical map[VirtualImageID]PhysicalImageID) []*Pass {
	included := make(map[NodeID]bool, len(order))
	for _, id := range order {
		included[id] = true
	}

	passes := make([]*Pass, 0, len(order))
	for _, id := range order {
		n := b.nodes[id]
		pass := &Pass{Node: id, Name: n.name, RequiredPhases: n.requiredPhases, Visit: n.visit}

		if len(n.colorAttachments) == 0 && n.depthAttachment == nil {
			pass.Kind = PassCompute
			passes = append(passes, pass)
			continue
		}
		pass.Kind = PassRenderpass

		indices := make([]int, 0, len(n.colorAttachments))
		for idx := range n.colorAttachments {
			indices = append(indices, idx)
		}
		sort.Ints(indices)

		for _, idx := range indices {
			uid := n.colorAttachments[idx]
			u := b.imageUsages[uid]
			desc := b.attachmentDesc(u, included, imagePhysical)
			ca := ColorAttachment{Index: idx, Write: desc}
			if resolveID, ok := n.resolveAttachments[uid]; ok {
				ru := b.imageUsages[resolveID]
				rd := b.attachmentDesc(ru, included, imagePhysical)
				ca.Resolve = &rd
			}
			pass.ColorAttachments = append(pass.ColorAttachments, ca)
		}

		if n.depthAttachment != nil {
			u := b.imageUsages[*n.depthAttachment]
			desc := b.attachmentDesc(u, included, imagePhysical)
			pass.DepthAttachment = &desc
		}

		passes = append(passes, pass)
	}
	return passes
}

func (b *Builder) attachmentDesc(u imageUsage, included map[NodeID]bool, imagePhysical map[VirtualImageID]PhysicalImageID) AttachmentDesc {
	desc := AttachmentDesc{
		PhysicalImage: imagePhysical[u.virtualID],
		Format:        u.resolvedSpec.Format,
		Samples:       u.resolvedSpec.Samples,
	}
	switch {
	case u.clearValue != nil:
		desc.LoadOp = gpu.LoadOpClear
		desc.ClearValue = *u.clearValue
	case u.kind == usageRead || u.kind == usageModify:
		desc.LoadOp = gpu.LoadOpLoad
	default:
		desc.LoadOp = gpu.LoadOpDontCare
	}
	if b.hasDownstreamReader(included, u.id) || u.isOutput {
		desc.StoreOp = gpu.StoreOpStore
	} else {
		desc.StoreOp = gpu.StoreOpDontCare
	}
	return desc
}
