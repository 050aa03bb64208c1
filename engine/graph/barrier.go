package graph

import "github.com/spaghettifunk/forgegraph/engine/gpu"

// requiredImageState is the resource state a pass needs an image usage in,
// per §4.4.7: attachments drive render-target/depth-write states, sampled
// reads drive shader-resource state.
func requiredImageState(u imageUsage) gpu.ResourceState {
	switch {
	case u.attachment == attachmentColor || u.attachment == attachmentResolve:
		return gpu.ResourceStateRenderTarget
	case u.attachment == attachmentDepth:
		return gpu.ResourceStateDepthWrite
	case u.sampled:
		return gpu.ResourceStatePixelShaderResource
	default:
		return gpu.ResourceStateRenderTarget
	}
}

// generateBarriers walks passes in order, tracking per-physical-resource
// state starting at Undefined, and fills each pass's PreBarrier/PostBarrier
// and each attachment's InitialState/FinalState. No barrier transitions a
// resource to Undefined.
func (b *Builder) generateBarriers(order []NodeID, passes []*Pass, imagePhysical map[VirtualImageID]PhysicalImageID, bufferPhysical map[VirtualBufferID]PhysicalBufferID) {
	imageState := make(map[PhysicalImageID]gpu.ResourceState)
	bufferState := make(map[PhysicalBufferID]gpu.ResourceState)

	for passIdx, id := range order {
		n := b.nodes[id]
		pass := passes[passIdx]

		touched := make(map[PhysicalImageID]*imageUsage)
		for _, uid := range n.allImageUsageIDs() {
			u := &b.imageUsages[uid]
			phys := imagePhysical[u.virtualID]
			touched[phys] = u
		}

		physIDs := make([]PhysicalImageID, 0, len(touched))
		for phys := range touched {
			physIDs = append(physIDs, phys)
		}
		sortPhysicalImageIDs(physIDs)

		for _, phys := range physIDs {
			u := touched[phys]
			current := imageState[phys]
			required := requiredImageState(*u)
			if current != required {
				pass.PreBarrier = append(pass.PreBarrier, gpu.Barrier{Resource: phys, Old: current, New: required})
			}
			imageState[phys] = required
			setAttachmentInitialFinal(pass, phys, current, required)
		}

		bufTouched := make(map[PhysicalBufferID]bool)
		for _, uid := range n.bufferUsages {
			u := b.bufferUsages[uid]
			phys := bufferPhysical[u.virtualID]
			bufTouched[phys] = true
		}
		bufIDs := make([]PhysicalBufferID, 0, len(bufTouched))
		for phys := range bufTouched {
			bufIDs = append(bufIDs, phys)
		}
		sortPhysicalBufferIDs(bufIDs)
		for _, phys := range bufIDs {
			current := bufferState[phys]
			required := gpu.ResourceStateUnorderedAccess
			if current != required {
				pass.PreBarrier = append(pass.PreBarrier, gpu.Barrier{Resource: phys, Old: current, New: required})
			}
			bufferState[phys] = required
		}

		// Post-pass barriers: a graph-boundary output whose declared final
		// state differs from the state the pass leaves it in.
		for _, uid := range n.allImageUsageIDs() {
			u := b.imageUsages[uid]
			if !u.isOutput {
				continue
			}
			phys := imagePhysical[u.virtualID]
			current := imageState[phys]
			if u.outputFinalState == gpu.ResourceStateUndefined || u.outputFinalState == current {
				continue
			}
			pass.PostBarrier = append(pass.PostBarrier, gpu.Barrier{Resource: phys, Old: current, New: u.outputFinalState})
			imageState[phys] = u.outputFinalState
			updateAttachmentFinal(pass, phys, u.outputFinalState)
		}
	}
}

func setAttachmentInitialFinal(pass *Pass, phys PhysicalImageID, initial, final gpu.ResourceState) {
	for i := range pass.ColorAttachments {
		ca := &pass.ColorAttachments[i]
		if ca.Write.PhysicalImage == phys {
			ca.Write.InitialState, ca.Write.FinalState = initial, final
		}
		if ca.Resolve != nil && ca.Resolve.PhysicalImage == phys {
			ca.Resolve.InitialState, ca.Resolve.FinalState = initial, final
		}
	}
	if pass.DepthAttachment != nil && pass.DepthAttachment.PhysicalImage == phys {
		pass.DepthAttachment.InitialState, pass.DepthAttachment.FinalState = initial, final
	}
}

func updateAttachmentFinal(pass *Pass, phys PhysicalImageID, final gpu.ResourceState) {
	for i := range pass.ColorAttachments {
		ca := &pass.ColorAttachments[i]
		if ca.Write.PhysicalImage == phys {
			ca.Write.FinalState = final
		}
		if ca.Resolve != nil && ca.Resolve.PhysicalImage == phys {
			ca.Resolve.FinalState = final
		}
	}
	if pass.DepthAttachment != nil && pass.DepthAttachment.PhysicalImage == phys {
		pass.DepthAttachment.FinalState = final
	}
}

func sortPhysicalImageIDs(ids []PhysicalImageID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

func sortPhysicalBufferIDs(ids []PhysicalBufferID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}
