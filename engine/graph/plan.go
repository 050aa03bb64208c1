package graph

import "github.com/spaghettifunk/forgegraph/engine/gpu"

// Plan is a compiled render graph: an ordered list of physical passes plus
// everything the execution phase (execute.go) needs to allocate physical
// resources and bind usages to them.
type Plan struct {
	Passes []*Pass

	Images  []gpu.ImageDef
	Buffers []gpu.BufferDef

	imageByVirtual  map[VirtualImageID]PhysicalImageID
	bufferByVirtual map[VirtualBufferID]PhysicalBufferID

	outputImages map[ImageUsageID]PhysicalImageID
}

// OutputPhysicalImage resolves the usage returned from SetOutputImage's
// call site to the physical image slot the executor must bind a caller
// resource (e.g. a swapchain image) to.
func (p *Plan) OutputPhysicalImage(usage ImageUsageID) (PhysicalImageID, bool) {
	id, ok := p.outputImages[usage]
	return id, ok
}

// Compile reduces the accumulated graph to a Plan by running the 8-step
// pipeline: order nodes, propagate constraints, insert MSAA resolves,
// re-order nodes, assign virtual resources, alias physical resources,
// emit physical passes, and generate barriers.
func (b *Builder) Compile() (*Plan, error) {
	order, err := b.orderNodes()
	if err != nil {
		return nil, err
	}

	if _, err := b.propagateConstraints(order); err != nil {
		return nil, err
	}

	b.insertResolves(order)

	// Constraints for any usage inserted by insertResolves are already
	// fully resolved at insertion time, so a second propagation pass
	// isn't needed; but node dependency edges changed (reads were
	// rewired to resolve usages), so the topological order is
	// recomputed to keep emitPasses/generateBarriers consistent.
	order, err = b.orderNodes()
	if err != nil {
		return nil, err
	}

	if err := b.assignVirtualResources(order); err != nil {
		return nil, err
	}

	imagePhysical, physImages := assignPhysicalImages(b, order)
	bufferPhysical, physBuffers := assignPhysicalBuffers(b, order)

	passes := b.emitPasses(order, imagePhysical)
	b.generateBarriers(order, passes, imagePhysical, bufferPhysical)

	plan := &Plan{
		Passes:          passes,
		imageByVirtual:  imagePhysical,
		bufferByVirtual: bufferPhysical,
		outputImages:    make(map[ImageUsageID]PhysicalImageID),
	}

	plan.Images = make([]gpu.ImageDef, len(physImages))
	for i, rec := range physImages {
		plan.Images[i] = gpu.ImageDef{
			Width: rec.spec.Width, Height: rec.spec.Height, Depth: rec.spec.Depth,
			Format: rec.spec.Format, Samples: rec.spec.Samples,
			MipCount: rec.spec.MipCount, LayerCount: rec.spec.LayerCount,
			Usage: rec.usage,
		}
	}
	plan.Buffers = make([]gpu.BufferDef, len(physBuffers))
	for i, rec := range physBuffers {
		plan.Buffers[i] = gpu.BufferDef{Size: rec.spec.Size, Usage: rec.spec.Usage}
	}

	for i, u := range b.imageUsages {
		if u.isOutput {
			plan.outputImages[ImageUsageID(i)] = imagePhysical[u.virtualID]
		}
	}

	return plan, nil
}
