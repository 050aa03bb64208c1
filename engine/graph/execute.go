package graph

import (
	"fmt"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

// ResourcePool allocates and caches the backend resources a compiled Plan
// needs: one gpu.Image/gpu.Buffer per physical slot, one gpu.ImageView per
// physical image (§4.5.1 simplifies the reference design's per-(image,
// format, view-options) view cache down to a single default view per
// physical image; a pass needing a reinterpreted view creates its own via
// Device.CreateImageView directly).
type ResourcePool struct {
	device gpu.Device
	images []gpu.Image
	views  []gpu.ImageView
	bufs   []gpu.Buffer
}

// NewResourcePool allocates every physical resource a plan declares. Call
// once per plan; a fresh Builder (and so a fresh Plan) is expected every
// frame, so pools are not intended to outlive one frame's execution.
func NewResourcePool(device gpu.Device, plan *Plan) (*ResourcePool, error) {
	pool := &ResourcePool{device: device}
	for _, def := range plan.Images {
		img, err := device.CreateImage(def)
		if err != nil {
			return nil, fmt.Errorf("graph: allocate image: %w", err)
		}
		view, err := device.CreateImageView(img, gpu.ImageViewOptions{Format: def.Format, MipCount: def.MipCount, LayerCount: def.LayerCount})
		if err != nil {
			return nil, fmt.Errorf("graph: create image view: %w", err)
		}
		pool.images = append(pool.images, img)
		pool.views = append(pool.views, view)
	}
	for _, def := range plan.Buffers {
		buf, err := device.CreateBuffer(def)
		if err != nil {
			return nil, fmt.Errorf("graph: allocate buffer: %w", err)
		}
		pool.bufs = append(pool.bufs, buf)
	}
	return pool, nil
}

func (p *ResourcePool) Image(id PhysicalImageID) gpu.Image   { return p.images[id] }
func (p *ResourcePool) View(id PhysicalImageID) gpu.ImageView { return p.views[id] }
func (p *ResourcePool) Buffer(id PhysicalBufferID) gpu.Buffer { return p.bufs[id] }

func attachmentToGPU(a AttachmentDesc, pool *ResourcePool) gpu.Attachment {
	return gpu.Attachment{
		View:         pool.View(a.PhysicalImage),
		LoadOp:       a.LoadOp,
		StoreOp:      a.StoreOp,
		ClearValue:   a.ClearValue,
		InitialState: a.InitialState,
		FinalState:   a.FinalState,
	}
}

// Execute replays every pass in order: submit its pre-pass barriers, begin
// its render pass (if it has one), run its required (view, phase) write
// dispatches and then its custom visit callback, end the render pass, and
// submit its post-pass barriers (§4.5.4).
func (plan *Plan) Execute(encoder gpu.CommandEncoder, pool *ResourcePool, dispatcher SubmitDispatcher) error {
	// The plan's barriers name physical slot IDs; the encoder receives the
	// pool's gpu.Image/gpu.Buffer for each slot instead.
	toGPU := func(barriers []gpu.Barrier) []gpu.Barrier {
		out := append([]gpu.Barrier(nil), barriers...)
		for i := range out {
			switch id := out[i].Resource.(type) {
			case PhysicalImageID:
				out[i].Resource = pool.Image(id)
			case PhysicalBufferID:
				out[i].Resource = pool.Buffer(id)
			}
		}
		return out
	}

	for _, pass := range plan.Passes {
		if len(pass.PreBarrier) > 0 {
			encoder.ResourceBarrier(toGPU(pass.PreBarrier))
		}

		if pass.Kind == PassRenderpass {
			desc := gpu.RenderPassDesc{}
			for _, ca := range pass.ColorAttachments {
				desc.ColorAttachments = append(desc.ColorAttachments, attachmentToGPU(ca.Write, pool))
				if ca.Resolve != nil {
					desc.ColorAttachments = append(desc.ColorAttachments, attachmentToGPU(*ca.Resolve, pool))
				}
			}
			if pass.DepthAttachment != nil {
				d := attachmentToGPU(*pass.DepthAttachment, pool)
				desc.DepthAttachment = &d
			}
			encoder.BeginRenderPass(desc)
		}

		for _, ref := range pass.RequiredPhases {
			if err := dispatcher.Dispatch(ref.View, ref.Phase, encoder); err != nil {
				return fmt.Errorf("graph: pass %q dispatch (view %d, phase %d): %w", pass.Name, ref.View, ref.Phase, err)
			}
		}

		if pass.Visit != nil {
			ctx := &VisitContext{Encoder: encoder, Dispatcher: dispatcher}
			if err := pass.Visit(ctx); err != nil {
				return fmt.Errorf("graph: pass %q visit: %w", pass.Name, err)
			}
		}

		if pass.Kind == PassRenderpass {
			encoder.EndRenderPass()
		}

		if len(pass.PostBarrier) > 0 {
			encoder.ResourceBarrier(toGPU(pass.PostBarrier))
		}
	}
	return nil
}
