package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/forgegraph/engine/core"
	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

// commandBufferState mirrors VulkanCommandBufferState
// (renderer/vulkan/command_buffer.go): the encoder records whether it is
// recording or inside a render pass. No method reads the state back;
// ResourceBarrier records its barriers regardless of it.
type commandBufferState int

const (
	stateReady commandBufferState = iota
	stateRecording
	stateInRenderPass
)

// Encoder adapts a single primary vk.CommandBuffer to gpu.CommandEncoder.
// One Encoder is built per in-flight frame and handed to graph.Plan.Execute,
// which drives BeginRenderPass/EndRenderPass/ResourceBarrier per Pass and
// Dispatch/DrawIndexed per dispatched submit node (the Write hooks run
// inside RequiredPhases dispatch, see engine/frame.Run).
type Encoder struct {
	ctx    *Context
	handle vk.CommandBuffer
	state  commandBufferState

	// renderPass and framebuffer hold the objects created for the current
	// BeginRenderPass call so EndRenderPass can tear them down; a real
	// long-lived backend would cache these per (Pass, swapchain image)
	// instead of recreating every frame, an optimization left out here
	// since nothing in the graph plan names a stable pass identity yet.
	renderPass  vk.RenderPass
	framebuffer vk.Framebuffer
}

// NewEncoder allocates and begins recording a primary command buffer from
// the context's graphics command pool, the way NewVulkanCommandBuffer +
// Begin(true, false, false) started a single-use buffer per frame.
func NewEncoder(ctx *Context) (*Encoder, error) {
	allocInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        ctx.CommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	buffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(ctx.Device, &allocInfo, buffers); res != vk.Success {
		return nil, fmt.Errorf("vulkan: allocate command buffer: %v", res)
	}
	handle := buffers[0]

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(handle, &beginInfo); res != vk.Success {
		return nil, fmt.Errorf("vulkan: begin command buffer: %v", res)
	}

	return &Encoder{ctx: ctx, handle: handle, state: stateRecording}, nil
}

// End finishes recording and submits to the graphics queue, blocking until
// the graphics queue is idle — a simplification over the original's per-frame
// fence/semaphore sync appropriate for a reference backend that isn't
// pipelining multiple frames in flight.
func (e *Encoder) End() error {
	if res := vk.EndCommandBuffer(e.handle); res != vk.Success {
		return fmt.Errorf("vulkan: end command buffer: %v", res)
	}
	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{e.handle},
	}
	if res := vk.QueueSubmit(e.ctx.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		return fmt.Errorf("vulkan: queue submit: %v", res)
	}
	vk.QueueWaitIdle(e.ctx.GraphicsQueue)
	return nil
}

func (e *Encoder) ResourceBarrier(barriers []gpu.Barrier) {
	for _, b := range barriers {
		img, ok := b.Resource.(*Image)
		if !ok {
			core.LogWarn("vulkan: ResourceBarrier: unsupported resource type %T", b.Resource)
			continue
		}
		oldMap, newMap := mapResourceState(b.Old), mapResourceState(b.New)
		aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
		if isDepthFormat(img.def.Format) {
			aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		}
		barrier := vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			OldLayout:           oldMap.layout,
			NewLayout:           newMap.layout,
			SrcAccessMask:       vk.AccessFlags(oldMap.access),
			DstAccessMask:       vk.AccessFlags(newMap.access),
			Image:               img.handle,
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     aspect,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		vk.CmdPipelineBarrier(e.handle, vk.PipelineStageFlags(oldMap.stage), vk.PipelineStageFlags(newMap.stage),
			0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	}
}

// BeginRenderPass builds a single-subpass vk.RenderPass + vk.Framebuffer
// from the plan's attachment descriptions and records vkCmdBeginRenderPass,
// the adapter-side counterpart of graph.Plan.Execute's RenderPassDesc.
func (e *Encoder) BeginRenderPass(desc gpu.RenderPassDesc) {
	var attachments []vk.AttachmentDescription
	var colorRefs []vk.AttachmentReference
	var depthRef *vk.AttachmentReference
	var views []vk.ImageView
	var clears []vk.ClearValue
	width, height := uint32(1), uint32(1)

	addAttachment := func(a gpu.Attachment, finalLayout vk.ImageLayout) int {
		v := a.View.(*View)
		img := v.image
		width, height = img.def.Width, img.def.Height
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         toVkFormat(img.def.Format),
			Samples:        toVkSamples(img.def.Samples),
			LoadOp:         toVkLoadOp(a.LoadOp),
			StoreOp:        toVkStoreOp(a.StoreOp),
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  mapResourceState(a.InitialState).layout,
			FinalLayout:    finalLayout,
		})
		views = append(views, v.handle)
		clears = append(clears, vk.NewClearValue([]float32{a.ClearValue.R, a.ClearValue.G, a.ClearValue.B, a.ClearValue.A}))
		return len(attachments) - 1
	}

	for _, c := range desc.ColorAttachments {
		idx := addAttachment(c, vk.ImageLayoutColorAttachmentOptimal)
		colorRefs = append(colorRefs, vk.AttachmentReference{Attachment: uint32(idx), Layout: vk.ImageLayoutColorAttachmentOptimal})
	}
	if desc.DepthAttachment != nil {
		idx := addAttachment(*desc.DepthAttachment, vk.ImageLayoutDepthStencilAttachmentOptimal)
		depthRef = &vk.AttachmentReference{Attachment: uint32(idx), Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	if depthRef != nil {
		subpass.PDepthStencilAttachment = depthRef
	}

	rpCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}
	var renderPass vk.RenderPass
	if res := vk.CreateRenderPass(e.ctx.Device, &rpCreateInfo, e.ctx.Allocator, &renderPass); res != vk.Success {
		core.LogError("vulkan: create render pass: %v", res)
		return
	}

	fbCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(e.ctx.Device, &fbCreateInfo, e.ctx.Allocator, &framebuffer); res != vk.Success {
		core.LogError("vulkan: create framebuffer: %v", res)
		vk.DestroyRenderPass(e.ctx.Device, renderPass, e.ctx.Allocator)
		return
	}

	e.renderPass, e.framebuffer = renderPass, framebuffer
	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderPass,
		Framebuffer: framebuffer,
		RenderArea:  vk.Rect2D{Offset: vk.Offset2D{X: 0, Y: 0}, Extent: vk.Extent2D{Width: width, Height: height}},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}
	vk.CmdBeginRenderPass(e.handle, &beginInfo, vk.SubpassContentsInline)
	e.state = stateInRenderPass
}

func (e *Encoder) EndRenderPass() {
	vk.CmdEndRenderPass(e.handle)
	e.state = stateRecording
	if e.framebuffer != vk.NullFramebuffer {
		vk.DestroyFramebuffer(e.ctx.Device, e.framebuffer, e.ctx.Allocator)
		e.framebuffer = vk.NullFramebuffer
	}
	if e.renderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(e.ctx.Device, e.renderPass, e.ctx.Allocator)
		e.renderPass = vk.NullRenderPass
	}
}

func (e *Encoder) BindPipeline(pipeline any) {
	p, ok := pipeline.(vk.Pipeline)
	if !ok {
		core.LogWarn("vulkan: BindPipeline: expected vk.Pipeline, got %T", pipeline)
		return
	}
	vk.CmdBindPipeline(e.handle, vk.PipelineBindPointGraphics, p)
}

func (e *Encoder) BindDescriptorSet(set any) {
	s, ok := set.(vk.DescriptorSet)
	if !ok {
		core.LogWarn("vulkan: BindDescriptorSet: expected vk.DescriptorSet, got %T", set)
		return
	}
	vk.CmdBindDescriptorSets(e.handle, vk.PipelineBindPointGraphics, vk.NullPipelineLayout, 0, 1, []vk.DescriptorSet{s}, 0, nil)
}

func (e *Encoder) BindVertexBuffer(buf gpu.Buffer, offset uint64) {
	b, ok := buf.(*Buffer)
	if !ok {
		core.LogWarn("vulkan: BindVertexBuffer: buffer not created by this backend")
		return
	}
	vk.CmdBindVertexBuffers(e.handle, 0, 1, []vk.Buffer{b.handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

func (e *Encoder) BindIndexBuffer(buf gpu.Buffer, offset uint64) {
	b, ok := buf.(*Buffer)
	if !ok {
		core.LogWarn("vulkan: BindIndexBuffer: buffer not created by this backend")
		return
	}
	vk.CmdBindIndexBuffer(e.handle, b.handle, vk.DeviceSize(offset), vk.IndexTypeUint32)
}

func (e *Encoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(e.handle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (e *Encoder) Dispatch(x, y, z uint32) {
	vk.CmdDispatch(e.handle, x, y, z)
}
