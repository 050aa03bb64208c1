// Package gpu declares the pure contracts the render-graph planner and the
// feature pipeline's write stage are compiled against. Nothing in this
// package allocates a real GPU resource; backend/vulkan (or any other
// backend) supplies the concrete implementations.
package gpu

// ResourceState is the resource-state enum the planner's barrier stage
// transitions physical resources through. This models Direct3D12/Vulkan's
// higher-level resource-state abstraction rather than raw pipeline-stage +
// access-mask + image-layout tuples; mapping a state to a concrete
// backend's stage/access/layout triple is that backend's job.
type ResourceState int

const (
	ResourceStateUndefined ResourceState = iota
	ResourceStateRenderTarget
	ResourceStateDepthWrite
	ResourceStatePixelShaderResource
	ResourceStateUnorderedAccess
)

func (s ResourceState) String() string {
	switch s {
	case ResourceStateUndefined:
		return "UNDEFINED"
	case ResourceStateRenderTarget:
		return "RENDER_TARGET"
	case ResourceStateDepthWrite:
		return "DEPTH_WRITE"
	case ResourceStatePixelShaderResource:
		return "PIXEL_SHADER_RESOURCE"
	case ResourceStateUnorderedAccess:
		return "UNORDERED_ACCESS"
	default:
		return "UNKNOWN"
	}
}

// Format is a deliberately small subset of the usual GPU format zoo — just
// enough for the planner's constraint-merging logic to compare formats by
// value. A real backend maps these onto its native format enum.
type Format int

const (
	FormatUnknown Format = iota
	FormatRGBA8UNorm
	FormatBGRA8UNorm
	FormatR16Float
	FormatRGBA16Float
	FormatD32Float
	FormatD24UNormS8UInt
)

// ImageUsageFlags declares what a physical image must support; the planner
// ORs together every usage's flags when allocating or aliasing resources.
type ImageUsageFlags uint32

const (
	ImageUsageColorAttachment ImageUsageFlags = 1 << iota
	ImageUsageDepthAttachment
	ImageUsageSampled
	ImageUsageStorage
	ImageUsageTransferSrc
	ImageUsageTransferDst
)

// BufferUsageFlags is the buffer equivalent of ImageUsageFlags.
type BufferUsageFlags uint32

const (
	BufferUsageVertex BufferUsageFlags = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageTransferSrc
	BufferUsageTransferDst
)

// ImageDef fully describes an image to allocate.
type ImageDef struct {
	Width, Height, Depth uint32
	Format               Format
	Samples              uint8
	MipCount             uint32
	LayerCount           uint32
	Usage                ImageUsageFlags
}

// BufferDef fully describes a buffer to allocate.
type BufferDef struct {
	Size  uint64
	Usage BufferUsageFlags
}

// ImageViewOptions selects a subrange/reinterpretation of an image for a
// particular attachment or sampled-image binding.
type ImageViewOptions struct {
	Format               Format
	BaseMip, MipCount     uint32
	BaseLayer, LayerCount uint32
}

// Device creates the backend-owned resources the graph planner's execution
// phase allocates from its physical-resource pool.
type Device interface {
	CreateBuffer(def BufferDef) (Buffer, error)
	CreateImage(def ImageDef) (Image, error)
	CreateImageView(image Image, options ImageViewOptions) (ImageView, error)
}

// Buffer is a backend-owned buffer resource.
type Buffer interface {
	Def() BufferDef
	Map() ([]byte, error)
	Unmap()
	CopyToHostVisible(data []byte) error
}

// Image is a backend-owned image resource.
type Image interface {
	Def() ImageDef
}

// ImageView is a backend-owned view over a (sub-range of an) image.
type ImageView interface {
	Image() Image
	Options() ImageViewOptions
}

// LoadOp controls how an attachment's contents are initialized when a
// render pass begins.
type LoadOp int

const (
	LoadOpDontCare LoadOp = iota
	LoadOpLoad
	LoadOpClear
)

// StoreOp controls whether an attachment's contents are preserved after a
// render pass ends.
type StoreOp int

const (
	StoreOpDontCare StoreOp = iota
	StoreOpStore
)

// ClearValue is the union of color and depth/stencil clear values; which
// member is meaningful depends on the attachment it is attached to.
type ClearValue struct {
	R, G, B, A float32
	Depth      float32
	Stencil    uint32
}

// Attachment is one entry in a render pass's attachment table.
type Attachment struct {
	View                       ImageView
	LoadOp                     LoadOp
	StoreOp                    StoreOp
	ClearValue                 ClearValue
	InitialState, FinalState   ResourceState
}

// RenderPassDesc is everything a command encoder needs to begin a render
// pass: its color attachments in index order and an optional depth
// attachment.
type RenderPassDesc struct {
	ColorAttachments []Attachment
	DepthAttachment  *Attachment
}

// Barrier transitions one physical resource from Old to New state.
type Barrier struct {
	Resource any
	Old, New ResourceState
}

// CommandEncoder records GPU commands for one pass.
type CommandEncoder interface {
	ResourceBarrier(barriers []Barrier)
	BeginRenderPass(desc RenderPassDesc)
	EndRenderPass()
	BindPipeline(pipeline any)
	BindDescriptorSet(set any)
	BindVertexBuffer(buf Buffer, offset uint64)
	BindIndexBuffer(buf Buffer, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	Dispatch(x, y, z uint32)
}
