package graph

// NodeID identifies one pass within a single graph-builder invocation.
type NodeID int

// ImageUsageID identifies one read/write/create/modify/sample site for an
// image within a single graph-builder invocation.
type ImageUsageID int

// BufferUsageID is the buffer analogue of ImageUsageID.
type BufferUsageID int

// VirtualImageID groups image usages that reference the same underlying
// data after virtual-resource assignment (§4.4.4).
type VirtualImageID int

// VirtualBufferID is the buffer analogue of VirtualImageID.
type VirtualBufferID int

// PhysicalImageID identifies one allocated image slot after lifetime-based
// aliasing (§4.4.6).
type PhysicalImageID int

// PhysicalBufferID is the buffer analogue of PhysicalImageID.
type PhysicalBufferID int

type usageKind int

const (
	usageCreate usageKind = iota
	usageRead
	usageModify
)

type attachmentKind int

const (
	attachmentNone attachmentKind = iota
	attachmentColor
	attachmentDepth
	attachmentResolve
)
