package pipeline

import (
	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
	"github.com/spaghettifunk/forgegraph/engine/visibility"
)

// ChunkSizes configures how a feature's per-object work is batched across
// worker goroutines. The driver reads only Extract: per-instance Extract
// calls are split into chunks of that size. Prepare runs once per view and
// is not chunked; the driver does not read the Prepare field. A zero
// Extract value runs the Extract calls serially on the calling goroutine
// (useful for features with per-frame overhead that swamps per-object
// cost, e.g. a UI feature with a handful of widgets).
type ChunkSizes struct {
	Extract int
	Prepare int
}

// FrameContext carries the per-feature, per-view identity a stage callback
// needs without every Feature hook re-deriving it.
type FrameContext struct {
	Feature  registry.FeatureIndex
	View     *view.RenderView
	Registry *registry.Registry
}

// Feature is a render feature's contract with the pipeline: a named set of
// optional stage callbacks. Only the hooks a feature actually needs are
// set; the driver nil-checks each before calling it, the same shape the
// engine's job-task callbacks use (OnStart/OnComplete/OnFailure are each
// independently optional). This avoids a capability-interface-per-stage
// design, which would force every feature to implement no-op methods for
// stages it does not participate in.
type Feature struct {
	Name  string
	Index registry.FeatureIndex
	Chunks ChunkSizes

	// BeginExtract runs once per view before any per-instance Extract call
	// and returns the feature's opaque per-view frame data (e.g. a
	// preallocated slice sized to the instance count).
	BeginExtract func(fc *FrameContext, instanceCount int) any

	// Extract runs once per visible instance, writing into frameData
	// (the value BeginExtract returned). Calls within one chunk run in
	// index order on one goroutine; different chunks run concurrently, so
	// frameData's slots must be disjoint per instance index; the driver
	// passes the instance's index within the view for that purpose.
	Extract func(fc *FrameContext, frameData any, index int, instance visibility.RenderObjectInstancePerView)

	// EndExtract runs once per view after every Extract call for that view
	// has completed, finalizing frameData before it crosses into Prepare.
	EndExtract func(fc *FrameContext, frameData any)

	// Prepare runs once per view, turning extracted frame data into
	// prepared (GPU-ready) data and emitting this feature's submit nodes
	// for the view via submit.PushNodes. Returns the opaque prepared data
	// Write will later consume — descriptor sets, uniform buffers, and
	// the like. Emitting into a phase the view's phase mask excludes is
	// the feature's own responsibility to skip; the pipeline does not
	// filter on its behalf.
	Prepare func(fc *FrameContext, frameData any, submit *ViewSubmitPacket) (any, error)

	// Write records GPU commands for a single submit node, dispatched by
	// the render graph's pass executor while walking a (view, phase)
	// block in comparator order. submitNodeID is the value the feature
	// itself chose when it pushed the corresponding SubmitNode in
	// Prepare; the pipeline never interprets it.
	Write func(fc *FrameContext, preparedData any, submitNodeID uint32, encoder gpu.CommandEncoder)
}
