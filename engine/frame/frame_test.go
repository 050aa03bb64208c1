package frame

import (
	"testing"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/graph"
	"github.com/spaghettifunk/forgegraph/engine/math"
	"github.com/spaghettifunk/forgegraph/engine/pipeline"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
	"github.com/spaghettifunk/forgegraph/engine/visibility"
)

type stubImage struct{ def gpu.ImageDef }

func (s stubImage) Def() gpu.ImageDef { return s.def }

type stubBuffer struct{ def gpu.BufferDef }

func (s stubBuffer) Def() gpu.BufferDef                { return s.def }
func (s stubBuffer) Map() ([]byte, error)              { return nil, nil }
func (s stubBuffer) Unmap()                            {}
func (s stubBuffer) CopyToHostVisible(data []byte) error { return nil }

type stubView struct {
	img     gpu.Image
	options gpu.ImageViewOptions
}

func (v stubView) Image() gpu.Image                { return v.img }
func (v stubView) Options() gpu.ImageViewOptions    { return v.options }

type stubDevice struct{}

func (stubDevice) CreateBuffer(def gpu.BufferDef) (gpu.Buffer, error) { return stubBuffer{def}, nil }
func (stubDevice) CreateImage(def gpu.ImageDef) (gpu.Image, error)    { return stubImage{def}, nil }
func (stubDevice) CreateImageView(img gpu.Image, opts gpu.ImageViewOptions) (gpu.ImageView, error) {
	return stubView{img, opts}, nil
}

type stubEncoder struct{ begun, drew int }

func (e *stubEncoder) ResourceBarrier(b []gpu.Barrier)     {}
func (e *stubEncoder) BeginRenderPass(d gpu.RenderPassDesc) { e.begun++ }
func (e *stubEncoder) EndRenderPass()                       {}
func (e *stubEncoder) BindPipeline(p any)                   {}
func (e *stubEncoder) BindDescriptorSet(s any)               {}
func (e *stubEncoder) BindVertexBuffer(b gpu.Buffer, o uint64) {}
func (e *stubEncoder) BindIndexBuffer(b gpu.Buffer, o uint64)  {}
func (e *stubEncoder) DrawIndexed(ic, inst, fi uint32, vo int32, fInst uint32) { e.drew++ }
func (e *stubEncoder) Dispatch(x, y, z uint32)               {}

func TestRunDrivesPipelineThenGraph(t *testing.T) {
	b := registry.NewBuilder()
	mesh, err := b.RegisterFeature("mesh")
	if err != nil {
		t.Fatalf("RegisterFeature: %v", err)
	}
	opaque, err := b.RegisterPhase("opaque", nil)
	if err != nil {
		t.Fatalf("RegisterPhase: %v", err)
	}
	reg := b.Freeze()

	region := visibility.NewVisibilityRegion(8)
	frustum := region.RegisterViewFrustum()
	frustum.SetProjection(math.NewMat4Perspective(math.K_QUARTER_PI, 1.0, 0.1, 1000.0))
	frustum.SetTransform(math.NewVec3Zero(), math.Vec3{X: 0, Y: 0, Z: -1}, math.Vec3{X: 0, Y: 1, Z: 0})

	obj := region.RegisterStaticObject(1, visibility.CullModelNone{})
	obj.AttachRenderObject(visibility.RenderObjectHandle{FeatureIndex: mesh, RenderObjectID: 7})
	region.BeginFrame()

	v := view.NewBuilder("main", view.KindWorld, 0, reg).
		IncludeFeature(mesh).
		IncludePhase(opaque).
		WithCamera(math.NewVec3Zero(), math.NewMat4Identity(), math.NewMat4Identity(), 0.1, 1000.0).
		Build()

	job := visibility.NewViewVisibilityJob(visibility.Config{EnableVisibilityUpdate: true}, reg, region)

	var wrote bool
	feature := &pipeline.Feature{
		Name:  "mesh",
		Index: mesh,
		Prepare: func(fc *pipeline.FrameContext, frameData any, submit *pipeline.ViewSubmitPacket) (any, error) {
			submit.PushNodes(opaque, pipeline.SubmitNode{FeatureIndex: fc.Feature, RenderObjectInstanceID: 7, SubmitNodeID: 1, Sort: 1})
			return nil, nil
		},
		Write: func(fc *pipeline.FrameContext, preparedData any, submitNodeID uint32, encoder gpu.CommandEncoder) {
			wrote = true
		},
	}

	pool := pipeline.NewDefaultThreadPool(pipeline.NewJobSystem(4))
	driver := pipeline.NewDriver(reg, pool, []*pipeline.Feature{feature})

	buildGraph := func(gb *graph.Builder) error {
		n := gb.CreateNode("main-pass")
		out := n.CreateColorAttachment(0, graph.ImageConstraint{}, nil)
		n.RequireViewPhase(0, opaque)
		n.SetOutputImage(out, gpu.ResourceStateRenderTarget, graph.ImageConstraint{
			Format: ptrFormat(gpu.FormatRGBA8UNorm), Samples: ptrU8(1),
			Width: ptrU32(1920), Height: ptrU32(1080), Depth: ptrU32(1),
			LayerCount: ptrU32(1), MipCount: ptrU32(1),
		})
		return nil
	}

	enc := &stubEncoder{}
	if err := Run(driver, region, job, []*view.RenderView{v}, []visibility.ViewFrustumHandle{frustum}, buildGraph, stubDevice{}, enc, 1.0/60.0); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if enc.begun != 1 {
		t.Fatalf("expected 1 render pass begun, got %d", enc.begun)
	}
	if !wrote {
		t.Fatal("expected the feature's Write hook to run during graph execution")
	}
}

func ptrFormat(f gpu.Format) *gpu.Format { return &f }
func ptrU8(v uint8) *uint8               { return &v }
func ptrU32(v uint32) *uint32            { return &v }
