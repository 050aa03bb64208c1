package pipeline

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/math"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
	"github.com/spaghettifunk/forgegraph/engine/visibility"
)

func buildTestFrame(t *testing.T) (*registry.Registry, registry.FeatureIndex, registry.PhaseIndex, *visibility.VisibilityRegion, *visibility.ViewVisibilityJob, []*view.RenderView, []visibility.ViewFrustumHandle) {
	t.Helper()

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
	obj.AttachRenderObject(visibility.RenderObjectHandle{FeatureIndex: mesh, RenderObjectID: 42})
	region.BeginFrame()

	v := view.NewBuilder("main", view.KindWorld, 0, reg).
		IncludeFeature(mesh).
		IncludePhase(opaque).
		WithCamera(math.NewVec3Zero(), math.NewMat4Identity(), math.NewMat4Identity(), 0.1, 1000.0).
		Build()

	job := visibility.NewViewVisibilityJob(visibility.Config{EnableVisibilityUpdate: true}, reg, region)

	return reg, mesh, opaque, region, job, []*view.RenderView{v}, []visibility.ViewFrustumHandle{frustum}
}

type stubEncoder struct{}

func (stubEncoder) ResourceBarrier(b []gpu.Barrier)  {}
func (stubEncoder) BeginRenderPass(d gpu.RenderPassDesc) {}
func (stubEncoder) EndRenderPass()                   {}
func (stubEncoder) BindPipeline(p any)                {}
func (stubEncoder) BindDescriptorSet(s any)           {}
func (stubEncoder) BindVertexBuffer(b gpu.Buffer, o uint64) {}
func (stubEncoder) BindIndexBuffer(b gpu.Buffer, o uint64)  {}
func (stubEncoder) DrawIndexed(ic, inst, fi uint32, vo int32, fInst uint32) {}
func (stubEncoder) Dispatch(x, y, z uint32)           {}

func TestDriverRunsExtractPrepareThenDispatchesWrite(t *testing.T) {
	reg, mesh, opaque, region, job, views, frustums := buildTestFrame(t)

	var stages []string

	feature := &Feature{
		Name:  "mesh",
		Index: mesh,
		BeginExtract: func(fc *FrameContext, instanceCount int) any {
			stages = append(stages, "begin-extract")
			ids := make([]uint64, 0, instanceCount)
			return &ids
		},
		Extract: func(fc *FrameContext, frameData any, idx int, inst visibility.RenderObjectInstancePerView) {
			ids := frameData.(*[]uint64)
			*ids = append(*ids, inst.RenderObjectID)
		},
		EndExtract: func(fc *FrameContext, frameData any) {
			stages = append(stages, "end-extract")
		},
		Prepare: func(fc *FrameContext, frameData any, submit *ViewSubmitPacket) (any, error) {
			stages = append(stages, "prepare")
			ids := frameData.(*[]uint64)
			for _, id := range *ids {
				submit.PushNodes(opaque, SubmitNode{FeatureIndex: fc.Feature, RenderObjectInstanceID: id, SubmitNodeID: 1, Sort: 1.0})
			}
			return frameData, nil
		},
		Write: func(fc *FrameContext, preparedData any, submitNodeID uint32, encoder gpu.CommandEncoder) {
			stages = append(stages, "write")
		},
	}

	pool := NewDefaultThreadPool(NewJobSystem(4))
	driver := NewDriver(reg, pool, []*Feature{feature})

	submit, err := driver.RunFrame(region, job, views, frustums)
	if err != nil {
		t.Fatalf("RunFrame: %v", err)
	}

	block := submit.SortedBlock(0, opaque)
	if len(block) != 1 || block[0].RenderObjectInstanceID != 42 {
		t.Fatalf("expected one submit node for object 42, got %+v", block)
	}

	if err := driver.Dispatch(0, opaque, stubEncoder{}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := []string{"begin-extract", "end-extract", "prepare", "write"}
	if len(stages) != len(want) {
		t.Fatalf("expected stage order %v, got %v", want, stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("expected stage order %v, got %v", want, stages)
		}
	}
}

func TestDriverAbortsOnPrepareFailure(t *testing.T) {
	reg, mesh, _, region, job, views, frustums := buildTestFrame(t)

	writeCalled := false
	feature := &Feature{
		Name:  "mesh",
		Index: mesh,
		Prepare: func(fc *FrameContext, frameData any, submit *ViewSubmitPacket) (any, error) {
			return nil, errors.New("boom")
		},
		Write: func(fc *FrameContext, preparedData any, submitNodeID uint32, encoder gpu.CommandEncoder) {
			writeCalled = true
		},
	}

	pool := NewDefaultThreadPool(NewJobSystem(4))
	driver := NewDriver(reg, pool, []*Feature{feature})

	_, err := driver.RunFrame(region, job, views, frustums)
	if err == nil {
		t.Fatal("expected PrepareFailedError")
	}
	var prepErr *PrepareFailedError
	if !errors.As(err, &prepErr) {
		t.Fatalf("expected *PrepareFailedError, got %T: %v", err, err)
	}
	if writeCalled {
		t.Fatal("write must not run after a prepare failure")
	}
}

func TestSubmitPacketOrdersByAscendingSortKey(t *testing.T) {
	b := registry.NewBuilder()
	f1, _ := b.RegisterFeature("f1")
	f2, _ := b.RegisterFeature("f2")
	opaque, err := b.RegisterPhase("opaque", func(a, b registry.SubmitNodeOrderable) bool {
		return a.SortKey() < b.SortKey()
	})
	if err != nil {
		t.Fatalf("RegisterPhase: %v", err)
	}
	reg := b.Freeze()

	sp := newSubmitPacket(1)
	view := sp.View(0)
	view.PushNodes(opaque,
		SubmitNode{FeatureIndex: f1, SubmitNodeID: 1, Sort: 5},
		SubmitNode{FeatureIndex: f1, SubmitNodeID: 2, Sort: 3},
	)
	view.PushNodes(opaque,
		SubmitNode{FeatureIndex: f2, SubmitNodeID: 1, Sort: 2},
		SubmitNode{FeatureIndex: f2, SubmitNodeID: 2, Sort: 4},
	)
	// f1's nodes arrive with sort keys 5, 3 and then (pushed last, after
	// f2's) 1, so the block's push order is 5, 3, 2, 4, 1.
	view.PushNodes(opaque, SubmitNode{FeatureIndex: f1, SubmitNodeID: 3, Sort: 1})

	sp.BuildBlocks(reg, 0)
	got := sp.SortedBlock(0, opaque)

	want := []SubmitNode{
		{FeatureIndex: f1, SubmitNodeID: 3, Sort: 1},
		{FeatureIndex: f2, SubmitNodeID: 1, Sort: 2},
		{FeatureIndex: f1, SubmitNodeID: 2, Sort: 3},
		{FeatureIndex: f2, SubmitNodeID: 2, Sort: 4},
		{FeatureIndex: f1, SubmitNodeID: 1, Sort: 5},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("node %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestRunChunkedCoversAllIndices(t *testing.T) {
	seen := make([]bool, 17)
	runChunked(len(seen), 4, func(i int) {
		seen[i] = true
	})
	for i, ok := range seen {
		if !ok {
			t.Fatalf("index %d was not visited", i)
		}
	}
}
