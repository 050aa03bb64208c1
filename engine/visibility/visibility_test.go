package visibility

import (
	"testing"

	"github.com/spaghettifunk/forgegraph/engine/math"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
)

func buildMeshFeatureRegistry(t *testing.T) (*registry.Registry, registry.FeatureIndex) {
	t.Helper()
	b := registry.NewBuilder()
	mesh, err := b.RegisterFeature("mesh")
	if err != nil {
		t.Fatalf("RegisterFeature: %v", err)
	}
	return b.Freeze(), mesh
}

func TestQueryFiltersByFeatureMaskAndSortsByRenderObjectID(t *testing.T) {
	reg, mesh := buildMeshFeatureRegistry(t)

	region := NewVisibilityRegion(8)
	frustumHandle := region.RegisterViewFrustum()
	frustumHandle.SetProjection(math.NewMat4Perspective(math.K_QUARTER_PI, 1.0, 0.1, 1000.0))
	frustumHandle.SetTransform(math.NewVec3Zero(), math.Vec3{X: 0, Y: 0, Z: -1}, math.Vec3{X: 0, Y: 1, Z: 0})

	objA := region.RegisterStaticObject(1, CullModelNone{})
	objA.AttachRenderObject(RenderObjectHandle{FeatureIndex: mesh, RenderObjectID: 5})
	objA.SetTransform(math.Transform{Position: math.Vec3{X: 0, Y: 0, Z: -10}})

	objB := region.RegisterStaticObject(2, CullModelNone{})
	objB.AttachRenderObject(RenderObjectHandle{FeatureIndex: mesh, RenderObjectID: 1})
	objB.SetTransform(math.Transform{Position: math.Vec3{X: 0, Y: 0, Z: -10}})

	region.BeginFrame()

	v := view.NewBuilder("main", view.KindWorld, 0, reg).
		IncludeFeature(mesh).
		WithCamera(math.NewVec3Zero(), math.NewMat4Identity(), math.NewMat4Identity(), 0.1, 1000.0).
		Build()

	job := NewViewVisibilityJob(Config{EnableVisibilityUpdate: true}, reg, region)
	result := job.Query(frustumHandle, v)

	list := result.PerFeatureLists[mesh]
	if len(list) != 2 {
		t.Fatalf("expected 2 visible instances, got %d", len(list))
	}
	if list[0].RenderObjectID != 1 || list[1].RenderObjectID != 5 {
		t.Fatalf("expected instances sorted by RenderObjectID, got %+v", list)
	}
}

func TestQueryFrozenWhenVisibilityUpdatesDisabled(t *testing.T) {
	reg, mesh := buildMeshFeatureRegistry(t)

	region := NewVisibilityRegion(8)
	frustumHandle := region.RegisterViewFrustum()

	obj := region.RegisterStaticObject(1, CullModelNone{})
	obj.AttachRenderObject(RenderObjectHandle{FeatureIndex: mesh, RenderObjectID: 9})
	region.BeginFrame()

	v := view.NewBuilder("frozen", view.KindWorld, 0, reg).
		IncludeFeature(mesh).
		WithCamera(math.NewVec3Zero(), math.NewMat4Identity(), math.NewMat4Identity(), 0.1, 100).
		Build()

	job := NewViewVisibilityJob(Config{EnableVisibilityUpdate: false}, reg, region)
	first := job.Query(frustumHandle, v)
	second := job.Query(frustumHandle, v)

	if len(first.PerFeatureLists[mesh]) != len(second.PerFeatureLists[mesh]) {
		t.Fatalf("expected frozen results to be identical across calls")
	}
}
