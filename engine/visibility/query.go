package visibility

import (
	"sort"

	"github.com/spaghettifunk/forgegraph/engine/containers"
	"github.com/spaghettifunk/forgegraph/engine/math"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
)

// RenderViewVisibilityQuery is the result of intersecting one view's
// frustum with its bound zones: for each active render feature, the sorted
// list of visible RenderObjectInstances.
type RenderViewVisibilityQuery struct {
	View            *view.RenderView
	PerFeatureLists [][]RenderObjectInstance // indexed by registry.FeatureIndex
}

// Config toggles global visibility-update behaviour.
type Config struct {
	// EnableVisibilityUpdate, when false, makes every query return its
	// previous result unchanged — useful for debugging a frozen frustum.
	EnableVisibilityUpdate bool
}

// ViewVisibilityJob runs visibility queries for a set of views against a
// world, honoring the last-frozen-result config toggle.
type ViewVisibilityJob struct {
	config     Config
	registry   *registry.Registry
	world      *World
	lastByView map[uint16]RenderViewVisibilityQuery
}

func NewViewVisibilityJob(config Config, reg *registry.Registry, region *VisibilityRegion) *ViewVisibilityJob {
	return &ViewVisibilityJob{
		config:     config,
		registry:   reg,
		world:      region.world,
		lastByView: make(map[uint16]RenderViewVisibilityQuery),
	}
}

// Query computes visibility for a single view against the zones bound to
// frustumHandle. When visibility updates are globally disabled, it returns
// the last computed result for that view unchanged; a view with no earlier
// result gets one computed and cached as usual.
func (j *ViewVisibilityJob) Query(frustumHandle ViewFrustumHandle, v *view.RenderView) RenderViewVisibilityQuery {
	viewIndex := uint16(v.Index)

	if !j.config.EnableVisibilityUpdate {
		if cached, ok := j.lastByView[viewIndex]; ok {
			return cached
		}
	}

	bound, ok := j.world.frustums.Get(frustumHandle.key)
	if !ok {
		return RenderViewVisibilityQuery{View: v, PerFeatureLists: make([][]RenderObjectInstance, j.registry.FeatureCount())}
	}

	frustum := math.NewFrustumFromViewProjection(v.ViewProjection())
	perFeature := make([][]RenderObjectInstance, j.registry.FeatureCount())

	j.world.objects.Range(func(key containers.Key, obj VisibilityObject) bool {
		if obj.zone == ZoneStatic && !bound.staticZone {
			return true
		}
		if obj.zone == ZoneDynamic && !bound.dynamicZone {
			return true
		}
		if !objectVisible(obj, frustum) {
			return true
		}
		for _, handle := range obj.Handles {
			if !v.FeatureMask.IsIncludedIndex(handle.FeatureIndex) {
				continue
			}
			perFeature[handle.FeatureIndex] = append(perFeature[handle.FeatureIndex], RenderObjectInstance{
				ObjectID:           obj.ObjectID,
				RenderObjectID:     handle.RenderObjectID,
				VisibilityObjectID: key,
			})
		}
		return true
	})

	for i := range perFeature {
		list := perFeature[i]
		sort.Slice(list, func(a, b int) bool { return list[a].RenderObjectID < list[b].RenderObjectID })
	}

	result := RenderViewVisibilityQuery{View: v, PerFeatureLists: perFeature}
	j.lastByView[viewIndex] = result
	return result
}

func objectVisible(obj VisibilityObject, frustum math.Frustum) bool {
	switch model := obj.CullModel.(type) {
	case CullModelNone:
		return true
	case CullModelAABB:
		return frustum.IntersectsAABB(model.Box)
	case CullModelSphere:
		return frustum.IntersectsSphere(model.Sphere)
	case CullModelQuad:
		half := math.Vec3{X: model.Width / 2, Y: model.Height / 2, Z: 0}
		return frustum.IntersectsAABB(math.NewAABB(obj.Transform.Position, half))
	case CullModelMesh:
		for _, p := range model.Polygons {
			if frustum.IntersectsPoint(obj.Transform.Position.Add(p)) {
				return true
			}
		}
		return len(model.Polygons) == 0
	default:
		return true
	}
}
