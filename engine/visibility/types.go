// Package visibility owns the visibility world: a spatial partition of
// static and dynamic zones, the objects and view frustums registered into
// it, and the per-view query that intersects a frustum with its zones to
// produce the RenderObjectInstance lists the feature pipeline extracts
// from.
package visibility

import (
	"github.com/spaghettifunk/forgegraph/engine/containers"
	"github.com/spaghettifunk/forgegraph/engine/math"
	"github.com/spaghettifunk/forgegraph/engine/registry"
)

// Zone is one of the two visibility partitions: static (long-lived
// objects) or dynamic (frequently-moving objects).
type Zone int

const (
	ZoneStatic Zone = iota
	ZoneDynamic
)

// CullModel is the opaque cull shape carried by a VisibilityObject. It is a
// closed tagged union: Mesh/AABB/Sphere/Quad/None.
type CullModel interface {
	isCullModel()
}

type CullModelNone struct{}

func (CullModelNone) isCullModel() {}

type CullModelAABB struct{ Box math.AABB }

func (CullModelAABB) isCullModel() {}

type CullModelSphere struct{ Sphere math.Sphere }

func (CullModelSphere) isCullModel() {}

type CullModelQuad struct{ Width, Height float32 }

func (CullModelQuad) isCullModel() {}

type CullModelMesh struct{ Polygons []math.Vec3 }

func (CullModelMesh) isCullModel() {}

// RenderObjectHandle names a feature's private render-object within a
// VisibilityObject: (feature_index, render_object_id).
type RenderObjectHandle struct {
	FeatureIndex   registry.FeatureIndex
	RenderObjectID uint64
}

// RenderObjectInstance identifies one renderable occurrence across all
// views for one frame: the application object it belongs to, the
// feature-private render object, and the visibility object it was culled
// from.
type RenderObjectInstance struct {
	ObjectID           uint64
	RenderObjectID     uint64
	VisibilityObjectID containers.Key
}

// RenderObjectInstancePerView adds the view this instance was visible to.
type RenderObjectInstancePerView struct {
	RenderObjectInstance
	ViewFrameIndex uint16
}

// VisibilityObject is one entry in the visibility world: an application
// object, its cull shape, the render-object handles it carries into each
// feature, and its current/previous transforms (for motion-dependent
// features such as velocity buffers).
type VisibilityObject struct {
	ObjectID         uint64
	CullModel        CullModel
	Handles          []RenderObjectHandle
	Transform        math.Transform
	PreviousTransform math.Transform
	zone             Zone
}
