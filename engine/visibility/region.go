package visibility

import (
	"sync/atomic"

	"github.com/spaghettifunk/forgegraph/engine/containers"
	"github.com/spaghettifunk/forgegraph/engine/math"
)

// VisibilityRegion owns a visibility world and hands out smart handles for
// objects and view frustums. Go has no destructors, so the RAII-on-drop
// behaviour of the reference design becomes an explicit contract: callers
// must call Release() exactly once when a handle is no longer needed.
// Releasing enqueues a destroy command rather than mutating the world
// directly, preserving the single-drain-point discipline.
type VisibilityRegion struct {
	world *World
}

// NewVisibilityRegion creates an empty visibility world with the given
// command-channel depth (0 means synchronous/unbuffered).
func NewVisibilityRegion(commandBufferSize int) *VisibilityRegion {
	return &VisibilityRegion{world: newWorld(commandBufferSize)}
}

// BeginFrame drains all commands queued since the last call, applying them
// to the world on the calling goroutine. Must be called once at the start
// of each frame's visibility stage, before any ViewVisibilityJob queries
// run.
func (r *VisibilityRegion) BeginFrame() {
	r.world.drain()
}

// Shutdown closes the region's command channel. No further Release calls
// may be enqueued afterward.
func (r *VisibilityRegion) Shutdown() {
	r.world.shutdown()
}

// ObjectHandle is a refcounted smart handle to a VisibilityObject. Cloning
// shares the same underlying object; Release must be called once per
// clone (including the original), and only the final Release destroys the
// object.
type ObjectHandle struct {
	world *World
	key   containers.Key
	refs  *int32
}

func (r *VisibilityRegion) registerObject(zone Zone, objectID uint64, cullModel CullModel) ObjectHandle {
	key := r.world.objects.Insert(VisibilityObject{
		ObjectID:  objectID,
		CullModel: cullModel,
		zone:      zone,
	})
	refs := int32(1)
	return ObjectHandle{world: r.world, key: key, refs: &refs}
}

// RegisterStaticObject registers a long-lived object in the static zone.
func (r *VisibilityRegion) RegisterStaticObject(objectID uint64, cullModel CullModel) ObjectHandle {
	return r.registerObject(ZoneStatic, objectID, cullModel)
}

// RegisterDynamicObject registers a frequently-moving object in the
// dynamic zone.
func (r *VisibilityRegion) RegisterDynamicObject(objectID uint64, cullModel CullModel) ObjectHandle {
	return r.registerObject(ZoneDynamic, objectID, cullModel)
}

// Key returns the underlying visibility-object key, used by queries to
// identify instances.
func (h ObjectHandle) Key() containers.Key { return h.key }

// Clone increments the handle's refcount and returns a handle referring to
// the same object.
func (h ObjectHandle) Clone() ObjectHandle {
	atomic.AddInt32(h.refs, 1)
	return h
}

// Release decrements the refcount; at zero it enqueues the object's
// destruction on the owning world.
func (h ObjectHandle) Release() {
	if atomic.AddInt32(h.refs, -1) == 0 {
		h.world.enqueue(destroyObjectCmd{object: h.key})
	}
}

// SetTransform enqueues a transform update for the object; the previous
// transform is preserved for motion-dependent features.
func (h ObjectHandle) SetTransform(transform math.Transform) {
	h.world.enqueue(setObjectTransformCmd{object: h.key, transform: transform})
}

// AttachRenderObject enqueues attaching a feature-private render object to
// this visibility object.
func (h ObjectHandle) AttachRenderObject(handle RenderObjectHandle) {
	h.world.enqueue(attachRenderObjectCmd{object: h.key, handle: handle})
}

// ViewFrustumHandle is a refcounted handle to a view frustum bound to one
// or both zones.
type ViewFrustumHandle struct {
	world *World
	key   containers.Key
	refs  *int32
}

func (r *VisibilityRegion) registerFrustum(static, dynamic bool) ViewFrustumHandle {
	key := r.world.frustums.Insert(frustum{
		staticZone:  static,
		dynamicZone: dynamic,
		view:        math.NewMat4Identity(),
		projection:  math.NewMat4Identity(),
	})
	refs := int32(1)
	return ViewFrustumHandle{world: r.world, key: key, refs: &refs}
}

// RegisterViewFrustum binds a frustum to both the static and dynamic
// zones.
func (r *VisibilityRegion) RegisterViewFrustum() ViewFrustumHandle {
	return r.registerFrustum(true, true)
}

// RegisterStaticViewFrustum binds a frustum to the static zone only.
func (r *VisibilityRegion) RegisterStaticViewFrustum() ViewFrustumHandle {
	return r.registerFrustum(true, false)
}

// RegisterDynamicViewFrustum binds a frustum to the dynamic zone only.
func (r *VisibilityRegion) RegisterDynamicViewFrustum() ViewFrustumHandle {
	return r.registerFrustum(false, true)
}

func (h ViewFrustumHandle) Clone() ViewFrustumHandle {
	atomic.AddInt32(h.refs, 1)
	return h
}

func (h ViewFrustumHandle) Release() {
	if atomic.AddInt32(h.refs, -1) == 0 {
		h.world.enqueue(destroyFrustumCmd{frustum: h.key})
	}
}

func (h ViewFrustumHandle) SetTransform(eye, lookAt, up math.Vec3) {
	h.world.enqueue(setFrustumTransformCmd{frustum: h.key, eye: eye, lookAt: lookAt, up: up})
}

func (h ViewFrustumHandle) SetProjection(projection math.Mat4) {
	h.world.enqueue(setFrustumProjectionCmd{frustum: h.key, projection: projection})
}

func (h ViewFrustumHandle) Key() containers.Key { return h.key }
