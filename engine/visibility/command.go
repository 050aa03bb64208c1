package visibility

import (
	"github.com/spaghettifunk/forgegraph/engine/containers"
	"github.com/spaghettifunk/forgegraph/engine/math"
)

// command is one queued mutation of the visibility world. Mutators run on
// whatever goroutine calls them (input handling, game logic); the world
// only applies commands when drained, turning cross-thread mutation of the
// spatial structure into a sequential replay at a well-defined point (the
// start of the visibility stage).
type command interface {
	apply(w *World)
}

type setObjectTransformCmd struct {
	object    containers.Key
	transform math.Transform
}

func (c setObjectTransformCmd) apply(w *World) {
	obj, ok := w.objects.Get(c.object)
	if !ok {
		return
	}
	obj.PreviousTransform = obj.Transform
	obj.Transform = c.transform
	w.objects.Set(c.object, obj)
}

type attachRenderObjectCmd struct {
	object containers.Key
	handle RenderObjectHandle
}

func (c attachRenderObjectCmd) apply(w *World) {
	obj, ok := w.objects.Get(c.object)
	if !ok {
		return
	}
	obj.Handles = append(obj.Handles, c.handle)
	w.objects.Set(c.object, obj)
}

type destroyObjectCmd struct {
	object containers.Key
}

func (c destroyObjectCmd) apply(w *World) {
	_ = w.objects.Remove(c.object)
}

type setFrustumTransformCmd struct {
	frustum        containers.Key
	eye, lookAt, up math.Vec3
}

func (c setFrustumTransformCmd) apply(w *World) {
	f, ok := w.frustums.Get(c.frustum)
	if !ok {
		return
	}
	f.eye, f.lookAt, f.up = c.eye, c.lookAt, c.up
	f.view = math.NewMat4LookAt(c.eye, c.lookAt, c.up)
	w.frustums.Set(c.frustum, f)
}

type setFrustumProjectionCmd struct {
	frustum    containers.Key
	projection math.Mat4
}

func (c setFrustumProjectionCmd) apply(w *World) {
	f, ok := w.frustums.Get(c.frustum)
	if !ok {
		return
	}
	f.projection = c.projection
	w.frustums.Set(c.frustum, f)
}

type destroyFrustumCmd struct {
	frustum containers.Key
}

func (c destroyFrustumCmd) apply(w *World) {
	_ = w.frustums.Remove(c.frustum)
}
