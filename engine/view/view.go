// Package view defines RenderView: a camera plus the phase/feature/flag
// masks that determine what a given view renders.
package view

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/forgegraph/engine/math"
	"github.com/spaghettifunk/forgegraph/engine/registry"
)

// DebugMode toggles alternate shading output for a view's features,
// generalizing the engine's render-mode switch (default/lighting/normals).
type DebugMode int

const (
	DebugModeDefault DebugMode = iota
	DebugModeLighting
	DebugModeNormals
)

// FrameIndex is a view's dense index within a single frame (not to be
// confused with the registry's process-lifetime indices).
type FrameIndex uint16

// Kind tags what a view is conventionally used for. The core pipeline does
// not branch on Kind; it only consults the masks below. Kind exists so
// application code can dispatch the way the teacher's known-view-types did
// (world/ui/skybox/pick) without the core needing to know about any of
// them.
type Kind int

const (
	KindWorld Kind = iota
	KindUI
	KindSkybox
	KindPick
)

// RenderView is a camera with immutable-once-built masks determining which
// render phases, features, and feature flags it participates in.
type RenderView struct {
	DebugName string
	Kind      Kind
	Index     FrameIndex

	Eye        math.Vec3
	View       math.Mat4
	Projection math.Mat4
	DepthNear  float32
	DepthFar   float32

	PhaseMask   registry.PhaseMask
	FeatureMask registry.FeatureMask
	FlagMask    registry.FlagMask

	DebugViewMode DebugMode
}

// ViewProjection returns the combined view-projection matrix used for
// frustum extraction and shader uniforms alike.
func (v *RenderView) ViewProjection() math.Mat4 {
	return v.View.Mul(v.Projection)
}

// Builder constructs a RenderView with its masks fixed at creation time;
// once built, a view's masks must not change for the remainder of the
// frame (per spec invariant).
type Builder struct {
	v *RenderView
}

// NewBuilder constructs a view named name, or an auto-generated uuid when
// name is empty, matching the teacher's texture-naming fallback
// (engine/systems/renderview.go's uuid.New() default).
func NewBuilder(name string, kind Kind, index FrameIndex, reg *registry.Registry) *Builder {
	if name == "" {
		name = uuid.New().String()
	}
	return &Builder{v: &RenderView{
		DebugName:   name,
		Kind:        kind,
		Index:       index,
		PhaseMask:   registry.NewPhaseMask(reg),
		FeatureMask: registry.NewFeatureMask(reg),
		FlagMask:    registry.NewFlagMask(reg),
	}}
}

func (b *Builder) WithCamera(eye math.Vec3, view, projection math.Mat4, near, far float32) *Builder {
	b.v.Eye = eye
	b.v.View = view
	b.v.Projection = projection
	b.v.DepthNear = near
	b.v.DepthFar = far
	return b
}

func (b *Builder) IncludePhase(i registry.PhaseIndex) *Builder {
	b.v.PhaseMask.Include(i)
	return b
}

func (b *Builder) IncludeFeature(i registry.FeatureIndex) *Builder {
	b.v.FeatureMask.Include(i)
	return b
}

func (b *Builder) IncludeFlag(i registry.FlagIndex) *Builder {
	b.v.FlagMask.Include(i)
	return b
}

func (b *Builder) Build() *RenderView {
	return b.v
}
