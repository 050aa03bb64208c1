// Package testbed is the demo application: it wires engine/frame's Run
// loop to a real window and Vulkan backend, in the same role the original
// engine's testbed.TestGame played for the old immediate-mode renderer —
// register features and phases, build a view per frame, hand a graph to
// Run, repeat until the window closes.
package testbed

import (
	"fmt"

	"github.com/spaghettifunk/forgegraph/engine/backend/vulkan"
	"github.com/spaghettifunk/forgegraph/engine/config"
	"github.com/spaghettifunk/forgegraph/engine/core"
	"github.com/spaghettifunk/forgegraph/engine/frame"
	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/graph"
	"github.com/spaghettifunk/forgegraph/engine/math"
	"github.com/spaghettifunk/forgegraph/engine/pipeline"
	"github.com/spaghettifunk/forgegraph/engine/platform"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
	"github.com/spaghettifunk/forgegraph/engine/visibility"
)

const (
	startPosX, startPosY       = 100, 100
	startWidth, startHeight    = 1280, 720
	applicationName            = "forgegraph testbed"
)

// Game owns every long-lived piece of demo state: the window, the Vulkan
// context, the frozen registry, and the visibility region meshes are
// attached to. One Game runs one window's worth of frames.
type Game struct {
	window *platform.Window
	ctx    *vulkan.Context
	cfg    *config.Watcher

	reg    *registry.Registry
	mesh   registry.FeatureIndex
	text   registry.FeatureIndex
	opaque registry.PhaseIndex
	uiText registry.PhaseIndex

	region   *visibility.VisibilityRegion
	frustum  visibility.ViewFrustumHandle
	visJob   *visibility.ViewVisibilityJob
	pool     pipeline.ThreadPool
	driver   *pipeline.Driver

	worldView *view.RenderView
	uiView    *view.RenderView

	texture *Texture
	font    *Font

	clock      *core.Clock
	objectID   uint32
	frameCount uint64
}

// New boots the window, Vulkan context and config watcher, then registers
// the feature/phase set the demo's two views read from.
func New(configPath string) (*Game, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("testbed: load config: %w", err)
	}

	window, err := platform.New()
	if err != nil {
		return nil, fmt.Errorf("testbed: create window: %w", err)
	}
	if err := window.Open(applicationName, startPosX, startPosY, startWidth, startHeight); err != nil {
		return nil, fmt.Errorf("testbed: open window: %w", err)
	}

	ctx, err := vulkan.NewContext(applicationName, window.RequiredInstanceExtensions())
	if err != nil {
		return nil, fmt.Errorf("testbed: create vulkan context: %w", err)
	}

	b := registry.NewBuilder()
	mesh, err := b.RegisterFeature("mesh")
	if err != nil {
		return nil, err
	}
	text, err := b.RegisterFeature("text")
	if err != nil {
		return nil, err
	}
	opaque, err := b.RegisterPhase("opaque", func(a, b registry.SubmitNodeOrderable) bool {
		return a.SortKey() < b.SortKey()
	})
	if err != nil {
		return nil, err
	}
	uiText, err := b.RegisterPhase("ui-text", func(a, b registry.SubmitNodeOrderable) bool {
		return a.SortKey() < b.SortKey()
	})
	if err != nil {
		return nil, err
	}
	reg := b.Freeze()

	region := visibility.NewVisibilityRegion(cfg.Current().Visibility.DefaultArenaCapacity)
	frustum := region.RegisterViewFrustum()
	frustum.SetProjection(math.NewMat4Perspective(math.K_QUARTER_PI, float32(startWidth)/float32(startHeight), 0.1, 1000.0))
	frustum.SetTransform(math.Vec3{X: 0, Y: 0, Z: 3}, math.Vec3{X: 0, Y: 0, Z: -1}, math.Vec3{X: 0, Y: 1, Z: 0})

	objectID := core.IdentifierAquireNewID(&Game{})
	obj := region.RegisterStaticObject(uint64(objectID), visibility.CullModelNone{})
	obj.AttachRenderObject(visibility.RenderObjectHandle{FeatureIndex: mesh, RenderObjectID: uint64(objectID)})
	region.BeginFrame()

	visJob := visibility.NewViewVisibilityJob(visibility.Config{
		EnableVisibilityUpdate: cfg.Current().Visibility.EnableVisibilityUpdate,
	}, reg, region)

	worldView := view.NewBuilder("world", view.KindWorld, 0, reg).
		IncludeFeature(mesh).
		IncludePhase(opaque).
		WithCamera(math.Vec3{X: 0, Y: 0, Z: 3}, math.NewMat4Identity(), math.NewMat4Identity(), 0.1, 1000.0).
		Build()

	uiView := view.NewBuilder("ui", view.KindUI, 1, reg).
		IncludeFeature(text).
		IncludePhase(uiText).
		Build()

	texture, err := LoadTexture("assets/textures/forgegraph.png", 2048)
	if err != nil {
		core.LogWarn("testbed: texture unavailable, using a blank default: %v", err)
		texture = &Texture{Width: 1, Height: 1, Pixels: []byte{255, 255, 255, 255}}
	}
	font, err := LoadFont("assets/fonts/ui.fnt")
	if err != nil {
		core.LogWarn("testbed: font unavailable, ui pass will skip text: %v", err)
		font = &Font{Glyphs: map[rune]Glyph{}}
	}

	jobSystem := pipeline.NewJobSystem(cfg.Current().ThreadPool.MaxInFlight)
	pool := pipeline.NewDefaultThreadPool(jobSystem)

	clock := core.NewClock()
	clock.Start()

	g := &Game{
		window: window, ctx: ctx, cfg: cfg,
		reg: reg, mesh: mesh, text: text, opaque: opaque, uiText: uiText,
		region: region, frustum: frustum, visJob: visJob, pool: pool,
		worldView: worldView, uiView: uiView,
		texture: texture, font: font,
		clock: clock, objectID: objectID,
	}

	features := []*pipeline.Feature{g.meshFeature(), g.textFeature()}
	g.driver = pipeline.NewDriver(reg, pool, features)
	return g, nil
}

// Run pumps window messages and drives one frame through engine/frame.Run
// until the user closes the window.
func (g *Game) Run() error {
	lastTime := g.clock.Elapsed()
	for !g.window.ShouldClose() {
		g.window.PumpMessages()

		if g.window.ConsumeResize() {
			core.LogInfo("testbed: %v, skipping frame", core.ErrSwapchainBooting)
			continue
		}

		g.clock.Update()
		currentTime := g.clock.Elapsed()
		// Clock.Elapsed is in nanoseconds; frame.Run takes seconds.
		deltaTime := (currentTime - lastTime) / 1e9
		lastTime = currentTime

		g.region.BeginFrame()

		encoder, err := vulkan.NewEncoder(g.ctx)
		if err != nil {
			return fmt.Errorf("testbed: new encoder: %w", err)
		}

		views := []*view.RenderView{g.worldView, g.uiView}
		frustums := []visibility.ViewFrustumHandle{g.frustum, g.frustum}
		if err := frame.Run(g.driver, g.region, g.visJob, views, frustums, g.buildGraph, g.ctx, encoder, deltaTime); err != nil {
			return fmt.Errorf("testbed: frame: %w", err)
		}
		if err := encoder.End(); err != nil {
			return fmt.Errorf("testbed: submit frame: %w", err)
		}

		g.frameCount++
		if g.frameCount%120 == 0 {
			fps, frameMS := core.MetricsFrame()
			core.LogDebug("testbed: %.1f fps, %.2f ms/frame", fps, frameMS)
		}
	}
	return nil
}

func (g *Game) Shutdown() error {
	if err := core.IdentifierReleaseID(g.objectID); err != nil {
		core.LogWarn("testbed: release object id: %v", err)
	}
	g.clock.Stop()
	if err := g.cfg.Close(); err != nil {
		core.LogWarn("testbed: close config watcher: %v", err)
	}
	g.ctx.Destroy()
	return g.window.Close()
}

// buildGraph declares the demo's two-pass graph every frame: an opaque
// world pass rendering into an offscreen color+depth target, and a UI
// pass that samples the world pass's color output as a background before
// drawing text quads over it. The UI output shares no physical slot with
// the world pass's images: the color target is still read by the UI pass
// and the depth target has a different format.
func (g *Game) buildGraph(b *graph.Builder) error {
	width, height := uint32(startWidth), uint32(startHeight)

	world := b.CreateNode("world-opaque")
	colorOut := world.CreateColorAttachment(0, rgba8(width, height), &gpu.ClearValue{R: 0.02, G: 0.02, B: 0.05, A: 1})
	world.CreateDepthAttachment(depth32(width, height), &gpu.ClearValue{Depth: 1})
	world.RequireViewPhase(0, g.opaque)

	ui := b.CreateNode("ui-overlay")
	sampled := ui.SampleImage(colorOut, rgba8(width, height))
	_ = sampled
	uiOut := ui.CreateColorAttachment(0, rgba8(width, height), nil)
	ui.RequireViewPhase(1, g.uiText)
	ui.SetOutputImage(uiOut, gpu.ResourceStateRenderTarget, graph.ImageConstraint{
		Format: ptrFormat(gpu.FormatRGBA8UNorm), Samples: ptrU8(1),
		Width: ptrU32(width), Height: ptrU32(height), Depth: ptrU32(1),
		LayerCount: ptrU32(1), MipCount: ptrU32(1),
	})
	return nil
}

func rgba8(width, height uint32) graph.ImageConstraint {
	return graph.ImageConstraint{
		Format: ptrFormat(gpu.FormatRGBA8UNorm), Samples: ptrU8(1),
		Width: ptrU32(width), Height: ptrU32(height), Depth: ptrU32(1),
		LayerCount: ptrU32(1), MipCount: ptrU32(1),
	}
}

func depth32(width, height uint32) graph.ImageConstraint {
	return graph.ImageConstraint{
		Format: ptrFormat(gpu.FormatD32Float), Samples: ptrU8(1),
		Width: ptrU32(width), Height: ptrU32(height), Depth: ptrU32(1),
		LayerCount: ptrU32(1), MipCount: ptrU32(1),
	}
}

func ptrFormat(f gpu.Format) *gpu.Format { return &f }
func ptrU8(v uint8) *uint8               { return &v }
func ptrU32(v uint32) *uint32            { return &v }
