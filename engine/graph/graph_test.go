package graph

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/forgegraph/engine/gpu"
)

func rgba8(width, height uint32) ImageConstraint {
	return ImageConstraint{
		Format: fmtp(gpu.FormatRGBA8UNorm), Samples: u8p(1),
		Width: u32p(width), Height: u32p(height), Depth: u32p(1),
		LayerCount: u32p(1), MipCount: u32p(1),
	}
}

func depthMSAA(samples uint8, width, height uint32) ImageConstraint {
	return ImageConstraint{
		Format: fmtp(gpu.FormatD32Float), Samples: u8p(samples),
		Width: u32p(width), Height: u32p(height), Depth: u32p(1),
		LayerCount: u32p(1), MipCount: u32p(1),
	}
}

func rgba8MSAA(samples uint8, width, height uint32) ImageConstraint {
	return ImageConstraint{
		Format: fmtp(gpu.FormatRGBA8UNorm), Samples: u8p(samples),
		Width: u32p(width), Height: u32p(height), Depth: u32p(1),
		LayerCount: u32p(1), MipCount: u32p(1),
	}
}

func TestCompileEmptyGraph(t *testing.T) {
	b := NewBuilder()
	plan, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(plan.Passes) != 0 {
		t.Fatalf("expected 0 passes, got %d", len(plan.Passes))
	}
	if len(plan.Images) != 0 || len(plan.Buffers) != 0 {
		t.Fatalf("expected 0 physical resources, got %d images, %d buffers", len(plan.Images), len(plan.Buffers))
	}
}

func TestCompileSingleTrianglePass(t *testing.T) {
	b := NewBuilder()
	n := b.CreateNode("triangle")
	clear := &gpu.ClearValue{R: 0, G: 0, B: 0, A: 1}
	out := n.CreateColorAttachment(0, rgba8(1920, 1080), clear)
	n.SetOutputImage(out, gpu.ResourceStateRenderTarget, ImageConstraint{})

	plan, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(plan.Passes) != 1 {
		t.Fatalf("expected 1 pass, got %d", len(plan.Passes))
	}
	pass := plan.Passes[0]
	if len(pass.ColorAttachments) != 1 {
		t.Fatalf("expected 1 color attachment, got %d", len(pass.ColorAttachments))
	}
	ca := pass.ColorAttachments[0].Write
	if ca.LoadOp != gpu.LoadOpClear {
		t.Fatalf("expected LoadOpClear, got %v", ca.LoadOp)
	}
	if ca.StoreOp != gpu.StoreOpStore {
		t.Fatalf("expected StoreOpStore, got %v", ca.StoreOp)
	}
	if ca.InitialState != gpu.ResourceStateUndefined {
		t.Fatalf("expected initial state UNDEFINED, got %v", ca.InitialState)
	}
	if ca.FinalState != gpu.ResourceStateRenderTarget {
		t.Fatalf("expected final state RENDER_TARGET, got %v", ca.FinalState)
	}
}

func TestCompilePingPongBlurAliasesTwoImages(t *testing.T) {
	b := NewBuilder()

	// A real ping-pong blur alternates between two distinct buffers rather
	// than modifying one in place, so each pass creates a fresh output and
	// samples the previous pass's: A -> B -> C, with A and C's outputs
	// expected to alias onto the same physical slot since A's is dead by
	// the time C needs one.
	a := b.CreateNode("blur-a")
	imgA := a.CreateColorAttachment(0, rgba8(800, 600), nil)

	bb := b.CreateNode("blur-b")
	bb.SampleImage(imgA, rgba8(800, 600))
	imgB := bb.CreateColorAttachment(0, rgba8(800, 600), nil)

	c := b.CreateNode("blur-c")
	c.SampleImage(imgB, rgba8(800, 600))
	imgC := c.CreateColorAttachment(0, rgba8(800, 600), nil)
	c.SetOutputImage(imgC, gpu.ResourceStateRenderTarget, ImageConstraint{})

	plan, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(plan.Passes) != 3 {
		t.Fatalf("expected 3 passes, got %d", len(plan.Passes))
	}
	if len(plan.Images) != 2 {
		t.Fatalf("expected 2 physical images (A/C shared, B separate), got %d", len(plan.Images))
	}
}

func TestCompileMSAADepthPrepassInsertsOneResolve(t *testing.T) {
	b := NewBuilder()

	a := b.CreateNode("depth-prepass")
	depth := a.CreateDepthAttachment(depthMSAA(4, 1920, 1080), nil)

	bb := b.CreateNode("color-pass")
	bb.ReadDepthAttachment(depth, depthMSAA(4, 1920, 1080))
	colorMSAA := bb.CreateColorAttachment(0, rgba8MSAA(4, 1920, 1080), nil)

	c := b.CreateNode("post")
	single := c.SampleImage(colorMSAA, rgba8(1920, 1080))
	out := c.CreateColorAttachment(0, rgba8(1920, 1080), nil)
	c.SetOutputImage(out, gpu.ResourceStateRenderTarget, ImageConstraint{})
	_ = single

	plan, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	var colorPass *Pass
	for _, p := range plan.Passes {
		if p.Name == "color-pass" {
			colorPass = p
		}
	}
	if colorPass == nil {
		t.Fatal("color-pass not found in plan")
	}
	if len(colorPass.ColorAttachments) != 1 || colorPass.ColorAttachments[0].Resolve == nil {
		t.Fatalf("expected color-pass to carry exactly one resolve attachment, got %+v", colorPass.ColorAttachments)
	}

	var postPass *Pass
	for _, p := range plan.Passes {
		if p.Name == "post" {
			postPass = p
		}
	}
	if postPass == nil {
		t.Fatal("post pass not found in plan")
	}
	found := false
	for _, barrier := range postPass.PreBarrier {
		if barrier.New == gpu.ResourceStatePixelShaderResource {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a pre-pass barrier transitioning the resolve image to PIXEL_SHADER_RESOURCE, got %+v", postPass.PreBarrier)
	}
}

func TestCompileDetectsCycle(t *testing.T) {
	b := NewBuilder()
	a := b.CreateNode("a")
	bb := b.CreateNode("b")

	// Declare a's output first so it has a usage ID to wire b against, then
	// retroactively make a also consume b's output, forming a->b->a.
	imgA := a.CreateColorAttachment(0, rgba8(64, 64), nil)
	imgB := bb.ModifyColorAttachment(0, imgA, rgba8(64, 64))
	imgA2 := a.ModifyColorAttachment(0, imgB, rgba8(64, 64))
	bb.SetOutputImage(imgB, gpu.ResourceStateRenderTarget, ImageConstraint{})
	_ = imgA2

	_, err := b.Compile()
	if err == nil {
		t.Fatal("expected a cycle error")
	}
	var cycleErr *CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("expected *CycleError, got %T: %v", err, err)
	}
}

func TestCompileCullsUnreachableNode(t *testing.T) {
	b := NewBuilder()

	reachable := b.CreateNode("reachable")
	out := reachable.CreateColorAttachment(0, rgba8(64, 64), nil)
	reachable.SetOutputImage(out, gpu.ResourceStateRenderTarget, ImageConstraint{})

	orphan := b.CreateNode("orphan")
	orphan.CreateColorAttachment(0, rgba8(64, 64), nil)

	plan, err := b.Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(plan.Passes) != 1 {
		t.Fatalf("expected unreachable node to be culled, got %d passes", len(plan.Passes))
	}
	if plan.Passes[0].Name != "reachable" {
		t.Fatalf("expected surviving pass to be %q, got %q", "reachable", plan.Passes[0].Name)
	}
}
