// Package frame is the application-facing entry point: it drives one
// frame end to end, running the feature pipeline (engine/pipeline) and
// then compiling and executing a render graph (engine/graph) against the
// pipeline's output, exactly the ordering required in spec terms "frame
// runner" (graph plan execution, §4.5) sitting downstream of the feature
// pipeline (§4.3).
package frame

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/forgegraph/engine/core"
	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/graph"
	"github.com/spaghettifunk/forgegraph/engine/pipeline"
	"github.com/spaghettifunk/forgegraph/engine/view"
	"github.com/spaghettifunk/forgegraph/engine/visibility"
)

var metricsOnce sync.Once

// Error wraps any failure during a frame, naming which stage produced it
// so the caller's logging/metrics can attribute failures correctly.
type Error struct {
	Stage string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("frame: %s: %v", e.Stage, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// GraphFunc builds this frame's render graph. The application supplies one
// per frame rather than a static graph, since attachment sizes (e.g. a
// resized swapchain) and which optional passes run can vary frame to
// frame.
type GraphFunc func(b *graph.Builder) error

// Run drives one complete frame: visibility -> extract -> prepare ->
// submit-block-build (via driver.RunFrame), then graph compile -> resource
// allocation -> pass execution (via the returned plan), with the pipeline
// driver wired in as the graph's SubmitDispatcher so each pass's required
// (view, phase) blocks replay in submit order during Write (§4.5.4).
//
// deltaTime is the caller's core.Clock-derived elapsed time since the
// previous call, in seconds; Run feeds it into core.MetricsUpdate the same
// way the teacher's RendererSystem.DrawFrame fed packet.DeltaTime into its
// own frame-timing bookkeeping, so core.MetricsFPS/MetricsFrameTime report
// this frame orchestrator's own cadence rather than the caller's.
//
// A failure during RunFrame or graph compilation aborts before any GPU
// submission, per the error-propagation policy in spec terms "planner
// errors abort plan construction" and "prepare errors abort the frame
// before any GPU submission".
func Run(
	driver *pipeline.Driver,
	region *visibility.VisibilityRegion,
	visJob *visibility.ViewVisibilityJob,
	views []*view.RenderView,
	frustums []visibility.ViewFrustumHandle,
	buildGraph GraphFunc,
	device gpu.Device,
	encoder gpu.CommandEncoder,
	deltaTime float64,
) error {
	metricsOnce.Do(func() {
		if err := core.MetricsInitialize(); err != nil {
			core.LogWarn("frame: metrics init: %v", err)
		}
	})
	core.MetricsUpdate(deltaTime)

	if _, err := driver.RunFrame(region, visJob, views, frustums); err != nil {
		return &Error{Stage: "pipeline", Err: err}
	}

	b := graph.NewBuilder()
	if err := buildGraph(b); err != nil {
		return &Error{Stage: "graph-build", Err: err}
	}

	plan, err := b.Compile()
	if err != nil {
		return &Error{Stage: "graph-compile", Err: err}
	}

	pool, err := graph.NewResourcePool(device, plan)
	if err != nil {
		return &Error{Stage: "resource-allocate", Err: err}
	}

	if err := plan.Execute(encoder, pool, driver); err != nil {
		return &Error{Stage: "graph-execute", Err: err}
	}
	return nil
}
