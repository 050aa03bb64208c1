// Package pipeline drives the per-frame render-feature pipeline: for a set
// of views, run visibility, then extract, then prepare, then submit-block
// build, for every registered feature, honoring the stage-ordering
// guarantee that no feature's Prepare starts before every feature's
// Extract has finished for that view, and no block is built before every
// feature's Prepare has finished for that view. The render graph's pass
// executor drives the final Write stage later, dispatching through
// Driver.Dispatch as it walks each pass's required (view, phase) blocks.
package pipeline

import (
	"sync"

	"github.com/spaghettifunk/forgegraph/engine/core"
	"github.com/spaghettifunk/forgegraph/engine/gpu"
	"github.com/spaghettifunk/forgegraph/engine/registry"
	"github.com/spaghettifunk/forgegraph/engine/view"
	"github.com/spaghettifunk/forgegraph/engine/visibility"
)

// Driver owns the registered features and the thread pool they run on, and
// exposes the per-frame entry point the application calls plus the write
// dispatch the graph executor calls back into.
type Driver struct {
	registry *registry.Registry
	pool     ThreadPool
	features []*Feature

	lastSubmit   *SubmitPacket
	lastPrepared map[registry.FeatureIndex][]any
}

func NewDriver(reg *registry.Registry, pool ThreadPool, features []*Feature) *Driver {
	return &Driver{registry: reg, pool: pool, features: features}
}

// RunFrame runs visibility, extract, prepare, and submit-block-build for
// every registered feature and every view. Returns the frame's
// SubmitPacket, or the first PrepareFailedError encountered — on error,
// extract work already in flight is allowed to finish but no further
// Prepare or block-build calls are made for that frame. The render graph
// plan for the same frame should be compiled and executed only after this
// returns successfully; Driver.Dispatch reads the state RunFrame leaves
// behind.
func (d *Driver) RunFrame(
	region *visibility.VisibilityRegion,
	visJob *visibility.ViewVisibilityJob,
	views []*view.RenderView,
	frustums []visibility.ViewFrustumHandle,
) (*SubmitPacket, error) {
	region.BeginFrame()

	queries := make([]visibility.RenderViewVisibilityQuery, len(views))
	d.pool.RunVisibilityJobs(len(views), func(i int) {
		queries[i] = visJob.Query(frustums[i], views[i])
	})

	submit := newSubmitPacket(len(views))
	prepared := make(map[registry.FeatureIndex][]any, len(d.features))

	for _, feature := range d.features {
		frameData, err := d.extractFeature(feature, views, queries)
		if err != nil {
			return nil, err
		}

		prepareData, err := d.prepareFeature(feature, views, frameData, submit)
		if err != nil {
			return nil, err
		}
		prepared[feature.Index] = prepareData
	}

	d.pool.BuildSubmitNodeBlocks(len(views), func(i int) {
		submit.BuildBlocks(d.registry, views[i].Index)
	})

	d.lastSubmit = submit
	d.lastPrepared = prepared
	return submit, nil
}

// Dispatch walks a (view, phase) block in comparator order and invokes
// each submit node's owning feature's Write hook. It satisfies the
// dispatch contract the render graph's VisitContext expects, without the
// pipeline package importing graph. Must be called only after a
// successful RunFrame.
func (d *Driver) Dispatch(viewIndex view.FrameIndex, phase registry.PhaseIndex, encoder gpu.CommandEncoder) error {
	if d.lastSubmit == nil {
		return nil
	}
	for _, node := range d.lastSubmit.SortedBlock(viewIndex, phase) {
		feature := d.featureByIndex(node.FeatureIndex)
		if feature == nil || feature.Write == nil {
			continue
		}
		var data any
		if prepared := d.lastPrepared[node.FeatureIndex]; int(viewIndex) < len(prepared) {
			data = prepared[viewIndex]
		}
		fc := &FrameContext{Feature: node.FeatureIndex, Registry: d.registry}
		feature.Write(fc, data, node.SubmitNodeID, encoder)
	}
	return nil
}

func (d *Driver) featureByIndex(i registry.FeatureIndex) *Feature {
	for _, f := range d.features {
		if f.Index == i {
			return f
		}
	}
	return nil
}

func (d *Driver) extractFeature(feature *Feature, views []*view.RenderView, queries []visibility.RenderViewVisibilityQuery) ([]any, error) {
	counts := make([]int, len(views))
	d.pool.CountFeatureObjects(len(views), func(i int) {
		counts[i] = len(queries[i].PerFeatureLists[feature.Index])
	})

	frameData := make([]any, len(views))
	d.pool.CreateExtractJobs(len(views), func(i int) {
		if feature.BeginExtract == nil {
			return
		}
		fc := &FrameContext{Feature: feature.Index, View: views[i], Registry: d.registry}
		frameData[i] = feature.BeginExtract(fc, counts[i])
	})

	d.pool.RunExtractJobs(len(views), func(i int) {
		if feature.Extract == nil {
			return
		}
		fc := &FrameContext{Feature: feature.Index, View: views[i], Registry: d.registry}
		instances := queries[i].PerFeatureLists[feature.Index]
		runChunked(len(instances), feature.Chunks.Extract, func(idx int) {
			inst := visibility.RenderObjectInstancePerView{
				RenderObjectInstance: instances[idx],
				ViewFrameIndex:       uint16(views[i].Index),
			}
			feature.Extract(fc, frameData[i], idx, inst)
		})
		if feature.EndExtract != nil {
			feature.EndExtract(fc, frameData[i])
		}
	})

	return frameData, nil
}

func (d *Driver) prepareFeature(feature *Feature, views []*view.RenderView, frameData []any, submit *SubmitPacket) ([]any, error) {
	if feature.Prepare == nil {
		return make([]any, len(views)), nil
	}

	prepareData := make([]any, len(views))
	var mu sync.Mutex
	var firstErr error

	d.pool.RunPrepareJobs(len(views), func(i int) {
		mu.Lock()
		aborted := firstErr != nil
		mu.Unlock()
		if aborted {
			return
		}

		fc := &FrameContext{Feature: feature.Index, View: views[i], Registry: d.registry}
		data, err := feature.Prepare(fc, frameData[i], submit.View(views[i].Index))
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = &PrepareFailedError{Feature: feature.Name, View: views[i].DebugName, Err: err}
			}
			mu.Unlock()
			return
		}
		prepareData[i] = data
	})

	if firstErr != nil {
		core.LogError("pipeline: %v", firstErr)
		return nil, firstErr
	}
	return prepareData, nil
}

// runChunked calls fn(idx) for idx in [0, n). When chunkSize <= 0 it runs
// serially on the calling goroutine; otherwise it splits [0, n) into
// chunks of chunkSize and runs each chunk concurrently (instances within a
// chunk run in index order, on the same goroutine, for cache locality).
func runChunked(n, chunkSize int, fn func(idx int)) {
	if n <= 0 {
		return
	}
	if chunkSize <= 0 || chunkSize >= n {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
