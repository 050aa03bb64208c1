package pipeline

// ThreadPool is the pipeline's sole concurrency seam: each frame stage asks
// it to run n independent units of fn and block until all of them finish.
// Splitting the contract into one method per stage (rather than a single
// RunParallel) lets an alternate pool give stages different priority or
// instrumentation — e.g. a testbed pool might run RunVisibilityJobs
// serially on the calling goroutine while still parallelizing the heavier
// extract/prepare stages.
type ThreadPool interface {
	RunVisibilityJobs(n int, fn func(i int))
	CountFeatureObjects(n int, fn func(i int))
	CreateExtractJobs(n int, fn func(i int))
	RunExtractJobs(n int, fn func(i int))
	RunPrepareJobs(n int, fn func(i int))
	BuildSubmitNodeBlocks(n int, fn func(i int))
}

// DefaultThreadPool runs every stage over the same underlying JobSystem.
// Stage identity is kept only for interface symmetry with ThreadPool; all
// six methods delegate to the same RunParallel.
type DefaultThreadPool struct {
	jobs *JobSystem
}

func NewDefaultThreadPool(jobs *JobSystem) *DefaultThreadPool {
	return &DefaultThreadPool{jobs: jobs}
}

func (p *DefaultThreadPool) RunVisibilityJobs(n int, fn func(i int))     { p.jobs.RunParallel(n, fn) }
func (p *DefaultThreadPool) CountFeatureObjects(n int, fn func(i int))   { p.jobs.RunParallel(n, fn) }
func (p *DefaultThreadPool) CreateExtractJobs(n int, fn func(i int))     { p.jobs.RunParallel(n, fn) }
func (p *DefaultThreadPool) RunExtractJobs(n int, fn func(i int))        { p.jobs.RunParallel(n, fn) }
func (p *DefaultThreadPool) RunPrepareJobs(n int, fn func(i int))        { p.jobs.RunParallel(n, fn) }
func (p *DefaultThreadPool) BuildSubmitNodeBlocks(n int, fn func(i int)) { p.jobs.RunParallel(n, fn) }
