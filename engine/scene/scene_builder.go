package scene

import (
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// buildConfig holds the options consumed while constructing a ConsolidatedScene.
type buildConfig struct {
	name       string
	logger     *zap.Logger
	workers    int
	workerPool worker.DynamicWorkerPool
	validate   bool
}

func newBuildConfig() *buildConfig {
	return &buildConfig{
		logger:   zap.NewNop(),
		workers:  1,
		validate: true,
	}
}

// pool returns the worker pool used for the parallel fill, or nil for the sequential path.
// Fewer than two geometries always fill sequentially and never touch a pool.
func (c *buildConfig) pool(geometries int) worker.DynamicWorkerPool {
	if geometries < 2 {
		return nil
	}
	if c.workerPool != nil {
		return c.workerPool
	}
	if c.workers > 1 {
		return sharedWorkerPool(c.workers)
	}
	return nil
}

// Pool workers run until stopped, so WithWorkers builds share one pool per worker count for the
// life of the process instead of starting new goroutines on every build.
var (
	sharedPoolsMu sync.Mutex
	sharedPools   = make(map[int]worker.DynamicWorkerPool)
)

func sharedWorkerPool(workers int) worker.DynamicWorkerPool {
	sharedPoolsMu.Lock()
	defer sharedPoolsMu.Unlock()

	p, ok := sharedPools[workers]
	if !ok {
		p = newWorkerPool(workers)
		sharedPools[workers] = p
	}
	return p
}

// SceneBuilderOption is a functional option for configuring a ConsolidatedScene via NewConsolidatedScene.
type SceneBuilderOption func(*buildConfig)

// WithName is an option builder that sets the name of the ConsolidatedScene.
//
// Parameters:
//   - name: the scene identifier
//
// Returns:
//   - SceneBuilderOption: a function that applies the name option
func WithName(name string) SceneBuilderOption {
	return func(c *buildConfig) {
		c.name = name
	}
}

// WithLogger is an option builder that sets the structured logger used during construction.
// A nil logger disables logging.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - SceneBuilderOption: a function that applies the logger option
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(c *buildConfig) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}

// WithWorkers is an option builder that sets how many goroutines fill geometry regions.
// Offsets are always computed sequentially first, so the output is identical for any worker count.
// The pool for each worker count is created once and reused by every later build.
// Panics if workers is less than 1.
//
// Parameters:
//   - workers: the worker count (1 fills on the calling goroutine)
//
// Returns:
//   - SceneBuilderOption: a function that applies the workers option
func WithWorkers(workers int) SceneBuilderOption {
	if workers < 1 {
		panic("scene: WithWorkers requires at least one worker")
	}
	return func(c *buildConfig) {
		c.workers = workers
	}
}

// WithWorkerPool is an option builder that supplies a shared worker pool for the parallel fill,
// taking precedence over WithWorkers. The caller owns the pool and stops it when done.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - SceneBuilderOption: a function that applies the worker pool option
func WithWorkerPool(pool worker.DynamicWorkerPool) SceneBuilderOption {
	return func(c *buildConfig) {
		c.workerPool = pool
	}
}

// WithValidation is an option builder that enables or disables the post-construction self check.
// Structural preconditions on the input are always checked.
//
// Parameters:
//   - enabled: true to run Validate before returning the scene
//
// Returns:
//   - SceneBuilderOption: a function that applies the validation option
func WithValidation(enabled bool) SceneBuilderOption {
	return func(c *buildConfig) {
		c.validate = enabled
	}
}
