// Package runner schedules background tasks with cron.
package runner

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Task is a scheduled unit of background work.
type Task interface {
	Name() string
	Schedule() string
	Timeout() time.Duration
	Run(ctx context.Context) error
}

// Registry holds the tasks to schedule.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]Task
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register adds a task, replacing any previous task of the same name.
func (r *Registry) Register(t Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.Name()] = t
}

// All returns the registered tasks.
func (r *Registry) All() map[string]Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]Task, len(r.tasks))
	for name, t := range r.tasks {
		out[name] = t
	}
	return out
}

// Runner executes registered tasks on their cron schedules.
type Runner struct {
	cron     *cron.Cron
	registry *Registry
	logger   *log.Logger
	wg       sync.WaitGroup
}

// NewRunner creates a runner.
func NewRunner(registry *Registry, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		cron:     cron.New(),
		registry: registry,
		logger:   logger,
	}
}

// Start schedules every registered task and starts the cron loop. It
// returns immediately; Stop drains running tasks.
func (r *Runner) Start(ctx context.Context) error {
	for name, task := range r.registry.All() {
		task := task
		r.logger.Printf("scheduling task %s (%s)", name, task.Schedule())
		if _, err := r.cron.AddFunc(task.Schedule(), func() {
			r.execute(ctx, task)
		}); err != nil {
			return fmt.Errorf("failed to schedule task %s: %w", name, err)
		}
	}
	r.cron.Start()
	return nil
}

func (r *Runner) execute(ctx context.Context, task Task) {
	r.wg.Add(1)
	defer r.wg.Done()

	taskCtx, cancel := context.WithTimeout(ctx, task.Timeout())
	defer cancel()

	start := time.Now()
	if err := task.Run(taskCtx); err != nil {
		r.logger.Printf("task %s failed after %v: %v", task.Name(), time.Since(start), err)
		return
	}
	r.logger.Printf("task %s completed in %v", task.Name(), time.Since(start))
}

// Stop halts scheduling and waits for in-flight tasks.
func (r *Runner) Stop() {
	stopCtx := r.cron.Stop()
	r.wg.Wait()
	<-stopCtx.Done()
}
