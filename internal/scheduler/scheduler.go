// Package scheduler runs periodic maintenance tasks on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mindfultube/mindfultube/internal/logging"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrInvalidTask    = errors.New("invalid task")
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// DefaultTimeout bounds a single task run
const DefaultTimeout = 5 * time.Minute

// Standard five-field specs plus descriptors such as @hourly and @every 1h
var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler manages scheduled tasks
type Scheduler struct {
	tasks    map[string]*Task
	running  map[string]context.CancelFunc
	mu       sync.RWMutex
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	timezone *time.Location
	log      *logging.Logger
}

// Config configures the scheduler
type Config struct {
	Timezone string // Timezone for schedules (default: Local)
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Timezone: "Local",
	}
}

// NewScheduler creates a new scheduler. An unknown timezone falls back to
// local time.
func NewScheduler(cfg Config) *Scheduler {
	log := logging.Component("scheduler")
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.WithError(err).Warn("Unknown timezone %q, using local time", cfg.Timezone)
		tz = time.Local
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		tasks:    make(map[string]*Task),
		running:  make(map[string]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
		timezone: tz,
		log:      log,
	}
}

// Task represents a scheduled task
type Task struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Spec        string        `json:"spec"` // Cron spec or descriptor
	Handler     TaskHandler   `json:"-"`
	Enabled     bool          `json:"enabled"`
	LastRun     *time.Time    `json:"last_run,omitempty"`
	NextRun     *time.Time    `json:"next_run,omitempty"`
	RunCount    int64         `json:"run_count"`
	ErrorCount  int64         `json:"error_count"`
	LastError   string        `json:"last_error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Timeout     time.Duration `json:"timeout"`

	schedule cron.Schedule
	disabled bool // Set by the builder before registration
}

// TaskHandler is the function executed for a task
type TaskHandler func(ctx context.Context) error

// ParseSpec validates a schedule spec
func ParseSpec(spec string) (cron.Schedule, error) {
	schedule, err := specParser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("%w: schedule %q: %v", ErrInvalidTask, spec, err)
	}
	return schedule, nil
}

// Register adds a task to the scheduler
func (s *Scheduler) Register(task *Task) error {
	if task.ID == "" {
		return fmt.Errorf("%w: task ID is required", ErrInvalidTask)
	}
	if task.Handler == nil {
		return fmt.Errorf("%w: task handler is required", ErrInvalidTask)
	}
	schedule, err := ParseSpec(task.Spec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.running[task.ID]; ok {
		cancel()
		delete(s.running, task.ID)
	}

	if task.Timeout == 0 {
		task.Timeout = DefaultTimeout
	}
	task.schedule = schedule
	task.CreatedAt = time.Now()
	task.Enabled = !task.disabled
	next := s.nextRun(task)
	task.NextRun = &next

	s.tasks[task.ID] = task

	if s.started && task.Enabled {
		s.startTask(task)
	}
	return nil
}

// Unregister removes a task from the scheduler
func (s *Scheduler) Unregister(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	if cancel, ok := s.running[taskID]; ok {
		cancel()
		delete(s.running, taskID)
	}

	delete(s.tasks, taskID)
	return nil
}

// Enable enables a task
func (s *Scheduler) Enable(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	task.Enabled = true
	if _, running := s.running[taskID]; s.started && !running {
		s.startTask(task)
	}
	return nil
}

// Disable disables a task
func (s *Scheduler) Disable(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	task.Enabled = false
	if cancel, ok := s.running[taskID]; ok {
		cancel()
		delete(s.running, taskID)
	}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	for _, task := range s.tasks {
		if task.Enabled {
			s.startTask(task)
		}
	}

	s.log.Info("Scheduler started with %d tasks", len(s.tasks))
	return nil
}

// Stop cancels all task loops and waits for running handlers
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.running = make(map[string]context.CancelFunc)
	s.started = false
	s.mu.Unlock()

	// Loops take the lock to record results
	s.wg.Wait()

	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()
}

// startTask starts a single task's loop. Callers hold s.mu.
func (s *Scheduler) startTask(task *Task) {
	taskCtx, cancel := context.WithCancel(s.ctx)
	s.running[task.ID] = cancel

	s.wg.Add(1)
	go s.runTaskLoop(taskCtx, task)
}

func (s *Scheduler) runTaskLoop(ctx context.Context, task *Task) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		next := s.nextRun(task)
		task.NextRun = &next
		s.mu.Unlock()

		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.executeTask(ctx, task)
		}
	}
}

// nextRun computes the next activation in the scheduler's timezone
func (s *Scheduler) nextRun(task *Task) time.Time {
	return task.schedule.Next(time.Now().In(s.timezone))
}

// executeTask runs the handler once with the task timeout. Panics are
// recorded as errors.
func (s *Scheduler) executeTask(ctx context.Context, task *Task) {
	execCtx, cancel := context.WithTimeout(ctx, task.Timeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	task.LastRun = &now
	task.RunCount++
	s.mu.Unlock()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		return task.Handler(execCtx)
	}()

	s.mu.Lock()
	if err != nil {
		task.ErrorCount++
		task.LastError = err.Error()
	} else {
		task.LastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.WithError(err).WithField("task", task.ID).Warn("Task failed")
	} else {
		s.log.WithField("task", task.ID).Debug("Task completed in %s", time.Since(now).Round(time.Millisecond))
	}
}

// RunNow executes a task synchronously
func (s *Scheduler) RunNow(ctx context.Context, taskID string) error {
	s.mu.RLock()
	task, ok := s.tasks[taskID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	s.executeTask(ctx, task)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if task.LastError != "" {
		return errors.New(task.LastError)
	}
	return nil
}

// GetTask returns a copy of a task by ID
func (s *Scheduler) GetTask(taskID string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// ListTasks returns copies of all tasks sorted by ID
func (s *Scheduler) ListTasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, *task)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// GetStats returns scheduler statistics
func (s *Scheduler) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:      s.started,
		TotalTasks:   len(s.tasks),
		RunningTasks: len(s.running),
		Timezone:     s.timezone.String(),
	}

	for _, task := range s.tasks {
		if task.Enabled {
			stats.EnabledTasks++
		}
		stats.TotalRuns += task.RunCount
		stats.TotalErrors += task.ErrorCount
	}

	return stats
}

// Stats contains scheduler statistics
type Stats struct {
	Started      bool   `json:"started"`
	TotalTasks   int    `json:"total_tasks"`
	EnabledTasks int    `json:"enabled_tasks"`
	RunningTasks int    `json:"running_tasks"`
	TotalRuns    int64  `json:"total_runs"`
	TotalErrors  int64  `json:"total_errors"`
	Timezone     string `json:"timezone"`
}

// TaskBuilder provides fluent API for building tasks
type TaskBuilder struct {
	task *Task
}

// NewTask creates a new task builder
func NewTask(id string) *TaskBuilder {
	return &TaskBuilder{
		task: &Task{
			ID:      id,
			Timeout: DefaultTimeout,
		},
	}
}

// Name sets the task name
func (b *TaskBuilder) Name(name string) *TaskBuilder {
	b.task.Name = name
	return b
}

// Description sets the task description
func (b *TaskBuilder) Description(desc string) *TaskBuilder {
	b.task.Description = desc
	return b
}

// Daily sets a daily schedule at "HH:MM". Malformed times leave an
// invalid spec that Register rejects.
func (b *TaskBuilder) Daily(at string) *TaskBuilder {
	var hour, minute int
	if _, err := fmt.Sscanf(at, "%d:%d", &hour, &minute); err != nil {
		b.task.Spec = "daily " + at
		return b
	}
	b.task.Spec = fmt.Sprintf("%d %d * * *", minute, hour)
	return b
}

// Cron sets a cron spec
func (b *TaskBuilder) Cron(spec string) *TaskBuilder {
	b.task.Spec = spec
	return b
}

// Timeout sets the task timeout
func (b *TaskBuilder) Timeout(timeout time.Duration) *TaskBuilder {
	b.task.Timeout = timeout
	return b
}

// Handler sets the task handler
func (b *TaskBuilder) Handler(handler TaskHandler) *TaskBuilder {
	b.task.Handler = handler
	return b
}

// Disabled registers the task in disabled state
func (b *TaskBuilder) Disabled() *TaskBuilder {
	b.task.disabled = true
	return b
}

// Build returns the constructed task
func (b *TaskBuilder) Build() *Task {
	return b.task
}
