package scheduler

import (
	"context"
	"fmt"
)

// Maintenance task IDs and schedules
const (
	TaskPreferenceRefresh = "preference-refresh"
	TaskUsageRecompute    = "usage-recompute"
	TaskDiscoveryPrune    = "discovery-prune"

	SpecPreferenceRefresh = "@hourly"
	AtUsageRecompute      = "00:05"
	AtDiscoveryPrune      = "04:00"
)

// Refresher rebuilds a derived model, e.g. as recency decays
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Recomputer re-derives aggregates after the calendar rolls over
type Recomputer interface {
	Recompute(ctx context.Context) error
}

// Pruner drops stale state
type Pruner interface {
	Prune(ctx context.Context) error
}

// Maintenance holds the agents with periodic upkeep. Nil fields are
// skipped.
type Maintenance struct {
	Preference Refresher
	Usage      Recomputer
	Discovery  Pruner
}

// Tasks returns the maintenance tasks for the configured agents
func (m Maintenance) Tasks() []*Task {
	var tasks []*Task
	if m.Preference != nil {
		tasks = append(tasks, NewTask(TaskPreferenceRefresh).
			Name("Refresh preference model").
			Description("Re-applies recency decay to engagement history").
			Cron(SpecPreferenceRefresh).
			Handler(m.Preference.Refresh).
			Build())
	}
	if m.Usage != nil {
		tasks = append(tasks, NewTask(TaskUsageRecompute).
			Name("Recompute usage patterns").
			Description("Updates weekly averages and productive hours after midnight").
			Daily(AtUsageRecompute).
			Handler(m.Usage.Recompute).
			Build())
	}
	if m.Discovery != nil {
		tasks = append(tasks, NewTask(TaskDiscoveryPrune).
			Name("Prune learning paths").
			Description("Drops learning paths idle for two weeks").
			Daily(AtDiscoveryPrune).
			Handler(m.Discovery.Prune).
			Build())
	}
	return tasks
}

// Register adds every maintenance task to s
func (m Maintenance) Register(s *Scheduler) error {
	for _, task := range m.Tasks() {
		if err := s.Register(task); err != nil {
			return fmt.Errorf("register %s: %w", task.ID, err)
		}
	}
	return nil
}
