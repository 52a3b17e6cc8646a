package services

import "context"

// Runner is a component that starts, stops and reports whether it runs.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// RunnerService adapts a Runner to the ManagedService interface.
type RunnerService struct {
	runner Runner
	name   string
	deps   []string
	down   string
}

// NewRunnerService creates a ManagedService named name around runner.
// unhealthyMessage is reported while the runner is not running.
func NewRunnerService(name string, runner Runner, unhealthyMessage string, deps ...string) *RunnerService {
	return &RunnerService{
		runner: runner,
		name:   name,
		deps:   deps,
		down:   unhealthyMessage,
	}
}

// NewHTTPServerService adapts an HTTP server.
func NewHTTPServerService(name string, server Runner) *RunnerService {
	return NewRunnerService(name, server, "server not running")
}

// NewSchedulerService adapts the sync scheduler.
func NewSchedulerService(name string, scheduler Runner) *RunnerService {
	return NewRunnerService(name, scheduler, "scheduler not running")
}

// NewConfigWatcherService adapts a config watcher. It depends on the
// services a reload reconfigures.
func NewConfigWatcherService(name string, watcher Runner, deps ...string) *RunnerService {
	return NewRunnerService(name, watcher, "not watching config file", deps...)
}

func (r *RunnerService) Name() string { return r.name }

func (r *RunnerService) Start(ctx context.Context) error { return r.runner.Start(ctx) }

func (r *RunnerService) Stop(ctx context.Context) error { return r.runner.Stop(ctx) }

func (r *RunnerService) Health() HealthStatus {
	if r.runner.IsRunning() {
		return HealthStatusHealthy()
	}
	return HealthStatusUnhealthy(r.down)
}

func (r *RunnerService) Dependencies() []string { return r.deps }
