// Package services manages the lifecycle of the daemon's long-running
// components (HTTP server, scheduler, config watcher) with dependency
// ordering.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/logfields"
)

// ServiceStatus represents the current state of a service.
type ServiceStatus string

const (
	StatusNotStarted ServiceStatus = "not_started"
	StatusStarting   ServiceStatus = "starting"
	StatusRunning    ServiceStatus = "running"
	StatusStopping   ServiceStatus = "stopping"
	StatusStopped    ServiceStatus = "stopped"
	StatusFailed     ServiceStatus = "failed"
)

// HealthStatus represents the health of a service.
type HealthStatus struct {
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	CheckAt time.Time `json:"check_at"`
}

// Healthy reports whether the status is "healthy".
func (h HealthStatus) Healthy() bool { return h.Status == "healthy" }

// HealthStatusHealthy returns a healthy status stamped now.
func HealthStatusHealthy() HealthStatus {
	return HealthStatus{Status: "healthy", CheckAt: time.Now()}
}

// HealthStatusUnhealthy returns an unhealthy status with a message.
func HealthStatusUnhealthy(message string) HealthStatus {
	return HealthStatus{Status: "unhealthy", Message: message, CheckAt: time.Now()}
}

// ManagedService defines the interface for services managed by the orchestrator.
type ManagedService interface {
	// Name returns the service name for logging and identification.
	Name() string

	// Start initializes and starts the service.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the service.
	Stop(ctx context.Context) error

	// Health returns the current health status of the service.
	Health() HealthStatus

	// Dependencies returns the names of services this service depends on.
	Dependencies() []string
}

// ServiceInfo contains metadata about a managed service.
type ServiceInfo struct {
	Name         string        `json:"name"`
	Status       ServiceStatus `json:"status"`
	Health       HealthStatus  `json:"health"`
	Dependencies []string      `json:"dependencies,omitempty"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	StoppedAt    *time.Time    `json:"stopped_at,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
}

// entry is the orchestrator's bookkeeping for one registered service.
type entry struct {
	svc       ManagedService
	status    ServiceStatus
	startedAt time.Time
	stoppedAt time.Time
	lastErr   error
}

func (e *entry) info() ServiceInfo {
	info := ServiceInfo{
		Name:         e.svc.Name(),
		Status:       e.status,
		Health:       e.svc.Health(),
		Dependencies: e.svc.Dependencies(),
	}
	if !e.startedAt.IsZero() {
		t := e.startedAt
		info.StartedAt = &t
	}
	if !e.stoppedAt.IsZero() {
		t := e.stoppedAt
		info.StoppedAt = &t
	}
	if e.lastErr != nil {
		info.LastError = e.lastErr.Error()
	}
	return info
}

// ServiceOrchestrator starts services after their dependencies and stops
// them in reverse order.
type ServiceOrchestrator struct {
	mu      sync.RWMutex
	entries map[string]*entry

	startTimeout time.Duration
	stopTimeout  time.Duration
}

// NewServiceOrchestrator creates an orchestrator with 30s start and 10s
// stop timeouts per service.
func NewServiceOrchestrator() *ServiceOrchestrator {
	return &ServiceOrchestrator{
		entries:      make(map[string]*entry),
		startTimeout: 30 * time.Second,
		stopTimeout:  10 * time.Second,
	}
}

// WithTimeouts configures start and stop timeouts.
func (so *ServiceOrchestrator) WithTimeouts(start, stop time.Duration) *ServiceOrchestrator {
	so.startTimeout = start
	so.stopTimeout = stop
	return so
}

// RegisterService adds a service. Names must be unique and non-empty.
func (so *ServiceOrchestrator) RegisterService(service ManagedService) error {
	name := service.Name()
	if name == "" {
		return errors.ValidationError("service name cannot be empty").Build()
	}

	so.mu.Lock()
	defer so.mu.Unlock()
	if _, exists := so.entries[name]; exists {
		return errors.ValidationError("service already registered").
			WithContext("service", name).
			Build()
	}
	so.entries[name] = &entry{svc: service, status: StatusNotStarted}

	slog.Debug("Service registered", slog.String("service", name), slog.Any("dependencies", service.Dependencies()))
	return nil
}

// StartAll starts every service in dependency order. When one fails, the
// services started before it are stopped again.
func (so *ServiceOrchestrator) StartAll(ctx context.Context) error {
	so.mu.Lock()
	defer so.mu.Unlock()

	order, err := so.order()
	if err != nil {
		return errors.DaemonError("failed to order services").WithCause(err).Build()
	}
	slog.Info("Starting services", slog.Any("order", order))

	for i, name := range order {
		if err := so.start(ctx, so.entries[name]); err != nil {
			for j := i - 1; j >= 0; j-- {
				if stopErr := so.stop(ctx, so.entries[order[j]]); stopErr != nil {
					slog.Error("Error stopping service during cleanup", slog.String("service", order[j]), logfields.Error(stopErr))
				}
			}
			return err
		}
	}
	return nil
}

// StopAll stops running services in reverse dependency order. Every service
// is attempted; failures are reported as a warning.
func (so *ServiceOrchestrator) StopAll(ctx context.Context) error {
	so.mu.Lock()
	defer so.mu.Unlock()

	order, err := so.order()
	if err != nil {
		return errors.DaemonError("failed to order services").WithCause(err).Build()
	}
	slices.Reverse(order)
	slog.Info("Stopping services", slog.Any("order", order))

	var failed []string
	var lastErr error
	for _, name := range order {
		if err := so.stop(ctx, so.entries[name]); err != nil {
			failed = append(failed, name)
			lastErr = err
			slog.Error("Error stopping service", slog.String("service", name), logfields.Error(err))
		}
	}
	if lastErr != nil {
		return errors.DaemonError("some services failed to stop gracefully").
			WithCause(lastErr).
			WithContext("services", failed).
			Warning().
			Build()
	}
	return nil
}

// ServiceInfo returns the state of one service.
func (so *ServiceOrchestrator) ServiceInfo(name string) (ServiceInfo, bool) {
	so.mu.RLock()
	defer so.mu.RUnlock()
	e, ok := so.entries[name]
	if !ok {
		return ServiceInfo{}, false
	}
	return e.info(), true
}

// AllServiceInfo returns the state of every service ordered by name.
func (so *ServiceOrchestrator) AllServiceInfo() []ServiceInfo {
	so.mu.RLock()
	defer so.mu.RUnlock()
	infos := make([]ServiceInfo, 0, len(so.entries))
	for _, name := range so.names() {
		infos = append(infos, so.entries[name].info())
	}
	return infos
}

func (so *ServiceOrchestrator) names() []string {
	names := make([]string, 0, len(so.entries))
	for name := range so.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// order returns service names with dependencies first. Independent services
// keep name order.
func (so *ServiceOrchestrator) order() ([]string, error) {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(so.entries))
	order := make([]string, 0, len(so.entries))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case inProgress:
			return fmt.Errorf("circular dependency: %v", append(path, name))
		}
		e, ok := so.entries[name]
		if !ok {
			return fmt.Errorf("unknown dependency %q of %v", name, path)
		}
		state[name] = inProgress
		for _, dep := range e.svc.Dependencies() {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range so.names() {
		if err := visit(name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (so *ServiceOrchestrator) start(ctx context.Context, e *entry) error {
	name := e.svc.Name()
	e.status = StatusStarting

	ctx, cancel := context.WithTimeout(ctx, so.startTimeout)
	defer cancel()

	began := time.Now()
	if err := e.svc.Start(ctx); err != nil {
		e.status = StatusFailed
		e.lastErr = err
		return errors.DaemonError("failed to start service").
			WithCause(err).
			WithContext("service", name).
			Build()
	}
	e.status = StatusRunning
	e.startedAt = began
	e.lastErr = nil

	slog.Info("Service started", slog.String("service", name), logfields.Duration(time.Since(began)))
	return nil
}

// stop is a no-op for services that are not running.
func (so *ServiceOrchestrator) stop(ctx context.Context, e *entry) error {
	if e.status != StatusRunning {
		return nil
	}
	name := e.svc.Name()
	e.status = StatusStopping

	ctx, cancel := context.WithTimeout(ctx, so.stopTimeout)
	defer cancel()

	began := time.Now()
	if err := e.svc.Stop(ctx); err != nil {
		e.status = StatusFailed
		e.lastErr = err
		return err
	}
	e.status = StatusStopped
	e.stoppedAt = began

	slog.Info("Service stopped", slog.String("service", name), logfields.Duration(time.Since(began)))
	return nil
}
