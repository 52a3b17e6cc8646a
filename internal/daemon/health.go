package daemon

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/menusync/internal/version"
)

// HealthStatus represents the overall health of the daemon.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck represents a single health check.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Version   string        `json:"version"`
	Checks    []HealthCheck `json:"checks"`
}

// PerformHealthChecks reports every managed service and the last sync
// round. A stopped service makes the daemon unhealthy; failed blogs in the
// last round make it degraded.
func (d *Daemon) PerformHealthChecks() *HealthResponse {
	resp := &HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(d.startedAt).Truncate(time.Second).String(),
		Version:   version.Version,
	}

	for _, info := range d.orchestrator.AllServiceInfo() {
		check := HealthCheck{Name: info.Name, Status: HealthStatusHealthy}
		if !info.Health.Healthy() {
			check.Status = HealthStatusUnhealthy
			check.Message = info.Health.Message
			resp.Status = HealthStatusUnhealthy
		}
		resp.Checks = append(resp.Checks, check)
	}

	resp.Checks = append(resp.Checks, d.checkLastRound(resp))
	return resp
}

func (d *Daemon) checkLastRound(resp *HealthResponse) HealthCheck {
	check := HealthCheck{Name: "last_sync", Status: HealthStatusHealthy}
	round, ok := d.LastRound()
	if !ok {
		check.Message = "no sync round completed yet"
		return check
	}
	if failed := round.Failed(); failed > 0 {
		check.Status = HealthStatusDegraded
		check.Message = fmt.Sprintf("%d of %d blogs failed", failed, len(round.Blogs))
		if resp.Status == HealthStatusHealthy {
			resp.Status = HealthStatusDegraded
		}
	}
	return check
}
