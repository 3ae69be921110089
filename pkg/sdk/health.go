package signalsearch

import (
	"context"

	healthuc "github.com/kailas-cloud/signalsearch/internal/usecase/health"
)

// HealthStatus is the aggregated engine health. Status is "ok", "degraded" or "error";
// each check is "ok", "error" or "not_ready".
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Degraded reports whether search answers with some providers missing.
func (h HealthStatus) Degraded() bool { return h.Status == string(healthuc.Degraded) }

// Health checks Redis, Postgres and the providers.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

// Ready reports whether every provider has loaded, and names those that have not.
func (c *Client) Ready(ctx context.Context) (bool, []string) {
	r := c.healthSvc.Ready(ctx)
	return r.Ready, r.NotReady
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
	Ready(ctx context.Context) healthuc.Readiness
}
