package health

import (
	"context"
	"sort"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional provider is failing. Search still answers.
	Degraded Status = "degraded"
	// Unhealthy indicates a required store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckNotReady indicates a provider that has not finished loading.
	CheckNotReady CheckResult = "not_ready"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Readiness lists the gates that are not loaded yet.
type Readiness struct {
	Ready    bool
	NotReady []string
}

type namedPinger struct {
	name string
	p    Pinger
}

type namedChecker struct {
	name string
	c    Checker
}

// Service coordinates health checks.
type Service struct {
	stores    []namedPinger
	providers []namedChecker
	gates     []Gate
}

// New creates a Service with the two required stores.
func New(index, documents Pinger) *Service {
	return &Service{stores: []namedPinger{{"index", index}, {"documents", documents}}}
}

// WithProvider adds an optional provider check. A nil checker is ignored.
func (s *Service) WithProvider(name string, c Checker) *Service {
	if c != nil {
		s.providers = append(s.providers, namedChecker{name, c})
	}
	return s
}

// WithGates adds provider init gates to the readiness probe.
func (s *Service) WithGates(gates ...Gate) *Service {
	s.gates = append(s.gates, gates...)
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.stores)+len(s.providers))
	status := Healthy

	for _, st := range s.stores {
		if err := st.p.Ping(ctx); err != nil {
			checks[st.name] = CheckError
			status = Unhealthy
			continue
		}
		checks[st.name] = CheckOK
	}

	for _, p := range s.providers {
		if err := p.c.HealthCheck(ctx); err != nil {
			checks[p.name] = CheckError
			if status == Healthy {
				status = Degraded
			}
			continue
		}
		checks[p.name] = CheckOK
	}

	for _, g := range s.gates {
		if !g.IsReady() {
			checks[g.Name()] = CheckNotReady
			if status == Healthy {
				status = Degraded
			}
		}
	}

	return Report{Status: status, Checks: checks}
}

// Ready reports whether every gate has loaded and the required stores answer.
func (s *Service) Ready(ctx context.Context) Readiness {
	var notReady []string
	for _, st := range s.stores {
		if err := st.p.Ping(ctx); err != nil {
			notReady = append(notReady, st.name)
		}
	}
	for _, g := range s.gates {
		if !g.IsReady() {
			notReady = append(notReady, g.Name())
		}
	}
	sort.Strings(notReady)
	return Readiness{Ready: len(notReady) == 0, NotReady: notReady}
}
