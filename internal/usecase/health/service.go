package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the backend is up but an index is missing.
	Degraded Status = "degraded"
	// Unhealthy indicates the backend is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckMissing indicates an index that does not exist.
	CheckMissing CheckResult = "missing"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	backend BackendPinger
	indexes IndexChecker
	names   []string
}

// New creates a Service. indexes can be nil; names lists the indexes that
// must exist for the service to be healthy.
func New(backend BackendPinger, indexes IndexChecker, names ...string) *Service {
	return &Service{backend: backend, indexes: indexes, names: names}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.backend.Ping(ctx); err != nil {
		checks["backend"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["backend"] = CheckOK

	status := Healthy
	if s.indexes != nil {
		for _, name := range s.names {
			key := "index:" + name
			ok, err := s.indexes.Exists(ctx, name)
			switch {
			case err != nil:
				checks[key] = CheckError
				status = Degraded
			case !ok:
				checks[key] = CheckMissing
				status = Degraded
			default:
				checks[key] = CheckOK
			}
		}
	}

	return Report{Status: status, Checks: checks}
}
