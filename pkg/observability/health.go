package observability

import (
	"context"
	"sync"
	"time"
)

// HealthStatus is the state of one component or of the whole host.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusHealthy:
		return 0
	case HealthStatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worse returns the more severe of s and other.
func (s HealthStatus) Worse(other HealthStatus) HealthStatus {
	if other.severity() > s.severity() {
		return other
	}
	return s
}

// HealthCheckResult is the outcome of one check.
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthChecker checks one component.
type HealthChecker func(ctx context.Context) HealthCheckResult

// DefaultCheckTimeout bounds every check so an unreachable journal database
// cannot hang `canvas health` or the MCP health tool.
const DefaultCheckTimeout = 2 * time.Second

// HealthRegistry holds the checks of the running host in registration order.
type HealthRegistry struct {
	mu      sync.RWMutex
	names   []string
	checks  map[string]HealthChecker
	timeout time.Duration
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checks: make(map[string]HealthChecker), timeout: DefaultCheckTimeout}
}

// SetTimeout changes the per-check deadline.
func (r *HealthRegistry) SetTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = d
}

// Register adds a check. Registering a name again replaces its checker.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.checks[name]; !ok {
		r.names = append(r.names, name)
	}
	r.checks[name] = checker
}

// Names returns the registered check names in registration order.
func (r *HealthRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// CheckOne runs the named check.
func (r *HealthRegistry) CheckOne(ctx context.Context, name string) (HealthCheckResult, bool) {
	r.mu.RLock()
	checker, ok := r.checks[name]
	timeout := r.timeout
	r.mu.RUnlock()
	if !ok {
		return HealthCheckResult{}, false
	}
	return run(ctx, checker, timeout), true
}

// OverallHealth is the combined result of every check.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs all checks concurrently. The overall status is the
// worst individual status, healthy when nothing is registered.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	names := r.Names()
	results := make([]HealthCheckResult, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = r.CheckOne(ctx, name)
		}()
	}
	wg.Wait()

	h := OverallHealth{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]HealthCheckResult, len(names)),
	}
	for i, name := range names {
		h.Checks[name] = results[i]
		h.Status = h.Status.Worse(results[i].Status)
	}
	return h
}

func run(ctx context.Context, checker HealthChecker, timeout time.Duration) HealthCheckResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan HealthCheckResult, 1)
	go func() { done <- checker(ctx) }()

	var res HealthCheckResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = HealthCheckResult{Status: HealthStatusUnhealthy, Message: "check timed out: " + ctx.Err().Error()}
	}
	res.Duration = time.Since(start)
	res.Timestamp = time.Now()
	return res
}

// DatabaseHealthChecker pings the journal database.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: HealthStatusUnhealthy, Message: "journal unreachable: " + err.Error()}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: "journal reachable"}
	}
}

// BreakerHealthChecker reports the event publisher's circuit breaker state.
// An open breaker degrades the host without failing it: commands still run,
// events are dropped.
func BreakerHealthChecker(state func() string) HealthChecker {
	return func(context.Context) HealthCheckResult {
		st := state()
		res := HealthCheckResult{
			Status:  HealthStatusHealthy,
			Message: "event publisher breaker " + st,
			Details: map[string]any{"state": st},
		}
		if st != "closed" {
			res.Status = HealthStatusDegraded
		}
		return res
	}
}
