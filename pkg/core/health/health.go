// Package health aggregates named checks into one report served by the
// HTTP front-end and mirrored into the gRPC health service.
package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// rank orders statuses from best to worst
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	case StatusUnknown:
		return 2
	default:
		return 3
	}
}

// CheckResult is the outcome of one check
type CheckResult struct {
	Name      string                 `json:"name"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Checker is implemented by everything the registry can probe
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

func (c *funcChecker) Name() string                          { return c.name }
func (c *funcChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &funcChecker{name: name, fn: fn}
}

// Registry holds the checks of one service. Registering a name twice
// replaces the earlier checker.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	service  string
	version  string
	startAt  time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(service, version string) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		service:  service,
		version:  version,
		startAt:  time.Now(),
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// Names returns the registered check names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check runs every check concurrently. The overall status is the worst
// individual status; unknown counts as degraded.
func (r *Registry) Check(ctx context.Context) *Report {
	names := r.Names()

	r.mu.RLock()
	checkers := make([]Checker, len(names))
	for i, name := range names {
		checkers[i] = r.checkers[name]
	}
	r.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			res := c.Check(ctx)
			res.Duration = time.Since(start)
			res.Timestamp = time.Now()
			if res.Name == "" {
				res.Name = names[i]
			}
			if res.Status == "" {
				res.Status = StatusUnknown
			}
			results[i] = res
		}()
	}
	wg.Wait()

	overall := StatusHealthy
	for _, res := range results {
		if res.Status.rank() > overall.rank() {
			overall = res.Status
		}
	}
	if overall == StatusUnknown {
		overall = StatusDegraded
	}

	return &Report{
		Service:   r.service,
		Version:   r.version,
		Status:    overall,
		Uptime:    time.Since(r.startAt),
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// CheckWithTimeout runs all checks bounded by timeout
func (r *Registry) CheckWithTimeout(timeout time.Duration) *Report {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return r.Check(ctx)
}

// Watch runs the checks every interval and hands each report to fn until
// ctx is canceled. The first report is produced immediately.
func (r *Registry) Watch(ctx context.Context, interval time.Duration, fn func(*Report)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		report := r.Check(checkCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		fn(report)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Report is the aggregated health of a service
type Report struct {
	Service   string        `json:"service"`
	Version   string        `json:"version"`
	Status    Status        `json:"status"`
	Uptime    time.Duration `json:"uptime"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []CheckResult `json:"checks"`
}

// Healthy reports whether the service can take traffic. A degraded
// service still can.
func (r *Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// HTTPStatus maps the overall status to 200 or 503
func (r *Report) HTTPStatus() int {
	if r.Healthy() {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

// Failing returns the names of checks that are not healthy
func (r *Report) Failing() []string {
	var names []string
	for _, c := range r.Checks {
		if c.Status != StatusHealthy {
			names = append(names, c.Name)
		}
	}
	return names
}

func (r *Report) String() string {
	s := fmt.Sprintf("%s %s: %s (uptime %s, %d checks)",
		r.Service, r.Version, r.Status, r.Uptime.Round(time.Second), len(r.Checks))
	if failing := r.Failing(); len(failing) > 0 {
		s += " failing: " + strings.Join(failing, ", ")
	}
	return s
}

// PingCheck reports unhealthy when ping returns an error
func PingCheck(name string, ping func(ctx context.Context) error) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			return CheckResult{Name: name, Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Name: name, Status: StatusHealthy, Message: "reachable"}
	})
}

// CanaryCheck feeds a fixed input to analyze and reports unhealthy when it
// fails or takes longer than budget. A zero budget disables the latency
// bound.
func CanaryCheck(name, input string, budget time.Duration, analyze func(ctx context.Context, input string) error) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		res := CheckResult{
			Name:    name,
			Status:  StatusHealthy,
			Details: map[string]interface{}{"input": input},
		}

		start := time.Now()
		err := analyze(ctx, input)
		took := time.Since(start)

		switch {
		case err != nil:
			res.Status = StatusUnhealthy
			res.Message = err.Error()
		case budget > 0 && took > budget:
			res.Status = StatusDegraded
			res.Message = fmt.Sprintf("canary took %s, budget %s", took.Round(time.Microsecond), budget)
		default:
			res.Message = "canary passed"
		}
		return res
	})
}

// FileCheck reports degraded when path does not exist or is a directory
func FileCheck(name, path string) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		res := CheckResult{
			Name:    name,
			Status:  StatusHealthy,
			Details: map[string]interface{}{"path": path},
		}

		info, err := os.Stat(path)
		switch {
		case err != nil:
			res.Status = StatusDegraded
			res.Message = err.Error()
		case info.IsDir():
			res.Status = StatusDegraded
			res.Message = "path is a directory"
		default:
			res.Message = "file present"
			res.Details["size"] = info.Size()
		}
		return res
	})
}

// AlwaysHealthy returns a checker that always reports healthy
func AlwaysHealthy(name string) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		return CheckResult{Name: name, Status: StatusHealthy, Message: "up"}
	})
}
