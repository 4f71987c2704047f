// ============================================================================
// souffleur - Interview question capture
// ============================================================================
//
// Package:     health
// Description: Readiness checks for microphone, engines and storage
// Author:      Mike Stoffels
// Created:     2026-10-18
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Status is the outcome of a check. Higher values are worse.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusFail
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// CheckResult represents the result of a check
type CheckResult struct {
	Name     string
	Status   Status
	Message  string
	Duration time.Duration
}

// OK, Warn and Fail build results
func OK(format string, args ...interface{}) CheckResult {
	return CheckResult{Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

func Warn(format string, args ...interface{}) CheckResult {
	return CheckResult{Status: StatusWarn, Message: fmt.Sprintf(format, args...)}
}

func Fail(err error) CheckResult {
	return CheckResult{Status: StatusFail, Message: err.Error()}
}

// Checker is an interface for checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

func (c *namedCheck) Name() string {
	return c.name
}

func (c *namedCheck) Check(ctx context.Context) CheckResult {
	return c.fn(ctx)
}

// Registry runs a set of checks. Results keep registration order.
type Registry struct {
	mu       sync.Mutex
	checkers []Checker
	timeout  time.Duration
}

// NewRegistry creates a registry; timeout bounds each check (0 = none)
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{timeout: timeout}
}

// Register adds a checker
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, checker)
}

// RegisterFunc adds a check function
func (r *Registry) RegisterFunc(name string, fn func(ctx context.Context) CheckResult) {
	r.Register(NewChecker(name, fn))
}

// Check runs all checks concurrently and returns the report
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.Lock()
	checkers := append([]Checker(nil), r.checkers...)
	r.mu.Unlock()

	report := &Report{Checks: make([]CheckResult, len(checkers))}

	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			report.Checks[i] = r.run(ctx, c)
		}(i, checker)
	}
	wg.Wait()

	for _, res := range report.Checks {
		if res.Status > report.Status {
			report.Status = res.Status
		}
	}
	return report
}

// run executes one check; a panic counts as failure
func (r *Registry) run(ctx context.Context, c Checker) (result CheckResult) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			result = CheckResult{Status: StatusFail, Message: fmt.Sprintf("check panicked: %v", p)}
		}
		result.Name = c.Name()
		result.Duration = time.Since(start)
	}()
	return c.Check(ctx)
}

// Report is the outcome of all checks; Status is the worst one
type Report struct {
	Status Status
	Checks []CheckResult
}

// String renders one line per check
func (r *Report) String() string {
	var b strings.Builder
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "[%-4s] %-14s %s\n", c.Status, c.Name, c.Message)
	}
	return b.String()
}

// HTTPCheck reports whether url answers with a non-5xx status
func HTTPCheck(name, url string, client *http.Client) Checker {
	if client == nil {
		client = http.DefaultClient
	}
	return NewChecker(name, func(ctx context.Context) CheckResult {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Fail(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return Fail(fmt.Errorf("%s unreachable: %w", url, err))
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return Fail(fmt.Errorf("%s returned status %d", url, resp.StatusCode))
		}
		return OK("%s reachable", url)
	})
}
