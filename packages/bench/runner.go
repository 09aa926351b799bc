package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/hitpost/packages/http"
)

// Executor performs one execution of the benched request.
type Executor func(ctx context.Context) (*http.Response, error)

// ClientExecutor sends req through client on every call. Each call is an
// independent Client.Do.
func ClientExecutor(client *http.Client, req *http.Request) Executor {
	return func(ctx context.Context) (*http.Response, error) {
		return client.Do(ctx, req)
	}
}

// Runner drives repeated executions
type Runner struct {
	config   *Config
	execute  Executor
	metrics  *Metrics
	limiter  *rate.Limiter
	sem      chan struct{}
	reporter *Reporter
	logger   *slog.Logger
	target   string
}

// RunnerOption configures the runner
type RunnerOption func(*Runner)

// WithReporter sets the reporter
func WithReporter(reporter *Reporter) RunnerOption {
	return func(r *Runner) {
		r.reporter = reporter
	}
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTarget sets the label shown in the report header.
func WithTarget(target string) RunnerOption {
	return func(r *Runner) {
		r.target = target
	}
}

// NewRunner creates a runner for execute
func NewRunner(config *Config, execute Executor, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:  config,
		execute: execute,
		metrics: NewMetrics(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.reporter == nil {
		r.reporter = NewReporter(WithNoProgress(true))
	}

	limit := rate.Inf
	if config.Rate > 0 {
		limit = rate.Limit(config.Rate)
	}
	r.limiter = rate.NewLimiter(limit, 1)

	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	r.sem = make(chan struct{}, concurrency)

	return r
}

// Metrics exposes the collector of the current run
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run executes the bench. It returns once every issued execution has
// finished.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if r.execute == nil {
		return nil, errors.New("no executor configured")
	}

	r.reporter.Header(r.target, r.config)

	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	r.metrics.Start()

	progressDone := make(chan struct{})
	go r.progressLoop(progressDone)

	issued := r.issue(ctx)

	r.metrics.Stop()
	close(progressDone)
	r.reporter.ClearProgress()

	r.logger.Debug("bench finished", "issued", issued)

	summary := r.metrics.GetSummary()
	var thresholds []ThresholdResult
	if r.config.Thresholds.HasThresholds() {
		thresholds = EvaluateThresholds(summary, r.config.Thresholds)
	}

	result := &Result{
		Summary:    summary,
		Thresholds: thresholds,
		Passed:     true,
	}
	for _, tr := range thresholds {
		if !tr.Passed {
			result.Passed = false
			break
		}
	}
	return result, nil
}

// issue schedules executions until the request count is reached or ctx
// ends, then waits for the in-flight ones.
func (r *Runner) issue(ctx context.Context) int {
	var wg sync.WaitGroup
	issued := 0

	for r.config.Requests == 0 || issued < r.config.Requests {
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}

		select {
		case r.sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		issued++
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-r.sem }()
			r.executeOnce(ctx)
		}()
	}

	wg.Wait()
	return issued
}

func (r *Runner) executeOnce(ctx context.Context) {
	r.metrics.inFlight.Add(1)
	defer r.metrics.inFlight.Add(-1)

	start := time.Now()
	resp, err := r.execute(ctx)
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			r.metrics.RecordTimeout()
		} else {
			r.metrics.RecordError(err.Error(), duration)
		}
		r.logger.Debug("execution failed", "error", err)
		return
	}

	r.metrics.RecordResponse(resp.Status, duration)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (r *Runner) progressLoop(done chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.reporter.Progress(r.metrics.GetCurrentStats(), r.config)
		}
	}
}

// Result holds the final result of a bench run
type Result struct {
	Summary    *Summary
	Thresholds []ThresholdResult
	Passed     bool
}

// HasThresholdFailures returns true if any thresholds failed
func (r *Result) HasThresholdFailures() bool {
	for _, tr := range r.Thresholds {
		if !tr.Passed {
			return true
		}
	}
	return false
}
