// Package download executes download plans with a bounded worker pool,
// per-task retries and atomic writes. Workers settle each task exactly once
// and report to a single aggregating consumer.
package download

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/s2tools/safefetch/internal/logger"
	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/fsutil"
	"github.com/s2tools/safefetch/pkg/model"
)

const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 20
	idleConnTimeout     = 30 * time.Second
)

// EngineOptions configure an Engine at construction time.
type EngineOptions struct {
	// Timeout bounds one request attempt. An expired attempt consumes retry
	// budget like any other transient failure.
	Timeout time.Duration
	// MaxAttempts is the per-task attempt budget, minimum 1.
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts of one task.
	RetryDelay time.Duration
	// RequestsPerSecond caps the request rate across all workers. Zero
	// means unlimited. Transfers are billed per request, so a cap keeps a
	// large plan from running up cost faster than intended.
	RequestsPerSecond float64
	UserAgent         string
}

// Options control one plan execution.
type Options struct {
	// Redownload forces a fetch even when the destination already exists.
	Redownload bool
	// MaxThreads is the worker pool size, minimum 1.
	MaxThreads int
}

// Engine downloads the objects of a plan to their destinations.
type Engine struct {
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	limiter     *rate.Limiter
	userAgent   string
}

// NewEngine creates a download engine with its own tuned HTTP client.
func NewEngine(opts EngineOptions) *Engine {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}
	_ = http2.ConfigureTransport(transport)

	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Engine{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		maxAttempts: maxAttempts,
		retryDelay:  opts.RetryDelay,
		limiter:     limiter,
		userAgent:   opts.UserAgent,
	}
}

// Execute runs every task of the plan and aggregates the outcomes. It
// returns ErrPlanFailed only when a required object could not be fetched;
// skipped objects never fail a plan. Task state on the plan is updated in
// place as outcomes settle.
func (e *Engine) Execute(ctx context.Context, plan *model.DownloadPlan, opts Options) (*model.DownloadResult, error) {
	if len(plan.Tasks) == 0 {
		return nil, errors.ErrEmptyPlan
	}
	threads := opts.MaxThreads
	if threads < 1 {
		threads = 1
	}
	if threads > len(plan.Tasks) {
		threads = len(plan.Tasks)
	}
	logger.Debug("executing download plan", logger.Fields{
		"plan":    plan.ID,
		"tasks":   len(plan.Tasks),
		"threads": threads,
	})

	tasks := make(chan *model.FetchTask)
	outcomes := make(chan model.TaskOutcome)

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range tasks {
				outcomes <- e.runTask(ctx, plan, task, opts)
			}
		}()
	}
	go func() {
		defer close(tasks)
		for i := range plan.Tasks {
			tasks <- &plan.Tasks[i]
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Single consumer: each task is owned by one worker until its outcome
	// arrives here, and only this loop writes terminal state, so no further
	// synchronization is needed.
	result := &model.DownloadResult{PlanID: plan.ID}
	for outcome := range outcomes {
		task := &plan.Tasks[outcome.TaskID]
		task.Status = outcome.Status
		task.Bytes = outcome.Bytes
		task.Err = outcome.Err
		result.Outcomes = append(result.Outcomes, outcome)
		switch outcome.Status {
		case model.StatusDone:
			result.Done++
		case model.StatusSkipped:
			result.Skipped++
		case model.StatusFailed:
			result.Failed++
			result.FailedURLs = append(result.FailedURLs, task.Object.URL)
		}
	}
	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].TaskID < result.Outcomes[j].TaskID
	})
	sort.Strings(result.FailedURLs)

	if result.Failed > 0 {
		return result, errors.Wrapf(errors.ErrPlanFailed, "%d of %d objects", result.Failed, len(plan.Tasks))
	}
	return result, nil
}

// runTask settles one task: dedup check, then up to maxAttempts fetches
// with a fixed delay in between. The worker owns the task until its outcome
// is consumed, so marking it in flight here does not race the aggregator.
func (e *Engine) runTask(ctx context.Context, plan *model.DownloadPlan, task *model.FetchTask, opts Options) model.TaskOutcome {
	task.Status = model.StatusInFlight
	destination := filepath.Join(plan.RootFolder, filepath.FromSlash(task.Destination))

	if !opts.Redownload {
		if info, err := os.Stat(destination); err == nil && info.Size() > 0 {
			logger.Debug("destination exists, skipping", logger.Fields{
				"plan": plan.ID,
				"path": task.Destination,
			})
			return model.TaskOutcome{TaskID: task.ID, Status: model.StatusSkipped}
		}
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return settle(task, ctx.Err())
			case <-time.After(e.retryDelay):
			}
		}
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return settle(task, err)
			}
		}

		bytes, err := e.fetch(ctx, task.Object.URL, destination)
		if err == nil {
			return model.TaskOutcome{TaskID: task.ID, Status: model.StatusDone, Bytes: bytes}
		}
		lastErr = err

		if stderrors.Is(err, errors.ErrNotFound) {
			if !task.Object.Required {
				logger.Debug("optional object missing, skipping", logger.Fields{
					"plan": plan.ID,
					"url":  task.Object.URL,
				})
			}
			return settle(task, err)
		}
		if ctx.Err() != nil || !isRetryable(err) {
			return settle(task, err)
		}
		logger.Warn("download attempt failed", logger.Fields{
			"plan":    plan.ID,
			"url":     task.Object.URL,
			"attempt": attempt,
			"error":   err.Error(),
		})
	}

	// Budget exhausted. Optional objects degrade to skipped so one flaky
	// report does not fail the whole plan.
	if !task.Object.Required {
		return model.TaskOutcome{TaskID: task.ID, Status: model.StatusSkipped, Err: lastErr}
	}
	return model.TaskOutcome{TaskID: task.ID, Status: model.StatusFailed,
		Err: errors.Wrapf(errors.ErrDownloadFailed, "%s after %d attempts: %v", task.Object.URL, e.maxAttempts, lastErr)}
}

// settle turns a terminal fetch error into an outcome. Only required objects
// fail; an optional object that cannot be fetched for any reason ends
// skipped, so it never fails the plan.
func settle(task *model.FetchTask, err error) model.TaskOutcome {
	if !task.Object.Required {
		return model.TaskOutcome{TaskID: task.ID, Status: model.StatusSkipped, Err: err}
	}
	return model.TaskOutcome{TaskID: task.ID, Status: model.StatusFailed, Err: err}
}

// fetch streams one object through a temp file next to its destination and
// renames it into place, so readers never observe a partial file.
func (e *Engine) fetch(ctx context.Context, sourceURL, destination string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, errors.Wrapf(errors.ErrNotFound, "%s", sourceURL)
	case resp.StatusCode/100 != 2:
		return 0, &statusError{code: resp.StatusCode, url: sourceURL}
	}

	if err := fsutil.EnsureFileDir(destination); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(destination), ".safefetch-*")
	if err != nil {
		return 0, errors.Wrap(err, "failed to create temp file")
	}
	bytes, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return 0, errors.Wrapf(err, "failed to write %s", destination)
	}
	if err := fsutil.Move(tmp.Name(), destination); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}
	// Temp files are created 0600.
	if err := os.Chmod(destination, fsutil.FileModeDefault); err != nil {
		return 0, errors.Wrapf(err, "failed to set permissions on %s", destination)
	}
	return bytes, nil
}

// statusError is a non-2xx HTTP response.
type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.code, e.url)
}

// isRetryable classifies an attempt error. Server-side and transport
// trouble is worth retrying, client-side errors are not.
func isRetryable(err error) bool {
	var status *statusError
	if stderrors.As(err, &status) {
		return status.code >= http.StatusInternalServerError || status.code == http.StatusTooManyRequests
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return stderrors.As(err, &urlErr)
}
