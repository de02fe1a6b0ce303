// Package collector gathers process metrics through a short-lived worker
// process. The parent launches the worker with the target PID and category
// flags, waits for it to exit, and decodes the JSON object it wrote to stdout.
package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/procinfo/pkg/models"
)

// waitDelay is how long Wait keeps draining output after the worker is killed.
const waitDelay = 2 * time.Second

// Request describes one collection. A zero PID means the calling process.
type Request struct {
	PID        int32
	Categories models.CategorySet
}

// Collector launches collection workers.
type Collector struct {
	logger     *zap.Logger
	executable string
	timeout    time.Duration
	env        []string
	metrics    *Metrics
	limiter    *rate.Limiter
}

// Option configures a Collector.
type Option func(*Collector)

// WithExecutable sets the worker binary. It defaults to the running executable,
// which must call MaybeRunWorker at startup.
func WithExecutable(path string) Option {
	return func(c *Collector) { c.executable = path }
}

// WithTimeout bounds each worker's lifetime. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) { c.timeout = d }
}

// WithEnv adds KEY=VALUE entries to the worker environment.
func WithEnv(env ...string) Option {
	return func(c *Collector) { c.env = append(c.env, env...) }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// WithSpawnLimit throttles worker launches to r per second with the given burst.
func WithSpawnLimit(r rate.Limit, burst int) Option {
	return func(c *Collector) {
		if r == rate.Inf || r <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(r, burst)
	}
}

// New returns a Collector.
func New(logger *zap.Logger, opts ...Option) *Collector {
	c := &Collector{logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs one worker against req.PID and returns the categories it
// collected. It blocks until the worker exits. Requesting cpu blocks the
// worker for the CPU sampling interval. A request naming an unknown category
// fails with *UnknownCategoryError before anything is launched.
func (c *Collector) Collect(ctx context.Context, req Request) (*models.Result, error) {
	if unknown := req.Categories.Unknown(); len(unknown) > 0 {
		return nil, &UnknownCategoryError{Keys: unknown}
	}
	pid := req.PID
	if pid == 0 {
		pid = int32(os.Getpid())
	}
	if req.Categories.Empty() {
		return &models.Result{}, nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.metrics.observe(OutcomeThrottled, 0)
			return nil, fmt.Errorf("wait for worker slot: %w", err)
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := c.run(ctx, workerRequest{PID: pid, Categories: req.Categories})
	elapsed := time.Since(start)
	c.metrics.observe(outcomeOf(err), elapsed)

	if err != nil {
		c.logger.Warn("process collection failed",
			zap.Int32("pid", pid),
			zap.Strings("categories", req.Categories.Strings()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}
	c.logger.Debug("process collection complete",
		zap.Int32("pid", pid),
		zap.Strings("categories", req.Categories.Strings()),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (c *Collector) run(ctx context.Context, req workerRequest) (*models.Result, error) {
	exe := c.executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return nil, &LaunchError{Path: "", Err: fmt.Errorf("resolve executable path: %w", err)}
		}
	}

	cmd := exec.CommandContext(ctx, exe, encodeArgs(req)...)
	cmd.Env = append(os.Environ(), WorkerEnv+"=1")
	cmd.Env = append(cmd.Env, c.env...)

	if c.timeout > 0 {
		// Bounds Wait when an orphaned descendant still holds the output pipes.
		cmd.WaitDelay = waitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: exe, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		return nil, exitError(ctx, err, stderr.Bytes())
	}
	return decodeResult(stdout.Bytes(), req.Categories)
}

func exitError(ctx context.Context, waitErr error, stderr []byte) *WorkerExitError {
	e := &WorkerExitError{ExitCode: -1, Stderr: string(stderr), Err: waitErr}
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		e.ExitCode = ee.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		e.Err = ctxErr
		return e
	}
	if rec, ok := parseFailure(stderr); ok {
		e.Kind = FailureKind(rec.Kind)
		e.Category = models.Category(rec.Category)
		e.Message = rec.Error
	}
	return e
}
