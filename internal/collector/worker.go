package collector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/HerbHall/procinfo/internal/capability"
	"github.com/HerbHall/procinfo/internal/inspector"
	"github.com/HerbHall/procinfo/pkg/models"
)

// probe is replaced in tests to simulate restricted platforms.
var probe = capability.Probe

// IsWorker reports whether the current process was launched as a worker.
func IsWorker() bool {
	return os.Getenv(WorkerEnv) == "1"
}

// MaybeRunWorker runs the worker and exits when the process was launched as
// one. It returns immediately otherwise. Binaries that spawn workers call it
// first thing in main (and in TestMain).
func MaybeRunWorker() {
	if !IsWorker() {
		return
	}
	os.Exit(RunWorker(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// RunWorker performs one collection described by args, writes the JSON
// result to stdout and diagnostics to stderr, and returns the exit code.
func RunWorker(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	logger := newWorkerLogger(stderr)
	defer func() { _ = logger.Sync() }()

	req, err := parseArgs(args)
	if err != nil {
		return fail(logger, err)
	}

	w := &worker{
		insp:   inspector.New(req.PID, probe()),
		logger: logger.With(zap.Int32("pid", req.PID)),
	}
	result, err := w.collect(ctx, req.Categories)
	if err != nil {
		return fail(logger, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fail(logger, fmt.Errorf("encode result: %w", err))
	}
	bw := bufio.NewWriter(stdout)
	if _, err := bw.Write(data); err != nil {
		return fail(logger, fmt.Errorf("write result: %w", err))
	}
	if err := bw.Flush(); err != nil {
		return fail(logger, fmt.Errorf("flush result: %w", err))
	}
	return ExitOK
}

// newWorkerLogger logs JSON lines to stderr; stdout carries only the result.
func newWorkerLogger(stderr io.Writer) *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(stderr),
		zapcore.InfoLevel,
	)
	return zap.New(core).Named("worker")
}

// fail writes the structured failure record the parent parses and returns
// the matching exit code.
func fail(logger *zap.Logger, err error) int {
	kind, code := classify(err)
	fields := []zap.Field{zap.String("kind", string(kind)), zap.Error(err)}
	var ce *inspector.CategoryError
	if errors.As(err, &ce) {
		fields = append(fields, zap.String("category", string(ce.Category)))
	}
	logger.Error("collection failed", fields...)
	return code
}

type worker struct {
	insp   *inspector.Inspector
	logger *zap.Logger
}

// collect gathers the requested categories in fixed order. A closed
// capability gate aborts the collection. A category the OS cannot report is
// omitted, except io which always aborts.
func (w *worker) collect(ctx context.Context, cats models.CategorySet) (*models.Result, error) {
	result := &models.Result{}
	for _, c := range cats.Enabled() {
		if !w.insp.Supports(c) {
			return nil, inspector.GateError(c)
		}
		err := w.collectOne(ctx, c, result)
		if err == nil {
			continue
		}
		if errors.Is(err, inspector.ErrUnsupported) {
			if c == models.CategoryIO {
				return nil, &inspector.CategoryError{
					Category: c,
					Err:      fmt.Errorf("%w: %v", inspector.ErrUnsupportedPlatform, err),
				}
			}
			w.logger.Warn("category omitted", zap.String("category", string(c)), zap.Error(err))
			continue
		}
		return nil, err
	}
	return result, nil
}

func (w *worker) collectOne(ctx context.Context, c models.Category, result *models.Result) error {
	var err error
	switch c {
	case models.CategoryNet:
		result.Net, err = w.insp.Connections(ctx)
	case models.CategoryIO:
		result.IO, err = w.insp.IOCounters(ctx)
	case models.CategoryCPU:
		result.CPU, err = w.insp.CPUInfo(ctx)
	case models.CategoryMem:
		result.Mem, err = w.insp.MemoryInfo(ctx)
	case models.CategoryThreads:
		result.Threads, err = w.insp.ThreadCPUInfo(ctx)
	default:
		err = fmt.Errorf("%w: unknown category %q", ErrWorkerUsage, c)
	}
	return err
}
