package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HerbHall/procinfo/internal/inspector"
	"github.com/HerbHall/procinfo/pkg/models"
)

var (
	// ErrEmptyOutput is returned when the worker exits cleanly without writing a result.
	ErrEmptyOutput = errors.New("worker produced no output")

	// ErrUnexpectedCategory is returned when the worker reports a category
	// that was not requested.
	ErrUnexpectedCategory = errors.New("worker returned unrequested category")

	// ErrWorkerUsage is returned when the worker rejected its arguments.
	ErrWorkerUsage = errors.New("invalid worker arguments")

	// ErrUnknownCategory is matched by every *UnknownCategoryError.
	ErrUnknownCategory = errors.New("unknown category")
)

// Worker exit codes. Anything non-zero is a failed collection.
const (
	ExitOK                  = 0
	ExitInternal            = 1
	ExitUsage               = 2
	ExitUnsupportedPlatform = 3
	ExitPermission          = 4
	ExitSelfInspection      = 5
	ExitNoSuchProcess       = 6
)

// FailureKind classifies a worker failure so it survives the process boundary.
type FailureKind string

const (
	KindInternal            FailureKind = "internal"
	KindUsage               FailureKind = "usage"
	KindUnsupportedPlatform FailureKind = "unsupported_platform"
	KindPermission          FailureKind = "permission"
	KindSelfInspection      FailureKind = "self_inspection"
	KindNoSuchProcess       FailureKind = "no_such_process"
)

// classify maps a worker-side error to its kind and exit code.
func classify(err error) (FailureKind, int) {
	switch {
	case errors.Is(err, ErrWorkerUsage):
		return KindUsage, ExitUsage
	case errors.Is(err, inspector.ErrSelfInspection):
		return KindSelfInspection, ExitSelfInspection
	case errors.Is(err, inspector.ErrNoSuchProcess):
		return KindNoSuchProcess, ExitNoSuchProcess
	case errors.Is(err, inspector.ErrUnsupportedPlatform):
		return KindUnsupportedPlatform, ExitUnsupportedPlatform
	case errors.Is(err, inspector.ErrPermission):
		return KindPermission, ExitPermission
	default:
		return KindInternal, ExitInternal
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case KindUsage:
		return ErrWorkerUsage
	case KindSelfInspection:
		return inspector.ErrSelfInspection
	case KindNoSuchProcess:
		return inspector.ErrNoSuchProcess
	case KindUnsupportedPlatform:
		return inspector.ErrUnsupportedPlatform
	case KindPermission:
		return inspector.ErrPermission
	default:
		return nil
	}
}

// UnknownCategoryError lists request keys that name no category. No worker
// is launched for such a request.
type UnknownCategoryError struct {
	Keys []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownCategory, strings.Join(e.Keys, ", "))
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}

// LaunchError means the worker process never ran.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch worker %q: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// DecodeError means the worker ran and exited zero but its output was not a
// valid result.
type DecodeError struct {
	Output string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode worker output: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// WorkerExitError means the worker ran and failed. Kind and Category are
// recovered from the worker's diagnostic stream when it reported them.
type WorkerExitError struct {
	ExitCode int
	Stderr   string
	Kind     FailureKind
	Category models.Category
	Message  string
	Err      error
}

func (e *WorkerExitError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "worker exited with code %d", e.ExitCode)
	if e.Kind != "" {
		fmt.Fprintf(&b, " (%s", e.Kind)
		if e.Category != "" {
			fmt.Fprintf(&b, ", category %s", e.Category)
		}
		b.WriteString(")")
	}
	switch {
	case e.Message != "":
		fmt.Fprintf(&b, ": %s", e.Message)
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the failure kind sentinel and the underlying wait error.
func (e *WorkerExitError) Unwrap() []error {
	var errs []error
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
