package inspector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/HerbHall/procinfo/pkg/models"
)

var (
	// ErrSelfInspection is returned when the target PID is the inspecting process.
	ErrSelfInspection = errors.New("process inspection of itself is not allowed")

	// ErrNoSuchProcess is returned when the target PID does not exist.
	ErrNoSuchProcess = errors.New("no such process")

	// ErrPermission is returned when a category needs elevated permission
	// that the current process lacks.
	ErrPermission = errors.New("elevated permission required")

	// ErrUnsupportedPlatform is returned for I/O counters on platforms
	// without per-process I/O accounting.
	ErrUnsupportedPlatform = errors.New("platform not supported")

	// ErrUnsupported is returned when the OS cannot report a category for
	// the target process.
	ErrUnsupported = errors.New("not supported for this process")
)

// CategoryError ties a failure to the category being collected.
type CategoryError struct {
	Category models.Category
	Err      error
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *CategoryError) Unwrap() error {
	return e.Err
}

// GateError returns the error a category fails with when its capability
// gate is closed.
func GateError(c models.Category) error {
	if c == models.CategoryIO {
		return &CategoryError{Category: c, Err: ErrUnsupportedPlatform}
	}
	return &CategoryError{Category: c, Err: ErrPermission}
}

// mapError translates process library errors into the package sentinels.
func mapError(c models.Category, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, process.ErrorProcessNotRunning):
		return &CategoryError{Category: c, Err: fmt.Errorf("%w: %v", ErrNoSuchProcess, err)}
	case errors.Is(err, process.ErrorNotPermitted):
		return &CategoryError{Category: c, Err: fmt.Errorf("%w: %v", ErrPermission, err)}
	}

	// The library reports missing platform support with an unexported error.
	if strings.Contains(err.Error(), "not implemented") {
		return &CategoryError{Category: c, Err: fmt.Errorf("%w: %v", ErrUnsupported, err)}
	}
	return &CategoryError{Category: c, Err: err}
}
