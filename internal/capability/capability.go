// Package capability answers whether the current platform and privilege
// context can collect a given metric category.
package capability

import (
	"sync"

	"github.com/HerbHall/procinfo/pkg/models"
)

// Flags is the capability snapshot of one process. It is computed once and
// never shared with another process; each worker probes for itself.
type Flags struct {
	SupportsIOCounters    bool `json:"supports_io_counters"`
	HasElevatedPermission bool `json:"has_elevated_permission"`
}

var (
	probeOnce sync.Once
	probed    Flags
)

// Probe returns the capability flags of the running process.
func Probe() Flags {
	probeOnce.Do(func() {
		probed = Flags{
			SupportsIOCounters:    SupportsIOCounters(),
			HasElevatedPermission: HasElevatedPermission(),
		}
	})
	return probed
}

// SupportsIOCounters reports whether the platform exposes per-process I/O
// accounting.
func SupportsIOCounters() bool {
	return platformSupportsIOCounters
}

// HasElevatedPermission reports whether cpu, mem and threads collection is
// permitted. Only permission-restrictive platforms ever return false.
func HasElevatedPermission() bool {
	return hasElevatedPermission()
}

// Allows reports whether category c may be collected under f.
func (f Flags) Allows(c models.Category) bool {
	switch c {
	case models.CategoryNet:
		return true
	case models.CategoryIO:
		return f.SupportsIOCounters
	case models.CategoryCPU, models.CategoryMem, models.CategoryThreads:
		return f.HasElevatedPermission
	default:
		return false
	}
}
