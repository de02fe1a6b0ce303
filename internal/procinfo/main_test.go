package procinfo

import (
	"os"
	"testing"

	"github.com/HerbHall/procinfo/internal/collector"
)

func TestMain(m *testing.M) {
	collector.MaybeRunWorker()
	os.Exit(m.Run())
}
