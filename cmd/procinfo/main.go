package main

import (
	"os"

	"github.com/HerbHall/procinfo/internal/collector"
)

func main() {
	// The same binary serves as the collection worker.
	collector.MaybeRunWorker()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
