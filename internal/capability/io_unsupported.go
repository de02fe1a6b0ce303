//go:build !linux && !freebsd && !windows

package capability

const platformSupportsIOCounters = false
