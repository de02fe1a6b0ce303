//go:build linux || freebsd || windows

package capability

const platformSupportsIOCounters = true
