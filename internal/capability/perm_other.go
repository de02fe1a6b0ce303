//go:build !darwin

package capability

func hasElevatedPermission() bool {
	return true
}
