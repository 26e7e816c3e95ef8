package report

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenFile opens path with the platform's default viewer.
func OpenFile(path string) error {
	name, args := openCommand(runtime.GOOS, path)
	if err := exec.Command(name, args...).Start(); err != nil { //nolint:gosec // opening a file we just wrote
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	return nil
}

func openCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "cmd", []string{"/c", "start", "", path}
	default:
		return "xdg-open", []string{path}
	}
}
