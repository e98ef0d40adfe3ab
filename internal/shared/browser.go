package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// getRuntime is swapped in tests to drive platform branches.
var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser points the default system browser at url. The launcher is
// started, not waited on.
func OpenBrowser(url string) error {
	var name string
	var args []string

	switch rt := getRuntime(); rt {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "cmd", []string{"/c", "start"}
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := exec.Command(name, append(args, url)...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
