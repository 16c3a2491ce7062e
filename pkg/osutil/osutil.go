package osutil

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
)

// SignalContext returns a context that lives until Ctrl+C is pressed.
func SignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigs:
		case <-ctx.Done():
		}
		signal.Stop(sigs)
		cancel()
	}()

	return ctx, cancel
}

const StateDirPlaceholder = "<state_dir>"

// StateDir is the per user directory the tool keeps its state in.
func StateDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "webcat-submit"), nil
}

// ResolvePath replaces a leading <state_dir> with StateDir and a leading ~
// with the home directory. Other paths are returned as is.
func ResolvePath(path string) (string, error) {
	switch {
	case strings.HasPrefix(path, StateDirPlaceholder):
		dir, err := StateDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, strings.TrimPrefix(path, StateDirPlaceholder)), nil
	case path == "~" || strings.HasPrefix(path, "~/"):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// OpenBrowser opens a url or local file with the default handler of the
// desktop, it does not wait for the handler to exit.
func OpenBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}
