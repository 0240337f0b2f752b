//go:build !windows

package player

import (
	"context"
	"net"
	"os"
	"path/filepath"

	"github.com/PizzaHomicide/lectern/internal/log"
)

// dialIPC connects to mpv's Unix domain socket
func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	log.Debug("Connecting to Unix socket", "path", path)
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}

// socketPathFor places the session socket in the user's runtime dir, falling back to the temp dir
func socketPathFor(name string) string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, name+".sock")
}

// removeSocket deletes the socket file mpv leaves behind
func removeSocket(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove mpv socket file", "path", path, "error", err)
	}
}
