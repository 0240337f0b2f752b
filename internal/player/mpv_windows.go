//go:build windows

package player

import (
	"context"
	"net"
	"time"

	"github.com/PizzaHomicide/lectern/internal/log"
	"gopkg.in/natefinch/npipe.v2"
)

const defaultPipeTimeout = 5 * time.Second

// dialIPC connects to mpv's named pipe
func dialIPC(ctx context.Context, path string) (net.Conn, error) {
	log.Debug("Connecting to Windows named pipe", "path", path)
	timeout := defaultPipeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	conn, err := npipe.DialTimeout(path, timeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// socketPathFor names the session pipe
func socketPathFor(name string) string {
	return `\\.\pipe\` + name
}

// removeSocket is a no-op: named pipes disappear with the process
func removeSocket(string) {}
