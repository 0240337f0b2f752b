package player

import (
	"context"

	"github.com/PizzaHomicide/lectern/internal/playback"
)

// Backend is a media element hosted by an external player process.  It also owns that process's window, which is
// what fullscreen applies to.
type Backend interface {
	playback.MediaElement
	playback.FullscreenAPI

	// Start launches the player process and connects to it
	Start(ctx context.Context) error
	// Close stops the player process and releases everything it holds
	Close() error
}
