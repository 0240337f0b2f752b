package playback

import (
	"context"
	"errors"
)

// MediaEventType enumerates the native events the controller absorbs
type MediaEventType string

const (
	MediaTimeUpdate     MediaEventType = "timeupdate"
	MediaLoadedMetadata MediaEventType = "loadedmetadata"
	MediaPlay           MediaEventType = "play"
	MediaPause          MediaEventType = "pause"
	MediaEnded          MediaEventType = "ended"
)

// MediaEvent is a single notification from the media element.  Value carries the position for time updates and the
// duration for loaded metadata; it is unused otherwise.
type MediaEvent struct {
	Type  MediaEventType
	Value float64
}

// MediaElement is the native playback surface.  The controller is its only writer.
//
// Listeners may be invoked from any goroutine; the controller re-posts them onto its loop.
type MediaElement interface {
	Load(ctx context.Context, src Source) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error
	SetVolume(ctx context.Context, volume float64) error
	SetMuted(ctx context.Context, muted bool) error
	SetPlaybackRate(ctx context.Context, rate float64) error

	// AddListener registers for media events.  The returned function removes the registration.
	AddListener(fn func(MediaEvent)) (remove func())
}

// FullscreenAPI is the native fullscreen capability of the player container
type FullscreenAPI interface {
	RequestFullscreen(ctx context.Context) error
	ExitFullscreen(ctx context.Context) error

	// FullscreenElement reports the native fullscreen state.  known is false when the platform cannot tell.
	FullscreenElement() (active bool, known bool)

	// OnFullscreenChange registers for the native change signal.  The returned function removes the registration.
	OnFullscreenChange(fn func(active bool)) (remove func())
}

var (
	// ErrNoSource is logged when a command arrives while the active lesson has nothing to play
	ErrNoSource = errors.New("no playable source")
	// ErrFullscreenDenied wraps a rejected native fullscreen request
	ErrFullscreenDenied = errors.New("fullscreen request denied")
)
