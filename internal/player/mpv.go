package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/playback"
	"github.com/google/uuid"
)

const (
	connectAttempts   = 20
	connectRetryDelay = 250 * time.Millisecond
	quitTimeout       = 2 * time.Second
)

// observedProperties are reported by mpv as property-change events for the lifetime of the session
var observedProperties = []string{"playback-time", "duration", "pause", "eof-reached", "fullscreen"}

// MPV drives a long-running mpv process as the lesson media element.  mpv is started idle with its own window; each
// lesson is swapped in with loadfile, and property observers stand in for the media element's events.
type MPV struct {
	cfg        config.PlayerConfig
	socketPath string
	ipc        *MPVIPCClient
	cmd        *exec.Cmd
	exited     chan struct{}

	mu                  sync.Mutex
	listeners           map[int]func(playback.MediaEvent)
	fullscreenListeners map[int]func(bool)
	nextListener        int
	fullscreen          bool
	fullscreenKnown     bool
	tempFile            string
}

// NewMPV creates an mpv media element.  The process is not started until Start.
func NewMPV(cfg config.PlayerConfig) *MPV {
	socketPath := cfg.SocketPath
	if socketPath == "" {
		socketPath = socketPathFor("lectern-mpv-" + uuid.NewString())
	}
	return &MPV{
		cfg:                 cfg,
		socketPath:          socketPath,
		ipc:                 NewMPVIPCClient(socketPath),
		listeners:           make(map[int]func(playback.MediaEvent)),
		fullscreenListeners: make(map[int]func(bool)),
	}
}

// Start launches mpv, connects to its IPC server and subscribes to the properties the controller needs
func (p *MPV) Start(ctx context.Context) error {
	mpvPath := p.cfg.Path
	if mpvPath == "" {
		mpvPath = "mpv"
	}

	args := []string{
		"--idle=yes",         // Stay alive between lessons
		"--force-window=yes", // Keep the window open while idle
		"--keep-open=yes",    // Hold the last frame at the end so "ended" can be observed
		"--no-terminal",
		"--input-ipc-server=" + p.socketPath,
	}
	args = append(args, ParseArgs(p.cfg.Args)...)

	log.Info("Starting mpv", "path", mpvPath, "socket_path", p.socketPath)
	cmd := exec.Command(mpvPath, args...)
	setupPlayerProcess(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start mpv: %w", err)
	}
	p.cmd = cmd
	p.exited = make(chan struct{})
	go func() {
		err := cmd.Wait()
		log.Info("mpv exited", "error", err)
		close(p.exited)
	}()

	if err := p.ipc.WaitForConnection(ctx, connectAttempts, connectRetryDelay); err != nil {
		_ = p.Close()
		return err
	}
	return p.startSession(ctx)
}

// startSession registers the property observers and starts translating mpv events
func (p *MPV) startSession(ctx context.Context) error {
	for i, name := range observedProperties {
		if err := p.ipc.ObserveProperty(ctx, i+1, name); err != nil {
			return fmt.Errorf("failed to observe %s: %w", name, err)
		}
	}
	go p.dispatch()
	return nil
}

func (p *MPV) dispatch() {
	for ev := range p.ipc.Events() {
		p.handle(ev)
	}
	log.Debug("mpv event dispatch stopped")
}

func (p *MPV) handle(ev MPVEvent) {
	switch ev.Event {
	case "property-change":
		if ev.Name == "fullscreen" {
			var active bool
			if err := json.Unmarshal(ev.Data, &active); err == nil {
				p.fullscreenChanged(active)
			}
			return
		}
		if me, ok := translateProperty(ev.Name, ev.Data); ok {
			p.emit(me)
		}
	case "end-file":
		if ev.Reason == "error" {
			log.Error("mpv failed to play file", "error", ev.Error)
		}
	default:
		log.Trace("Ignoring mpv event", "event", ev.Event)
	}
}

// translateProperty maps an observed mpv property to the media event it stands for.  Unset properties (null data)
// produce nothing.
func translateProperty(name string, data json.RawMessage) (playback.MediaEvent, bool) {
	if len(data) == 0 || string(data) == "null" {
		return playback.MediaEvent{}, false
	}

	switch name {
	case "playback-time", "duration":
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			log.Warn("Failed to parse mpv property", "name", name, "data", string(data))
			return playback.MediaEvent{}, false
		}
		if name == "duration" {
			return playback.MediaEvent{Type: playback.MediaLoadedMetadata, Value: v}, true
		}
		return playback.MediaEvent{Type: playback.MediaTimeUpdate, Value: v}, true
	case "pause":
		var paused bool
		if err := json.Unmarshal(data, &paused); err != nil {
			return playback.MediaEvent{}, false
		}
		if paused {
			return playback.MediaEvent{Type: playback.MediaPause}, true
		}
		return playback.MediaEvent{Type: playback.MediaPlay}, true
	case "eof-reached":
		var eof bool
		if err := json.Unmarshal(data, &eof); err != nil || !eof {
			return playback.MediaEvent{}, false
		}
		return playback.MediaEvent{Type: playback.MediaEnded}, true
	}
	return playback.MediaEvent{}, false
}

// Load replaces the current file.  Embedded data URIs are written to a temp file first.  The new file starts paused.
func (p *MPV) Load(ctx context.Context, src playback.Source) error {
	target := src.URI
	if src.Kind == playback.SourceDataURI || src.Kind == playback.SourceInline {
		path, err := p.materialize(src)
		if err != nil {
			return err
		}
		target = path
	}

	if err := p.ipc.SetProperty(ctx, "pause", true); err != nil {
		return err
	}
	if _, err := p.ipc.Command(ctx, "loadfile", target, "replace"); err != nil {
		return fmt.Errorf("failed to load %s source: %w", src.Kind, err)
	}
	return nil
}

func (p *MPV) materialize(src playback.Source) (string, error) {
	data, err := decodeDataURI(src.URI)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "lectern-lesson-*"+extensionFor(src.MimeType))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for inline video: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write inline video: %w", err)
	}

	p.mu.Lock()
	previous := p.tempFile
	p.tempFile = f.Name()
	p.mu.Unlock()
	removeTempFile(previous)

	log.Debug("Wrote inline video to temp file", "path", f.Name(), "bytes", len(data))
	return f.Name(), nil
}

func (p *MPV) Play(ctx context.Context) error {
	return p.ipc.SetProperty(ctx, "pause", false)
}

func (p *MPV) Pause(ctx context.Context) error {
	return p.ipc.SetProperty(ctx, "pause", true)
}

func (p *MPV) Seek(ctx context.Context, seconds float64) error {
	_, err := p.ipc.Command(ctx, "seek", seconds, "absolute")
	return err
}

// SetVolume takes a level in [0, 1]; mpv's scale is 0-100
func (p *MPV) SetVolume(ctx context.Context, volume float64) error {
	return p.ipc.SetProperty(ctx, "volume", volume*100)
}

func (p *MPV) SetMuted(ctx context.Context, muted bool) error {
	return p.ipc.SetProperty(ctx, "mute", muted)
}

func (p *MPV) SetPlaybackRate(ctx context.Context, rate float64) error {
	return p.ipc.SetProperty(ctx, "speed", rate)
}

func (p *MPV) AddListener(fn func(playback.MediaEvent)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *MPV) emit(ev playback.MediaEvent) {
	p.mu.Lock()
	listeners := make([]func(playback.MediaEvent), 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}

// RequestFullscreen asks mpv to make its window fullscreen
func (p *MPV) RequestFullscreen(ctx context.Context) error {
	return p.ipc.SetProperty(ctx, "fullscreen", true)
}

// ExitFullscreen returns the mpv window to its normal size
func (p *MPV) ExitFullscreen(ctx context.Context) error {
	return p.ipc.SetProperty(ctx, "fullscreen", false)
}

// FullscreenElement reports the last fullscreen state mpv published
func (p *MPV) FullscreenElement() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fullscreen, p.fullscreenKnown
}

func (p *MPV) OnFullscreenChange(fn func(bool)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextListener
	p.nextListener++
	p.fullscreenListeners[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.fullscreenListeners, id)
		p.mu.Unlock()
	}
}

func (p *MPV) fullscreenChanged(active bool) {
	p.mu.Lock()
	p.fullscreen = active
	p.fullscreenKnown = true
	listeners := make([]func(bool), 0, len(p.fullscreenListeners))
	for _, l := range p.fullscreenListeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		l(active)
	}
}

// Close asks mpv to quit, kills it if it doesn't, and removes the socket and any temp file
func (p *MPV) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), quitTimeout)
	defer cancel()

	if _, err := p.ipc.Command(ctx, "quit"); err != nil && !errors.Is(err, ErrDetached) {
		log.Debug("mpv quit command failed", "error", err)
	}
	_ = p.ipc.Close()

	var err error
	if p.cmd != nil && p.cmd.Process != nil {
		select {
		case <-p.exited:
		case <-ctx.Done():
			log.Warn("mpv did not quit in time, killing it")
			err = p.cmd.Process.Kill()
		}
	}

	removeSocket(p.socketPath)
	p.mu.Lock()
	removeTempFile(p.tempFile)
	p.tempFile = ""
	p.mu.Unlock()
	return err
}

func removeTempFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove temp video file", "path", path, "error", err)
	}
}
