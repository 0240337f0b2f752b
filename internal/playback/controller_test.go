package playback

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewController(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewController(Options{Element: newFakeElement()})
		s := c.State()
		assert.Equal(t, StatusEmpty, s.Status)
		assert.Equal(t, 1.0, s.Volume)
		assert.Equal(t, 1.0, s.PlaybackSpeed)
		assert.True(t, s.ControlsVisible)
		assert.False(t, s.IsPlaying)
	})

	t.Run("initial settings", func(t *testing.T) {
		c := NewController(Options{Element: newFakeElement(), InitialVolume: 0.4, InitialSpeed: 1.5})
		assert.Equal(t, 0.4, c.State().Volume)
		assert.Equal(t, 1.5, c.State().PlaybackSpeed)
	})

	t.Run("unsupported initial speed falls back to 1", func(t *testing.T) {
		c := NewController(Options{Element: newFakeElement(), InitialSpeed: 3})
		assert.Equal(t, 1.0, c.State().PlaybackSpeed)
	})
}

func TestLoad(t *testing.T) {
	t.Run("attaches source and forwards settings", func(t *testing.T) {
		el := newFakeElement()
		c := NewController(Options{Element: el, Runner: InlineRunner{}, InitialVolume: 0.6, InitialSpeed: 1.25})
		c.Load(lessonA)

		require.Len(t, el.loaded, 1)
		assert.Equal(t, lessonA.VideoURL, el.loaded[0].URI)
		assert.Equal(t, 0.6, el.volume)
		assert.Equal(t, 1.25, el.rate)
		assert.False(t, el.muted)
		assert.Equal(t, StatusLoading, c.State().Status)
		assert.Equal(t, 0.0, c.State().Duration)
	})

	t.Run("metadata resolves the duration", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, 600)
		assert.Equal(t, StatusReady, c.State().Status)
		assert.Equal(t, 600.0, c.State().Duration)
	})

	t.Run("invalid duration is treated as zero", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, math.NaN())
		assert.Equal(t, 0.0, c.State().Duration)
	})

	t.Run("load failure marks source missing", func(t *testing.T) {
		el := newFakeElement()
		el.loadErr = errors.New("unsupported codec")
		c := newInlineController(el)
		c.Load(lessonA)
		assert.Equal(t, StatusMissingSource, c.State().Status)
	})

	t.Run("missing source makes every command a no-op", func(t *testing.T) {
		el := newFakeElement()
		c := newInlineController(el)
		c.Load(lessonC)

		c.Play()
		c.Seek(30)
		c.SetVolume(0.2)
		c.ToggleMute()
		c.SetSpeed(2)

		s := c.State()
		assert.Equal(t, StatusMissingSource, s.Status)
		assert.False(t, s.IsPlaying)
		assert.Equal(t, 0.0, s.CurrentTime)
		assert.Equal(t, 1.0, s.Volume)
		assert.Equal(t, 1.0, s.PlaybackSpeed)
		assert.Empty(t, el.calls)
		assert.Zero(t, el.listenerCount())
	})
}

func TestSwitchingLessonResetsBeforeAttach(t *testing.T) {
	el := newFakeElement()
	c := readyController(t, el, 600)
	c.Play()
	el.emit(MediaEvent{Type: MediaTimeUpdate, Value: 550})
	require.Equal(t, 550.0, c.State().CurrentTime)
	require.True(t, c.State().IsPlaying)

	var atAttach State
	el.onLoad = func() { atAttach = c.State() }
	c.Load(lessonB)

	assert.Equal(t, 0.0, atAttach.CurrentTime)
	assert.False(t, atAttach.IsPlaying)
	assert.Equal(t, "b", atAttach.LessonID)

	s := c.State()
	assert.Equal(t, 0.0, s.CurrentTime)
	assert.Equal(t, 0.0, s.Duration)
	assert.False(t, s.IsPlaying)
	assert.Equal(t, SourceInline, s.Source.Kind)
	assert.Equal(t, 1, el.listenerCount())
}

func TestEventsFromDetachedSourceAreDropped(t *testing.T) {
	el := newFakeElement()
	loop := newQueueLoop()
	c := NewController(Options{Element: el, Runner: InlineRunner{}, Loop: loop})

	c.Load(lessonA)
	el.emit(MediaEvent{Type: MediaLoadedMetadata, Value: 600})
	el.emit(MediaEvent{Type: MediaTimeUpdate, Value: 300})

	// both events are queued when the lesson changes
	c.Load(lessonB)
	loop.runNext(t)
	loop.runNext(t)

	s := c.State()
	assert.Equal(t, "b", s.LessonID)
	assert.Equal(t, 0.0, s.Duration)
	assert.Equal(t, 0.0, s.CurrentTime)
	assert.Equal(t, StatusLoading, s.Status)
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name   string
		target float64
		want   float64
	}{
		{name: "negative clamps to start", target: -5, want: 0},
		{name: "start", target: 0, want: 0},
		{name: "middle", target: 300, want: 300},
		{name: "end", target: 600, want: 600},
		{name: "past end clamps to duration", target: 601, want: 600},
		{name: "far past end", target: 1e9, want: 600},
		{name: "not a number", target: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := newFakeElement()
			c := readyController(t, el, 600)
			c.Seek(tt.target)
			assert.Equal(t, tt.want, c.State().CurrentTime)
			require.NotEmpty(t, el.seeks)
			assert.Equal(t, tt.want, el.seeks[len(el.seeks)-1])
		})
	}

	t.Run("before metadata every seek lands on zero", func(t *testing.T) {
		el := newFakeElement()
		c := newInlineController(el)
		c.Load(lessonA)
		c.Seek(30)
		assert.Equal(t, 0.0, c.State().CurrentTime)
	})
}

func TestSkipMatchesSeek(t *testing.T) {
	for _, delta := range []float64{-1000, -10, -1, 0, 1, 10, 1000} {
		skipped := readyController(t, newFakeElement(), 600)
		sought := readyController(t, newFakeElement(), 600)
		skipped.Seek(42)
		sought.Seek(42)

		skipped.Skip(delta)
		sought.Seek(42 + delta)
		assert.Equal(t, sought.State().CurrentTime, skipped.State().CurrentTime, "delta %v", delta)
	}
}

func TestVolume(t *testing.T) {
	t.Run("clamped into range", func(t *testing.T) {
		c := readyController(t, newFakeElement(), 600)
		c.SetVolume(1.7)
		assert.Equal(t, 1.0, c.State().Volume)
		assert.False(t, c.State().IsMuted)

		c.SetVolume(-1)
		assert.Equal(t, 0.0, c.State().Volume)
		assert.True(t, c.State().IsMuted)
	})

	t.Run("zero volume counts as muted", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, 600)
		c.SetVolume(0)
		assert.True(t, c.State().IsMuted)
		assert.True(t, el.muted)
	})

	t.Run("toggle mute restores the previous level", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, 600)
		c.SetVolume(0.7)

		c.ToggleMute()
		assert.True(t, c.State().IsMuted)
		assert.Equal(t, 0.0, c.State().Volume)
		assert.Equal(t, VolumeMuted, c.State().Icon())

		c.ToggleMute()
		assert.False(t, c.State().IsMuted)
		assert.Equal(t, 0.7, c.State().Volume)
		assert.False(t, el.muted)
		assert.Equal(t, 0.7, el.volume)
	})

	t.Run("unmuting after dragging to zero restores the last audible level", func(t *testing.T) {
		c := readyController(t, newFakeElement(), 600)
		c.SetVolume(0.3)
		c.SetVolume(0)
		c.ToggleMute()
		assert.Equal(t, 0.3, c.State().Volume)
	})

	t.Run("audible volume survives muting", func(t *testing.T) {
		c := readyController(t, newFakeElement(), 600)
		c.SetVolume(0.4)
		assert.Equal(t, 0.4, c.AudibleVolume())

		c.ToggleMute()
		assert.Equal(t, 0.0, c.State().Volume)
		assert.Equal(t, 0.4, c.AudibleVolume())

		c.ToggleMute()
		c.SetVolume(0)
		assert.Equal(t, 0.4, c.AudibleVolume())
	})
}

func TestVolumeIcon(t *testing.T) {
	tests := []struct {
		volume float64
		muted  bool
		want   VolumeIcon
	}{
		{volume: 0, want: VolumeMuted},
		{volume: 0.8, muted: true, want: VolumeMuted},
		{volume: 0.1, want: VolumeLow},
		{volume: 0.49, want: VolumeLow},
		{volume: 0.5, want: VolumeHigh},
		{volume: 1, want: VolumeHigh},
	}
	for _, tt := range tests {
		s := State{Volume: tt.volume, IsMuted: tt.muted}
		assert.Equal(t, tt.want, s.Icon(), "volume %v muted %v", tt.volume, tt.muted)
	}
}

func TestSetSpeed(t *testing.T) {
	el := newFakeElement()
	c := readyController(t, el, 600)

	c.SetSpeed(1.5)
	assert.Equal(t, 1.5, c.State().PlaybackSpeed)
	assert.Equal(t, 1.5, el.rate)

	c.SetSpeed(3)
	assert.Equal(t, 1.5, c.State().PlaybackSpeed)
	assert.Equal(t, 1.5, el.rate)
}

func TestPlayPause(t *testing.T) {
	t.Run("toggle flips playing", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, 600)

		c.Toggle()
		assert.True(t, c.State().IsPlaying)
		c.Toggle()
		assert.False(t, c.State().IsPlaying)
		assert.Equal(t, 1, el.count("play"))
		assert.Equal(t, 1, el.count("pause"))
	})

	t.Run("rejected play reverts", func(t *testing.T) {
		el := newFakeElement()
		el.playErr = errors.New("autoplay blocked")
		c := readyController(t, el, 600)

		c.Play()
		assert.False(t, c.State().IsPlaying)
	})

	t.Run("native events update state when idle", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, 600)

		el.emit(MediaEvent{Type: MediaPlay})
		assert.True(t, c.State().IsPlaying)
		el.emit(MediaEvent{Type: MediaPause})
		assert.False(t, c.State().IsPlaying)
	})

	t.Run("ended pins the position to the duration", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, 600)
		c.Play()
		el.emit(MediaEvent{Type: MediaTimeUpdate, Value: 598})
		el.emit(MediaEvent{Type: MediaEnded})

		s := c.State()
		assert.False(t, s.IsPlaying)
		assert.True(t, s.Ended)
		assert.Equal(t, 600.0, s.CurrentTime)
	})

	t.Run("play after end restarts from the beginning", func(t *testing.T) {
		el := newFakeElement()
		c := readyController(t, el, 600)
		c.Play()
		el.emit(MediaEvent{Type: MediaEnded})

		c.Play()
		s := c.State()
		assert.True(t, s.IsPlaying)
		assert.False(t, s.Ended)
		assert.Equal(t, 0.0, s.CurrentTime)
		assert.Equal(t, []float64{0}, el.seeks)
	})
}

func TestPlaybackReconciliation(t *testing.T) {
	setup := func(t *testing.T) (*Controller, *fakeElement, *deferredRunner) {
		el := newFakeElement()
		runner := &deferredRunner{}
		c := NewController(Options{Element: el, Runner: runner})
		c.Load(lessonA)
		runner.flush()
		el.emit(MediaEvent{Type: MediaLoadedMetadata, Value: 600})
		return c, el, runner
	}

	t.Run("latest command wins over a late failure", func(t *testing.T) {
		c, _, runner := setup(t)
		c.Play()
		c.Pause()
		require.Len(t, runner.pending, 2)

		runner.complete(1, nil)
		runner.complete(0, errors.New("interrupted by pause"))
		assert.False(t, c.State().IsPlaying)
	})

	t.Run("latest command wins when completions arrive in order", func(t *testing.T) {
		c, _, runner := setup(t)
		c.Pause()
		c.Play()
		runner.flush()
		assert.True(t, c.State().IsPlaying)
	})

	t.Run("native event does not override an in-flight command", func(t *testing.T) {
		c, el, runner := setup(t)
		c.Play()
		el.emit(MediaEvent{Type: MediaPause})
		assert.True(t, c.State().IsPlaying)

		runner.flush()
		assert.True(t, c.State().IsPlaying)
	})

	t.Run("failure reverts to the last confirmed state", func(t *testing.T) {
		c, el, runner := setup(t)
		c.Play()
		runner.flush()
		el.emit(MediaEvent{Type: MediaPlay})

		c.Pause()
		runner.complete(0, errors.New("element detached"))
		assert.True(t, c.State().IsPlaying)
	})

	t.Run("completion after a lesson switch is ignored", func(t *testing.T) {
		c, _, runner := setup(t)
		c.Play()
		c.Load(lessonB)
		runner.complete(0, errors.New("aborted"))
		assert.False(t, c.State().IsPlaying)
		assert.Equal(t, "b", c.State().LessonID)
	})
}

func TestOnChange(t *testing.T) {
	el := newFakeElement()
	c := newInlineController(el)

	var transitions [][2]State
	c.OnChange = func(prev, next State) {
		transitions = append(transitions, [2]State{prev, next})
	}
	c.Load(lessonA)
	require.NotEmpty(t, transitions)

	last := transitions[len(transitions)-1][1]
	assert.Equal(t, c.State(), last)
	for _, tr := range transitions {
		assert.NotEqual(t, tr[0], tr[1])
	}
}

func TestClose(t *testing.T) {
	el := newFakeElement()
	c := readyController(t, el, 600)
	c.Play()
	c.Close()

	assert.Zero(t, el.listenerCount())
	assert.Equal(t, 1, el.count("pause"))
	assert.False(t, c.State().IsPlaying)
}
