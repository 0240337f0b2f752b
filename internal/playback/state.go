package playback

import "fmt"

// Status describes whether the controller has something it can play
type Status int

const (
	// StatusEmpty indicates no lesson has been selected yet
	StatusEmpty Status = iota
	// StatusLoading indicates a source is attached but its metadata has not resolved
	StatusLoading
	// StatusReady indicates metadata resolved and the duration is known
	StatusReady
	// StatusMissingSource indicates the active lesson has no playable source.  Every command is a no-op.
	StatusMissingSource
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "Empty"
	case StatusLoading:
		return "Loading"
	case StatusReady:
		return "Ready"
	case StatusMissingSource:
		return "MissingSource"
	default:
		return "Unknown"
	}
}

// Speeds is the fixed set of supported playback multipliers
var Speeds = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// FormatSpeed renders a multiplier the way the speed menu labels it, e.g. "1.25x"
func FormatSpeed(speed float64) string {
	return fmt.Sprintf("%gx", speed)
}

// State is a snapshot of the player.  It is produced by the controller and never written by the view layer.
type State struct {
	LessonID        string
	LessonTitle     string
	Status          Status
	Source          Source
	CurrentTime     float64
	Duration        float64
	IsPlaying       bool
	Ended           bool
	Volume          float64
	IsMuted         bool
	PlaybackSpeed   float64
	IsFullscreen    bool
	ControlsVisible bool
	SpeedMenuOpen   bool
}

// Progress returns the played fraction in [0, 1]
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return s.CurrentTime / s.Duration
}

// EffectiveVolume is the level actually heard
func (s State) EffectiveVolume() float64 {
	if s.IsMuted {
		return 0
	}
	return s.Volume
}

// VolumeIcon is a cosmetic tier used when rendering the volume control
type VolumeIcon int

const (
	VolumeMuted VolumeIcon = iota
	VolumeLow
	VolumeHigh
)

const lowVolumeThreshold = 0.5

// Icon maps the current volume to its display tier
func (s State) Icon() VolumeIcon {
	switch v := s.EffectiveVolume(); {
	case v == 0:
		return VolumeMuted
	case v < lowVolumeThreshold:
		return VolumeLow
	default:
		return VolumeHigh
	}
}
