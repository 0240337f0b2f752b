package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/playback"
	"github.com/PizzaHomicide/lectern/internal/player"
	"github.com/PizzaHomicide/lectern/internal/repository/lms"
	"github.com/PizzaHomicide/lectern/internal/service"
	"github.com/PizzaHomicide/lectern/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
)

const playerStartTimeout = 30 * time.Second

// programLoop posts callbacks onto the bubbletea event loop.  Send returns without delivering once the program has
// exited, so late timers and media events are dropped.
type programLoop struct {
	program *tea.Program
}

func (l *programLoop) Post(fn func()) {
	l.program.Send(models.DispatchMsg{Fn: fn})
}

func Run(cfg *config.Config) error {
	backend, err := player.CreateBackend(cfg.Player)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), playerStartTimeout)
	err = backend.Start(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("unable to start media player: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("Media player did not shut down cleanly", "error", err)
		}
	}()

	client, err := lms.NewClient(cfg.LMS.Endpoint, cfg.LMS.Token, cfg.LMS.Timeout())
	if err != nil {
		return err
	}
	lessons := service.NewLessonService(lms.NewLessonRepository(client), cfg.LMS.CourseID)

	loop := &programLoop{}
	lessonPlayer := playback.NewPlayer(playback.PlayerConfig{
		Element:       backend,
		Fullscreen:    backend,
		Loop:          loop,
		Clock:         clockwork.NewRealClock(),
		InitialVolume: cfg.Player.InitialVolume,
		InitialSpeed:  cfg.Player.DefaultSpeed,
		HideAfter:     cfg.Controls.HideAfter(),
		SkipSeconds:   float64(cfg.Controls.SkipSeconds),
	})
	lessonPlayer.OnChange = func(state playback.State) {
		log.Trace("Player state changed", "status", state.Status, "playing", state.IsPlaying, "time", state.CurrentTime)
	}

	p := tea.NewProgram(models.NewAppModel(models.Dependencies{
		Config:  cfg,
		Lessons: lessons,
		Player:  lessonPlayer,
	}), tea.WithAltScreen(), tea.WithMouseAllMotion())
	loop.program = p

	_, err = p.Run()
	saveSessionSettings(lessonPlayer.Controller.AudibleVolume(), lessonPlayer.State().PlaybackSpeed)
	return err
}

// saveSessionSettings remembers volume and speed for the next session.  The volume is the audible level, so quitting
// while muted does not store 0.
func saveSessionSettings(volume, speed float64) {
	err := config.UpdateConfig(func(conf *config.Config) {
		conf.Player.InitialVolume = volume
		conf.Player.DefaultSpeed = speed
	})
	if err != nil {
		log.Warn("Unable to save player settings", "error", err)
	}
}
