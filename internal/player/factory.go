package player

import (
	"fmt"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
)

// CreateBackend creates the media backend selected by the configuration
func CreateBackend(cfg config.PlayerConfig) (Backend, error) {
	log.Info("Creating media backend", "type", cfg.Type)

	switch cfg.Type {
	case "mpv", "":
		return NewMPV(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported player type %q", cfg.Type)
	}
}
