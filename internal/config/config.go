package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	LMS      LMSConfig      `yaml:"lms,omitempty"`
	Player   PlayerConfig   `yaml:"player,omitempty"`
	Controls ControlsConfig `yaml:"controls,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// LMSConfig points at the learning platform's GraphQL API
type LMSConfig struct {
	Endpoint       string `yaml:"endpoint,omitempty" validate:"required,url"`
	Token          string `yaml:"token,omitempty"`
	CourseID       string `yaml:"course_id,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" validate:"gt=0"`
}

// Timeout is the per-request deadline for API calls
func (c LMSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PlayerConfig contains media player settings
type PlayerConfig struct {
	Type string `yaml:"type,omitempty" validate:"oneof=mpv"`
	Path string `yaml:"path,omitempty" validate:"required"`
	Args string `yaml:"args,omitempty"`
	// SocketPath overrides the generated IPC socket/pipe path
	SocketPath    string  `yaml:"socket_path,omitempty"`
	InitialVolume float64 `yaml:"initial_volume,omitempty" validate:"gte=0,lte=1"`
	DefaultSpeed  float64 `yaml:"default_speed,omitempty" validate:"gt=0,lte=2"`
}

// ControlsConfig tunes the on-screen controls
type ControlsConfig struct {
	HideAfterMs int `yaml:"hide_after_ms,omitempty" validate:"gt=0"`
	SkipSeconds int `yaml:"skip_seconds,omitempty" validate:"gt=0"`
}

// HideAfter is the idle window before controls hide during playback
func (c ControlsConfig) HideAfter() time.Duration {
	return time.Duration(c.HideAfterMs) * time.Millisecond
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty" validate:"oneof=trace debug info warn error"`
	FilePath string `yaml:"file_path,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
// 6. Validate the result
//
// Zero values in the file are treated as unset by the merge, so e.g. initial_volume: 0 keeps the default.
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	if err := applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	// 6. Reject values the player cannot work with
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk.  Only what is in
// the file is rewritten, so defaults and env overrides never leak into it.
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	updateFn(cfg)

	return save(cfg, configPath)
}

// GetConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(configPathEnvVar); configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, appDirName, "config.yaml"), nil
}

const appDirName = "lectern"

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		LMS: LMSConfig{
			Endpoint:       "http://localhost:8080/graphql",
			TimeoutSeconds: 15,
		},
		Player: PlayerConfig{
			Type:          "mpv",
			Path:          "mpv",
			InitialVolume: 1,
			DefaultSpeed:  1,
		},
		Controls: ControlsConfig{
			HideAfterMs: 3000,
			SkipSeconds: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	const fileName = appDirName + ".log"
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fileName)
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\lectern\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, appDirName, "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", appDirName, "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/lectern
		basePath = filepath.Join(homedir, "Library", "Logs", appDirName)
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, appDirName, "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", appDirName, "logs")
		}
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return filepath.Join(".", fileName)
	}
	return filepath.Join(basePath, fileName)
}
