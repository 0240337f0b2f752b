package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()

	tmpConfigPath := filepath.Join(t.TempDir(), "config.yaml")
	setEnv(t, configPathEnvVar, tmpConfigPath)

	t.Cleanup(func() {
		cleanupEnvVars(t)
	})

	return tmpConfigPath
}

// TestConfigIntegration tests the config package with actual file operations
// This test uses a temporary directory to avoid interfering with real user configs
func TestConfigIntegration(t *testing.T) {
	t.Run("LoadDefaultConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		config := loadConfig(t)

		assert.Equal(t, "mpv", config.Player.Type)
		assert.Equal(t, 1.0, config.Player.InitialVolume)
		assert.Equal(t, 1.0, config.Player.DefaultSpeed)
		assert.Equal(t, 3*time.Second, config.Controls.HideAfter())
		assert.Equal(t, 10, config.Controls.SkipSeconds)
		assert.Equal(t, 15*time.Second, config.LMS.Timeout())
		assert.Equal(t, "info", config.Logging.Level)
		assert.NotEmpty(t, config.Logging.FilePath)

		_, err := os.Stat(tmpConfigPath)
		require.NoError(t, err, "config file was not created")

		// dynamic defaults are never written to disk
		savedConfig, err := loadFromDisk(tmpConfigPath)
		require.NoError(t, err)
		assert.Empty(t, savedConfig.Logging.FilePath)
	})

	t.Run("SaveAndLoadConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		customConfig := &Config{
			LMS: LMSConfig{
				Endpoint:       "https://lms.example.com/graphql",
				Token:          "test-token",
				CourseID:       "course-42",
				TimeoutSeconds: 30,
			},
			Player: PlayerConfig{
				Type:          "mpv",
				Path:          "/usr/local/bin/mpv",
				Args:          "--hwdec=auto",
				InitialVolume: 0.4,
				DefaultSpeed:  1.5,
			},
			Controls: ControlsConfig{
				HideAfterMs: 5000,
				SkipSeconds: 5,
			},
			Logging: LoggingConfig{
				Level:    "error",
				FilePath: "/var/log/lectern.log",
			},
		}

		saveConfig(t, customConfig, tmpConfigPath)
		loadedConfig := loadConfig(t)

		assert.Equal(t, "https://lms.example.com/graphql", loadedConfig.LMS.Endpoint)
		assert.Equal(t, "test-token", loadedConfig.LMS.Token)
		assert.Equal(t, "course-42", loadedConfig.LMS.CourseID)
		assert.Equal(t, 30*time.Second, loadedConfig.LMS.Timeout())
		assert.Equal(t, "/usr/local/bin/mpv", loadedConfig.Player.Path)
		assert.Equal(t, "--hwdec=auto", loadedConfig.Player.Args)
		assert.Equal(t, 0.4, loadedConfig.Player.InitialVolume)
		assert.Equal(t, 1.5, loadedConfig.Player.DefaultSpeed)
		assert.Equal(t, 5*time.Second, loadedConfig.Controls.HideAfter())
		assert.Equal(t, 5, loadedConfig.Controls.SkipSeconds)
		assert.Equal(t, "error", loadedConfig.Logging.Level)
		assert.Equal(t, "/var/log/lectern.log", loadedConfig.Logging.FilePath)
	})

	t.Run("PartialFileKeepsDefaults", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		require.NoError(t, os.WriteFile(tmpConfigPath, []byte("lms:\n  course_id: abc\n"), 0600))

		config := loadConfig(t)
		assert.Equal(t, "abc", config.LMS.CourseID)
		assert.Equal(t, "mpv", config.Player.Path)
		assert.Equal(t, 3000, config.Controls.HideAfterMs)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		require.NoError(t, os.WriteFile(tmpConfigPath, []byte("invalid: yaml: ["), 0600))

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("ValidationRejectsOutOfRangeValues", func(t *testing.T) {
		tests := []struct {
			name string
			yaml string
		}{
			{name: "volume above one", yaml: "player:\n  initial_volume: 1.5\n"},
			{name: "unknown player", yaml: "player:\n  type: vlc\n"},
			{name: "unknown log level", yaml: "logging:\n  level: loud\n"},
			{name: "endpoint not a url", yaml: "lms:\n  endpoint: not a url\n"},
			{name: "negative skip", yaml: "controls:\n  skip_seconds: -5\n"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tmpConfigPath := setupTestConfig(t)
				require.NoError(t, os.WriteFile(tmpConfigPath, []byte(tt.yaml), 0600))

				_, err := Load()
				assert.ErrorContains(t, err, "invalid config")
			})
		}
	})

	t.Run("EnvironmentVariableOverrides", func(t *testing.T) {
		setupTestConfig(t)

		setEnv(t, "LECTERN_CONFIG_LMS_ENDPOINT", "https://env.example.com/graphql")
		setEnv(t, "LECTERN_CONFIG_LMS_TOKEN", "env-token")
		setEnv(t, "LECTERN_CONFIG_LMS_COURSE_ID", "env-course")
		setEnv(t, "LECTERN_CONFIG_LMS_TIMEOUT_SECONDS", "5")
		setEnv(t, "LECTERN_CONFIG_PLAYER_PATH", "/mpv")
		setEnv(t, "LECTERN_CONFIG_PLAYER_ARGS", "--no-border")
		setEnv(t, "LECTERN_CONFIG_PLAYER_SOCKET_PATH", "/tmp/lectern.sock")
		setEnv(t, "LECTERN_CONFIG_PLAYER_INITIAL_VOLUME", "0.25")
		setEnv(t, "LECTERN_CONFIG_PLAYER_DEFAULT_SPEED", "1.25")
		setEnv(t, "LECTERN_CONFIG_CONTROLS_HIDE_AFTER_MS", "1500")
		setEnv(t, "LECTERN_CONFIG_CONTROLS_SKIP_SECONDS", "30")
		setEnv(t, "LECTERN_CONFIG_LOGGING_LEVEL", "warn")
		setEnv(t, "LECTERN_CONFIG_LOGGING_FILE_PATH", "/lectern.log")

		config := loadConfig(t)

		assert.Equal(t, "https://env.example.com/graphql", config.LMS.Endpoint)
		assert.Equal(t, "env-token", config.LMS.Token)
		assert.Equal(t, "env-course", config.LMS.CourseID)
		assert.Equal(t, 5, config.LMS.TimeoutSeconds)
		assert.Equal(t, "/mpv", config.Player.Path)
		assert.Equal(t, "--no-border", config.Player.Args)
		assert.Equal(t, "/tmp/lectern.sock", config.Player.SocketPath)
		assert.Equal(t, 0.25, config.Player.InitialVolume)
		assert.Equal(t, 1.25, config.Player.DefaultSpeed)
		assert.Equal(t, 1500*time.Millisecond, config.Controls.HideAfter())
		assert.Equal(t, 30, config.Controls.SkipSeconds)
		assert.Equal(t, "warn", config.Logging.Level)
		assert.Equal(t, "/lectern.log", config.Logging.FilePath)

		// env overrides must not have been persisted
		unsetEnv(t, "LECTERN_CONFIG_LOGGING_LEVEL")
		config = loadConfig(t)
		assert.Equal(t, "info", config.Logging.Level)
	})

	t.Run("UnparseableEnvironmentVariable", func(t *testing.T) {
		setupTestConfig(t)
		setEnv(t, "LECTERN_CONFIG_PLAYER_INITIAL_VOLUME", "loud")

		_, err := Load()
		assert.ErrorContains(t, err, "LECTERN_CONFIG_PLAYER_INITIAL_VOLUME")
	})

	t.Run("ModifyConfig", func(t *testing.T) {
		setupTestConfig(t)
		config := loadConfig(t)
		assert.Equal(t, 1.0, config.Player.DefaultSpeed)

		err := UpdateConfig(func(config *Config) {
			config.Player.DefaultSpeed = 1.5
			config.Player.InitialVolume = 0.6
		})
		require.NoError(t, err)

		config = loadConfig(t)
		assert.Equal(t, 1.5, config.Player.DefaultSpeed)
		assert.Equal(t, 0.6, config.Player.InitialVolume)
	})
}

func TestEnvVarHelpListsEveryVariable(t *testing.T) {
	help := strings.Join(EnvVarHelp(), "\n")
	for _, v := range supportedEnvVars {
		assert.Contains(t, help, v.name)
		assert.True(t, strings.HasPrefix(v.name, envPrefix), v.name)
	}
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("Failed to set environment variable: %v", err)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("Failed to unset environment variable: %v", err)
	}
}

func saveConfig(t *testing.T, config *Config, configPath string) {
	t.Helper()
	if err := save(config, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
}

func loadConfig(t *testing.T) *Config {
	t.Helper()
	config, err := Load()
	if err != nil {
		t.Fatalf("Loading of config failed: %v", err)
	}
	return config
}

// Removes any env vars with the LECTERN_CONFIG prefix to ensure test isolation
func cleanupEnvVars(t *testing.T) {
	t.Helper()

	for _, envVar := range os.Environ() {
		if key, _, _ := strings.Cut(envVar, "="); strings.HasPrefix(key, envPrefix) {
			unsetEnv(t, key)
		}
	}
}
