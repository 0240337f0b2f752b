package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	envPrefix        = "LECTERN_CONFIG_"
	configPathEnvVar = envPrefix + "PATH"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, s string) error {
		*field(c) = s
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

func setFloat(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return err
		}
		*field(c) = v
		return nil
	}
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  It is read before the config is loaded.
		name:  configPathEnvVar,
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(*Config, string) error { return nil },
	},
	{
		name:  envPrefix + "LMS_ENDPOINT",
		desc:  "Sets the LMS GraphQL endpoint.  Default: http://localhost:8080/graphql",
		apply: setString(func(c *Config) *string { return &c.LMS.Endpoint }),
	},
	{
		name:  envPrefix + "LMS_TOKEN",
		desc:  "Sets the LMS bearer token.  Default: None",
		apply: setString(func(c *Config) *string { return &c.LMS.Token }),
	},
	{
		name:  envPrefix + "LMS_COURSE_ID",
		desc:  "Sets the course whose lessons are listed.  Default: None",
		apply: setString(func(c *Config) *string { return &c.LMS.CourseID }),
	},
	{
		name:  envPrefix + "LMS_TIMEOUT_SECONDS",
		desc:  "Sets the API request timeout in seconds.  Default: 15",
		apply: setInt(func(c *Config) *int { return &c.LMS.TimeoutSeconds }),
	},
	{
		name:  envPrefix + "PLAYER_TYPE",
		desc:  "Sets the video player type.  Only `mpv` is supported.  Default: mpv",
		apply: setString(func(c *Config) *string { return &c.Player.Type }),
	},
	{
		name:  envPrefix + "PLAYER_PATH",
		desc:  "Sets the path to the video player binary.  Default: mpv",
		apply: setString(func(c *Config) *string { return &c.Player.Path }),
	},
	{
		name:  envPrefix + "PLAYER_ARGS",
		desc:  "Sets extra video player arguments.  Default: None",
		apply: setString(func(c *Config) *string { return &c.Player.Args }),
	},
	{
		name:  envPrefix + "PLAYER_SOCKET_PATH",
		desc:  "Sets the IPC socket or pipe path.  Default: generated per session",
		apply: setString(func(c *Config) *string { return &c.Player.SocketPath }),
	},
	{
		name:  envPrefix + "PLAYER_INITIAL_VOLUME",
		desc:  "Sets the starting volume in [0, 1].  Default: 1",
		apply: setFloat(func(c *Config) *float64 { return &c.Player.InitialVolume }),
	},
	{
		name:  envPrefix + "PLAYER_DEFAULT_SPEED",
		desc:  "Sets the starting playback speed.  Default: 1",
		apply: setFloat(func(c *Config) *float64 { return &c.Player.DefaultSpeed }),
	},
	{
		name:  envPrefix + "CONTROLS_HIDE_AFTER_MS",
		desc:  "Sets how long controls stay visible without activity during playback.  Default: 3000",
		apply: setInt(func(c *Config) *int { return &c.Controls.HideAfterMs }),
	},
	{
		name:  envPrefix + "CONTROLS_SKIP_SECONDS",
		desc:  "Sets the skip distance of the arrow keys.  Default: 10",
		apply: setInt(func(c *Config) *int { return &c.Controls.SkipSeconds }),
	},
	{
		name:  envPrefix + "LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: setString(func(c *Config) *string { return &c.Logging.Level }),
	},
	{
		name:  envPrefix + "LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: setString(func(c *Config) *string { return &c.Logging.FilePath }),
	},
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		value := os.Getenv(envVar.name)
		if value == "" {
			continue
		}
		if err := envVar.apply(c, value); err != nil {
			return fmt.Errorf("invalid value for %s: %w", envVar.name, err)
		}
	}
	return nil
}

// EnvVarHelp lists the supported environment variables for the --help output
func EnvVarHelp() []string {
	lines := make([]string, 0, len(supportedEnvVars))
	for _, v := range supportedEnvVars {
		lines = append(lines, fmt.Sprintf("  %-36s %s", v.name, v.desc))
	}
	return lines
}
