package main

import (
	"fmt"
	"os"

	"github.com/PizzaHomicide/lectern/internal/config"
	"github.com/PizzaHomicide/lectern/internal/log"
	"github.com/PizzaHomicide/lectern/internal/ui/tui"
	"github.com/PizzaHomicide/lectern/internal/version"
	"github.com/spf13/pflag"
)

func main() {
	showVersion := pflag.BoolP("version", "v", false, "Print version information and exit")
	showEnv := pflag.Bool("env", false, "List the environment variables that override the config file and exit")
	showConfigPath := pflag.Bool("config-path", false, "Print the config file location and exit")
	pflag.Parse()

	switch {
	case *showVersion:
		fmt.Println(version.GetVersionInfo())
		return
	case *showEnv:
		for _, line := range config.EnvVarHelp() {
			fmt.Println(line)
		}
		return
	case *showConfigPath:
		path, err := config.GetConfigPath()
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to determine config path: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialise logger
	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}

	// Set the default global logger
	log.SetDefaultLogger(logger)

	log.Info("Starting up Lectern", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	if err := tui.Run(cfg); err != nil {
		log.Error("Unhandled error while running TUI", "error", err)
		_, _ = fmt.Fprintf(os.Stderr, "lectern: %v\n", err)
		logger.Close()
		os.Exit(1)
	}

	log.Info("Lectern shutting down.  Goodbye!")
	logger.Close()
}
