package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/facetrack/internal/config"
	"github.com/ayusman/facetrack/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "facetrack",
	Short: "Track faces from a camera and drive an on-screen overlay",
	Long: `facetrack reads frames from a camera, detects faces with smile and
blink classification, and maps each face from sensor coordinates onto a
letterboxed preview surface. The overlay is served over HTTP and websocket
and mirrored in the system tray.`,
	SilenceUsage: true,
	RunE:         runRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "facetrack.yaml", "Path to the YAML config file")
}

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:    cfg.Log.Level,
		File:     cfg.Log.File,
		NoColors: cfg.Log.NoColors,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
