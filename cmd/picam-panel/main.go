package main

import (
	"fmt"
	"os"

	"github.com/edirooss/picam-panel/internal/config"
	"github.com/edirooss/picam-panel/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "picam-panel",
		Short:        "Control panel for a camera streaming unit",
		Long:         "picam-panel serves a local web panel to configure, start and stop the camera\nstream, reboot the device and watch live CPU, memory and temperature readings.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default: picam-panel.yaml in . or /etc/picam-panel)")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "picam-panel %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		},
	}

	root.AddCommand(
		newServeCmd(loadConfig),
		versionCmd,
		newConfigCmd(loadConfig),
		newStreamConfigCmd(loadConfig),
		newStatsCmd(loadConfig),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// helpers

func buildLogger(level string) *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(lvl)
	return zap.Must(logConfig.Build())
}

// buildController picks the process-control backend.
// The returned closer releases backend resources and is never nil.
func buildController(log *zap.Logger, cfg *config.Config) (service.ProcessController, func() error, error) {
	switch cfg.Process.Backend {
	case "dbus":
		m, err := service.ConnectSystemdManager(log)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to systemd: %w", err)
		}
		return m, m.Close, nil
	default:
		return service.NewSystemctlController(log, service.ExecRunner), func() error { return nil }, nil
	}
}
