package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/edirooss/picam-panel/internal/config"
	"github.com/edirooss/picam-panel/internal/domain/streamconfig"
	"github.com/edirooss/picam-panel/internal/repo"
	"github.com/edirooss/picam-panel/internal/telemetry"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// --- config ------------------------------------------------------------------

func newConfigCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the panel's own settings",
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings (defaults, file and environment merged)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return renderSettings(cmd.OutOrStdout(), cfg, format)
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml|spew")

	cmd.AddCommand(show)
	return cmd
}

func renderSettings(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "spew":
		cs := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		cs.Fdump(w, cfg)
		return nil
	default:
		return fmt.Errorf("unknown format %q: want yaml or spew", format)
	}
}

// --- stream-config -----------------------------------------------------------

func newStreamConfigCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream-config",
		Short: "Read or change the persisted camera stream configuration",
	}

	var asJSON bool
	get := &cobra.Command{
		Use:   "get",
		Short: "Print the current stream configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			sc, err := repo.NewStreamConfigRepository(nil, cfg.Stream.ConfigPath).Load()
			if err != nil {
				return err
			}
			return renderStreamConfig(cmd.OutOrStdout(), sc, asJSON)
		},
	}
	get.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	set := &cobra.Command{
		Use:   "set key=value...",
		Short: "Merge-update fields; values are coerced to each field's type",
		Example: "  picam-panel stream-config set framerate=60 exposure=long\n" +
			"  picam-panel stream-config set rtsp_host=192.168.1.50",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			kv, err := parseAssignments(args)
			if err != nil {
				return err
			}
			sc, err := repo.NewStreamConfigRepository(nil, cfg.Stream.ConfigPath).Update(streamconfig.PatchFromStrings(kv))
			if err != nil {
				return err
			}
			return renderStreamConfig(cmd.OutOrStdout(), sc, false)
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

// parseAssignments turns "key=value" arguments into a map. Later keys win.
func parseAssignments(args []string) (map[string]string, error) {
	kv := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q: want key=value", a)
		}
		kv[k] = v
	}
	return kv, nil
}

func renderStreamConfig(w io.Writer, sc streamconfig.StreamConfig, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sc)
	}
	for _, f := range sc.Values() {
		if _, err := fmt.Fprintf(w, "%s=%s\n", f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

// --- stats -------------------------------------------------------------------

func newStatsCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Take one telemetry sample and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := buildLogger(cfg.Log.Level)
			defer log.Sync()

			snap := telemetry.NewSampler(log, telemetry.Options{
				Window:      cfg.Telemetry.SampleWindow,
				ThermalPath: cfg.Telemetry.ThermalPath,
			}).Sample(cmd.Context())
			return renderSnapshot(cmd.OutOrStdout(), snap, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func renderSnapshot(w io.Writer, s telemetry.Snapshot, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(s)
	}
	fmt.Fprintf(w, "cpu          %5.1f%%\n", s.CPUTotalPercent)
	for i, p := range s.CPUCorePercent {
		fmt.Fprintf(w, "  cpu%-2d      %5.1f%%\n", i, p)
	}
	fmt.Fprintf(w, "ram          %5.1f%%\n", s.RAMPercent)
	_, err := fmt.Fprintf(w, "temperature  %5.1f C\n", s.TemperatureCelsius)
	return err
}
