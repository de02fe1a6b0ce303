package main

import (
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HerbHall/procinfo/internal/collector"
	"github.com/HerbHall/procinfo/internal/procinfo"
	"github.com/HerbHall/procinfo/pkg/models"
)

func newCollectCmd(a *app) *cobra.Command {
	var (
		pid     int32
		format  string
		timeout time.Duration
		cats    map[models.Category]*bool
	)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect metrics for a process and print them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := procinfo.LoadSettings(a.cfg)
			if err != nil {
				return err
			}
			opts := settings.CollectorOptions()
			if cmd.Flags().Changed("timeout") {
				opts = append(opts, collector.WithTimeout(timeout))
			}
			c := collector.New(a.logger.Named("collector"), opts...)

			result, err := c.Collect(cmd.Context(), collector.Request{PID: pid, Categories: categorySet(cats)})
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), result, format)
		},
	}
	cmd.Flags().Int32Var(&pid, "pid", 0, "target process id (default: this process)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "bound on the worker's lifetime")
	cats = categoryFlags(cmd.Flags())
	return cmd
}

func writeResult(w io.Writer, result *models.Result, format string) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var tree map[string]any
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("re-decode result: %w", err)
		}
		out, err := yaml.Marshal(tree)
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
