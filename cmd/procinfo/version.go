package main

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/HerbHall/procinfo/internal/capability"
	"github.com/HerbHall/procinfo/internal/version"
)

func newVersionCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version and platform capabilities",
		Args:  cobra.NoArgs,
		// Skip config loading for version output.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := capability.Probe()
			out := cmd.OutOrStdout()
			switch format {
			case "text":
				fmt.Fprintln(out, version.Info())
				fmt.Fprintf(out, "supports_io_counters=%t has_elevated_permission=%t\n",
					flags.SupportsIOCounters, flags.HasElevatedPermission)
				return nil
			case "json":
				info := version.Map()
				info["supports_io_counters"] = strconv.FormatBool(flags.SupportsIOCounters)
				info["has_elevated_permission"] = strconv.FormatBool(flags.HasElevatedPermission)
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "output format: text or json")
	return cmd
}
