package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/internal/extract"
	"github.com/pdiddy/doc2md/pkg/types"
)

var capabilitiesCmd = &cobra.Command{
	Use:   "capabilities",
	Short: "Show which document formats can be extracted",
	RunE: func(cmd *cobra.Command, args []string) error {
		host, hostErr := detectHost()
		caps := extract.DetectCapabilities(host, hostErr)

		out := cmd.OutOrStdout()
		for _, f := range types.AllFormats {
			state := "available"
			if !caps.Supports(f) {
				state = "unavailable"
			}
			fmt.Fprintf(out, "%-12s %-5s %s\n", f, f.Ext(), state)
		}
		if hostErr != nil {
			fmt.Fprintf(out, "\n%v\n", hostErr)
		} else {
			fmt.Fprintf(out, "\nlegacy host: %s\n", caps.LegacyHost)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(capabilitiesCmd)
}
