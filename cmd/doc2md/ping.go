package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc2md/internal/formatter"
)

const defaultPingPrompt = "Reply with a one-sentence greeting."

var pingCmd = &cobra.Command{
	Use:   "ping [prompt]",
	Short: "Send a short prompt to Gemini to check the key and model",
	Args:  cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		bindAIFlags(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		text := defaultPingPrompt
		if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
			text = args[0]
		}

		g, err := formatter.NewGemini(aiConfig(), logger)
		if err != nil {
			return err
		}
		reply, err := g.Format(cmd.Context(), text)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	addAIFlags(pingCmd)
	rootCmd.AddCommand(pingCmd)
}
