/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/errs"
)

// transcriptCmd represents the transcript command
var transcriptCmd = &cobra.Command{
	Use:   "transcript <file>",
	Short: "Analyze a call transcript for scam indicators",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := deps.App.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		path := cmd.Flags().Args()[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return errs.Wrapf(err, "read transcript file %q", path)
		}

		result, err := deps.Detection.AnalyzeTranscript(ctx, string(raw))
		if err != nil {
			logging.Error(ctx, "transcript analysis failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "analyze transcript")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "scam probability: %d\n", result.Verdict.ScamProbability)
		fmt.Fprintf(out, "is scam:          %t\n", result.Verdict.IsScam)
		if len(result.Verdict.Alerts) > 0 {
			fmt.Fprintf(out, "alerts:           %s\n", strings.Join(result.Verdict.Alerts, "; "))
		}
		if result.Verdict.Explanation != "" {
			fmt.Fprintf(out, "explanation:      %s\n", result.Verdict.Explanation)
		}
		if result.Incident != nil {
			if result.Persisted {
				fmt.Fprintf(out, "incident recorded: %s\n", result.Incident.ID)
			} else {
				fmt.Fprintln(out, "incident could not be recorded; verdict shown above is not stored")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(transcriptCmd)
}
