/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/errs"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Analyze a URL for phishing indicators",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := deps.App.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		url := cmd.Flags().Args()[0]
		result, err := deps.Detection.AnalyzeWebsite(ctx, url)
		if err != nil {
			logging.Error(ctx, "website analysis failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "analyze website")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "url:       %s\n", url)
		fmt.Fprintf(out, "status:    %s\n", result.Verdict.Status)
		fmt.Fprintf(out, "risk:      %d\n", result.Verdict.RiskScore)
		if len(result.Verdict.Reasons) > 0 {
			fmt.Fprintf(out, "reasons:   %s\n", strings.Join(result.Verdict.Reasons, "; "))
		}
		if result.Verdict.Details != "" {
			fmt.Fprintf(out, "details:   %s\n", result.Verdict.Details)
		}
		if result.CacheHit {
			fmt.Fprintln(out, "verdict served from cache")
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
	rootCmd.AddCommand(scanCmd)
}
