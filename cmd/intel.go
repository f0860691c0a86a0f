/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"cyberguard/internal/bootstrap/logging"
	"cyberguard/internal/errs"
)

// intelCmd represents the intel command
var intelCmd = &cobra.Command{
	Use:   "intel",
	Short: "List recent honeypot intelligence, newest first",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := deps.App.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		events := deps.Detection.ListRecentIntel(ctx)
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "no honeypot events recorded")
			return nil
		}

		for _, event := range events {
			fmt.Fprintf(out, "%s  %-12s  %s\n", event.CreatedAt, event.ScamType, event.ID)
			if event.IncidentID != "" {
				fmt.Fprintf(out, "    incident: %s\n", event.IncidentID)
			}
			fmt.Fprintf(out, "    intel:    %s\n", event.Intel)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(intelCmd)
}
