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

// incidentsCmd represents the incidents command
var incidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "List recorded incidents, newest first",
	RunE: withApp(func(cmd *cobra.Command, deps appDeps) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		if err := deps.App.InitSchema(ctx); err != nil {
			return errs.Wrap(err, "initialize schema")
		}

		incidents := deps.Detection.ListIncidents(ctx)
		out := cmd.OutOrStdout()
		if len(incidents) == 0 {
			fmt.Fprintln(out, "no incidents recorded")
			return nil
		}

		for _, incident := range incidents {
			fmt.Fprintf(
				out,
				"%s  %-8s  risk=%-3d  %s  [%s]  %s\n",
				incident.CreatedAt,
				incident.Kind,
				incident.RiskScore,
				incident.ID,
				strings.Join(incident.Patterns, ", "),
				incident.Target,
			)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(incidentsCmd)
}
