package main

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func init() {
	activityCmd := &cobra.Command{Use: "activity", Short: "Activity operations"}

	var user, period string
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the reconstructed activity summary of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runActivitySummary(cmd.Context(), cfg, cliLogger(), user, period, os.Stdout)
		},
	}
	summaryCmd.Flags().StringVarP(&user, "user", "u", "", "User ID (required)")
	summaryCmd.Flags().StringVarP(&period, "period", "p", string(model.PeriodDay), "Look-back period: 24h, 7d or 30d")
	_ = summaryCmd.MarkFlagRequired("user")
	activityCmd.AddCommand(summaryCmd)

	rootCmd.AddCommand(activityCmd)
}

func runActivitySummary(ctx context.Context, cfg *config.Config, log zerolog.Logger, user, period string, out io.Writer) error {
	p, err := model.ParsePeriod(period)
	if err != nil {
		return err
	}
	core, closeFn, err := openCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()
	sum, err := core.Activity.Summary(ctx, user, p)
	if err != nil {
		return err
	}
	return printJSON(out, sum)
}
