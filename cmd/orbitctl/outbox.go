package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/factory"
	"github.com/orbitsound/orbitsound-sync/internal/model"
	"github.com/orbitsound/orbitsound-sync/internal/outboxworker"
)

func init() {
	outboxCmd := &cobra.Command{Use: "outbox", Short: "Outbox operations"}

	var user string
	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pending outbox entries in delivery order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runOutboxList(cmd.Context(), cfg, cliLogger(), user, limit, os.Stdout)
		},
	}
	listCmd.Flags().StringVarP(&user, "user", "u", "", "Only entries of this user")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries to print (0 for all)")
	outboxCmd.AddCommand(listCmd)

	drainCmd := &cobra.Command{
		Use:   "drain",
		Short: "Deliver pending entries to the configured remote once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := cliLogger()
			rem, closer, err := factory.NewDeliverer(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()
			return runOutboxDrain(cmd.Context(), cfg, log, rem, os.Stdout)
		},
	}
	outboxCmd.AddCommand(drainCmd)

	rootCmd.AddCommand(outboxCmd)
}

func runOutboxList(ctx context.Context, cfg *config.Config, log zerolog.Logger, user string, limit int, out io.Writer) error {
	core, closeFn, err := openCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()
	entries, err := core.Queue.ListUnsynced(ctx, user, limit)
	if err != nil {
		return err
	}
	pending, err := core.Queue.PendingCount(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]interface{}{"entries": entries, "pending": pending})
}

func runOutboxDrain(ctx context.Context, cfg *config.Config, log zerolog.Logger, d deliver.Deliverer, out io.Writer) error {
	core, closeFn, err := openCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()
	w := outboxworker.NewWorker(cfg, core.Store.Outbox(), d, log)
	w.OnSynced(model.OpUpsertInterests, core.Interests.ConfirmDelivery)
	st, err := w.Drain(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "delivered=%d failed=%d skipped=%d\n", st.Delivered, st.Failed, st.Skipped)
	return err
}
