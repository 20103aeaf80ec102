package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/localstate"
)

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the local schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMigrate(cmd.Context(), cfg, cliLogger(), os.Stdout)
		},
	}
	rootCmd.AddCommand(migrateCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete cache entries past their degraded window and old synced outbox rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSweep(cmd.Context(), cfg, cliLogger(), os.Stdout)
		},
	}
	rootCmd.AddCommand(sweepCmd)

	cacheCmd := &cobra.Command{Use: "cache", Short: "Cache operations"}
	var user string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached entry of a user (logout)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runCacheClear(cmd.Context(), cfg, cliLogger(), user, os.Stdout)
		},
	}
	clearCmd.Flags().StringVarP(&user, "user", "u", "", "User ID (required)")
	_ = clearCmd.MarkFlagRequired("user")
	cacheCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runMigrate(ctx context.Context, cfg *config.Config, log zerolog.Logger, out io.Writer) error {
	core, closeFn, err := openCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()
	v, err := localstate.SchemaVersion(ctx, core.Store.DB())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s: schema version %d\n", cfg.DataPath, v)
	return err
}

func runSweep(ctx context.Context, cfg *config.Config, log zerolog.Logger, out io.Writer) error {
	core, closeFn, err := openCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()
	rep, err := core.Sweeper.RunOnce(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]interface{}{"deleted": rep.Deleted, "outboxPurged": rep.PurgedOutbox})
}

func runCacheClear(ctx context.Context, cfg *config.Config, log zerolog.Logger, user string, out io.Writer) error {
	core, closeFn, err := openCore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()
	n, err := core.Accounts.Logout(ctx, user)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "cleared %d cached entries for %s\n", n, user)
	return err
}
