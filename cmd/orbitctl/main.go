package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/orbitsound/orbitsound-sync/internal/config"
	"github.com/orbitsound/orbitsound-sync/internal/factory"
	"github.com/orbitsound/orbitsound-sync/internal/health"
	"github.com/orbitsound/orbitsound-sync/internal/logger"
	"github.com/orbitsound/orbitsound-sync/internal/remote"
)

var (
	dataFlag    string
	verboseFlag bool
	rootCmd     = &cobra.Command{
		Use:           "orbitctl",
		Short:         "Admin CLI over the local OrbitSound store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&dataFlag, "data", "d", "", "SQLite file (defaults to ORBIT_DATA_PATH or ~/.orbitsound/orbit.db)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "V", false, "Log at debug level")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies the --data override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if dataFlag != "" {
		cfg.DataPath = dataFlag
	}
	return cfg, nil
}

func cliLogger() zerolog.Logger {
	level := "warn"
	if verboseFlag {
		level = "debug"
	}
	return logger.NewWithWriter(os.Stderr, "orbitctl", level)
}

// openCore opens the store and wires the core offline; the CLI never fetches.
func openCore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*factory.Core, func(), error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	upstream := remote.New(cfg.UpstreamURL, cfg.RemoteToken, cfg.RemoteTimeout)
	core := factory.NewCore(cfg, st, upstream, health.NewStaticConnectivity(false), nil, log)
	return core, func() { _ = st.Close() }, nil
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
