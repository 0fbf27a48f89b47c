// Package cli implements the memstore maintenance commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rcliao/memstore/internal/config"
	"github.com/rcliao/memstore/internal/logging"
	"github.com/rcliao/memstore/internal/store"
)

var (
	dirFlag    string
	configFlag string
	levelFlag  string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "memstore",
	Short: "Process-shared memory store for agent sessions",
	Long:  "Inspect and maintain the local memory store: entities, relations, raw events, scratchpad, and session summaries. All writes pass the sensitive-data filter.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dirFlag, "dir", "d", "", "Store directory (default: $MEMSTORE_DIR or ~/.memstore)")
	RootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (default: <dir>/memstore.yaml)")
	RootCmd.PersistentFlags().StringVar(&levelFlag, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig() (config.Config, error) {
	path := configFlag
	if path == "" {
		base := dirFlag
		if base == "" {
			base = config.Default().ResolveDir()
		}
		path = filepath.Join(base, "memstore.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if dirFlag != "" {
		cfg.Dir = dirFlag
	}
	if levelFlag != "" {
		cfg.LogLevel = levelFlag
	}
	return cfg, nil
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)
	return store.New(cfg, store.WithLogger(logger))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
