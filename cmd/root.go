package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "crashmap",
	Short: "Geospatial crash-record filtering and visualization engine",
	Long:  "Loads the crash, casualty and unit tables, links them by report id, and serves filtered point, density and choropleth projections to a map frontend.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
