package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load and link the datasets, reporting data quality",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}

		var located, withCasualties, withUnits int
		for _, c := range s.Records() {
			if c.HasCoord() {
				located++
			}
			if len(c.Casualties) > 0 {
				withCasualties++
			}
			if len(c.Units) > 0 {
				withUnits++
			}
		}

		zap.L().Info("load complete",
			zap.Int("crashes", len(s.Records())),
			zap.Int("located", located),
			zap.Int("with_casualties", withCasualties),
			zap.Int("with_units", withUnits),
			zap.Int("boundary_areas", s.Boundaries().Len()),
		)
		return nil
	},
}

func init() { rootCmd.AddCommand(loadCmd) }
