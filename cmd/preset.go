package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openroads/crashmap/internal/filter"
	"github.com/openroads/crashmap/internal/store"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage shareable filter presets",
}

func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

var (
	presetName   string
	presetFilter string
)

var presetSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save an encoded filter under a short shareable code",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// Validate by round-tripping before persisting.
		spec, err := filter.Decode(presetFilter)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		p, err := st.SavePreset(ctx, presetName, filter.Encode(spec))
		if err != nil {
			return err
		}
		zap.L().Info("preset saved", zap.String("code", p.Code), zap.String("name", p.Name))
		return nil
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		presets, err := st.ListPresets(ctx)
		if err != nil {
			return err
		}
		for _, p := range presets {
			zap.L().Info("preset",
				zap.String("code", p.Code),
				zap.String("name", p.Name),
				zap.String("filter", p.Encoded),
			)
		}
		return nil
	},
}

var presetShowCmd = &cobra.Command{
	Use:   "show <code>",
	Short: "Show one preset's filter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		p, err := st.GetPreset(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "preset %s", args[0])
		}
		zap.L().Info("preset",
			zap.String("code", p.Code),
			zap.String("name", p.Name),
			zap.String("filter", p.Encoded),
		)
		return nil
	},
}

func init() {
	presetSaveCmd.Flags().StringVar(&presetName, "name", "", "preset name (required)")
	presetSaveCmd.Flags().StringVar(&presetFilter, "filter", "", "encoded filter specification")
	_ = presetSaveCmd.MarkFlagRequired("name")

	presetCmd.AddCommand(presetSaveCmd, presetListCmd, presetShowCmd)
	rootCmd.AddCommand(presetCmd)
}
