package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Maintain the local geocode cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired geocode cache entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Geocode.CachePath == "" {
			return eris.New("geocode.cache_path is not configured (HUBMATCH_GEOCODE_CACHE_PATH)")
		}

		ctx := cmd.Context()
		st, err := store.NewSQLite(cfg.Geocode.CachePath)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		n, err := st.DeleteExpired(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("geocode cache pruned", zap.Int("deleted", n))
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d expired entries.\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
