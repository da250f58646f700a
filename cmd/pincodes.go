package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/config"
	"github.com/sells-group/hubmatch/internal/db"
)

var pincodesFile string

var pincodesCmd = &cobra.Command{
	Use:   "pincodes",
	Short: "Manage the Postgres postal code table",
}

var pincodesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Bulk upsert code,lat,lon rows from a CSV file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate(config.ModeImport); err != nil {
			return err
		}

		pool, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		n, err := importPincodes(ctx, pool, pincodesFile)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int64("rows", n),
			zap.String("csv", pincodesFile),
		)
		return nil
	},
}

func importPincodes(ctx context.Context, pool db.Pool, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, eris.Wrap(err, "open pincode csv")
	}
	defer f.Close() //nolint:errcheck

	rows, err := db.ParsePincodeCSV(f)
	if err != nil {
		return 0, err
	}
	if err := db.EnsurePincodeSchema(ctx, pool); err != nil {
		return 0, err
	}
	return db.UpsertPincodes(ctx, pool, rows)
}

func init() {
	pincodesImportCmd.Flags().StringVar(&pincodesFile, "file", "", "path to CSV file (required)")
	_ = pincodesImportCmd.MarkFlagRequired("file")
	pincodesCmd.AddCommand(pincodesImportCmd)
	rootCmd.AddCommand(pincodesCmd)
}
