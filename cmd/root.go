package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string
	runID   string
)

var rootCmd = &cobra.Command{
	Use:   "hubmatch",
	Short: "Delivery hub assignment analysis",
	Long:  "Resolves postal codes to coordinates, measures their distance to the assigned delivery hub, and flags codes that sit closer to another hub.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		runID = uuid.NewString()
		zap.ReplaceGlobals(zap.L().With(zap.String("run_id", runID)))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
