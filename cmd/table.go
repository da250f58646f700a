package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hubmatch/internal/analyze"
	"github.com/sells-group/hubmatch/internal/config"
	"github.com/sells-group/hubmatch/internal/report"
	"github.com/sells-group/hubmatch/internal/resolve"
)

var (
	tableHubs        string
	tableAssignments string
)

var tableCmd = &cobra.Command{
	Use:   "table <hub>",
	Short: "Print one hub's distance table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDataFlags(cfg, tableHubs, tableAssignments, "")

		ctx := cmd.Context()
		env, err := initAnalysis(ctx, cfg, config.ModeAnalyze)
		if err != nil {
			return err
		}
		defer env.Close()

		h, ok := env.Registry.Get(args[0])
		if !ok {
			return eris.Wrapf(analyze.ErrUnknownHub, "hub %q", args[0])
		}

		res, err := resolve.ResolveAll(ctx, env.Resolver, h.Pincodes, cfg.Resolver.Concurrency)
		if err != nil {
			return eris.Wrap(err, "resolve postal codes")
		}

		t, err := env.Analyzer.DistanceTable(h.Name, res)
		if err != nil {
			return err
		}
		return report.WriteHubTable(cmd.OutOrStdout(), t)
	},
}

func init() {
	tableCmd.Flags().StringVar(&tableHubs, "hubs", "", "hub definition YAML (default from config)")
	tableCmd.Flags().StringVar(&tableAssignments, "assignments", "", "CSV or XLSX assignment table overriding the hub file")
	rootCmd.AddCommand(tableCmd)
}
