package main

import (
	"io"
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hubmatch/internal/config"
	"github.com/sells-group/hubmatch/internal/model"
	"github.com/sells-group/hubmatch/internal/report"
)

var (
	analyzeFormat      string
	analyzeOut         string
	analyzeHubs        string
	analyzeAssignments string
	analyzeIndex       string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build hub distance tables and the mismatch report",
	Long: "Resolves every assigned postal code, computes its distance to each hub it is assigned to, " +
		"and lists codes whose nearest hub is a different one.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		applyDataFlags(cfg, analyzeHubs, analyzeAssignments, analyzeIndex)

		if !slices.Contains(report.Formats, analyzeFormat) {
			return eris.Errorf("unknown format %q (want one of %v)", analyzeFormat, report.Formats)
		}
		if analyzeFormat == report.FormatXLSX && analyzeOut == "" {
			return eris.New("--out is required for xlsx output")
		}

		ctx := cmd.Context()
		env, err := initAnalysis(ctx, cfg, config.ModeAnalyze)
		if err != nil {
			return err
		}
		defer env.Close()

		rep, _, err := env.Analyze(ctx, cfg.Resolver.Concurrency)
		if err != nil {
			return err
		}

		return writeReport(cmd.OutOrStdout(), rep, analyzeFormat, analyzeOut)
	},
}

// applyDataFlags lets command-line flags override the configured inputs.
func applyDataFlags(c *config.Config, hubsFile, assignments, index string) {
	if hubsFile != "" {
		c.Data.HubsFile = hubsFile
	}
	if assignments != "" {
		c.Data.AssignmentsFile = assignments
	}
	if index != "" {
		c.Analysis.Index = index
	}
}

// writeReport renders rep to out, or to path when one is given. CSV output
// to a path writes one file per table into that directory.
func writeReport(out io.Writer, rep *model.Report, format, path string) error {
	if path == "" {
		return report.Write(out, rep, format)
	}

	if format == report.FormatCSV {
		if err := report.WriteCSVDir(path, rep); err != nil {
			return err
		}
		zap.L().Info("report written", zap.String("dir", path), zap.String("format", format))
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create report file")
	}
	if err := report.Write(f, rep, format); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "close report file")
	}
	zap.L().Info("report written", zap.String("file", path), zap.String("format", format))
	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", report.FormatText, "output format: text, csv, json, xlsx, geojson")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "", "output file (directory for csv); default stdout")
	addDataFlags(analyzeCmd, &analyzeHubs, &analyzeAssignments, &analyzeIndex)
	rootCmd.AddCommand(analyzeCmd)
}

func addDataFlags(cmd *cobra.Command, hubsFile, assignments, index *string) {
	cmd.Flags().StringVar(hubsFile, "hubs", "", "hub definition YAML (default from config)")
	cmd.Flags().StringVar(assignments, "assignments", "", "CSV or XLSX assignment table overriding the hub file")
	cmd.Flags().StringVar(index, "index", "", "nearest-hub search: linear or rtree (default from config)")
}
