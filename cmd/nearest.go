package main

import (
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hubmatch/internal/analyze"
	"github.com/sells-group/hubmatch/internal/config"
	"github.com/sells-group/hubmatch/internal/geo"
	"github.com/sells-group/hubmatch/internal/pincode"
)

var (
	nearestLat  float64
	nearestLon  float64
	nearestHubs string
)

var nearestCmd = &cobra.Command{
	Use:   "nearest [postal-code]",
	Short: "Find the hub nearest to a postal code or coordinate",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyDataFlags(cfg, nearestHubs, "", "")

		latSet := cmd.Flags().Changed("lat")
		lonSet := cmd.Flags().Changed("lon")
		if len(args) == 0 && !(latSet && lonSet) {
			return eris.New("give a postal code or both --lat and --lon")
		}

		ctx := cmd.Context()
		env, err := initAnalysis(ctx, cfg, config.ModeAnalyze)
		if err != nil {
			return err
		}
		defer env.Close()

		p := geo.Point{Lat: nearestLat, Lon: nearestLon}
		label := fmt.Sprintf("(%g, %g)", p.Lat, p.Lon)
		if len(args) == 1 {
			code := pincode.Normalize(args[0])
			loc, ok := env.Resolver.Resolve(ctx, code)
			if !ok {
				return eris.Errorf("postal code %q could not be resolved", args[0])
			}
			p, label = loc, code
		}
		if !p.Valid() {
			return eris.Errorf("invalid coordinate %s", label)
		}

		printNearest(cmd.OutOrStdout(), env.Analyzer, label, p)
		return nil
	},
}

func printNearest(out io.Writer, a *analyze.Analyzer, label string, p geo.Point) {
	h, d := a.Nearest(p)
	_, _ = fmt.Fprintf(out, "%s -> %s (%.2f km, %s)\n", label, h.Name, geo.Round2(d), geo.Classify(d))
}

func init() {
	nearestCmd.Flags().Float64Var(&nearestLat, "lat", 0, "latitude in degrees")
	nearestCmd.Flags().Float64Var(&nearestLon, "lon", 0, "longitude in degrees")
	nearestCmd.Flags().StringVar(&nearestHubs, "hubs", "", "hub definition YAML (default from config)")
	rootCmd.AddCommand(nearestCmd)
}
