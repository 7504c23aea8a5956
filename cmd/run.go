package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bluewater-labs/aquasite-cli/internal/model"
	"github.com/bluewater-labs/aquasite-cli/internal/pipeline"
	"github.com/bluewater-labs/aquasite-cli/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the suitability analysis",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		applyRunFlags(cmd)

		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st)
		result, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "run analysis")
		}

		formatRunResult(os.Stdout, result)
		return nil
	},
}

// applyRunFlags overlays explicit command-line flags onto the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("out") {
		cfg.Output.Dir, _ = cmd.Flags().GetString("out")
	}
	if cmd.Flags().Changed("strict-alignment") {
		cfg.Pipeline.StrictAlignment, _ = cmd.Flags().GetBool("strict-alignment")
	}
	if cmd.Flags().Changed("temp-min") {
		cfg.Criteria.TempMinC, _ = cmd.Flags().GetFloat64("temp-min")
	}
	if cmd.Flags().Changed("temp-max") {
		cfg.Criteria.TempMaxC, _ = cmd.Flags().GetFloat64("temp-max")
	}
	if cmd.Flags().Changed("depth-min") {
		cfg.Criteria.DepthMinM, _ = cmd.Flags().GetFloat64("depth-min")
	}
	if cmd.Flags().Changed("depth-max") {
		cfg.Criteria.DepthMaxM, _ = cmd.Flags().GetFloat64("depth-max")
	}
	zap.L().Debug("criteria",
		zap.Float64("temp_min_c", cfg.Criteria.TempMinC),
		zap.Float64("temp_max_c", cfg.Criteria.TempMaxC),
		zap.Float64("depth_min_m", cfg.Criteria.DepthMinM),
		zap.Float64("depth_max_m", cfg.Criteria.DepthMaxM),
	)
}

// formatRunResult writes a tabular per-zone area summary.
func formatRunResult(out io.Writer, result *model.RunResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ZONE\tREGION_ID\tSUITABLE_KM2")
	_, _ = fmt.Fprintln(w, "----\t---------\t------------")
	var total float64
	for _, z := range result.Zones {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.2f\n", z.Zone, z.RegionID, z.AreaKM2)
		total += z.AreaKM2
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t\t%.2f\n", total)
	_ = w.Flush()

	fmt.Fprintf(out, "\nAlignment: %s\nArtifacts: %s\n", result.Alignment, result.Outputs.Manifest)
}

func init() {
	runCmd.Flags().String("out", "", "output directory for artifacts")
	runCmd.Flags().Bool("strict-alignment", false, "fail if the input grids are misaligned instead of resampling")
	runCmd.Flags().Float64("temp-min", 0, "minimum mean temperature in deg C")
	runCmd.Flags().Float64("temp-max", 0, "maximum mean temperature in deg C")
	runCmd.Flags().Float64("depth-min", 0, "minimum elevation in meters (most negative depth)")
	runCmd.Flags().Float64("depth-max", 0, "maximum elevation in meters")

	rootCmd.AddCommand(runCmd)
}
