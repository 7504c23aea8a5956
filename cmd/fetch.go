package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bluewater-labs/aquasite-cli/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the source datasets",
	Long:  "Downloads the configured bathymetry grid, sea surface temperature series, and boundary shapefile into the data directory. FTP and HTTP(S) URLs are supported; ZIP archives are extracted in place.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fetchCfg := cfg.Fetch
		if cmd.Flags().Changed("bathymetry-url") {
			fetchCfg.BathymetryURL, _ = cmd.Flags().GetString("bathymetry-url")
		}
		if cmd.Flags().Changed("temperature-url") {
			fetchCfg.TemperatureURL, _ = cmd.Flags().GetString("temperature-url")
		}
		if cmd.Flags().Changed("boundary-url") {
			fetchCfg.BoundaryURL, _ = cmd.Flags().GetString("boundary-url")
		}

		f := fetcher.New(fetchCfg, cfg.Data.Dir)
		if err := f.FetchAll(cmd.Context(), fetchCfg); err != nil {
			return eris.Wrap(err, "fetch datasets")
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("bathymetry-url", "", "bathymetry NetCDF URL")
	fetchCmd.Flags().String("temperature-url", "", "sea surface temperature NetCDF URL")
	fetchCmd.Flags().String("boundary-url", "", "boundary shapefile archive URL")

	rootCmd.AddCommand(fetchCmd)
}
