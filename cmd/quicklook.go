package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sister-sbg/rfl-cli/internal/model"
	"github.com/sister-sbg/rfl-cli/internal/quicklook"
)

var (
	quicklookOut     string
	quicklookProduct string
)

var quicklookCmd = &cobra.Command{
	Use:   "quicklook <reflectance.bin>",
	Short: "Render the RGB quicklook PNG of a reflectance raster",
	Long:  "Renders the percentile-stretched RGB browse image of a reflectance raster. The header is the sibling .hdr file; band targets depend on whether the product name contains DESIS.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("quicklook"); err != nil {
			return err
		}

		bin := args[0]
		product := quicklookProduct
		if product == "" {
			product = strings.TrimSuffix(filepath.Base(bin), filepath.Ext(bin))
		}
		out := quicklookOut
		if out == "" {
			out = strings.TrimSuffix(bin, filepath.Ext(bin)) + ".png"
		}

		opts := quicklook.Options{Targets: quicklook.TargetsFor(product), NoData: cfg.Quicklook.NoData}
		if err := quicklook.Render(bin, model.HeaderFor(bin), out, opts); err != nil {
			return eris.Wrap(err, "quicklook")
		}
		zap.L().Info("quicklook written", zap.String("path", out), zap.Float64s("targets_nm", opts.Targets[:]))
		return nil
	},
}

func init() {
	quicklookCmd.Flags().StringVarP(&quicklookOut, "out", "o", "", "output PNG path (default: raster path with .png)")
	quicklookCmd.Flags().StringVar(&quicklookProduct, "product", "", "product name used to pick band targets (default: raster base name)")
	rootCmd.AddCommand(quicklookCmd)
}
