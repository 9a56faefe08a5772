package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sister-sbg/rfl-cli/internal/auxiliary"
)

var wavelengthsOffset int

var wavelengthsCmd = &cobra.Command{
	Use:   "wavelengths <radiance.hdr> <wavelengths.txt>",
	Short: "Write the wavelength table for a radiance header",
	Long:  "Writes the three-column band index, wavelength and FWHM table the correction tool reads, from the wavelength and fwhm fields of a radiance header.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("fwhm-offset") {
			cfg.Auxiliary.FWHMOffset = wavelengthsOffset
		}
		if err := cfg.Validate("wavelengths"); err != nil {
			return err
		}

		rows, err := auxiliary.WriteWavelengths(args[0], args[1], cfg.Auxiliary.FWHMOffset)
		if err != nil {
			return eris.Wrap(err, "wavelengths")
		}
		zap.L().Info("wavelength table written",
			zap.String("header", args[0]),
			zap.String("path", args[1]),
			zap.Int("bands", len(rows)),
		)
		return nil
	},
}

func init() {
	wavelengthsCmd.Flags().IntVar(&wavelengthsOffset, "fwhm-offset", 23, "fwhm index shift applied when fwhm and wavelength lengths differ")
	rootCmd.AddCommand(wavelengthsCmd)
}
