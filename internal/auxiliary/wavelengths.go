// Package auxiliary derives the wavelength table and surface model the
// correction step needs alongside the staged rasters.
package auxiliary

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/sister-sbg/rfl-cli/internal/envi"
	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
)

const stage = "auxiliary"

// DefaultFWHMOffset is the FWHM index shift applied when a header's fwhm list
// and wavelength list disagree in length.
const DefaultFWHMOffset = 23

// Wavelengths builds the band table from a radiance header. When the fwhm
// list has a different length than the wavelength list, band i takes
// fwhm[i+offset]; an index past the end of fwhm is a HeaderParseError.
func Wavelengths(h *envi.Header, offset int) ([]model.WavelengthRow, error) {
	wl, err := h.Floats(envi.FieldWavelength)
	if err != nil {
		return nil, failure.Wrap(failure.KindHeaderParse, stage, "", err, "wavelength")
	}
	fwhm, err := h.Floats(envi.FieldFWHM)
	if err != nil {
		return nil, failure.Wrap(failure.KindHeaderParse, stage, "", err, "fwhm")
	}
	if len(wl) == 0 {
		return nil, failure.New(failure.KindHeaderParse, stage, "", "wavelength list is empty")
	}

	shift := 0
	if len(wl) != len(fwhm) {
		shift = offset
	}
	if shift < 0 || len(wl)-1+shift >= len(fwhm) {
		return nil, failure.New(failure.KindHeaderParse, stage, "",
			fmt.Sprintf("fwhm offset %d out of range: %d wavelengths, %d fwhm", shift, len(wl), len(fwhm)))
	}

	rows := make([]model.WavelengthRow, len(wl))
	for i := range wl {
		rows[i] = model.WavelengthRow{Band: i, Wavelength: wl[i], FWHM: fwhm[i+shift]}
	}
	return rows, nil
}

// FormatWavelengths renders rows the way numpy.savetxt writes a float32
// array: every cell in %.18e, space separated, one row per line.
func FormatWavelengths(rows []model.WavelengthRow) []byte {
	var buf bytes.Buffer
	for _, r := range rows {
		fmt.Fprintf(&buf, "%.18e %.18e %.18e\n",
			float64(float32(r.Band)), float64(float32(r.Wavelength)), float64(float32(r.FWHM)))
	}
	return buf.Bytes()
}

// WriteWavelengths reads the radiance header at hdrPath and writes the band
// table to outPath.
func WriteWavelengths(hdrPath, outPath string, offset int) ([]model.WavelengthRow, error) {
	h, err := envi.ReadHeader(hdrPath)
	if err != nil {
		return nil, failure.Wrap(failure.KindHeaderParse, stage, hdrPath, err, "read radiance header")
	}
	rows, err := Wavelengths(h, offset)
	if err != nil {
		return nil, withPath(err, hdrPath)
	}
	if err := os.WriteFile(outPath, FormatWavelengths(rows), 0o644); err != nil {
		return nil, failure.Wrap(failure.KindStagingIO, stage, outPath, err, "write wavelength table")
	}
	return rows, nil
}

// withPath records path on the first failure in err's chain.
func withPath(err error, path string) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		fe.Path = path
	}
	return err
}
