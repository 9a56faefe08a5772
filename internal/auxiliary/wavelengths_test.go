package auxiliary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sister-sbg/rfl-cli/internal/envi"
	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
)

func header(t *testing.T, text string) *envi.Header {
	t.Helper()
	h, err := envi.ParseHeader([]byte("ENVI\n" + text))
	require.NoError(t, err)
	return h
}

func TestWavelengths(t *testing.T) {
	tests := []struct {
		name    string
		hdr     string
		offset  int
		want    []model.WavelengthRow
		wantErr bool
	}{
		{
			name:   "equal lengths ignore offset",
			hdr:    "wavelength = {400, 410, 420, 430, 440}\nfwhm = {1, 2, 3, 4, 5}\n",
			offset: 23,
			want: []model.WavelengthRow{
				{Band: 0, Wavelength: 400, FWHM: 1},
				{Band: 1, Wavelength: 410, FWHM: 2},
				{Band: 2, Wavelength: 420, FWHM: 3},
				{Band: 3, Wavelength: 430, FWHM: 4},
				{Band: 4, Wavelength: 440, FWHM: 5},
			},
		},
		{
			name:   "length mismatch shifts fwhm",
			hdr:    "wavelength = {400, 410, 420, 430, 440}\nfwhm = {9, 9, 1, 2, 3, 4, 5}\n",
			offset: 2,
			want: []model.WavelengthRow{
				{Band: 0, Wavelength: 400, FWHM: 1},
				{Band: 1, Wavelength: 410, FWHM: 2},
				{Band: 2, Wavelength: 420, FWHM: 3},
				{Band: 3, Wavelength: 430, FWHM: 4},
				{Band: 4, Wavelength: 440, FWHM: 5},
			},
		},
		{
			name:    "offset past end of fwhm",
			hdr:     "wavelength = {400, 410, 420, 430, 440}\nfwhm = {1, 2, 3}\n",
			offset:  23,
			wantErr: true,
		},
		{
			name:    "missing wavelength",
			hdr:     "fwhm = {1, 2}\n",
			wantErr: true,
		},
		{
			name:    "malformed wavelength",
			hdr:     "wavelength = {400, abc}\nfwhm = {1, 2}\n",
			wantErr: true,
		},
		{
			name:    "missing fwhm",
			hdr:     "wavelength = {400, 410}\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Wavelengths(header(t, tt.hdr), tt.offset)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, failure.IsKind(err, failure.KindHeaderParse))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, rows)
		})
	}
}

func TestFormatWavelengths(t *testing.T) {
	out := FormatWavelengths([]model.WavelengthRow{
		{Band: 0, Wavelength: 560, FWHM: 5},
		{Band: 1, Wavelength: 660.5, FWHM: 5.5},
	})
	want := "0.000000000000000000e+00 5.600000000000000000e+02 5.000000000000000000e+00\n" +
		"1.000000000000000000e+00 6.605000000000000000e+02 5.500000000000000000e+00\n"
	assert.Equal(t, want, string(out))
}

func TestFormatWavelengths_Float32Precision(t *testing.T) {
	out := string(FormatWavelengths([]model.WavelengthRow{{Band: 0, Wavelength: 376.86, FWHM: 0.1}}))
	// float32 rounding is visible at %.18e, matching numpy's float32 output.
	assert.True(t, strings.HasPrefix(out, "0.000000000000000000e+00 3.768599853515625000e+02 1.000000014901161194e-01"), out)
}

func TestWriteWavelengths(t *testing.T) {
	dir := t.TempDir()
	hdr := filepath.Join(dir, "rdn.hdr")
	require.NoError(t, os.WriteFile(hdr, []byte("ENVI\nwavelength = {560,\n 660}\nfwhm = {5, 6}\n"), 0o644))
	out := filepath.Join(dir, "wavelengths.txt")

	rows, err := WriteWavelengths(hdr, out, DefaultFWHMOffset)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Len(t, strings.Fields(lines[1]), 3)
}

func TestWriteWavelengths_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteWavelengths(filepath.Join(dir, "absent.hdr"), filepath.Join(dir, "w.txt"), 0)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindHeaderParse))

	hdr := filepath.Join(dir, "bad.hdr")
	require.NoError(t, os.WriteFile(hdr, []byte("ENVI\nsamples = 4\n"), 0o644))
	_, err = WriteWavelengths(hdr, filepath.Join(dir, "w.txt"), 0)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindHeaderParse))
	assert.Contains(t, err.Error(), hdr)

	_, statErr := os.Stat(filepath.Join(dir, "w.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestWithPath_Wrapped(t *testing.T) {
	cause := failure.New(failure.KindHeaderParse, stage, "", "fwhm index out of range")
	err := withPath(eris.Wrap(cause, "auxiliary: wavelengths"), "/work/rdn.hdr")

	assert.True(t, failure.IsKind(err, failure.KindHeaderParse))
	assert.Equal(t, "/work/rdn.hdr", cause.Path)
	assert.Contains(t, err.Error(), "/work/rdn.hdr")
}
