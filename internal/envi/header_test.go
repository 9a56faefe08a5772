package envi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHeader = `ENVI
description = {
  Radiance micro-watts per centimeter squared per steradian}
samples = 1242
lines = 1280
bands = 5
header offset = 0
file type = ENVI Standard
data type = 4
interleave = bil
byte order = 0
map info = {Geographic Lat/Lon, 1, 1, -105.0, 40.0, 6e-4, 6e-4, WGS-84}
wavelength = { 381.0, 388.4,
 395.8, 403.2, 410.6 }
fwhm = {8.4, 8.4, 8.4, 8.4, 8.4}
`

func TestParseHeader_Fields(t *testing.T) {
	h, err := ParseHeader([]byte(sampleHeader))
	require.NoError(t, err)

	wl, err := h.Floats(FieldWavelength)
	require.NoError(t, err)
	assert.Equal(t, []float64{381.0, 388.4, 395.8, 403.2, 410.6}, wl)

	fwhm, err := h.Floats("FWHM")
	require.NoError(t, err)
	assert.Len(t, fwhm, 5)

	n, err := h.Int(FieldSamples)
	require.NoError(t, err)
	assert.Equal(t, 1242, n)

	desc, ok := h.String(FieldDescription)
	require.True(t, ok)
	assert.Equal(t, "Radiance micro-watts per centimeter squared per steradian", desc)

	assert.Equal(t, []string{
		"description", "samples", "lines", "bands", "header offset", "file type",
		"data type", "interleave", "byte order", "map info", "wavelength", "fwhm",
	}, h.Keys())
}

func TestParseHeader_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty", "", "empty header"},
		{"no magic", "samples = 1\n", "missing ENVI magic"},
		{"no equals", "ENVI\nsamples 1\n", "expected key = value"},
		{"unterminated", "ENVI\nwavelength = {1, 2,\n3\n", "unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHeader([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHeader_FloatsMalformed(t *testing.T) {
	h := NewHeader()
	h.Set("wavelength", "{1.0, abc, 3.0}")
	_, err := h.Floats(FieldWavelength)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1")

	h.Set("fwhm", "8.4")
	_, err = h.Floats(FieldFWHM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a list")

	_, err = h.Floats("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestWriteHeader_PassThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.hdr")
	require.NoError(t, os.WriteFile(path, []byte(sampleHeader), 0o644))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	h.SetString(FieldDescription, "Surface reflectance (unitless)")
	require.NoError(t, WriteHeader(path, h))

	again, err := ReadHeader(path)
	require.NoError(t, err)
	desc, _ := again.String(FieldDescription)
	assert.Equal(t, "Surface reflectance (unitless)", desc)

	mapInfo, ok := again.Get("map info")
	require.True(t, ok)
	assert.Equal(t, "{Geographic Lat/Lon, 1, 1, -105.0, 40.0, 6e-4, 6e-4, WGS-84}", mapInfo)
	assert.Equal(t, h.Keys(), again.Keys())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteHeader_KeepsMode(t *testing.T) {
	for _, mode := range []os.FileMode{0o644, 0o640} {
		t.Run(mode.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "x.hdr")
			require.NoError(t, os.WriteFile(path, []byte(sampleHeader), 0o600))
			require.NoError(t, os.Chmod(path, mode))

			h, err := ReadHeader(path)
			require.NoError(t, err)
			h.SetString(FieldDescription, "b")
			require.NoError(t, WriteHeader(path, h))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Equal(t, mode, info.Mode().Perm())
		})
	}
}

func TestWriteHeader_NewFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.hdr")
	h, err := ParseHeader([]byte(sampleHeader))
	require.NoError(t, err)
	require.NoError(t, WriteHeader(path, h))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestReadHeader_Missing(t *testing.T) {
	_, err := ReadHeader(filepath.Join(t.TempDir(), "nope.hdr"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read header")
}
