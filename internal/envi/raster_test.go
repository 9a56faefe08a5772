package envi

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRaster writes a 3-band 2x3 float32 raster in the given interleave
// where cell value = band*100 + line*10 + sample.
func writeRaster(t *testing.T, interleave string, order binary.AppendByteOrder) (string, string) {
	t.Helper()
	const samples, lines, bands = 3, 2, 3
	val := func(b, l, s int) float32 { return float32(b*100 + l*10 + s) }

	var buf []byte
	put := func(v float32) {
		buf = order.AppendUint32(buf, math.Float32bits(v))
	}
	switch interleave {
	case "bsq":
		for b := 0; b < bands; b++ {
			for l := 0; l < lines; l++ {
				for s := 0; s < samples; s++ {
					put(val(b, l, s))
				}
			}
		}
	case "bil":
		for l := 0; l < lines; l++ {
			for b := 0; b < bands; b++ {
				for s := 0; s < samples; s++ {
					put(val(b, l, s))
				}
			}
		}
	case "bip":
		for l := 0; l < lines; l++ {
			for s := 0; s < samples; s++ {
				for b := 0; b < bands; b++ {
					put(val(b, l, s))
				}
			}
		}
	}

	dir := t.TempDir()
	bin := filepath.Join(dir, "img")
	hdr := filepath.Join(dir, "img.hdr")
	require.NoError(t, os.WriteFile(bin, buf, 0o644))

	bo := 0
	if order == binary.BigEndian {
		bo = 1
	}
	text := fmt.Sprintf("ENVI\nsamples = %d\nlines = %d\nbands = %d\nheader offset = 0\ndata type = 4\ninterleave = %s\nbyte order = %d\ndata ignore value = -9999\nwavelength = {560, 850, 1660}\n",
		samples, lines, bands, interleave, bo)
	require.NoError(t, os.WriteFile(hdr, []byte(text), 0o644))
	return bin, hdr
}

func TestRaster_ReadBand_Interleaves(t *testing.T) {
	for _, il := range []string{"bsq", "bil", "bip"} {
		for _, order := range []binary.AppendByteOrder{binary.LittleEndian, binary.BigEndian} {
			t.Run(fmt.Sprintf("%s/%s", il, order), func(t *testing.T) {
				bin, hdr := writeRaster(t, il, order)
				r, err := OpenRaster(bin, hdr)
				require.NoError(t, err)
				assert.True(t, r.HasNoData)
				assert.Equal(t, -9999.0, r.NoData)

				got, err := r.ReadBand(2)
				require.NoError(t, err)
				assert.Equal(t, []float64{200, 201, 202, 210, 211, 212}, got)
			})
		}
	}
}

func TestRaster_NearestBand(t *testing.T) {
	bin, hdr := writeRaster(t, "bil", binary.LittleEndian)
	r, err := OpenRaster(bin, hdr)
	require.NoError(t, err)

	tests := []struct {
		wl   float64
		want int
	}{
		{560, 0},
		{660, 0},
		{800, 1},
		{1660, 2},
		{2500, 2},
	}
	for _, tt := range tests {
		got, err := r.NearestBand(tt.wl)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "wavelength %v", tt.wl)
	}
}

func TestRaster_BandOutOfRange(t *testing.T) {
	bin, hdr := writeRaster(t, "bsq", binary.LittleEndian)
	r, err := OpenRaster(bin, hdr)
	require.NoError(t, err)
	_, err = r.ReadBand(3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestOpenRaster_Truncated(t *testing.T) {
	bin, hdr := writeRaster(t, "bsq", binary.LittleEndian)
	require.NoError(t, os.Truncate(bin, 8))
	_, err := OpenRaster(bin, hdr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header describes")
}

func TestOpenRaster_UnsupportedInterleave(t *testing.T) {
	bin, hdr := writeRaster(t, "bsq", binary.LittleEndian)
	h, err := ReadHeader(hdr)
	require.NoError(t, err)
	h.Set(FieldInterleave, "xyz")
	require.NoError(t, WriteHeader(hdr, h))

	_, err = OpenRaster(bin, hdr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported interleave")
}
