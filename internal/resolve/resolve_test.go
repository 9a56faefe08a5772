package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sister-sbg/rfl-cli/internal/failure"
)

const base = "/in/SISTER_EMIT_L1B_RDN_20231206T160939_001"

func TestTriad_Resolves(t *testing.T) {
	locs := []string{
		base + "_OBS.bin",
		base + ".hdr",
		base + ".bin",
		base + "_LOC.bin",
		base + "_LOC.hdr",
	}

	tr, err := Triad(locs)
	require.NoError(t, err)
	assert.Equal(t, "SISTER_EMIT_L1B_RDN_20231206T160939_001", tr.BaseName)
	assert.Equal(t, "/in", tr.InputDir)
	assert.Equal(t, base+".bin", tr.RadiancePath)
	assert.Equal(t, base+"_OBS.bin", tr.ObservationPath)
	assert.Equal(t, base+"_LOC.bin", tr.LocationPath)
}

func TestTriad_OrderIndependent(t *testing.T) {
	a, err := Triad([]string{base + ".bin", base + "_OBS.bin", base + "_LOC.bin"})
	require.NoError(t, err)
	b, err := Triad([]string{base + "_LOC.bin", base + "_OBS.bin", base + ".bin"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTriad_NoRadiance(t *testing.T) {
	_, err := Triad([]string{base + "_OBS.bin", base + "_LOC.bin", base + ".hdr"})
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindInputResolution))
	assert.Contains(t, err.Error(), "no radiance raster")
}

func TestTriad_Empty(t *testing.T) {
	_, err := Triad(nil)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindInputResolution))
}

func TestTriad_Ambiguous(t *testing.T) {
	_, err := Triad([]string{
		base + ".bin",
		"/in/SISTER_EMIT_L1B_RDN_20231207T101010_001.bin",
		base + "_OBS.bin",
	})
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindInputResolution))
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestSplit(t *testing.T) {
	p := Split([]string{base + ".bin", base + "_OBS.bin", base + "_LOC.bin", base + ".png"})
	assert.Equal(t, []string{base + ".bin"}, p.Radiance)
	assert.Equal(t, []string{base + "_OBS.bin"}, p.Observation)
	assert.Equal(t, []string{base + "_LOC.bin"}, p.Location)
}
