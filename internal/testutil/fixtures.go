// Package testutil provides shared test fixtures: small ENVI rasters, input
// triads and STAC-style input catalogs.
package testutil

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// RadianceBase is the radiance base name used across fixtures.
const RadianceBase = "SISTER_EMIT_L1B_RDN_20231206T160939_001"

// FillFunc returns the value of a raster cell.
type FillFunc func(band, line, sample int) float32

// RasterSpec describes a little-endian float32 BIL raster fixture.
type RasterSpec struct {
	Samples     int
	Lines       int
	Wavelengths []float64
	FWHM        []float64
	Bands       int // used when Wavelengths is empty
	Description string
	NoData      *float64
	Fill        FillFunc
}

func (s RasterSpec) bands() int {
	if len(s.Wavelengths) > 0 {
		return len(s.Wavelengths)
	}
	if s.Bands > 0 {
		return s.Bands
	}
	return 1
}

// WriteRaster writes binPath and hdrPath for spec.
func WriteRaster(t *testing.T, binPath, hdrPath string, spec RasterSpec) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(binPath), 0o755))

	bands := spec.bands()
	buf := make([]byte, 0, spec.Samples*spec.Lines*bands*4)
	for line := 0; line < spec.Lines; line++ {
		for band := 0; band < bands; band++ {
			for sample := 0; sample < spec.Samples; sample++ {
				var v float32
				if spec.Fill != nil {
					v = spec.Fill(band, line, sample)
				}
				buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
			}
		}
	}
	require.NoError(t, os.WriteFile(binPath, buf, 0o644))

	var hdr strings.Builder
	hdr.WriteString("ENVI\n")
	if spec.Description != "" {
		fmt.Fprintf(&hdr, "description = {%s}\n", spec.Description)
	}
	fmt.Fprintf(&hdr, "samples = %d\nlines = %d\nbands = %d\n", spec.Samples, spec.Lines, bands)
	hdr.WriteString("header offset = 0\nfile type = ENVI Standard\ndata type = 4\ninterleave = bil\nbyte order = 0\n")
	if spec.NoData != nil {
		fmt.Fprintf(&hdr, "data ignore value = %g\n", *spec.NoData)
	}
	if len(spec.Wavelengths) > 0 {
		fmt.Fprintf(&hdr, "wavelength = {%s}\n", joinFloats(spec.Wavelengths))
	}
	if len(spec.FWHM) > 0 {
		fmt.Fprintf(&hdr, "fwhm = {%s}\n", joinFloats(spec.FWHM))
	}
	require.NoError(t, os.WriteFile(hdrPath, []byte(hdr.String()), 0o644))
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ", ")
}

// Triad is the set of input paths WriteTriad produced.
type Triad struct {
	Dir         string
	Radiance    string
	Observation string
	Location    string
}

// WriteTriad writes radiance, OBS and LOC rasters for base into dir.
func WriteTriad(t *testing.T, dir, base string) Triad {
	t.Helper()
	rdn := RasterSpec{
		Samples:     4,
		Lines:       3,
		Wavelengths: []float64{560, 660, 850, 1660, 2200},
		FWHM:        []float64{5, 5.5, 6, 6.5, 7},
		Description: "radiance",
		Fill:        func(b, l, s int) float32 { return float32(b*100 + l*10 + s) },
	}
	geom := RasterSpec{Samples: 4, Lines: 3, Bands: 3, Fill: func(b, l, s int) float32 { return float32(b) }}

	tr := Triad{
		Dir:         dir,
		Radiance:    filepath.Join(dir, base+".bin"),
		Observation: filepath.Join(dir, base+"_OBS.bin"),
		Location:    filepath.Join(dir, base+"_LOC.bin"),
	}
	WriteRaster(t, tr.Radiance, filepath.Join(dir, base+".hdr"), rdn)
	WriteRaster(t, tr.Observation, filepath.Join(dir, base+"_OBS.hdr"), geom)
	WriteRaster(t, tr.Location, filepath.Join(dir, base+"_LOC.hdr"), geom)
	return tr
}

// CatalogItem describes one item of a fixture input catalog.
type CatalogItem struct {
	ID    string
	Start time.Time
	End   time.Time
	Files []string
}

// WriteInputCatalog writes dir/catalog.json linking one item file per entry
// in items and returns the catalog path.
func WriteInputCatalog(t *testing.T, dir, collection string, items ...CatalogItem) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))

	links := []map[string]any{
		{"rel": "root", "href": "./catalog.json", "type": "application/json"},
	}
	for _, it := range items {
		assets := map[string]any{}
		for _, f := range it.Files {
			assets[filepath.Base(f)] = map[string]any{
				"href":  f,
				"type":  "binary",
				"roles": []string{"data"},
			}
		}
		item := map[string]any{
			"type":         "Feature",
			"stac_version": "1.0.0",
			"id":           it.ID,
			"collection":   collection,
			"geometry": map[string]any{
				"type":        "Polygon",
				"coordinates": [][][]float64{{{-105, 39}, {-104, 39}, {-104, 40}, {-105, 40}, {-105, 39}}},
			},
			"properties": map[string]any{
				"datetime":       it.Start.UTC().Format(time.RFC3339),
				"start_datetime": it.Start.UTC().Format(time.RFC3339),
				"end_datetime":   it.End.UTC().Format(time.RFC3339),
			},
			"assets": assets,
			"links":  []any{},
		}
		data, err := json.MarshalIndent(item, "", "  ")
		require.NoError(t, err)
		name := it.ID + ".json"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
		links = append(links, map[string]any{"rel": "item", "href": "./" + name, "type": "application/json"})
	}

	cat := map[string]any{
		"type":         "Catalog",
		"stac_version": "1.0.0",
		"id":           collection,
		"description":  collection,
		"links":        links,
	}
	data, err := json.MarshalIndent(cat, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
