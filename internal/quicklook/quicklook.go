// Package quicklook renders an RGB browse PNG from a reflectance cube.
package quicklook

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat"

	"github.com/sister-sbg/rfl-cli/internal/envi"
	"github.com/sister-sbg/rfl-cli/internal/failure"
)

const stage = "quicklook"

// DefaultNoData is used when the header has no data ignore value.
const DefaultNoData = -9999.0

// Clip percentiles.
const (
	LowPercentile  = 0.05
	HighPercentile = 0.95
)

var (
	// DESISTargets are the R, G, B wavelengths for DESIS products.
	DESISTargets = [3]float64{660, 850, 560}
	// DefaultTargets are the R, G, B wavelengths for every other sensor.
	DefaultTargets = [3]float64{1660, 850, 560}
)

// TargetsFor picks the band targets from the product name.
func TargetsFor(product string) [3]float64 {
	if strings.Contains(product, "DESIS") {
		return DESISTargets
	}
	return DefaultTargets
}

// Options controls rendering.
type Options struct {
	Targets [3]float64
	NoData  float64
}

// Render reads the bands nearest to opts.Targets from the raster and writes
// a PNG to outPath.
func Render(binPath, hdrPath, outPath string, opts Options) error {
	r, err := envi.OpenRaster(binPath, hdrPath)
	if err != nil {
		return failure.Wrap(failure.KindQuicklookRender, stage, binPath, err, "open reflectance")
	}
	noData := opts.NoData
	if r.HasNoData {
		noData = r.NoData
	}

	var channels [3][]uint8
	for i, wl := range opts.Targets {
		band, err := r.NearestBand(wl)
		if err != nil {
			return failure.Wrap(failure.KindQuicklookRender, stage, hdrPath, err, "select band")
		}
		vals, err := r.ReadBand(band)
		if err != nil {
			return failure.Wrap(failure.KindQuicklookRender, stage, binPath, err, "read band")
		}
		for j, v := range vals {
			if v == noData {
				vals[j] = math.NaN()
			}
		}
		if channels[i], err = Scale(vals); err != nil {
			return failure.Wrap(failure.KindQuicklookRender, stage, binPath, err, "scale band")
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, r.Samples, r.Lines))
	for y := 0; y < r.Lines; y++ {
		for x := 0; x < r.Samples; x++ {
			k := y*r.Samples + x
			img.SetRGBA(x, y, color.RGBA{R: channels[0][k], G: channels[1][k], B: channels[2][k], A: 255})
		}
	}

	if err := writePNG(outPath, img); err != nil {
		return failure.Wrap(failure.KindQuicklookRender, stage, outPath, err, "encode png")
	}
	return nil
}

// Scale clips vals to their 5th and 95th percentiles and stretches the
// result linearly onto 0..255. NaN entries map to 0. A channel without any
// finite value is an error.
func Scale(vals []float64) ([]uint8, error) {
	valid := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil, eris.New("quicklook: channel has no valid pixels")
	}
	sort.Float64s(valid)
	lo := stat.Quantile(LowPercentile, stat.LinInterp, valid, nil)
	hi := stat.Quantile(HighPercentile, stat.LinInterp, valid, nil)

	out := make([]uint8, len(vals))
	span := hi - lo
	for i, v := range vals {
		if math.IsNaN(v) || span <= 0 {
			continue
		}
		v = math.Min(math.Max(v, lo), hi)
		out[i] = uint8((v - lo) / span * 255)
	}
	return out, nil
}

func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "quicklook: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		return eris.Wrap(err, "quicklook: encode")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "quicklook: close")
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrap(err, "quicklook: chmod")
	}
	return eris.Wrap(os.Rename(tmpName, path), "quicklook: rename")
}
