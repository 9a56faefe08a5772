// Package packager publishes the correction outputs under the product name,
// rewrites their header descriptions and renders the quicklook.
package packager

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sister-sbg/rfl-cli/internal/envi"
	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
	"github.com/sister-sbg/rfl-cli/internal/quicklook"
	"github.com/sister-sbg/rfl-cli/internal/workspace"
)

const stage = "packaging"

// Header descriptions written into the published rasters.
const (
	ReflectanceDescription = "Surface reflectance (unitless)"
	UncertaintyDescription = "Surface reflectance uncertainties (unitless)"
)

// Options tunes packaging.
type Options struct {
	// Disclaimer is prefixed verbatim to both header descriptions.
	Disclaimer string
	// NoData is the quicklook fill value when the header has none.
	NoData float64
}

// Package verifies every correction output exists, then copies them into
// publishDir under product, updates the header descriptions and writes the
// quicklook PNG.
func Package(ctx context.Context, outputs model.CorrectionOutputs, publishDir, product string, opts Options) (model.PublishedProduct, error) {
	for _, p := range outputs.Paths() {
		info, err := os.Stat(p)
		if err != nil {
			return model.PublishedProduct{}, failure.Wrap(failure.KindOutputMissing, stage, p, err, "correction output not found")
		}
		if !info.Mode().IsRegular() {
			return model.PublishedProduct{}, failure.New(failure.KindOutputMissing, stage, p, "correction output is not a regular file")
		}
	}

	if err := os.MkdirAll(publishDir, 0o755); err != nil {
		return model.PublishedProduct{}, failure.Wrap(failure.KindStagingIO, stage, publishDir, err, "create publish directory")
	}

	pub := model.NewPublishedProduct(publishDir, product)
	copies := [][2]string{
		{outputs.Reflectance, pub.Reflectance},
		{outputs.ReflectanceHeader, pub.ReflectanceHeader},
		{outputs.Uncertainty, pub.Uncertainty},
		{outputs.UncertaintyHeader, pub.UncertaintyHeader},
		{outputs.Log, pub.Log},
	}
	log := zap.L().With(zap.String("component", stage), zap.String("product", product))
	for _, c := range copies {
		if err := ctx.Err(); err != nil {
			return model.PublishedProduct{}, eris.Wrap(err, "packager: package")
		}
		if _, err := workspace.CopyFile(c[0], c[1]); err != nil {
			return model.PublishedProduct{}, failure.Wrap(failure.KindStagingIO, stage, c[1], err, "publish "+c[0])
		}
		log.Debug("published output", zap.String("src", c[0]), zap.String("dst", c[1]))
	}

	if err := SetDescription(pub.ReflectanceHeader, opts.Disclaimer+ReflectanceDescription); err != nil {
		return model.PublishedProduct{}, err
	}
	if err := SetDescription(pub.UncertaintyHeader, opts.Disclaimer+UncertaintyDescription); err != nil {
		return model.PublishedProduct{}, err
	}

	ql := quicklook.Options{Targets: quicklook.TargetsFor(product), NoData: opts.NoData}
	if err := quicklook.Render(pub.Reflectance, pub.ReflectanceHeader, pub.Quicklook, ql); err != nil {
		return model.PublishedProduct{}, err
	}

	log.Info("outputs packaged", zap.String("publish_dir", publishDir))
	return pub, nil
}

// SetDescription replaces the description field of the header at path.
func SetDescription(path, description string) error {
	h, err := envi.ReadHeader(path)
	if err != nil {
		return failure.Wrap(failure.KindHeaderParse, stage, path, err, "read header")
	}
	h.SetString(envi.FieldDescription, description)
	if err := envi.WriteHeader(path, h); err != nil {
		return failure.Wrap(failure.KindStagingIO, stage, path, err, "write header")
	}
	return nil
}
