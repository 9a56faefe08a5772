// Package resolve identifies the radiance, observation and location raster
// triad among the files an input catalog exposes.
package resolve

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
)

const stage = "resolve"

// Partition holds the raster binaries of a catalog split by kind.
type Partition struct {
	Radiance    []string
	Observation []string
	Location    []string
}

// Split sorts the .bin locations into radiance, observation and location
// buckets by name. Non-.bin locations are ignored.
func Split(locations []string) Partition {
	var p Partition
	for _, loc := range locations {
		name := filepath.Base(loc)
		if !strings.HasSuffix(name, model.BinaryExt) {
			continue
		}
		switch {
		case strings.Contains(name, model.ObservationSuffix):
			p.Observation = append(p.Observation, loc)
		case strings.Contains(name, model.LocationSuffix):
			p.Location = append(p.Location, loc)
		default:
			p.Radiance = append(p.Radiance, loc)
		}
	}
	sort.Strings(p.Radiance)
	sort.Strings(p.Observation)
	sort.Strings(p.Location)
	return p
}

// Triad resolves the input triad from catalog file locations. Exactly one
// radiance candidate must exist; the observation and location paths are
// derived from it by suffix.
func Triad(locations []string) (model.InputTriad, error) {
	p := Split(locations)

	switch len(p.Radiance) {
	case 0:
		return model.InputTriad{}, failure.New(failure.KindInputResolution, stage, "",
			"no radiance raster among catalog data files")
	case 1:
	default:
		return model.InputTriad{}, failure.New(failure.KindInputResolution, stage, "",
			"ambiguous radiance rasters: "+strings.Join(p.Radiance, ", "))
	}

	rdn := p.Radiance[0]
	dir := filepath.Dir(rdn)
	base := strings.TrimSuffix(filepath.Base(rdn), model.BinaryExt)

	return model.InputTriad{
		BaseName:        base,
		InputDir:        dir,
		RadiancePath:    rdn,
		ObservationPath: filepath.Join(dir, base+model.ObservationSuffix+model.BinaryExt),
		LocationPath:    filepath.Join(dir, base+model.LocationSuffix+model.BinaryExt),
	}, nil
}
