// Package catalog reads the input STAC-style catalog and publishes the
// output catalog entry for a product.
package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sister-sbg/rfl-cli/internal/failure"
)

// StacVersion is written into every catalog document.
const StacVersion = "1.0.0"

// Asset is one file attached to a dataset.
type Asset struct {
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// HasRole reports whether the asset carries role.
func (a Asset) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Dataset is one granule of an input collection.
type Dataset struct {
	ID         string
	Collection string
	Start      time.Time
	End        time.Time
	Geometry   geom.T
	Assets     map[string]Asset
	// Path is the item document the dataset was read from.
	Path string
}

// Collection is the input catalog with its datasets.
type Collection struct {
	ID          string
	Description string
	Path        string
	Datasets    []Dataset
}

type link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

type catalogDoc struct {
	Type        string `json:"type"`
	StacVersion string `json:"stac_version"`
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Links       []link `json:"links"`
}

type itemDoc struct {
	Type        string           `json:"type"`
	StacVersion string           `json:"stac_version"`
	ID          string           `json:"id"`
	Collection  string           `json:"collection,omitempty"`
	Geometry    json.RawMessage  `json:"geometry"`
	BBox        []float64        `json:"bbox,omitempty"`
	Properties  itemProperties   `json:"properties"`
	Assets      map[string]Asset `json:"assets"`
	Links       []link           `json:"links"`
}

type itemProperties struct {
	Datetime      *time.Time `json:"datetime"`
	StartDatetime *time.Time `json:"start_datetime,omitempty"`
	EndDatetime   *time.Time `json:"end_datetime,omitempty"`
	Created       *time.Time `json:"created,omitempty"`
}

// FromCatalog reads the catalog document at path and every item it links.
func FromCatalog(path string) (*Collection, error) {
	var doc catalogDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, failure.Wrap(failure.KindInputResolution, "resolve", path, err, "read input catalog")
	}

	c := &Collection{ID: doc.ID, Description: doc.Description, Path: path}
	base := filepath.Dir(path)
	for _, l := range doc.Links {
		if l.Rel != "item" {
			continue
		}
		itemPath := resolveHref(base, l.Href)
		ds, err := readItem(itemPath)
		if err != nil {
			return nil, failure.Wrap(failure.KindInputResolution, "resolve", itemPath, err, "read catalog item")
		}
		if ds.Collection == "" {
			ds.Collection = c.ID
		}
		c.Datasets = append(c.Datasets, ds)
	}
	return c, nil
}

// DataLocations returns the resolved paths of every data asset across all
// datasets, sorted.
func (c *Collection) DataLocations() []string {
	var out []string
	for _, ds := range c.Datasets {
		for _, a := range ds.Assets {
			if a.HasRole("data") {
				out = append(out, resolveHref(filepath.Dir(ds.Path), a.Href))
			}
		}
	}
	sort.Strings(out)
	return out
}

func readItem(path string) (Dataset, error) {
	var doc itemDoc
	if err := readJSON(path, &doc); err != nil {
		return Dataset{}, err
	}
	ds := Dataset{ID: doc.ID, Collection: doc.Collection, Assets: doc.Assets, Path: path}

	switch {
	case doc.Properties.StartDatetime != nil:
		ds.Start = doc.Properties.StartDatetime.UTC()
	case doc.Properties.Datetime != nil:
		ds.Start = doc.Properties.Datetime.UTC()
	}
	switch {
	case doc.Properties.EndDatetime != nil:
		ds.End = doc.Properties.EndDatetime.UTC()
	default:
		ds.End = ds.Start
	}

	if len(doc.Geometry) > 0 && string(doc.Geometry) != "null" {
		var g geom.T
		if err := geojson.Unmarshal(doc.Geometry, &g); err != nil {
			return Dataset{}, eris.Wrapf(err, "catalog: decode geometry of %s", doc.ID)
		}
		ds.Geometry = g
	}
	return ds, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "catalog: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "catalog: decode %s", path)
	}
	return nil
}

func resolveHref(base, href string) string {
	if filepath.IsAbs(href) {
		return filepath.Clean(href)
	}
	return filepath.Join(base, filepath.FromSlash(href))
}
