package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
)

const stage = "publishing"

// ItemsDir is the subdirectory of the output catalog holding item documents.
const ItemsDir = "items"

// OutputDataset is the published dataset record.
type OutputDataset struct {
	ID       string
	Start    time.Time
	End      time.Time
	Created  time.Time
	Geometry geom.T
}

// Entry is one output catalog entry: a collection with a single dataset and
// its file manifest.
type Entry struct {
	Collection string
	Dataset    OutputDataset
	Manifest   []model.OutputArtifact
}

// SourceDataset returns the single dataset of the input collection. Zero or
// several datasets is a SourceDatasetMissingError.
func SourceDataset(c *Collection) (Dataset, error) {
	if c == nil || len(c.Datasets) == 0 {
		return Dataset{}, failure.New(failure.KindSourceDatasetMissing, stage, collectionPath(c), "input collection has no datasets")
	}
	if len(c.Datasets) > 1 {
		ids := make([]string, len(c.Datasets))
		for i, ds := range c.Datasets {
			ids[i] = ds.ID
		}
		return Dataset{}, failure.New(failure.KindSourceDatasetMissing, stage, c.Path,
			fmt.Sprintf("input collection has %d datasets, want exactly one: %s", len(c.Datasets), strings.Join(ids, ", ")))
	}
	return c.Datasets[0], nil
}

func collectionPath(c *Collection) string {
	if c == nil {
		return ""
	}
	return c.Path
}

// Classify maps a published file to its media type and role by extension.
func Classify(path string) (string, model.MediaRole) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bin":
		return "binary", model.RoleData
	case ".png":
		return "image/png", model.RoleBrowse
	case ".log":
		return "text/plain", model.RoleLog
	default:
		return "text/plain", model.RoleMetadata
	}
}

// Manifest lists the regular files in publishDir whose names start with
// product, classified and sorted by path, followed by the placeholder for
// the product metadata document a later stage writes.
func Manifest(publishDir, product string) ([]model.OutputArtifact, error) {
	entries, err := os.ReadDir(publishDir)
	if err != nil {
		return nil, failure.Wrap(failure.KindCatalogSerialization, stage, publishDir, err, "list publish directory")
	}

	placeholder := filepath.Join(publishDir, product+".json")
	var out []model.OutputArtifact
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), product) {
			continue
		}
		path := filepath.Join(publishDir, e.Name())
		if path == placeholder {
			continue
		}
		mt, role := Classify(path)
		out = append(out, model.OutputArtifact{Path: path, MediaType: mt, Role: role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })

	out = append(out, model.OutputArtifact{Path: placeholder, MediaType: "text/json", Role: model.RoleMetadata})
	return out, nil
}

// BuildEntry assembles the output entry for product from the source dataset
// and the files in publishDir.
func BuildEntry(collection string, src Dataset, product, publishDir string, created time.Time) (*Entry, error) {
	manifest, err := Manifest(publishDir, product)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Collection: collection,
		Dataset: OutputDataset{
			ID:       product,
			Start:    src.Start,
			End:      src.End,
			Created:  created.UTC(),
			Geometry: src.Geometry,
		},
		Manifest: manifest,
	}, nil
}

// Write serializes e into dir as catalog.json plus items/<id>.json and
// returns the catalog document path. Both files are written through a temp
// file and rename.
func Write(dir string, e *Entry) (string, error) {
	catalogPath := filepath.Join(dir, "catalog.json")
	itemName := e.Dataset.ID + ".json"
	itemPath := filepath.Join(dir, ItemsDir, itemName)

	item, err := e.itemDoc()
	if err != nil {
		return "", failure.Wrap(failure.KindCatalogSerialization, stage, itemPath, err, "encode item")
	}
	cat := catalogDoc{
		Type:        "Catalog",
		StacVersion: StacVersion,
		ID:          e.Collection,
		Description: e.Collection,
		Links: []link{
			{Rel: "root", Href: "./catalog.json", Type: "application/json"},
			{Rel: "item", Href: "./" + ItemsDir + "/" + itemName, Type: "application/json"},
		},
	}

	if err := os.MkdirAll(filepath.Dir(itemPath), 0o755); err != nil {
		return "", failure.Wrap(failure.KindCatalogSerialization, stage, itemPath, err, "create catalog directory")
	}
	if err := writeJSON(itemPath, item); err != nil {
		return "", failure.Wrap(failure.KindCatalogSerialization, stage, itemPath, err, "write item")
	}
	if err := writeJSON(catalogPath, cat); err != nil {
		return "", failure.Wrap(failure.KindCatalogSerialization, stage, catalogPath, err, "write catalog")
	}
	return catalogPath, nil
}

func (e *Entry) itemDoc() (*itemDoc, error) {
	ds := e.Dataset
	start, end, created := ds.Start, ds.End, ds.Created
	doc := &itemDoc{
		Type:        "Feature",
		StacVersion: StacVersion,
		ID:          ds.ID,
		Collection:  e.Collection,
		Geometry:    json.RawMessage("null"),
		Properties: itemProperties{
			Datetime:      &start,
			StartDatetime: &start,
			EndDatetime:   &end,
			Created:       &created,
		},
		Assets: make(map[string]Asset, len(e.Manifest)),
		Links: []link{
			{Rel: "root", Href: "../catalog.json", Type: "application/json"},
			{Rel: "parent", Href: "../catalog.json", Type: "application/json"},
		},
	}

	// An empty footprint has infinite bounds; publish it as a null geometry.
	if ds.Geometry != nil && !ds.Geometry.Empty() {
		raw, err := geojson.Marshal(ds.Geometry)
		if err != nil {
			return nil, eris.Wrap(err, "catalog: encode geometry")
		}
		doc.Geometry = raw
		b := ds.Geometry.Bounds()
		doc.BBox = []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
	}

	for _, a := range e.Manifest {
		doc.Assets[filepath.Base(a.Path)] = Asset{Href: a.Path, Type: a.MediaType, Roles: []string{string(a.Role)}}
	}
	return doc, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "catalog: marshal")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "catalog: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "catalog: write %s", path)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return eris.Wrapf(err, "catalog: sync %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "catalog: close %s", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrapf(err, "catalog: chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "catalog: rename %s", path)
	}
	return nil
}
