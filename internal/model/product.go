package model

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	// RadianceProductToken marks an L1B radiance product name.
	RadianceProductToken = "L1B_RDN"
	// ReflectanceProductToken replaces RadianceProductToken in output names.
	ReflectanceProductToken = "L2A_RFL"

	// ObservationSuffix and LocationSuffix pair geometry rasters with a
	// radiance base name.
	ObservationSuffix = "_OBS"
	LocationSuffix    = "_LOC"

	BinaryExt = ".bin"
	HeaderExt = ".hdr"
)

// InputTriad is the radiance, observation and location raster set a run
// consumes. Paths point at the .bin files; headers are siblings.
type InputTriad struct {
	BaseName        string `json:"base_name"`
	InputDir        string `json:"input_dir"`
	RadiancePath    string `json:"radiance_path"`
	ObservationPath string `json:"observation_path"`
	LocationPath    string `json:"location_path"`
}

// RadianceHeader returns the header path paired with the radiance binary.
func (t InputTriad) RadianceHeader() string { return HeaderFor(t.RadiancePath) }

// ObservationHeader returns the header path paired with the observation binary.
func (t InputTriad) ObservationHeader() string { return HeaderFor(t.ObservationPath) }

// LocationHeader returns the header path paired with the location binary.
func (t InputTriad) LocationHeader() string { return HeaderFor(t.LocationPath) }

// HeaderFor swaps a trailing .bin for .hdr, or appends .hdr when the path has
// no .bin extension (the layout the correction tool uses).
func HeaderFor(binPath string) string {
	if strings.HasSuffix(binPath, BinaryExt) {
		return strings.TrimSuffix(binPath, BinaryExt) + HeaderExt
	}
	return binPath + HeaderExt
}

// ProductBaseName derives the L2A product name from a radiance base name:
// the product token is swapped and the trailing version token replaced by crid.
func ProductBaseName(radianceBase, crid string) string {
	name := strings.Replace(radianceBase, RadianceProductToken, ReflectanceProductToken, 1)
	tokens := strings.Split(name, "_")
	tokens = append(tokens[:len(tokens)-1], crid)
	return strings.Join(tokens, "_")
}

// WorkingBaseName is the instrument-neutral name the inputs are staged under:
// the sensor id followed by the acquisition timestamp token of the radiance
// base name (SISTER_EMIT_L1B_RDN_20231206T160939_001 -> emit20231206T160939).
func WorkingBaseName(radianceBase, sensor string) (string, error) {
	tokens := strings.Split(radianceBase, "_")
	if len(tokens) < 5 {
		return "", eris.Errorf("model: radiance base name %q has %d tokens, need at least 5", radianceBase, len(tokens))
	}
	return sensor + tokens[4], nil
}

// Workspace is the scratch directory layout owned by one run.
type Workspace struct {
	Dir               string `json:"dir"`
	WorkingBaseName   string `json:"working_base_name"`
	Radiance          string `json:"radiance"`
	RadianceHeader    string `json:"radiance_header"`
	Location          string `json:"location"`
	LocationHeader    string `json:"location_header"`
	Observation       string `json:"observation"`
	ObservationHeader string `json:"observation_header"`
	OutputDir         string `json:"output_dir"`
}

// NewWorkspace lays out the working paths for a working base name in dir.
func NewWorkspace(dir, working string) Workspace {
	base := filepath.Join(dir, working)
	return Workspace{
		Dir:               dir,
		WorkingBaseName:   working,
		Radiance:          base,
		RadianceHeader:    base + HeaderExt,
		Location:          base + LocationSuffix,
		LocationHeader:    base + LocationSuffix + HeaderExt,
		Observation:       base + ObservationSuffix,
		ObservationHeader: base + ObservationSuffix + HeaderExt,
		OutputDir:         filepath.Join(dir, "output"),
	}
}

// WavelengthsPath is where the wavelength table is written.
func (w Workspace) WavelengthsPath() string { return filepath.Join(w.Dir, "wavelengths.txt") }

// SurfaceModelPath is the deterministic surface model artifact location.
func (w Workspace) SurfaceModelPath() string { return filepath.Join(w.Dir, "surface.mat") }

// LogPath is the log file the correction tool is told to write.
func (w Workspace) LogPath(product string) string { return filepath.Join(w.Dir, product+".log") }

// CorrectionOutputs returns where the correction tool deposits its results.
// They are named after the working radiance file, not the catalog name.
func (w Workspace) CorrectionOutputs(product string) CorrectionOutputs {
	base := filepath.Join(w.OutputDir, w.WorkingBaseName)
	return CorrectionOutputs{
		Reflectance:       base + "_rfl",
		ReflectanceHeader: base + "_rfl" + HeaderExt,
		Uncertainty:       base + "_uncert",
		UncertaintyHeader: base + "_uncert" + HeaderExt,
		Log:               w.LogPath(product),
	}
}

// CorrectionOutputs are the files the correction step leaves in the workspace.
type CorrectionOutputs struct {
	Reflectance       string `json:"reflectance"`
	ReflectanceHeader string `json:"reflectance_header"`
	Uncertainty       string `json:"uncertainty"`
	UncertaintyHeader string `json:"uncertainty_header"`
	Log               string `json:"log"`
}

// Paths lists the outputs in a fixed order.
func (c CorrectionOutputs) Paths() []string {
	return []string{c.Reflectance, c.ReflectanceHeader, c.Uncertainty, c.UncertaintyHeader, c.Log}
}

// PublishedProduct names every packaged file for a product in dir.
type PublishedProduct struct {
	Reflectance       string `json:"reflectance"`
	ReflectanceHeader string `json:"reflectance_header"`
	Uncertainty       string `json:"uncertainty"`
	UncertaintyHeader string `json:"uncertainty_header"`
	Quicklook         string `json:"quicklook"`
	Log               string `json:"log"`
}

// NewPublishedProduct returns the published layout for product in dir.
func NewPublishedProduct(dir, product string) PublishedProduct {
	base := filepath.Join(dir, product)
	return PublishedProduct{
		Reflectance:       base + BinaryExt,
		ReflectanceHeader: base + HeaderExt,
		Uncertainty:       base + "_UNC" + BinaryExt,
		UncertaintyHeader: base + "_UNC" + HeaderExt,
		Quicklook:         base + ".png",
		Log:               base + ".log",
	}
}

// MediaRole classifies a manifest entry.
type MediaRole string

const (
	RoleData     MediaRole = "data"
	RoleBrowse   MediaRole = "browse"
	RoleMetadata MediaRole = "metadata"
	RoleLog      MediaRole = "log"
)

// OutputArtifact is one packaged file in the publish directory.
type OutputArtifact struct {
	Path      string    `json:"path"`
	MediaType string    `json:"media_type"`
	Role      MediaRole `json:"role"`
}

// WavelengthRow is one band of the wavelength table.
type WavelengthRow struct {
	Band       int     `json:"band"`
	Wavelength float64 `json:"wavelength"`
	FWHM       float64 `json:"fwhm"`
}
