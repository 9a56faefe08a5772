package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sister-sbg/rfl-cli/internal/config"
	"github.com/sister-sbg/rfl-cli/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"run", "runs", "config", "wavelengths", "quicklook"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "rfl-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"input-catalog", "output-dir", "publish-dir", "work-dir", "crid"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), "run should have --%s flag", name)
	}
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["show"])

	flag := runsListCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "50", flag.DefValue)
}

func TestWavelengthsCommand_Flags(t *testing.T) {
	flag := wavelengthsCmd.Flags().Lookup("fwhm-offset")
	require.NotNil(t, flag)
	assert.Equal(t, "23", flag.DefValue)
}

func TestApplyRunFlags(t *testing.T) {
	t.Cleanup(func() {
		runInputCatalog, runOutputDir, runPublishDir, runWorkDir, runCRID = "", "", "", "", ""
	})

	c := &config.Config{Pipeline: config.PipelineConfig{
		InputCatalog:     "/cfg/in/catalog.json",
		OutputCatalogDir: "/cfg/out",
		WorkDir:          "/cfg/work",
		CRID:             "001",
	}}
	runInputCatalog = "/flag/in/catalog.json"
	runCRID = "002"

	applyRunFlags(c)
	assert.Equal(t, "/flag/in/catalog.json", c.Pipeline.InputCatalog)
	assert.Equal(t, "/cfg/out", c.Pipeline.OutputCatalogDir)
	assert.Equal(t, "/cfg/work", c.Pipeline.WorkDir)
	assert.Equal(t, "002", c.Pipeline.CRID)
}

func TestNewSurfaceBuilder(t *testing.T) {
	c := &config.Config{
		Auxiliary: config.AuxiliaryConfig{
			SurfaceAssetDir:    "/opt/surface_model",
			SurfaceConfig:      "emit_surface_20221020.json",
			SurfaceBuilder:     "python",
			SurfaceBuilderArgs: []string{"-m", "isofit.utils.surface_model"},
		},
		Correction: config.CorrectionConfig{Env: map[string]string{"sixs_dir": "/opt/6s", "emulator_dir": "/opt/sRTMnet"}},
	}

	b := newSurfaceBuilder(c)
	assert.Equal(t, "python", b.Command)
	assert.Equal(t, []string{"-m", "isofit.utils.surface_model"}, b.Args)
	assert.Equal(t, "/opt/surface_model", b.AssetDir)
	assert.Equal(t, "emit_surface_20221020.json", b.ConfigName)
	assert.Equal(t, []string{"EMULATOR_DIR=/opt/sRTMnet", "SIXS_DIR=/opt/6s"}, b.Env)
}

func TestNewRunner(t *testing.T) {
	c := &config.Config{Correction: config.CorrectionConfig{
		Interpreter: "python3",
		Script:      "/opt/isofit/apply_oe.py",
		Timeout:     2 * time.Hour,
		Env:         map[string]string{"sixs_dir": "/opt/6s"},
	}}

	r := newRunner(c)
	assert.Equal(t, "python3", r.Interpreter)
	assert.Equal(t, "/opt/isofit/apply_oe.py", r.Script)
	assert.Equal(t, 2*time.Hour, r.Timeout)
	assert.Equal(t, map[string]string{"SIXS_DIR": "/opt/6s"}, r.Env)
}

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID: "abc12345-6789-0000-0000-000000000000",
			Granule: model.Granule{
				InputCatalog:    "/in/catalog.json",
				ProductBaseName: "SISTER_EMIT_L2A_RFL_20231206T160939_001",
			},
			Status:    model.RunStatusComplete,
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Hour),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Granule:   model.Granule{InputCatalog: "/in/other/catalog.json"},
			Status:    model.RunStatusFailed,
			Error:     "resolve: InputResolutionError: no radiance raster among catalog data files and a long tail",
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-59 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "PRODUCT")
	assert.Contains(t, output, "SISTER_EMIT_L2A_RFL_20231206T160939_001")
	assert.Contains(t, output, "/in/other/catalog.json")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "2h0m0s")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "...")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
