package auxiliary

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
)

const surfaceConfig = "emit_surface_20221020.json"

func surfaceFixture(t *testing.T) (string, model.Workspace) {
	t.Helper()
	assets := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assets, surfaceConfig), []byte(`{"output_model_file":"surface.mat"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "surface.txt"), []byte("endmembers"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(assets, "nested"), 0o755))

	ws := model.NewWorkspace(t.TempDir(), "emit20231206T160939")
	return assets, ws
}

func TestExecSurfaceBuilder_Build(t *testing.T) {
	assets, ws := surfaceFixture(t)
	b := &ExecSurfaceBuilder{
		Command:    "/bin/sh",
		Args:       []string{"-c", `cp "$1" surface.mat && test "$SURFACE_FLAG" = on`, "sh"},
		AssetDir:   assets,
		ConfigName: surfaceConfig,
		Env:        []string{"SURFACE_FLAG=on"},
	}

	out, err := b.Build(context.Background(), ws)
	require.NoError(t, err)
	assert.Equal(t, ws.SurfaceModelPath(), out)

	for _, name := range []string{surfaceConfig, "surface.txt", "surface.mat"} {
		assert.FileExists(t, filepath.Join(ws.Dir, name))
	}
	assert.NoDirExists(t, filepath.Join(ws.Dir, "nested"))
	assert.Empty(t, os.Getenv("SURFACE_FLAG"))
}

func TestExecSurfaceBuilder_Failures(t *testing.T) {
	tests := []struct {
		name       string
		script     string
		configName string
		wantMsg    string
	}{
		{name: "missing config", script: "true", configName: "absent.json", wantMsg: "surface config not found"},
		{name: "builder exits nonzero", script: "echo boom >&2; exit 3", configName: surfaceConfig, wantMsg: "boom"},
		{name: "no artifact", script: "true", configName: surfaceConfig, wantMsg: "no surface model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assets, ws := surfaceFixture(t)
			b := &ExecSurfaceBuilder{
				Command:    "/bin/sh",
				Args:       []string{"-c", tt.script, "sh"},
				AssetDir:   assets,
				ConfigName: tt.configName,
			}
			_, err := b.Build(context.Background(), ws)
			require.Error(t, err)
			assert.True(t, failure.IsKind(err, failure.KindSurfaceModel))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestExecSurfaceBuilder_MissingAssetDir(t *testing.T) {
	ws := model.NewWorkspace(t.TempDir(), "emit20231206T160939")
	b := &ExecSurfaceBuilder{Command: "/bin/sh", AssetDir: filepath.Join(t.TempDir(), "nope"), ConfigName: surfaceConfig}
	_, err := b.Build(context.Background(), ws)
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindSurfaceModel))
}
