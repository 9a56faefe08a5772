package auxiliary

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
	"github.com/sister-sbg/rfl-cli/internal/workspace"
)

// SurfaceBuilder produces the surface model artifact inside a workspace and
// returns its path.
type SurfaceBuilder interface {
	Build(ctx context.Context, ws model.Workspace) (string, error)
}

// ExecSurfaceBuilder runs an external surface model builder.
type ExecSurfaceBuilder struct {
	// Command and Args form the builder invocation; the config path is
	// appended as the last argument.
	Command string
	Args    []string
	// AssetDir holds the builder's input files (config, endmember spectra).
	// Its regular files are copied into the workspace before the build.
	AssetDir string
	// ConfigName is the builder config file name inside the workspace.
	ConfigName string
	// Env is appended to the parent environment for the child only.
	Env []string
}

// Build copies the surface assets into the workspace, runs the builder from
// the workspace directory and requires the surface model artifact to exist
// afterwards.
func (b *ExecSurfaceBuilder) Build(ctx context.Context, ws model.Workspace) (string, error) {
	if b.AssetDir != "" {
		if err := copyAssets(b.AssetDir, ws.Dir); err != nil {
			return "", err
		}
	}

	cfgPath := filepath.Join(ws.Dir, b.ConfigName)
	if info, err := os.Stat(cfgPath); err != nil || info.IsDir() {
		return "", failure.Wrap(failure.KindSurfaceModel, stage, cfgPath, err, "surface config not found")
	}

	args := append(append([]string{}, b.Args...), cfgPath)
	cmd := exec.CommandContext(ctx, b.Command, args...)
	cmd.Dir = ws.Dir
	cmd.Env = append(os.Environ(), b.Env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	zap.L().Info("building surface model",
		zap.String("component", stage),
		zap.String("command", b.Command+" "+strings.Join(args, " ")),
	)
	if err := cmd.Run(); err != nil {
		return "", failure.Wrap(failure.KindSurfaceModel, stage, cfgPath, err, "builder failed: "+tail(stderr.String(), 2048))
	}

	out := ws.SurfaceModelPath()
	if _, err := os.Stat(out); err != nil {
		return "", failure.Wrap(failure.KindSurfaceModel, stage, out, err, "builder produced no surface model")
	}
	return out, nil
}

func copyAssets(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return failure.Wrap(failure.KindSurfaceModel, stage, src, err, "read surface asset directory")
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		from := filepath.Join(src, e.Name())
		if _, err := workspace.CopyFile(from, filepath.Join(dst, e.Name())); err != nil {
			return failure.Wrap(failure.KindSurfaceModel, stage, from, err, "copy surface asset")
		}
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
