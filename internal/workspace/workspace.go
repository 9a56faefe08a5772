// Package workspace stages the input triad into a run's scratch directory
// under instrument-neutral names.
package workspace

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/model"
)

const stage = "workspace"

// Prepare copies the triad's binaries and headers into dir using the working
// base name for sensor and returns the resulting layout. Every source is
// checked before anything is written.
func Prepare(ctx context.Context, triad model.InputTriad, dir, sensor string) (model.Workspace, error) {
	working, err := model.WorkingBaseName(triad.BaseName, sensor)
	if err != nil {
		return model.Workspace{}, failure.Wrap(failure.KindInputResolution, stage, triad.RadiancePath, err, "derive working name")
	}
	ws := model.NewWorkspace(dir, working)

	copies := [][2]string{
		{triad.RadiancePath, ws.Radiance},
		{triad.RadianceHeader(), ws.RadianceHeader},
		{triad.LocationPath, ws.Location},
		{triad.LocationHeader(), ws.LocationHeader},
		{triad.ObservationPath, ws.Observation},
		{triad.ObservationHeader(), ws.ObservationHeader},
	}

	for _, c := range copies {
		info, err := os.Stat(c[0])
		if err != nil {
			return model.Workspace{}, failure.Wrap(failure.KindStagingIO, stage, c[0], err, "missing input file")
		}
		if !info.Mode().IsRegular() {
			return model.Workspace{}, failure.New(failure.KindStagingIO, stage, c[0], "input is not a regular file")
		}
	}

	for _, d := range []string{ws.Dir, ws.OutputDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return model.Workspace{}, failure.Wrap(failure.KindStagingIO, stage, d, err, "create workspace directory")
		}
	}

	log := zap.L().With(zap.String("component", stage), zap.String("workspace", ws.Dir))
	for _, c := range copies {
		if err := ctx.Err(); err != nil {
			return model.Workspace{}, eris.Wrap(err, "workspace: prepare")
		}
		n, err := CopyFile(c[0], c[1])
		if err != nil {
			return model.Workspace{}, failure.Wrap(failure.KindStagingIO, stage, c[1], err, "copy "+c[0])
		}
		log.Debug("staged input", zap.String("src", c[0]), zap.String("dst", c[1]), zap.Int64("bytes", n))
	}

	log.Info("workspace prepared", zap.String("working_base_name", working))
	return ws, nil
}

// CopyFile copies src to dst through a temp file in dst's directory that is
// synced and renamed into place, so dst is either absent or complete.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, eris.Wrapf(err, "open %s", src)
	}
	defer in.Close() //nolint:errcheck

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, eris.Wrapf(err, "create temp for %s", dst)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, in)
	if err != nil {
		return n, eris.Wrapf(err, "write %s", dst)
	}
	if err := tmp.Sync(); err != nil {
		return n, eris.Wrapf(err, "sync %s", dst)
	}
	if err := tmp.Close(); err != nil {
		return n, eris.Wrapf(err, "close %s", dst)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return n, eris.Wrapf(err, "chmod %s", dst)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return n, eris.Wrapf(err, "rename into %s", dst)
	}
	committed = true
	return n, nil
}
