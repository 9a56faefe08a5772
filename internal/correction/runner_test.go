package correction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sister-sbg/rfl-cli/internal/failure"
)

func testInputs(dir string) Inputs {
	return Inputs{
		Radiance:       filepath.Join(dir, "emit20231206T160939"),
		Location:       filepath.Join(dir, "emit20231206T160939_LOC"),
		Observation:    filepath.Join(dir, "emit20231206T160939_OBS"),
		WorkDir:        dir,
		Sensor:         "emit",
		WavelengthPath: filepath.Join(dir, "wavelengths.txt"),
		SurfacePath:    filepath.Join(dir, "surface.mat"),
		LogPath:        filepath.Join(dir, "SISTER_EMIT_L2A_RFL_20231206T160939_001.log"),
	}
}

func TestArgs(t *testing.T) {
	in := testInputs("/work")
	got := Args("/opt/isofit/apply_oe.py", in, Options{
		Presolve:         true,
		EmpiricalLine:    true,
		EmulatorBase:     "/opt/sRTMnet_v120.h5",
		Cores:            8,
		SegmentationSize: 50,
	})

	want := []string{
		"/opt/isofit/apply_oe.py",
		"/work/emit20231206T160939",
		"/work/emit20231206T160939_LOC",
		"/work/emit20231206T160939_OBS",
		"/work",
		"emit",
		"--presolve=1",
		"--analytical_line=0",
		"--empirical_line=1",
		"--emulator_base=/opt/sRTMnet_v120.h5",
		"--n_cores=8",
		"--wavelength_path=/work/wavelengths.txt",
		"--surface_path=/work/surface.mat",
		"--segmentation_size=50",
		"--log_file=/work/SISTER_EMIT_L2A_RFL_20231206T160939_001.log",
	}
	assert.Equal(t, want, got)
}

func TestArgs_PassThrough(t *testing.T) {
	got := Args("s.py", Inputs{}, Options{Cores: -3, SegmentationSize: 0})
	assert.Contains(t, got, "--n_cores=-3")
	assert.Contains(t, got, "--segmentation_size=0")
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apply_oe.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExecRunner_Success(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, `test "$SIXS_DIR" = /opt/6s || exit 9
echo "$@" > "$4/args.txt"`)
	r := NewExecRunner("/bin/sh", script, map[string]string{"SIXS_DIR": "/opt/6s"}, 0)

	res, err := r.Run(context.Background(), testInputs(dir), Options{Cores: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Positive(t, res.Duration)
	assert.Equal(t, "/bin/sh", res.Command[0])
	assert.Empty(t, os.Getenv("SIXS_DIR"))

	data, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "--n_cores=2")
}

func TestExecRunner_NonzeroExit(t *testing.T) {
	script := writeScript(t, `echo "retrieval diverged" >&2
exit 4`)
	r := NewExecRunner("/bin/sh", script, nil, 0)

	res, err := r.Run(context.Background(), testInputs(t.TempDir()), Options{})
	require.Error(t, err)

	var pe *failure.ProcessError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 4, pe.ExitCode)
	assert.Equal(t, "retrieval diverged", pe.StderrTail)
	assert.Equal(t, 4, res.ExitCode)
	assert.Positive(t, res.Duration)
	assert.True(t, failure.IsKind(err, failure.KindCorrectionProcess))
}

func TestExecRunner_StderrTailBounded(t *testing.T) {
	script := writeScript(t, `i=0
while [ $i -lt 2000 ]; do echo "line $i" >&2; i=$((i+1)); done
echo "last words" >&2
exit 1`)
	r := NewExecRunner("/bin/sh", script, nil, 0)

	_, err := r.Run(context.Background(), testInputs(t.TempDir()), Options{})
	var pe *failure.ProcessError
	require.True(t, errors.As(err, &pe))
	assert.LessOrEqual(t, len(pe.StderrTail), StderrTailSize)
	assert.True(t, strings.HasSuffix(pe.StderrTail, "last words"))
}

func TestExecRunner_StreamsStdoutToLog(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	script := writeScript(t, `i=0
while [ $i -lt 3000 ]; do echo "iteration $i"; i=$((i+1)); done
printf "final state"`)
	r := NewExecRunner("/bin/sh", script, nil, 0)

	_, err := r.Run(context.Background(), testInputs(t.TempDir()), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("iteration 0").Len())
	assert.Equal(t, 1, logs.FilterMessage("iteration 2999").Len())
	// The unterminated last line is flushed when the process ends.
	assert.Equal(t, 1, logs.FilterMessage("final state").Len())
	assert.Equal(t, 3001, logs.FilterField(zap.String("stream", "stdout")).Len())
}

func TestExecRunner_Timeout(t *testing.T) {
	script := writeScript(t, "exec sleep 10")
	r := NewExecRunner("/bin/sh", script, nil, 100*time.Millisecond)

	res, err := r.Run(context.Background(), testInputs(t.TempDir()), Options{})
	require.Error(t, err)

	var te *failure.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 100*time.Millisecond, te.Timeout)
	assert.GreaterOrEqual(t, res.Duration, 100*time.Millisecond)
	assert.True(t, failure.IsKind(err, failure.KindCorrectionTimeout))
}

func TestExecRunner_MissingInterpreter(t *testing.T) {
	r := NewExecRunner(filepath.Join(t.TempDir(), "no-python"), "apply_oe.py", nil, 0)
	res, err := r.Run(context.Background(), testInputs(t.TempDir()), Options{})
	require.Error(t, err)
	assert.True(t, failure.IsKind(err, failure.KindCorrectionProcess))
	assert.Equal(t, -1, res.ExitCode)
}

func TestNewExecRunner_DefaultInterpreter(t *testing.T) {
	r := NewExecRunner("", "apply_oe.py", nil, 0)
	assert.Equal(t, "python", r.Interpreter)
}

func TestTailBuffer(t *testing.T) {
	b := newTailBuffer(8)
	_, _ = b.Write([]byte("abcd"))
	_, _ = b.Write([]byte("efghij"))
	assert.Equal(t, "cdefghij", b.String())

	n, err := b.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "23456789", b.String())
}
