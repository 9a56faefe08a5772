package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sister-sbg/rfl-cli/internal/auxiliary"
	"github.com/sister-sbg/rfl-cli/internal/config"
	"github.com/sister-sbg/rfl-cli/internal/correction"
	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/metrics"
	"github.com/sister-sbg/rfl-cli/internal/pipeline"
)

var (
	runInputCatalog string
	runOutputDir    string
	runPublishDir   string
	runWorkDir      string
	runCRID         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reflectance stage for one granule",
	Long:  "Resolves the radiance triad from the input catalog, runs the correction tool in a workspace, packages the outputs and writes the output catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyRunFlags(cfg)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := pipeline.New(cfg, st, newRunner(cfg), newSurfaceBuilder(cfg), metrics.NewCollector())

		result, err := p.Run(ctx)
		if err != nil {
			logFailure(err)
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("reflectance run complete",
			zap.String("product", result.ProductBaseName),
			zap.String("catalog", result.CatalogPath),
			zap.Int("artifacts", len(result.Artifacts)),
		)
		return writeJSON(os.Stdout, result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runInputCatalog, "input-catalog", "", "input catalog.json (overrides pipeline.input_catalog)")
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "output catalog directory (overrides pipeline.output_catalog_dir)")
	runCmd.Flags().StringVar(&runPublishDir, "publish-dir", "", "product file directory (overrides pipeline.publish_dir)")
	runCmd.Flags().StringVar(&runWorkDir, "work-dir", "", "workspace directory (overrides pipeline.work_dir)")
	runCmd.Flags().StringVar(&runCRID, "crid", "", "composite release id (overrides pipeline.crid)")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags copies explicitly set flags over the loaded config.
func applyRunFlags(c *config.Config) {
	if runInputCatalog != "" {
		c.Pipeline.InputCatalog = runInputCatalog
	}
	if runOutputDir != "" {
		c.Pipeline.OutputCatalogDir = runOutputDir
	}
	if runPublishDir != "" {
		c.Pipeline.PublishDir = runPublishDir
	}
	if runWorkDir != "" {
		c.Pipeline.WorkDir = runWorkDir
	}
	if runCRID != "" {
		c.Pipeline.CRID = runCRID
	}
}

func newRunner(c *config.Config) *correction.ExecRunner {
	return correction.NewExecRunner(c.Correction.Interpreter, c.Correction.Script, c.Correction.ChildEnv(), c.Correction.Timeout)
}

func newSurfaceBuilder(c *config.Config) *auxiliary.ExecSurfaceBuilder {
	env := c.Correction.ChildEnv()
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]string, 0, len(keys))
	for _, k := range keys {
		list = append(list, k+"="+env[k])
	}

	return &auxiliary.ExecSurfaceBuilder{
		Command:    c.Auxiliary.SurfaceBuilder,
		Args:       c.Auxiliary.SurfaceBuilderArgs,
		AssetDir:   c.Auxiliary.SurfaceAssetDir,
		ConfigName: c.Auxiliary.SurfaceConfig,
		Env:        list,
	}
}

// logFailure logs the stage, path and cause of a failed run.
func logFailure(err error) {
	fields := []zap.Field{zap.String("kind", string(failure.KindOf(err)))}

	var fe *failure.Error
	if errors.As(err, &fe) {
		fields = append(fields, zap.String("stage", fe.Stage), zap.String("path", fe.Path))
	}
	var pe *failure.ProcessError
	if errors.As(err, &pe) {
		fields = append(fields, zap.Int("exit_code", pe.ExitCode), zap.String("stderr_tail", pe.StderrTail))
	}
	zap.L().Error("reflectance run failed", append(fields, zap.Error(err))...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
