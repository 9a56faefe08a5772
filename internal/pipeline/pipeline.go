// Package pipeline runs one reflectance granule through resolve, staging,
// auxiliary generation, correction, packaging and publishing, recording each
// stage in the run ledger.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sister-sbg/rfl-cli/internal/auxiliary"
	"github.com/sister-sbg/rfl-cli/internal/catalog"
	"github.com/sister-sbg/rfl-cli/internal/config"
	"github.com/sister-sbg/rfl-cli/internal/correction"
	"github.com/sister-sbg/rfl-cli/internal/failure"
	"github.com/sister-sbg/rfl-cli/internal/metrics"
	"github.com/sister-sbg/rfl-cli/internal/model"
	"github.com/sister-sbg/rfl-cli/internal/packager"
	"github.com/sister-sbg/rfl-cli/internal/resolve"
	"github.com/sister-sbg/rfl-cli/internal/store"
	"github.com/sister-sbg/rfl-cli/internal/workspace"
)

// Phase names as stored in the ledger.
const (
	PhaseResolve    = "resolve"
	PhaseStaging    = "staging"
	PhaseAuxiliary  = "auxiliary"
	PhaseCorrection = "correction"
	PhasePackaging  = "packaging"
	PhasePublishing = "publishing"
)

// Pipeline orchestrates a single reflectance run.
type Pipeline struct {
	cfg     *config.Config
	store   store.Store
	runner  correction.Runner
	surface auxiliary.SurfaceBuilder
	metrics *metrics.Collector
	now     func() time.Time
}

// New creates a new Pipeline with all dependencies. A nil collector gets a
// fresh one.
func New(
	cfg *config.Config,
	st store.Store,
	runner correction.Runner,
	surface auxiliary.SurfaceBuilder,
	m *metrics.Collector,
) *Pipeline {
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		runner:  runner,
		surface: surface,
		metrics: m,
		now:     time.Now,
	}
}

// Run executes every stage in order. The first failure aborts the run; no
// catalog entry is written unless every earlier stage succeeded. The returned
// result is non-nil whenever a run record was created, so callers can report
// the completed phases of a failed run.
func (p *Pipeline) Run(ctx context.Context) (*model.RunResult, error) {
	pc := p.cfg.Pipeline
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("input_catalog", pc.InputCatalog))
	log.Info("pipeline: starting run")

	granule := model.Granule{InputCatalog: pc.InputCatalog, CRID: pc.CRID}
	run, err := p.store.CreateRun(ctx, granule)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	// Ledger writes must survive a cancelled run context.
	ledgerCtx := context.WithoutCancel(ctx)

	result := &model.RunResult{PublishDir: pc.EffectivePublishDir()}

	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ledgerCtx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) error {
		phase, phaseErr := p.store.CreatePhase(ledgerCtx, run.ID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		start := time.Now()
		phaseResult, err := fn()
		elapsed := time.Since(start)

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{}
		}
		phaseResult.Name = name
		phaseResult.Duration = elapsed.Milliseconds()

		if err != nil {
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", phaseResult.Duration),
				zap.String("kind", string(failure.KindOf(err))),
				zap.Error(err),
			)
		} else {
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", phaseResult.Duration),
			)
		}
		p.metrics.ObservePhase(name, string(phaseResult.Status), elapsed)

		if phase != nil {
			if completeErr := p.store.CompletePhase(ledgerCtx, phase.ID, phaseResult); completeErr != nil {
				log.Warn("pipeline: failed to complete phase", zap.String("phase", name), zap.Error(completeErr))
			}
		}
		result.Phases = append(result.Phases, *phaseResult)
		return err
	}

	fail := func(err error) (*model.RunResult, error) {
		kind := failure.KindOf(err)
		if failErr := p.store.FailRun(ledgerCtx, run.ID, result, err.Error()); failErr != nil {
			log.Warn("pipeline: failed to record failure", zap.Error(failErr))
		}
		p.metrics.RecordRun(string(model.RunStatusFailed), string(kind))
		p.flushMetrics(log)
		log.Error("pipeline: run failed", zap.String("kind", string(kind)), zap.Error(err))
		return result, err
	}

	// ===== Resolve =====
	setStatus(model.RunStatusResolving)

	var (
		triad  model.InputTriad
		source catalog.Dataset
	)
	err = trackPhase(PhaseResolve, func() (*model.PhaseResult, error) {
		col, err := catalog.FromCatalog(pc.InputCatalog)
		if err != nil {
			return nil, err
		}
		// Checked before correction so a bad input collection costs nothing.
		source, err = catalog.SourceDataset(col)
		if err != nil {
			return nil, err
		}
		triad, err = resolve.Triad(col.DataLocations())
		if err != nil {
			return nil, err
		}

		result.ProductBaseName = model.ProductBaseName(triad.BaseName, pc.CRID)
		granule.RadianceBaseName = triad.BaseName
		granule.ProductBaseName = result.ProductBaseName
		if granuleErr := p.store.UpdateRunGranule(ledgerCtx, run.ID, granule); granuleErr != nil {
			log.Warn("pipeline: failed to update granule", zap.Error(granuleErr))
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"radiance":       triad.RadiancePath,
			"source_dataset": source.ID,
			"product":        result.ProductBaseName,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}
	product := result.ProductBaseName
	log = log.With(zap.String("product", product))

	// ===== Staging =====
	setStatus(model.RunStatusStaging)

	var ws model.Workspace
	err = trackPhase(PhaseStaging, func() (*model.PhaseResult, error) {
		var prepErr error
		ws, prepErr = workspace.Prepare(ctx, triad, workspaceDir(pc.WorkDir, product), p.cfg.Sensor.ID)
		if prepErr != nil {
			return nil, prepErr
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"workspace":         ws.Dir,
			"working_base_name": ws.WorkingBaseName,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}

	// ===== Auxiliary =====
	setStatus(model.RunStatusAuxiliary)

	var surfacePath string
	err = trackPhase(PhaseAuxiliary, func() (*model.PhaseResult, error) {
		rows, err := auxiliary.WriteWavelengths(ws.RadianceHeader, ws.WavelengthsPath(), p.cfg.Auxiliary.FWHMOffset)
		if err != nil {
			return nil, err
		}
		surfacePath, err = p.surface.Build(ctx, ws)
		if err != nil {
			return nil, err
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"bands":        len(rows),
			"wavelengths":  ws.WavelengthsPath(),
			"surface_path": surfacePath,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}

	// ===== Correction =====
	setStatus(model.RunStatusCorrecting)

	err = trackPhase(PhaseCorrection, func() (*model.PhaseResult, error) {
		in := correction.Inputs{
			Radiance:       ws.Radiance,
			Location:       ws.Location,
			Observation:    ws.Observation,
			WorkDir:        ws.Dir,
			Sensor:         p.cfg.Sensor.ID,
			WavelengthPath: ws.WavelengthsPath(),
			SurfacePath:    surfacePath,
			LogPath:        ws.LogPath(product),
		}
		res, err := p.runner.Run(ctx, in, p.correctionOptions())
		result.CorrectionSeconds = res.Duration.Seconds()
		p.metrics.ObserveCorrection(correctionOutcome(err), res.Duration)
		if err != nil {
			return &model.PhaseResult{Metadata: map[string]any{"exit_code": res.ExitCode}}, err
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"exit_code": res.ExitCode,
			"seconds":   result.CorrectionSeconds,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}

	// ===== Packaging =====
	setStatus(model.RunStatusPackaging)

	err = trackPhase(PhasePackaging, func() (*model.PhaseResult, error) {
		pub, err := packager.Package(ctx, ws.CorrectionOutputs(product), result.PublishDir, product, packager.Options{
			Disclaimer: pc.Disclaimer,
			NoData:     p.cfg.Quicklook.NoData,
		})
		if err != nil {
			return nil, err
		}
		return &model.PhaseResult{Metadata: map[string]any{
			"reflectance": pub.Reflectance,
			"quicklook":   pub.Quicklook,
		}}, nil
	})
	if err != nil {
		return fail(err)
	}

	// ===== Publishing =====
	setStatus(model.RunStatusPublishing)

	err = trackPhase(PhasePublishing, func() (*model.PhaseResult, error) {
		entry, err := catalog.BuildEntry(pc.OutputCollection, source, product, result.PublishDir, p.now())
		if err != nil {
			return nil, err
		}
		path, err := catalog.Write(pc.OutputCatalogDir, entry)
		if err != nil {
			return nil, err
		}
		result.CatalogPath = path
		result.Artifacts = entry.Manifest
		p.metrics.PublishedArtifacts.Set(float64(len(entry.Manifest)))
		return &model.PhaseResult{Metadata: map[string]any{
			"catalog":   path,
			"artifacts": len(entry.Manifest),
		}}, nil
	})
	if err != nil {
		return fail(err)
	}

	if !pc.KeepWorkspace {
		if rmErr := os.RemoveAll(ws.Dir); rmErr != nil {
			log.Warn("pipeline: failed to remove workspace", zap.String("workspace", ws.Dir), zap.Error(rmErr))
		}
	}

	setStatus(model.RunStatusComplete)
	if saveErr := p.store.UpdateRunResult(ledgerCtx, run.ID, result); saveErr != nil {
		log.Warn("pipeline: failed to save run result", zap.Error(saveErr))
	}
	p.metrics.RecordRun(string(model.RunStatusComplete), "")
	p.flushMetrics(log)

	log.Info("pipeline: run complete",
		zap.String("catalog", result.CatalogPath),
		zap.Int("artifacts", len(result.Artifacts)),
		zap.Float64("correction_seconds", result.CorrectionSeconds),
	)
	return result, nil
}

// workspaceDir is the per-product directory under workDir a run stages into.
// Only this directory is removed when the workspace is not kept.
func workspaceDir(workDir, product string) string {
	return filepath.Join(workDir, product)
}

func (p *Pipeline) correctionOptions() correction.Options {
	c := p.cfg.Correction
	return correction.Options{
		Presolve:         c.Presolve,
		AnalyticalLine:   c.AnalyticalLine,
		EmpiricalLine:    c.EmpiricalLine,
		EmulatorBase:     c.EmulatorBase,
		Cores:            c.Cores,
		SegmentationSize: c.SegmentationSize,
	}
}

func (p *Pipeline) flushMetrics(log *zap.Logger) {
	if p.cfg.Metrics.Textfile == "" {
		return
	}
	if err := p.metrics.WriteTextfile(p.cfg.Metrics.Textfile); err != nil {
		log.Warn("pipeline: failed to write metrics", zap.Error(err))
	}
}

func correctionOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case failure.IsKind(err, failure.KindCorrectionTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeFailure
	}
}
