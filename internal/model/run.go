package model

import "time"

// RunStatus represents the current state of a reflectance run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusResolving  RunStatus = "resolving"
	RunStatusStaging    RunStatus = "staging"
	RunStatusAuxiliary  RunStatus = "auxiliary"
	RunStatusCorrecting RunStatus = "correcting"
	RunStatusPackaging  RunStatus = "packaging"
	RunStatusPublishing RunStatus = "publishing"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Granule identifies the input product a run processes and the product it
// is expected to publish.
type Granule struct {
	InputCatalog     string `json:"input_catalog"`
	RadianceBaseName string `json:"radiance_base_name,omitempty"`
	ProductBaseName  string `json:"product_base_name,omitempty"`
	CRID             string `json:"crid"`
}

// Run represents a single pipeline execution.
type Run struct {
	ID        string     `json:"id"`
	Granule   Granule    `json:"granule"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a successful run.
type RunResult struct {
	ProductBaseName   string           `json:"product_base_name"`
	PublishDir        string           `json:"publish_dir"`
	CatalogPath       string           `json:"catalog_path"`
	Artifacts         []OutputArtifact `json:"artifacts"`
	CorrectionSeconds float64          `json:"correction_seconds"`
	Phases            []PhaseResult    `json:"phases"`
}

// RunPhase represents a phase within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
