package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Sensor     SensorConfig     `yaml:"sensor" mapstructure:"sensor"`
	Auxiliary  AuxiliaryConfig  `yaml:"auxiliary" mapstructure:"auxiliary"`
	Correction CorrectionConfig `yaml:"correction" mapstructure:"correction"`
	Quicklook  QuicklookConfig  `yaml:"quicklook" mapstructure:"quicklook"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PipelineConfig locates the input catalog and the output tree of a run.
type PipelineConfig struct {
	InputCatalog     string `yaml:"input_catalog" mapstructure:"input_catalog"`
	OutputCatalogDir string `yaml:"output_catalog_dir" mapstructure:"output_catalog_dir"`
	// PublishDir receives the product files; empty means OutputCatalogDir.
	PublishDir       string `yaml:"publish_dir" mapstructure:"publish_dir"`
	OutputCollection string `yaml:"output_collection" mapstructure:"output_collection"`
	CRID             string `yaml:"crid" mapstructure:"crid"`
	WorkDir          string `yaml:"work_dir" mapstructure:"work_dir"`
	KeepWorkspace    bool   `yaml:"keep_workspace" mapstructure:"keep_workspace"`
	Disclaimer       string `yaml:"disclaimer" mapstructure:"disclaimer"`
}

// EffectivePublishDir returns PublishDir, falling back to OutputCatalogDir.
func (p PipelineConfig) EffectivePublishDir() string {
	if p.PublishDir != "" {
		return p.PublishDir
	}
	return p.OutputCatalogDir
}

// SensorConfig names the instrument. ID is the lower-case token passed to
// the correction tool.
type SensorConfig struct {
	ID         string `yaml:"id" mapstructure:"id"`
	Instrument string `yaml:"instrument" mapstructure:"instrument"`
}

// AuxiliaryConfig configures wavelength table and surface model generation.
type AuxiliaryConfig struct {
	FWHMOffset         int      `yaml:"fwhm_offset" mapstructure:"fwhm_offset"`
	SurfaceAssetDir    string   `yaml:"surface_asset_dir" mapstructure:"surface_asset_dir"`
	SurfaceConfig      string   `yaml:"surface_config" mapstructure:"surface_config"`
	SurfaceBuilder     string   `yaml:"surface_builder" mapstructure:"surface_builder"`
	SurfaceBuilderArgs []string `yaml:"surface_builder_args" mapstructure:"surface_builder_args"`
}

// CorrectionConfig configures the apply_oe invocation. Values are passed to
// the tool as given.
type CorrectionConfig struct {
	Interpreter      string            `yaml:"interpreter" mapstructure:"interpreter"`
	Script           string            `yaml:"script" mapstructure:"script"`
	Presolve         bool              `yaml:"presolve" mapstructure:"presolve"`
	AnalyticalLine   bool              `yaml:"analytical_line" mapstructure:"analytical_line"`
	EmpiricalLine    bool              `yaml:"empirical_line" mapstructure:"empirical_line"`
	EmulatorBase     string            `yaml:"emulator_base" mapstructure:"emulator_base"`
	Cores            int               `yaml:"cores" mapstructure:"cores"`
	SegmentationSize int               `yaml:"segmentation_size" mapstructure:"segmentation_size"`
	Timeout          time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Env              map[string]string `yaml:"env" mapstructure:"env"`
}

// ChildEnv returns Env with upper-cased names. Viper folds map keys to lower
// case, so SIXS_DIR in a config file arrives as sixs_dir.
func (c CorrectionConfig) ChildEnv() map[string]string {
	out := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// QuicklookConfig configures browse image rendering.
type QuicklookConfig struct {
	NoData float64 `yaml:"no_data" mapstructure:"no_data"`
}

// MetricsConfig configures the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RFL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "rfl.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("pipeline.input_catalog", "")
	v.SetDefault("pipeline.output_catalog_dir", "")
	v.SetDefault("pipeline.publish_dir", "")
	v.SetDefault("pipeline.output_collection", "SBG-L2A-RFL")
	v.SetDefault("pipeline.crid", "001")
	v.SetDefault("pipeline.work_dir", "/unity/ads/temp")
	v.SetDefault("pipeline.keep_workspace", true)
	v.SetDefault("pipeline.disclaimer", "")
	v.SetDefault("sensor.id", "emit")
	v.SetDefault("sensor.instrument", "EMIT")
	v.SetDefault("auxiliary.fwhm_offset", 23)
	v.SetDefault("auxiliary.surface_asset_dir", "")
	v.SetDefault("auxiliary.surface_config", "emit_surface_20221020.json")
	v.SetDefault("auxiliary.surface_builder", "python")
	v.SetDefault("auxiliary.surface_builder_args", []string{"-m", "isofit.utils.surface_model"})
	v.SetDefault("correction.interpreter", "python")
	v.SetDefault("correction.script", "")
	v.SetDefault("correction.presolve", true)
	v.SetDefault("correction.analytical_line", false)
	v.SetDefault("correction.empirical_line", true)
	v.SetDefault("correction.emulator_base", "")
	v.SetDefault("correction.cores", 8)
	v.SetDefault("correction.segmentation_size", 50)
	v.SetDefault("correction.timeout", "0s")
	v.SetDefault("quicklook.no_data", -9999.0)
	v.SetDefault("metrics.textfile", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields a command needs are present and sane.
// mode is one of "run", "runs", "wavelengths" or "quicklook".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
		if c.Pipeline.InputCatalog == "" {
			errs = append(errs, "pipeline.input_catalog is required")
		}
		if c.Pipeline.OutputCatalogDir == "" {
			errs = append(errs, "pipeline.output_catalog_dir is required")
		}
		if c.Pipeline.WorkDir == "" {
			errs = append(errs, "pipeline.work_dir is required")
		}
		if c.Pipeline.CRID == "" {
			errs = append(errs, "pipeline.crid is required")
		}
		if c.Sensor.ID == "" {
			errs = append(errs, "sensor.id is required")
		}
		if c.Correction.Script == "" {
			errs = append(errs, "correction.script is required")
		}
		if c.Auxiliary.SurfaceConfig == "" {
			errs = append(errs, "auxiliary.surface_config is required")
		}
		if c.Auxiliary.SurfaceBuilder == "" {
			errs = append(errs, "auxiliary.surface_builder is required")
		}
		if c.Correction.Timeout < 0 {
			errs = append(errs, "correction.timeout must be >= 0")
		}
		errs = append(errs, c.validateStore()...)
	case "runs":
		errs = append(errs, c.validateStore()...)
	case "wavelengths":
		if c.Auxiliary.FWHMOffset < 0 {
			errs = append(errs, "auxiliary.fwhm_offset must be >= 0")
		}
	case "quicklook":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: invalid for %s: %s", mode, strings.Join(errs, "; ")))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
