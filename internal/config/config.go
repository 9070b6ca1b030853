package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment override, e.g. MLPREP_LOGGING_LEVEL.
const EnvPrefix = "MLPREP"

// ConfigFileEnv points Load at an explicit YAML file.
const ConfigFileEnv = "MLPREP_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Projects  ProjectsConfig  `yaml:"projects" envconfig:"PROJECTS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	StepTimeout     time.Duration   `yaml:"step_timeout" envconfig:"STEP_TIMEOUT" validate:"gt=0"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gte=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level" envconfig:"LEVEL" validate:"omitempty,oneof=debug info warn warning error DEBUG INFO WARN WARNING ERROR"`
	Output     string `yaml:"output" envconfig:"OUTPUT" validate:"omitempty,oneof=console file both"`
	FilePath   string `yaml:"file_path" envconfig:"FILE_PATH"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" envconfig:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" envconfig:"MAX_AGE_DAYS"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// TelemetryConfig controls OpenTelemetry providers.
type TelemetryConfig struct {
	ServiceName   string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"omitempty,oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
}

// StoreConfig configures the sqlite run log.
type StoreConfig struct {
	Path      string `yaml:"path" envconfig:"PATH" validate:"required"`
	CacheSize int    `yaml:"cache_size" envconfig:"CACHE_SIZE" validate:"gte=1"`
}

// ExportConfig controls artifact encoding.
type ExportConfig struct {
	// CSVBOM prefixes CSV artifacts with a UTF-8 BOM for Excel.
	CSVBOM bool `yaml:"csv_bom" envconfig:"CSV_BOM"`
}

// ProjectsConfig carries per-project inputs and knobs.
type ProjectsConfig struct {
	Mobility     MobilityConfig     `yaml:"mobility" envconfig:"MOBILITY"`
	Gaming       GamingConfig       `yaml:"gaming" envconfig:"GAMING"`
	GoldRecovery GoldRecoveryConfig `yaml:"gold_recovery" envconfig:"GOLD_RECOVERY"`
	OilWell      OilWellConfig      `yaml:"oilwell" envconfig:"OILWELL"`
}

// MobilityConfig points at the joined rides/weather table.
type MobilityConfig struct {
	InputPath string `yaml:"input_path" envconfig:"INPUT_PATH"`
}

// GamingConfig mirrors gaming.PreprocessConfig plus the input path.
type GamingConfig struct {
	InputPath                  string  `yaml:"input_path" envconfig:"INPUT_PATH"`
	NumericImputerStrategy     string  `yaml:"numeric_imputer_strategy" envconfig:"NUMERIC_IMPUTER_STRATEGY" validate:"omitempty,oneof=median mean most_frequent constant"`
	CategoricalImputerStrategy string  `yaml:"categorical_imputer_strategy" envconfig:"CATEGORICAL_IMPUTER_STRATEGY" validate:"omitempty,oneof=most_frequent constant"`
	ScaleNumeric               bool    `yaml:"scale_numeric" envconfig:"SCALE_NUMERIC"`
	TargetThresholdMillion     float64 `yaml:"target_threshold_million" envconfig:"TARGET_THRESHOLD_MILLION" validate:"gte=0"`
	MinYear                    int     `yaml:"min_year" envconfig:"MIN_YEAR" validate:"gte=0"`
}

// GoldRecoveryConfig configures cleaning and target selection for the flotation data.
type GoldRecoveryConfig struct {
	InputPath         string  `yaml:"input_path" envconfig:"INPUT_PATH"`
	Target            string  `yaml:"target" envconfig:"TARGET" validate:"required"`
	MaxNullFraction   float64 `yaml:"max_null_fraction" envconfig:"MAX_NULL_FRACTION" validate:"gte=0,lte=1"`
	DropOutputColumns bool    `yaml:"drop_output_columns" envconfig:"DROP_OUTPUT_COLUMNS"`
}

// OilWellConfig configures region loading and the profit model.
type OilWellConfig struct {
	InputPath        string  `yaml:"input_path" envconfig:"INPUT_PATH"`
	IDColumn         string  `yaml:"id_column" envconfig:"ID_COLUMN" validate:"required"`
	TargetColumn     string  `yaml:"target_column" envconfig:"TARGET_COLUMN" validate:"required"`
	Budget           float64 `yaml:"budget" envconfig:"BUDGET" validate:"gt=0"`
	RevenuePerUnit   float64 `yaml:"revenue_per_unit" envconfig:"REVENUE_PER_UNIT" validate:"gt=0"`
	WellsSelected    int     `yaml:"wells_selected" envconfig:"WELLS_SELECTED" validate:"gt=0"`
	PointsExplored   int     `yaml:"points_explored" envconfig:"POINTS_EXPLORED" validate:"gtefield=WellsSelected"`
	BootstrapSamples int     `yaml:"bootstrap_samples" envconfig:"BOOTSTRAP_SAMPLES" validate:"gt=0"`
}

// Load builds configuration from defaults, then the YAML file (if any), then
// environment variables. Later sources win.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := mergeFile(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// mergeFile unmarshals YAML over the existing values; keys absent from the
// file leave the defaults in place.
func mergeFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			StepTimeout:     10 * time.Minute,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     "console",
			FilePath:   "logs/mlprep.log",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Paths: PathsConfig{
			DataDir:   "data",
			OutputDir: "output",
			LogsDir:   "logs",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "mlprep",
			Environment:   "development",
			EnableTracing: false,
			EnableMetrics: true,
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
		Store: StoreConfig{
			Path:      "data/runs.db",
			CacheSize: 128,
		},
		Projects: ProjectsConfig{
			Mobility: MobilityConfig{
				InputPath: "data/mobility/rides_weather.csv",
			},
			Gaming: GamingConfig{
				InputPath:                  "data/gaming/games.csv",
				NumericImputerStrategy:     "median",
				CategoricalImputerStrategy: "most_frequent",
				ScaleNumeric:               true,
				TargetThresholdMillion:     1.0,
			},
			GoldRecovery: GoldRecoveryConfig{
				InputPath:         "data/gold_recovery/gold_recovery_train.csv",
				Target:            "final.output.recovery",
				MaxNullFraction:   0.6,
				DropOutputColumns: true,
			},
			OilWell: OilWellConfig{
				InputPath:        "data/oilwell/geo_data_0.csv",
				IDColumn:         "id",
				TargetColumn:     "product",
				Budget:           10e9,
				RevenuePerUnit:   450e3,
				WellsSelected:    200,
				PointsExplored:   500,
				BootstrapSamples: 1000,
			},
		},
	}
}
