// Package config provides structures and utilities for managing the
// windprep application configuration. Configuration is loaded from an
// embedded YAML file merged over compiled defaults, then overridden by
// environment variables.
package config

// EmbeddedConfig holds the raw bytes of the embedded configuration file,
// passed from main.go.
type EmbeddedConfig []byte

// DatasetConfig names one input file to preprocess.
type DatasetConfig struct {
	// Name becomes the output filename prefix (e.g. "Train" yields
	// Train_pp_<stamp>.gob / .parquet).
	Name string `yaml:"name"`
	// Input is the path of the long-layout CSV file.
	Input string `yaml:"input"`
}

// OutputConfig holds the output sink settings shared by both writers.
type OutputConfig struct {
	// Dir is the directory output files are written into.
	Dir string `yaml:"dir"`
	// CompressionType is the Parquet compression codec ("SNAPPY", "GZIP",
	// "NONE").
	CompressionType string `yaml:"compression_type"`
}

// BatchConfig holds the reshaping parameters and dataset list.
type BatchConfig struct {
	// RollingWindow is the trailing moving-average window for the wind
	// features. Values <= 1 disable smoothing.
	RollingWindow int `yaml:"rolling_window"`
	// KeepIDColumn retains the source ID field in the output.
	KeepIDColumn bool `yaml:"keep_id_column"`
	// Zones is the zone whitelist; empty means all zones 1..10.
	Zones []int `yaml:"zones"`
	// Datasets lists the input files to process, in order.
	Datasets []DatasetConfig `yaml:"datasets"`
	// Output holds the sink settings.
	Output OutputConfig `yaml:"output"`
	// MetadataDBRef names the database connection used for run metadata.
	// Empty keeps run records in memory only.
	MetadataDBRef string `yaml:"metadata_db_ref"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level ("DEBUG", "INFO", "WARN", "ERROR", "FATAL").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone. Input timestamps carry no zone
	// and are interpreted as UTC regardless; this affects logging only.
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig holds the Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled switches from the no-op recorder to the Prometheus recorder.
	Enabled bool `yaml:"enabled"`
	// ListenAddress, when non-empty, exposes the metrics registry over HTTP
	// for scrape-based collection (useful when the batch runs long).
	ListenAddress string `yaml:"listen_address"`
}

// DatabaseConfig holds the settings of one named database connection.
type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// WindprepConfig holds all configuration under the "windprep" top-level key.
type WindprepConfig struct {
	Batch   BatchConfig   `yaml:"batch"`
	System  SystemConfig  `yaml:"system"`
	Metrics MetricsConfig `yaml:"metrics"`
	// Databases maps connection names (e.g. "metadata") to their settings.
	Databases map[string]DatabaseConfig `yaml:"database"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Windprep WindprepConfig `yaml:"windprep"`
	// EmbeddedConfig holds the raw embedded source, not populated from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		Windprep: WindprepConfig{
			Batch: BatchConfig{
				RollingWindow: 3,
				KeepIDColumn:  false,
				Output: OutputConfig{
					Dir:             "output",
					CompressionType: "SNAPPY",
				},
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Databases: map[string]DatabaseConfig{},
		},
	}
}
