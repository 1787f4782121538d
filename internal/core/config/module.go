package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts *LoggingConfig from *Config so
// components can depend on the logging settings alone.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Windprep.System.Logging
}

// Module provides configuration-related components to Fx.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
)
