package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/gefpower/windprep/internal/support/exception"
	"github.com/gefpower/windprep/internal/support/logger"
)

const moduleName = "config"

// envPrefix is the prefix of all environment variable overrides,
// e.g. WINDPREP_BATCH_ROLLING_WINDOW.
const envPrefix = "WINDPREP_"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string `name:"envFilePath" optional:"true"`
}

// LoadConfig loads configuration by layering, in order: compiled defaults,
// the embedded YAML file, and environment variables. A .env file is loaded
// first if present so its values participate in the override pass. Expected
// to be called once during startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	var yamlConfig Config
	if err := yaml.Unmarshal(embeddedConfig, &yamlConfig); err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to unmarshal embedded config", err)
	}
	mergeConfig(cfg, &yamlConfig)

	if err := loadStructFromEnv(reflect.ValueOf(&cfg.Windprep).Elem(), envPrefix); err != nil {
		return nil, exception.NewConfigError(moduleName, "failed to load config from environment variables", err)
	}
	return cfg, nil
}

// NewConfigProvider is the Fx provider for *Config. It also applies the
// configured log level so every later provider logs at the right verbosity.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Windprep.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Windprep.System.Logging.Level)
	return cfg, nil
}

// mergeConfig merges source into dest, overwriting only where source holds a
// non-zero value. Booleans can therefore only be switched on by YAML, which
// matches their false defaults.
func mergeConfig(dest, source *Config) {
	mergeBatchConfig(&dest.Windprep.Batch, &source.Windprep.Batch)
	mergeSystemConfig(&dest.Windprep.System, &source.Windprep.System)

	if source.Windprep.Metrics.Enabled {
		dest.Windprep.Metrics.Enabled = true
	}
	if source.Windprep.Metrics.ListenAddress != "" {
		dest.Windprep.Metrics.ListenAddress = source.Windprep.Metrics.ListenAddress
	}

	if source.Windprep.Databases != nil {
		if dest.Windprep.Databases == nil {
			dest.Windprep.Databases = map[string]DatabaseConfig{}
		}
		for name, db := range source.Windprep.Databases {
			dest.Windprep.Databases[name] = db
		}
	}
}

func mergeBatchConfig(dest, source *BatchConfig) {
	if source.RollingWindow != 0 {
		dest.RollingWindow = source.RollingWindow
	}
	if source.KeepIDColumn {
		dest.KeepIDColumn = true
	}
	if source.Zones != nil {
		dest.Zones = source.Zones
	}
	if source.Datasets != nil {
		dest.Datasets = source.Datasets
	}
	if source.Output.Dir != "" {
		dest.Output.Dir = source.Output.Dir
	}
	if source.Output.CompressionType != "" {
		dest.Output.CompressionType = source.Output.CompressionType
	}
	if source.MetadataDBRef != "" {
		dest.MetadataDBRef = source.MetadataDBRef
	}
}

func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" {
		dest.Timezone = source.Timezone
	}
	if source.Logging.Level != "" {
		dest.Logging.Level = source.Logging.Level
	}
}

// loadStructFromEnv recursively overrides struct fields from environment
// variables named after the yaml tags, upper-cased and joined with
// underscores under the given prefix.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Map && field.Type().Elem().Kind() == reflect.Struct {
			if err := loadMapOfStructsFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return exception.NewConfigError(moduleName,
				"failed to set field '%s' from env var '%s'", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadMapOfStructsFromEnv overrides entries of a map[string]struct field.
// The first underscore-separated segment after the prefix is the map key,
// the remainder names the struct field by yaml tag, e.g.
// WINDPREP_DATABASE_METADATA_HOST=localhost.
func loadMapOfStructsFromEnv(mapField reflect.Value, prefix string) error {
	if mapField.IsNil() {
		mapField.Set(reflect.MakeMap(mapField.Type()))
	}
	elemType := mapField.Type().Elem()

	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyAndField := strings.SplitN(parts[0], "_", 2)
		if len(keyAndField) != 2 {
			continue
		}
		mapKey := strings.ToLower(keyAndField[0])

		structVal := reflect.New(elemType).Elem()
		if existing := mapField.MapIndex(reflect.ValueOf(mapKey)); existing.IsValid() {
			structVal.Set(existing)
		}
		if err := setStructFieldByTag(structVal, keyAndField[1], parts[1]); err != nil {
			return err
		}
		mapField.SetMapIndex(reflect.ValueOf(mapKey), structVal)
	}
	return nil
}

// setStructFieldByTag sets the struct field whose yaml tag matches fieldName
// case-insensitively. An unknown field name is silently ignored.
func setStructFieldByTag(structVal reflect.Value, fieldName, value string) error {
	typ := structVal.Type()
	for i := 0; i < typ.NumField(); i++ {
		yamlTag := strings.Split(typ.Field(i).Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		if strings.EqualFold(yamlTag, fieldName) {
			return setField(structVal.Field(i), value)
		}
	}
	return nil
}

// setField converts and assigns a string value to a scalar field.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float32, reflect.Float64:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
