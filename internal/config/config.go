// Package config loads application configuration and initializes logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Filter FilterConfig `yaml:"filter" mapstructure:"filter"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig names the static source datasets.
type DataConfig struct {
	CrashCSV      string `yaml:"crash_csv" mapstructure:"crash_csv"`
	CasualtyCSV   string `yaml:"casualty_csv" mapstructure:"casualty_csv"`
	UnitCSV       string `yaml:"unit_csv" mapstructure:"unit_csv"`
	BoundaryShp   string `yaml:"boundary_shp" mapstructure:"boundary_shp"`
	BoundaryField string `yaml:"boundary_field" mapstructure:"boundary_field"`
	AliasTable    string `yaml:"alias_table" mapstructure:"alias_table"` // empty = embedded
}

// StoreConfig configures the preset database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FilterConfig tunes filter execution.
type FilterConfig struct {
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// ServerConfig configures the local HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CRASHMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.crash_csv", "data/crashes.csv")
	v.SetDefault("data.casualty_csv", "data/casualties.csv")
	v.SetDefault("data.unit_csv", "data/units.csv")
	v.SetDefault("data.boundary_shp", "data/lga.shp")
	v.SetDefault("data.boundary_field", "LGA_NAME")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "crashmap.db")
	v.SetDefault("filter.chunk_size", 2000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
