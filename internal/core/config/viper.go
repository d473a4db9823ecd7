package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"

	"github.com/solatis/casekeeper/internal/types"
)

// EnvPrefix prefixes every environment override, e.g. CK_DATABASE_URL.
const EnvPrefix = "CK"

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; the CLI
// applies flags on the returned value.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("engine.default_profile", "")
	v.SetDefault("engine.path_cache_size", d.Engine.PathCacheSize)
	v.SetDefault("database.url", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.textfile", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Engine: EngineConfig{
			DefaultProfile: types.Profile(strings.ToUpper(strings.TrimSpace(v.GetString("engine.default_profile")))),
			PathCacheSize:  v.GetInt("engine.path_cache_size"),
		},
		Database: DatabaseConfig{URL: v.GetString("database.url")},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Metrics: MetricsConfig{Textfile: v.GetString("metrics.textfile")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateNoSecretsInConfig keeps database credentials environment-only.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if !v.InConfig("database.url") {
		return nil
	}
	u, err := url.Parse(v.GetString("database.url"))
	if err != nil {
		return nil
	}
	if _, ok := u.User.Password(); ok {
		return fmt.Errorf("database passwords not allowed in config files (use %s_DATABASE_URL environment variable)", EnvPrefix)
	}
	return nil
}
