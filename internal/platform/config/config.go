package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the binary needs in either role. Values come
// from a folha.yaml config file when present, overridden by FOLHA_*
// environment variables.
type Config struct {
	Addr          string        `mapstructure:"addr"`
	DatabaseURL   string        `mapstructure:"database_url"`
	JWTSecret     string        `mapstructure:"jwt_secret"`
	Environment   string        `mapstructure:"environment"`
	RulesFile     string        `mapstructure:"rules_file"`
	MigrationsDir string        `mapstructure:"migrations_dir"`
	RunMigrations bool          `mapstructure:"run_migrations"`
	RunSeed       bool          `mapstructure:"run_seed"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`

	// Client role.
	ServerURL string `mapstructure:"server_url"`
	SyncToken string `mapstructure:"sync_token"`
}

func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":8190")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "dev-secret-change-in-production")
	v.SetDefault("environment", "development")
	v.SetDefault("rules_file", "rules/angola.yaml")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("run_migrations", true)
	v.SetDefault("run_seed", true)
	v.SetDefault("read_timeout", 30*time.Second)
	v.SetDefault("write_timeout", 30*time.Second)
	v.SetDefault("server_url", "")
	v.SetDefault("sync_token", "")

	v.SetEnvPrefix("FOLHA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("folha")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/folha")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// ValidateServer checks the fields the server role requires.
func (c Config) ValidateServer() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.Environment == "production" && c.JWTSecret == "dev-secret-change-in-production" {
		return fmt.Errorf("jwt_secret must be changed in production")
	}
	return nil
}

// ValidateClient checks the fields the client role requires.
func (c Config) ValidateClient() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return fmt.Errorf("server_url is required in client mode")
	}
	return nil
}
