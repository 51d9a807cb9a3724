// Package config loads revctl configuration from config files, environment
// variables, and .env files.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem all file access goes through, swappable in tests.
var AppFs = afero.NewOsFs()

// Config holds the resolved configuration.
type Config struct {
	MigrationsDir string
	DatabaseURL   string
	Provider      string
}

// Load resolves configuration. Precedence: environment (REVCTL_*), then
// .env.local, then .env, then .revctl.yaml in the working directory, home,
// or ~/.config/revctl.
func Load() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName(".revctl")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "revctl"))

	viper.SetEnvPrefix("REVCTL")
	viper.AutomaticEnv()

	viper.SetDefault("migrations_dir", "migrations")
	viper.SetDefault("provider", "postgresql")

	// Config file is optional.
	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	// .env.local wins over .env.
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	cfg := &Config{
		MigrationsDir: viper.GetString("migrations_dir"),
		DatabaseURL:   viper.GetString("database_url"),
		Provider:      viper.GetString("provider"),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// Save writes the configuration to ~/.config/revctl/.revctl.yaml.
func Save(cfg *Config) error {
	viper.Set("migrations_dir", cfg.MigrationsDir)
	viper.Set("provider", cfg.Provider)

	home, err := homedir.Dir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(home, ".config", "revctl")
	if err := AppFs.MkdirAll(configPath, 0755); err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(configPath, ".revctl.yaml"))
}
