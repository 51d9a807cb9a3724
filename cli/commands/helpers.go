package commands

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/complyops/revctl/cli/internal/config"
	"github.com/complyops/revctl/revision"
	"github.com/spf13/afero"
)

// detectProvider guesses the provider from a connection string when the
// config does not pin one.
func detectProvider(connStr string) string {
	switch {
	case strings.Contains(connStr, "mysql"):
		return "mysql"
	case strings.Contains(connStr, "sqlite"), strings.HasPrefix(connStr, "file:"):
		return "sqlite"
	default:
		return "postgresql"
	}
}

// driverName maps provider names onto database/sql driver names. The
// postgres driver registers as "postgres" and the sqlite driver as
// "sqlite3".
func driverName(provider string) string {
	switch provider {
	case "postgresql", "postgres":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite3"
	default:
		return provider
	}
}

// openDatabase opens a connection using the resolved configuration.
func openDatabase(cfg *config.Config) (*sql.DB, string, error) {
	if cfg.DatabaseURL == "" {
		return nil, "", fmt.Errorf("no database connection string: set DATABASE_URL or --url")
	}
	provider := cfg.Provider
	if provider == "" {
		provider = detectProvider(cfg.DatabaseURL)
	}
	db, err := sql.Open(driverName(provider), cfg.DatabaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect: %w", err)
	}
	return db, provider, nil
}

// loadGraph loads and validates the revision graph from the migrations
// directory.
func loadGraph(cfg *config.Config) (*revision.Graph, error) {
	return revision.LoadDir(config.AppFs, cfg.MigrationsDir)
}

// writeFile writes through the config filesystem so tests can intercept.
func writeFile(path string, data []byte) error {
	return afero.WriteFile(config.AppFs, path, data, 0644)
}
