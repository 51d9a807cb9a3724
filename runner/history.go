// Package runner applies a revision graph to a live database and keeps the
// applied-revision history.
package runner

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Record is one row of the history table.
type Record struct {
	Revision      string
	AppliedAt     time.Time
	Checksum      string
	ExecutionTime int64 // milliseconds
}

// History manages the revctl_history table.
type History struct {
	db       *sql.DB
	provider string
}

// NewHistory creates a history manager for the given provider.
func NewHistory(db *sql.DB, provider string) *History {
	return &History{db: db, provider: provider}
}

// InitTable creates the history table if it does not exist.
func (h *History) InitTable(ctx context.Context) error {
	ddl := h.createTableSQL()
	if ddl == "" {
		return fmt.Errorf("unsupported provider %q", h.provider)
	}
	if _, err := h.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create history table: %w", err)
	}
	return nil
}

// Record inserts a history row inside the given transaction, so an apply
// and its bookkeeping commit or roll back together.
func (h *History) Record(ctx context.Context, tx *sql.Tx, rec *Record) error {
	_, err := tx.ExecContext(ctx, h.insertSQL(),
		rec.Revision,
		rec.AppliedAt,
		rec.Checksum,
		rec.ExecutionTime,
	)
	return err
}

// Delete removes a revision's history row inside the given transaction.
// Used on rollback; a merge revision's rollback is exactly this and nothing
// else.
func (h *History) Delete(ctx context.Context, tx *sql.Tx, revisionID string) error {
	_, err := tx.ExecContext(ctx, h.deleteSQL(), revisionID)
	return err
}

// Applied returns all history rows in application order.
func (h *History) Applied(ctx context.Context) ([]Record, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT revision, applied_at, checksum, execution_time_ms
		FROM revctl_history
		ORDER BY applied_at ASC, revision ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Revision, &rec.AppliedAt, &rec.Checksum, &rec.ExecutionTime); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AppliedIDs returns the set of applied revision ids.
func (h *History) AppliedIDs(ctx context.Context) (map[string]bool, error) {
	records, err := h.Applied(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(records))
	for _, rec := range records {
		ids[rec.Revision] = true
	}
	return ids, nil
}

// Checksum hashes a revision's statements for drift detection.
func Checksum(statements []string) string {
	hash := sha256.Sum256([]byte(strings.Join(statements, "\n")))
	return hex.EncodeToString(hash[:])
}

func (h *History) createTableSQL() string {
	switch h.provider {
	case "postgresql", "postgres":
		return `
			CREATE TABLE IF NOT EXISTS revctl_history (
				id SERIAL PRIMARY KEY,
				revision VARCHAR(255) NOT NULL UNIQUE,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				checksum VARCHAR(64) NOT NULL,
				execution_time_ms INTEGER
			)
		`
	case "mysql":
		return `
			CREATE TABLE IF NOT EXISTS revctl_history (
				id INT AUTO_INCREMENT PRIMARY KEY,
				revision VARCHAR(255) NOT NULL UNIQUE,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				checksum VARCHAR(64) NOT NULL,
				execution_time_ms INT
			)
		`
	case "sqlite":
		return `
			CREATE TABLE IF NOT EXISTS revctl_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				revision TEXT NOT NULL UNIQUE,
				applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				checksum TEXT NOT NULL,
				execution_time_ms INTEGER
			)
		`
	default:
		return ""
	}
}

func (h *History) insertSQL() string {
	switch h.provider {
	case "postgresql", "postgres":
		return `
			INSERT INTO revctl_history (revision, applied_at, checksum, execution_time_ms)
			VALUES ($1, $2, $3, $4)
		`
	default:
		return `
			INSERT INTO revctl_history (revision, applied_at, checksum, execution_time_ms)
			VALUES (?, ?, ?, ?)
		`
	}
}

func (h *History) deleteSQL() string {
	switch h.provider {
	case "postgresql", "postgres":
		return `DELETE FROM revctl_history WHERE revision = $1`
	default:
		return `DELETE FROM revctl_history WHERE revision = ?`
	}
}
