// Package inspect reads live database metadata: columns, primary keys,
// foreign keys, and indexes as the database currently defines them, not as
// migration history claims they should be.
package inspect

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported database provider")
	ErrTableNotFound       = errors.New("table not found")
)

// Inspector introspects a live database.
type Inspector interface {
	// Table returns the live definition of a single table. A missing table
	// is ErrTableNotFound, never an empty definition.
	Table(ctx context.Context, name string) (*Table, error)
	// TableNames lists user tables in the current database.
	TableNames(ctx context.Context) ([]string, error)
}

// Table is the introspected definition of one table.
type Table struct {
	Name        string
	Schema      string
	Columns     []Column
	PrimaryKey  *PrimaryKey
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// Column is one table column with its declared type.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  *string
}

// PrimaryKey is a table's primary key constraint.
type PrimaryKey struct {
	Name    string
	Columns []string
}

// Index is a database index and the columns it covers.
type Index struct {
	Name     string
	Columns  []string
	IsUnique bool
}

// ForeignKey maps source columns to a referenced table's columns.
type ForeignKey struct {
	Name              string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string
	OnUpdate          string
}

// NewInspector creates an inspector for the given provider.
func NewInspector(db *sql.DB, provider string) (Inspector, error) {
	switch provider {
	case "postgresql", "postgres":
		return &PostgresInspector{db: db}, nil
	case "mysql":
		return &MySQLInspector{db: db}, nil
	case "sqlite", "sqlite3":
		return &SQLiteInspector{db: db}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
