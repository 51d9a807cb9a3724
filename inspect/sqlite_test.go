package inspect

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func openQMSDatabase(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE ccp_definitions (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			hazard_type TEXT NOT NULL DEFAULT 'biological',
			critical_limit_min NUMERIC,
			critical_limit_max NUMERIC
		)`,
		`CREATE TABLE ccp_monitoring_logs (
			id INTEGER PRIMARY KEY,
			ccp_id INTEGER NOT NULL REFERENCES ccp_definitions (id) ON DELETE CASCADE,
			measured_value REAL NOT NULL,
			recorded_at DATETIME NOT NULL,
			recorded_by TEXT
		)`,
		`CREATE INDEX idx_ccp_logs_ccp_id ON ccp_monitoring_logs (ccp_id)`,
		`CREATE UNIQUE INDEX idx_ccp_defs_name ON ccp_definitions (name)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestSQLiteTableNames(t *testing.T) {
	db := openQMSDatabase(t)
	ins, err := NewInspector(db, "sqlite")
	require.NoError(t, err)

	names, err := ins.TableNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"ccp_definitions", "ccp_monitoring_logs"}, names)
}

func TestSQLiteTableColumns(t *testing.T) {
	db := openQMSDatabase(t)
	ins, err := NewInspector(db, "sqlite")
	require.NoError(t, err)

	table, err := ins.Table(context.Background(), "ccp_definitions")
	require.NoError(t, err)
	require.Equal(t, "ccp_definitions", table.Name)
	require.Len(t, table.Columns, 5)

	byName := make(map[string]Column, len(table.Columns))
	for _, c := range table.Columns {
		byName[c.Name] = c
	}

	require.Equal(t, "INTEGER", byName["id"].Type)
	require.Equal(t, "TEXT", byName["name"].Type)
	require.False(t, byName["name"].Nullable)
	require.Equal(t, "NUMERIC", byName["critical_limit_min"].Type)
	require.True(t, byName["critical_limit_min"].Nullable)

	require.NotNil(t, byName["hazard_type"].Default)
	require.Equal(t, "'biological'", *byName["hazard_type"].Default)
	require.Nil(t, byName["name"].Default)

	require.NotNil(t, table.PrimaryKey)
	require.Equal(t, []string{"id"}, table.PrimaryKey.Columns)
}

func TestSQLiteTableForeignKeys(t *testing.T) {
	db := openQMSDatabase(t)
	ins, err := NewInspector(db, "sqlite")
	require.NoError(t, err)

	table, err := ins.Table(context.Background(), "ccp_monitoring_logs")
	require.NoError(t, err)
	require.Len(t, table.ForeignKeys, 1)

	fk := table.ForeignKeys[0]
	require.Equal(t, []string{"ccp_id"}, fk.Columns)
	require.Equal(t, "ccp_definitions", fk.ReferencedTable)
	require.Equal(t, []string{"id"}, fk.ReferencedColumns)
	require.Equal(t, "CASCADE", fk.OnDelete)
}

func TestSQLiteTableIndexes(t *testing.T) {
	db := openQMSDatabase(t)
	ins, err := NewInspector(db, "sqlite")
	require.NoError(t, err)

	table, err := ins.Table(context.Background(), "ccp_monitoring_logs")
	require.NoError(t, err)

	var found bool
	for _, idx := range table.Indexes {
		if idx.Name == "idx_ccp_logs_ccp_id" {
			found = true
			require.Equal(t, []string{"ccp_id"}, idx.Columns)
			require.False(t, idx.IsUnique)
		}
	}
	require.True(t, found, "expected index idx_ccp_logs_ccp_id")

	defs, err := ins.Table(context.Background(), "ccp_definitions")
	require.NoError(t, err)
	var unique bool
	for _, idx := range defs.Indexes {
		if idx.Name == "idx_ccp_defs_name" {
			unique = idx.IsUnique
		}
	}
	require.True(t, unique, "expected idx_ccp_defs_name to be unique")
}

func TestSQLiteTableNotFound(t *testing.T) {
	db := openQMSDatabase(t)
	ins, err := NewInspector(db, "sqlite")
	require.NoError(t, err)

	_, err = ins.Table(context.Background(), "supplier_audits")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTableNotFound))
	require.Contains(t, err.Error(), "supplier_audits")
}

func TestNewInspectorUnsupportedProvider(t *testing.T) {
	_, err := NewInspector(nil, "oracle")
	require.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestMapSQLiteType(t *testing.T) {
	cases := map[string]string{
		"INTEGER":      "INTEGER",
		"BIGINT":       "INTEGER",
		"VARCHAR(255)": "TEXT",
		"TEXT":         "TEXT",
		"BLOB":         "BLOB",
		"DOUBLE":       "REAL",
		"DECIMAL(5,2)": "NUMERIC",
	}
	for in, want := range cases {
		require.Equal(t, want, mapSQLiteType(in), "type %s", in)
	}
}
