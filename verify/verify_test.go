package verify

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/complyops/revctl/inspect"
)

func testInspector(t *testing.T) inspect.Inspector {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE ccp_definitions (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE ccp_monitoring_logs (
			id INTEGER PRIMARY KEY,
			ccp_id INTEGER NOT NULL REFERENCES ccp_definitions (id),
			measured_value REAL NOT NULL,
			recorded_at DATETIME NOT NULL
		)`,
		`CREATE INDEX idx_ccp_logs_ccp_id ON ccp_monitoring_logs (ccp_id)`,
	}
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	ins, err := inspect.NewInspector(db, "sqlite")
	require.NoError(t, err)
	return ins
}

func TestRunPartitionsExpectedFields(t *testing.T) {
	ins := testInspector(t)

	report, err := Run(context.Background(), ins, "ccp_monitoring_logs",
		[]string{"measured_value", "verified_by"})
	require.NoError(t, err)

	require.Equal(t, []string{"measured_value"}, report.Present)
	require.Equal(t, []string{"verified_by"}, report.Missing)
	require.False(t, report.Ok())
}

func TestRunAllFieldsPresent(t *testing.T) {
	ins := testInspector(t)

	report, err := Run(context.Background(), ins, "ccp_monitoring_logs",
		[]string{"id", "ccp_id", "measured_value", "recorded_at"})
	require.NoError(t, err)

	require.True(t, report.Ok())
	require.Empty(t, report.Missing)
	require.Len(t, report.Present, 4)
}

func TestRunDeduplicatesExpected(t *testing.T) {
	ins := testInspector(t)

	report, err := Run(context.Background(), ins, "ccp_definitions",
		[]string{"name", "name", "id"})
	require.NoError(t, err)
	require.Equal(t, []string{"name", "id"}, report.Expected)
}

func TestRunNoExpectedFields(t *testing.T) {
	ins := testInspector(t)

	report, err := Run(context.Background(), ins, "ccp_definitions", nil)
	require.NoError(t, err)
	require.True(t, report.Ok())
	require.Len(t, report.Columns, 2)
}

func TestRunMissingTablePropagatesError(t *testing.T) {
	ins := testInspector(t)

	report, err := Run(context.Background(), ins, "supplier_audits", []string{"id"})
	require.Nil(t, report)
	require.True(t, errors.Is(err, inspect.ErrTableNotFound))
}

func TestWriteToFormat(t *testing.T) {
	ins := testInspector(t)

	report, err := Run(context.Background(), ins, "ccp_monitoring_logs",
		[]string{"measured_value", "verified_by"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = report.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	require.Contains(t, out, "Table: ccp_monitoring_logs\n")
	require.Contains(t, out, "Columns (4):\n")
	require.Contains(t, out, "  - measured_value: REAL\n")
	require.Contains(t, out, "  - [ccp_id] -> ccp_definitions.[id]\n")
	require.Contains(t, out, "  - idx_ccp_logs_ccp_id: [ccp_id]\n")
	require.Contains(t, out, "  [x] measured_value\n")
	require.Contains(t, out, "  [ ] verified_by (missing)\n")
	require.Contains(t, out, "1/2 expected fields present\n")
}

func TestWriteToDeterministic(t *testing.T) {
	ins := testInspector(t)
	ctx := context.Background()
	expected := []string{"id", "verified_by"}

	var first, second bytes.Buffer
	for i, buf := range []*bytes.Buffer{&first, &second} {
		report, err := Run(ctx, ins, "ccp_monitoring_logs", expected)
		require.NoError(t, err, "run %d", i)
		_, err = report.WriteTo(buf)
		require.NoError(t, err)
	}
	require.Equal(t, first.String(), second.String())
}

func TestWriteToOmitsChecklistWithoutExpectations(t *testing.T) {
	ins := testInspector(t)

	report, err := Run(context.Background(), ins, "ccp_definitions", nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = report.WriteTo(&buf)
	require.NoError(t, err)
	require.NotContains(t, buf.String(), "Expected fields:")
	require.NotContains(t, buf.String(), "expected fields present")
}
