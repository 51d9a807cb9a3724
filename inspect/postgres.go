package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresInspector implements Inspector for PostgreSQL, reading
// information_schema and the pg_* catalogs.
type PostgresInspector struct {
	db *sql.DB
}

// TableNames lists base tables in the public schema.
func (i *PostgresInspector) TableNames(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Table introspects a single table in the public schema.
func (i *PostgresInspector) Table(ctx context.Context, name string) (*Table, error) {
	var exists bool
	err := i.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public'
			  AND table_type = 'BASE TABLE'
			  AND table_name = $1
		)
	`, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check table existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	table := &Table{Name: name, Schema: "public"}

	if table.Columns, err = i.columns(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
	}
	if table.PrimaryKey, err = i.primaryKey(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect primary key for %s: %w", name, err)
	}
	if table.Indexes, err = i.indexes(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect indexes for %s: %w", name, err)
	}
	if table.ForeignKeys, err = i.foreignKeys(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys for %s: %w", name, err)
	}
	return table, nil
}

func (i *PostgresInspector) columns(ctx context.Context, tableName string) ([]Column, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			column_name,
			data_type,
			udt_name,
			is_nullable,
			column_default,
			character_maximum_length,
			numeric_precision,
			numeric_scale
		FROM information_schema.columns
		WHERE table_schema = 'public'
		  AND table_name = $1
		ORDER BY ordinal_position
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var dataType, udtName, isNullable string
		var defaultValue sql.NullString
		var maxLength, numPrecision, numScale sql.NullInt64

		err := rows.Scan(
			&col.Name,
			&dataType,
			&udtName,
			&isNullable,
			&defaultValue,
			&maxLength,
			&numPrecision,
			&numScale,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = mapPostgresType(dataType, udtName, maxLength.Int64, numPrecision.Int64, numScale.Int64)
		col.Nullable = (isNullable == "YES")
		if defaultValue.Valid && defaultValue.String != "" {
			col.Default = &defaultValue.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (i *PostgresInspector) primaryKey(ctx context.Context, tableName string) (*PrimaryKey, error) {
	var pk PrimaryKey
	var columnsArray string
	err := i.db.QueryRowContext(ctx, `
		SELECT
			tc.constraint_name,
			array_agg(kcu.column_name ORDER BY kcu.ordinal_position) as columns
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = 'public'
		  AND tc.table_name = $1
		GROUP BY tc.constraint_name
	`, tableName).Scan(&pk.Name, &columnsArray)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	pk.Columns = splitPgArray(columnsArray)
	return &pk, nil
}

func (i *PostgresInspector) indexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			i.relname as index_name,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) as columns,
			ix.indisunique as is_unique
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE n.nspname = 'public'
		  AND t.relname = $1
		  AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var columnsArray string
		if err := rows.Scan(&idx.Name, &columnsArray, &idx.IsUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		idx.Columns = splitPgArray(columnsArray)
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func (i *PostgresInspector) foreignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			tc.constraint_name,
			array_agg(kcu.column_name ORDER BY kcu.ordinal_position) as columns,
			ccu.table_name as referenced_table,
			array_agg(ccu.column_name ORDER BY kcu.ordinal_position) as referenced_columns,
			rc.update_rule as on_update,
			rc.delete_rule as on_delete
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
			AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = 'public'
		  AND tc.table_name = $1
		GROUP BY tc.constraint_name, ccu.table_name, rc.update_rule, rc.delete_rule
		ORDER BY tc.constraint_name
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		var columnsArray, refColumnsArray string
		err := rows.Scan(
			&fk.Name,
			&columnsArray,
			&fk.ReferencedTable,
			&refColumnsArray,
			&fk.OnUpdate,
			&fk.OnDelete,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fk.Columns = splitPgArray(columnsArray)
		fk.ReferencedColumns = splitPgArray(refColumnsArray)
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// splitPgArray parses the {a,b,c} text form of a PostgreSQL array.
func splitPgArray(s string) []string {
	return strings.Split(strings.Trim(s, "{}"), ",")
}

// mapPostgresType maps PostgreSQL data types to their declared SQL form.
func mapPostgresType(dataType, udtName string, maxLength, precision, scale int64) string {
	switch dataType {
	case "integer", "int", "int4":
		return "INTEGER"
	case "bigint", "int8":
		return "BIGINT"
	case "smallint", "int2":
		return "SMALLINT"
	case "boolean", "bool":
		return "BOOLEAN"
	case "character varying", "varchar":
		if maxLength > 0 {
			return fmt.Sprintf("VARCHAR(%d)", maxLength)
		}
		return "VARCHAR"
	case "character", "char":
		if maxLength > 0 {
			return fmt.Sprintf("CHAR(%d)", maxLength)
		}
		return "CHAR"
	case "text":
		return "TEXT"
	case "numeric", "decimal":
		if precision > 0 && scale > 0 {
			return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
		}
		return "DECIMAL"
	case "real", "float4":
		return "REAL"
	case "double precision", "float8":
		return "DOUBLE PRECISION"
	case "timestamp without time zone", "timestamp":
		return "TIMESTAMP"
	case "timestamp with time zone", "timestamptz":
		return "TIMESTAMPTZ"
	case "date":
		return "DATE"
	case "time without time zone", "time":
		return "TIME"
	case "json":
		return "JSON"
	case "jsonb":
		return "JSONB"
	case "uuid":
		return "UUID"
	case "bytea":
		return "BYTEA"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}
