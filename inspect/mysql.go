package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLInspector implements Inspector for MySQL via information_schema.
type MySQLInspector struct {
	db *sql.DB
}

func (i *MySQLInspector) currentDatabase(ctx context.Context) (string, error) {
	var dbName string
	if err := i.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&dbName); err != nil {
		return "", fmt.Errorf("failed to get database name: %w", err)
	}
	return dbName, nil
}

// TableNames lists base tables in the current database.
func (i *MySQLInspector) TableNames(ctx context.Context) ([]string, error) {
	dbName, err := i.currentDatabase(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := i.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, dbName)
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

// Table introspects a single table in the current database.
func (i *MySQLInspector) Table(ctx context.Context, name string) (*Table, error) {
	dbName, err := i.currentDatabase(ctx)
	if err != nil {
		return nil, err
	}

	var count int
	err = i.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type = 'BASE TABLE'
		  AND table_name = ?
	`, dbName, name).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to check table existence: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	table := &Table{Name: name, Schema: dbName}

	if table.Columns, err = i.columns(ctx, dbName, name); err != nil {
		return nil, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
	}
	if table.PrimaryKey, err = i.primaryKey(ctx, dbName, name); err != nil {
		return nil, fmt.Errorf("failed to introspect primary key for %s: %w", name, err)
	}
	if table.Indexes, err = i.indexes(ctx, dbName, name); err != nil {
		return nil, fmt.Errorf("failed to introspect indexes for %s: %w", name, err)
	}
	if table.ForeignKeys, err = i.foreignKeys(ctx, dbName, name); err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys for %s: %w", name, err)
	}
	return table, nil
}

func (i *MySQLInspector) columns(ctx context.Context, schema, tableName string) ([]Column, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			column_name,
			column_type,
			is_nullable,
			column_default
		FROM information_schema.columns
		WHERE table_schema = ?
		  AND table_name = ?
		ORDER BY ordinal_position
	`, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var columnType, isNullable string
		var defaultValue sql.NullString

		if err := rows.Scan(&col.Name, &columnType, &isNullable, &defaultValue); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = mapMySQLType(columnType)
		col.Nullable = (isNullable == "YES")
		if defaultValue.Valid && defaultValue.String != "" {
			col.Default = &defaultValue.String
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (i *MySQLInspector) primaryKey(ctx context.Context, schema, tableName string) (*PrimaryKey, error) {
	var pk PrimaryKey
	var columnsStr string
	err := i.db.QueryRowContext(ctx, `
		SELECT
			constraint_name,
			GROUP_CONCAT(column_name ORDER BY ordinal_position) as columns
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		  AND table_name = ?
		  AND constraint_name = 'PRIMARY'
		GROUP BY constraint_name
	`, schema, tableName).Scan(&pk.Name, &columnsStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key: %w", err)
	}
	pk.Columns = strings.Split(columnsStr, ",")
	return &pk, nil
}

func (i *MySQLInspector) indexes(ctx context.Context, schema, tableName string) ([]Index, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index) as columns,
			MAX(non_unique) as is_non_unique
		FROM information_schema.statistics
		WHERE table_schema = ?
		  AND table_name = ?
		  AND index_name != 'PRIMARY'
		GROUP BY index_name
		ORDER BY index_name
	`, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var idx Index
		var columnsStr string
		var isNonUnique int

		if err := rows.Scan(&idx.Name, &columnsStr, &isNonUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		idx.Columns = strings.Split(columnsStr, ",")
		idx.IsUnique = (isNonUnique == 0)
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func (i *MySQLInspector) foreignKeys(ctx context.Context, schema, tableName string) ([]ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT
			kcu.constraint_name,
			GROUP_CONCAT(kcu.column_name ORDER BY kcu.ordinal_position) as columns,
			kcu.referenced_table_name,
			GROUP_CONCAT(kcu.referenced_column_name ORDER BY kcu.ordinal_position) as referenced_columns,
			rc.update_rule,
			rc.delete_rule
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.referential_constraints rc
			ON kcu.constraint_name = rc.constraint_name
			AND kcu.constraint_schema = rc.constraint_schema
		WHERE kcu.table_schema = ?
		  AND kcu.table_name = ?
		  AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_name, kcu.referenced_table_name, rc.update_rule, rc.delete_rule
		ORDER BY kcu.constraint_name
	`, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		var columnsStr, refColumnsStr string

		err := rows.Scan(
			&fk.Name,
			&columnsStr,
			&fk.ReferencedTable,
			&refColumnsStr,
			&fk.OnUpdate,
			&fk.OnDelete,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fk.Columns = strings.Split(columnsStr, ",")
		fk.ReferencedColumns = strings.Split(refColumnsStr, ",")
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// mapMySQLType normalizes MySQL column types.
func mapMySQLType(mysqlType string) string {
	lowerType := strings.ToLower(mysqlType)
	switch {
	case lowerType == "int", strings.HasPrefix(lowerType, "int("):
		return "INT"
	case strings.HasPrefix(lowerType, "bigint"):
		return "BIGINT"
	case strings.HasPrefix(lowerType, "smallint"):
		return "SMALLINT"
	case strings.HasPrefix(lowerType, "tinyint(1)"):
		return "BOOLEAN"
	case strings.HasPrefix(lowerType, "tinyint"):
		return "TINYINT"
	case lowerType == "text":
		return "TEXT"
	case strings.HasPrefix(lowerType, "float"):
		return "FLOAT"
	case strings.HasPrefix(lowerType, "double"):
		return "DOUBLE"
	case strings.HasPrefix(lowerType, "timestamp"):
		return "TIMESTAMP"
	case lowerType == "datetime":
		return "DATETIME"
	case lowerType == "date":
		return "DATE"
	case lowerType == "time":
		return "TIME"
	case lowerType == "json":
		return "JSON"
	case strings.HasPrefix(lowerType, "blob"):
		return "BLOB"
	default:
		return mysqlType
	}
}
