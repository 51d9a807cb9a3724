package inspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SQLiteInspector implements Inspector for SQLite using sqlite_master and
// the table_info/index_list/foreign_key_list pragmas.
type SQLiteInspector struct {
	db *sql.DB
}

// TableNames lists user tables, excluding SQLite's internal tables.
func (i *SQLiteInspector) TableNames(ctx context.Context) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name
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

// Table introspects a single table.
func (i *SQLiteInspector) Table(ctx context.Context, name string) (*Table, error) {
	var count int
	err := i.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name = ?
	`, name).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to check table existence: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	table := &Table{Name: name, Schema: "main"}

	columns, pk, err := i.columns(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect columns for %s: %w", name, err)
	}
	table.Columns = columns
	table.PrimaryKey = pk

	if table.Indexes, err = i.indexes(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect indexes for %s: %w", name, err)
	}
	if table.ForeignKeys, err = i.foreignKeys(ctx, name); err != nil {
		return nil, fmt.Errorf("failed to introspect foreign keys for %s: %w", name, err)
	}
	return table, nil
}

// columns reads PRAGMA table_info, which also carries primary key
// positions.
func (i *SQLiteInspector) columns(ctx context.Context, tableName string) ([]Column, *PrimaryKey, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	var pkColumns []string
	for rows.Next() {
		var cid, notNull, isPk int
		var col Column
		var colType string
		var dfltValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &colType, &notNull, &dfltValue, &isPk); err != nil {
			return nil, nil, fmt.Errorf("failed to scan column: %w", err)
		}

		col.Type = mapSQLiteType(colType)
		col.Nullable = (notNull == 0)
		if dfltValue.Valid && dfltValue.String != "" {
			col.Default = &dfltValue.String
		}
		if isPk > 0 {
			pkColumns = append(pkColumns, col.Name)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var pk *PrimaryKey
	if len(pkColumns) > 0 {
		pk = &PrimaryKey{Columns: pkColumns}
	}
	return columns, pk, nil
}

func (i *SQLiteInspector) indexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	var indexes []Index
	for rows.Next() {
		var seq, unique, partial int
		var idx Index
		var origin string

		if err := rows.Scan(&seq, &idx.Name, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		idx.IsUnique = (unique == 1)
		indexes = append(indexes, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for n := range indexes {
		cols, err := i.indexColumns(ctx, indexes[n].Name)
		if err != nil {
			return nil, err
		}
		indexes[n].Columns = cols
	}
	return indexes, nil
}

func (i *SQLiteInspector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%q)", indexName))
	if err != nil {
		return nil, fmt.Errorf("failed to query index columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, fmt.Errorf("failed to scan index column: %w", err)
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

func (i *SQLiteInspector) foreignKeys(ctx context.Context, tableName string) ([]ForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	// foreign_key_list returns one row per column, grouped by id.
	fkByID := make(map[int]*ForeignKey)
	var order []int
	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}

		if fk, exists := fkByID[id]; exists {
			fk.Columns = append(fk.Columns, from)
			fk.ReferencedColumns = append(fk.ReferencedColumns, to)
		} else {
			fkByID[id] = &ForeignKey{
				Name:              fmt.Sprintf("%s_fk_%d", tableName, id),
				Columns:           []string{from},
				ReferencedTable:   refTable,
				ReferencedColumns: []string{to},
				OnUpdate:          onUpdate,
				OnDelete:          onDelete,
			}
			order = append(order, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fks := make([]ForeignKey, 0, len(order))
	for _, id := range order {
		fks = append(fks, *fkByID[id])
	}
	return fks, nil
}

// mapSQLiteType maps SQLite's flexible column types onto their affinity.
func mapSQLiteType(sqliteType string) string {
	upperType := strings.ToUpper(sqliteType)
	switch {
	case strings.Contains(upperType, "INT"):
		return "INTEGER"
	case strings.Contains(upperType, "CHAR"), strings.Contains(upperType, "TEXT"), strings.Contains(upperType, "CLOB"):
		return "TEXT"
	case strings.Contains(upperType, "BLOB"):
		return "BLOB"
	case strings.Contains(upperType, "REAL"), strings.Contains(upperType, "FLOA"), strings.Contains(upperType, "DOUB"):
		return "REAL"
	case strings.Contains(upperType, "NUMERIC"), strings.Contains(upperType, "DECIMAL"):
		return "NUMERIC"
	default:
		return sqliteType
	}
}
