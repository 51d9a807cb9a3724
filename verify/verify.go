// Package verify checks a live table against an expected set of field
// names. It is a read-only diagnostic: it reports what the database
// actually defines and which expected fields are missing, and mutates
// nothing.
package verify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/complyops/revctl/inspect"
)

// Report is the outcome of one verification. It is computed from live
// introspection on demand and never persisted.
type Report struct {
	Table       string
	Columns     []inspect.Column
	ForeignKeys []inspect.ForeignKey
	Indexes     []inspect.Index

	// Expected preserves the caller's field order; Present and Missing
	// partition it.
	Expected []string
	Present  []string
	Missing  []string
}

// Run introspects the table and checks the expected fields against its
// live columns. A missing table propagates the inspector's
// ErrTableNotFound untouched; it is never reported as "all fields
// missing".
func Run(ctx context.Context, ins inspect.Inspector, table string, expected []string) (*Report, error) {
	live, err := ins.Table(ctx, table)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(live.Columns))
	for _, col := range live.Columns {
		have[col.Name] = true
	}

	report := &Report{
		Table:       live.Name,
		Columns:     live.Columns,
		ForeignKeys: live.ForeignKeys,
		Indexes:     live.Indexes,
	}

	seen := make(map[string]bool, len(expected))
	for _, field := range expected {
		if seen[field] {
			continue
		}
		seen[field] = true
		report.Expected = append(report.Expected, field)
		if have[field] {
			report.Present = append(report.Present, field)
		} else {
			report.Missing = append(report.Missing, field)
		}
	}
	return report, nil
}

// WriteTo prints the operator-facing report. Output depends only on the
// report contents, so re-running against an unchanged database yields
// identical bytes.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Table: %s\n", r.Table)

	fmt.Fprintf(&b, "Columns (%d):\n", len(r.Columns))
	for _, col := range r.Columns {
		fmt.Fprintf(&b, "  - %s: %s\n", col.Name, col.Type)
	}

	fmt.Fprintf(&b, "Foreign keys (%d):\n", len(r.ForeignKeys))
	for _, fk := range r.ForeignKeys {
		fmt.Fprintf(&b, "  - [%s] -> %s.[%s]\n",
			strings.Join(fk.Columns, ", "),
			fk.ReferencedTable,
			strings.Join(fk.ReferencedColumns, ", "))
	}

	fmt.Fprintf(&b, "Indexes (%d):\n", len(r.Indexes))
	for _, idx := range r.Indexes {
		fmt.Fprintf(&b, "  - %s: [%s]\n", idx.Name, strings.Join(idx.Columns, ", "))
	}

	if len(r.Expected) > 0 {
		fmt.Fprintf(&b, "Expected fields:\n")
		missing := make(map[string]bool, len(r.Missing))
		for _, f := range r.Missing {
			missing[f] = true
		}
		for _, field := range r.Expected {
			if missing[field] {
				fmt.Fprintf(&b, "  [ ] %s (missing)\n", field)
			} else {
				fmt.Fprintf(&b, "  [x] %s\n", field)
			}
		}
		fmt.Fprintf(&b, "%d/%d expected fields present\n", len(r.Present), len(r.Expected))
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Ok reports whether every expected field is present.
func (r *Report) Ok() bool {
	return len(r.Missing) == 0
}
